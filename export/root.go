// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"fmt"

	"github.com/go-lpc/abcd/adr"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"
)

const rootTree = "waveforms"

// rootSink writes each waveform as an entry of a ROOT tree.
type rootSink struct {
	f    *groot.File
	tree rtree.Writer

	ts      uint64
	ch      uint8
	gates   uint8
	n       int32
	samples []uint16
}

func newROOTSink(fname string, ch uint8) (*rootSink, error) {
	f, err := groot.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("export: could not create ROOT file %q: %w", fname, err)
	}

	sink := &rootSink{f: f}
	wvars := []rtree.WriteVar{
		{Name: "timestamp", Value: &sink.ts},
		{Name: "channel", Value: &sink.ch},
		{Name: "gates", Value: &sink.gates},
		{Name: "nsamples", Value: &sink.n},
		{Name: "samples", Value: &sink.samples, Count: "nsamples"},
	}

	sink.tree, err = rtree.NewWriter(f, rootTree, wvars,
		rtree.WithTitle(fmt.Sprintf("waveforms of channel %d", ch)),
	)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("export: could not create ROOT tree: %w", err)
	}

	return sink, nil
}

func (sink *rootSink) Write(pkt adr.WaveformPacket) error {
	sink.ts = pkt.Timestamp
	sink.ch = pkt.Channel
	sink.gates = pkt.Gates
	sink.n = int32(len(pkt.Samples))
	sink.samples = pkt.Samples

	_, err := sink.tree.Write()
	if err != nil {
		return fmt.Errorf("export: could not write ROOT tree entry: %w", err)
	}
	return nil
}

func (sink *rootSink) Close() error {
	err := sink.tree.Close()
	if err != nil {
		_ = sink.f.Close()
		return fmt.Errorf("export: could not close ROOT tree: %w", err)
	}

	err = sink.f.Close()
	if err != nil {
		return fmt.Errorf("export: could not close ROOT file: %w", err)
	}
	return nil
}
