// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-lpc/abcd/adr"
)

// Sink receives the exported waveforms of one channel.
type Sink interface {
	Write(pkt adr.WaveformPacket) error
	Close() error
}

// SinkFactory creates the output file fname for the waveforms of channel ch.
type SinkFactory func(fname string, ch uint8) (Sink, error)

// Format is the format of output files.
type Format int

const (
	CSV  Format = iota // one line of comma-separated samples per waveform
	LCIO               // one LCIO event per waveform
	ROOT               // one ROOT tree entry per waveform
)

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return CSV, nil
	case "lcio", "slcio":
		return LCIO, nil
	case "root":
		return ROOT, nil
	}
	return CSV, fmt.Errorf("export: unknown output format %q", s)
}

func (f Format) String() string {
	switch f {
	case CSV:
		return "csv"
	case LCIO:
		return "lcio"
	case ROOT:
		return "root"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Ext returns the file extension of the format.
func (f Format) Ext() string {
	switch f {
	case LCIO:
		return ".slcio"
	case ROOT:
		return ".root"
	}
	return ".csv"
}

func (f Format) factory() SinkFactory {
	switch f {
	case LCIO:
		return func(fname string, ch uint8) (Sink, error) {
			return newLCIOSink(fname, ch)
		}
	case ROOT:
		return func(fname string, ch uint8) (Sink, error) {
			return newROOTSink(fname, ch)
		}
	}
	return func(fname string, ch uint8) (Sink, error) {
		return newCSVSink(fname)
	}
}

// OutputName returns the name of the output file holding the waveforms
// of channel ch extracted from the ADR file fname.
//
// The name is derived from fname, cut at its ".adr" extension, and
// placed under odir when odir is not empty.
func OutputName(fname, odir string, ch uint8, ext string) string {
	dir, base := filepath.Split(fname)
	if i := strings.Index(base, ".adr"); i >= 0 {
		base = base[:i]
	} else {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if odir != "" {
		dir = odir
	}
	return filepath.Join(dir, fmt.Sprintf("%s_wf_ch%d%s", base, ch, ext))
}

// channel is the output of one channel, during an export.
type channel struct {
	id   uint8
	name string
	sink Sink
	n    int // number of exported waveforms
}

// table holds the outputs of an export, created on demand.
type table struct {
	open  func(ch uint8) (Sink, string, error)
	limit int // max number of waveforms per channel (<=0: no limit)
	chans map[uint8]*channel
	msg   *log.Logger
}

func newTable(open func(ch uint8) (Sink, string, error), limit int, msg *log.Logger) *table {
	return &table{
		open:  open,
		limit: limit,
		chans: make(map[uint8]*channel),
		msg:   msg,
	}
}

// write writes pkt to the output of its channel and returns the number
// of waveforms exported for that channel.
// Waveforms beyond the per-channel limit are dropped.
func (tbl *table) write(pkt adr.WaveformPacket) (int, error) {
	ch, ok := tbl.chans[pkt.Channel]
	if !ok {
		sink, name, err := tbl.open(pkt.Channel)
		if err != nil {
			return 0, fmt.Errorf("export: could not create output for channel %d: %w", pkt.Channel, err)
		}
		tbl.msg.Printf("created %q", name)
		ch = &channel{id: pkt.Channel, name: name, sink: sink}
		tbl.chans[pkt.Channel] = ch
	}

	if tbl.limit > 0 && ch.n >= tbl.limit {
		return ch.n, nil
	}

	err := ch.sink.Write(pkt)
	if err != nil {
		return ch.n, fmt.Errorf("export: could not write waveform to %q: %w", ch.name, err)
	}
	ch.n++
	return ch.n, nil
}

func (tbl *table) ids() []uint8 {
	ids := make([]uint8, 0, len(tbl.chans))
	for id := range tbl.chans {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// close closes all outputs and returns the first error encountered.
func (tbl *table) close() error {
	var err error
	for _, id := range tbl.ids() {
		ch := tbl.chans[id]
		if ch.sink == nil {
			continue
		}
		e := ch.sink.Close()
		ch.sink = nil
		if e != nil && err == nil {
			err = fmt.Errorf("could not close %q: %w", ch.name, e)
		}
	}
	return err
}

func (tbl *table) fill(sum *Summary) {
	for id, ch := range tbl.chans {
		sum.Counts[id] = ch.n
		sum.Files[id] = ch.name
		sum.Exported += ch.n
	}
}
