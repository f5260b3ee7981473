// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"fmt"

	"github.com/go-lpc/abcd/adr"
	"go-hep.org/x/hep/lcio"
)

const (
	lcioDetector   = "ABCD"
	lcioCollection = "ABCD_WAVEFORMS"
)

// lcioSink writes each waveform as an LCIO event holding a single
// tracker raw data hit: CellID0 is the channel, CellID1 the number of
// gates and the ADC values are the samples.
type lcioSink struct {
	w   *lcio.Writer
	ch  uint8
	evt int32
	raw lcio.TrackerRawDataContainer
}

func newLCIOSink(fname string, ch uint8) (*lcioSink, error) {
	w, err := lcio.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("export: could not create LCIO file %q: %w", fname, err)
	}

	err = w.WriteRunHeader(&lcio.RunHeader{
		Detector: lcioDetector,
		Descr:    fmt.Sprintf("waveforms of channel %d", ch),
		Params: lcio.Params{
			Ints: map[string][]int32{
				"Channel": {int32(ch)},
			},
		},
	})
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("export: could not write LCIO run header: %w", err)
	}

	return &lcioSink{
		w:  w,
		ch: ch,
		raw: lcio.TrackerRawDataContainer{
			Flags: lcio.BitsTRawID1,
			Data:  make([]lcio.TrackerRawData, 1),
		},
	}, nil
}

func (sink *lcioSink) Write(pkt adr.WaveformPacket) error {
	evt := lcio.Event{
		EventNumber: sink.evt,
		TimeStamp:   int64(pkt.Timestamp),
		Detector:    lcioDetector,
	}
	sink.raw.Data[0] = lcio.TrackerRawData{
		CellID0: int32(pkt.Channel),
		CellID1: int32(pkt.Gates),
		ADCs:    pkt.Samples,
	}
	evt.Add(lcioCollection, &sink.raw)

	err := sink.w.WriteEvent(&evt)
	if err != nil {
		return fmt.Errorf("export: could not write LCIO event %d: %w", sink.evt, err)
	}
	sink.evt++
	return nil
}

func (sink *lcioSink) Close() error {
	err := sink.w.Close()
	if err != nil {
		return fmt.Errorf("export: could not close LCIO file: %w", err)
	}
	return nil
}
