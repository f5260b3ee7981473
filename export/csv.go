// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"fmt"
	"strconv"

	"github.com/go-lpc/abcd/adr"
	"go-hep.org/x/hep/csvutil"
)

// csvSink writes the samples of each waveform as one line of
// comma-separated decimal values.
type csvSink struct {
	tbl *csvutil.Table
	row []string
}

func newCSVSink(fname string) (*csvSink, error) {
	tbl, err := csvutil.Create(fname)
	if err != nil {
		return nil, fmt.Errorf("export: could not create CSV file %q: %w", fname, err)
	}
	tbl.Writer.Comma = ','
	tbl.Writer.UseCRLF = false

	return &csvSink{tbl: tbl}, nil
}

func (sink *csvSink) Write(pkt adr.WaveformPacket) error {
	sink.row = sink.row[:0]
	for _, v := range pkt.Samples {
		sink.row = append(sink.row, strconv.FormatUint(uint64(v), 10))
	}
	return sink.tbl.Writer.Write(sink.row)
}

func (sink *csvSink) Close() error {
	sink.tbl.Writer.Flush()
	err := sink.tbl.Writer.Error()
	if err != nil {
		_ = sink.tbl.Close()
		return fmt.Errorf("export: could not flush CSV file: %w", err)
	}

	err = sink.tbl.Close()
	if err != nil {
		return fmt.Errorf("export: could not close CSV file: %w", err)
	}
	return nil
}
