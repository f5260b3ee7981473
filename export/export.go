// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package export extracts waveforms from ADR streams and writes them
// out, one output file per channel.
package export // import "github.com/go-lpc/abcd/export"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/abcd/adr"
	"github.com/go-lpc/abcd/internal/mmap"
)

// Mode selects which waveforms are exported.
type Mode int

const (
	// AllChannels exports the waveforms of every channel but the excluded one.
	AllChannels Mode = iota
	// SingleChannel exports the waveforms of one channel.
	SingleChannel
)

func (m Mode) String() string {
	switch m {
	case AllChannels:
		return "all-channels"
	case SingleChannel:
		return "single-channel"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

const progressStep = 10000

type config struct {
	mode    Mode
	channel uint8 // target channel, in single-channel mode
	exclude int   // excluded channel, in all-channels mode (-1: none)
	limit   int   // max number of exported waveforms (<=0: no limit)

	format Format
	odir   string
	mmap   bool
	sinks  SinkFactory

	msg *log.Logger
}

func newConfig() config {
	return config{
		mode:    AllChannels,
		exclude: -1,
		format:  CSV,
		msg:     log.New(os.Stdout, "export: ", 0),
	}
}

// Option configures an Exporter.
type Option func(cfg *config)

// WithChannel selects the single-channel mode, exporting only the
// waveforms of channel ch.
func WithChannel(ch uint8) Option {
	return func(cfg *config) {
		cfg.mode = SingleChannel
		cfg.channel = ch
	}
}

// WithExclude excludes channel ch from an all-channels export.
func WithExclude(ch uint8) Option {
	return func(cfg *config) {
		cfg.exclude = int(ch)
	}
}

// WithLimit sets the maximum number of exported waveforms.
// In single-channel mode, the export stops once n waveforms have been
// exported. In all-channels mode, n is a cap applied to each channel.
// A value n <= 0 means no limit.
func WithLimit(n int) Option {
	return func(cfg *config) {
		cfg.limit = n
	}
}

// WithFormat sets the format of the output files.
func WithFormat(f Format) Option {
	return func(cfg *config) {
		cfg.format = f
	}
}

// WithOutputDir sets the directory where output files are created.
// By default, output files are created next to the input file.
func WithOutputDir(dir string) Option {
	return func(cfg *config) {
		cfg.odir = dir
	}
}

// WithMmap memory-maps the input file instead of reading it.
func WithMmap(v bool) Option {
	return func(cfg *config) {
		cfg.mmap = v
	}
}

// WithSinkFactory sets the function used to create the output of each
// channel, overriding the one of the output format.
func WithSinkFactory(f SinkFactory) Option {
	return func(cfg *config) {
		cfg.sinks = f
	}
}

// WithLogger sets the logger used to report progress.
func WithLogger(msg *log.Logger) Option {
	return func(cfg *config) {
		cfg.msg = msg
	}
}

// Exporter exports the waveforms of an ADR file.
type Exporter struct {
	fname string
	cfg   config
}

// New returns an exporter of the waveforms held in the named ADR file.
// Output file names are derived from fname.
func New(fname string, opts ...Option) *Exporter {
	exp := &Exporter{
		fname: fname,
		cfg:   newConfig(),
	}
	for _, opt := range opts {
		opt(&exp.cfg)
	}
	if exp.cfg.sinks == nil {
		exp.cfg.sinks = exp.cfg.format.factory()
	}
	return exp
}

// Process opens the input file and exports its waveforms.
func (exp *Exporter) Process(ctx context.Context) (Summary, error) {
	var r io.Reader
	switch {
	case exp.cfg.mmap:
		h, err := mmap.Open(exp.fname)
		if err != nil {
			return exp.newSummary(), fmt.Errorf("export: could not open input file: %w", err)
		}
		defer h.Close()
		r = h.Reader()
	default:
		f, err := os.Open(exp.fname)
		if err != nil {
			return exp.newSummary(), fmt.Errorf("export: could not open input file: %w", err)
		}
		defer f.Close()
		r = f
	}

	return exp.Run(ctx, r)
}

// Run exports the waveforms read from r.
//
// Run checks ctx between frames and stops when it is done.
// All output files are closed when Run returns.
func (exp *Exporter) Run(ctx context.Context, r io.Reader) (Summary, error) {
	var (
		start = time.Now()
		sum   = exp.newSummary()
		tbl   = newTable(exp.open, exp.cfg.limit, exp.cfg.msg)
	)

	switch exp.cfg.mode {
	case SingleChannel:
		exp.cfg.msg.Printf("exporting channel %d of %q...", exp.cfg.channel, exp.fname)
	default:
		exp.cfg.msg.Printf("exporting all channels of %q...", exp.fname)
	}

	err := exp.run(ctx, r, tbl, &sum)
	if e := tbl.close(); e != nil && err == nil {
		err = fmt.Errorf("export: could not close output files: %w", e)
	}
	tbl.fill(&sum)
	sum.Elapsed = time.Since(start)

	return sum, err
}

func (exp *Exporter) run(ctx context.Context, r io.Reader, tbl *table, sum *Summary) error {
	rdr := adr.NewReader(r, adr.WithTopics(adr.WaveformTopic))
	defer func() {
		st := rdr.Stats()
		sum.Frames = st.Frames
		sum.Skipped = st.Skipped
		sum.Malformed = st.Malformed
		sum.TruncatedFrame = st.Truncated
	}()

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("export: interrupted: %w", err)
		}

		frame, err := rdr.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if err := rdr.Truncated(); err != nil {
					exp.cfg.msg.Printf("discarding last frame: %+v", err)
				}
				return nil
			}
			return fmt.Errorf("export: could not read input stream: %w", err)
		}

		done, err := exp.demux(frame, tbl, sum)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

// demux routes the waveforms of a frame to their output.
// demux reports whether the export is complete.
func (exp *Exporter) demux(frame adr.Frame, tbl *table, sum *Summary) (bool, error) {
	it := adr.Demux(frame.Body)
	for it.Next() {
		pkt := it.Packet()
		sum.Packets++

		switch exp.cfg.mode {
		case SingleChannel:
			if pkt.Channel != exp.cfg.channel {
				continue
			}
			n, err := tbl.write(pkt)
			if err != nil {
				return false, err
			}
			if n%progressStep == 0 {
				exp.cfg.msg.Printf("exported %d waveforms", n)
			}
			if exp.cfg.limit > 0 && n >= exp.cfg.limit {
				return true, nil
			}

		default:
			if int(pkt.Channel) == exp.cfg.exclude {
				continue
			}
			_, err := tbl.write(pkt)
			if err != nil {
				return false, err
			}
		}
	}

	if err := it.Err(); err != nil {
		sum.TruncatedPackets++
	}
	return false, nil
}

func (exp *Exporter) open(ch uint8) (Sink, string, error) {
	oname := OutputName(exp.fname, exp.cfg.odir, ch, exp.cfg.format.Ext())
	sink, err := exp.cfg.sinks(oname, ch)
	if err != nil {
		return nil, oname, err
	}
	return sink, oname, nil
}

func (exp *Exporter) newSummary() Summary {
	return Summary{
		Input:   exp.fname,
		Mode:    exp.cfg.mode,
		Channel: exp.cfg.channel,
		Counts:  make(map[uint8]int),
		Files:   make(map[uint8]string),
	}
}
