// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command adr-srv starts a TDAQ server replaying the waveforms of an
// ABCD ADR file.
//
// The name of the ADR file is sent with the /config command.
// Each waveform is published on the /waveforms output as:
//
//	u64 timestamp
//	u8  channel
//	u8  gates
//	u32 number of samples
//	u16 samples...
package main // import "github.com/go-lpc/abcd/cmd/adr-srv"

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/abcd/adr"
)

func main() {
	cmd := flags.New()

	dev := newReplay(cmd.Args[0])

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/waveforms", dev.waveforms)

	srv.RunHandle(dev.run)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

type replay struct {
	name string

	mu    sync.Mutex
	fname string
	f     *os.File
	rdr   *adr.Reader

	n    int // number of published waveforms
	data chan []byte
}

func newReplay(name string) *replay {
	return &replay{name: name}
}

func (dev *replay) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")

	dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
	fname := dec.ReadStr()
	if err := dec.Err(); err != nil {
		ctx.Msg.Errorf("could not decode /config request: %+v", err)
		return fmt.Errorf("could not decode /config request: %w", err)
	}
	if fname == "" {
		return fmt.Errorf("invalid empty ADR file name")
	}

	dev.mu.Lock()
	dev.fname = fname
	dev.mu.Unlock()

	ctx.Msg.Infof("configured with ADR file %q", fname)
	return nil
}

func (dev *replay) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	return dev.open(ctx)
}

func (dev *replay) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	return dev.open(ctx)
}

func (dev *replay) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (dev *replay) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	dev.mu.Lock()
	n := dev.n
	dev.mu.Unlock()
	ctx.Msg.Debugf("received /stop command... -> n=%d", n)
	return nil
}

func (dev *replay) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")

	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.close()
}

// open (re)opens the configured ADR file.
func (dev *replay) open(ctx tdaq.Context) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()

	if dev.fname == "" {
		return fmt.Errorf("no ADR file configured")
	}

	err := dev.close()
	if err != nil {
		ctx.Msg.Warnf("could not close previous ADR file: %+v", err)
	}

	f, err := os.Open(dev.fname)
	if err != nil {
		ctx.Msg.Errorf("could not open ADR file %q: %+v", dev.fname, err)
		return fmt.Errorf("could not open ADR file %q: %w", dev.fname, err)
	}

	dev.f = f
	dev.rdr = adr.NewReader(f, adr.WithTopics(adr.WaveformTopic))
	dev.data = make(chan []byte, 1024)
	dev.n = 0
	return nil
}

func (dev *replay) close() error {
	if dev.f == nil {
		return nil
	}
	err := dev.f.Close()
	dev.f = nil
	dev.rdr = nil
	return err
}

func (dev *replay) waveforms(ctx tdaq.Context, dst *tdaq.Frame) error {
	dev.mu.Lock()
	data := dev.data
	dev.mu.Unlock()

	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case raw := <-data:
		dst.Body = raw
	}
	return nil
}

func (dev *replay) run(ctx tdaq.Context) error {
	dev.mu.Lock()
	rdr, data := dev.rdr, dev.data
	dev.mu.Unlock()

	if rdr == nil {
		return fmt.Errorf("no ADR file opened")
	}

	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		default:
		}

		frame, err := rdr.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if err := rdr.Truncated(); err != nil {
					ctx.Msg.Warnf("discarding last frame: %+v", err)
				}
				st := rdr.Stats()
				ctx.Msg.Infof("end of ADR file: frames=%d, malformed=%d", st.Frames, st.Malformed)
				return nil
			}
			return fmt.Errorf("could not read ADR frame: %w", err)
		}

		it := adr.Demux(frame.Body)
		for it.Next() {
			raw, err := encodePacket(it.Packet())
			if err != nil {
				return fmt.Errorf("could not encode waveform: %w", err)
			}
			select {
			case <-ctx.Ctx.Done():
				return nil
			case data <- raw:
				dev.mu.Lock()
				dev.n++
				dev.mu.Unlock()
			}
		}
		if err := it.Err(); err != nil {
			ctx.Msg.Warnf("abandoning frame %q: %+v", frame.Topic, err)
		}
	}
}

func encodePacket(pkt adr.WaveformPacket) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := tdaq.NewEncoder(buf)
	enc.WriteU64(pkt.Timestamp)
	enc.WriteU8(pkt.Channel)
	enc.WriteU8(pkt.Gates)
	enc.WriteU32(uint32(len(pkt.Samples)))
	for _, v := range pkt.Samples {
		enc.WriteU16(v)
	}
	if err := enc.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
