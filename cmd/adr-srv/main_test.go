// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/go-daq/tdaq"
	tlog "github.com/go-daq/tdaq/log"
	"github.com/go-lpc/abcd/adr"
)

func newContext(ctx context.Context) tdaq.Context {
	return tdaq.Context{
		Ctx: ctx,
		Msg: tlog.NewMsgStream("adr-srv", tlog.LvlDebug, io.Discard),
	}
}

func decodePacket(t *testing.T, p []byte) adr.WaveformPacket {
	t.Helper()

	var (
		pkt adr.WaveformPacket
		dec = tdaq.NewDecoder(bytes.NewReader(p))
	)
	pkt.Timestamp = dec.ReadU64()
	pkt.Channel = dec.ReadU8()
	pkt.Gates = dec.ReadU8()
	pkt.SampleCount = dec.ReadU32()
	pkt.Samples = make([]uint16, pkt.SampleCount)
	for i := range pkt.Samples {
		pkt.Samples[i] = dec.ReadU16()
	}
	if err := dec.Err(); err != nil {
		t.Fatalf("could not decode waveform: %+v", err)
	}
	return pkt
}

func configRequest(fname string) tdaq.Frame {
	buf := new(bytes.Buffer)
	enc := tdaq.NewEncoder(buf)
	enc.WriteStr(fname)
	return tdaq.Frame{Body: buf.Bytes()}
}

func TestEncodePacket(t *testing.T) {
	pkt := adr.WaveformPacket{
		Timestamp: 0x1122334455667788,
		Channel:   42,
		Gates:     3,
		Samples:   []uint16{1, 0xffff, 3},
	}
	raw, err := encodePacket(pkt)
	if err != nil {
		t.Fatalf("could not encode waveform: %+v", err)
	}
	if got, want := len(raw), 8+1+1+4+3*2; got != want {
		t.Fatalf("invalid encoded size: got=%d, want=%d", got, want)
	}

	got := decodePacket(t, raw)
	pkt.SampleCount = 3
	if !reflect.DeepEqual(got, pkt) {
		t.Fatalf("invalid round-trip:\ngot= %+v\nwant=%+v", got, pkt)
	}
}

func TestReplay(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "run.adr")
	f, err := os.Create(fname)
	if err != nil {
		t.Fatalf("could not create ADR file: %+v", err)
	}
	defer f.Close()

	var (
		pkts = []adr.WaveformPacket{
			{Timestamp: 1, Channel: 1, Gates: 1, Samples: []uint16{1, 2}},
			{Timestamp: 2, Channel: 2, Gates: 2, Samples: []uint16{3, 4, 0, 0, 0, 0}},
			{Timestamp: 3, Channel: 1, Gates: 3, Samples: []uint16{5}},
		}
		want = []adr.WaveformPacket{
			{Timestamp: 1, Channel: 1, Gates: 1, SampleCount: 2, Samples: []uint16{1, 2}},
			{Timestamp: 2, Channel: 2, Gates: 2, SampleCount: 2, Samples: []uint16{3, 4}},
			{Timestamp: 3, Channel: 1, Gates: 3, SampleCount: 1, Samples: []uint16{5}},
		}
	)

	w := adr.NewWriter(f)
	for _, frame := range []struct {
		topic string
		pkts  []adr.WaveformPacket
	}{
		{adr.WaveformTopic + "_v0", pkts[:2]},
		{"data_abcd_events_v0", nil},
		{adr.WaveformTopic + "_v0", pkts[2:]},
	} {
		var body []byte
		for _, pkt := range frame.pkts {
			body = adr.AppendPacket(body, pkt)
		}
		err = w.WriteFrame(frame.topic, body)
		if err != nil {
			t.Fatalf("could not write frame: %+v", err)
		}
	}
	err = f.Close()
	if err != nil {
		t.Fatalf("could not close ADR file: %+v", err)
	}

	var (
		dev  = newReplay("adr-srv")
		ctx  = newContext(context.Background())
		resp tdaq.Frame
	)

	err = dev.OnInit(ctx, &resp, tdaq.Frame{})
	if err == nil {
		t.Fatalf("expected an error initializing an unconfigured server")
	}

	err = dev.OnConfig(ctx, &resp, configRequest(""))
	if err == nil {
		t.Fatalf("expected an error configuring with an empty file name")
	}

	for _, tc := range []struct {
		name string
		cmd  func(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error
		req  tdaq.Frame
	}{
		{"/config", dev.OnConfig, configRequest(fname)},
		{"/init", dev.OnInit, tdaq.Frame{}},
		{"/start", dev.OnStart, tdaq.Frame{}},
	} {
		err := tc.cmd(ctx, &resp, tc.req)
		if err != nil {
			t.Fatalf("could not run %s: %+v", tc.name, err)
		}
	}

	for run := 0; run < 2; run++ {
		err = dev.run(ctx)
		if err != nil {
			t.Fatalf("run %d: could not replay ADR file: %+v", run, err)
		}

		for i := range want {
			var dst tdaq.Frame
			err := dev.waveforms(ctx, &dst)
			if err != nil {
				t.Fatalf("run %d: could not retrieve waveform %d: %+v", run, i, err)
			}
			got := decodePacket(t, dst.Body)
			if !reflect.DeepEqual(got, want[i]) {
				t.Fatalf("run %d: invalid waveform %d:\ngot= %+v\nwant=%+v", run, i, got, want[i])
			}
		}

		if got, want := dev.n, len(want); got != want {
			t.Fatalf("run %d: invalid number of published waveforms: got=%d, want=%d", run, got, want)
		}

		for _, tc := range []struct {
			name string
			cmd  func(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error
		}{
			{"/stop", dev.OnStop},
			{"/reset", dev.OnReset},
		} {
			err := tc.cmd(ctx, &resp, tdaq.Frame{})
			if err != nil {
				t.Fatalf("run %d: could not run %s: %+v", run, tc.name, err)
			}
		}
	}

	cctx, cancel := context.WithCancel(context.Background())
	cancel()
	var dst tdaq.Frame
	err = dev.waveforms(newContext(cctx), &dst)
	if err != nil {
		t.Fatalf("could not retrieve waveform from canceled context: %+v", err)
	}
	if dst.Body != nil {
		t.Fatalf("invalid waveform from canceled context: %v", dst.Body)
	}

	err = dev.OnQuit(ctx, &resp, tdaq.Frame{})
	if err != nil {
		t.Fatalf("could not run /quit: %+v", err)
	}
	if dev.f != nil {
		t.Fatalf("ADR file was not closed")
	}
}

func TestReplayResetWhilePublishing(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "run.adr")
	f, err := os.Create(fname)
	if err != nil {
		t.Fatalf("could not create ADR file: %+v", err)
	}
	defer f.Close()

	err = adr.NewWriter(f).WriteFrame(adr.WaveformTopic+"_v0", adr.AppendPacket(nil, adr.WaveformPacket{
		Timestamp: 1, Channel: 1, Samples: []uint16{1, 2},
	}))
	if err != nil {
		t.Fatalf("could not write frame: %+v", err)
	}
	err = f.Close()
	if err != nil {
		t.Fatalf("could not close ADR file: %+v", err)
	}

	var (
		dev  = newReplay("adr-srv")
		ctx  = newContext(context.Background())
		resp tdaq.Frame
	)
	for _, tc := range []struct {
		name string
		cmd  func(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error
		req  tdaq.Frame
	}{
		{"/config", dev.OnConfig, configRequest(fname)},
		{"/init", dev.OnInit, tdaq.Frame{}},
	} {
		err := tc.cmd(ctx, &resp, tc.req)
		if err != nil {
			t.Fatalf("could not run %s: %+v", tc.name, err)
		}
	}

	const n = 10
	var (
		wg  sync.WaitGroup
		out = newContext(context.Background())
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			err := dev.OnReset(ctx, &resp, tdaq.Frame{})
			if err != nil {
				t.Errorf("could not run /reset: %+v", err)
				return
			}
			err = dev.run(ctx)
			if err != nil {
				t.Errorf("could not replay ADR file: %+v", err)
				return
			}
		}
	}()

	cctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out.Ctx = cctx

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var dst tdaq.Frame
			err := dev.waveforms(out, &dst)
			if err != nil {
				t.Errorf("could not retrieve waveform: %+v", err)
				return
			}
			if dst.Body == nil {
				return
			}
		}
	}()

	wg.Wait()
	cancel()
	<-done

	err = dev.OnQuit(ctx, &resp, tdaq.Frame{})
	if err != nil {
		t.Fatalf("could not run /quit: %+v", err)
	}
}
