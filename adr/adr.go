// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package adr decodes ABCD raw data (ADR) streams.
//
// An ADR stream is a sequence of frames. Each frame starts with a textual
// topic terminated by a single space. The topic ends with "_s" followed by
// the decimal size of the binary body that comes right after the space:
//
//	data_abcd_waveforms_v0_s42 <42 bytes of body>
//
// Bodies of waveform topics hold a sequence of waveform packets.
package adr // import "github.com/go-lpc/abcd/adr"

import (
	"errors"
	"strings"
)

const (
	// WaveformTopic is the topic prefix of frames carrying waveform packets.
	WaveformTopic = "data_abcd_waveforms"

	sizeMarker = "_s"
	topicSep   = ' '

	// packet header: timestamp(8) + channel(1) + samples(4) + gates(1)
	packetHeaderSize = 8 + 1 + 4 + 1

	// number of samples the digitizer appends to each waveform.
	trailerSize = 4
)

var (
	ErrOutOfBounds     = errors.New("adr: read out of bounds")
	ErrMalformedHeader = errors.New("adr: malformed frame header")
	ErrTruncatedFrame  = errors.New("adr: truncated frame")
	ErrTruncatedPacket = errors.New("adr: truncated waveform packet")
)

// Frame is one topic-delimited message of an ADR stream.
type Frame struct {
	Topic string
	Size  int64  // declared body size
	Body  []byte // exactly Size bytes
}

// IsWaveform returns whether the frame carries waveform packets.
func (f Frame) IsWaveform() bool {
	return strings.HasPrefix(f.Topic, WaveformTopic)
}

// WaveformPacket is a digitized waveform, as recorded for one channel.
type WaveformPacket struct {
	Timestamp   uint64
	Channel     uint8
	SampleCount uint32 // number of samples on the wire
	Gates       uint8  // number of gates (unused)
	Samples     []uint16
}
