// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adr

import (
	"encoding/binary"
	"io"
	"strconv"

	"golang.org/x/xerrors"
)

// Writer writes frames in the ADR format.
type Writer struct {
	w   io.Writer
	hdr []byte
}

// NewWriter returns a new writer of ADR frames to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteFrame writes a frame with the provided topic and body.
// The "_s<size>" suffix is appended to topic.
func (w *Writer) WriteFrame(topic string, body []byte) error {
	w.hdr = append(w.hdr[:0], topic...)
	w.hdr = append(w.hdr, sizeMarker...)
	w.hdr = strconv.AppendInt(w.hdr, int64(len(body)), 10)
	w.hdr = append(w.hdr, topicSep)

	_, err := w.w.Write(w.hdr)
	if err != nil {
		return xerrors.Errorf("adr: could not write topic %q: %w", topic, err)
	}

	_, err = w.w.Write(body)
	if err != nil {
		return xerrors.Errorf("adr: could not write body of topic %q: %w", topic, err)
	}
	return nil
}

// AppendPacket appends the wire representation of pkt to dst.
// All the samples of pkt are written: the digitizer trailer, if any,
// must be part of pkt.Samples.
func AppendPacket(dst []byte, pkt WaveformPacket) []byte {
	var buf [packetHeaderSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], pkt.Timestamp)
	buf[8] = pkt.Channel
	binary.LittleEndian.PutUint32(buf[9:13], uint32(len(pkt.Samples)))
	buf[13] = pkt.Gates

	dst = append(dst, buf[:]...)
	for _, v := range pkt.Samples {
		dst = append(dst, byte(v), byte(v>>8))
	}
	return dst
}
