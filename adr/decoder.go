// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adr

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// DecodePacket decodes the waveform packet located at offset pos of buf.
// DecodePacket returns the decoded packet and the offset of the next one.
//
// The 4 trailing samples the digitizer appends to each waveform are
// removed from the returned packet, unless the packet holds fewer than
// 4 samples.
func DecodePacket(buf []byte, pos int) (WaveformPacket, int, error) {
	var pkt WaveformPacket
	if pos < 0 || pos > len(buf) {
		return pkt, pos, xerrors.Errorf("adr: invalid packet offset %d: %w", pos, ErrTruncatedPacket)
	}

	cur := cursor{buf: buf, pos: pos}
	pkt.Timestamp = cur.readU64()
	pkt.Channel = cur.readU8()
	pkt.SampleCount = cur.readU32()
	pkt.Gates = cur.readU8()
	if cur.err != nil {
		return pkt, pos, xerrors.Errorf(
			"adr: could not read packet header at offset %d (%d bytes left): %w",
			pos, len(buf)-pos, ErrTruncatedPacket,
		)
	}

	raw, err := cur.readExact(2 * uint64(pkt.SampleCount))
	if err != nil {
		return pkt, pos, xerrors.Errorf(
			"adr: could not read %d samples of channel %d at offset %d: %w",
			pkt.SampleCount, pkt.Channel, pos, ErrTruncatedPacket,
		)
	}

	pkt.Samples = make([]uint16, pkt.SampleCount)
	for i := range pkt.Samples {
		pkt.Samples[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}

	if len(pkt.Samples) >= trailerSize {
		pkt.Samples = pkt.Samples[:len(pkt.Samples)-trailerSize]
	}

	return pkt, cur.pos, nil
}

// Packets iterates over the waveform packets of a frame body.
//
// Iteration stops at the end of the body or at the first packet that
// could not be decoded. In the latter case, the rest of the body is
// abandoned and Err reports why.
type Packets struct {
	buf []byte
	pos int
	pkt WaveformPacket
	err error
}

// Demux returns an iterator over the waveform packets held by body.
func Demux(body []byte) *Packets {
	return &Packets{buf: body}
}

// Next decodes the next packet and reports whether there was one.
func (it *Packets) Next() bool {
	if it.err != nil || it.pos >= len(it.buf) {
		return false
	}

	pkt, pos, err := DecodePacket(it.buf, it.pos)
	if err != nil {
		it.err = err
		return false
	}
	it.pkt = pkt
	it.pos = pos
	return true
}

// Packet returns the packet decoded by the last call to Next.
func (it *Packets) Packet() WaveformPacket {
	return it.pkt
}

// Offset returns the offset of the first byte not yet decoded.
func (it *Packets) Offset() int {
	return it.pos
}

// Err returns the decoding error that stopped the iteration, if any.
func (it *Packets) Err() error {
	return it.err
}
