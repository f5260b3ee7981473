// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adr

import (
	"bytes"
	"errors"
	"testing"
)

func TestCursor(t *testing.T) {
	cur := cursor{buf: []byte{1, 2, 3, 4, 5}}

	p, err := cur.readExact(2)
	if err != nil {
		t.Fatalf("could not read: %+v", err)
	}
	if got, want := p, []byte{1, 2}; !bytes.Equal(got, want) {
		t.Fatalf("invalid read: got=%v, want=%v", got, want)
	}
	if got, want := cur.pos, 2; got != want {
		t.Fatalf("invalid position: got=%d, want=%d", got, want)
	}

	_, err = cur.readExact(4)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrOutOfBounds)
	}
	if got, want := cur.pos, 2; got != want {
		t.Fatalf("cursor advanced on failure: got=%d, want=%d", got, want)
	}

	p, err = cur.readExact(3)
	if err != nil {
		t.Fatalf("could not read: %+v", err)
	}
	if got, want := p, []byte{3, 4, 5}; !bytes.Equal(got, want) {
		t.Fatalf("invalid read: got=%v, want=%v", got, want)
	}

	p, err = cur.readExact(0)
	if err != nil {
		t.Fatalf("could not read empty slice at end of buffer: %+v", err)
	}
	if len(p) != 0 {
		t.Fatalf("invalid empty read: %v", p)
	}

	_, err = cur.readExact(1 << 63)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("invalid error: got=%+v, want=%+v", err, ErrOutOfBounds)
	}
}

func TestCursorSticky(t *testing.T) {
	cur := cursor{buf: []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0xff,
		0x01, 0x00,
	}}

	if got, want := cur.readU64(), uint64(0x0807060504030201); got != want {
		t.Fatalf("invalid u64: got=0x%x, want=0x%x", got, want)
	}
	if got, want := cur.readU8(), uint8(0xff); got != want {
		t.Fatalf("invalid u8: got=0x%x, want=0x%x", got, want)
	}
	if got, want := cur.readU32(), uint32(0); got != want {
		t.Fatalf("invalid u32: got=0x%x, want=0x%x", got, want)
	}
	if !errors.Is(cur.err, ErrOutOfBounds) {
		t.Fatalf("invalid error: got=%+v, want=%+v", cur.err, ErrOutOfBounds)
	}
	if got, want := cur.readU8(), uint8(0); got != want {
		t.Fatalf("read after error: got=0x%x, want=0x%x", got, want)
	}
	if got, want := cur.pos, 9; got != want {
		t.Fatalf("invalid position: got=%d, want=%d", got, want)
	}
}
