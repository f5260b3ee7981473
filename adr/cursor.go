// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adr

import (
	"encoding/binary"
)

// cursor is a bounds-checked read position over an in-memory buffer.
type cursor struct {
	buf []byte
	pos int
	err error
}

// readExact returns the next n bytes and advances the cursor.
// On failure, the cursor is left untouched.
func (c *cursor) readExact(n uint64) ([]byte, error) {
	if n > uint64(len(c.buf)-c.pos) {
		return nil, ErrOutOfBounds
	}
	beg := c.pos
	c.pos += int(n)
	return c.buf[beg:c.pos], nil
}

func (c *cursor) load(n uint64) []byte {
	if c.err != nil {
		return nil
	}
	p, err := c.readExact(n)
	if err != nil {
		c.err = err
		return nil
	}
	return p
}

func (c *cursor) readU8() uint8 {
	p := c.load(1)
	if p == nil {
		return 0
	}
	return p[0]
}

func (c *cursor) readU32() uint32 {
	p := c.load(4)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(p)
}

func (c *cursor) readU64() uint64 {
	p := c.load(8)
	if p == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(p)
}
