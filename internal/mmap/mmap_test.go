// Copyright 2020 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mmap // import "github.com/go-lpc/abcd/internal/mmap"

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestHandle(t *testing.T) {
	t.Run("nil-handle", func(t *testing.T) {
		var h *Handle

		_, err := h.ReadAt(nil, 0)
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid read-at error: %+v", err)
		}

		err = h.Close()
		if !errors.Is(err, os.ErrInvalid) {
			t.Fatalf("invalid close error: %+v", err)
		}
	})
	t.Run("nil-data", func(t *testing.T) {
		var h Handle

		_, err := h.ReadAt(nil, 0)
		if !errors.Is(err, errClosed) {
			t.Fatalf("invalid read-at error: %+v", err)
		}

		err = h.Close()
		if err != nil {
			t.Fatalf("error closing nil-data handle: %+v", err)
		}
	})
}

func TestOpen(t *testing.T) {
	tmp := t.TempDir()

	for _, tc := range []struct {
		name string
		data []byte
	}{
		{
			name: "empty",
			data: []byte{},
		},
		{
			name: "small",
			data: []byte("data_abcd_events_s3 abc"),
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fname := filepath.Join(tmp, tc.name+".adr")
			err := os.WriteFile(fname, tc.data, 0644)
			if err != nil {
				t.Fatalf("could not create input file: %+v", err)
			}

			h, err := Open(fname)
			if err != nil {
				t.Fatalf("could not mmap file: %+v", err)
			}
			defer h.Close()

			if got, want := h.Len(), len(tc.data); got != want {
				t.Fatalf("invalid len: got=%d, want=%d", got, want)
			}

			got, err := io.ReadAll(h.Reader())
			if err != nil {
				t.Fatalf("could not read mmap handle: %+v", err)
			}
			if string(got) != string(tc.data) {
				t.Fatalf("invalid content: got=%q, want=%q", got, tc.data)
			}

			err = h.Close()
			if err != nil {
				t.Fatalf("could not close mmap handle: %+v", err)
			}

			_, err = h.ReadAt(make([]byte, 1), 0)
			if !errors.Is(err, errClosed) {
				t.Fatalf("invalid read-at error after close: %+v", err)
			}
		})
	}

	_, err := Open(filepath.Join(tmp, "not-there.adr"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("invalid error: %+v", err)
	}
}

func TestHandleReadAt(t *testing.T) {
	h := &Handle{data: []byte{0, 1, 2, 3}}

	if got, want := h.Len(), 4; got != want {
		t.Fatalf("invalid len: got=%d, want=%d", got, want)
	}

	_, err := h.ReadAt(nil, -1)
	if got, want := err.Error(), "mmap: invalid ReadAt offset -1"; got != want {
		t.Fatalf("invalid error: %+v", err)
	}

	p := make([]byte, 3)
	n, err := h.ReadAt(p, 2)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("invalid short read error: %+v", err)
	}
	if got, want := n, 2; got != want {
		t.Fatalf("invalid short read: got=%d, want=%d", got, want)
	}
}
