// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package adr

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

const (
	// bodies smaller than this are pre-allocated in one go.
	maxBodyPrealloc = 64 << 20
)

// Stats holds counters about a scanned ADR stream.
type Stats struct {
	Frames    int   // number of well-formed frames
	Skipped   int   // number of frames discarded by the topic filter
	Malformed int   // number of topics without a valid size suffix
	Truncated bool  // whether the stream ended in the middle of a frame body
	Bytes     int64 // number of bytes consumed
}

// Reader reads frames from an ADR stream.
//
// Reader scans its input forward only: malformed topics are discarded
// and scanning resumes after their separator. A frame whose body is cut
// by the end of the stream is discarded and ends the scan.
type Reader struct {
	r     *bufio.Reader
	bufsz int

	topic  []byte
	body   bytes.Buffer
	topics []string // accepted topic prefixes (all, if empty)

	stats Stats
	trunc error // truncated trailing frame, if any
	err   error
}

// ReaderOption configures a Reader.
type ReaderOption func(r *Reader)

// WithTopics restricts the frames returned by a Reader to those whose
// topic starts with one of the provided prefixes.
// Bodies of other frames are consumed and discarded.
func WithTopics(prefixes ...string) ReaderOption {
	return func(r *Reader) {
		r.topics = append(r.topics[:0], prefixes...)
	}
}

// WithBufferSize sets the size of the read buffer.
func WithBufferSize(n int) ReaderOption {
	return func(r *Reader) {
		r.bufsz = n
	}
}

// NewReader returns a new reader of frames from r.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	rdr := &Reader{bufsz: 64 * 1024}
	for _, opt := range opts {
		opt(rdr)
	}
	rdr.r = bufio.NewReaderSize(r, rdr.bufsz)
	return rdr
}

// Stats returns the counters collected so far.
func (r *Reader) Stats() Stats {
	return r.stats
}

// Next returns the next frame of the stream.
// Next returns io.EOF when no further frame can be read.
//
// The body of the returned frame is only valid until the next call to Next.
func (r *Reader) Next() (Frame, error) {
	for {
		if r.err != nil {
			return Frame{}, r.err
		}

		err := r.readTopic()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				err = xerrors.Errorf("adr: could not read frame topic: %w", err)
			}
			r.err = err
			return Frame{}, r.err
		}

		size, err := parseSize(r.topic)
		if err != nil {
			r.stats.Malformed++
			continue
		}

		topic := string(r.topic)
		if !r.accept(topic) {
			n, err := io.CopyN(io.Discard, r.r, size)
			r.stats.Bytes += n
			if err != nil {
				r.fail(err, topic, size, n)
				continue
			}
			r.stats.Skipped++
			continue
		}

		r.body.Reset()
		if size <= maxBodyPrealloc {
			r.body.Grow(int(size))
		}
		n, err := io.CopyN(&r.body, r.r, size)
		r.stats.Bytes += n
		if err != nil {
			r.fail(err, topic, size, n)
			continue
		}

		r.stats.Frames++
		return Frame{
			Topic: topic,
			Size:  size,
			Body:  r.body.Bytes(),
		}, nil
	}
}

// Truncated returns the error describing the frame discarded because
// the stream ended in the middle of its body, if any.
func (r *Reader) Truncated() error {
	return r.trunc
}

// fail records the error that stopped the reading of a frame body.
func (r *Reader) fail(err error, topic string, size, n int64) {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		r.stats.Truncated = true
		r.trunc = xerrors.Errorf(
			"adr: frame %q declares %d bytes, stream ended after %d: %w",
			topic, size, n, ErrTruncatedFrame,
		)
		r.err = io.EOF
		return
	}
	r.err = xerrors.Errorf("adr: could not read body of frame %q: %w", topic, err)
}

func (r *Reader) accept(topic string) bool {
	if len(r.topics) == 0 {
		return true
	}
	for _, prefix := range r.topics {
		if strings.HasPrefix(topic, prefix) {
			return true
		}
	}
	return false
}

// readTopic accumulates bytes until the next topic separator.
// Bytes read before the end of the stream without a separator are dropped.
func (r *Reader) readTopic() error {
	r.topic = r.topic[:0]
	for {
		p, err := r.r.ReadSlice(topicSep)
		r.stats.Bytes += int64(len(p))
		r.topic = append(r.topic, p...)
		switch {
		case err == nil:
			r.topic = r.topic[:len(r.topic)-1]
			return nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return err
		}
	}
}

// parseSize extracts the declared body size from the decimal suffix
// following the last "_s" marker of a topic.
func parseSize(topic []byte) (int64, error) {
	i := bytes.LastIndex(topic, []byte(sizeMarker))
	if i < 0 {
		return 0, xerrors.Errorf("adr: topic %q has no size marker: %w", topic, ErrMalformedHeader)
	}
	v, err := strconv.ParseUint(string(topic[i+len(sizeMarker):]), 10, 63)
	if err != nil {
		return 0, xerrors.Errorf("adr: invalid size in topic %q: %w", topic, ErrMalformedHeader)
	}
	return int64(v), nil
}
