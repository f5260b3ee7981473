// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package export

import (
	"fmt"
	"io"
	"sort"
	"time"
)

// Summary describes the outcome of an export.
type Summary struct {
	Input   string
	Mode    Mode
	Channel uint8 // exported channel, in single-channel mode

	Exported int              // total number of exported waveforms
	Counts   map[uint8]int    // number of exported waveforms per channel
	Files    map[uint8]string // output file per channel

	Frames           int  // number of waveform frames
	Skipped          int  // number of frames of other topics
	Malformed        int  // number of malformed topics
	Packets          int  // number of decoded waveform packets
	TruncatedPackets int  // number of frame bodies with undecodable trailing bytes
	TruncatedFrame   bool // whether the stream ended in a frame body

	Elapsed time.Duration
}

// Channels returns the sorted list of exported channels.
func (sum Summary) Channels() []uint8 {
	ids := make([]uint8, 0, len(sum.Counts))
	for id := range sum.Counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Print writes the end-of-export report to w.
func (sum Summary) Print(w io.Writer) {
	switch sum.Mode {
	case SingleChannel:
		fmt.Fprintf(w, "Finished. Exported %d waveforms\n", sum.Exported)
	default:
		fmt.Fprintf(w, "Finished exporting waveforms\n")
		for _, id := range sum.Channels() {
			fmt.Fprintf(w, "  Channel %d: %d waveforms\n", id, sum.Counts[id])
		}
	}
	fmt.Fprintf(w, "Elapsed time: %.3f s\n", sum.Elapsed.Seconds())
}
