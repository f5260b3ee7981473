// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command adr-dump decodes and displays ABCD ADR files.
//
// Usage: adr-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> adr-dump -n 2 ./run_042.adr
//	=== frame 0: data_abcd_waveforms_v0_s52 (52 bytes) ===
//	  ts=        1000 ch=  2 gates=0x01 n=   2 [10 20]
//	  ts=        1010 ch=  3 gates=0x01 n=   2 [30 40]
//	=== frame 1: data_abcd_status_v0_s15 (15 bytes) ===
//	[...]
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-lpc/abcd/adr"
)

func main() {
	log.SetPrefix("adr-dump: ")
	log.SetFlags(0)

	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	var (
		fset = flag.NewFlagSet("adr-dump", flag.ExitOnError)
		npkt = fset.Int("n", -1, "max number of waveforms displayed per frame (-1: all)")
	)

	fset.Usage = func() {
		fmt.Printf(`adr-dump decodes and displays ABCD ADR files.

Usage: adr-dump [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

Example:

 $> adr-dump -n 2 ./run_042.adr
 === frame 0: data_abcd_waveforms_v0_s52 (52 bytes) ===
   ts=        1000 ch=  2 gates=0x01 n=   2 [10 20]
   ts=        1010 ch=  3 gates=0x01 n=   2 [30 40]
 === frame 1: data_abcd_status_v0_s15 (15 bytes) ===
 [...]

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if fset.NArg() == 0 {
		fset.Usage()
		log.Fatalf("missing path to input ADR file")
	}

	for _, fname := range fset.Args() {
		err := process(w, fname, *npkt)
		if err != nil {
			log.Fatalf("could not dump file %q: %+v", fname, err)
		}
	}
}

func process(w io.Writer, fname string, npkt int) error {
	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	f, err := os.Open(fname)
	if err != nil {
		return fmt.Errorf("could not open %q: %w", fname, err)
	}
	defer f.Close()

	r := adr.NewReader(f)
	for i := 0; ; i++ {
		frame, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("could not read frame: %w", err)
		}

		fmt.Fprintf(wbuf, "=== frame %d: %s (%d bytes) ===\n", i, frame.Topic, frame.Size)
		if !frame.IsWaveform() {
			continue
		}

		it := adr.Demux(frame.Body)
		for j := 0; it.Next(); j++ {
			if npkt >= 0 && j >= npkt {
				continue
			}
			pkt := it.Packet()
			fmt.Fprintf(wbuf, "  ts=% 12d ch=% 3d gates=0x%02x n=% 4d %v\n",
				pkt.Timestamp, pkt.Channel, pkt.Gates, len(pkt.Samples), pkt.Samples,
			)
		}
		if err := it.Err(); err != nil {
			fmt.Fprintf(wbuf, "  error: %v\n", err)
		}
	}

	st := r.Stats()
	fmt.Fprintf(wbuf, "=== summary ===\n")
	fmt.Fprintf(wbuf, "Frames:    % 10d\n", st.Frames)
	fmt.Fprintf(wbuf, "Malformed: % 10d\n", st.Malformed)
	fmt.Fprintf(wbuf, "Bytes:     % 10d\n", st.Bytes)
	if err := r.Truncated(); err != nil {
		fmt.Fprintf(wbuf, "Truncated: %v\n", err)
	}

	return nil
}
