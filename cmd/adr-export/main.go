// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command adr-export exports the waveforms stored in ABCD ADR files,
// one output file per channel.
//
// Usage: adr-export [OPTIONS] FILE1 [FILE2 [FILE3 ...]]
//
// Example:
//
//	$> adr-export -ch 2 -max 1000 ./run_042.adr
//	adr-export: exporting channel 2 of "./run_042.adr"...
//	adr-export: created "run_042_wf_ch2.csv"
//	Finished. Exported 1000 waveforms
//	Elapsed time: 0.042 s
//
// When no input file is given, adr-export asks for its parameters
// interactively.
package main // import "github.com/go-lpc/abcd/cmd/adr-export"

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-lpc/abcd"
	"github.com/go-lpc/abcd/export"
	"github.com/peterh/liner"
	"golang.org/x/sync/errgroup"
)

var (
	msg = log.New(os.Stdout, "adr-export: ", 0)
)

func main() {
	xmain(os.Args[1:])
}

func xmain(args []string) {
	var (
		fset = flag.NewFlagSet("adr-export", flag.ExitOnError)

		opts    options
		ch      = fset.Int("ch", -1, "channel to export (-1: all channels)")
		max     = fset.Int("max", 0, "max number of exported waveforms, per channel with -ch=-1 (0: all)")
		exclude = fset.Int("exclude", -1, "channel to exclude when exporting all channels (-1: none)")
		format  = fset.String("fmt", "csv", "output format (csv, lcio, root)")
		odir    = fset.String("o", "", "output directory (default: next to the input file)")
		mmap    = fset.Bool("mmap", false, "memory-map input files")
		njobs   = fset.Int("j", runtime.NumCPU(), "max number of files exported concurrently")
		inter   = fset.Bool("i", false, "ask for the export parameters interactively")
		vers    = fset.Bool("version", false, "print version and exit")
	)

	fset.Usage = func() {
		fmt.Printf(`Usage: adr-export [OPTIONS] FILE1 [FILE2 [FILE3 ...]]

ex:
 $> adr-export -ch 2 -max 1000 ./run_042.adr
 $> adr-export -exclude 0 -fmt root -o ./out ./run_042.adr ./run_043.adr
 $> adr-export -i

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if *vers {
		v, sum := abcd.Version()
		fmt.Printf("adr-export %s %s\n", v, sum)
		return
	}

	opts = options{
		ch:      *ch,
		max:     *max,
		exclude: *exclude,
		format:  *format,
		odir:    *odir,
		mmap:    *mmap,
		njobs:   *njobs,
	}

	fnames := fset.Args()
	if *inter || len(fnames) == 0 {
		fname, err := interactive(&opts)
		if err != nil {
			msg.Fatalf("could not read export parameters: %+v", err)
		}
		fnames = []string{fname}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = run(ctx, os.Stdout, msg, opts, fnames)
	if err != nil {
		stop()
		msg.Fatalf("%+v", err)
	}
}

// options are the export parameters of the command line.
type options struct {
	ch      int // channel to export (-1: all)
	max     int
	exclude int // excluded channel (-1: none)
	format  string
	odir    string
	mmap    bool
	njobs   int
}

func (o options) exportOptions() ([]export.Option, error) {
	format, err := export.ParseFormat(o.format)
	if err != nil {
		return nil, err
	}

	if o.max < 0 {
		return nil, fmt.Errorf("invalid max number of waveforms %d", o.max)
	}

	opts := []export.Option{
		export.WithLimit(o.max),
		export.WithFormat(format),
		export.WithOutputDir(o.odir),
		export.WithMmap(o.mmap),
	}

	switch {
	case o.ch == -1:
		switch {
		case o.exclude == -1:
		case 0 <= o.exclude && o.exclude <= 255:
			opts = append(opts, export.WithExclude(uint8(o.exclude)))
		default:
			return nil, fmt.Errorf("invalid excluded channel %d", o.exclude)
		}
	case 0 <= o.ch && o.ch <= 255:
		opts = append(opts, export.WithChannel(uint8(o.ch)))
	default:
		return nil, fmt.Errorf("invalid channel %d", o.ch)
	}

	return opts, nil
}

// run exports the waveforms of all the input files and prints the
// summary of each export to w.
func run(ctx context.Context, w io.Writer, msg *log.Logger, o options, fnames []string) error {
	opts, err := o.exportOptions()
	if err != nil {
		return fmt.Errorf("invalid export parameters: %w", err)
	}

	var (
		grp, gctx = errgroup.WithContext(ctx)
		sums      = make([]export.Summary, len(fnames))
		errs      = make([]error, len(fnames))
	)
	if o.njobs > 0 {
		grp.SetLimit(o.njobs)
	}

	for i := range fnames {
		i := i
		grp.Go(func() error {
			jopts := append([]export.Option{export.WithLogger(msg)}, opts...)
			sum, err := export.New(fnames[i], jopts...).Process(gctx)
			sums[i] = sum
			if err != nil {
				errs[i] = err
				return fmt.Errorf("could not export %q: %w", fnames[i], err)
			}
			return nil
		})
	}

	err = grp.Wait()

	for i, sum := range sums {
		if errs[i] != nil {
			continue
		}
		if len(fnames) > 1 {
			fmt.Fprintf(w, "=== %s ===\n", fnames[i])
		}
		sum.Print(w)
	}

	return err
}

// prompter asks questions to the user.
type prompter interface {
	Prompt(p string) (string, error)
}

func interactive(o *options) (string, error) {
	term := liner.NewLiner()
	defer term.Close()
	term.SetCtrlCAborts(true)

	fmt.Printf("=== ABCD ADR Waveform Exporter ===\n")
	return ask(term, o)
}

// ask fills o with the answers of the user and returns the input file.
func ask(p prompter, o *options) (string, error) {
	fname, err := p.Prompt("Input ADR file: ")
	if err != nil {
		return "", fmt.Errorf("could not read input file name: %w", err)
	}
	fname = strings.TrimSpace(fname)
	if fname == "" {
		return "", fmt.Errorf("invalid empty input file name")
	}

	o.ch, err = askInt(p, "Channel (-1 = all): ")
	if err != nil {
		return "", err
	}

	o.max, err = askInt(p, "Max waveforms (0 = all): ")
	if err != nil {
		return "", err
	}

	o.exclude = -1
	if o.ch == -1 {
		o.exclude, err = askInt(p, "Exclude channel (-1 = none): ")
		if err != nil {
			return "", err
		}
	}

	return fname, nil
}

func askInt(p prompter, question string) (int, error) {
	for {
		ans, err := p.Prompt(question)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				return 0, fmt.Errorf("aborted: %w", err)
			}
			return 0, fmt.Errorf("could not read answer to %q: %w", question, err)
		}
		v, err := strconv.Atoi(strings.TrimSpace(ans))
		if err != nil {
			fmt.Printf("invalid integer %q\n", ans)
			continue
		}
		return v, nil
	}
}
