// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package abcd holds tools to decode and export the ADR files written by
// the ABCD data acquisition system.
//
// The adr package reads ADR streams and decodes their waveform packets.
// The export package writes the decoded waveforms out, one file per
// channel, as CSV, LCIO or ROOT files.
package abcd // import "github.com/go-lpc/abcd"

import (
	"fmt"
	"runtime/debug"
)

const modulePath = "github.com/go-lpc/abcd"

// Version returns the version of abcd and its checksum.
// The returned values are only valid in binaries built with module support.
func Version() (version, sum string) {
	b, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	return versionOf(b)
}

func versionOf(b *debug.BuildInfo) (version, sum string) {
	if b == nil {
		return "", ""
	}

	if b.Main.Path == modulePath {
		return b.Main.Version, b.Main.Sum
	}

	for _, m := range b.Deps {
		if m.Path != modulePath {
			continue
		}
		if r := m.Replace; r != nil {
			switch {
			case r.Path != "" && r.Version != "":
				return fmt.Sprintf("%s %s", r.Path, r.Version), r.Sum
			case r.Version != "":
				return r.Version, r.Sum
			case r.Path != "":
				return r.Path, r.Sum
			}
			return m.Version + "*", ""
		}
		return m.Version, m.Sum
	}
	return "", ""
}
