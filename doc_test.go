// Copyright 2026 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package abcd

import (
	"runtime/debug"
	"testing"
)

func TestVersion(t *testing.T) {
	for _, tc := range []struct {
		name string
		b    *debug.BuildInfo
		vers string
		sum  string
	}{
		{
			name: "nil",
		},
		{
			name: "main-module",
			b: &debug.BuildInfo{
				Main: debug.Module{Path: modulePath, Version: "(devel)"},
			},
			vers: "(devel)",
		},
		{
			name: "no-dep",
			b: &debug.BuildInfo{
				Main: debug.Module{Path: "example.org/daq"},
				Deps: []*debug.Module{{Path: "go-hep.org/x/hep", Version: "v0.32.1"}},
			},
		},
		{
			name: "dep",
			b: &debug.BuildInfo{
				Main: debug.Module{Path: "example.org/daq"},
				Deps: []*debug.Module{
					{Path: "go-hep.org/x/hep", Version: "v0.32.1"},
					{Path: modulePath, Version: "v0.3.0", Sum: "h1:xxx"},
				},
			},
			vers: "v0.3.0",
			sum:  "h1:xxx",
		},
		{
			name: "replace-path-version",
			b: &debug.BuildInfo{
				Deps: []*debug.Module{{
					Path: modulePath, Version: "v0.3.0",
					Replace: &debug.Module{Path: "example.org/abcd", Version: "v0.3.1", Sum: "h1:yyy"},
				}},
			},
			vers: "example.org/abcd v0.3.1",
			sum:  "h1:yyy",
		},
		{
			name: "replace-version",
			b: &debug.BuildInfo{
				Deps: []*debug.Module{{
					Path: modulePath, Version: "v0.3.0",
					Replace: &debug.Module{Version: "v0.3.1", Sum: "h1:yyy"},
				}},
			},
			vers: "v0.3.1",
			sum:  "h1:yyy",
		},
		{
			name: "replace-path",
			b: &debug.BuildInfo{
				Deps: []*debug.Module{{
					Path: modulePath, Version: "v0.3.0",
					Replace: &debug.Module{Path: "../abcd"},
				}},
			},
			vers: "../abcd",
		},
		{
			name: "replace-empty",
			b: &debug.BuildInfo{
				Deps: []*debug.Module{{
					Path: modulePath, Version: "v0.3.0",
					Replace: &debug.Module{},
				}},
			},
			vers: "v0.3.0*",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			vers, sum := versionOf(tc.b)
			if got, want := vers, tc.vers; got != want {
				t.Fatalf("invalid version: got=%q, want=%q", got, want)
			}
			if got, want := sum, tc.sum; got != want {
				t.Fatalf("invalid sum: got=%q, want=%q", got, want)
			}
		})
	}
}
