// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uheap

import (
	"fmt"
	"os"
)

// trace, when set true (typically by a debug build or in a test via
// go:linkname-free direct assignment), makes Init, Alloc, Free,
// Realloc, AlignedAlloc, Protect and Close print their arguments and
// result to stderr on their main paths; Stats and Dump do not trace.
// Mirrors cznic/memory's own
// `if trace { ... }` call sites verbatim.
var trace = false

func tracef(format string, args ...interface{}) {
	if !trace {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
	fmt.Fprintln(os.Stderr)
}
