// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uheap

import "os"

// osPageSize is the platform's native page size, queried once at
// package init time and used by osPageMask for the alignment sanity
// checks in os_pages_unix.go/os_pages_windows.go. A Config.PageSize of
// zero means "use this value" (spec.md §6).
var osPageSize = os.Getpagesize()

// osPageMask is osPageSize-1; osPageSize is always a power of two.
var osPageMask = osPageSize - 1

// roundUpToPageSize rounds size up to the nearest multiple of
// pageSize, per spec.md §4.5 step 1 (and the initial-heap rounding in
// §6's Config.InitialHeapSize).
func roundUpToPageSize(size, pageSize int) int {
	return (size + pageSize - 1) / pageSize * pageSize
}
