// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uheap

// defaultAllocator is the process-wide allocator backing the
// package-level functions below, giving callers the C-style global
// singleton surface spec.md §5/§6 describe (one shared heap, one
// mutex) without forcing every caller to thread an *Allocator through
// their own code. spec.md §9 calls this out explicitly as an
// acceptable parity wrapper around an Allocator value type.
var defaultAllocator = &Allocator{}

// Init initializes the default Allocator. See (*Allocator).Init.
func Init(cfg Config) error { return defaultAllocator.Init(cfg) }

// Alloc allocates from the default Allocator. See (*Allocator).Alloc.
func Alloc(size int) ([]byte, error) { return defaultAllocator.Alloc(size) }

// AlignedAlloc allocates from the default Allocator. See
// (*Allocator).AlignedAlloc.
func AlignedAlloc(size, alignment int) ([]byte, error) {
	return defaultAllocator.AlignedAlloc(size, alignment)
}

// Free releases memory back to the default Allocator. See
// (*Allocator).Free.
func Free(b []byte) error { return defaultAllocator.Free(b) }

// Realloc resizes memory owned by the default Allocator. See
// (*Allocator).Realloc.
func Realloc(b []byte, size int) ([]byte, error) { return defaultAllocator.Realloc(b, size) }

// Protect changes page protection on memory owned by the default
// Allocator. See (*Allocator).Protect.
func Protect(b []byte, prot Prot) error { return defaultAllocator.Protect(b, prot) }

// GetStats snapshots the default Allocator's counters. See
// (*Allocator).Stats.
func GetStats() Stats { return defaultAllocator.Stats() }

// Dump renders the default Allocator's memory map. See
// (*Allocator).Dump.
func Dump() string { return defaultAllocator.Dump() }

// Cleanup releases the default Allocator's resources. See
// (*Allocator).Close.
func Cleanup() error { return defaultAllocator.Close() }
