// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uheap

import "errors"

var (
	// ErrNotInitialized is returned by Protect when the Allocator has
	// not (yet, or no longer) been initialized. The allocation, Free and
	// Realloc paths return zero values instead.
	ErrNotInitialized = errors.New("uheap: allocator not initialized")
	// ErrAlreadyInitialized is returned by Init when called on an
	// Allocator that is already initialized (spec.md §5's idempotence
	// guard).
	ErrAlreadyInitialized = errors.New("uheap: allocator already initialized")
	// ErrInvalidAlignment is returned by AlignedAlloc when alignment is
	// zero or not a power of two.
	ErrInvalidAlignment = errors.New("uheap: alignment must be a nonzero power of two")
	// ErrInvalidProtectRange is returned by Protect when given an
	// empty byte range.
	ErrInvalidProtectRange = errors.New("uheap: protect requires a non-empty range")
)
