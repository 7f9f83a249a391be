// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uheap

import "unsafe"

const (
	// blockAlign is the multiple headerSize is rounded up to. Must be
	// >= 16, mirroring the teacher's mallocAllign and the C original's
	// "sizeof(header)+16" rule. Request sizes are not rounded, so a
	// split remainder starts at block+want and need not be aligned to
	// blockAlign.
	blockAlign = 16
)

// headerSize is the (aligned) size of a blockHeader, i.e. the per-block
// overhead spec.md §6 reports as Stats.Overhead.
var headerSize = roundup(int(unsafe.Sizeof(blockHeader{})), blockAlign)

// minSplitSize is the smallest remainder split is willing to carve off
// (spec.md §4.2): the header plus 16 bytes of usable payload.
var minSplitSize = headerSize + 16

// roundup rounds n up to the nearest multiple of m; m must be a power
// of two.
func roundup(n, m int) int { return (n + m - 1) &^ (m - 1) }

// blockHeader prefixes every managed byte range. It is written directly
// into OS-provided memory (initial mapping, heap extension, or a split
// remainder) via unsafe.Pointer; next/prev are real *blockHeader values,
// but because the target memory lies outside any Go heap arena, the
// garbage collector treats them as ordinary opaque pointers and does
// not attempt to trace through them (the same pattern cznic/memory's
// own page/node headers rely on).
type blockHeader struct {
	size       int // total length in bytes, header-inclusive
	isFree     bool
	protection Prot
	next       *blockHeader
	prev       *blockHeader
}

// headerAt views the memory at p as a blockHeader. The caller must
// ensure p points at live, header-sized-and-aligned memory.
func headerAt(p unsafe.Pointer) *blockHeader {
	return (*blockHeader)(p)
}

// addr returns b's own address.
func (b *blockHeader) addr() uintptr { return uintptr(unsafe.Pointer(b)) }

// end returns the address one past b's last byte.
func (b *blockHeader) end() uintptr { return b.addr() + uintptr(b.size) }

// payload returns the address of the first user-data byte following
// the header.
func (b *blockHeader) payload() unsafe.Pointer {
	return unsafe.Pointer(b.addr() + uintptr(headerSize))
}

// payloadBytes views b's user-data area as a []byte of length n and
// capacity b.size-headerSize (the full usable slot, which may exceed n
// when split left the request under the minSplitSize threshold). The
// full capacity lets Free and Realloc recover the original slice from
// a caller-held reslice via b[:cap(b)], the same trick cznic/memory's
// own Free relies on.
func (b *blockHeader) payloadBytes(n int) []byte {
	if n == 0 {
		return nil
	}
	avail := b.size - headerSize
	return unsafe.Slice((*byte)(b.payload()), avail)[:n]
}

// blockFromPayload recovers the header preceding a plain (non-aligned)
// user pointer, per spec.md §4.4 step 2.
func blockFromPayload(p unsafe.Pointer) *blockHeader {
	return headerAt(unsafe.Pointer(uintptr(p) - uintptr(headerSize)))
}

// list is an intrusive doubly-linked list of blockHeaders. The zero
// value is an empty list. Neither free_list nor used_list (spec.md §3)
// is kept sorted; list order only reflects insertion/removal history.
type list struct {
	head *blockHeader
}

func (l *list) empty() bool { return l.head == nil }

// pushFront links b at the head of l.
func (l *list) pushFront(b *blockHeader) {
	b.prev = nil
	b.next = l.head
	if l.head != nil {
		l.head.prev = b
	}
	l.head = b
}

// insertAfter links b immediately after after, which must already be a
// member of l. Used by split (spec.md §4.2: "linked into the containing
// list between the parent and the parent's original successor").
func (l *list) insertAfter(after, b *blockHeader) {
	b.prev = after
	b.next = after.next
	if after.next != nil {
		after.next.prev = b
	}
	after.next = b
}

// insertTail links b at the end of l. Used by extend (spec.md §4.5
// step 4: "append it to the tail of the free list").
func (l *list) insertTail(b *blockHeader) {
	if l.head == nil {
		l.pushFront(b)
		return
	}
	last := l.head
	for last.next != nil {
		last = last.next
	}
	l.insertAfter(last, b)
}

// remove unlinks b from l. b must be a member of l.
func (l *list) remove(b *blockHeader) {
	if b.prev != nil {
		b.prev.next = b.next
	} else {
		l.head = b.next
	}
	if b.next != nil {
		b.next.prev = b.prev
	}
	b.next = nil
	b.prev = nil
}

// contains reports whether b is a member of l, by pointer identity.
// Backs the linear "is this a pointer we gave out" check spec.md §4.4
// step 3 requires.
func (l *list) contains(b *blockHeader) bool {
	for cur := l.head; cur != nil; cur = cur.next {
		if cur == b {
			return true
		}
	}
	return false
}

// len walks l and counts its members. O(n); only used by tests and the
// active_allocations invariant check, never on the hot path (markUsed
// and markFree in allocator.go maintain ActiveAllocations
// incrementally).
func (l *list) len() int {
	n := 0
	for cur := l.head; cur != nil; cur = cur.next {
		n++
	}
	return n
}
