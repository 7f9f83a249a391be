// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uheap

import "unsafe"

// split carves block in place per spec.md §4.2: if block is at least
// want+minSplitSize bytes, the prefix is shrunk to want and a new
// header describing the remainder is written at block+want and
// returned, unlinked, for the caller to insert into whichever list is
// appropriate (the free list, in every call site). If the remainder
// would fall below the split threshold, the whole block is handed out
// as-is (the surplus becomes internal fragmentation) and split returns
// nil.
func (a *Allocator) split(block *blockHeader, want int) *blockHeader {
	if block.size < want+minSplitSize {
		return nil
	}

	remainder := headerAt(unsafe.Pointer(block.addr() + uintptr(want)))
	remainder.size = block.size - want
	remainder.isFree = true
	remainder.protection = block.protection
	remainder.next = nil
	remainder.prev = nil
	block.size = want
	return remainder
}

// freeNeighborAt returns the free-list member whose header starts at
// addr, or nil. Used both by coalesce and by realloc's grow-in-place
// branch to find the block physically adjacent to another.
func (a *Allocator) freeNeighborAt(addr uintptr) *blockHeader {
	for cur := a.free.head; cur != nil; cur = cur.next {
		if cur.addr() == addr {
			return cur
		}
	}
	return nil
}

// coalesce fuses free blocks whose byte ranges touch in memory,
// repeating until no further merge is possible. This strengthens the
// C original's list-order-only merging (spec.md §4.2's "limitation of
// the source design") to true address-adjacency, the strengthening
// spec.md explicitly invites and DESIGN.md records as the resolved
// Open Question: it is what makes invariant 5 (no two address-adjacent
// free blocks) hold under worst-fit placement, where free-list order
// has no relationship to address order.
func (a *Allocator) coalesce() {
	for {
		merged := false
		for cur := a.free.head; cur != nil; cur = cur.next {
			if next := a.freeNeighborAt(cur.end()); next != nil {
				cur.size += next.size
				a.free.remove(next)
				merged = true
				break
			}
		}
		if !merged {
			return
		}
	}
}
