// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uheap

// findFreeBlock implements spec.md §4.1: scan the free list and select
// a block of size >= want according to a.config.AllocationStrategy.
// Unknown strategy codes fall back to first-fit. Returns nil if no
// block qualifies.
func (a *Allocator) findFreeBlock(want int) *blockHeader {
	switch a.config.AllocationStrategy {
	case BestFit:
		var best *blockHeader
		bestDiff := -1
		for cur := a.free.head; cur != nil; cur = cur.next {
			if cur.size < want {
				continue
			}
			diff := cur.size - want
			if bestDiff == -1 || diff < bestDiff {
				bestDiff = diff
				best = cur
			}
		}
		return best
	case WorstFit:
		var worst *blockHeader
		worstDiff := -1
		for cur := a.free.head; cur != nil; cur = cur.next {
			if cur.size < want {
				continue
			}
			diff := cur.size - want
			if diff > worstDiff {
				worstDiff = diff
				worst = cur
			}
		}
		return worst
	default: // FirstFit and anything unrecognized
		for cur := a.free.head; cur != nil; cur = cur.next {
			if cur.size >= want {
				return cur
			}
		}
		return nil
	}
}
