// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uheap

// Stats is a point-in-time snapshot of allocator state, taken under
// the Allocator's mutex.
type Stats struct {
	TotalMemory        int     // total bytes under management, header-inclusive
	UsedMemory         int     // bytes currently on the used list
	FreeMemory         int     // bytes currently on the free list
	Overhead           int     // size of one block header
	PeakUsage          int     // high-water mark of UsedMemory since Init
	TotalAllocations   int     // cumulative count of blocks handed out (Alloc, AlignedAlloc, and Realloc when it allocates)
	ActiveAllocations  int     // len(used list)
	FragmentationRatio float64 // 1 - largest_free_block/total_free, 0 if no free space
}

// Stats returns a point-in-time snapshot of a's counters, taken under
// lock. It returns the zero Stats for an uninitialized Allocator
// (spec.md §6).
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return Stats{}
	}
	return a.stats
}

// fragmentationRatio implements spec.md §4.7: 1 - (largest free block
// size / total free bytes), or 0 when there is no free space.
func (a *Allocator) fragmentationRatio() float64 {
	if a.stats.FreeMemory == 0 {
		return 0
	}

	var largest int
	for b := a.free.head; b != nil; b = b.next {
		if b.size > largest {
			largest = b.size
		}
	}
	return 1 - float64(largest)/float64(a.stats.FreeMemory)
}

func (a *Allocator) updateFragmentation() {
	a.stats.FragmentationRatio = a.fragmentationRatio()
}
