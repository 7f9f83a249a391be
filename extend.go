// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uheap

import "unsafe"

// extendHeap implements spec.md §4.5: round size up to a page multiple,
// request a fresh mapping, wrap it in a single free block, and append
// that block to the tail of the free list. The mapping is recorded in
// a.mappings so Close/Cleanup can release it — unlike the C original,
// which (per spec.md §9's "known leak") only ever unmaps the initial
// mapping.
func (a *Allocator) extendHeap(size int) (*blockHeader, error) {
	aligned := roundUpToPageSize(size, a.pageSize)

	mem, err := mmapPages(aligned)
	if err != nil {
		return nil, err
	}
	a.mappings = append(a.mappings, mem)

	block := headerAt(unsafe.Pointer(&mem[0]))
	block.size = aligned
	block.isFree = true
	block.protection = defaultProt
	block.next = nil
	block.prev = nil

	a.free.insertTail(block)

	a.heapSize += aligned
	a.stats.TotalMemory += aligned
	a.stats.FreeMemory += aligned

	return block, nil
}
