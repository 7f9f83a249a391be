// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package uheap implements a user-space general-purpose heap
// allocator. It serves variable-size allocation requests out of a
// process-managed pool of anonymous, page-aligned memory obtained
// directly from the OS, with selectable placement policies
// (first-fit/best-fit/worst-fit), runtime stats, per-region protection
// changes, and aligned allocation, all behind a single mutex per
// Allocator.
//
// The zero value of Allocator is not ready for use; call Init or
// construct one with NewAllocator. A package-level default Allocator
// is available through Init/Alloc/Free/Realloc/AlignedAlloc/Protect/
// GetStats/Dump/Cleanup for callers that want the C-style global-singleton
// surface spec.md's source was built around.
package uheap

import (
	"fmt"
	"sync"
	"unsafe"
)

// alignedSentinel marks the byte immediately below an AlignedAlloc
// pointer's stashed raw-pointer slot, so Free can tell an aligned
// allocation from a plain one without a separate AlignedFree entry
// point (spec.md §9's open question, resolved in SPEC_FULL.md §4.11).
const alignedSentinel = 0xA1

// Allocator is a heap manager with its own mappings, lists and stats;
// independent Allocators may coexist. Every exported
// method is safe for concurrent use; a single mutex serializes all of
// them (spec.md §5).
type Allocator struct {
	mu sync.Mutex

	initialized bool
	config      Config
	pageSize    int
	heapStart   uintptr
	heapSize    int

	free list
	used list

	// mappings records every OS mapping this Allocator owns (the
	// initial one plus every extendHeap call), so Close releases all
	// of them -- spec.md §9 flags the C original as only ever
	// unmapping the initial one.
	mappings [][]byte

	stats Stats
}

// NewAllocator constructs and initializes an Allocator in one step.
func NewAllocator(cfg Config) (*Allocator, error) {
	a := &Allocator{}
	if err := a.Init(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// Init sets up a, mapping its initial heap from the OS. Init fails
// without side effects if a is already initialized (spec.md §5).
func (a *Allocator) Init(cfg Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.initialized {
		return ErrAlreadyInitialized
	}

	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = osPageSize
	}

	aligned := roundUpToPageSize(cfg.InitialHeapSize, pageSize)
	if aligned == 0 {
		aligned = pageSize
	}

	mem, err := mmapPages(aligned)
	if err != nil {
		return fmt.Errorf("uheap: initial mapping: %w", err)
	}

	block := headerAt(unsafe.Pointer(&mem[0]))
	block.size = aligned
	block.isFree = true
	block.protection = defaultProt
	block.next = nil
	block.prev = nil

	a.config = cfg
	a.pageSize = pageSize
	a.heapStart = uintptr(unsafe.Pointer(&mem[0]))
	a.heapSize = aligned
	a.mappings = [][]byte{mem}
	a.free = list{}
	a.used = list{}
	a.free.pushFront(block)
	a.stats = Stats{
		TotalMemory: aligned,
		FreeMemory:  aligned,
		Overhead:    headerSize,
	}
	a.initialized = true

	tracef("Init(%+v) page=%#x heap=%#x", cfg, pageSize, aligned)
	return nil
}

// Alloc returns size bytes of uninitialized memory, or (nil, nil) for
// size == 0 or an uninitialized Allocator, or (nil, err) on OOM.
// Negative sizes panic, mirroring the teacher's own Malloc contract.
func (a *Allocator) Alloc(size int) ([]byte, error) {
	if size < 0 {
		panic("uheap: invalid alloc size")
	}
	if size == 0 {
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return nil, nil
	}

	block, err := a.allocLocked(size)
	if err != nil {
		tracef("Alloc(%#x) -> error: %v", size, err)
		return nil, err
	}

	tracef("Alloc(%#x) -> %#x", size, block.addr())
	return block.payloadBytes(size), nil
}

// allocLocked implements spec.md §4.3 steps 2-6. a.mu must be held.
func (a *Allocator) allocLocked(size int) (*blockHeader, error) {
	want := size + headerSize

	block := a.findFreeBlock(want)
	if block == nil {
		var err error
		block, err = a.extendHeap(want)
		if err != nil {
			return nil, err
		}
	}

	if remainder := a.split(block, want); remainder != nil {
		a.free.insertAfter(block, remainder)
	}

	a.markUsed(block)
	a.updateFragmentation()
	return block, nil
}

// markUsed moves block from the free list to the used list and updates
// stats, per spec.md §4.3 step 5.
func (a *Allocator) markUsed(block *blockHeader) {
	a.free.remove(block)
	a.used.pushFront(block)
	block.isFree = false

	a.stats.UsedMemory += block.size
	a.stats.FreeMemory -= block.size
	a.stats.ActiveAllocations++
	a.stats.TotalAllocations++
	if a.stats.UsedMemory > a.stats.PeakUsage {
		a.stats.PeakUsage = a.stats.UsedMemory
	}
}

// markFree moves block from the used list to the free list and updates
// stats inversely to markUsed, per spec.md §4.4 step 4.
func (a *Allocator) markFree(block *blockHeader) {
	a.used.remove(block)
	a.free.pushFront(block)
	block.isFree = true

	a.stats.UsedMemory -= block.size
	a.stats.FreeMemory += block.size
	a.stats.ActiveAllocations--
}

// blockForFree recovers the header backing a pointer previously
// returned by Alloc, AlignedAlloc, or Realloc, and reports whether it
// is currently a member of the used list. It recognizes aligned
// allocations via the sentinel byte AlignedAlloc writes below the
// stashed raw pointer.
func (a *Allocator) blockForFree(p unsafe.Pointer) (*blockHeader, bool) {
	ptrSize := unsafe.Sizeof(uintptr(0))

	sentinel := (*byte)(unsafe.Pointer(uintptr(p) - ptrSize - 1))
	if *sentinel == alignedSentinel {
		rawSlot := (*unsafe.Pointer)(unsafe.Pointer(uintptr(p) - ptrSize))
		block := blockFromPayload(*rawSlot)
		if a.used.contains(block) {
			return block, true
		}
	}

	block := blockFromPayload(p)
	if a.used.contains(block) {
		return block, true
	}
	return nil, false
}

// Free releases memory previously returned by Alloc, AlignedAlloc, or
// Realloc. A nil/empty slice and a pointer not on the used list are
// both silent no-ops (spec.md §4.4, §7).
func (a *Allocator) Free(b []byte) error {
	b = b[:cap(b)]
	if len(b) == 0 {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return nil
	}

	block, ok := a.blockForFree(unsafe.Pointer(&b[0]))
	if !ok {
		return nil
	}

	a.markFree(block)
	a.coalesce()
	a.updateFragmentation()
	tracef("Free(%#x)", block.addr())
	return nil
}

// Realloc changes the size of the allocation backing b. A nil/empty b
// behaves as Alloc(size); size == 0 behaves as Free(b) and returns nil.
// See spec.md §4.6 for the shrink/grow/relocate branches.
func (a *Allocator) Realloc(b []byte, size int) ([]byte, error) {
	b = b[:cap(b)]

	if len(b) == 0 {
		return a.Alloc(size)
	}
	if size == 0 {
		return nil, a.Free(b)
	}

	a.mu.Lock()

	if !a.initialized {
		a.mu.Unlock()
		return nil, nil
	}

	block, ok := a.blockForFree(unsafe.Pointer(&b[0]))
	if !ok {
		a.mu.Unlock()
		return nil, nil
	}

	want := size + headerSize
	oldUserSize := block.size - headerSize

	if want <= block.size {
		// Shrink in place.
		if remainder := a.split(block, want); remainder != nil {
			a.free.pushFront(remainder)
			a.stats.UsedMemory -= remainder.size
			a.stats.FreeMemory += remainder.size
			a.coalesce()
		}
		a.updateFragmentation()
		result := block.payloadBytes(size)
		tracef("Realloc(%#x, %#x) shrink", block.addr(), size)
		a.mu.Unlock()
		return result, nil
	}

	if next := a.freeNeighborAt(block.end()); next != nil && block.size+next.size >= want {
		// Grow in place by absorbing the physically-adjacent free
		// block, then splitting off any surplus.
		oldSize := block.size
		a.free.remove(next)
		a.stats.FreeMemory -= next.size
		block.size += next.size

		if remainder := a.split(block, want); remainder != nil {
			a.free.insertTail(remainder)
			a.stats.FreeMemory += remainder.size
		}

		a.stats.UsedMemory += block.size - oldSize
		if a.stats.UsedMemory > a.stats.PeakUsage {
			a.stats.PeakUsage = a.stats.UsedMemory
		}
		a.updateFragmentation()
		result := block.payloadBytes(size)
		tracef("Realloc(%#x, %#x) grow-in-place", block.addr(), size)
		a.mu.Unlock()
		return result, nil
	}

	// Relocate. Release the mutex before re-entering Alloc/Free to
	// avoid reentrant locking, per spec.md §4.6/§5.
	a.mu.Unlock()

	newBytes, err := a.Alloc(size)
	if err != nil || newBytes == nil {
		return nil, err
	}

	n := oldUserSize
	if size < n {
		n = size
	}
	copy(newBytes, b[:n])

	if err := a.Free(b); err != nil {
		return nil, err
	}

	tracef("Realloc(%#x, %#x) relocate", block.addr(), size)
	return newBytes, nil
}

// AlignedAlloc returns size bytes whose address is a multiple of
// alignment, or an error if alignment is not a nonzero power of two.
// See spec.md §4.8 / SPEC_FULL.md §4.11 for the layout and the
// matching Free path.
func (a *Allocator) AlignedAlloc(size int, alignment int) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	if alignment == 0 || alignment&(alignment-1) != 0 {
		return nil, ErrInvalidAlignment
	}

	ptrSize := int(unsafe.Sizeof(uintptr(0)))
	padding := alignment + ptrSize + 1

	raw, err := a.Alloc(size + padding)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	base := uintptr(unsafe.Pointer(&raw[0]))
	aligned := (base + uintptr(ptrSize+1) + uintptr(alignment) - 1) &^ (uintptr(alignment) - 1)

	rawSlot := (*unsafe.Pointer)(unsafe.Pointer(aligned - uintptr(ptrSize)))
	*rawSlot = unsafe.Pointer(&raw[0])
	sentinel := (*byte)(unsafe.Pointer(aligned - uintptr(ptrSize) - 1))
	*sentinel = alignedSentinel

	tracef("AlignedAlloc(%#x, %#x) -> %#x", size, alignment, aligned)
	return unsafe.Slice((*byte)(unsafe.Pointer(aligned)), size), nil
}

// Protect changes the page protection covering b and, on success,
// records the new flags in b's block header. b must be a slice
// previously returned by Alloc/AlignedAlloc/Realloc.
func (a *Allocator) Protect(b []byte, prot Prot) error {
	if len(b) == 0 {
		return ErrInvalidProtectRange
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return ErrNotInitialized
	}

	ptr := uintptr(unsafe.Pointer(&b[0]))
	pageAddr := ptr &^ uintptr(a.pageSize-1)
	pageLen := roundUpToPageSize(int(ptr-pageAddr)+len(b), a.pageSize)

	// The block header can share a page with b, so the new flags are
	// recorded before the pages may become read-only, and restored if
	// the OS call fails.
	block, ok := a.blockForFree(unsafe.Pointer(&b[0]))
	var oldProt Prot
	if ok {
		oldProt = block.protection
		block.protection = prot
	}

	if err := protectPagesRaw(pageAddr, pageLen, prot); err != nil {
		if ok {
			block.protection = oldProt
		}
		return err
	}

	tracef("Protect(%#x, %#x, %v)", ptr, len(b), prot)
	return nil
}

// Close releases every OS mapping owned by a and resets it to an
// uninitialized state. Close is idempotent.
func (a *Allocator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return nil
	}

	var firstErr error
	for _, mem := range a.mappings {
		if err := unmapPages(mem); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	a.initialized = false
	a.free = list{}
	a.used = list{}
	a.mappings = nil
	a.heapSize = 0
	a.heapStart = 0
	a.stats = Stats{}

	tracef("Close() err=%v", firstErr)
	return firstErr
}
