// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uheap

import (
	"testing"
	"unsafe"
)

// pointerOf returns the address of b's first byte, for tests that need
// to recover the block backing a slice directly.
func pointerOf(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}

// newTestAllocator returns an initialized Allocator with a small
// initial heap, and registers its cleanup with t.
func newTestAllocator(t *testing.T, cfg Config) *Allocator {
	t.Helper()
	a, err := NewAllocator(cfg)
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

// checkInvariants asserts the property-test invariants spec.md §8
// lists: stats consistency, list disjointness, and no address-adjacent
// free pair. Call it after every operation under test.
func checkInvariants(t *testing.T, a *Allocator) {
	t.Helper()

	a.mu.Lock()
	defer a.mu.Unlock()

	if got, want := a.stats.UsedMemory+a.stats.FreeMemory, a.stats.TotalMemory; got != want {
		t.Errorf("used+free = %d, want total %d", got, want)
	}
	if got, want := a.stats.ActiveAllocations, a.used.len(); got != want {
		t.Errorf("ActiveAllocations = %d, want len(used) = %d", got, want)
	}
	if a.stats.PeakUsage < a.stats.UsedMemory {
		t.Errorf("PeakUsage %d < UsedMemory %d", a.stats.PeakUsage, a.stats.UsedMemory)
	}

	seen := map[*blockHeader]bool{}
	for cur := a.free.head; cur != nil; cur = cur.next {
		if seen[cur] {
			t.Fatalf("block %p appears twice in free list", cur)
		}
		seen[cur] = true
		if !cur.isFree {
			t.Errorf("block %p on free list has isFree=false", cur)
		}
	}
	for cur := a.used.head; cur != nil; cur = cur.next {
		if seen[cur] {
			t.Fatalf("block %p appears on both lists", cur)
		}
		seen[cur] = true
		if cur.isFree {
			t.Errorf("block %p on used list has isFree=true", cur)
		}
	}

	for cur := a.free.head; cur != nil; cur = cur.next {
		for other := a.free.head; other != nil; other = other.next {
			if other == cur {
				continue
			}
			if cur.end() == other.addr() {
				t.Errorf("address-adjacent free blocks %p and %p were not coalesced", cur, other)
			}
		}
	}
}
