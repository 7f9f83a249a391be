// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uheap

import (
	"fmt"
	"sort"
	"strings"
)

// Dump returns a human-readable memory map: every block from both
// lists, sorted by header address, one line per block. Dump does not
// mutate allocator state (spec.md §4.10); formatting itself is
// unconstrained by spec.md and free to evolve.
func (a *Allocator) Dump() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.initialized {
		return "uheap: not initialized\n"
	}

	var blocks []*blockHeader
	for cur := a.free.head; cur != nil; cur = cur.next {
		blocks = append(blocks, cur)
	}
	for cur := a.used.head; cur != nil; cur = cur.next {
		blocks = append(blocks, cur)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].addr() < blocks[j].addr() })

	var sb strings.Builder
	fmt.Fprintf(&sb, "===== uheap memory map =====\n")
	fmt.Fprintf(&sb, "total=%d used=%d free=%d frag=%.4f\n",
		a.stats.TotalMemory, a.stats.UsedMemory, a.stats.FreeMemory, a.stats.FragmentationRatio)
	fmt.Fprintf(&sb, "%-18s %-10s %-6s %s\n", "address", "size", "status", "prot")
	for _, b := range blocks {
		fmt.Fprintf(&sb, "0x%016x %-10d %-6s %s\n", b.addr(), b.size, statusLabel(b.isFree), protLabel(b.protection))
	}
	return sb.String()
}

func statusLabel(isFree bool) string {
	if isFree {
		return "FREE"
	}
	return "USED"
}

func protLabel(p Prot) string {
	r, w, x := byte('-'), byte('-'), byte('-')
	if p&ProtRead != 0 {
		r = 'R'
	}
	if p&ProtWrite != 0 {
		w = 'W'
	}
	if p&ProtExec != 0 {
		x = 'X'
	}
	return string([]byte{r, w, x})
}
