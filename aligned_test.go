// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uheap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAlignedAlloc is spec.md §8 scenario 3.
func TestAlignedAlloc(t *testing.T) {
	a := newTestAllocator(t, Config{InitialHeapSize: 1 << 16})

	for _, alignment := range []int{16, 64, 4096} {
		b, err := a.AlignedAlloc(100, alignment)
		require.NoError(t, err)
		require.Len(t, b, 100)
		require.Zero(t, uintptr(pointerOf(b))%uintptr(alignment))
	}
}

func TestAlignedAllocRejectsNonPowerOfTwo(t *testing.T) {
	a := newTestAllocator(t, Config{InitialHeapSize: 1 << 16})
	b, err := a.AlignedAlloc(100, 48)
	require.ErrorIs(t, err, ErrInvalidAlignment)
	require.Nil(t, b)
}

func TestAlignedAllocZeroSizeReturnsNil(t *testing.T) {
	a := newTestAllocator(t, Config{InitialHeapSize: 1 << 16})
	b, err := a.AlignedAlloc(0, 16)
	require.NoError(t, err)
	require.Nil(t, b)
}

// TestAlignedFreeRoundTrip exercises SPEC_FULL.md §4.11: Free must
// work for a pointer returned by AlignedAlloc even though it does not
// point exactly headerSize bytes after a block's start.
func TestAlignedFreeRoundTrip(t *testing.T) {
	a := newTestAllocator(t, Config{InitialHeapSize: 1 << 16})

	before := a.Stats().UsedMemory
	b, err := a.AlignedAlloc(100, 64)
	require.NoError(t, err)
	require.Greater(t, a.Stats().UsedMemory, before)

	require.NoError(t, a.Free(b))
	require.Equal(t, before, a.Stats().UsedMemory)
	checkInvariants(t, a)
}
