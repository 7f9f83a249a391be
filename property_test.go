// Copyright 2017 The Memory Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package uheap

import (
	"math"
	"testing"
	"unsafe"

	"github.com/cznic/mathutil"
	"github.com/stretchr/testify/require"
)

const propertyQuota = 1 << 20

var (
	propertyMax    = 2 * osPageSize
	propertyBigMax = 8 * osPageSize
)

// property1 is the teacher's test1: allocate until quota is spent,
// filling every block with PRNG bytes, then verify and free in shuffled
// order, checking invariants after every single operation.
func property1(t *testing.T, max int) {
	a := newTestAllocator(t, Config{InitialHeapSize: 2 * propertyQuota})

	rng, err := mathutil.NewFC32(0, math.MaxInt32, true)
	require.NoError(t, err)
	rng.Seed(42)

	rem := propertyQuota
	var blocks [][]byte

	pos := rng.Pos()
	for rem > 0 {
		size := rng.Next()%max + 1
		rem -= size

		b, err := a.Alloc(size)
		require.NoError(t, err)
		for i := range b {
			b[i] = byte(rng.Next())
		}
		blocks = append(blocks, b)
		checkInvariants(t, a)
	}

	rng.Seek(pos)
	for i, b := range blocks {
		require.Equal(t, rng.Next()%max+1, len(b), "block %d size", i)
		for j, got := range b {
			require.Equal(t, byte(rng.Next()), got, "block %d byte %d", i, j)
			b[j] = 0
		}
	}

	// Shuffle using the same PRNG stream, the teacher's own technique
	// for exercising free in an order uncorrelated with allocation
	// order.
	for i := range blocks {
		j := rng.Next() % len(blocks)
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}

	for _, b := range blocks {
		require.NoError(t, a.Free(b))
		checkInvariants(t, a)
	}

	st := a.Stats()
	require.Zero(t, st.UsedMemory)
	require.Zero(t, st.ActiveAllocations)
	require.Equal(t, 0, a.used.len())
}

func TestPropertySmall(t *testing.T) { property1(t, propertyMax) }
func TestPropertyBig(t *testing.T)   { property1(t, propertyBigMax) }

// TestPropertyInterleavedAllocFree is the teacher's test3: a random mix
// of allocate and free (weighted 2:1 toward allocate) against a single
// Allocator, checking invariants after every operation and verifying
// every still-live block's contents survive untouched.
func TestPropertyInterleavedAllocFree(t *testing.T) {
	a := newTestAllocator(t, Config{InitialHeapSize: 2 * propertyQuota})

	rng, err := mathutil.NewFC32(1, propertyMax, true)
	require.NoError(t, err)

	live := map[unsafe.Pointer][]byte{}
	rem := propertyQuota
	for rem > 0 {
		switch rng.Next() % 3 {
		case 0, 1: // allocate
			size := rng.Next()
			rem -= size

			b, err := a.Alloc(size)
			require.NoError(t, err)
			for i := range b {
				b[i] = byte(i)
			}
			live[pointerOf(b)] = append([]byte(nil), b...)
		default: // free
			for k, want := range live {
				b := unsafe.Slice((*byte)(k), len(want))
				require.Equal(t, want, []byte(b))
				require.NoError(t, a.Free(b))
				rem += len(b)
				delete(live, k)
				break
			}
		}
		checkInvariants(t, a)
	}

	for k, want := range live {
		b := unsafe.Slice((*byte)(k), len(want))
		require.Equal(t, want, []byte(b))
		require.NoError(t, a.Free(b))
		checkInvariants(t, a)
	}

	require.Zero(t, a.Stats().UsedMemory)
	require.Equal(t, 0, a.used.len())
}
