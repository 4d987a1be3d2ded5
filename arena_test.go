// SPDX-License-Identifier: Apache-2.0

package luaz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScratchArenaLen(t *testing.T) {
	arena := NewScratchArena()
	require.Equal(t, 0, arena.Len())

	ptr1 := arena.Alloc(100, 1)
	require.NotNil(t, ptr1)
	require.Equal(t, 100, arena.Len())

	ptr2 := arena.Alloc(200, 1)
	require.NotNil(t, ptr2)
	require.Equal(t, 300, arena.Len())

	ptr3 := arena.Alloc(50, BlockAlign)
	require.NotNil(t, ptr3)
	// At least 350 once alignment padding is counted.
	require.GreaterOrEqual(t, arena.Len(), 350)
}

func TestScratchArenaGrowsRegions(t *testing.T) {
	arena := NewScratchArena(WithRegionSize(128))
	require.Equal(t, 128, arena.Cap())

	// Larger than any region: a dedicated region is added.
	ptr := arena.Alloc(1024, BlockAlign)
	require.NotNil(t, ptr)
	require.Greater(t, arena.Cap(), 1024)
}

func TestScratchArenaResetAndPeak(t *testing.T) {
	arena := NewScratchArena(WithRegionSize(1024))

	require.NotNil(t, arena.Alloc(600, 1))
	require.Equal(t, 600, arena.Peak())

	arena.Reset()
	require.Equal(t, 0, arena.Len())
	require.Equal(t, 600, arena.Peak()) // peak survives reset

	require.NotNil(t, arena.Alloc(100, 1))
	require.Equal(t, 100, arena.Len())
	require.Equal(t, 600, arena.Peak())

	arena.Release()
	require.Equal(t, 0, arena.Len())
	require.Equal(t, 1024, arena.Cap())
}

func TestScratchArenaZeroesBlocks(t *testing.T) {
	arena := NewScratchArena(WithRegionSize(256))

	ptr := arena.Alloc(64, BlockAlign)
	fillPattern(ptr, 64, 0xAB)
	arena.Reset()

	// The same bytes come back zeroed.
	again := arena.Alloc(64, BlockAlign)
	require.Equal(t, uintptr(ptr), uintptr(again))
	for _, b := range Bytes(again, 64) {
		require.Zero(t, b)
	}
}

func TestScratchAllocatorTailResize(t *testing.T) {
	s := NewScratchAllocator(NewScratchArena(WithRegionSize(1024)))

	a := s.Alloc(64, BlockAlign)
	b := s.Alloc(64, BlockAlign)
	require.NotNil(t, a)
	require.NotNil(t, b)

	// The tail block can grow in place.
	require.True(t, s.ResizeInPlace(b, 64, BlockAlign, 128))

	// A non-tail block cannot grow, but a shrink is always satisfied by
	// keeping the extent.
	require.False(t, s.ResizeInPlace(a, 64, BlockAlign, 128))
	require.True(t, s.ResizeInPlace(a, 64, BlockAlign, 32))

	// Remap never relocates.
	require.Nil(t, s.Remap(a, 64, BlockAlign, 256))
}

func TestScratchAllocatorTailFree(t *testing.T) {
	arena := NewScratchArena(WithRegionSize(1024))
	s := NewScratchAllocator(arena)

	a := s.Alloc(64, BlockAlign)
	lenAfterA := arena.Len()
	b := s.Alloc(32, BlockAlign)

	// Tail free rolls the bump offset back.
	s.Free(b, 32, BlockAlign)
	require.Equal(t, lenAfterA, arena.Len())

	// Non-tail free is a no-op until Reset.
	s.Free(a, 64, BlockAlign)
	require.Equal(t, lenAfterA, arena.Len())
}

func TestScratchAllocatorThroughAdapter(t *testing.T) {
	s := NewScratchAllocator(NewScratchArena(WithRegionSize(4096)))
	ud := NewHandle(s).UserData()

	// Tail growth keeps the pointer.
	ptr := Alloc(ud, nil, 0, 40)
	require.NotNil(t, ptr)
	fillPattern(ptr, 40, 0x21)
	grown := Alloc(ud, ptr, 40, 80)
	require.Equal(t, uintptr(ptr), uintptr(grown))
	requirePattern(t, grown, 40, 0x21)

	// Burying the block forces the copy fallback on the next growth.
	require.NotNil(t, Alloc(ud, nil, 0, 16))
	moved := Alloc(ud, grown, 80, 200)
	require.NotNil(t, moved)
	require.NotEqual(t, uintptr(grown), uintptr(moved))
	requirePattern(t, moved, 40, 0x21)

	// Shrinking the buried original block still succeeds.
	shrunk := Alloc(ud, moved, 200, 8)
	require.NotNil(t, shrunk)
}
