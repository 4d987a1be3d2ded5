// SPDX-License-Identifier: Apache-2.0

//go:build linux

package luaz

import (
	"os"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestMmapAllocatorBasic(t *testing.T) {
	m := NewMmapAllocator()

	ptr := m.Alloc(100, BlockAlign)
	require.NotNil(t, ptr)
	require.Zero(t, uintptr(ptr)%uintptr(os.Getpagesize()))

	// Fresh pages arrive zeroed.
	for _, b := range Bytes(ptr, 100) {
		require.Zero(t, b)
	}

	fillPattern(ptr, 100, 0x44)
	requirePattern(t, ptr, 100, 0x44)

	m.Free(ptr, 100, BlockAlign)
}

func TestMmapAllocatorResizeWithinPage(t *testing.T) {
	m := NewMmapAllocator()

	ptr := m.Alloc(10, BlockAlign)
	require.NotNil(t, ptr)
	defer m.Free(ptr, 10, BlockAlign)

	// Anything within the same page count is already there.
	require.True(t, m.ResizeInPlace(ptr, 10, BlockAlign, 1000))
	require.True(t, m.ResizeInPlace(ptr, 1000, BlockAlign, 4))
}

func TestMmapAllocatorRemapPreservesContents(t *testing.T) {
	m := NewMmapAllocator()
	page := uintptr(os.Getpagesize())

	ptr := m.Alloc(page, BlockAlign)
	require.NotNil(t, ptr)
	fillPattern(ptr, 64, 0x66)

	newPtr := m.Remap(ptr, page, BlockAlign, 4*page)
	require.NotNil(t, newPtr)
	requirePattern(t, newPtr, 64, 0x66)

	m.Free(newPtr, 4*page, BlockAlign)
}

func TestMmapAllocatorThroughAdapter(t *testing.T) {
	eachMode(t, func(t *testing.T, userData func(Allocator) unsafe.Pointer) {
		ud := userData(NewMmapAllocator())

		ptr := Alloc(ud, nil, 0, 100)
		require.NotNil(t, ptr)
		fillPattern(ptr, 100, 0x2A)

		grown := Alloc(ud, ptr, 100, 100_000)
		require.NotNil(t, grown)
		requirePattern(t, grown, 100, 0x2A)

		shrunk := Alloc(ud, grown, 100_000, 100)
		require.NotNil(t, shrunk)
		requirePattern(t, shrunk, 100, 0x2A)

		require.Nil(t, Alloc(ud, shrunk, 100, 0))
	})
}
