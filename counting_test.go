// SPDX-License-Identifier: Apache-2.0

package luaz

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCountingAllocatorTracksLiveBytes(t *testing.T) {
	c := NewCountingAllocator(NewHeapAllocator())

	ptr := c.Alloc(100, BlockAlign)
	require.NotNil(t, ptr)
	require.Equal(t, 100, c.InUse())
	require.Equal(t, 100, c.Peak())
	require.Equal(t, 1, c.Allocs())

	ptr2 := c.Alloc(50, BlockAlign)
	require.NotNil(t, ptr2)
	require.Equal(t, 150, c.InUse())
	require.Equal(t, 150, c.Peak())

	c.Free(ptr2, 50, BlockAlign)
	require.Equal(t, 100, c.InUse())
	require.Equal(t, 150, c.Peak())
	require.Equal(t, 1, c.Frees())

	c.Free(ptr, 100, BlockAlign)
	require.Equal(t, 0, c.InUse())
}

func TestCountingAllocatorResizeAndRemap(t *testing.T) {
	c := NewCountingAllocator(NewHeapAllocator())

	ptr := c.Alloc(200, BlockAlign)
	require.NotNil(t, ptr)

	require.True(t, c.ResizeInPlace(ptr, 200, BlockAlign, 80))
	require.Equal(t, 80, c.InUse())

	newPtr := c.Remap(ptr, 80, BlockAlign, 500)
	require.NotNil(t, newPtr)
	require.Equal(t, 500, c.InUse())
	require.Equal(t, 500, c.Peak())
	require.Equal(t, 1, c.Resizes())
	require.Equal(t, 1, c.Remaps())

	c.Free(newPtr, 500, BlockAlign)
	require.Equal(t, 0, c.InUse())
}

func TestCountingAllocatorCountsFailures(t *testing.T) {
	stub := newStubAllocator()
	stub.failAlloc = true
	c := NewCountingAllocator(stub)

	require.Nil(t, c.Alloc(64, BlockAlign))
	require.Equal(t, 1, c.Fails())
	require.Equal(t, 0, c.InUse())
	require.Equal(t, 0, c.Allocs())
}

func TestCountingAllocatorUnderTheAdapter(t *testing.T) {
	c := NewCountingAllocator(NewHeapAllocator())
	ud := NewHandle(c).UserData()

	ptr := Alloc(ud, nil, 0, 300)
	require.NotNil(t, ptr)
	require.Equal(t, 300, c.InUse())

	Alloc(ud, ptr, 300, 0)
	require.Equal(t, 0, c.InUse())
	require.Equal(t, c.Allocs(), c.Frees())
}
