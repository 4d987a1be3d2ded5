// SPDX-License-Identifier: Apache-2.0

package luaz

import (
	"sync"
	"unsafe"
)

// CountingAllocator wraps an Allocator and tracks live bytes, the high-water
// mark and per-operation counters. The byte accounting follows the sizes the
// adapter reports, so after a kept shrink it may overstate by the slack the
// allocator kept — the counters are for observability and tests, not for
// exact heap attribution.
//
// Safe for concurrent use when the wrapped allocator is.
type CountingAllocator struct {
	mu    sync.Mutex
	a     Allocator
	inUse uintptr
	peak  uintptr

	allocs  int
	frees   int
	resizes int
	remaps  int
	fails   int
}

// NewCountingAllocator wraps a.
func NewCountingAllocator(a Allocator) *CountingAllocator {
	return &CountingAllocator{a: a}
}

// Alloc satisfies the Allocator interface.
func (c *CountingAllocator) Alloc(size, alignment uintptr) unsafe.Pointer {
	ptr := c.a.Alloc(size, alignment)
	c.mu.Lock()
	defer c.mu.Unlock()
	if ptr == nil {
		c.fails++
		return nil
	}
	c.allocs++
	c.grow(size)
	return ptr
}

// Free satisfies the Allocator interface.
func (c *CountingAllocator) Free(ptr unsafe.Pointer, size, alignment uintptr) {
	c.a.Free(ptr, size, alignment)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frees++
	c.shrink(size)
}

// ResizeInPlace satisfies the Allocator interface.
func (c *CountingAllocator) ResizeInPlace(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) bool {
	ok := c.a.ResizeInPlace(ptr, oldSize, alignment, newSize)
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resizes++
	c.shrink(oldSize)
	c.grow(newSize)
	return true
}

// Remap satisfies the Allocator interface.
func (c *CountingAllocator) Remap(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) unsafe.Pointer {
	newPtr := c.a.Remap(ptr, oldSize, alignment, newSize)
	c.mu.Lock()
	defer c.mu.Unlock()
	if newPtr == nil {
		c.fails++
		return nil
	}
	c.remaps++
	c.shrink(oldSize)
	c.grow(newSize)
	return newPtr
}

func (c *CountingAllocator) grow(n uintptr) {
	c.inUse += n
	if c.inUse > c.peak {
		c.peak = c.inUse
	}
}

func (c *CountingAllocator) shrink(n uintptr) {
	if n > c.inUse {
		c.inUse = 0
		return
	}
	c.inUse -= n
}

// InUse returns the bytes currently accounted as live.
func (c *CountingAllocator) InUse() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.inUse)
}

// Peak returns the high-water mark of live bytes.
func (c *CountingAllocator) Peak() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.peak)
}

// Allocs returns the number of successful fresh allocations.
func (c *CountingAllocator) Allocs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allocs
}

// Frees returns the number of Free calls.
func (c *CountingAllocator) Frees() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frees
}

// Resizes returns the number of successful in-place resizes.
func (c *CountingAllocator) Resizes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resizes
}

// Remaps returns the number of successful remaps.
func (c *CountingAllocator) Remaps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaps
}

// Fails returns the number of failed allocations and remaps.
func (c *CountingAllocator) Fails() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fails
}
