// SPDX-License-Identifier: Apache-2.0

package luaz

import (
	"sync"
	"unsafe"
)

type lockedAllocator struct {
	mtx sync.Mutex
	a   Allocator
}

// NewLockedAllocator returns an allocator that is safe to be accessed
// concurrently from multiple goroutines. The adapter itself never
// synchronizes; thread safety lives entirely in the wrapped allocator.
func NewLockedAllocator(a Allocator) Allocator {
	return &lockedAllocator{a: a}
}

// Alloc satisfies the Allocator interface.
func (l *lockedAllocator) Alloc(size, alignment uintptr) unsafe.Pointer {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.a == nil {
		return nil
	}
	return l.a.Alloc(size, alignment)
}

// Free satisfies the Allocator interface.
func (l *lockedAllocator) Free(ptr unsafe.Pointer, size, alignment uintptr) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.a == nil {
		return
	}
	l.a.Free(ptr, size, alignment)
}

// ResizeInPlace satisfies the Allocator interface.
func (l *lockedAllocator) ResizeInPlace(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.a == nil {
		return false
	}
	return l.a.ResizeInPlace(ptr, oldSize, alignment, newSize)
}

// Remap satisfies the Allocator interface.
func (l *lockedAllocator) Remap(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) unsafe.Pointer {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	if l.a == nil {
		return nil
	}
	return l.a.Remap(ptr, oldSize, alignment, newSize)
}
