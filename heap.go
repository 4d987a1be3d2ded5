// SPDX-License-Identifier: Apache-2.0

package luaz

import (
	"sync"
	"unsafe"
)

// HeapAllocator serves blocks from the Go heap. Each block is over-allocated
// by the alignment and the base shifted up to the next aligned address; the
// backing slice is pinned in a map so the garbage collector never reclaims a
// block the interpreter still points into.
//
// Safe for concurrent use.
type HeapAllocator struct {
	mu     sync.Mutex
	blocks map[uintptr]heapBlock
}

type heapBlock struct {
	buf    []byte  // pins the allocation
	usable uintptr // bytes available at the aligned base
}

// NewHeapAllocator returns an empty heap allocator.
func NewHeapAllocator() *HeapAllocator {
	return &HeapAllocator{blocks: make(map[uintptr]heapBlock)}
}

// Alloc satisfies the Allocator interface.
func (h *HeapAllocator) Alloc(size, alignment uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	buf := make([]byte, size+alignment)
	base := unsafe.Pointer(unsafe.SliceData(buf))
	shift := (alignment - uintptr(base)%alignment) % alignment
	ptr := unsafe.Add(base, shift)

	h.mu.Lock()
	h.blocks[uintptr(ptr)] = heapBlock{buf: buf, usable: uintptr(len(buf)) - shift}
	h.mu.Unlock()
	return ptr
}

// Free satisfies the Allocator interface. The block is located by its base
// pointer; size is advisory.
func (h *HeapAllocator) Free(ptr unsafe.Pointer, size, alignment uintptr) {
	if ptr == nil {
		return
	}
	h.mu.Lock()
	delete(h.blocks, uintptr(ptr))
	h.mu.Unlock()
}

// ResizeInPlace satisfies the Allocator interface. A resize succeeds when
// the request fits the block's usable capacity, which covers every shrink
// and the occasional growth into alignment slack.
func (h *HeapAllocator) ResizeInPlace(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	blk, ok := h.blocks[uintptr(ptr)]
	if !ok {
		return false
	}
	return newSize <= blk.usable
}

// Remap satisfies the Allocator interface by allocating, copying and
// freeing. The heap cannot extend a mapping, so every remap moves.
func (h *HeapAllocator) Remap(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) unsafe.Pointer {
	newPtr := h.Alloc(newSize, alignment)
	if newPtr == nil {
		return nil
	}
	copyPayload(newPtr, ptr, min(oldSize, newSize))
	h.Free(ptr, oldSize, alignment)
	return newPtr
}

// Live returns the number of blocks currently pinned.
func (h *HeapAllocator) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.blocks)
}
