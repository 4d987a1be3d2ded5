// SPDX-License-Identifier: Apache-2.0

//go:build linux

package luaz

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// MmapAllocator serves blocks from anonymous private mappings. Extents are
// page-granular, so small resizes that stay within the same number of pages
// succeed in place for free; everything else goes through mremap, which
// gives this allocator a real in-place resize and a real remap.
//
// Safe for concurrent use.
type MmapAllocator struct {
	page uintptr
}

// NewMmapAllocator returns a page-granular mmap-backed allocator.
func NewMmapAllocator() *MmapAllocator {
	return &MmapAllocator{page: uintptr(os.Getpagesize())}
}

// extent rounds a block size up to whole pages. Every mapping operation
// derives its length through this, so sizes the adapter reports after a
// kept shrink still round to the true mapping length.
func (m *MmapAllocator) extent(n uintptr) uintptr {
	return (n + m.page - 1) &^ (m.page - 1)
}

// Alloc satisfies the Allocator interface. Pages are zero-filled by the
// kernel and page alignment always covers the requested alignment.
func (m *MmapAllocator) Alloc(size, alignment uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	b, err := unix.Mmap(-1, 0, int(m.extent(size)),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(b))
}

// Free satisfies the Allocator interface.
func (m *MmapAllocator) Free(ptr unsafe.Pointer, size, alignment uintptr) {
	if ptr == nil {
		return
	}
	_ = unix.Munmap(m.mapping(ptr, size))
}

// ResizeInPlace satisfies the Allocator interface. Staying within the same
// page count is free; otherwise mremap without MREMAP_MAYMOVE either grows
// or shrinks the mapping at its current address or refuses.
func (m *MmapAllocator) ResizeInPlace(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) bool {
	oldExtent, newExtent := m.extent(oldSize), m.extent(newSize)
	if oldExtent == newExtent {
		return true
	}
	_, err := unix.Mremap(m.mapping(ptr, oldSize), int(newExtent), 0)
	return err == nil
}

// Remap satisfies the Allocator interface via mremap with MREMAP_MAYMOVE,
// which relocates the pages without copying their contents.
func (m *MmapAllocator) Remap(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) unsafe.Pointer {
	b, err := unix.Mremap(m.mapping(ptr, oldSize), int(m.extent(newSize)), unix.MREMAP_MAYMOVE)
	if err != nil {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(b))
}

// mapping reconstructs the slice unix.Mmap returned for a live block, which
// the x/sys mapping registry requires to locate the region.
func (m *MmapAllocator) mapping(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), m.extent(size))
}
