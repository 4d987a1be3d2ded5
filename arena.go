// SPDX-License-Identifier: Apache-2.0

package luaz

import (
	"unsafe"
)

const minRegionSize = 1024 * 64 // 64KB

// ScratchArena is a bump allocator intended to back a single short-lived
// interpreter state. Allocation is a pointer bump; individual frees reclaim
// nothing except the most recent allocation, and the whole arena is
// reclaimed at once with Reset when the state is torn down.
//
// The arena remembers its most recent allocation per region, which lets the
// tail block grow or shrink in place.
type ScratchArena struct {
	regions    []*scratchRegion
	peak       uintptr
	regionSize uintptr
}

type scratchRegion struct {
	ptr     unsafe.Pointer
	offset  uintptr
	size    uintptr
	last    uintptr // offset of the most recent allocation
	hasLast bool
}

// ScratchArenaOption configures a ScratchArena.
type ScratchArenaOption func(*ScratchArena)

// WithRegionSize sets the minimum size of the regions the arena maps in.
func WithRegionSize(size int) ScratchArenaOption {
	return func(a *ScratchArena) {
		a.regionSize = uintptr(size)
	}
}

// NewScratchArena creates an arena with one lazily-populated region.
func NewScratchArena(opts ...ScratchArenaOption) *ScratchArena {
	a := &ScratchArena{regionSize: minRegionSize}
	for _, opt := range opts {
		opt(a)
	}
	a.regions = append(a.regions, &scratchRegion{size: a.regionSize})
	return a
}

func (r *scratchRegion) alloc(size, alignment uintptr) (unsafe.Pointer, bool) {
	if r.ptr == nil {
		buf := make([]byte, r.size) // populate the region lazily
		r.ptr = unsafe.Pointer(unsafe.SliceData(buf))
	}
	padding := uintptr(0)
	for p := uintptr(r.ptr) + r.offset; (p+padding)%alignment != 0; padding++ {
	}
	start := r.offset + padding
	if start+size > r.size {
		return nil, false
	}
	ptr := unsafe.Add(r.ptr, start)

	// The compiler turns this loop into a memclr. Blocks are handed out
	// zeroed, matching what a fresh mapping would hold.
	b := unsafe.Slice((*byte)(ptr), size)
	for i := range b {
		b[i] = 0
	}

	r.offset = start + size
	r.last = start
	r.hasLast = true
	return ptr, true
}

func (r *scratchRegion) owns(ptr unsafe.Pointer) bool {
	if r.ptr == nil {
		return false
	}
	p := uintptr(ptr)
	return p >= uintptr(r.ptr) && p < uintptr(r.ptr)+r.size
}

// isTail reports whether ptr is the region's most recent allocation with the
// given extent, i.e. the only block a bump allocator can still move its
// offset for.
func (r *scratchRegion) isTail(ptr unsafe.Pointer, extent uintptr) bool {
	return r.hasLast &&
		uintptr(ptr) == uintptr(r.ptr)+r.last &&
		r.offset == r.last+extent
}

// Alloc returns size bytes at the given alignment, adding a new region when
// no existing region has room.
func (a *ScratchArena) Alloc(size, alignment uintptr) unsafe.Pointer {
	for _, r := range a.regions {
		if ptr, ok := r.alloc(size, alignment); ok {
			a.notePeak()
			return ptr
		}
	}

	region := &scratchRegion{size: max(a.regionSize, size+alignment)}
	a.regions = append(a.regions, region)

	ptr, ok := region.alloc(size, alignment)
	if !ok {
		panic("luaz: scratch region sized for the allocation refused it")
	}
	a.notePeak()
	return ptr
}

// resizeTail moves the bump offset of the region owning ptr, provided ptr is
// that region's most recent allocation with extent oldSize. Bytes gained by
// growth are zeroed to match Alloc.
func (a *ScratchArena) resizeTail(ptr unsafe.Pointer, oldSize, newSize uintptr) bool {
	r := a.regionOf(ptr)
	if r == nil || !r.isTail(ptr, oldSize) {
		return false
	}
	if r.last+newSize > r.size {
		return false
	}
	if newSize > oldSize {
		grown := unsafe.Slice((*byte)(unsafe.Add(ptr, oldSize)), newSize-oldSize)
		for i := range grown {
			grown[i] = 0
		}
	}
	r.offset = r.last + newSize
	a.notePeak()
	return true
}

// pop rolls back the most recent allocation. Blocks behind the tail stay
// allocated until Reset.
func (a *ScratchArena) pop(ptr unsafe.Pointer, extent uintptr) bool {
	r := a.regionOf(ptr)
	if r == nil || !r.isTail(ptr, extent) {
		return false
	}
	r.offset = r.last
	r.hasLast = false
	return true
}

func (a *ScratchArena) regionOf(ptr unsafe.Pointer) *scratchRegion {
	for _, r := range a.regions {
		if r.owns(ptr) {
			return r
		}
	}
	return nil
}

func (a *ScratchArena) notePeak() {
	if n := a.len(); n > a.peak {
		a.peak = n
	}
}

// Reset forgets every allocation without releasing region memory, readying
// the arena for the next interpreter state.
func (a *ScratchArena) Reset() {
	for _, r := range a.regions {
		r.offset = 0
		r.hasLast = false
	}
}

// Release drops the region memory back to the Go heap. The arena remains
// usable; regions repopulate lazily.
func (a *ScratchArena) Release() {
	for _, r := range a.regions {
		r.offset = 0
		r.hasLast = false
		r.ptr = nil
	}
}

func (a *ScratchArena) len() uintptr {
	var total uintptr
	for _, r := range a.regions {
		total += r.offset
	}
	return total
}

// Len returns the number of bytes currently allocated.
func (a *ScratchArena) Len() int {
	return int(a.len())
}

// Cap returns the total capacity across all regions.
func (a *ScratchArena) Cap() int {
	var total uintptr
	for _, r := range a.regions {
		total += r.size
	}
	return int(total)
}

// Peak returns the high-water mark of allocated bytes. Reset does not clear
// it, so a pool can size replacement arenas from observed usage.
func (a *ScratchArena) Peak() int {
	return int(a.peak)
}

// ScratchAllocator exposes a ScratchArena through the Allocator interface.
// Free reclaims only the tail allocation; Remap always declines, pushing the
// adapter onto its copy fallback. Not safe for concurrent use — wrap with
// NewLockedAllocator if a state is driven from more than one goroutine.
type ScratchAllocator struct {
	arena *ScratchArena
}

// NewScratchAllocator wraps an arena. A nil arena gets a default one.
func NewScratchAllocator(arena *ScratchArena) *ScratchAllocator {
	if arena == nil {
		arena = NewScratchArena()
	}
	return &ScratchAllocator{arena: arena}
}

// Alloc satisfies the Allocator interface.
func (s *ScratchAllocator) Alloc(size, alignment uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	return s.arena.Alloc(size, alignment)
}

// Free satisfies the Allocator interface. Only the tail allocation is
// reclaimed; anything older is held until Reset.
func (s *ScratchAllocator) Free(ptr unsafe.Pointer, size, alignment uintptr) {
	if ptr == nil {
		return
	}
	s.arena.pop(ptr, size)
}

// ResizeInPlace satisfies the Allocator interface. The tail allocation
// resizes by moving the bump offset; for anything older a shrink keeps the
// existing extent and a growth is declined.
func (s *ScratchAllocator) ResizeInPlace(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) bool {
	if s.arena.resizeTail(ptr, oldSize, newSize) {
		return true
	}
	return newSize <= oldSize
}

// Remap satisfies the Allocator interface. A bump allocator cannot relocate
// blocks, so remap always declines.
func (s *ScratchAllocator) Remap(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) unsafe.Pointer {
	return nil
}

// Reset readies the allocator for the next interpreter state.
func (s *ScratchAllocator) Reset() {
	s.arena.Reset()
}

// Peak reports the arena's high-water mark.
func (s *ScratchAllocator) Peak() int {
	return s.arena.Peak()
}
