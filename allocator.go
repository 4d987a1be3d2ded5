// SPDX-License-Identifier: Apache-2.0

// Package luaz bridges a capability-style memory allocator to the single
// allocation callback an embedded Lua interpreter drives all of its memory
// through. The interpreter sees one function and one opaque handle; the
// handle carries an Allocator with richer operations (allocate, free,
// in-place resize, remap), and the callback translates between the two.
package luaz

import (
	"unsafe"
)

// alignProbe carries one field of every scalar kind with a large natural
// alignment, so its alignment is the platform's maximum native alignment.
type alignProbe struct {
	_ complex128
	_ float64
	_ int64
	_ unsafe.Pointer
}

// BlockAlign is the alignment of every block handed to the interpreter:
// the platform's maximum native alignment, but never below 16. It is fixed
// for the lifetime of the process and passed on every Allocator call.
const BlockAlign = max(16, unsafe.Alignof(alignProbe{}))

// Allocator is the generic allocator the adapter wraps. Implementations are
// supplied by the embedding application; the adapter itself never allocates.
//
// The size arguments passed to Free, ResizeInPlace and Remap are the sizes
// the adapter believes the block to have. After a shrink that was satisfied
// by keeping the original extent, the believed size understates the real
// one, so implementations must treat the size given to Free as advisory and
// release the block by its base pointer (or a rounding that covers the true
// extent).
type Allocator interface {
	// Alloc returns a block of at least size bytes aligned to alignment,
	// or nil if the request cannot be satisfied.
	Alloc(size, alignment uintptr) unsafe.Pointer

	// Free releases the block at ptr. size is advisory; see above.
	Free(ptr unsafe.Pointer, size, alignment uintptr)

	// ResizeInPlace reports whether the block at ptr was resized from
	// oldSize to newSize without moving. Implementations that cannot
	// resize simply return false.
	ResizeInPlace(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) bool

	// Remap resizes the block at ptr to newSize, moving it if necessary
	// and preserving contents up to min(oldSize, newSize). Returns the new
	// base pointer, or nil if the request cannot be satisfied.
	Remap(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) unsafe.Pointer
}
