// SPDX-License-Identifier: Apache-2.0

package luaz

import (
	"unsafe"
)

// AllocFunc is the shape of the allocation callback the interpreter invokes
// for every allocation, reallocation and free. ud is the opaque user data
// registered alongside the callback; ptr is nil for a fresh allocation;
// nsize == 0 requests a free. A nil return is the only failure signal, and
// it may only occur when nsize grows the block.
type AllocFunc func(ud, ptr unsafe.Pointer, osize, nsize uintptr) unsafe.Pointer

// Handle is the opaque user data threaded through every Alloc call. It
// carries the wrapped Allocator and the block-size bookkeeping mode, and is
// immutable after construction. The Allocator must outlive every interpreter
// state created with this handle.
type Handle struct {
	alloc   Allocator
	tracked bool
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithSizeTracking switches the handle to self-tracked mode: each block
// carries a hidden size header, and the osize the interpreter supplies is
// ignored. The default, caller-tracked mode trusts osize to be the size most
// recently requested for the block, which the interpreter contract
// guarantees. Self-tracked mode costs one header per block and is only
// needed when the caller's bookkeeping cannot be trusted.
func WithSizeTracking() HandleOption {
	return func(h *Handle) {
		h.tracked = true
	}
}

// NewHandle wraps an Allocator for use with Alloc.
func NewHandle(a Allocator, opts ...HandleOption) *Handle {
	h := &Handle{alloc: a}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// UserData returns the opaque pointer to register as the interpreter's
// allocation user data.
func (h *Handle) UserData() unsafe.Pointer {
	return unsafe.Pointer(h)
}

// Alloc is the allocation entry point. ud must be a Handle's UserData.
//
// The (ptr, nsize) pair selects the operation: (nil, 0) is a no-op,
// (ptr, 0) frees, (nil, n) allocates, (ptr, n) resizes. Free and shrink
// never fail; growth failure is reported as nil.
func Alloc(ud, ptr unsafe.Pointer, osize, nsize uintptr) unsafe.Pointer {
	h := (*Handle)(ud)
	switch {
	case ptr == nil && nsize == 0:
		return nil
	case nsize == 0:
		h.free(ptr, osize)
		return nil
	case ptr == nil:
		return h.allocate(nsize)
	default:
		return h.reallocate(ptr, osize, nsize)
	}
}

func (h *Handle) free(ptr unsafe.Pointer, osize uintptr) {
	if h.tracked {
		h.alloc.Free(baseOf(ptr), headerSize+headerOf(ptr).payloadLen, BlockAlign)
		return
	}
	h.alloc.Free(ptr, osize, BlockAlign)
}

func (h *Handle) allocate(nsize uintptr) unsafe.Pointer {
	if !h.tracked {
		return h.alloc.Alloc(nsize, BlockAlign)
	}
	base := h.alloc.Alloc(headerSize+nsize, BlockAlign)
	if base == nil {
		return nil
	}
	payload := payloadOf(base)
	headerOf(payload).payloadLen = nsize
	return payload
}

// reallocate tries the cheapest strategy first: resize in place, then remap,
// then — for shrinks only — keep the oversized block, then allocate-copy-free.
// Only the last step can fail, and only on growth, which preserves the
// interpreter's shrink-never-fails contract.
func (h *Handle) reallocate(ptr unsafe.Pointer, osize, nsize uintptr) unsafe.Pointer {
	oldLen, base, oldExtent, newExtent := osize, ptr, osize, nsize
	if h.tracked {
		oldLen = headerOf(ptr).payloadLen
		base = baseOf(ptr)
		oldExtent = headerSize + oldLen
		newExtent = headerSize + nsize
	}

	if h.alloc.ResizeInPlace(base, oldExtent, BlockAlign, newExtent) {
		if h.tracked {
			headerOf(ptr).payloadLen = nsize
		}
		return ptr
	}

	if newBase := h.alloc.Remap(base, oldExtent, BlockAlign, newExtent); newBase != nil {
		if !h.tracked {
			return newBase
		}
		payload := payloadOf(newBase)
		headerOf(payload).payloadLen = nsize
		return payload
	}

	if nsize <= oldLen {
		// A shrink the allocator declined: the block already holds enough.
		// The header keeps the real extent so a later free releases all of it.
		return ptr
	}

	newBase := h.alloc.Alloc(newExtent, BlockAlign)
	if newBase == nil {
		return nil
	}
	newPayload := newBase
	if h.tracked {
		newPayload = payloadOf(newBase)
		headerOf(newPayload).payloadLen = nsize
	}
	copyPayload(newPayload, ptr, oldLen)
	h.alloc.Free(base, oldExtent, BlockAlign)
	return newPayload
}
