// SPDX-License-Identifier: Apache-2.0

package luaz

import (
	"unsafe"
)

// Bytes exposes n bytes at p as a slice. The slice aliases the block and is
// valid only until the block is resized or freed. A nil pointer or zero
// length yields a nil slice.
func Bytes(p unsafe.Pointer, n uintptr) []byte {
	if p == nil || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), n)
}

// copyPayload copies exactly n bytes from src to dst. The allocate-copy-free
// path relies on the bound being the old payload length, never the new one.
func copyPayload(dst, src unsafe.Pointer, n uintptr) {
	copy(Bytes(dst, n), Bytes(src, n))
}
