// SPDX-License-Identifier: Apache-2.0

package luaz

import (
	"unsafe"
)

// blockHeader sits immediately before the payload of every block in
// self-tracked mode. payloadLen records the extent actually granted, which
// after a kept shrink may exceed the size the interpreter last asked for.
type blockHeader struct {
	payloadLen uintptr
}

// headerSize is the header's storage footprint: its natural size rounded up
// to BlockAlign, so payload pointers stay BlockAlign-aligned.
const headerSize = (unsafe.Sizeof(blockHeader{}) + BlockAlign - 1) &^ (BlockAlign - 1)

// headerOf, baseOf and payloadOf are the only places allowed to do header
// pointer arithmetic.

func headerOf(payload unsafe.Pointer) *blockHeader {
	return (*blockHeader)(unsafe.Add(payload, -int(headerSize)))
}

func baseOf(payload unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(payload, -int(headerSize))
}

func payloadOf(base unsafe.Pointer) unsafe.Pointer {
	return unsafe.Add(base, headerSize)
}
