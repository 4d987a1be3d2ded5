// SPDX-License-Identifier: Apache-2.0

package luaz

import (
	"unsafe"

	"go.uber.org/zap"
)

// LogAllocator traces every operation of the wrapped allocator through a
// structured logger. Successful operations log at debug level, failed ones
// at warn, so production configs surface only allocation pressure.
type LogAllocator struct {
	a   Allocator
	log *zap.Logger
}

// NewLogAllocator wraps a. A nil logger falls back to a no-op logger.
func NewLogAllocator(a Allocator, log *zap.Logger) *LogAllocator {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogAllocator{a: a, log: log}
}

// Alloc satisfies the Allocator interface.
func (l *LogAllocator) Alloc(size, alignment uintptr) unsafe.Pointer {
	ptr := l.a.Alloc(size, alignment)
	if ptr == nil {
		l.log.Warn("alloc failed",
			zap.Uintptr("size", size),
			zap.Uintptr("align", alignment))
		return nil
	}
	l.log.Debug("alloc",
		zap.Uintptr("ptr", uintptr(ptr)),
		zap.Uintptr("size", size))
	return ptr
}

// Free satisfies the Allocator interface.
func (l *LogAllocator) Free(ptr unsafe.Pointer, size, alignment uintptr) {
	l.a.Free(ptr, size, alignment)
	l.log.Debug("free",
		zap.Uintptr("ptr", uintptr(ptr)),
		zap.Uintptr("size", size))
}

// ResizeInPlace satisfies the Allocator interface.
func (l *LogAllocator) ResizeInPlace(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) bool {
	ok := l.a.ResizeInPlace(ptr, oldSize, alignment, newSize)
	l.log.Debug("resize",
		zap.Uintptr("ptr", uintptr(ptr)),
		zap.Uintptr("old", oldSize),
		zap.Uintptr("new", newSize),
		zap.Bool("ok", ok))
	return ok
}

// Remap satisfies the Allocator interface.
func (l *LogAllocator) Remap(ptr unsafe.Pointer, oldSize, alignment, newSize uintptr) unsafe.Pointer {
	newPtr := l.a.Remap(ptr, oldSize, alignment, newSize)
	if newPtr == nil {
		l.log.Warn("remap failed",
			zap.Uintptr("ptr", uintptr(ptr)),
			zap.Uintptr("old", oldSize),
			zap.Uintptr("new", newSize))
		return nil
	}
	l.log.Debug("remap",
		zap.Uintptr("ptr", uintptr(ptr)),
		zap.Uintptr("new_ptr", uintptr(newPtr)),
		zap.Uintptr("old", oldSize),
		zap.Uintptr("new", newSize))
	return newPtr
}
