package hashengine

import (
	"sync"
	"unsafe"
)

// Allocator provides the raw memory handed across the boundary. The C library
// plugs in malloc/free; the default keeps Go slices reachable until freed.
type Allocator interface {
	// Alloc returns size bytes or nil when memory is exhausted
	Alloc(size int) unsafe.Pointer
	Free(ptr unsafe.Pointer)
}

// heapAllocator backs buffers with Go memory. The live map keeps each slice
// reachable, and the Go heap does not move objects, so the address stays valid.
type heapAllocator struct {
	mu   sync.Mutex
	live map[uintptr][]byte
}

func newHeapAllocator() *heapAllocator {
	return &heapAllocator{live: make(map[uintptr][]byte)}
}

func (h *heapAllocator) Alloc(size int) unsafe.Pointer {
	if size <= 0 {
		size = 1
	}
	buf := make([]byte, size)
	ptr := unsafe.Pointer(&buf[0])

	h.mu.Lock()
	h.live[uintptr(ptr)] = buf
	h.mu.Unlock()
	return ptr
}

func (h *heapAllocator) Free(ptr unsafe.Pointer) {
	h.mu.Lock()
	delete(h.live, uintptr(ptr))
	h.mu.Unlock()
}

type boundaryBuffer struct {
	ptr  unsafe.Pointer
	size int
}

// BoundaryArena tracks every buffer handed to the caller, keyed by address, so that
// release is a checked operation: null, double and unknown releases are ignored.
type BoundaryArena struct {
	mu        sync.Mutex
	allocator Allocator
	live      map[uintptr]boundaryBuffer
	issued    uint64
	released  uint64
	rejected  uint64
}

// NewBoundaryArena creates an arena over allocator; nil selects the Go heap
func NewBoundaryArena(allocator Allocator) *BoundaryArena {
	if allocator == nil {
		allocator = newHeapAllocator()
	}
	return &BoundaryArena{
		allocator: allocator,
		live:      make(map[uintptr]boundaryBuffer),
	}
}

// CString copies s into a new NUL-terminated buffer owned by the caller until Release
func (a *BoundaryArena) CString(s string) (unsafe.Pointer, error) {
	size := len(s) + 1
	ptr := a.allocator.Alloc(size)
	if ptr == nil {
		return nil, newError(CodeMemory, "CString", nil)
	}

	dst := unsafe.Slice((*byte)(ptr), size)
	copy(dst, s)
	dst[len(s)] = 0

	a.mu.Lock()
	a.live[uintptr(ptr)] = boundaryBuffer{ptr: ptr, size: size}
	a.issued++
	a.mu.Unlock()

	debugLog(DebugBoundary, "issued buffer %p (%d bytes)", ptr, size)
	return ptr, nil
}

// Release frees a buffer previously returned by CString. It reports whether the
// pointer was recognised; nil is a silent no-op and anything else unknown is logged.
func (a *BoundaryArena) Release(ptr unsafe.Pointer) bool {
	if ptr == nil {
		return false
	}

	a.mu.Lock()
	buf, ok := a.live[uintptr(ptr)]
	if ok {
		delete(a.live, uintptr(ptr))
		a.released++
	} else {
		a.rejected++
	}
	a.mu.Unlock()

	if !ok {
		logWarn("ignoring release of unrecognised buffer %p", ptr)
		return false
	}

	a.allocator.Free(buf.ptr)
	debugLog(DebugBoundary, "released buffer %p", ptr)
	return true
}

// Outstanding returns the number of buffers the caller has not yet released
func (a *BoundaryArena) Outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Stats returns lifetime counts of issued, released and rejected buffers
func (a *BoundaryArena) Stats() (issued, released, rejected uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.issued, a.released, a.rejected
}

// GoString reads a buffer issued by this arena back into a Go string.
// Unrecognised pointers yield false rather than reading arbitrary memory.
func (a *BoundaryArena) GoString(ptr unsafe.Pointer) (string, bool) {
	a.mu.Lock()
	buf, ok := a.live[uintptr(ptr)]
	a.mu.Unlock()
	if !ok || buf.size == 0 {
		return "", false
	}
	data := unsafe.Slice((*byte)(buf.ptr), buf.size)
	return string(data[:buf.size-1]), true
}
