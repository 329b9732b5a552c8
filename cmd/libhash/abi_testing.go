package main

/*
#include <stdbool.h>
#include <stdlib.h>
*/
import "C"

import "unsafe"

// Go test files cannot use cgo, so these wrappers build the C arguments a
// foreign caller would pass and hand plain Go values back to main_test.go.

func callHashDirectory(path string) (uint64, uint32) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	var id C.size_t
	code := HashDirectory(cpath, &id)
	return uint64(id), uint32(code)
}

func callHashDirectoryNullPath() uint32 {
	var id C.size_t
	return uint32(HashDirectory(nil, &id))
}

func callHashDirectoryNullID(path string) uint32 {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	return uint32(HashDirectory(cpath, nil))
}

// readLine is one HashReadNextLogLine result. ptr is the buffer the caller must
// free; it is nil whenever the call did not produce a line.
type readLine struct {
	code uint32
	ptr  unsafe.Pointer
	text string
}

// callHashReadNextLogLine seeds the out-pointer with a stale value so the test
// can see whether the export cleared it
func callHashReadNextLogLine() readLine {
	stale := C.malloc(1)
	defer C.free(stale)

	line := (*C.char)(stale)
	code := HashReadNextLogLine(&line)

	result := readLine{code: uint32(code)}
	if line != nil {
		result.ptr = unsafe.Pointer(line)
		if result.ptr != stale {
			result.text = C.GoString(line)
		}
	}
	return result
}

func callHashReadNextLogLineNull() uint32 {
	return uint32(HashReadNextLogLine(nil))
}

func callHashStatus(id uint64) (bool, uint32) {
	var running C.bool
	code := HashStatus(C.size_t(id), &running)
	return bool(running), uint32(code)
}

func callHashStatusNull(id uint64) uint32 {
	return uint32(HashStatus(C.size_t(id), nil))
}

func callHashStop(id uint64) uint32 {
	return uint32(HashStop(C.size_t(id)))
}

func callHashFree(ptr unsafe.Pointer) {
	HashFree(ptr)
}

// foreignBuffer returns memory the library never issued, and its release func
func foreignBuffer() (unsafe.Pointer, func()) {
	ptr := C.malloc(16)
	return ptr, func() { C.free(ptr) }
}

func callHashInit() uint32 {
	return uint32(HashInit())
}

func callHashTerminate() uint32 {
	return uint32(HashTerminate())
}
