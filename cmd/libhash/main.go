// Command libhash builds the engine as a C shared library:
//
//	go build -buildmode=c-shared -o libhash.so ./cmd/libhash
//
// The exported functions and error codes are declared in hash.h.
package main

/*
#include <stdbool.h>
#include <stdlib.h>
#include <stdint.h>
*/
import "C"

import (
	"os"
	"unsafe"

	hashengine "github.com/mattkeenan/libhash/pkg"
)

// cAllocator hands out malloc'd memory so callers may keep buffers past any Go GC cycle
type cAllocator struct{}

func (cAllocator) Alloc(size int) unsafe.Pointer {
	if size <= 0 {
		size = 1
	}
	return C.malloc(C.size_t(size))
}

func (cAllocator) Free(ptr unsafe.Pointer) {
	C.free(ptr)
}

var library = hashengine.NewLibrary(
	hashengine.WithAllocator(cAllocator{}),
	hashengine.WithConfigPath(os.Getenv(hashengine.ConfigEnvVar)),
)

func code(c hashengine.Code) C.uint32_t {
	return C.uint32_t(c)
}

//export HashInit
func HashInit() C.uint32_t {
	return code(hashengine.Guard("HashInit", library.Init))
}

//export HashTerminate
func HashTerminate() C.uint32_t {
	return code(hashengine.Guard("HashTerminate", library.Terminate))
}

//export HashDirectory
func HashDirectory(path *C.char, operationID *C.size_t) C.uint32_t {
	return code(hashengine.Guard("HashDirectory", func() error {
		if path == nil || operationID == nil {
			return hashengine.ErrArgumentNull
		}
		id, err := library.StartHashing(C.GoString(path))
		if err != nil {
			return err
		}
		*operationID = C.size_t(id)
		return nil
	}))
}

//export HashReadNextLogLine
func HashReadNextLogLine(line **C.char) C.uint32_t {
	return code(hashengine.Guard("HashReadNextLogLine", func() error {
		if line == nil {
			return hashengine.ErrArgumentNull
		}
		*line = nil
		ptr, err := library.ReadNextLogLineBuffer()
		if err != nil {
			return err
		}
		*line = (*C.char)(ptr)
		return nil
	}))
}

//export HashStatus
func HashStatus(operationID C.size_t, running *C.bool) C.uint32_t {
	return code(hashengine.Guard("HashStatus", func() error {
		if running == nil {
			return hashengine.ErrArgumentNull
		}
		active, err := library.Status(uint64(operationID))
		if err != nil {
			return err
		}
		*running = C.bool(active)
		return nil
	}))
}

//export HashStop
func HashStop(operationID C.size_t) C.uint32_t {
	return code(hashengine.Guard("HashStop", func() error {
		return library.Stop(uint64(operationID))
	}))
}

//export HashFree
func HashFree(ptr unsafe.Pointer) {
	hashengine.Guard("HashFree", func() error {
		library.Release(ptr)
		return nil
	})
}

func main() {}
