// Package hashengine hashes every regular file under a directory tree in the
// background and hands the results to a polling caller through a FIFO log.
//
// # Core API
//
// A Library owns the global lifecycle. Operations can only be started between
// Init and Terminate:
//
//	lib := hashengine.NewLibrary()
//	if err := lib.Init(); err != nil {
//		return err
//	}
//	defer lib.Terminate()
//
//	id, err := lib.StartHashing("/path/to/dir")
//
// # Draining Results
//
// Each hashed file produces one line "<operation_id> <path> <DIGEST>". An empty
// log is reported as ErrLogEmpty, which is not a failure:
//
//	for {
//		line, err := lib.ReadNextLogLine()
//		if errors.Is(err, hashengine.ErrLogEmpty) {
//			running, _ := lib.Status(id)
//			if !running {
//				break
//			}
//			time.Sleep(10 * time.Millisecond)
//			continue
//		}
//		fmt.Println(line)
//	}
//
// # Boundary Buffers
//
// ReadNextLogLineBuffer returns a NUL-terminated buffer owned by the caller.
// It must be handed back through Release; releasing nil, a pointer twice, or a
// pointer the library never issued is harmless.
//
// # Configuration
//
// Enable debug output:
//
//	hashengine.SetDebugFlags("worker,lifecycle")
//	hashengine.SetVerboseLevel(2)
package hashengine
