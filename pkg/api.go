package hashengine

// This file holds the operation-level API. Each call mirrors one function of the C ABI.

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// StartHashing validates path synchronously, registers a Pending operation and
// starts its worker. It returns without waiting for any file to be hashed.
func (l *Library) StartHashing(path string) (uint64, error) {
	defer VerboseEnter()()

	inst, err := l.current("StartHashing")
	if err != nil {
		return 0, err
	}

	root, err := validateRoot(inst.fs, path)
	if err != nil {
		return 0, err
	}

	// Held across insert and spawn so Terminate cannot begin waiting in between
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.inst != inst {
		return 0, newError(CodeNotInitialized, "StartHashing", nil)
	}

	id, ok := l.allocateID()
	if !ok {
		return 0, newError(CodeGeneral, "StartHashing", errors.New("operation id space exhausted"))
	}

	op := newOperation(id, root)
	if err := inst.registry.Insert(op); err != nil {
		return 0, newError(CodeGeneral, "StartHashing", err)
	}
	inst.spawn(op)

	VerboseLog(1, "operation %d started on %s", id, root)
	return id, nil
}

// validateRoot resolves path to an absolute, existing, readable directory
func validateRoot(fs afero.Fs, path string) (string, error) {
	const op = "StartHashing"

	if path == "" {
		return "", newError(CodeArgumentNull, op, errors.New("empty path"))
	}
	if strings.IndexByte(path, 0) >= 0 {
		return "", newError(CodeArgumentInvalid, op, errors.New("path contains NUL byte"))
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return "", newError(CodeArgumentInvalid, op, fmt.Errorf("failed to resolve %s: %w", path, err))
	}

	info, err := fs.Stat(root)
	if err != nil {
		return "", newError(CodeArgumentInvalid, op, err)
	}
	if !info.IsDir() {
		return "", newError(CodeArgumentInvalid, op, fmt.Errorf("%s is not a directory", root))
	}

	if _, isOs := fs.(*afero.OsFs); isOs {
		if err := unix.Access(root, unix.R_OK|unix.X_OK); err != nil {
			return "", newError(CodeArgumentInvalid, op, fmt.Errorf("%s is not readable: %w", root, err))
		}
	}

	dir, err := fs.Open(root)
	if err != nil {
		return "", newError(CodeArgumentInvalid, op, err)
	}
	defer dir.Close()
	if _, err := dir.Readdirnames(1); err != nil && err != io.EOF {
		return "", newError(CodeArgumentInvalid, op, fmt.Errorf("%s is not readable: %w", root, err))
	}

	return root, nil
}

func (l *Library) lookup(op string, id uint64) (*Operation, error) {
	inst, err := l.current(op)
	if err != nil {
		return nil, err
	}
	operation := inst.registry.Find(id)
	if operation == nil {
		return nil, newError(CodeArgumentInvalid, op, fmt.Errorf("unknown operation id %d", id))
	}
	return operation, nil
}

// Status reports whether the operation is still pending or running
func (l *Library) Status(id uint64) (bool, error) {
	operation, err := l.lookup("Status", id)
	if err != nil {
		return false, err
	}
	return operation.Running(), nil
}

// Stop requests cooperative cancellation. It is accepted in any state and repeated
// calls are no-ops; a running worker halts before starting its next file.
func (l *Library) Stop(id uint64) error {
	operation, err := l.lookup("Stop", id)
	if err != nil {
		return err
	}
	if !operation.CancelRequested() {
		VerboseLog(1, "operation %d stop requested (%s)", id, operation.State())
	}
	operation.RequestCancel()
	return nil
}

// StopAll requests cancellation of every operation still running and returns how many were signalled
func (l *Library) StopAll() (int, error) {
	inst, err := l.current("StopAll")
	if err != nil {
		return 0, err
	}
	count := 0
	inst.registry.ForEach(func(op *Operation, _ string) bool {
		if op.Running() {
			op.RequestCancel()
			count++
		}
		return true
	})
	return count, nil
}

// Info returns a snapshot of one operation
func (l *Library) Info(id uint64) (OperationInfo, error) {
	operation, err := l.lookup("Info", id)
	if err != nil {
		return OperationInfo{}, err
	}
	return operation.Info(), nil
}

// Operations returns snapshots of every operation of the current session, ordered by id
func (l *Library) Operations() ([]OperationInfo, error) {
	inst, err := l.current("Operations")
	if err != nil {
		return nil, err
	}
	ops := inst.registry.Snapshot()
	infos := make([]OperationInfo, 0, len(ops))
	for _, op := range ops {
		infos = append(infos, op.Info())
	}
	return infos, nil
}

// ReadNextLogEntry pops the oldest completed file. An empty queue is ErrLogEmpty,
// the normal answer while workers are still busy.
func (l *Library) ReadNextLogEntry() (LogEntry, error) {
	inst, err := l.current("ReadNextLogLine")
	if err != nil {
		return LogEntry{}, err
	}
	entry, ok := inst.queue.Pop()
	if !ok {
		return LogEntry{}, newError(CodeLogEmpty, "ReadNextLogLine", nil)
	}
	return entry, nil
}

// ReadNextLogLine pops the oldest entry in its wire format
func (l *Library) ReadNextLogLine() (string, error) {
	entry, err := l.ReadNextLogEntry()
	if err != nil {
		return "", err
	}
	return entry.String(), nil
}

// ReadNextLogLineBuffer pops the oldest entry into a NUL-terminated boundary buffer.
// The caller owns the buffer and must hand it back through Release exactly once.
// If the buffer cannot be allocated the entry stays queued.
func (l *Library) ReadNextLogLineBuffer() (unsafe.Pointer, error) {
	inst, err := l.current("ReadNextLogLine")
	if err != nil {
		return nil, err
	}
	entry, ok := inst.queue.Pop()
	if !ok {
		return nil, newError(CodeLogEmpty, "ReadNextLogLine", nil)
	}

	ptr, err := l.arena.CString(entry.String())
	if err != nil {
		if !inst.queue.Requeue(entry) {
			logWarn("dropping log entry for %s: queue sealed during delivery", entry.Path)
		}
		return nil, err
	}
	return ptr, nil
}

// Release returns a boundary buffer. nil, already released and unknown pointers
// are ignored. It works whether or not the library is initialised.
func (l *Library) Release(ptr unsafe.Pointer) bool {
	return l.arena.Release(ptr)
}

// Guard runs fn and converts its outcome to a boundary Code. A panic is
// reported as CodeException instead of unwinding into the caller.
func Guard(name string, fn func() error) (code Code) {
	defer func() {
		if r := recover(); r != nil {
			logError("%s panicked: %v", name, r)
			code = CodeException
		}
	}()
	return CodeOf(fn())
}
