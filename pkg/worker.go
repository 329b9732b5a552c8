package hashengine

import (
	"errors"
	"fmt"
)

// hashWorker is the single task bound to one operation. It only ever mutates its
// own Operation and publishes through the instance queue.
type hashWorker struct {
	op       *Operation
	walker   *DirectoryWalker
	digester *Digester
	queue    *LogQueue
	force    <-chan struct{}
}

// spawn starts the worker for op. Callers hold the library read lock so the
// WaitGroup is never added to once shutdown has begun waiting on it.
func (inst *instance) spawn(op *Operation) {
	w := &hashWorker{
		op:       op,
		digester: inst.digester,
		queue:    inst.queue,
		force:    inst.force,
	}
	w.walker = NewDirectoryWalker(inst.fs, func(path string, err error) {
		op.recordFailure(fmt.Errorf("skipped %s: %w", path, err))
	})

	inst.wg.Add(1)
	inst.active.Add(1)
	go func() {
		defer inst.wg.Done()
		defer inst.active.Add(-1)
		w.run()
	}()
}

func (w *hashWorker) run() {
	op := w.op

	defer func() {
		if r := recover(); r != nil {
			logError("worker for operation %d panicked: %v", op.id, r)
			op.recordFailure(fmt.Errorf("internal fault: %v", r))
			w.finish(OpFailed)
		}
	}()

	if !op.transition(OpRunning) {
		logError("operation %d could not enter running from %s", op.id, op.State())
		return
	}
	// A Stop accepted while Pending always ends the operation Stopped
	if op.CancelRequested() {
		w.finish(OpStopped)
		return
	}
	debugLog(DebugWorker, "operation %d started on %s", op.id, op.root)

	w.finish(w.hashTree())
}

// hashTree walks the root and hashes each file, checking the cancel flag before
// every file. It returns the terminal state the operation should take.
func (w *hashWorker) hashTree() OperationState {
	op := w.op
	stopped := false

	err := w.walker.Walk(op.root, w.force, func(path string) bool {
		if op.CancelRequested() {
			stopped = true
			return false
		}

		digest, err := w.digester.Digest(path, w.force)
		if err != nil {
			if errors.Is(err, errHashInterrupted) {
				stopped = true
				return false
			}
			debugLog(DebugWorker, "operation %d: %v", op.id, err)
			op.recordFailure(err)
			return true
		}

		if !w.queue.Push(LogEntry{OperationID: op.id, Path: path, Digest: digest}) {
			// Queue sealed by Terminate; nothing further can be delivered
			stopped = true
			return false
		}
		op.hashed.Add(1)
		if IsDebugEnabled(DebugQueue) {
			debugLog(DebugQueue, "operation %d queued %s", op.id, path)
		}
		return true
	})

	switch {
	case errors.Is(err, errWalkInterrupted):
		return OpStopped
	case err != nil:
		op.recordFailure(err)
		return OpFailed
	case stopped, op.CancelRequested():
		return OpStopped
	default:
		return OpCompleted
	}
}

func (w *hashWorker) finish(state OperationState) {
	op := w.op
	if !op.transition(state) {
		return
	}
	VerboseLog(2, "operation %d %s: %d files hashed, %d failed", op.id, state, op.hashed.Load(), op.failed.Load())
}
