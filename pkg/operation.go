package hashengine

import (
	"sync"
	"sync/atomic"
	"time"
)

// OperationState is the lifecycle state of one directory-hash request
type OperationState int32

const (
	OpPending OperationState = iota
	OpRunning
	OpStopped
	OpCompleted
	OpFailed
)

func (s OperationState) String() string {
	switch s {
	case OpPending:
		return "pending"
	case OpRunning:
		return "running"
	case OpStopped:
		return "stopped"
	case OpCompleted:
		return "completed"
	case OpFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transitions are possible
func (s OperationState) IsTerminal() bool {
	return s == OpStopped || s == OpCompleted || s == OpFailed
}

// Operation is one asynchronous hash request. State and counters are atomics so
// Status can read them while the worker mutates; only the owning worker transitions state.
type Operation struct {
	id   uint64
	root string

	state  atomic.Int32
	cancel atomic.Bool
	hashed atomic.Uint64
	failed atomic.Uint64

	mu       sync.Mutex // guards lastErr, started, finished
	lastErr  error
	started  time.Time
	finished time.Time
}

func newOperation(id uint64, root string) *Operation {
	return &Operation{id: id, root: root}
}

// ID returns the operation identifier
func (op *Operation) ID() uint64 { return op.id }

// Root returns the absolute directory being hashed
func (op *Operation) Root() string { return op.root }

// State returns the current state
func (op *Operation) State() OperationState {
	return OperationState(op.state.Load())
}

// Running is true while the operation has not reached a terminal state
func (op *Operation) Running() bool {
	return !op.State().IsTerminal()
}

// RequestCancel sets the cancel flag. Repeated calls are harmless.
func (op *Operation) RequestCancel() {
	op.cancel.Store(true)
}

// CancelRequested reports whether Stop has been called
func (op *Operation) CancelRequested() bool {
	return op.cancel.Load()
}

// transition moves the state forward: Pending -> Running -> terminal.
// Any other move is refused and reported as false.
func (op *Operation) transition(to OperationState) bool {
	for {
		from := op.State()
		if !allowedTransition(from, to) {
			return false
		}
		if op.state.CompareAndSwap(int32(from), int32(to)) {
			op.mu.Lock()
			now := time.Now()
			if to == OpRunning {
				op.started = now
			} else {
				op.finished = now
			}
			op.mu.Unlock()
			return true
		}
	}
}

func allowedTransition(from, to OperationState) bool {
	switch from {
	case OpPending:
		return to == OpRunning
	case OpRunning:
		return to.IsTerminal()
	default:
		return false
	}
}

func (op *Operation) recordFailure(err error) {
	op.failed.Add(1)
	op.mu.Lock()
	op.lastErr = err
	op.mu.Unlock()
}

// OperationInfo is a point-in-time copy of an Operation
type OperationInfo struct {
	ID              uint64
	Root            string
	State           OperationState
	CancelRequested bool
	FilesHashed     uint64
	FilesFailed     uint64
	LastError       string
	Started         time.Time
	Finished        time.Time
}

// Info takes a snapshot without blocking the worker for longer than a field copy
func (op *Operation) Info() OperationInfo {
	info := OperationInfo{
		ID:              op.id,
		Root:            op.root,
		State:           op.State(),
		CancelRequested: op.CancelRequested(),
		FilesHashed:     op.hashed.Load(),
		FilesFailed:     op.failed.Load(),
	}
	op.mu.Lock()
	if op.lastErr != nil {
		info.LastError = op.lastErr.Error()
	}
	info.Started = op.started
	info.Finished = op.finished
	op.mu.Unlock()
	return info
}

// Elapsed returns how long the operation ran, or has been running so far
func (info OperationInfo) Elapsed() time.Duration {
	if info.Started.IsZero() {
		return 0
	}
	if info.Finished.IsZero() {
		return time.Since(info.Started)
	}
	return info.Finished.Sub(info.Started)
}
