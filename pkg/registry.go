package hashengine

import (
	"fmt"
	"sync"
	"unsafe"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// operationRef is the skiplist item; the key is the operation id and the
// per-entry context is the root directory
type operationRef struct {
	op *Operation
}

func (ref *operationRef) Operation() *Operation {
	return ref.op
}

// OperationRegistry tracks every operation of one library instance, ordered by id.
// Operations are never removed; the whole registry is dropped on Terminate.
type OperationRegistry struct {
	mu       sync.RWMutex
	skiplist *zcsl.ZeroCopySkiplist[operationRef, uint64, string]
}

// NewOperationRegistry creates an empty registry
func NewOperationRegistry() *OperationRegistry {
	getKeyFromItem := func(ref *operationRef) uint64 {
		return ref.op.id
	}

	getItemSize := func(ref *operationRef) int {
		return int(unsafe.Sizeof(*ref))
	}

	cmpKey := func(a, b uint64) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	}

	return &OperationRegistry{
		skiplist: zcsl.MakeZeroCopySkiplist[operationRef, uint64, string](
			16,
			getKeyFromItem,
			getItemSize,
			cmpKey,
		),
	}
}

// Insert adds an operation. Inserting an id twice is an internal fault.
func (r *OperationRegistry) Insert(op *Operation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, _ := r.skiplist.Find(op.id); existing != nil {
		return fmt.Errorf("operation id %d already registered", op.id)
	}
	if !r.skiplist.Insert(&operationRef{op: op}, op.root) {
		return fmt.Errorf("failed to register operation %d", op.id)
	}
	return nil
}

// Find returns the operation with the given id, or nil
func (r *OperationRegistry) Find(id uint64) *Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	itemPtr, _ := r.skiplist.Find(id)
	if itemPtr == nil {
		return nil
	}
	ref := itemPtr.Item()
	return ref.Operation()
}

// ForEach iterates operations in ascending id order until callback returns false.
// The read lock is held for the duration, so callback must not call back into the registry.
func (r *OperationRegistry) ForEach(callback func(op *Operation, root string) bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for current := r.skiplist.First(); current != nil; current = current.Next() {
		ref := current.Item()
		if !callback(ref.Operation(), current.Context()) {
			break
		}
	}
}

// Snapshot returns every operation in ascending id order
func (r *OperationRegistry) Snapshot() []*Operation {
	ops := make([]*Operation, 0, r.Length())
	r.ForEach(func(op *Operation, _ string) bool {
		ops = append(ops, op)
		return true
	})
	return ops
}

// Length returns the number of registered operations
func (r *OperationRegistry) Length() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skiplist.Length()
}
