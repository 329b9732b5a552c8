package hashengine

import (
	"sync"
	"testing"
)

func TestOperationRegistry(t *testing.T) {
	r := NewOperationRegistry()

	// Insert out of order; iteration must still be by id
	for _, id := range []uint64{5, 1, 3, 2, 4} {
		if err := r.Insert(newOperation(id, "/root")); err != nil {
			t.Fatalf("Insert(%d): %v", id, err)
		}
	}
	if r.Length() != 5 {
		t.Fatalf("Length() = %d, want 5", r.Length())
	}

	if err := r.Insert(newOperation(3, "/other")); err == nil {
		t.Error("duplicate id should be rejected")
	}

	op := r.Find(3)
	if op == nil || op.ID() != 3 || op.Root() != "/root" {
		t.Fatalf("Find(3) = %+v", op)
	}
	if r.Find(99) != nil {
		t.Error("Find of unknown id should return nil")
	}

	var ids []uint64
	r.ForEach(func(op *Operation, root string) bool {
		if root != op.Root() {
			t.Errorf("context %s does not match root %s", root, op.Root())
		}
		ids = append(ids, op.ID())
		return true
	})
	for i, id := range ids {
		if id != uint64(i+1) {
			t.Fatalf("ForEach order %v, want ascending ids", ids)
		}
	}

	visited := 0
	r.ForEach(func(*Operation, string) bool {
		visited++
		return visited < 2
	})
	if visited != 2 {
		t.Errorf("ForEach should stop when callback returns false, visited %d", visited)
	}

	if snap := r.Snapshot(); len(snap) != 5 || snap[0].ID() != 1 || snap[4].ID() != 5 {
		t.Errorf("Snapshot out of order: %d entries", len(snap))
	}
}

func TestOperationRegistryConcurrent(t *testing.T) {
	r := NewOperationRegistry()
	const n = 200

	var wg sync.WaitGroup
	for i := 1; i <= n; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			if err := r.Insert(newOperation(id, "/d")); err != nil {
				t.Errorf("Insert(%d): %v", id, err)
			}
			if r.Find(id) == nil {
				t.Errorf("Find(%d) after Insert returned nil", id)
			}
		}(uint64(i))
	}
	wg.Wait()

	if r.Length() != n {
		t.Errorf("Length() = %d, want %d", r.Length(), n)
	}
}
