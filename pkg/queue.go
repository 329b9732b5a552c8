package hashengine

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// LogEntry records one hashed file
type LogEntry struct {
	OperationID uint64
	Path        string
	Digest      string
}

// String serialises the entry in the wire format "<operation_id> <path> <digest>"
func (e LogEntry) String() string {
	return fmt.Sprintf("%d %s %s", e.OperationID, e.Path, e.Digest)
}

// ParseLogLine splits a serialised entry. The id is the first field and the digest
// the last, so paths containing spaces survive the round trip.
func ParseLogLine(line string) (LogEntry, error) {
	first := strings.IndexByte(line, ' ')
	last := strings.LastIndexByte(line, ' ')
	if first <= 0 || last <= first+1 || last == len(line)-1 {
		return LogEntry{}, fmt.Errorf("malformed log line %q", line)
	}

	id, err := strconv.ParseUint(line[:first], 10, 64)
	if err != nil {
		return LogEntry{}, fmt.Errorf("malformed operation id in log line %q: %w", line, err)
	}

	return LogEntry{
		OperationID: id,
		Path:        line[first+1 : last],
		Digest:      line[last+1:],
	}, nil
}

// LogQueue is the FIFO of completed files shared by every worker of an instance.
// Once sealed it drops pushes, which is how a worker outliving Terminate is kept
// away from state the caller can still observe.
type LogQueue struct {
	mu      sync.Mutex
	entries []LogEntry
	head    int
	sealed  bool
	pushed  uint64
	popped  uint64
}

// NewLogQueue creates an empty queue
func NewLogQueue() *LogQueue {
	return &LogQueue{}
}

// Push appends an entry. It returns false once the queue is sealed.
func (q *LogQueue) Push(entry LogEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.sealed {
		return false
	}
	q.entries = append(q.entries, entry)
	q.pushed++
	return true
}

// Pop removes the oldest entry
func (q *LogQueue) Pop() (LogEntry, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.entries) {
		return LogEntry{}, false
	}

	entry := q.entries[q.head]
	q.entries[q.head] = LogEntry{}
	q.head++
	q.popped++

	// Reclaim the drained prefix once it dominates the backing array
	if q.head >= 64 && q.head*2 >= len(q.entries) {
		n := copy(q.entries, q.entries[q.head:])
		for i := n; i < len(q.entries); i++ {
			q.entries[i] = LogEntry{}
		}
		q.entries = q.entries[:n]
		q.head = 0
	}

	return entry, true
}

// Requeue returns a popped entry to the head of the queue, for when delivery
// to the caller failed after the pop
func (q *LogQueue) Requeue(entry LogEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.sealed {
		return false
	}
	if q.head > 0 {
		q.head--
		q.entries[q.head] = entry
	} else {
		q.entries = append([]LogEntry{entry}, q.entries...)
	}
	q.popped--
	return true
}

// Len returns the number of entries waiting to be drained
func (q *LogQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries) - q.head
}

// Stats returns the lifetime push and pop counts
func (q *LogQueue) Stats() (pushed, popped uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pushed, q.popped
}

// Seal rejects all further pushes and discards undrained entries, returning how many were dropped
func (q *LogQueue) Seal() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := len(q.entries) - q.head
	q.sealed = true
	q.entries = nil
	q.head = 0
	return dropped
}
