package hashengine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// LibraryState is the global init/terminate state
type LibraryState int32

const (
	StateUninitialized LibraryState = iota
	StateInitialized
)

func (s LibraryState) String() string {
	if s == StateInitialized {
		return "initialised"
	}
	return "uninitialised"
}

// Option configures a Library
type Option func(*Library)

// WithFs sets the filesystem walked and read by workers.
// This is primarily useful for testing with in-memory filesystems.
func WithFs(fs afero.Fs) Option {
	return func(l *Library) {
		l.fs = fs
	}
}

// WithConfig uses cfg for every Init instead of loading a file
func WithConfig(cfg *Config) Option {
	return func(l *Library) {
		l.config = cfg
	}
}

// WithConfigPath loads the configuration from path on every Init.
// An empty path selects the defaults.
func WithConfigPath(path string) Option {
	return func(l *Library) {
		l.configPath = path
	}
}

// WithAllocator sets the allocator behind boundary buffers
func WithAllocator(allocator Allocator) Option {
	return func(l *Library) {
		l.allocator = allocator
	}
}

// Library is the process-wide engine state: lifecycle, the current instance and
// the boundary arena. Construct one with NewLibrary and drive it with Init/Terminate.
type Library struct {
	lifecycleMu sync.Mutex // serialises Init and Terminate end to end

	mu    sync.RWMutex // guards state and inst
	state LibraryState
	inst  *instance

	// nextID is never reset, so ids stay unique across Init/Terminate cycles
	nextID atomic.Uint64

	fs         afero.Fs
	config     *Config
	configPath string
	allocator  Allocator

	// arena outlives Terminate: buffers already handed out remain releasable
	arena *BoundaryArena
}

// NewLibrary creates an uninitialised library
func NewLibrary(options ...Option) *Library {
	l := &Library{
		fs: afero.NewOsFs(),
	}
	for _, option := range options {
		option(l)
	}
	l.arena = NewBoundaryArena(l.allocator)
	return l
}

// State returns the current lifecycle state
func (l *Library) State() LibraryState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Session returns the id of the current Init cycle, or "" when uninitialised
func (l *Library) Session() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.inst == nil {
		return ""
	}
	return l.inst.session
}

// Arena returns the boundary arena tracking buffers handed to the caller
func (l *Library) Arena() *BoundaryArena {
	return l.arena
}

// Init moves the library from uninitialised to initialised
func (l *Library) Init() error {
	defer VerboseEnter()()

	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()

	if l.State() == StateInitialized {
		return newError(CodeAlreadyInitialized, "Init", nil)
	}

	cfg := l.resolveConfig()
	verboseConfig := cfg.GetVerboseConfig()
	SetVerboseLevel(verboseConfig.Level)
	SetDebugFlags(verboseConfig.Debug)

	inst := newInstance(l.fs, cfg)

	l.mu.Lock()
	l.inst = inst
	l.state = StateInitialized
	l.mu.Unlock()

	VerboseLog(1, "library initialised (session %s, algorithm %s)", inst.session, inst.digester.Algorithm().Name)
	return nil
}

// resolveConfig never fails: an unreadable or invalid file falls back to defaults
func (l *Library) resolveConfig() *Config {
	cfg := l.config
	if cfg == nil {
		loaded, err := LoadConfig(l.configPath)
		if err != nil {
			logWarn("failed to load config from %s, using defaults: %v", l.configPath, err)
			return DefaultConfig()
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		logWarn("invalid configuration, using defaults: %v", err)
		return DefaultConfig()
	}
	return cfg
}

// Terminate cancels every outstanding operation, waits for the workers to stop
// and releases the registry and queue. It returns only once no worker can reach
// state observable by the caller.
func (l *Library) Terminate() error {
	defer VerboseEnter()()

	l.lifecycleMu.Lock()
	defer l.lifecycleMu.Unlock()

	l.mu.Lock()
	if l.state != StateInitialized {
		l.mu.Unlock()
		return newError(CodeNotInitialized, "Terminate", nil)
	}
	inst := l.inst
	l.inst = nil
	l.state = StateUninitialized
	l.mu.Unlock()

	debugLog(DebugLifecycle, "terminating %s", inst)
	inst.shutdown()

	VerboseLog(1, "library terminated (session %s)", inst.session)
	return nil
}

// current returns the live instance or NotInitialized
func (l *Library) current(op string) (*instance, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.state != StateInitialized {
		return nil, newError(CodeNotInitialized, op, nil)
	}
	return l.inst, nil
}

// allocateID hands out the next id, refusing to wrap back onto issued ids
func (l *Library) allocateID() (uint64, bool) {
	for {
		current := l.nextID.Load()
		if current == ^uint64(0) {
			return 0, false
		}
		if l.nextID.CompareAndSwap(current, current+1) {
			return current + 1, true
		}
	}
}

// instance holds everything created by one Init and destroyed by the matching Terminate
type instance struct {
	session  string
	fs       afero.Fs
	registry *OperationRegistry
	queue    *LogQueue
	digester *Digester

	wg     sync.WaitGroup
	active atomic.Int64

	force     chan struct{}
	forceOnce sync.Once

	terminateGrace time.Duration
	forceGrace     time.Duration
}

func newInstance(fs afero.Fs, cfg *Config) *instance {
	all := cfg.GetAllConfig()

	// Validate has already vetted both values
	algorithm, _ := GetHashAlgorithm(all.Hash.Default)
	bufferSize, _ := ParseHumanSize(all.Performance.HashBuffer)

	return &instance{
		session:        uuid.NewString(),
		fs:             fs,
		registry:       NewOperationRegistry(),
		queue:          NewLogQueue(),
		digester:       NewDigester(fs, algorithm, bufferSize),
		force:          make(chan struct{}),
		terminateGrace: all.Performance.TerminateGrace,
		forceGrace:     all.Performance.ForceGrace,
	}
}

func (inst *instance) forceStop() {
	inst.forceOnce.Do(func() {
		close(inst.force)
	})
}

// shutdown runs the two-phase stop: cooperative cancel bounded by terminateGrace,
// then interrupting in-flight reads bounded by forceGrace. Workers still alive after
// that are detached; the sealed queue keeps them from publishing anything further.
func (inst *instance) shutdown() {
	cancelled := 0
	inst.registry.ForEach(func(op *Operation, _ string) bool {
		if op.Running() {
			op.RequestCancel()
			cancelled++
		}
		return true
	})
	debugLog(DebugLifecycle, "session %s: cancelled %d running operations", inst.session, cancelled)

	idle := make(chan struct{})
	go func() {
		inst.wg.Wait()
		close(idle)
	}()

	if !waitIdle(idle, inst.terminateGrace) {
		logWarn("session %s: %d workers still running after %v, interrupting reads", inst.session, inst.active.Load(), inst.terminateGrace)
		inst.forceStop()
		if !waitIdle(idle, inst.forceGrace) {
			logError("session %s: detaching %d workers that did not stop within %v", inst.session, inst.active.Load(), inst.forceGrace)
		}
	}
	inst.forceStop()

	if dropped := inst.queue.Seal(); dropped > 0 {
		VerboseLog(1, "session %s: discarded %d undrained log entries", inst.session, dropped)
	}
}

func waitIdle(idle <-chan struct{}, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-idle:
		return true
	case <-timer.C:
		return false
	}
}

func (inst *instance) String() string {
	return fmt.Sprintf("session %s (%d operations, %d queued)", inst.session, inst.registry.Length(), inst.queue.Len())
}
