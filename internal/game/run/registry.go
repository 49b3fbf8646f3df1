package run

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/overstack/internal/game/npc"
)

// ErrInvalidHandle is wrapped in results for handles the registry does not know.
var ErrInvalidHandle = errors.New("invalid_handle")

// Handle is the opaque identifier hosts use to address a run.
type Handle uint32

// Info describes a registered run.
type Info struct {
	Handle   Handle
	ID       uuid.UUID
	Seed     uint64
	MaxNodes uint32
	Traits   []string
}

type entry struct {
	id  uuid.UUID
	run *Run
}

// Registry owns every active run and is the only way to create, reset, or
// destroy one. All methods are safe for concurrent use; calls are serialised
// so a run is never stepped by two callers at once.
type Registry struct {
	mu      sync.Mutex
	next    Handle
	runs    map[Handle]*entry
	catalog *npc.Catalog
	logger  *zap.Logger
}

// NewRegistry creates an empty Registry whose runs use catalog.
//
// Precondition: catalog must be non-nil.
func NewRegistry(catalog *npc.Catalog, logger *zap.Logger) *Registry {
	if catalog == nil {
		panic("run.NewRegistry: precondition violated: catalog must be non-nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		runs:    make(map[Handle]*entry),
		catalog: catalog,
		logger:  logger,
	}
}

// Create registers a new run and returns its handle. Handles start at 1 and
// are never reused.
//
// Postcondition: Returns an error and registers nothing if a trait ID is unknown.
func (r *Registry) Create(seed uint64, maxNodes int, traits []string) (Info, error) {
	run, err := New(Config{
		Seed:     seed,
		MaxNodes: maxNodes,
		Traits:   traits,
		Catalog:  r.catalog,
		Logger:   r.logger,
	})
	if err != nil {
		return Info{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.next == ^Handle(0) {
		return Info{}, fmt.Errorf("creating run: handle space exhausted")
	}
	r.next++
	h := r.next
	e := &entry{id: uuid.New(), run: run}
	r.runs[h] = e
	r.logger.Debug("run created",
		zap.Uint32("handle", uint32(h)),
		zap.String("run_id", e.id.String()),
		zap.Uint64("seed", seed),
		zap.Uint32("max_nodes", run.MaxNodes()),
		zap.Strings("traits", run.TraitIDs()),
	)
	return infoOf(h, e), nil
}

// Destroy removes the run for h.
//
// Postcondition: Returns false if h was not registered.
func (r *Registry) Destroy(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.runs[h]; !ok {
		return false
	}
	delete(r.runs, h)
	r.logger.Debug("run destroyed", zap.Uint32("handle", uint32(h)))
	return true
}

// Reset returns the run for h to its initial state with the same seed, node
// count, and traits. The run gets a fresh ID.
//
// Postcondition: Returns false if h was not registered.
func (r *Registry) Reset(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.runs[h]
	if !ok {
		return false
	}
	e.run.Reset()
	e.id = uuid.New()
	return true
}

// Info returns the description of the run for h.
func (r *Registry) Info(h Handle) (Info, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.runs[h]
	if !ok {
		return Info{}, false
	}
	return infoOf(h, e), true
}

// Len returns the number of registered runs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

// Step advances the run for h. An unknown handle yields an ended result
// carrying an error wrapping ErrInvalidHandle.
func (r *Registry) Step(h Handle, dt float64, action *Action) StepResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.runs[h]
	if !ok {
		return invalidHandle(h)
	}
	return e.run.Step(dt, action)
}

// StepWithAction is Step with the action given as a host string (see
// ParseAction). An unrecognized kind yields a result carrying an error
// wrapping ErrInvalidAction, reporting the run's current ended flag, and
// leaves the run untouched.
func (r *Registry) StepWithAction(h Handle, dt float64, kind string, arg int) StepResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.runs[h]
	if !ok {
		return invalidHandle(h)
	}
	action, err := ParseAction(kind, arg)
	if err != nil {
		return StepResult{Ended: e.run.Ended(), Err: err}
	}
	return e.run.Step(dt, action)
}

// Snapshot returns the display state of the run for h, or an ended snapshot
// with result "invalid_handle" for an unknown handle.
func (r *Registry) Snapshot(h Handle) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.runs[h]
	if !ok {
		return invalidSnapshot()
	}
	return e.run.Snapshot()
}

// With calls fn with the run for h while holding the registry lock.
//
// Postcondition: Returns false without calling fn if h is not registered.
func (r *Registry) With(h Handle, fn func(Info, *Run)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.runs[h]
	if !ok {
		return false
	}
	fn(infoOf(h, e), e.run)
	return true
}

func infoOf(h Handle, e *entry) Info {
	return Info{
		Handle:   h,
		ID:       e.id,
		Seed:     e.run.Seed(),
		MaxNodes: e.run.MaxNodes(),
		Traits:   e.run.TraitIDs(),
	}
}

func invalidHandle(h Handle) StepResult {
	return StepResult{Ended: true, Err: fmt.Errorf("%w:%d", ErrInvalidHandle, h)}
}
