package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"teko/internal/services"
)

// DefaultIdleTTL is how long an API run may sit untouched before the registry
// dismisses it.
const DefaultIdleTTL = 30 * time.Minute

// ErrRunNotFound is returned for unknown runs and runs owned by another user.
var ErrRunNotFound = fmt.Errorf("pipeline: run %w", services.ErrNotFound)

// Registry tracks the open runs served by the HTTP API. Runs are removed as
// soon as they close, and idle runs are dismissed lazily on Open and Get.
type Registry struct {
	opts    Options
	idleTTL time.Duration
	now     func() time.Time

	mu   sync.Mutex
	runs map[string]*registryEntry
}

type registryEntry struct {
	owner   string
	runner  *Runner
	touched time.Time
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithIdleTTL overrides how long an untouched run stays open. Zero or
// negative keeps the default.
func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(g *Registry) {
		if ttl > 0 {
			g.idleTTL = ttl
		}
	}
}

// WithClock overrides the registry's time source (useful for tests).
func WithClock(now func() time.Time) RegistryOption {
	return func(g *Registry) {
		if now != nil {
			g.now = now
		}
	}
}

// NewRegistry returns a registry that opens runs with opts. OnClose is
// replaced by the registry's own hook.
func NewRegistry(opts Options, options ...RegistryOption) *Registry {
	g := &Registry{
		opts:    opts,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
		runs:    make(map[string]*registryEntry),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Open starts a new run owned by owner.
func (g *Registry) Open(owner string) *Runner {
	g.sweep()

	id := uuid.NewString()
	opts := g.opts
	opts.OnClose = g.remove
	runner := NewRunner(id, opts)

	g.mu.Lock()
	g.runs[id] = &registryEntry{owner: owner, runner: runner, touched: g.now()}
	g.mu.Unlock()
	return runner
}

// Get returns the run with id if owner opened it and marks it as used.
func (g *Registry) Get(owner, id string) (*Runner, error) {
	g.sweep()

	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.runs[id]
	if !ok || entry.owner != owner {
		return nil, ErrRunNotFound
	}
	entry.touched = g.now()
	return entry.runner, nil
}

// Len returns the number of open runs.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.runs)
}

// DismissAll closes every open run.
func (g *Registry) DismissAll() {
	g.mu.Lock()
	runners := make([]*Runner, 0, len(g.runs))
	for _, entry := range g.runs {
		runners = append(runners, entry.runner)
	}
	g.mu.Unlock()

	for _, runner := range runners {
		runner.Dismiss()
	}
}

// sweep dismisses runs idle for longer than the TTL. Runs with a side effect
// in flight are left alone until it settles.
func (g *Registry) sweep() {
	cutoff := g.now().Add(-g.idleTTL)

	g.mu.Lock()
	var stale []*Runner
	for _, entry := range g.runs {
		if entry.touched.After(cutoff) {
			continue
		}
		if entry.runner.State().Stage.Busy() {
			continue
		}
		stale = append(stale, entry.runner)
	}
	g.mu.Unlock()

	// Dismiss re-enters the registry through OnClose.
	for _, runner := range stale {
		runner.Dismiss()
	}
}

func (g *Registry) remove(id string) {
	g.mu.Lock()
	delete(g.runs, id)
	g.mu.Unlock()
}
