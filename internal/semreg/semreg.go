// Package semreg is the named-semaphore registry described in spec §5: a
// module-level mapping from a logical workload name ("dependency_score",
// "tool_call", "tool_content_plan", ...) to a weighted semaphore bounding
// its concurrency.
//
// The source system rebinds a semaphore when the owning event loop changes;
// Go has no literal event-loop identity to rebind to, so Registry instead
// keys each semaphore by name alone and offers Reset, which discards the
// cached semaphore so the next Get creates a fresh one — the idiomatic Go
// reinterpretation of that design note (recorded in DESIGN.md). A fresh Registry is typically constructed once per process and
// threaded through the Runtime value (§9).
package semreg

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// Registry lazily creates and caches named weighted semaphores.
type Registry struct {
	mu         sync.Mutex
	sems       map[string]*semaphore.Weighted
	defaultCap int64
	overrides  map[string]int64
}

// New creates a Registry with the given default weight (spec default: 5)
// and per-name overrides.
func New(defaultCap int64, overrides map[string]int64) *Registry {
	if defaultCap <= 0 {
		defaultCap = 5
	}
	return &Registry{
		sems:       make(map[string]*semaphore.Weighted),
		defaultCap: defaultCap,
		overrides:  overrides,
	}
}

// Get returns the semaphore for name, creating it on first use with the
// configured weight (override if present, else the registry default).
func (r *Registry) Get(name string) *semaphore.Weighted {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sem, ok := r.sems[name]; ok {
		return sem
	}

	weight := r.defaultCap
	if r.overrides != nil {
		if w, ok := r.overrides[name]; ok && w > 0 {
			weight = w
		}
	}

	sem := semaphore.NewWeighted(weight)
	r.sems[name] = sem
	return sem
}

// Reset discards the cached semaphore for name so the next Get rebuilds it
// from scratch — the Go analogue of the source's "cached semaphore bound to
// a different loop is discarded and re-created".
func (r *Registry) Reset(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sems, name)
}
