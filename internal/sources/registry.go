// Package sources tracks the upstream services that have reported events,
// fed by the ingestion pipeline.
package sources

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Source describes one upstream service seen on the ingest path.
type Source struct {
	Name        string    `json:"name"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
	LastSeenAt  time.Time `json:"lastSeenAt"`
	Events      int64     `json:"events"`
}

// Registry stores per-source activity. Entries for sources that go quiet are
// pruned after a timeout.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*Source
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]*Source)}
}

// Observe records one event from the named source.
func (r *Registry) Observe(name string, ts time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.sources[name]
	if !ok {
		src = &Source{Name: name, FirstSeenAt: ts}
		r.sources[name] = src
	}
	if ts.After(src.LastSeenAt) {
		src.LastSeenAt = ts
	}
	src.Events++
}

// Get returns a copy of the entry for the named source.
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[name]
	if !ok {
		return Source{}, false
	}
	return *src, true
}

// List returns all known sources sorted by name.
func (r *Registry) List() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Source, 0, len(r.sources))
	for _, src := range r.sources {
		list = append(list, *src)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// PruneStale removes sources not seen within the timeout and returns how
// many were dropped.
func (r *Registry) PruneStale(timeout time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	threshold := time.Now().Add(-timeout)
	count := 0
	for name, src := range r.sources {
		if src.LastSeenAt.Before(threshold) {
			delete(r.sources, name)
			count++
		}
	}
	return count
}

// RunPruneLoop prunes stale sources on a ticker until the context is
// cancelled.
func (r *Registry) RunPruneLoop(ctx context.Context, interval, timeout time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.PruneStale(timeout)
		case <-ctx.Done():
			return
		}
	}
}
