package engine

import (
	"sync"

	"github.com/logsift/logsift/internal/metrics"
	"github.com/logsift/logsift/internal/model"
)

// DefaultRetentionCapacity bounds the in-memory event window.
const DefaultRetentionCapacity = 1000

// RetentionStore is a bounded, insertion-ordered buffer of log events.
// Appending beyond capacity evicts the single oldest event. Mutation only
// happens through Append; readers work on snapshots and never observe a
// partial append or eviction.
type RetentionStore struct {
	mu       sync.Mutex
	events   []model.LogEvent // ring buffer
	head     int              // index of the oldest event
	size     int
	capacity int
}

// NewRetentionStore creates a store holding at most capacity events.
func NewRetentionStore(capacity int) *RetentionStore {
	if capacity <= 0 {
		capacity = DefaultRetentionCapacity
	}
	return &RetentionStore{
		events:   make([]model.LogEvent, capacity),
		capacity: capacity,
	}
}

// Append adds an event, evicting the oldest one first when full.
// Returns true if an eviction happened.
func (s *RetentionStore) Append(ev model.LogEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := false
	if s.size == s.capacity {
		s.head = (s.head + 1) % s.capacity
		s.size--
		evicted = true
		metrics.StoreEvictions.WithLabelValues("retention").Inc()
	}

	s.events[(s.head+s.size)%s.capacity] = ev
	s.size++
	return evicted
}

// Len returns the number of retained events.
func (s *RetentionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Snapshot returns a point-in-time copy of the retained events in insertion
// order. The returned slice shares no state with the store.
func (s *RetentionStore) Snapshot() []model.LogEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.LogEvent, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.events[(s.head+i)%s.capacity]
	}
	return out
}
