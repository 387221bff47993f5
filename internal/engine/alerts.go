package engine

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/logsift/logsift/internal/metrics"
	"github.com/logsift/logsift/internal/model"
)

// DefaultAlertCapacity bounds the in-memory alert buffer.
const DefaultAlertCapacity = 100

// DefaultAlertListLimit is used when a list request gives no limit.
const DefaultAlertListLimit = 10

// AlertStore is a bounded, insertion-ordered buffer of alerts with FIFO
// eviction. Eviction can discard an unacknowledged alert before anyone has
// seen it; bounded memory wins over alert durability here.
type AlertStore struct {
	mu       sync.Mutex
	alerts   []model.Alert // ring buffer
	head     int
	size     int
	capacity int
}

// NewAlertStore creates a store holding at most capacity alerts.
func NewAlertStore(capacity int) *AlertStore {
	if capacity <= 0 {
		capacity = DefaultAlertCapacity
	}
	return &AlertStore{
		alerts:   make([]model.Alert, capacity),
		capacity: capacity,
	}
}

// Append adds an alert, evicting the oldest one first when full.
func (s *AlertStore) Append(a model.Alert) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := false
	if s.size == s.capacity {
		s.head = (s.head + 1) % s.capacity
		s.size--
		evicted = true
		metrics.StoreEvictions.WithLabelValues("alerts").Inc()
	}

	s.alerts[(s.head+s.size)%s.capacity] = a
	s.size++
	return evicted
}

// Len returns the number of buffered alerts.
func (s *AlertStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// snapshot returns a copy of the alerts in insertion order. Callers must not
// hold s.mu.
func (s *AlertStore) snapshot() []model.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Alert, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.alerts[(s.head+i)%s.capacity]
	}
	return out
}

// acknowledge marks the alert with the given id. AcknowledgedAt is set only
// on the first transition; re-acknowledging is not an error. Returns false
// when no alert with that id is buffered.
func (s *AlertStore) acknowledge(id string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := 0; i < s.size; i++ {
		idx := (s.head + i) % s.capacity
		if s.alerts[idx].ID != id {
			continue
		}
		s.alerts[idx].Acknowledged = true
		if s.alerts[idx].AcknowledgedAt == nil {
			ts := now
			s.alerts[idx].AcknowledgedAt = &ts
		}
		return true
	}
	return false
}

// AlertFilter selects alerts by acknowledgment state. A nil Acknowledged
// matches every alert.
type AlertFilter struct {
	Acknowledged *bool
}

// AlertService answers alert listings and performs acknowledgment
// transitions. It is the only component allowed to mutate the AlertStore
// beyond appends.
type AlertService struct {
	store  *AlertStore
	logger *zap.Logger
}

// NewAlertService wraps an AlertStore.
func NewAlertService(store *AlertStore, logger *zap.Logger) *AlertService {
	return &AlertService{store: store, logger: logger}
}

// List returns alerts matching the filter, newest first, truncated to limit.
// Ties on timestamp keep insertion order.
func (svc *AlertService) List(filter AlertFilter, limit int) []model.Alert {
	if limit <= 0 {
		limit = DefaultAlertListLimit
	}

	all := svc.store.snapshot()
	matched := make([]model.Alert, 0, len(all))
	for _, a := range all {
		if filter.Acknowledged != nil && a.Acknowledged != *filter.Acknowledged {
			continue
		}
		matched = append(matched, a)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// Acknowledge marks an alert as seen. Idempotent: a second call for a known
// id still returns true and leaves AcknowledgedAt untouched.
func (svc *AlertService) Acknowledge(id string) bool {
	ok := svc.store.acknowledge(id, time.Now().UTC())
	if ok {
		metrics.AlertsAcknowledged.Inc()
		svc.logger.Info("alert acknowledged", zap.String("alert_id", id))
	}
	return ok
}
