package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/logsift/logsift/internal/model"
)

// DefaultQueryLimit is used when a query gives no limit.
const DefaultQueryLimit = 10

// QueryOptions filters the retention window. Text matches case-insensitively
// against the message. From and To are independent inclusive bounds on the
// event timestamp; nil disables a bound.
type QueryOptions struct {
	Text  string
	From  *time.Time
	To    *time.Time
	Limit int
}

// QueryEngine answers filtered reads over the retention store. It never
// mutates the store and always works on a per-call snapshot.
type QueryEngine struct {
	store        *RetentionStore
	defaultLimit int
}

// NewQueryEngine creates a query engine with the given default result limit.
func NewQueryEngine(store *RetentionStore, defaultLimit int) *QueryEngine {
	if defaultLimit <= 0 {
		defaultLimit = DefaultQueryLimit
	}
	return &QueryEngine{store: store, defaultLimit: defaultLimit}
}

// Query returns matching events sorted by timestamp descending, ties keeping
// insertion order, truncated to the limit.
func (qe *QueryEngine) Query(opts QueryOptions) []model.LogEvent {
	limit := opts.Limit
	if limit <= 0 {
		limit = qe.defaultLimit
	}

	var text string
	if opts.Text != "" {
		text = strings.ToLower(opts.Text)
	}

	snapshot := qe.store.Snapshot()
	matched := make([]model.LogEvent, 0, len(snapshot))
	for _, ev := range snapshot {
		if text != "" && !strings.Contains(strings.ToLower(ev.Message), text) {
			continue
		}
		if opts.From != nil && ev.Timestamp.Before(*opts.From) {
			continue
		}
		if opts.To != nil && ev.Timestamp.After(*opts.To) {
			continue
		}
		matched = append(matched, ev)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// Snapshot exposes the full retention window in insertion order, for export.
func (qe *QueryEngine) Snapshot() []model.LogEvent {
	return qe.store.Snapshot()
}
