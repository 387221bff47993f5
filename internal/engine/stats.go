package engine

import (
	"github.com/logsift/logsift/internal/model"
)

// StatsAggregator computes point-in-time aggregates over the retention
// window. Every call works on a single consistent snapshot, so a store
// mutated mid-computation can never skew the result.
type StatsAggregator struct {
	store *RetentionStore
}

// NewStatsAggregator creates an aggregator over the given store.
func NewStatsAggregator(store *RetentionStore) *StatsAggregator {
	return &StatsAggregator{store: store}
}

// Compute returns totals, severity counts, average message length and the
// number of distinct non-empty sources. An empty window yields zeroes.
func (sa *StatsAggregator) Compute() model.Stats {
	snapshot := sa.store.Snapshot()

	stats := model.Stats{
		TotalEvents: len(snapshot),
		SeverityCounts: map[model.Severity]int{
			model.SeverityError:   0,
			model.SeverityWarning: 0,
			model.SeverityInfo:    0,
			model.SeverityDebug:   0,
		},
	}

	var totalLength int
	sources := make(map[string]struct{})
	for _, ev := range snapshot {
		stats.SeverityCounts[ev.Severity]++
		totalLength += len(ev.Message)
		if ev.Source != "" {
			sources[ev.Source] = struct{}{}
		}
	}

	if len(snapshot) > 0 {
		stats.AvgMessageLength = float64(totalLength) / float64(len(snapshot))
	}
	stats.UniqueSources = len(sources)
	return stats
}
