package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline and store metrics, exposed on /metrics.
var (
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logsift_events_ingested_total",
			Help: "Total number of log events accepted into the retention store",
		},
		[]string{"severity"},
	)

	ValidationRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logsift_validation_rejects_total",
			Help: "Total number of ingest requests rejected by validation",
		},
	)

	PersistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logsift_persistence_failures_total",
			Help: "Total number of failed durable writes",
		},
	)

	CollaboratorFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logsift_collaborator_failures_total",
			Help: "Total number of collaborator calls that failed or timed out",
		},
		[]string{"collaborator"}, // accelerator, scorer
	)

	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logsift_alerts_created_total",
			Help: "Total number of alerts derived from anomaly scores",
		},
		[]string{"severity"},
	)

	AlertsAcknowledged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "logsift_alerts_acknowledged_total",
			Help: "Total number of alert acknowledgments",
		},
	)

	StoreEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logsift_store_evictions_total",
			Help: "Total number of records evicted from bounded stores",
		},
		[]string{"store"}, // retention, alerts
	)

	ScorerLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "logsift_scorer_latency_seconds",
			Help:    "Anomaly scorer round-trip latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)
)
