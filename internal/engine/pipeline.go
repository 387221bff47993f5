package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/logsift/logsift/internal/metrics"
	"github.com/logsift/logsift/internal/model"
)

// Persister writes the canonical event representation to durable storage.
type Persister interface {
	Persist(ev model.LogEvent) error
}

// Accelerator is the optional native classification offload. The unavailable
// variant is a no-op, so callers never branch on load state.
type Accelerator interface {
	Classify(ev model.LogEvent) error
}

// Scorer asks the external anomaly scorer for a score in [0,1].
type Scorer interface {
	Score(ctx context.Context, ev model.LogEvent) (float64, error)
}

// SourceTracker records which upstream sources have been seen.
type SourceTracker interface {
	Observe(name string, ts time.Time)
}

// PipelineConfig holds the alert thresholds and the persistence policy.
type PipelineConfig struct {
	// AlertThreshold derives an alert when the score is strictly above it.
	AlertThreshold float64
	// HighThreshold upgrades the alert severity when the score is strictly
	// above it.
	HighThreshold float64
	// FailClosed rejects the event when the durable write fails. The default
	// is fail-open: durability is best-effort, recency is guaranteed.
	FailClosed bool
}

// DefaultPipelineConfig matches the documented threshold semantics:
// score > 0.7 alerts, score > 0.9 is High.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		AlertThreshold: 0.7,
		HighThreshold:  0.9,
	}
}

// Pipeline owns the ingestion path: validate, assign identity, persist,
// retain, offload classification, score, and derive alerts. Only a
// ValidationError (or a PersistenceError under fail-closed policy) aborts a
// call; collaborator failures degrade the result instead.
type Pipeline struct {
	cfg       PipelineConfig
	retention *RetentionStore
	alerts    *AlertStore
	persister Persister
	accel     Accelerator
	scorer    Scorer
	sources   SourceTracker
	logger    *zap.Logger
}

// NewPipeline wires the ingestion path. persister, accel, scorer and sources
// may be nil, which disables the respective step.
func NewPipeline(cfg PipelineConfig, retention *RetentionStore, alerts *AlertStore,
	persister Persister, accel Accelerator, scorer Scorer, sources SourceTracker,
	logger *zap.Logger) *Pipeline {

	if cfg.AlertThreshold == 0 && cfg.HighThreshold == 0 {
		cfg = DefaultPipelineConfig()
	}
	return &Pipeline{
		cfg:       cfg,
		retention: retention,
		alerts:    alerts,
		persister: persister,
		accel:     accel,
		scorer:    scorer,
		sources:   sources,
		logger:    logger,
	}
}

// Process ingests one raw event and returns the composite result.
func (p *Pipeline) Process(ctx context.Context, raw model.LogEvent) (model.IngestResult, error) {
	// Step 1: validation is the only terminal failure; nothing is stored.
	if strings.TrimSpace(raw.Message) == "" {
		metrics.ValidationRejects.Inc()
		return model.IngestResult{}, &ValidationError{Field: "message"}
	}

	// Step 2: identity, timestamp default, one-time classification.
	ev := raw
	ev.ID = uuid.NewString()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	ev.Severity = Classify(ev.Message)

	// Step 3: durable write, best-effort unless fail-closed.
	if p.persister != nil {
		if err := p.persister.Persist(ev); err != nil {
			metrics.PersistenceFailures.Inc()
			perr := &PersistenceError{ID: ev.ID, Err: err}
			if p.cfg.FailClosed {
				return model.IngestResult{}, perr
			}
			p.logger.Warn("durable write failed, keeping event in memory",
				zap.String("event_id", ev.ID), zap.Error(err))
		}
	}

	// Step 4: retention append. This is the commit point for the event.
	p.retention.Append(ev)
	metrics.EventsIngested.WithLabelValues(string(ev.Severity)).Inc()
	if p.sources != nil && ev.Source != "" {
		p.sources.Observe(ev.Source, ev.Timestamp)
	}

	// Step 5: native offload. Any error falls back to the keyword result.
	if p.accel != nil {
		if err := p.accel.Classify(ev); err != nil {
			metrics.CollaboratorFailures.WithLabelValues("accelerator").Inc()
			p.logger.Debug("native accelerator fallback",
				zap.String("event_id", ev.ID), zap.Error(err))
		}
	}

	result := model.IngestResult{ID: ev.ID, Severity: ev.Severity}

	// Step 6: anomaly scoring. Failure means no alert for this event.
	if p.scorer == nil {
		return result, nil
	}
	start := time.Now()
	score, err := p.scorer.Score(ctx, ev)
	metrics.ScorerLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CollaboratorFailures.WithLabelValues("scorer").Inc()
		p.logger.Warn("anomaly scorer unavailable, event retained without alert",
			zap.String("event_id", ev.ID), zap.Error(err))
		return result, nil
	}
	result.Scored = true
	result.AnomalyScore = score

	// Step 7: alert derivation. Thresholds are strict.
	if score > p.cfg.AlertThreshold {
		severity := model.AlertSeverityMedium
		if score > p.cfg.HighThreshold {
			severity = model.AlertSeverityHigh
		}
		alert := model.Alert{
			ID:           uuid.NewString(),
			LogID:        ev.ID,
			Timestamp:    time.Now().UTC(),
			Message:      fmt.Sprintf("Anomaly detected in log %s", ev.ID),
			Severity:     severity,
			AnomalyScore: score,
		}
		p.alerts.Append(alert)
		result.AlertID = alert.ID
		metrics.AlertsCreated.WithLabelValues(string(severity)).Inc()
		p.logger.Info("alert created",
			zap.String("alert_id", alert.ID),
			zap.String("event_id", ev.ID),
			zap.Float64("anomaly_score", score),
			zap.String("severity", string(severity)))
	}

	return result, nil
}
