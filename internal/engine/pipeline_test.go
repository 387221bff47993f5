package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/logsift/logsift/internal/model"
)

type stubPersister struct {
	err    error
	events []model.LogEvent
}

func (s *stubPersister) Persist(ev model.LogEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, ev)
	return nil
}

type stubScorer struct {
	score float64
	err   error
	calls int
}

func (s *stubScorer) Score(_ context.Context, _ model.LogEvent) (float64, error) {
	s.calls++
	return s.score, s.err
}

type stubAccel struct {
	err   error
	calls int
}

func (s *stubAccel) Classify(_ model.LogEvent) error {
	s.calls++
	return s.err
}

type pipelineFixture struct {
	pipeline  *Pipeline
	retention *RetentionStore
	alerts    *AlertStore
}

func newPipelineFixture(cfg PipelineConfig, persister Persister, accel Accelerator, scorer Scorer) pipelineFixture {
	retention := NewRetentionStore(100)
	alerts := NewAlertStore(100)
	return pipelineFixture{
		pipeline:  NewPipeline(cfg, retention, alerts, persister, accel, scorer, nil, zap.NewNop()),
		retention: retention,
		alerts:    alerts,
	}
}

func TestPipeline_RejectsEmptyMessage(t *testing.T) {
	f := newPipelineFixture(PipelineConfig{}, nil, nil, nil)

	for _, msg := range []string{"", "   ", "\t\n"} {
		_, err := f.pipeline.Process(context.Background(), model.LogEvent{Message: msg})
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Process(%q): expected ValidationError, got %v", msg, err)
		}
	}
	if f.retention.Len() != 0 {
		t.Error("rejected events must not be retained")
	}
}

func TestPipeline_AssignsIdentityAndDefaults(t *testing.T) {
	f := newPipelineFixture(PipelineConfig{}, nil, nil, nil)
	before := time.Now().UTC()

	res, err := f.pipeline.Process(context.Background(), model.LogEvent{Message: "error: db down"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID == "" {
		t.Error("expected a generated id")
	}
	if res.Severity != model.SeverityError {
		t.Errorf("expected classified severity error, got %q", res.Severity)
	}

	snap := f.retention.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 retained event, got %d", len(snap))
	}
	if snap[0].ID != res.ID {
		t.Error("retained event id should match the result id")
	}
	if snap[0].Timestamp.Before(before) {
		t.Error("default timestamp should be assignment time")
	}

	// A caller-supplied timestamp is preserved.
	ts := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	if _, err := f.pipeline.Process(context.Background(), model.LogEvent{Message: "info: ok", Timestamp: ts}); err != nil {
		t.Fatal(err)
	}
	snap = f.retention.Snapshot()
	if !snap[1].Timestamp.Equal(ts) {
		t.Errorf("caller timestamp overwritten: got %v", snap[1].Timestamp)
	}
}

func TestPipeline_AlertThresholds(t *testing.T) {
	cases := []struct {
		score        float64
		wantAlert    bool
		wantSeverity model.AlertSeverity
	}{
		{0.50, false, ""},
		{0.70, false, ""}, // boundary: strict comparison
		{0.71, true, model.AlertSeverityMedium},
		{0.90, true, model.AlertSeverityMedium}, // boundary: strict comparison
		{0.95, true, model.AlertSeverityHigh},
	}

	for _, tc := range cases {
		f := newPipelineFixture(PipelineConfig{}, nil, nil, &stubScorer{score: tc.score})
		res, err := f.pipeline.Process(context.Background(), model.LogEvent{Message: "payment failed"})
		if err != nil {
			t.Fatal(err)
		}
		if !res.Scored || res.AnomalyScore != tc.score {
			t.Errorf("score %v: result not scored correctly: %+v", tc.score, res)
		}

		alerts := f.alerts.snapshot()
		if tc.wantAlert {
			if len(alerts) != 1 {
				t.Fatalf("score %v: expected one alert, got %d", tc.score, len(alerts))
			}
			a := alerts[0]
			if a.Severity != tc.wantSeverity {
				t.Errorf("score %v: expected severity %s, got %s", tc.score, tc.wantSeverity, a.Severity)
			}
			if a.LogID != res.ID {
				t.Error("alert should reference the triggering event")
			}
			if a.Message != "Anomaly detected in log "+res.ID {
				t.Errorf("unexpected alert message: %q", a.Message)
			}
			if res.AlertID != a.ID {
				t.Error("result should carry the alert id")
			}
		} else {
			if len(alerts) != 0 {
				t.Errorf("score %v: expected no alert, got %d", tc.score, len(alerts))
			}
			if res.AlertID != "" {
				t.Errorf("score %v: result should not carry an alert id", tc.score)
			}
		}
	}
}

func TestPipeline_ScorerFailureDegrades(t *testing.T) {
	scorer := &stubScorer{err: ErrCollaboratorUnavailable}
	f := newPipelineFixture(PipelineConfig{}, nil, nil, scorer)

	res, err := f.pipeline.Process(context.Background(), model.LogEvent{Message: "error: boom"})
	if err != nil {
		t.Fatalf("scorer failure must not fail ingestion: %v", err)
	}
	if res.Scored {
		t.Error("result should not claim a score after scorer failure")
	}
	if f.retention.Len() != 1 {
		t.Error("event should be retained despite scorer failure")
	}
	if len(f.alerts.snapshot()) != 0 {
		t.Error("no alert should be derived without a score")
	}
}

func TestPipeline_AcceleratorFailureFallsBack(t *testing.T) {
	accel := &stubAccel{err: ErrCollaboratorUnavailable}
	f := newPipelineFixture(PipelineConfig{}, nil, accel, nil)

	res, err := f.pipeline.Process(context.Background(), model.LogEvent{Message: "connection timeout"})
	if err != nil {
		t.Fatalf("accelerator failure must not fail ingestion: %v", err)
	}
	if accel.calls != 1 {
		t.Errorf("expected one accelerator call, got %d", accel.calls)
	}
	if res.Severity != model.SeverityWarning {
		t.Errorf("keyword severity should survive accelerator failure, got %q", res.Severity)
	}
}

func TestPipeline_PersistenceFailOpen(t *testing.T) {
	persister := &stubPersister{err: errors.New("disk full")}
	f := newPipelineFixture(PipelineConfig{}, persister, nil, nil)

	_, err := f.pipeline.Process(context.Background(), model.LogEvent{Message: "info: ok"})
	if err != nil {
		t.Fatalf("fail-open should swallow the persistence error: %v", err)
	}
	if f.retention.Len() != 1 {
		t.Error("fail-open should still retain the event")
	}
}

func TestPipeline_PersistenceFailClosed(t *testing.T) {
	persister := &stubPersister{err: errors.New("disk full")}
	cfg := DefaultPipelineConfig()
	cfg.FailClosed = true
	f := newPipelineFixture(cfg, persister, nil, nil)

	_, err := f.pipeline.Process(context.Background(), model.LogEvent{Message: "info: ok"})
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if f.retention.Len() != 0 {
		t.Error("fail-closed must not retain the event")
	}
}

func TestPipeline_PersistReceivesEnrichedEvent(t *testing.T) {
	persister := &stubPersister{}
	f := newPipelineFixture(PipelineConfig{}, persister, nil, nil)

	_, err := f.pipeline.Process(context.Background(), model.LogEvent{Message: "error: db down", Source: "api"})
	if err != nil {
		t.Fatal(err)
	}
	if len(persister.events) != 1 {
		t.Fatalf("expected one persisted event, got %d", len(persister.events))
	}
	got := persister.events[0]
	if got.ID == "" || got.Severity != model.SeverityError || got.Timestamp.IsZero() {
		t.Errorf("persisted event missing enrichment: %+v", got)
	}
}
