package engine

import (
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/logsift/logsift/internal/model"
)

func makeAlert(i int) model.Alert {
	return model.Alert{
		ID:           fmt.Sprintf("alert-%d", i),
		LogID:        fmt.Sprintf("evt-%d", i),
		Timestamp:    time.Unix(int64(1_700_000_000+i), 0).UTC(),
		Message:      fmt.Sprintf("Anomaly detected in log evt-%d", i),
		Severity:     model.AlertSeverityMedium,
		AnomalyScore: 0.8,
	}
}

func newTestAlertService(capacity int) (*AlertService, *AlertStore) {
	store := NewAlertStore(capacity)
	return NewAlertService(store, zap.NewNop()), store
}

func TestAlertStore_Bound(t *testing.T) {
	const capacity = 100
	_, store := newTestAlertService(capacity)

	for i := 0; i < capacity+5; i++ {
		store.Append(makeAlert(i))
	}

	if store.Len() != capacity {
		t.Fatalf("expected size %d, got %d", capacity, store.Len())
	}
	snap := store.snapshot()
	if snap[0].ID != "alert-5" {
		t.Errorf("oldest retained should be alert-5, got %s", snap[0].ID)
	}
}

func TestAlertService_AcknowledgeIdempotent(t *testing.T) {
	svc, store := newTestAlertService(10)
	store.Append(makeAlert(1))

	if svc.Acknowledge("no-such-id") {
		t.Error("unknown id should return false")
	}

	if !svc.Acknowledge("alert-1") {
		t.Fatal("first acknowledge of known id should return true")
	}
	first := store.snapshot()[0]
	if !first.Acknowledged {
		t.Error("alert should be acknowledged")
	}
	if first.AcknowledgedAt == nil {
		t.Fatal("acknowledgedAt should be set on first acknowledge")
	}

	ackedAt := *first.AcknowledgedAt
	time.Sleep(5 * time.Millisecond)
	if !svc.Acknowledge("alert-1") {
		t.Fatal("second acknowledge of known id should still return true")
	}
	second := store.snapshot()[0]
	if !second.AcknowledgedAt.Equal(ackedAt) {
		t.Error("acknowledgedAt must not change on re-acknowledge")
	}
}

func TestAlertService_ListFilterAndOrder(t *testing.T) {
	svc, store := newTestAlertService(10)
	for i := 0; i < 5; i++ {
		store.Append(makeAlert(i))
	}
	svc.Acknowledge("alert-2")

	unacked := false
	got := svc.List(AlertFilter{Acknowledged: &unacked}, 10)
	if len(got) != 4 {
		t.Fatalf("expected 4 unacknowledged alerts, got %d", len(got))
	}
	// Newest first.
	for i := 1; i < len(got); i++ {
		if got[i].Timestamp.After(got[i-1].Timestamp) {
			t.Fatal("list is not sorted by timestamp descending")
		}
	}
	for _, a := range got {
		if a.ID == "alert-2" {
			t.Error("acknowledged alert should be filtered out")
		}
	}

	acked := true
	got = svc.List(AlertFilter{Acknowledged: &acked}, 10)
	if len(got) != 1 || got[0].ID != "alert-2" {
		t.Errorf("expected only alert-2 acknowledged, got %v", got)
	}

	// No filter matches everything; limit truncates.
	got = svc.List(AlertFilter{}, 3)
	if len(got) != 3 {
		t.Errorf("expected limit to truncate to 3, got %d", len(got))
	}
	if got[0].ID != "alert-4" {
		t.Errorf("expected newest alert first, got %s", got[0].ID)
	}
}

func TestAlertService_ListDefaultLimit(t *testing.T) {
	svc, store := newTestAlertService(50)
	for i := 0; i < 20; i++ {
		store.Append(makeAlert(i))
	}
	if got := svc.List(AlertFilter{}, 0); len(got) != DefaultAlertListLimit {
		t.Errorf("expected default limit %d, got %d", DefaultAlertListLimit, len(got))
	}
}
