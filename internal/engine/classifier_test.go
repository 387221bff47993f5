package engine

import (
	"testing"

	"github.com/logsift/logsift/internal/model"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		message string
		want    model.Severity
	}{
		{"error: db down", model.SeverityError},
		{"Unhandled EXCEPTION in handler", model.SeverityError},
		{"request failed", model.SeverityError},
		{"process crash detected", model.SeverityError},
		{"warn: slow", model.SeverityWarning},
		{"connection TIMEOUT after 30s", model.SeverityWarning},
		{"debug: cache miss", model.SeverityDebug},
		{"info: started", model.SeverityInfo},
		{"user logged in", model.SeverityInfo},
		{"", model.SeverityInfo},
	}

	for _, tc := range cases {
		if got := Classify(tc.message); got != tc.want {
			t.Errorf("Classify(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

// Error keywords win even when a lower-priority keyword also matches.
func TestClassify_PriorityOrder(t *testing.T) {
	if got := Classify("warning: request failed"); got != model.SeverityError {
		t.Errorf("expected error to take priority over warning, got %q", got)
	}
	if got := Classify("debug: connection timeout"); got != model.SeverityWarning {
		t.Errorf("expected warning to take priority over debug, got %q", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for i := 0; i < 100; i++ {
		if got := Classify("Fatal ERROR in worker"); got != model.SeverityError {
			t.Fatalf("classification changed between calls: %q", got)
		}
	}
}
