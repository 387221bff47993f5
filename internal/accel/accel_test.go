package accel

import (
	"testing"

	"go.uber.org/zap"

	"github.com/logsift/logsift/internal/model"
)

func TestLevelFor(t *testing.T) {
	cases := []struct {
		message string
		want    int
	}{
		{"error: db down", 0},
		{"Unhandled EXCEPTION", 0},
		{"request failed", 0},
		{"worker crash", 0},
		{"warn: slow", -1},
		{"connection timeout", -1},
		{"info: started", 2},
		{"debug: cache miss", 2},
		{"", 2},
	}
	for _, tc := range cases {
		if got := LevelFor(tc.message); got != tc.want {
			t.Errorf("LevelFor(%q) = %d, want %d", tc.message, got, tc.want)
		}
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	c := Load("", zap.NewNop())
	if c.Available() {
		t.Error("empty path should select the unavailable variant")
	}
	if err := c.Classify(model.LogEvent{Message: "error: x"}); err != nil {
		t.Errorf("unavailable variant must be a no-op, got %v", err)
	}
}

func TestLoad_BadPath(t *testing.T) {
	c := Load("/no/such/module.so", zap.NewNop())
	if c.Available() {
		t.Error("a failed load should select the unavailable variant")
	}
	if err := c.Classify(model.LogEvent{Message: "error: x"}); err != nil {
		t.Errorf("unavailable variant must be a no-op, got %v", err)
	}
}

func TestNative_StatusMapping(t *testing.T) {
	var gotLevel int
	c := &native{fn: func(id, timestamp, message, source string, level int) int {
		gotLevel = level
		if message == "boom" {
			return 3
		}
		return 0
	}}

	if !c.Available() {
		t.Error("native variant should report available")
	}
	if err := c.Classify(model.LogEvent{ID: "a", Message: "warn: slow"}); err != nil {
		t.Errorf("zero status should map to nil error, got %v", err)
	}
	if gotLevel != -1 {
		t.Errorf("expected level -1 passed to the module, got %d", gotLevel)
	}
	if err := c.Classify(model.LogEvent{ID: "b", Message: "boom"}); err == nil {
		t.Error("non-zero status should map to an error")
	}
}
