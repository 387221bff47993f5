// Package accel models the optional native classification offload as a
// two-variant capability: Available forwards calls to a loaded native module,
// Unavailable is a no-op. The variant is selected once at startup; callers
// never branch on load state per call, and a failing offload is never fatal.
package accel

import (
	"fmt"
	"plugin"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/logsift/logsift/internal/model"
)

// processFunc is the symbol signature the native module must export as
// "ProcessLogEntry". A zero status means success.
type processFunc = func(id, timestamp, message, source string, level int) int

// Classifier is the offload capability handed to the pipeline.
type Classifier interface {
	// Classify offloads one event. A non-nil error means the offload failed
	// and the keyword classifier result stands.
	Classify(ev model.LogEvent) error
	// Available reports which variant was selected at startup.
	Available() bool
}

// Load selects the capability. An empty path, a load failure or a missing
// symbol all yield the Unavailable variant; the pipeline runs the same
// either way.
func Load(path string, logger *zap.Logger) Classifier {
	if path == "" {
		logger.Info("native accelerator not configured, running without offload")
		return unavailable{}
	}

	p, err := plugin.Open(path)
	if err != nil {
		logger.Warn("native accelerator failed to load, running without offload",
			zap.String("path", path), zap.Error(err))
		return unavailable{}
	}

	sym, err := p.Lookup("ProcessLogEntry")
	if err != nil {
		logger.Warn("native accelerator missing ProcessLogEntry symbol",
			zap.String("path", path), zap.Error(err))
		return unavailable{}
	}
	fn, ok := sym.(processFunc)
	if !ok {
		logger.Warn("native accelerator exports ProcessLogEntry with wrong signature",
			zap.String("path", path))
		return unavailable{}
	}

	logger.Info("native accelerator loaded", zap.String("path", path))
	return &native{fn: fn}
}

type unavailable struct{}

func (unavailable) Classify(model.LogEvent) error { return nil }
func (unavailable) Available() bool               { return false }

type native struct {
	fn processFunc
}

func (n *native) Classify(ev model.LogEvent) error {
	status := n.fn(ev.ID, ev.Timestamp.Format(time.RFC3339), ev.Message, ev.Source, LevelFor(ev.Message))
	if status != 0 {
		return fmt.Errorf("native classifier returned status %d", status)
	}
	return nil
}

func (n *native) Available() bool { return true }

// LevelFor maps a message to the native module's level encoding: 0 for
// error-class messages, -1 for warnings, 2 otherwise. Note this deliberately
// differs from engine.Classify: the native encoding has no debug level and
// an empty message maps to 2, the module's catch-all default.
func LevelFor(message string) int {
	if message == "" {
		return 2
	}
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "error"), strings.Contains(m, "exception"),
		strings.Contains(m, "fail"), strings.Contains(m, "crash"):
		return 0
	case strings.Contains(m, "warn"), strings.Contains(m, "timeout"):
		return -1
	default:
		return 2
	}
}
