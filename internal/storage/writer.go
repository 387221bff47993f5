package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/logsift/logsift/internal/model"
)

// EventWriter persists one file per event, named <id>.json, holding the
// canonical JSON serialization including the assigned id and timestamp.
// Durability here is best-effort by default; the pipeline decides whether a
// failed write aborts the call.
type EventWriter struct {
	dir    string
	logger *zap.Logger
}

// NewEventWriter creates the data directory if needed.
func NewEventWriter(dir string, logger *zap.Logger) (*EventWriter, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &EventWriter{dir: dir, logger: logger}, nil
}

// Persist writes the canonical event record.
func (w *EventWriter) Persist(ev model.LogEvent) error {
	data, err := json.MarshalIndent(ev, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(w.dir, ev.ID+".json")
	return os.WriteFile(path, data, 0644)
}

// Dir returns the directory event records are written to.
func (w *EventWriter) Dir() string { return w.dir }
