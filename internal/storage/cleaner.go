package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RunCleaner periodically removes persisted event records older than the
// retention duration. Runs until the context is cancelled. A retention of
// zero disables the sweep.
func (w *EventWriter) RunCleaner(ctx context.Context, interval, retention time.Duration) {
	if retention <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("event file cleaner started",
		zap.Duration("retention", retention), zap.Duration("interval", interval))

	for {
		select {
		case <-ticker.C:
			w.purgeExpired(retention)
		case <-ctx.Done():
			return
		}
	}
}

func (w *EventWriter) purgeExpired(retention time.Duration) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		w.logger.Warn("cleaner failed to read data dir", zap.Error(err))
		return
	}

	threshold := time.Now().Add(-retention)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(threshold) {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			w.logger.Warn("cleaner failed to delete expired record",
				zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		w.logger.Info("expired event records deleted", zap.Int("count", removed))
	}
}
