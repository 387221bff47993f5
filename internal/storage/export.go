package storage

import (
	"encoding/json"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/logsift/logsift/internal/model"
)

// WriteArchive streams the given events as gzip-compressed NDJSON, newest
// first. Events arrive in insertion order (oldest first), so the slice is
// walked backwards.
func WriteArchive(w io.Writer, events []model.LogEvent) error {
	zw := gzip.NewWriter(w)
	enc := json.NewEncoder(zw)

	for i := len(events) - 1; i >= 0; i-- {
		if err := enc.Encode(events[i]); err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}
