package engine

import (
	"errors"
	"fmt"
)

// ErrCollaboratorUnavailable marks a failed or timed-out collaborator call
// (native accelerator or anomaly scorer). The pipeline degrades gracefully
// and never returns it to the ingest caller.
var ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

// ValidationError rejects an event before any state mutation.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid log event: %s is required", e.Field)
}

// PersistenceError reports a failed durable write. Non-fatal to the pipeline
// unless fail-closed persistence is configured.
type PersistenceError struct {
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("durable write failed for event %s: %v", e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
