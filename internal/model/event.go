package model

import "time"

// Severity is the derived level of a log event, computed once at ingestion.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityDebug   Severity = "debug"
	SeverityInfo    Severity = "info"
)

// LogEvent is a single ingested structured log record.
// ID and Severity are assigned by the pipeline and never change afterwards.
type LogEvent struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source,omitempty"`
	Message   string    `json:"message"`
	User      string    `json:"user,omitempty"`
	RequestID string    `json:"requestId,omitempty"`
	Severity  Severity  `json:"severity"`
}

// IngestResult is returned to the caller after a log event has been processed.
// Scored is false when the anomaly scorer was unavailable for this event.
type IngestResult struct {
	ID           string   `json:"id"`
	Severity     Severity `json:"severity"`
	AnomalyScore float64  `json:"anomalyScore"`
	Scored       bool     `json:"scored"`
	AlertID      string   `json:"alertId,omitempty"`
}

// Stats is a point-in-time aggregate over the retention window.
type Stats struct {
	TotalEvents      int              `json:"totalEvents"`
	SeverityCounts   map[Severity]int `json:"severityCounts"`
	AvgMessageLength float64          `json:"avgMessageLength"`
	UniqueSources    int              `json:"uniqueSources"`
}
