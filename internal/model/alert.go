package model

import "time"

// AlertSeverity grades how far past the anomaly threshold an event scored.
type AlertSeverity string

const (
	AlertSeverityHigh   AlertSeverity = "High"
	AlertSeverityMedium AlertSeverity = "Medium"
)

// Alert is derived from a log event whose anomaly score crossed the threshold.
// LogID is a weak reference: the underlying event may already have been
// evicted from the retention window.
type Alert struct {
	ID             string        `json:"id"`
	LogID          string        `json:"logId"`
	Timestamp      time.Time     `json:"timestamp"`
	Message        string        `json:"message"`
	Severity       AlertSeverity `json:"severity"`
	AnomalyScore   float64       `json:"anomalyScore"`
	Acknowledged   bool          `json:"acknowledged"`
	AcknowledgedAt *time.Time    `json:"acknowledgedAt,omitempty"`
}
