package engine

import (
	"strings"

	"github.com/logsift/logsift/internal/model"
)

// Keyword groups evaluated in priority order. The first group with a match
// decides the severity.
var (
	errorKeywords   = []string{"error", "exception", "fail", "crash"}
	warningKeywords = []string{"warn", "timeout"}
)

// Classify maps a message to a severity by case-insensitive keyword
// containment. Pure and deterministic; an empty message classifies as info.
func Classify(message string) model.Severity {
	if message == "" {
		return model.SeverityInfo
	}

	m := strings.ToLower(message)

	if containsAny(m, errorKeywords) {
		return model.SeverityError
	}
	if containsAny(m, warningKeywords) {
		return model.SeverityWarning
	}
	if strings.Contains(m, "debug") {
		return model.SeverityDebug
	}
	return model.SeverityInfo
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
