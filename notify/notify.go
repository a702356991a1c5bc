package notify

import (
	"context"
	"time"
)

// EventType represents the kind of enrichment event.
type EventType string

// Event type constants.
const (
	EventEnhancerFailed   EventType = "enhancer_failed"
	EventConflictDetected EventType = "conflict_detected"
)

// Severity constants for notifications.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Event describes something noteworthy that happened while enriching a
// response.
type Event struct {
	Type EventType `json:"type"`
	// RunID is the session ID of the enrichment run, if known.
	RunID     string         `json:"run_id,omitempty"`
	Enhancer  string         `json:"enhancer,omitempty"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Notifier sends notifications about enrichment events.
type Notifier interface {
	// Notify sends a notification. Callers log failures and carry on.
	Notify(ctx context.Context, event Event) error
}
