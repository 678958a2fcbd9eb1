package alerts

import (
	"errors"
	"time"
)

// ErrAlertNotFound is returned when an alert id is unknown
var ErrAlertNotFound = errors.New("alert not found")

// Severity ranks how urgent an alert is
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Alert is a raised alert. Acknowledged and Resolved are set by operators;
// concurrent updates are last write wins.
type Alert struct {
	ID             string     `json:"id"`
	RuleID         string     `json:"rule_id,omitempty"`
	Type           string     `json:"type"`
	Severity       Severity   `json:"severity"`
	Message        string     `json:"message"`
	CreatedAt      time.Time  `json:"created_at"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	Resolved       bool       `json:"resolved"`
	ResolvedBy     string     `json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// EventKind is the lifecycle step an Event reports
type EventKind string

const (
	EventTriggered    EventKind = "alert.triggered"
	EventAcknowledged EventKind = "alert.acknowledged"
	EventResolved     EventKind = "alert.resolved"
)

// Event is delivered to every subscribed Notifier
type Event struct {
	Kind      EventKind `json:"kind"`
	Alert     Alert     `json:"alert"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the view of a dashboard snapshot that rules evaluate
type Snapshot interface {
	ErrorRate() float64
	AverageResponseTime() float64
	CPUUsage() float64
	HealthStatus() string
}
