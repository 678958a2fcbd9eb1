package metrics

import (
	"strings"
	"time"
)

// DataAccessPrefix marks operation names that are also recorded as data access
const DataAccessPrefix = "db."

// Outcome classifies how a unit of work completed
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// OperationMetric is one measured unit of work
type OperationMetric struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Duration     time.Duration     `json:"duration"`
	Timestamp    time.Time         `json:"timestamp"`
	Outcome      Outcome           `json:"outcome"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	TraceID      string            `json:"trace_id,omitempty"`
	SpanID       string            `json:"span_id,omitempty"`
	ParentSpanID string            `json:"parent_span_id,omitempty"`
}

// APIMetric is one completed HTTP request
type APIMetric struct {
	ID           string        `json:"id"`
	Endpoint     string        `json:"endpoint"`
	Method       string        `json:"method"`
	ResponseTime time.Duration `json:"response_time"`
	StatusCode   int           `json:"status_code"`
	Timestamp    time.Time     `json:"timestamp"`
	UserID       string        `json:"user_id,omitempty"`
	IP           string        `json:"ip,omitempty"`
	UserAgent    string        `json:"user_agent,omitempty"`
	TraceID      string        `json:"trace_id,omitempty"`
}

// DataAccessMetric is one storage or cache call
type DataAccessMetric struct {
	ID          string        `json:"id"`
	Operation   string        `json:"operation"`
	Category    string        `json:"category"`
	Duration    time.Duration `json:"duration"`
	RecordCount int           `json:"record_count"`
	Timestamp   time.Time     `json:"timestamp"`
	TraceID     string        `json:"trace_id,omitempty"`
	Success     bool          `json:"success"`
	Error       string        `json:"error,omitempty"`
}

// RawMetrics is the newest slice of each collection
type RawMetrics struct {
	API         []APIMetric        `json:"api"`
	Database    []DataAccessMetric `json:"database"`
	Performance []OperationMetric  `json:"performance"`
}

// Category returns the second dot-delimited segment of a data access label,
// e.g. "users" for "db.users.find", or "unknown".
func Category(operation string) string {
	parts := strings.Split(operation, ".")
	if len(parts) < 2 || parts[1] == "" {
		return "unknown"
	}
	return parts[1]
}
