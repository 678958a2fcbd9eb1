package health

import "time"

// Status is the health of one probe or of the whole system
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Result is the outcome of a single probe
type Result struct {
	Name         string                 `json:"name"`
	Status       Status                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime time.Duration          `json:"response_time"`
	Timestamp    time.Time              `json:"timestamp"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// Summary tallies results per status
type Summary struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Degraded  int `json:"degraded"`
	Unhealthy int `json:"unhealthy"`
}

// Report is the outcome of a full probe sweep
type Report struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Results   []Result  `json:"results"`
	Summary   Summary   `json:"summary"`
}

// Aggregate reduces probe results to one status. Any unhealthy result makes
// the whole unhealthy, otherwise any degraded result makes it degraded.
// Results with an unrecognized status count as unhealthy.
func Aggregate(results []Result) Status {
	overall := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusHealthy:
		case StatusDegraded:
			overall = StatusDegraded
		default:
			return StatusUnhealthy
		}
	}
	return overall
}

// Summarize counts results per status
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusHealthy:
			s.Healthy++
		case StatusDegraded:
			s.Degraded++
		default:
			s.Unhealthy++
		}
	}
	return s
}
