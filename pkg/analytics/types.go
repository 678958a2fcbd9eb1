package analytics

import "time"

// Snapshot is the result of one windowed aggregation. Durations are in
// milliseconds.
type Snapshot struct {
	Timeframe     string          `json:"timeframe"`
	WindowMinutes int             `json:"window_minutes"`
	GeneratedAt   time.Time       `json:"generated_at"`
	API           APIStats        `json:"api"`
	Database      DataAccessStats `json:"database"`
	Operations    OperationStats  `json:"operations"`
}

// APIStats summarizes API requests in the window
type APIStats struct {
	TotalRequests       int     `json:"total_requests"`
	AverageResponseTime float64 `json:"average_response_time"`
	ErrorRate           float64 `json:"error_rate"`
	// Throughput is requests per hour
	Throughput       float64         `json:"throughput"`
	P95ResponseTime  float64         `json:"p95_response_time"`
	P99ResponseTime  float64         `json:"p99_response_time"`
	SlowestEndpoints []EndpointStats `json:"slowest_endpoints"`
}

// EndpointStats is one (method, endpoint) group in the slow ranking
type EndpointStats struct {
	Method              string  `json:"method"`
	Endpoint            string  `json:"endpoint"`
	AverageResponseTime float64 `json:"average_response_time"`
	Count               int     `json:"count"`
}

// DataAccessStats summarizes storage and cache calls in the window
type DataAccessStats struct {
	TotalQueries    int            `json:"total_queries"`
	AverageDuration float64        `json:"average_duration"`
	SlowQueries     int            `json:"slow_queries"`
	Failures        int            `json:"failures"`
	ByCategory      map[string]int `json:"by_category"`
}

// OperationStats summarizes measured operations in the window
type OperationStats struct {
	Total           int            `json:"total"`
	AverageDuration float64        `json:"average_duration"`
	Errors          int            `json:"errors"`
	SuccessRate     float64        `json:"success_rate"`
	ByName          map[string]int `json:"by_name"`
}
