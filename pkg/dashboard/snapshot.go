package dashboard

import (
	"time"

	"github.com/platinummonkey/beacon/pkg/alerts"
	"github.com/platinummonkey/beacon/pkg/analytics"
	"github.com/platinummonkey/beacon/pkg/health"
)

// Snapshot is one point-in-time composite of health, performance,
// business and security metrics plus the alerts active when it was taken.
// Snapshots are never modified after they are appended to a Store.
type Snapshot struct {
	Timestamp   time.Time       `json:"timestamp"`
	Health      HealthBlock     `json:"health"`
	Performance Performance     `json:"performance"`
	Business    BusinessMetrics `json:"business"`
	Security    SecurityMetrics `json:"security"`
	Alerts      []alerts.Alert  `json:"alerts"`
}

// HealthBlock is the health sweep embedded in a snapshot
type HealthBlock struct {
	Status  health.Status   `json:"status"`
	Results []health.Result `json:"results"`
	Summary health.Summary  `json:"summary"`
}

// Performance groups the API, data access and system figures
type Performance struct {
	API      analytics.APIStats        `json:"api"`
	Database analytics.DataAccessStats `json:"database"`
	System   SystemMetrics             `json:"system"`
}

// SystemMetrics describes host and process resource usage. Percentages are
// 0-100.
type SystemMetrics struct {
	CPUUsage    float64       `json:"cpu_usage"`
	MemoryUsage float64       `json:"memory_usage"`
	ProcessRSS  uint64        `json:"process_rss"`
	HeapAlloc   uint64        `json:"heap_alloc"`
	Goroutines  int           `json:"goroutines"`
	Uptime      time.Duration `json:"uptime"`
}

// BusinessMetrics are application counters for the collection interval
type BusinessMetrics struct {
	ActiveUsers  int64   `json:"active_users"`
	Signups      int64   `json:"signups"`
	Transactions int64   `json:"transactions"`
	Revenue      float64 `json:"revenue"`
}

// SecurityMetrics are security counters for the collection interval
type SecurityMetrics struct {
	FailedLogins       int64 `json:"failed_logins"`
	BlockedRequests    int64 `json:"blocked_requests"`
	SuspiciousActivity int64 `json:"suspicious_activity"`
}

// ErrorRate returns the API error rate
func (s Snapshot) ErrorRate() float64 { return s.Performance.API.ErrorRate }

// AverageResponseTime returns the mean API response time in milliseconds
func (s Snapshot) AverageResponseTime() float64 { return s.Performance.API.AverageResponseTime }

// CPUUsage returns the CPU usage percentage
func (s Snapshot) CPUUsage() float64 { return s.Performance.System.CPUUsage }

// MemoryUsage returns the memory usage percentage
func (s Snapshot) MemoryUsage() float64 { return s.Performance.System.MemoryUsage }

// HealthStatus returns the overall health status
func (s Snapshot) HealthStatus() string { return string(s.Health.Status) }

var _ alerts.Snapshot = Snapshot{}
