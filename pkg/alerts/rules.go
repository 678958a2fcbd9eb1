package alerts

import (
	"fmt"
	"time"

	"github.com/platinummonkey/beacon/pkg/config"
)

// Rule is a named predicate over a snapshot. Condition and Message must be
// pure functions of the snapshot.
type Rule struct {
	ID        string
	Name      string
	Type      string
	Severity  Severity
	Cooldown  time.Duration
	Condition func(Snapshot) bool
	Message   func(Snapshot) string
}

// DefaultRules returns the stock rule set for the given thresholds
func DefaultRules(th config.Thresholds) []Rule {
	return []Rule{
		{
			ID:       "high-error-rate",
			Name:     "High Error Rate",
			Type:     "error_rate",
			Severity: SeverityCritical,
			Cooldown: 5 * time.Minute,
			Condition: func(s Snapshot) bool {
				return s.ErrorRate() > th.ErrorRate.Critical
			},
			Message: func(s Snapshot) string {
				return fmt.Sprintf("Error rate is %.2f%%, above the %.2f%% critical threshold",
					s.ErrorRate()*100, th.ErrorRate.Critical*100)
			},
		},
		{
			ID:       "slow-response",
			Name:     "Slow Response Time",
			Type:     "performance",
			Severity: SeverityHigh,
			Cooldown: 5 * time.Minute,
			Condition: func(s Snapshot) bool {
				return s.AverageResponseTime() > th.ResponseTime.Critical
			},
			Message: func(s Snapshot) string {
				return fmt.Sprintf("Average response time is %.0fms, above %.0fms",
					s.AverageResponseTime(), th.ResponseTime.Critical)
			},
		},
		{
			ID:       "high-cpu",
			Name:     "High CPU Usage",
			Type:     "resource",
			Severity: SeverityHigh,
			Cooldown: 10 * time.Minute,
			Condition: func(s Snapshot) bool {
				return s.CPUUsage() > th.CPUUsageHigh
			},
			Message: func(s Snapshot) string {
				return fmt.Sprintf("CPU usage is %.1f%%, above %.1f%%", s.CPUUsage(), th.CPUUsageHigh)
			},
		},
		{
			ID:       "system-unhealthy",
			Name:     "System Unhealthy",
			Type:     "health",
			Severity: SeverityCritical,
			Cooldown: 2 * time.Minute,
			Condition: func(s Snapshot) bool {
				return s.HealthStatus() == "unhealthy"
			},
			Message: func(s Snapshot) string {
				return "System health check reports unhealthy"
			},
		},
	}
}
