package insights

import (
	"fmt"

	"github.com/platinummonkey/beacon/pkg/config"
	"github.com/platinummonkey/beacon/pkg/dashboard"
	"github.com/platinummonkey/beacon/pkg/observability"
)

// MinHistory is the number of snapshots Generate needs and inspects
const MinHistory = 10

// Impact ranks the consequence of an insight
type Impact string

const (
	ImpactLow      Impact = "low"
	ImpactMedium   Impact = "medium"
	ImpactHigh     Impact = "high"
	ImpactCritical Impact = "critical"
)

// Insight is a heuristic prediction derived from recent snapshots
type Insight struct {
	Category       string  `json:"category"`
	Confidence     float64 `json:"confidence"`
	Timeframe      string  `json:"timeframe"`
	Prediction     string  `json:"prediction"`
	Recommendation string  `json:"recommendation"`
	Impact         Impact  `json:"impact"`
}

// History supplies recent snapshots. *dashboard.Store implements it.
type History interface {
	Recent(count int) []dashboard.Snapshot
}

// Observer counts generated insights. observability.Metrics implements it.
type Observer interface {
	ObserveInsight(category, impact string)
}

// Generator scans snapshot history for trend signals
type Generator struct {
	history    History
	thresholds *config.ThresholdStore
	logger     *observability.Logger
	observer   Observer
}

// NewGenerator creates a generator. observer and logger may be nil.
func NewGenerator(history History, thresholds *config.ThresholdStore, logger *observability.Logger, observer Observer) *Generator {
	if thresholds == nil {
		thresholds = config.NewThresholdStore(config.DefaultThresholds())
	}
	if logger == nil {
		logger = observability.Discard()
	}
	return &Generator{history: history, thresholds: thresholds, logger: logger, observer: observer}
}

// Generate returns insights for the newest MinHistory snapshots. With fewer
// snapshots it returns an empty slice.
func (g *Generator) Generate() []Insight {
	out := Evaluate(g.history.Recent(MinHistory), g.thresholds.Load())
	for _, in := range out {
		g.logger.WithFields(map[string]interface{}{
			"category":   in.Category,
			"impact":     string(in.Impact),
			"confidence": in.Confidence,
		}).Info(in.Prediction)
		if g.observer != nil {
			g.observer.ObserveInsight(in.Category, string(in.Impact))
		}
	}
	return out
}

// Evaluate applies the insight rules to window, which must hold at least
// MinHistory snapshots, oldest first. Only the newest MinHistory are used.
func Evaluate(window []dashboard.Snapshot, th config.Thresholds) []Insight {
	out := []Insight{}
	if len(window) < MinHistory {
		return out
	}
	window = window[len(window)-MinHistory:]

	var cpu, memory, response, failedLogins float64
	for _, s := range window {
		cpu += s.Performance.System.CPUUsage
		memory += s.Performance.System.MemoryUsage
		response += s.Performance.API.AverageResponseTime
		failedLogins += float64(s.Security.FailedLogins)
	}
	n := float64(len(window))
	cpu /= n
	memory /= n
	response /= n
	failedLogins /= n

	firstErr := window[0].Performance.API.ErrorRate
	lastErr := window[len(window)-1].Performance.API.ErrorRate

	if cpu > 70 {
		out = append(out, Insight{
			Category:       "capacity",
			Confidence:     0.85,
			Timeframe:      "next 2 hours",
			Prediction:     fmt.Sprintf("CPU usage averaging %.1f%% is trending toward saturation", cpu),
			Recommendation: "Scale out or reduce CPU-intensive workloads",
			Impact:         escalate(cpu > 85, ImpactHigh, ImpactCritical),
		})
	}
	if memory > 75 {
		out = append(out, Insight{
			Category:       "resource",
			Confidence:     0.80,
			Timeframe:      "next 4 hours",
			Prediction:     fmt.Sprintf("Memory usage averaging %.1f%% may lead to exhaustion", memory),
			Recommendation: "Investigate memory growth and raise limits if needed",
			Impact:         escalate(memory > 90, ImpactHigh, ImpactCritical),
		})
	}
	if response > 1000 {
		out = append(out, Insight{
			Category:       "performance",
			Confidence:     0.75,
			Timeframe:      "next hour",
			Prediction:     fmt.Sprintf("Average response time of %.0fms points to degrading performance", response),
			Recommendation: "Profile slow endpoints and review recent deployments",
			Impact:         escalate(response > 2000, ImpactMedium, ImpactHigh),
		})
	}
	if lastErr > firstErr {
		out = append(out, Insight{
			Category:       "reliability",
			Confidence:     0.70,
			Timeframe:      "next 30 minutes",
			Prediction:     fmt.Sprintf("Error rate is increasing (%.2f%% to %.2f%%)", firstErr*100, lastErr*100),
			Recommendation: "Check recent errors and failing dependencies",
			Impact:         escalate(lastErr > th.ErrorRate.Critical, ImpactMedium, ImpactHigh),
		})
	}
	if failedLogins > 10 {
		out = append(out, Insight{
			Category:       "security",
			Confidence:     0.90,
			Timeframe:      "immediate",
			Prediction:     fmt.Sprintf("Failed logins averaging %.1f per interval suggest a brute force attempt", failedLogins),
			Recommendation: "Enable rate limiting and review authentication logs",
			Impact:         escalate(failedLogins > 50, ImpactHigh, ImpactCritical),
		})
	}
	return out
}

func escalate(cond bool, normal, escalated Impact) Impact {
	if cond {
		return escalated
	}
	return normal
}
