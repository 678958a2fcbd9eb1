package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/platinummonkey/beacon/pkg/config"
	"github.com/platinummonkey/beacon/pkg/metrics"
)

// slowEndpointLimit caps the slow endpoint ranking
const slowEndpointLimit = 10

// MetricSource supplies the metric history to aggregate. *metrics.Recorder
// implements it.
type MetricSource interface {
	APIMetrics() []metrics.APIMetric
	DataAccessMetrics() []metrics.DataAccessMetric
	OperationMetrics() []metrics.OperationMetric
}

// Aggregator computes windowed statistics over a MetricSource
type Aggregator struct {
	source     MetricSource
	thresholds *config.ThresholdStore
	now        func() time.Time
}

// NewAggregator creates a new aggregator. A nil store uses the default
// thresholds.
func NewAggregator(source MetricSource, thresholds *config.ThresholdStore) *Aggregator {
	if thresholds == nil {
		thresholds = config.NewThresholdStore(config.DefaultThresholds())
	}
	return &Aggregator{source: source, thresholds: thresholds, now: time.Now}
}

// Analyze aggregates the last windowMinutes of metrics ending now
func (a *Aggregator) Analyze(windowMinutes int) Snapshot {
	return a.AnalyzeAt(a.now(), windowMinutes)
}

// AnalyzeAt aggregates the metrics with a timestamp in [now-window, now].
// A window below one minute is treated as one minute. The result depends
// only on the metric set, now, the window and the thresholds.
func (a *Aggregator) AnalyzeAt(now time.Time, windowMinutes int) Snapshot {
	if windowMinutes < 1 {
		windowMinutes = 1
	}
	since := now.Add(-time.Duration(windowMinutes) * time.Minute)
	th := a.thresholds.Load()

	return Snapshot{
		Timeframe:     fmt.Sprintf("%dm", windowMinutes),
		WindowMinutes: windowMinutes,
		GeneratedAt:   now,
		API:           apiStats(filterAPI(a.source.APIMetrics(), since, now), windowMinutes),
		Database:      dataAccessStats(filterDataAccess(a.source.DataAccessMetrics(), since, now), th.DataAccessWarning()),
		Operations:    operationStats(filterOperations(a.source.OperationMetrics(), since, now)),
	}
}

func inWindow(ts, since, now time.Time) bool {
	return !ts.Before(since) && !ts.After(now)
}

func filterAPI(list []metrics.APIMetric, since, now time.Time) []metrics.APIMetric {
	out := make([]metrics.APIMetric, 0, len(list))
	for _, m := range list {
		if inWindow(m.Timestamp, since, now) {
			out = append(out, m)
		}
	}
	return out
}

func filterDataAccess(list []metrics.DataAccessMetric, since, now time.Time) []metrics.DataAccessMetric {
	out := make([]metrics.DataAccessMetric, 0, len(list))
	for _, m := range list {
		if inWindow(m.Timestamp, since, now) {
			out = append(out, m)
		}
	}
	return out
}

func filterOperations(list []metrics.OperationMetric, since, now time.Time) []metrics.OperationMetric {
	out := make([]metrics.OperationMetric, 0, len(list))
	for _, m := range list {
		if inWindow(m.Timestamp, since, now) {
			out = append(out, m)
		}
	}
	return out
}

func apiStats(list []metrics.APIMetric, windowMinutes int) APIStats {
	stats := APIStats{SlowestEndpoints: []EndpointStats{}}
	if len(list) == 0 {
		return stats
	}

	type group struct {
		method, endpoint string
		total            float64
		count            int
	}
	var (
		sum    float64
		failed int
		order  []string
		groups = make(map[string]*group)
	)
	for _, m := range list {
		ms := millis(m.ResponseTime)
		sum += ms
		if m.StatusCode >= 400 {
			failed++
		}
		key := m.Method + " " + m.Endpoint
		g, ok := groups[key]
		if !ok {
			g = &group{method: m.Method, endpoint: m.Endpoint}
			groups[key] = g
			order = append(order, key)
		}
		g.total += ms
		g.count++
	}

	total := len(list)
	stats.TotalRequests = total
	stats.AverageResponseTime = sum / float64(total)
	stats.ErrorRate = float64(failed) / float64(total)
	stats.Throughput = float64(total) / (float64(windowMinutes) / 60)
	stats.P95ResponseTime = Percentile(stats.AverageResponseTime, 95)
	stats.P99ResponseTime = Percentile(stats.AverageResponseTime, 99)

	ranked := make([]EndpointStats, 0, len(order))
	for _, key := range order {
		g := groups[key]
		ranked = append(ranked, EndpointStats{
			Method:              g.method,
			Endpoint:            g.endpoint,
			AverageResponseTime: g.total / float64(g.count),
			Count:               g.count,
		})
	}
	// Stable so equal means keep first-seen order
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AverageResponseTime > ranked[j].AverageResponseTime
	})
	if len(ranked) > slowEndpointLimit {
		ranked = ranked[:slowEndpointLimit]
	}
	stats.SlowestEndpoints = ranked
	return stats
}

func dataAccessStats(list []metrics.DataAccessMetric, warning time.Duration) DataAccessStats {
	stats := DataAccessStats{ByCategory: map[string]int{}}
	if len(list) == 0 {
		return stats
	}

	var sum float64
	for _, m := range list {
		sum += millis(m.Duration)
		if m.Duration > warning {
			stats.SlowQueries++
		}
		if !m.Success {
			stats.Failures++
		}
		category := m.Category
		if category == "" {
			category = metrics.Category(m.Operation)
		}
		stats.ByCategory[category]++
	}
	stats.TotalQueries = len(list)
	stats.AverageDuration = sum / float64(len(list))
	return stats
}

func operationStats(list []metrics.OperationMetric) OperationStats {
	stats := OperationStats{ByName: map[string]int{}}
	if len(list) == 0 {
		return stats
	}

	var sum float64
	for _, m := range list {
		sum += millis(m.Duration)
		if m.Outcome == metrics.OutcomeError {
			stats.Errors++
		}
		stats.ByName[m.Name]++
	}
	stats.Total = len(list)
	stats.AverageDuration = sum / float64(len(list))
	stats.SuccessRate = float64(stats.Total-stats.Errors) / float64(stats.Total)
	return stats
}

// Percentile approximates the k-th percentile from the mean as
// avg * (1 + (k-50)/100). It is not an order statistic.
func Percentile(avg float64, k int) float64 {
	return avg * (1 + float64(k-50)/100)
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
