// Package analytics computes windowed statistics from the metric history.
//
// # Overview
//
// An Aggregator reads API, data access and operation metrics from a
// MetricSource and reduces the entries inside a trailing window to a
// Snapshot:
//
//   - API: request count, average response time, error rate (status >= 400),
//     throughput per hour, p95/p99 estimates and the ten slowest endpoints
//   - Data access: call count, average duration, calls over the warning
//     threshold, failures and a count per category
//   - Operations: count, average duration, errors and success rate
//
// # Percentiles
//
// P95 and P99 are derived from the mean with Percentile, a fixed linear
// approximation. They are not computed from the sorted sample.
//
// # Usage Example
//
//	agg := analytics.NewAggregator(recorder, thresholds)
//	snap := agg.Analyze(60)
//	fmt.Println(snap.API.ErrorRate, snap.API.SlowestEndpoints)
package analytics
