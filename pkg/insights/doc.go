// Package insights derives heuristic predictions from dashboard history.
//
// Generate needs at least ten snapshots and looks only at the newest ten.
// It averages CPU, memory, response time and failed logins, compares the
// first and last error rate, and applies fixed threshold rules:
//
//	capacity     CPU mean > 70%          high, critical above 85%
//	resource     memory mean > 75%       high, critical above 90%
//	performance  response mean > 1000ms  medium, high above 2000ms
//	reliability  error rate increasing   medium, high above the critical rate
//	security     failed logins > 10      high, critical above 50
//
// These are deterministic threshold rules, not forecasts.
package insights
