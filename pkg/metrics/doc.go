// Package metrics records operation, API and data access measurements in
// bounded in-memory history.
//
// # Measuring work
//
//	users, err := metrics.MeasureDataAccess(ctx, recorder, "db.users.find",
//	    func(ctx context.Context) ([]User, error) {
//	        return store.FindUsers(ctx)
//	    }, nil)
//
// Measure and MeasureDataAccess return the wrapped result and error exactly
// as produced. A failure is stored in the metric metadata under "error".
//
// # Request lifecycle
//
//	req := recorder.BeginRequest(r.Method, route, time.Now())
//	// ... handler runs ...
//	req.Finish(ctx, status, time.Now(), metrics.RequestInfo{IP: ip})
//
// # Thresholds
//
// Every record call reads the current values from a config.ThresholdStore. A
// duration over the warning value is logged at WARN, failures and 5xx
// statuses at ERROR. Crossing a critical value notifies the AlertRaiser.
//
// # Retention
//
// Cleanup keeps each collection bounded: once a list grows past the
// retention cap the oldest entries are dropped, leaving the newest TrimTo.
package metrics
