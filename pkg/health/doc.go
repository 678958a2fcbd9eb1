// Package health runs independent subsystem probes and reduces them to one
// overall status.
//
// # Probes
//
//   - SQLProbe: ping, SELECT 1, query latency and pool exhaustion
//   - RedisProbe: ping plus a write/read/delete round trip
//   - FilesystemProbe: temp file create/write/remove in a directory
//   - HTTPProbe: GET against an external dependency
//   - FuncProbe: any critical-path liveness function
//
// # Aggregation
//
// Any unhealthy result makes the report unhealthy. Otherwise any degraded
// result makes it degraded. A probe that returns an error, panics or runs
// past the timeout becomes an unhealthy result and never stops the sweep.
//
// # Usage Example
//
//	checker := health.NewChecker(health.Options{Timeout: 3 * time.Second},
//	    &health.SQLProbe{DB: db},
//	    &health.RedisProbe{Client: rdb},
//	)
//	checker.RegisterRoutes(router)
//	report := checker.Run(ctx)
package health
