// Package async provides safe concurrent execution primitives for background tasks.
//
// # Overview
//
// This package handles goroutine lifecycle management with panic recovery, timeout
// enforcement, context cancellation, and error collection. Failures are logged
// through observability.Logger.
//
// # Key Functions
//
// SafeGo: Execute function in goroutine with safety features
//
//	async.SafeGo(ctx, logger, 30*time.Second, "report export", func(ctx context.Context) error {
//		_, err := exporter.Export(ctx)
//		return err
//	})
//
// WorkerPool: Managed pool of concurrent workers
//
//	pool := async.NewWorkerPool(ctx, logger, 2, "alert notification", 10*time.Second)
//	defer pool.Shutdown(5 * time.Second)
//
//	pool.Submit(func(ctx context.Context) error {
//		return notifier.Notify(ctx, alert)
//	})
//
// Batch: Concurrent batch processing
//
//	errs := async.Batch(ctx, logger, sinks, len(sinks), "report upload", 30*time.Second, upload)
//
// # Related Packages
//
//   - pkg/alerts: Uses WorkerPool for notification delivery
//   - pkg/report: Uses Batch to write to several sinks
//   - pkg/monitor: Uses SafeGo for probabilistic exports
package async
