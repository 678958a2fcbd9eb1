// Package tracing tracks in-flight distributed traces and their spans.
//
// # Lifecycle
//
// A trace is started, collects any number of spans, and is ended. Ended
// traces stay readable for a retention period and are then dropped:
//
//	ctx = tracker.StartTrace(ctx, "t1", map[string]string{"operation": "GET /users"})
//	tracker.StartSpan("t1", "s1", "db.users.find", "")
//	tracker.EndSpan("t1", "s1", tracing.Result{Success: true})
//	tracker.EndTrace("t1", tracing.Result{Success: true})
//
// Span calls against unknown traces are silently ignored; a trace may have
// already expired by the time a late span arrives.
//
// # OpenTelemetry
//
// Every trace and span is mirrored onto an OTel span from the configured
// tracer, so traces reach the collector configured by observability.InitTelemetry.
//
// # Context
//
// WithSpan, TraceIDFromContext and SpanIDFromContext carry ids through
// context.Context so the metric recorder can tag measurements.
package tracing
