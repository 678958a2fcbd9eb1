// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry setup, panic helpers and graceful shutdown.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.Infof("Server started on port %d", 8080)
//
// Context-aware logging:
//
//	logger.WithField("endpoint", "/users").WithError(err).Error("Request failed")
//
// # Prometheus Metrics
//
// Metrics registers the beacon_* collectors on a caller-owned registry. It
// accepts API, operation and data access observations from the recorder:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	observability.RegisterMetricsEndpoint(router, registry)
//
// # OpenTelemetry
//
// InitTelemetry configures OTLP/gRPC trace and metric exporters and installs
// them globally. The tracker takes its tracer from Telemetry, and OTelMetrics
// accepts the same observations as Metrics on the Telemetry meter:
//
//	telemetry, err := observability.InitTelemetry(ctx, observability.TelemetryConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "beacon",
//		SampleRatio: 0.25,
//	}, logger)
//	otelMetrics, err := observability.NewOTelMetricsWithMeter(telemetry.Meter("beacon"))
//	defer telemetry.Shutdown(ctx)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/metrics: Feeds the metric sinks
package observability
