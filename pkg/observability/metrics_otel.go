package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/platinummonkey/beacon"

// OTelMetrics holds OpenTelemetry metric instruments. It accepts the same
// observations as Metrics so either can be attached to the recorder.
type OTelMetrics struct {
	// API metrics
	apiRequests     metric.Int64Counter
	apiResponseTime metric.Float64Histogram

	// Operation metrics
	operations        metric.Int64Counter
	operationDuration metric.Float64Histogram

	// Data access metrics
	dataAccess         metric.Int64Counter
	dataAccessDuration metric.Float64Histogram
	dataAccessRecords  metric.Int64Histogram

	// Alerts and health
	alerts        metric.Int64Counter
	probeDuration metric.Float64Histogram
}

// NewOTelMetrics creates instruments on the global meter provider
func NewOTelMetrics() (*OTelMetrics, error) {
	return NewOTelMetricsWithMeter(otel.Meter(meterName))
}

// NewOTelMetricsWithMeter creates instruments on the given meter
func NewOTelMetricsWithMeter(meter metric.Meter) (*OTelMetrics, error) {
	m := &OTelMetrics{}
	var err error

	m.apiRequests, err = meter.Int64Counter(
		"beacon.api.requests",
		metric.WithDescription("Total number of recorded API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api requests counter: %w", err)
	}

	m.apiResponseTime, err = meter.Float64Histogram(
		"beacon.api.response_time",
		metric.WithDescription("API response time in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create api response time histogram: %w", err)
	}

	m.operations, err = meter.Int64Counter(
		"beacon.operations",
		metric.WithDescription("Total number of measured operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operations counter: %w", err)
	}

	m.operationDuration, err = meter.Float64Histogram(
		"beacon.operation.duration",
		metric.WithDescription("Measured operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create operation duration histogram: %w", err)
	}

	m.dataAccess, err = meter.Int64Counter(
		"beacon.data_access",
		metric.WithDescription("Total number of data access operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create data access counter: %w", err)
	}

	m.dataAccessDuration, err = meter.Float64Histogram(
		"beacon.data_access.duration",
		metric.WithDescription("Data access duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create data access duration histogram: %w", err)
	}

	m.dataAccessRecords, err = meter.Int64Histogram(
		"beacon.data_access.records",
		metric.WithDescription("Records affected per data access operation"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create data access records histogram: %w", err)
	}

	m.alerts, err = meter.Int64Counter(
		"beacon.alerts",
		metric.WithDescription("Total number of alerts created"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create alerts counter: %w", err)
	}

	m.probeDuration, err = meter.Float64Histogram(
		"beacon.health.probe.duration",
		metric.WithDescription("Health probe duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe duration histogram: %w", err)
	}

	return m, nil
}

func errorAttr(success bool) attribute.KeyValue {
	if success {
		return attribute.String("error", "false")
	}
	return attribute.String("error", "true")
}

// ObserveAPI records one completed API request
func (m *OTelMetrics) ObserveAPI(method, endpoint string, status int, duration time.Duration) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", endpoint),
		attribute.Int("http.status_code", status),
	)
	m.apiRequests.Add(ctx, 1, attrs)
	m.apiResponseTime.Record(ctx, duration.Seconds(), attrs)
}

// ObserveOperation records one measured unit of work
func (m *OTelMetrics) ObserveOperation(name string, success bool, duration time.Duration) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("operation", name),
		errorAttr(success),
	)
	m.operations.Add(ctx, 1, attrs)
	m.operationDuration.Record(ctx, duration.Seconds(), attrs)
}

// ObserveDataAccess records one data access call
func (m *OTelMetrics) ObserveDataAccess(category string, success bool, duration time.Duration, records int) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("db.category", category),
		errorAttr(success),
	)
	m.dataAccess.Add(ctx, 1, attrs)
	m.dataAccessDuration.Record(ctx, duration.Seconds(), attrs)
	m.dataAccessRecords.Record(ctx, int64(records), attrs)
}

// ObserveAlert counts a newly created alert
func (m *OTelMetrics) ObserveAlert(alertType, severity string) {
	m.alerts.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("alert.type", alertType),
		attribute.String("alert.severity", severity),
	))
}

// ObserveProbe records a health probe result
func (m *OTelMetrics) ObserveProbe(name, status string, duration time.Duration) {
	m.probeDuration.Record(context.Background(), duration.Seconds(), metric.WithAttributes(
		attribute.String("probe", name),
		attribute.String("status", status),
	))
}
