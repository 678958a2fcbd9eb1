package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestOTelMetrics(t *testing.T) (*OTelMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewOTelMetricsWithMeter(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collectNames(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNewOTelMetrics_GlobalMeter(t *testing.T) {
	m, err := NewOTelMetrics()
	require.NoError(t, err)
	assert.NotNil(t, m)

	// The global no-op provider accepts observations without error
	m.ObserveAPI("GET", "/", 200, time.Millisecond)
}

func TestOTelMetrics_Observations(t *testing.T) {
	m, reader := newTestOTelMetrics(t)

	m.ObserveAPI("GET", "/users/{id}", 200, 10*time.Millisecond)
	m.ObserveAPI("GET", "/users/{id}", 200, 20*time.Millisecond)
	m.ObserveOperation("checkout", false, time.Millisecond)
	m.ObserveDataAccess("users", true, time.Millisecond, 4)
	m.ObserveAlert("database", "high")
	m.ObserveProbe("cache", "healthy", time.Millisecond)

	got := collectNames(t, reader)
	for _, name := range []string{
		"beacon.api.requests",
		"beacon.api.response_time",
		"beacon.operations",
		"beacon.operation.duration",
		"beacon.data_access",
		"beacon.data_access.duration",
		"beacon.data_access.records",
		"beacon.alerts",
		"beacon.health.probe.duration",
	} {
		assert.Contains(t, got, name)
	}

	sum, ok := got["beacon.api.requests"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}
