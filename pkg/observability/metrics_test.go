package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	require.NotNil(t, m)

	// Registering twice on the same registry must panic with duplicate collectors
	assert.Panics(t, func() { NewMetrics(registry) })
}

func TestMetrics_ObserveAPI(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveAPI("GET", "/users/{id}", 200, 120*time.Millisecond)
	m.ObserveAPI("GET", "/users/{id}", 200, 80*time.Millisecond)
	m.ObserveAPI("GET", "/users/{id}", 500, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("GET", "/users/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.APIRequestsTotal.WithLabelValues("GET", "/users/{id}", "500")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.APIResponseDuration))
}

func TestMetrics_ObserveOperationAndDataAccess(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveOperation("checkout", true, time.Millisecond)
	m.ObserveOperation("checkout", false, time.Millisecond)
	m.ObserveDataAccess("users", true, 5*time.Millisecond, 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("checkout", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues("checkout", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DataAccessTotal.WithLabelValues("users", "success")))
}

func TestMetrics_ObserveProbe(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	tests := []struct {
		status string
		want   float64
	}{
		{"healthy", 0},
		{"degraded", 1},
		{"unhealthy", 2},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			m.ObserveProbe("database", tt.status, time.Millisecond)
			assert.Equal(t, tt.want, testutil.ToFloat64(m.HealthProbeStatus.WithLabelValues("database")))
		})
	}
}

func TestMetrics_Gauges(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveAlert("performance", "critical")
	m.SetActiveAlerts(3)
	m.ObserveSnapshot(42)
	m.ObserveInsight("capacity", "high")
	m.SetActiveTraces(7)
	m.ObserveExport(nil)
	m.ObserveExport(errors.New("disk full"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsTotal.WithLabelValues("performance", "critical")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.AlertsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotsTotal))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.SnapshotHistorySize))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InsightsTotal.WithLabelValues("capacity", "high")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.ActiveTraces))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsExportedTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsExportedTotal.WithLabelValues("error")))
}

func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.ObserveAPI("POST", "/orders", 201, time.Millisecond)

	router := mux.NewRouter()
	RegisterMetricsEndpoint(router, registry)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "beacon_api_requests_total"))
}
