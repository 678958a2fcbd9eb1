package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Health status gauge values
const (
	healthGaugeHealthy   = 0
	healthGaugeDegraded  = 1
	healthGaugeUnhealthy = 2
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// API metrics
	APIRequestsTotal    *prometheus.CounterVec
	APIResponseDuration *prometheus.HistogramVec

	// Operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Data access metrics
	DataAccessTotal    *prometheus.CounterVec
	DataAccessDuration *prometheus.HistogramVec
	DataAccessRecords  *prometheus.HistogramVec

	// Alert metrics
	AlertsTotal  *prometheus.CounterVec
	AlertsActive prometheus.Gauge

	// Health metrics
	HealthProbeStatus   *prometheus.GaugeVec
	HealthProbeDuration *prometheus.HistogramVec

	// Dashboard metrics
	SnapshotsTotal      prometheus.Counter
	SnapshotHistorySize prometheus.Gauge
	InsightsTotal       *prometheus.CounterVec
	ActiveTraces        prometheus.Gauge

	// Export metrics
	ReportsExportedTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		APIRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_api_requests_total",
				Help: "Total number of recorded API requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		APIResponseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beacon_api_response_duration_seconds",
				Help:    "API response time in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_operations_total",
				Help: "Total number of measured operations",
			},
			[]string{"operation", "outcome"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beacon_operation_duration_seconds",
				Help:    "Measured operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		DataAccessTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_data_access_total",
				Help: "Total number of data access operations",
			},
			[]string{"category", "outcome"},
		),
		DataAccessDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beacon_data_access_duration_seconds",
				Help:    "Data access duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"category"},
		),
		DataAccessRecords: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beacon_data_access_records",
				Help:    "Records affected per data access operation",
				Buckets: prometheus.ExponentialBuckets(1, 10, 6),
			},
			[]string{"category"},
		),

		AlertsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_alerts_total",
				Help: "Total number of alerts created",
			},
			[]string{"type", "severity"},
		),
		AlertsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "beacon_alerts_active",
				Help: "Number of alerts neither acknowledged nor resolved",
			},
		),

		HealthProbeStatus: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "beacon_health_probe_status",
				Help: "Probe status (0 healthy, 1 degraded, 2 unhealthy)",
			},
			[]string{"probe"},
		),
		HealthProbeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beacon_health_probe_duration_seconds",
				Help:    "Health probe duration in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"probe"},
		),

		SnapshotsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "beacon_snapshots_total",
				Help: "Total number of dashboard snapshots collected",
			},
		),
		SnapshotHistorySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "beacon_snapshot_history_size",
				Help: "Number of snapshots currently retained",
			},
		),
		InsightsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_insights_total",
				Help: "Total number of predictive insights generated",
			},
			[]string{"category", "impact"},
		),
		ActiveTraces: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "beacon_traces_active",
				Help: "Number of traces held by the tracker",
			},
		),

		ReportsExportedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_reports_exported_total",
				Help: "Total number of report exports",
			},
			[]string{"status"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.APIRequestsTotal,
		m.APIResponseDuration,
		m.OperationsTotal,
		m.OperationDuration,
		m.DataAccessTotal,
		m.DataAccessDuration,
		m.DataAccessRecords,
		m.AlertsTotal,
		m.AlertsActive,
		m.HealthProbeStatus,
		m.HealthProbeDuration,
		m.SnapshotsTotal,
		m.SnapshotHistorySize,
		m.InsightsTotal,
		m.ActiveTraces,
		m.ReportsExportedTotal,
	)

	return m
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// ObserveAPI records one completed API request
func (m *Metrics) ObserveAPI(method, endpoint string, status int, duration time.Duration) {
	m.APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.APIResponseDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// ObserveOperation records one measured unit of work
func (m *Metrics) ObserveOperation(name string, success bool, duration time.Duration) {
	m.OperationsTotal.WithLabelValues(name, outcome(success)).Inc()
	m.OperationDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// ObserveDataAccess records one data access call
func (m *Metrics) ObserveDataAccess(category string, success bool, duration time.Duration, records int) {
	m.DataAccessTotal.WithLabelValues(category, outcome(success)).Inc()
	m.DataAccessDuration.WithLabelValues(category).Observe(duration.Seconds())
	m.DataAccessRecords.WithLabelValues(category).Observe(float64(records))
}

// ObserveAlert counts a newly created alert
func (m *Metrics) ObserveAlert(alertType, severity string) {
	m.AlertsTotal.WithLabelValues(alertType, severity).Inc()
}

// SetActiveAlerts updates the active alert gauge
func (m *Metrics) SetActiveAlerts(n int) {
	m.AlertsActive.Set(float64(n))
}

// ObserveProbe records a health probe result
func (m *Metrics) ObserveProbe(name, status string, duration time.Duration) {
	value := float64(healthGaugeHealthy)
	switch status {
	case "degraded":
		value = healthGaugeDegraded
	case "unhealthy":
		value = healthGaugeUnhealthy
	}
	m.HealthProbeStatus.WithLabelValues(name).Set(value)
	m.HealthProbeDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// ObserveSnapshot counts a collected snapshot and the retained history size
func (m *Metrics) ObserveSnapshot(historyLen int) {
	m.SnapshotsTotal.Inc()
	m.SnapshotHistorySize.Set(float64(historyLen))
}

// ObserveInsight counts a generated insight
func (m *Metrics) ObserveInsight(category, impact string) {
	m.InsightsTotal.WithLabelValues(category, impact).Inc()
}

// SetActiveTraces updates the trace gauge
func (m *Metrics) SetActiveTraces(n int) {
	m.ActiveTraces.Set(float64(n))
}

// ObserveExport counts a report export attempt
func (m *Metrics) ObserveExport(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ReportsExportedTotal.WithLabelValues(status).Inc()
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(router *mux.Router, registry *prometheus.Registry) {
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}
