package monitor

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/beacon/pkg/alerts"
	"github.com/platinummonkey/beacon/pkg/config"
	"github.com/platinummonkey/beacon/pkg/health"
	"github.com/platinummonkey/beacon/pkg/httputil"
)

const (
	maxWindowMinutes = 24 * 60
	maxRawLimit      = 10000
)

// actorRequest is the body of the acknowledge and resolve endpoints
type actorRequest struct {
	Actor string `json:"actor"`
}

// RegisterRoutes registers the monitoring admin API
func (m *Monitor) RegisterRoutes(r *mux.Router) {
	// Dashboard
	r.HandleFunc("/api/monitoring/dashboard", m.getDashboard).Methods("GET")
	r.HandleFunc("/api/monitoring/dashboard/history", m.getDashboardHistory).Methods("GET")
	r.HandleFunc("/api/monitoring/dashboard/collect", m.collectDashboard).Methods("POST")

	// Metrics and analytics
	r.HandleFunc("/api/monitoring/analytics", m.getAnalytics).Methods("GET")
	r.HandleFunc("/api/monitoring/metrics/raw", m.getRawMetrics).Methods("GET")
	r.HandleFunc("/api/monitoring/health", m.getHealth).Methods("GET")

	// Alerts
	r.HandleFunc("/api/monitoring/alerts", m.listAlerts).Methods("GET")
	r.HandleFunc("/api/monitoring/alerts/{id}/acknowledge", m.acknowledgeAlert).Methods("POST")
	r.HandleFunc("/api/monitoring/alerts/{id}/resolve", m.resolveAlert).Methods("POST")

	// Insights, reports, traces
	r.HandleFunc("/api/monitoring/insights", m.getInsights).Methods("GET")
	r.HandleFunc("/api/monitoring/reports", m.exportReport).Methods("POST")
	r.HandleFunc("/api/monitoring/traces", m.listTraces).Methods("GET")
	r.HandleFunc("/api/monitoring/traces/{id}", m.getTrace).Methods("GET")

	// Thresholds
	r.HandleFunc("/api/monitoring/thresholds", m.getThresholds).Methods("GET")
	r.HandleFunc("/api/monitoring/thresholds", m.putThresholds).Methods("PUT")
}

// getDashboard handles GET /api/monitoring/dashboard
// Returns the newest snapshot, collecting one if the history is empty
func (m *Monitor) getDashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := m.GetSnapshot()
	if !ok {
		snap = m.CollectSnapshot(r.Context())
	}
	httputil.WriteSuccess(w, snap)
}

// getDashboardHistory handles GET /api/monitoring/dashboard/history?count=N
func (m *Monitor) getDashboardHistory(w http.ResponseWriter, r *http.Request) {
	count, ok := httputil.ParseQueryIntRangeOrError(w, r, "count", 60, 1, m.store.Capacity())
	if !ok {
		return
	}
	httputil.WriteSuccess(w, m.SnapshotHistory(count))
}

func (m *Monitor) collectDashboard(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, m.CollectSnapshot(r.Context()))
}

// getAnalytics handles GET /api/monitoring/analytics?window=minutes
func (m *Monitor) getAnalytics(w http.ResponseWriter, r *http.Request) {
	window, ok := httputil.ParseQueryIntRangeOrError(w, r, "window", 60, 1, maxWindowMinutes)
	if !ok {
		return
	}
	httputil.WriteSuccess(w, m.Analyze(window))
}

// getRawMetrics handles GET /api/monitoring/metrics/raw?limit=N
func (m *Monitor) getRawMetrics(w http.ResponseWriter, r *http.Request) {
	limit, ok := httputil.ParseQueryIntRangeOrError(w, r, "limit", 100, 0, maxRawLimit)
	if !ok {
		return
	}
	httputil.WriteSuccess(w, m.GetRawMetrics(limit))
}

// getHealth handles GET /api/monitoring/health
// Responds 503 when the overall status is unhealthy
func (m *Monitor) getHealth(w http.ResponseWriter, r *http.Request) {
	rep := m.RunHealthCheck(r.Context())
	if rep.Status == health.StatusUnhealthy {
		httputil.WriteServiceUnavailable(w, rep)
		return
	}
	httputil.WriteSuccess(w, rep)
}

// listAlerts handles GET /api/monitoring/alerts?all=true
func (m *Monitor) listAlerts(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, m.Alerts(r.URL.Query().Get("all") == "true"))
}

func (m *Monitor) acknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	m.updateAlert(w, r, m.AcknowledgeAlert)
}

func (m *Monitor) resolveAlert(w http.ResponseWriter, r *http.Request) {
	m.updateAlert(w, r, m.ResolveAlert)
}

func (m *Monitor) updateAlert(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id, actor string) (alerts.Alert, error)) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req actorRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Actor == "" {
		req.Actor = "api"
	}

	a, err := apply(r.Context(), id, req.Actor)
	if errors.Is(err, alerts.ErrAlertNotFound) {
		httputil.WriteNotFoundError(w, err.Error())
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, a)
}

func (m *Monitor) getInsights(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, m.GenerateInsights())
}

// exportReport handles POST /api/monitoring/reports
// Returns the location of the written report
func (m *Monitor) exportReport(w http.ResponseWriter, r *http.Request) {
	location, err := m.ExportReport(r.Context())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"location": location})
}

func (m *Monitor) listTraces(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, m.ActiveTraces())
}

func (m *Monitor) getTrace(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	tr, found := m.Trace(id)
	if !found {
		httputil.WriteNotFoundError(w, "trace not found")
		return
	}
	httputil.WriteSuccess(w, tr)
}

func (m *Monitor) getThresholds(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, m.Thresholds())
}

// putThresholds handles PUT /api/monitoring/thresholds
// Fields absent from the body keep their current values
func (m *Monitor) putThresholds(w http.ResponseWriter, r *http.Request) {
	th := m.Thresholds()
	if !httputil.ParseJSONOrError(w, r, &th) {
		return
	}
	if err := m.UpdateThresholds(th); err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}
	httputil.WriteSuccess(w, th)
}
