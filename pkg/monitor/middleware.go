package monitor

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/beacon/pkg/httputil"
	"github.com/platinummonkey/beacon/pkg/metrics"
	"github.com/platinummonkey/beacon/pkg/observability"
	"github.com/platinummonkey/beacon/pkg/tracing"
)

// Middleware records one APIMetric and one trace per request. The endpoint
// label is the mux route template when the router has matched one, so
// "/alerts/{id}" is reported once rather than per id. Install it with
// router.Use so the route is known.
func (m *Monitor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.now()
		route := routeTemplate(r)

		ctx := m.tracker.StartTrace(r.Context(), observability.GetRequestID(r.Context()), map[string]string{
			"operation": r.Method + " " + route,
			"method":    r.Method,
			"route":     route,
		})
		traceID := tracing.TraceIDFromContext(ctx)
		inflight := m.recorder.BeginRequest(r.Method, route, start)
		rec := httputil.NewStatusRecorder(w)

		defer func() {
			p := recover()
			status := rec.Status
			if p != nil {
				status = http.StatusInternalServerError
			}
			inflight.Finish(ctx, status, m.now(), metrics.RequestInfo{
				UserID:    observability.GetUserID(ctx),
				IP:        httputil.ClientIP(r),
				UserAgent: r.UserAgent(),
				TraceID:   traceID,
			})

			result := tracing.Result{Success: status < http.StatusBadRequest}
			if p != nil {
				result.Error = fmt.Sprint(p)
			} else if !result.Success {
				result.Error = http.StatusText(status)
			}
			m.tracker.EndTrace(traceID, result)

			if p != nil {
				panic(p)
			}
		}()

		next.ServeHTTP(rec, r.WithContext(ctx))
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}
