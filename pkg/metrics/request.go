package metrics

import (
	"context"
	"sync"
	"time"
)

// RequestInfo carries optional caller details attached to an APIMetric
type RequestInfo struct {
	UserID    string
	IP        string
	UserAgent string
	TraceID   string
}

// InFlightRequest is an HTTP request that has entered but not yet completed
type InFlightRequest struct {
	recorder *Recorder
	method   string
	route    string
	start    time.Time
	once     sync.Once
}

// BeginRequest marks the entry of a request. Finish must be called once the
// response has been written.
func (r *Recorder) BeginRequest(method, route string, start time.Time) *InFlightRequest {
	return &InFlightRequest{recorder: r, method: method, route: route, start: start}
}

// Finish records the request's APIMetric. Only the first call records,
// later calls return false.
func (req *InFlightRequest) Finish(ctx context.Context, status int, end time.Time, info RequestInfo) (APIMetric, bool) {
	var (
		m        APIMetric
		recorded bool
	)
	req.once.Do(func() {
		m = req.recorder.RecordAPIMetric(ctx, APIMetric{
			Endpoint:     req.route,
			Method:       req.method,
			ResponseTime: end.Sub(req.start),
			StatusCode:   status,
			Timestamp:    end,
			UserID:       info.UserID,
			IP:           info.IP,
			UserAgent:    info.UserAgent,
			TraceID:      info.TraceID,
		})
		recorded = true
	})
	return m, recorded
}
