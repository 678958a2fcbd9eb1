package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/beacon/pkg/config"
	"github.com/platinummonkey/beacon/pkg/observability"
)

// Sink receives a copy of every recorded measurement. observability.Metrics
// and observability.OTelMetrics both implement it.
type Sink interface {
	ObserveAPI(method, endpoint string, status int, duration time.Duration)
	ObserveOperation(name string, success bool, duration time.Duration)
	ObserveDataAccess(category string, success bool, duration time.Duration, records int)
}

// AlertRaiser is notified when a measurement crosses a critical threshold
type AlertRaiser interface {
	RaiseAlert(ctx context.Context, alertType, severity, message string)
}

// Options configures a Recorder
type Options struct {
	Thresholds *config.ThresholdStore
	Logger     *observability.Logger
	Sinks      []Sink
	// Alerts is fixed at construction and may be nil
	Alerts     AlertRaiser

	// Cleanup trims a collection to TrimTo once it exceeds Retention
	Retention int
	TrimTo    int

	Now func() time.Time
}

// Recorder holds in-memory metric history. Each collection has its own lock.
type Recorder struct {
	thresholds *config.ThresholdStore
	logger     *observability.Logger
	sinks      []Sink
	alerts     AlertRaiser
	retention  int
	trimTo     int
	now        func() time.Time

	apiMu sync.RWMutex
	api   []APIMetric

	dataMu sync.RWMutex
	data   []DataAccessMetric

	opMu sync.RWMutex
	ops  []OperationMetric
}

// NewRecorder creates a recorder
func NewRecorder(opts Options) *Recorder {
	if opts.Thresholds == nil {
		opts.Thresholds = config.NewThresholdStore(config.DefaultThresholds())
	}
	if opts.Logger == nil {
		opts.Logger = observability.Discard()
	}
	if opts.Retention <= 0 {
		opts.Retention = 10000
	}
	if opts.TrimTo <= 0 || opts.TrimTo > opts.Retention {
		opts.TrimTo = opts.Retention / 2
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Recorder{
		thresholds: opts.Thresholds,
		logger:     opts.Logger,
		sinks:      opts.Sinks,
		alerts:     opts.Alerts,
		retention:  opts.Retention,
		trimTo:     opts.TrimTo,
		now:        opts.Now,
	}
}

// RecordOperationMetric appends an operation measurement
func (r *Recorder) RecordOperationMetric(ctx context.Context, m OperationMetric) OperationMetric {
	r.fill(&m.ID, &m.Timestamp)
	m.Duration = nonNegative(m.Duration)
	if m.Outcome != OutcomeError {
		m.Outcome = OutcomeSuccess
	}

	r.opMu.Lock()
	r.ops = append(r.ops, m)
	r.opMu.Unlock()

	for _, s := range r.sinks {
		s.ObserveOperation(m.Name, m.Outcome == OutcomeSuccess, m.Duration)
	}

	th := r.thresholds.Load()
	log := r.logger.WithFields(map[string]interface{}{
		"operation":   m.Name,
		"duration_ms": m.Duration.Milliseconds(),
		"trace_id":    m.TraceID,
	})
	if m.Outcome == OutcomeError {
		log.WithField("error", m.Metadata["error"]).Error("Operation failed")
	} else if m.Duration > th.ResponseWarning() {
		log.Warn("Slow operation")
	}
	return m
}

// RecordAPIMetric appends an API measurement. A response slower than the
// critical threshold raises a critical performance alert.
func (r *Recorder) RecordAPIMetric(ctx context.Context, m APIMetric) APIMetric {
	r.fill(&m.ID, &m.Timestamp)
	m.ResponseTime = nonNegative(m.ResponseTime)

	r.apiMu.Lock()
	r.api = append(r.api, m)
	r.apiMu.Unlock()

	for _, s := range r.sinks {
		s.ObserveAPI(m.Method, m.Endpoint, m.StatusCode, m.ResponseTime)
	}

	th := r.thresholds.Load()
	ms := m.ResponseTime.Milliseconds()
	log := r.logger.WithFields(map[string]interface{}{
		"method":           m.Method,
		"endpoint":         m.Endpoint,
		"status":           m.StatusCode,
		"response_time_ms": ms,
		"trace_id":         m.TraceID,
	})
	if m.StatusCode >= 500 {
		log.Error("API request failed")
	} else if m.ResponseTime > th.ResponseWarning() {
		log.Warn("Slow API response")
	}

	if m.ResponseTime > th.ResponseCritical() && r.alerts != nil {
		r.alerts.RaiseAlert(ctx, "performance", "critical",
			fmt.Sprintf("Critical response time on %s %s: %dms", m.Method, m.Endpoint, ms))
	}
	return m
}

// RecordDataAccessMetric appends a data access measurement. A call slower
// than the critical threshold raises a high database alert.
func (r *Recorder) RecordDataAccessMetric(ctx context.Context, m DataAccessMetric) DataAccessMetric {
	r.fill(&m.ID, &m.Timestamp)
	m.Duration = nonNegative(m.Duration)
	if m.Category == "" {
		m.Category = Category(m.Operation)
	}

	r.dataMu.Lock()
	r.data = append(r.data, m)
	r.dataMu.Unlock()

	for _, s := range r.sinks {
		s.ObserveDataAccess(m.Category, m.Success, m.Duration, m.RecordCount)
	}

	th := r.thresholds.Load()
	ms := m.Duration.Milliseconds()
	log := r.logger.WithFields(map[string]interface{}{
		"operation":   m.Operation,
		"category":    m.Category,
		"duration_ms": ms,
		"records":     m.RecordCount,
		"trace_id":    m.TraceID,
	})
	if !m.Success {
		log.WithField("error", m.Error).Error("Data access failed")
	} else if m.Duration > th.DataAccessWarning() {
		log.Warn("Slow data access")
	}

	if m.Duration > th.DataAccessCritical() && r.alerts != nil {
		r.alerts.RaiseAlert(ctx, "database", "high",
			fmt.Sprintf("Critical data access time for %s: %dms", m.Operation, ms))
	}
	return m
}

// Cleanup trims every collection that exceeds the retention cap down to the
// newest TrimTo entries, preserving order. It returns the number removed.
func (r *Recorder) Cleanup() int {
	removed := 0

	r.apiMu.Lock()
	r.api, removed = trim(r.api, r.retention, r.trimTo, removed)
	r.apiMu.Unlock()

	r.dataMu.Lock()
	r.data, removed = trim(r.data, r.retention, r.trimTo, removed)
	r.dataMu.Unlock()

	r.opMu.Lock()
	r.ops, removed = trim(r.ops, r.retention, r.trimTo, removed)
	r.opMu.Unlock()

	if removed > 0 {
		r.logger.WithField("removed", removed).Info("Trimmed metric history")
	}
	return removed
}

func trim[T any](list []T, cap, keep, removed int) ([]T, int) {
	if len(list) <= cap {
		return list, removed
	}
	out := make([]T, keep)
	copy(out, list[len(list)-keep:])
	return out, removed + len(list) - keep
}

// APIMetrics returns a copy of the API history
func (r *Recorder) APIMetrics() []APIMetric {
	r.apiMu.RLock()
	defer r.apiMu.RUnlock()
	return append([]APIMetric(nil), r.api...)
}

// DataAccessMetrics returns a copy of the data access history
func (r *Recorder) DataAccessMetrics() []DataAccessMetric {
	r.dataMu.RLock()
	defer r.dataMu.RUnlock()
	return append([]DataAccessMetric(nil), r.data...)
}

// OperationMetrics returns a copy of the operation history
func (r *Recorder) OperationMetrics() []OperationMetric {
	r.opMu.RLock()
	defer r.opMu.RUnlock()
	return append([]OperationMetric(nil), r.ops...)
}

// Raw returns the newest limit entries of each collection
func (r *Recorder) Raw(limit int) RawMetrics {
	r.apiMu.RLock()
	api := newest(r.api, limit)
	r.apiMu.RUnlock()

	r.dataMu.RLock()
	data := newest(r.data, limit)
	r.dataMu.RUnlock()

	r.opMu.RLock()
	ops := newest(r.ops, limit)
	r.opMu.RUnlock()

	return RawMetrics{API: api, Database: data, Performance: ops}
}

func newest[T any](list []T, limit int) []T {
	if limit < 0 {
		limit = 0
	}
	if len(list) > limit {
		list = list[len(list)-limit:]
	}
	return append(make([]T, 0, len(list)), list...)
}

// Len reports the size of each collection
func (r *Recorder) Len() (api, dataAccess, operations int) {
	r.apiMu.RLock()
	api = len(r.api)
	r.apiMu.RUnlock()
	r.dataMu.RLock()
	dataAccess = len(r.data)
	r.dataMu.RUnlock()
	r.opMu.RLock()
	operations = len(r.ops)
	r.opMu.RUnlock()
	return api, dataAccess, operations
}

// Thresholds returns the thresholds currently in effect
func (r *Recorder) Thresholds() config.Thresholds {
	return r.thresholds.Load()
}

func (r *Recorder) fill(id *string, ts *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if ts.IsZero() {
		*ts = r.now()
	}
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
