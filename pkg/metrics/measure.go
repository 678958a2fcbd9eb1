package metrics

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/beacon/pkg/observability"
	"github.com/platinummonkey/beacon/pkg/tracing"
)

// errAbandoned marks a unit of work that exited without returning (runtime.Goexit)
var errAbandoned = errors.New("unit of work exited without returning")

// Measure runs fn, records an OperationMetric for it and returns fn's result
// and error unchanged. Names starting with "db." are also recorded as data
// access. A panic in fn is recorded as an error and then re-panicked.
//
// The context passed to fn carries a fresh span id whose parent is the
// caller's span, so nested measurements link up.
func Measure[T any](ctx context.Context, r *Recorder, name string, fn func(context.Context) (T, error), metadata map[string]string) (T, error) {
	return measure(ctx, r, name, fn, metadata, strings.HasPrefix(name, DataAccessPrefix))
}

// MeasureDataAccess is Measure with data access tagging forced on. The
// record count is the length of a slice, map or array result, 0 for a nil
// result and 1 otherwise.
func MeasureDataAccess[T any](ctx context.Context, r *Recorder, operation string, fn func(context.Context) (T, error), metadata map[string]string) (T, error) {
	return measure(ctx, r, operation, fn, metadata, true)
}

type measurement struct {
	name         string
	start        time.Time
	metadata     map[string]string
	dataAccess   bool
	traceID      string
	spanID       string
	parentSpanID string
}

func measure[T any](ctx context.Context, r *Recorder, name string, fn func(context.Context) (T, error), metadata map[string]string, dataAccess bool) (result T, err error) {
	m := measurement{
		name:         name,
		metadata:     metadata,
		dataAccess:   dataAccess,
		traceID:      tracing.TraceIDFromContext(ctx),
		parentSpanID: tracing.SpanIDFromContext(ctx),
		spanID:       uuid.NewString(),
	}
	innerCtx := tracing.WithSpan(ctx, m.traceID, m.spanID)

	m.start = r.now()
	returned := false
	defer func() {
		if returned {
			return
		}
		rec := recover()
		failure := observability.MustRecover(rec)
		if failure == nil {
			failure = errAbandoned
		}
		r.complete(ctx, m, failure, 0)
		if rec != nil {
			panic(rec)
		}
	}()

	result, err = fn(innerCtx)
	returned = true

	records := 0
	if err == nil {
		records = recordCount(result)
	}
	r.complete(ctx, m, err, records)
	return result, err
}

func (r *Recorder) complete(ctx context.Context, m measurement, failure error, records int) {
	end := r.now()
	duration := nonNegative(end.Sub(m.start))

	meta := make(map[string]string, len(m.metadata)+1)
	for k, v := range m.metadata {
		meta[k] = v
	}
	outcome := OutcomeSuccess
	if failure != nil {
		outcome = OutcomeError
		meta["error"] = failure.Error()
	}

	r.RecordOperationMetric(ctx, OperationMetric{
		Name:         m.name,
		Duration:     duration,
		Timestamp:    end,
		Outcome:      outcome,
		Metadata:     meta,
		TraceID:      m.traceID,
		SpanID:       m.spanID,
		ParentSpanID: m.parentSpanID,
	})

	if !m.dataAccess {
		return
	}
	da := DataAccessMetric{
		Operation:   m.name,
		Category:    Category(m.name),
		Duration:    duration,
		RecordCount: records,
		Timestamp:   end,
		TraceID:     m.traceID,
		Success:     failure == nil,
	}
	if failure != nil {
		da.Error = failure.Error()
	}
	r.RecordDataAccessMetric(ctx, da)
}

func recordCount(v interface{}) int {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		if rv.IsNil() {
			return 0
		}
		return rv.Len()
	case reflect.Array:
		return rv.Len()
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return 0
		}
	}
	return 1
}
