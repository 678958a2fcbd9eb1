package tracing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/beacon/pkg/observability"
)

const tracerName = "github.com/platinummonkey/beacon/pkg/tracing"

// Status is the lifecycle state of a trace
type Status string

const (
	StatusStarted Status = "started"
	StatusEnded   Status = "ended"
)

// Result is the outcome of a span or trace
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Span is one timed sub-operation of a trace
type Span struct {
	ID           string        `json:"id"`
	TraceID      string        `json:"trace_id"`
	Operation    string        `json:"operation"`
	ParentSpanID string        `json:"parent_span_id,omitempty"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time,omitempty"`
	Duration     time.Duration `json:"duration"`
	Ended        bool          `json:"ended"`
	Result       Result        `json:"result"`
}

// Trace is one end-to-end request or operation
type Trace struct {
	ID        string            `json:"id"`
	StartTime time.Time         `json:"start_time"`
	EndTime   time.Time         `json:"end_time,omitempty"`
	Duration  time.Duration     `json:"duration"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Spans     []Span            `json:"spans"`
	Status    Status            `json:"status"`
	Result    Result            `json:"result"`
}

func (t Trace) clone() Trace {
	out := t
	out.Spans = append([]Span(nil), t.Spans...)
	if t.Metadata != nil {
		out.Metadata = make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// Options configures a Tracker
type Options struct {
	// Retention is how long an ended trace stays visible. It is measured on
	// Now; the underlying cache also evicts on the wall clock after the same
	// period.
	Retention time.Duration
	// MaxEnded bounds the number of retained ended traces
	MaxEnded int
	// Tracer receives a mirrored OTel span per trace and span
	Tracer trace.Tracer
	Logger *observability.Logger
	Now    func() time.Time
}

type liveTrace struct {
	trace     Trace
	spanIndex map[string]int
	ctx       context.Context
	otelSpan  trace.Span
	otelSpans map[string]trace.Span
	spanCtx   map[string]context.Context
}

// Tracker holds in-flight traces and, for the retention period, ended ones
type Tracker struct {
	mu     sync.Mutex
	active map[string]*liveTrace
	ended  *expirable.LRU[string, Trace]

	tracer    trace.Tracer
	logger    *observability.Logger
	now       func() time.Time
	retention time.Duration
}

// NewTracker creates a tracker
func NewTracker(opts Options) *Tracker {
	if opts.Retention <= 0 {
		opts.Retention = time.Minute
	}
	if opts.MaxEnded <= 0 {
		opts.MaxEnded = 10000
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}
	if opts.Logger == nil {
		opts.Logger = observability.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Tracker{
		active: make(map[string]*liveTrace),
		ended:  expirable.NewLRU[string, Trace](opts.MaxEnded, nil, opts.Retention),
		tracer:    opts.Tracer,
		logger:    opts.Logger,
		now:       opts.Now,
		retention: opts.Retention,
	}
}

// StartTrace begins a trace. An empty id is replaced with a generated one.
// The returned context carries the trace id and the mirrored OTel span.
// Starting an id that is already active leaves the existing trace in place.
func (t *Tracker) StartTrace(ctx context.Context, id string, metadata map[string]string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if lt, ok := t.active[id]; ok {
		return WithSpan(lt.ctx, id, "")
	}

	now := t.now()
	name := metadata["operation"]
	if name == "" {
		name = "beacon.trace"
	}
	attrs := []attribute.KeyValue{attribute.String("beacon.trace_id", id)}
	for k, v := range metadata {
		attrs = append(attrs, attribute.String("beacon.meta."+k, v))
	}
	octx, span := t.tracer.Start(ctx, name, trace.WithTimestamp(now), trace.WithAttributes(attrs...))

	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	lt := &liveTrace{
		trace: Trace{
			ID:        id,
			StartTime: now,
			Metadata:  md,
			Status:    StatusStarted,
		},
		spanIndex: make(map[string]int),
		ctx:       octx,
		otelSpan:  span,
		otelSpans: make(map[string]trace.Span),
		spanCtx:   make(map[string]context.Context),
	}
	t.active[id] = lt

	return WithSpan(octx, id, "")
}

// StartSpan attaches a span to an active trace and returns its id. It is a
// no-op returning "" when the trace is unknown. Parent linkage is recorded as
// given and not validated.
func (t *Tracker) StartSpan(traceID, spanID, operation, parentSpanID string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	lt, ok := t.active[traceID]
	if !ok {
		return ""
	}
	if spanID == "" {
		spanID = uuid.NewString()
	}
	if _, dup := lt.spanIndex[spanID]; dup {
		return spanID
	}

	now := t.now()
	parentCtx := lt.ctx
	if pc, ok := lt.spanCtx[parentSpanID]; ok {
		parentCtx = pc
	}
	sctx, span := t.tracer.Start(parentCtx, operation,
		trace.WithTimestamp(now),
		trace.WithAttributes(
			attribute.String("beacon.trace_id", traceID),
			attribute.String("beacon.span_id", spanID),
		),
	)

	lt.spanIndex[spanID] = len(lt.trace.Spans)
	lt.trace.Spans = append(lt.trace.Spans, Span{
		ID:           spanID,
		TraceID:      traceID,
		Operation:    operation,
		ParentSpanID: parentSpanID,
		StartTime:    now,
	})
	lt.otelSpans[spanID] = span
	lt.spanCtx[spanID] = sctx
	return spanID
}

// EndSpan closes a span. Unknown traces or spans, and spans already ended,
// are ignored.
func (t *Tracker) EndSpan(traceID, spanID string, result Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lt, ok := t.active[traceID]
	if !ok {
		return
	}
	idx, ok := lt.spanIndex[spanID]
	if !ok {
		return
	}
	s := &lt.trace.Spans[idx]
	if s.Ended {
		return
	}

	now := t.now()
	s.EndTime = now
	s.Duration = nonNegative(now.Sub(s.StartTime))
	s.Ended = true
	s.Result = result

	if span, ok := lt.otelSpans[spanID]; ok {
		finishOTel(span, result, now)
		delete(lt.otelSpans, spanID)
	}
}

// EndTrace stamps the trace duration and moves it to the retention cache.
// Unknown trace ids are ignored.
func (t *Tracker) EndTrace(traceID string, result Result) {
	t.mu.Lock()
	defer t.mu.Unlock()

	lt, ok := t.active[traceID]
	if !ok {
		return
	}
	delete(t.active, traceID)

	now := t.now()
	lt.trace.EndTime = now
	lt.trace.Duration = nonNegative(now.Sub(lt.trace.StartTime))
	lt.trace.Status = StatusEnded
	lt.trace.Result = result

	for _, span := range lt.otelSpans {
		span.End(trace.WithTimestamp(now))
	}
	finishOTel(lt.otelSpan, result, now)

	t.ended.Add(traceID, lt.trace.clone())
	t.logger.WithField("trace_id", traceID).
		WithField("duration_ms", lt.trace.Duration.Milliseconds()).
		Debug("Trace ended")
}

// Trace returns a copy of the trace, active or still retained
func (t *Tracker) Trace(id string) (Trace, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if lt, ok := t.active[id]; ok {
		return lt.trace.clone(), true
	}
	tr, ok := t.ended.Get(id)
	if !ok {
		return Trace{}, false
	}
	if t.expiredLocked(tr, t.now()) {
		t.ended.Remove(id)
		return Trace{}, false
	}
	return tr.clone(), true
}

// ActiveTraces returns every trace not yet removed, ordered by start time.
// Ended traces are included until their retention elapses.
func (t *Tracker) ActiveTraces() []Trace {
	t.mu.Lock()
	out := make([]Trace, 0, len(t.active)+t.ended.Len())
	for _, lt := range t.active {
		out = append(out, lt.trace.clone())
	}
	for _, tr := range t.retainedLocked() {
		out = append(out, tr.clone())
	}
	t.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// Len reports active plus retained traces
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.active) + len(t.retainedLocked())
}

// retainedLocked returns ended traces still inside retention and drops the
// rest from the cache
func (t *Tracker) retainedLocked() []Trace {
	now := t.now()
	values := t.ended.Values()
	out := values[:0]
	for _, tr := range values {
		if t.expiredLocked(tr, now) {
			t.ended.Remove(tr.ID)
			continue
		}
		out = append(out, tr)
	}
	return out
}

func (t *Tracker) expiredLocked(tr Trace, now time.Time) bool {
	return now.Sub(tr.EndTime) >= t.retention
}

func finishOTel(span trace.Span, result Result, at time.Time) {
	if result.Success {
		span.SetStatus(codes.Ok, "")
	} else {
		span.SetStatus(codes.Error, result.Error)
	}
	span.End(trace.WithTimestamp(at))
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
