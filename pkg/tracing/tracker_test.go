package tracing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// fakeClock advances only when told to
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestTracker(t *testing.T, retention time.Duration) (*Tracker, *fakeClock, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	clock := newFakeClock()
	tracker := NewTracker(Options{
		Retention: retention,
		Tracer:    provider.Tracer("test"),
		Now:       clock.Now,
	})
	return tracker, clock, recorder
}

func TestTracker_Lifecycle(t *testing.T) {
	tracker, clock, _ := newTestTracker(t, time.Minute)

	ctx := tracker.StartTrace(context.Background(), "t1", map[string]string{"operation": "GET /users"})
	assert.Equal(t, "t1", TraceIDFromContext(ctx))

	clock.Advance(10 * time.Millisecond)
	spanID := tracker.StartSpan("t1", "s1", "op", "")
	require.Equal(t, "s1", spanID)

	clock.Advance(25 * time.Millisecond)
	tracker.EndSpan("t1", "s1", Result{Success: true})

	clock.Advance(5 * time.Millisecond)
	tracker.EndTrace("t1", Result{Success: true})

	tr, ok := tracker.Trace("t1")
	require.True(t, ok)
	assert.Equal(t, StatusEnded, tr.Status)
	assert.Equal(t, 40*time.Millisecond, tr.Duration)
	assert.Equal(t, tr.EndTime.Sub(tr.StartTime), tr.Duration)
	require.Len(t, tr.Spans, 1)
	assert.Equal(t, 25*time.Millisecond, tr.Spans[0].Duration)
	assert.True(t, tr.Spans[0].Result.Success)
	assert.Equal(t, "t1", tr.Spans[0].TraceID)
}

func TestTracker_EndedTraceExpires(t *testing.T) {
	tracker, _, _ := newTestTracker(t, 50*time.Millisecond)

	tracker.StartTrace(context.Background(), "t1", nil)
	tracker.StartSpan("t1", "s1", "op", "")
	tracker.EndSpan("t1", "s1", Result{Success: true})
	tracker.EndTrace("t1", Result{Success: true})

	assert.Len(t, tracker.ActiveTraces(), 1, "ended trace stays visible during retention")

	require.Eventually(t, func() bool {
		_, ok := tracker.Trace("t1")
		return !ok && len(tracker.ActiveTraces()) == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, tracker.Len())
}

func TestTracker_RetentionFollowsClock(t *testing.T) {
	tracker, clock, _ := newTestTracker(t, time.Minute)

	tracker.StartTrace(context.Background(), "t1", nil)
	tracker.EndTrace("t1", Result{Success: true})
	tracker.StartTrace(context.Background(), "t2", nil)

	clock.Advance(59 * time.Second)
	_, ok := tracker.Trace("t1")
	assert.True(t, ok)
	assert.Equal(t, 2, tracker.Len())

	clock.Advance(time.Second)
	_, ok = tracker.Trace("t1")
	assert.False(t, ok, "ended trace disappears once retention elapses")
	assert.Equal(t, 1, tracker.Len())
	traces := tracker.ActiveTraces()
	require.Len(t, traces, 1)
	assert.Equal(t, "t2", traces[0].ID)
}

func TestTracker_UnknownIDsAreNoOps(t *testing.T) {
	tracker, _, _ := newTestTracker(t, time.Minute)

	assert.Equal(t, "", tracker.StartSpan("missing", "s1", "op", ""))
	tracker.EndSpan("missing", "s1", Result{Success: true})
	tracker.EndTrace("missing", Result{Success: true})
	assert.Equal(t, 0, tracker.Len())

	tracker.StartTrace(context.Background(), "t1", nil)
	tracker.EndSpan("t1", "nope", Result{Success: false})

	tr, ok := tracker.Trace("t1")
	require.True(t, ok)
	assert.Empty(t, tr.Spans)
	assert.Equal(t, StatusStarted, tr.Status)
}

func TestTracker_GeneratedIDs(t *testing.T) {
	tracker, _, _ := newTestTracker(t, time.Minute)

	ctx := tracker.StartTrace(context.Background(), "", nil)
	traceID := TraceIDFromContext(ctx)
	require.NotEmpty(t, traceID)

	spanID := tracker.StartSpan(traceID, "", "op", "")
	assert.NotEmpty(t, spanID)
}

func TestTracker_ParentLinkageNotValidated(t *testing.T) {
	tracker, _, _ := newTestTracker(t, time.Minute)
	tracker.StartTrace(context.Background(), "t1", nil)

	tracker.StartSpan("t1", "child", "op", "does-not-exist")
	tr, _ := tracker.Trace("t1")
	require.Len(t, tr.Spans, 1)
	assert.Equal(t, "does-not-exist", tr.Spans[0].ParentSpanID)
}

func TestTracker_EndSpanTwiceKeepsFirstResult(t *testing.T) {
	tracker, clock, _ := newTestTracker(t, time.Minute)
	tracker.StartTrace(context.Background(), "t1", nil)
	tracker.StartSpan("t1", "s1", "op", "")

	clock.Advance(time.Millisecond)
	tracker.EndSpan("t1", "s1", Result{Success: true})
	clock.Advance(time.Second)
	tracker.EndSpan("t1", "s1", Result{Success: false, Error: "late"})

	tr, _ := tracker.Trace("t1")
	assert.True(t, tr.Spans[0].Result.Success)
	assert.Equal(t, time.Millisecond, tr.Spans[0].Duration)
}

func TestTracker_ReturnsCopies(t *testing.T) {
	tracker, _, _ := newTestTracker(t, time.Minute)
	tracker.StartTrace(context.Background(), "t1", map[string]string{"k": "v"})
	tracker.StartSpan("t1", "s1", "op", "")

	tr, _ := tracker.Trace("t1")
	tr.Metadata["k"] = "mutated"
	tr.Spans[0].Operation = "mutated"

	again, _ := tracker.Trace("t1")
	assert.Equal(t, "v", again.Metadata["k"])
	assert.Equal(t, "op", again.Spans[0].Operation)
}

func TestTracker_MirrorsOTelSpans(t *testing.T) {
	tracker, _, recorder := newTestTracker(t, time.Minute)

	tracker.StartTrace(context.Background(), "t1", map[string]string{"operation": "checkout"})
	tracker.StartSpan("t1", "s1", "db.orders.insert", "")
	tracker.StartSpan("t1", "s2", "payment", "s1")
	tracker.EndSpan("t1", "s2", Result{Success: false, Error: "card declined"})
	tracker.EndSpan("t1", "s1", Result{Success: true})
	tracker.EndTrace("t1", Result{Success: false, Error: "card declined"})

	ended := recorder.Ended()
	require.Len(t, ended, 3)

	byName := make(map[string]sdktrace.ReadOnlySpan)
	for _, s := range ended {
		byName[s.Name()] = s
	}
	require.Contains(t, byName, "checkout")
	require.Contains(t, byName, "payment")

	root := byName["checkout"]
	payment := byName["payment"]
	assert.Equal(t, codes.Error, payment.Status().Code)
	assert.Equal(t, "card declined", payment.Status().Description)
	assert.Equal(t, byName["db.orders.insert"].SpanContext().SpanID(), payment.Parent().SpanID())
	assert.Equal(t, root.SpanContext().TraceID(), payment.SpanContext().TraceID())
}

func TestTracker_ActiveTracesOrdered(t *testing.T) {
	tracker, clock, _ := newTestTracker(t, time.Minute)

	for _, id := range []string{"a", "b", "c"} {
		tracker.StartTrace(context.Background(), id, nil)
		clock.Advance(time.Millisecond)
	}
	tracker.EndTrace("b", Result{Success: true})

	traces := tracker.ActiveTraces()
	require.Len(t, traces, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{traces[0].ID, traces[1].ID, traces[2].ID})
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker(Options{Retention: time.Minute})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx := tracker.StartTrace(context.Background(), "", nil)
			id := TraceIDFromContext(ctx)
			span := tracker.StartSpan(id, "", "op", "")
			tracker.EndSpan(id, span, Result{Success: true})
			tracker.EndTrace(id, Result{Success: true})
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, tracker.Len())
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, TraceIDFromContext(ctx))
	assert.Empty(t, SpanIDFromContext(ctx))

	ctx = WithSpan(ctx, "t1", "s1")
	assert.Equal(t, "t1", TraceIDFromContext(ctx))
	assert.Equal(t, "s1", SpanIDFromContext(ctx))
}
