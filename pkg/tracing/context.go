package tracing

import "context"

type spanKey struct{}

type spanRef struct {
	traceID string
	spanID  string
}

// WithSpan returns a context carrying the current trace and span ids
func WithSpan(ctx context.Context, traceID, spanID string) context.Context {
	return context.WithValue(ctx, spanKey{}, spanRef{traceID: traceID, spanID: spanID})
}

// TraceIDFromContext returns the current trace id or ""
func TraceIDFromContext(ctx context.Context) string {
	if ref, ok := ctx.Value(spanKey{}).(spanRef); ok {
		return ref.traceID
	}
	return ""
}

// SpanIDFromContext returns the current span id or ""
func SpanIDFromContext(ctx context.Context) string {
	if ref, ok := ctx.Value(spanKey{}).(spanRef); ok {
		return ref.spanID
	}
	return ""
}
