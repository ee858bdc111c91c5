package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	clientTracerName = "kanboard-taskclient"
	storeTracerName  = "kanboard-db"
	boardTracerName  = "kanboard-board"
)

// TraceHTTPRequest starts a span for an HTTP call to the Task API.
// Caller must call span.End() when the response is received.
func TraceHTTPRequest(ctx context.Context, method, path string) (context.Context, trace.Span) {
	ctx, span := Tracer(clientTracerName).Start(ctx, "http."+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)
	return ctx, span
}

// TraceHTTPResponse records response attributes on the span.
func TraceHTTPResponse(span trace.Span, statusCode int, err error) {
	span.SetAttributes(attribute.Int("http.status_code", statusCode))
	recordError(span, err)
}

// TraceStoreQuery starts a span for a task store query.
func TraceStoreQuery(ctx context.Context, op string) (context.Context, trace.Span) {
	return Tracer(storeTracerName).Start(ctx, "db."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// TraceBoardIntent starts a span for a coordinator intent such as a move.
func TraceBoardIntent(ctx context.Context, intent, taskID, column string) (context.Context, trace.Span) {
	ctx, span := Tracer(boardTracerName).Start(ctx, "board."+intent,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("task_id", taskID),
		attribute.String("column", column),
	)
	return ctx, span
}

// EndWithError records err on the span, if any, and ends it.
func EndWithError(span trace.Span, err error) {
	recordError(span, err)
	span.End()
}

func recordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
