package tracing

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestEndpointHost(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "strips http prefix", input: "http://localhost:4318", expected: "localhost:4318"},
		{name: "strips https prefix", input: "https://otel.example.com:4318", expected: "otel.example.com:4318"},
		{name: "returns unchanged when no scheme", input: "localhost:4318", expected: "localhost:4318"},
		{name: "handles empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := endpointHost(tt.input)
			if got != tt.expected {
				t.Errorf("endpointHost(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSpans(t *testing.T) {
	ctx := context.Background()

	t.Run("http request records success", func(t *testing.T) {
		returnedCtx, span := TraceHTTPRequest(ctx, "GET", "/tasks")
		if returnedCtx == nil || span == nil {
			t.Fatal("expected non-nil context and span")
		}
		TraceHTTPResponse(span, 200, nil)
		span.End()
	})

	t.Run("http request records error", func(t *testing.T) {
		_, span := TraceHTTPRequest(ctx, "PATCH", "/tasks/1")
		TraceHTTPResponse(span, 500, fmt.Errorf("server error"))
		span.End()
	})

	t.Run("store and board spans", func(t *testing.T) {
		_, span := TraceStoreQuery(ctx, "ListTasks")
		EndWithError(span, nil)

		_, span = TraceBoardIntent(ctx, "move", "3", "done")
		EndWithError(span, fmt.Errorf("rejected"))
	})
}

func TestShutdown(t *testing.T) {
	if err := Shutdown(context.Background()); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestPropagationRoundTrip(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	header := http.Header{}
	Inject(ctx, header)
	if header.Get("traceparent") == "" {
		t.Fatal("expected traceparent header")
	}

	got := trace.SpanContextFromContext(Extract(context.Background(), header))
	if got.TraceID() != traceID {
		t.Errorf("trace id = %s, want %s", got.TraceID(), traceID)
	}
	if !got.IsRemote() {
		t.Error("expected extracted span context to be remote")
	}
}
