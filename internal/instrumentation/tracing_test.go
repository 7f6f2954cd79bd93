package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// withSpanRecorder installs a recording tracer provider for the test.
func withSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestSpanAttributeBuilder(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithIntegration("github-1", "github").
		WithPhase("redirecting").
		WithUser("jane@example.com").
		Build()

	if len(attrs) != 4 {
		t.Fatalf("expected 4 attributes, got %d", len(attrs))
	}

	attrMap := make(map[string]any)
	for _, attr := range attrs {
		attrMap[string(attr.Key)] = attr.Value.AsInterface()
	}

	want := map[string]any{
		SpanAttrIntegration: "github-1",
		SpanAttrProvider:    "github",
		SpanAttrPhase:       "redirecting",
		SpanAttrUserDomain:  "example.com",
	}
	for k, v := range want {
		if attrMap[k] != v {
			t.Errorf("attribute %s = %v, want %v", k, attrMap[k], v)
		}
	}
}

func TestSpanAttributeBuilder_EmptyValues(t *testing.T) {
	attrs := NewSpanAttributeBuilder().
		WithIntegration("", "").
		WithUser("").
		Build()

	if len(attrs) != 0 {
		t.Errorf("expected no attributes, got %d", len(attrs))
	}
}

func TestStartToolSpan(t *testing.T) {
	recorder := withSpanRecorder(t)

	_, span := StartToolSpan(context.Background(), "hub_set_identity")
	SetSpanSuccess(span)
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(ended))
	}
	if ended[0].Name() != "tool.hub_set_identity" {
		t.Errorf("span name = %q", ended[0].Name())
	}
	if ended[0].SpanKind() != trace.SpanKindServer {
		t.Errorf("span kind = %v, want server", ended[0].SpanKind())
	}
	if ended[0].Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", ended[0].Status().Code)
	}
}

func TestStartRelaySpan(t *testing.T) {
	recorder := withSpanRecorder(t)

	ctx, span := StartRelaySpan(context.Background())
	if GetTraceID(ctx) == "" || GetSpanID(ctx) == "" {
		t.Error("expected trace and span IDs in span context")
	}
	SetSpanError(span, errors.New("relay returned 502"))
	SetSpanError(span, nil) // nil error should be safe
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(ended))
	}
	got := ended[0]
	if got.Name() != "relay.deliver" {
		t.Errorf("span name = %q", got.Name())
	}
	if got.SpanKind() != trace.SpanKindClient {
		t.Errorf("span kind = %v, want client", got.SpanKind())
	}
	if got.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", got.Status().Code)
	}
	if len(got.Events()) != 1 {
		t.Errorf("expected one exception event, got %d", len(got.Events()))
	}
}

func TestStartSpan(t *testing.T) {
	recorder := withSpanRecorder(t)

	_, span := StartSpan(context.Background(), "hub.handle_load")
	span.End()

	if len(recorder.Ended()) != 1 {
		t.Errorf("expected 1 ended span, got %d", len(recorder.Ended()))
	}
}

func TestGetTraceID_NoSpan(t *testing.T) {
	if traceID := GetTraceID(context.Background()); traceID != "" {
		t.Errorf("expected empty trace ID for context without span, got %q", traceID)
	}
	if spanID := GetSpanID(context.Background()); spanID != "" {
		t.Errorf("expected empty span ID for context without span, got %q", spanID)
	}
}
