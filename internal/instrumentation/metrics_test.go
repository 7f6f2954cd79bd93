package instrumentation

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newManualMetrics returns a Metrics recorder backed by a manual reader so
// tests can inspect what was recorded.
func newManualMetrics(t *testing.T, detailedLabels bool) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"), detailedLabels)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// counterPoints returns the data points of the named int64 counter.
func counterPoints(t *testing.T, reader *sdkmetric.ManualReader, name string) []metricdata.DataPoint[int64] {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != name {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is %T, not an int64 sum", name, md.Data)
			}
			return sum.DataPoints
		}
	}
	return nil
}

func attrValue(set attribute.Set, key string) string {
	v, ok := set.Value(attribute.Key(key))
	if !ok {
		return ""
	}
	return v.AsString()
}

func TestMetrics_RecordHTTPRequest(t *testing.T) {
	m, reader := newManualMetrics(t, false)
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, "GET", "/api/state", 200, 10*time.Millisecond)
	m.RecordHTTPRequest(ctx, "GET", "/api/state", 200, 20*time.Millisecond)
	m.RecordHTTPRequest(ctx, "POST", "/api/identity", 400, 5*time.Millisecond)

	points := counterPoints(t, reader, "http_requests_total")
	if len(points) != 2 {
		t.Fatalf("expected 2 series, got %d", len(points))
	}
	for _, p := range points {
		switch attrValue(p.Attributes, attrPath) {
		case "/api/state":
			if p.Value != 2 {
				t.Errorf("/api/state count = %d, want 2", p.Value)
			}
		case "/api/identity":
			if attrValue(p.Attributes, attrStatus) != "400" {
				t.Errorf("unexpected status label %q", attrValue(p.Attributes, attrStatus))
			}
		default:
			t.Errorf("unexpected path label %q", attrValue(p.Attributes, attrPath))
		}
	}
}

func TestMetrics_RecordRelayDelivery(t *testing.T) {
	m, reader := newManualMetrics(t, false)
	ctx := context.Background()

	m.RecordRelayDelivery(ctx, StatusSuccess, 200, 100*time.Millisecond)
	m.RecordRelayDelivery(ctx, StatusError, 502, 50*time.Millisecond)
	m.RecordRelayDelivery(ctx, StatusError, 0, time.Second)

	classes := map[string]int64{}
	for _, p := range counterPoints(t, reader, "relay_deliveries_total") {
		classes[attrValue(p.Attributes, attrStatusClass)] += p.Value
	}
	want := map[string]int64{"2xx": 1, "5xx": 1, "transport": 1}
	for k, v := range want {
		if classes[k] != v {
			t.Errorf("status_class %s = %d, want %d", k, classes[k], v)
		}
	}
}

func TestMetrics_RecordConnectRequest(t *testing.T) {
	m, reader := newManualMetrics(t, false)
	ctx := context.Background()

	m.RecordConnectRequest(ctx, "github", ConnectResultRedirect)
	m.RecordConnectRequest(ctx, "none", ConnectResultUnsupported)
	m.RecordConnectRequest(ctx, "github", ConnectResultRedirect)

	results := map[string]int64{}
	for _, p := range counterPoints(t, reader, "hub_connect_requests_total") {
		results[attrValue(p.Attributes, attrResult)] += p.Value
	}
	if results[ConnectResultRedirect] != 2 || results[ConnectResultUnsupported] != 1 {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestMetrics_RecordCallback_DetailedLabels(t *testing.T) {
	tests := []struct {
		name     string
		detailed bool
		want     string
	}{
		{name: "default", detailed: false, want: ""},
		{name: "detailed", detailed: true, want: "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, reader := newManualMetrics(t, tt.detailed)
			m.RecordCallback(context.Background(), CallbackResultSucceeded, "jane@example.com")

			points := counterPoints(t, reader, "hub_callbacks_total")
			if len(points) != 1 {
				t.Fatalf("expected 1 series, got %d", len(points))
			}
			if got := attrValue(points[0].Attributes, attrUserDomain); got != tt.want {
				t.Errorf("user_domain = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMetrics_RecordToolInvocation(t *testing.T) {
	m, reader := newManualMetrics(t, false)

	m.RecordToolInvocation(context.Background(), "hub_list_integrations", StatusSuccess, time.Millisecond)

	points := counterPoints(t, reader, "mcp_tool_invocations_total")
	if len(points) != 1 || points[0].Value != 1 {
		t.Fatalf("unexpected points: %+v", points)
	}
	if attrValue(points[0].Attributes, attrTool) != "hub_list_integrations" {
		t.Errorf("tool label = %q", attrValue(points[0].Attributes, attrTool))
	}
}

func TestMetrics_StateSubscribers(t *testing.T) {
	m, reader := newManualMetrics(t, false)
	ctx := context.Background()

	m.IncrementStateSubscribers(ctx)
	m.IncrementStateSubscribers(ctx)
	m.DecrementStateSubscribers(ctx)

	points := counterPoints(t, reader, "hub_state_subscribers")
	if len(points) != 1 || points[0].Value != 1 {
		t.Fatalf("expected gauge value 1, got %+v", points)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()

	for name, m := range map[string]*Metrics{"zero": {}, "nil": nil} {
		t.Run(name, func(t *testing.T) {
			// Should not panic
			m.RecordHTTPRequest(ctx, "GET", "/", 200, time.Millisecond)
			m.RecordRelayDelivery(ctx, StatusSuccess, 200, time.Millisecond)
			m.RecordConnectRequest(ctx, "github", ConnectResultRedirect)
			m.RecordCallback(ctx, CallbackResultSucceeded, "a@b.c")
			m.RecordToolInvocation(ctx, "tool", StatusSuccess, time.Millisecond)
			m.IncrementStateSubscribers(ctx)
			m.DecrementStateSubscribers(ctx)
		})
	}
}
