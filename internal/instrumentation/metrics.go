package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	// Common attributes (reused across metrics)
	attrMethod      = "method"
	attrPath        = "path"
	attrStatus      = "status"
	attrResult      = "result"
	attrTool        = "tool"
	attrProvider    = "provider"
	attrStatusClass = "status_class"
	attrUserDomain  = "user_domain"
)

// Metrics provides methods for recording observability metrics.
// A zero or nil Metrics is a valid no-op recorder.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	stateSubscribers    metric.Int64UpDownCounter

	// Relay metrics
	relayDeliveriesTotal  metric.Int64Counter
	relayDeliveryDuration metric.Float64Histogram

	// Connection lifecycle metrics
	connectRequestsTotal metric.Int64Counter
	callbacksTotal       metric.Int64Counter

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Configuration
	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	m.stateSubscribers, err = meter.Int64UpDownCounter(
		"hub_state_subscribers",
		metric.WithDescription("Number of open connection state event streams"),
		metric.WithUnit("{subscriber}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create hub_state_subscribers gauge: %w", err)
	}

	// Relay Metrics
	m.relayDeliveriesTotal, err = meter.Int64Counter(
		"relay_deliveries_total",
		metric.WithDescription("Total number of webhook relay deliveries"),
		metric.WithUnit("{delivery}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create relay_deliveries_total counter: %w", err)
	}

	m.relayDeliveryDuration, err = meter.Float64Histogram(
		"relay_delivery_duration_seconds",
		metric.WithDescription("Webhook relay delivery duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create relay_delivery_duration_seconds histogram: %w", err)
	}

	// Connection lifecycle Metrics
	m.connectRequestsTotal, err = meter.Int64Counter(
		"hub_connect_requests_total",
		metric.WithDescription("Total number of integration connect requests by result"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create hub_connect_requests_total counter: %w", err)
	}

	m.callbacksTotal, err = meter.Int64Counter(
		"hub_callbacks_total",
		metric.WithDescription("Total number of OAuth callbacks handled by result"),
		metric.WithUnit("{callback}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create hub_callbacks_total counter: %w", err)
	}

	// MCP Tool Metrics
	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, route, status code, and duration.
// path should be a route pattern, not the raw request path (see RoutePattern).
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordRelayDelivery records one webhook delivery attempt.
//
// Parameters:
//   - status: Result status ("success" or "error")
//   - statusCode: HTTP status returned by the relay, 0 on transport failure
//   - duration: Time taken for the delivery
func (m *Metrics) RecordRelayDelivery(ctx context.Context, status string, statusCode int, duration time.Duration) {
	if m == nil || m.relayDeliveriesTotal == nil || m.relayDeliveryDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrStatus, status),
		attribute.String(attrStatusClass, StatusClass(statusCode)),
	}

	m.relayDeliveriesTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.relayDeliveryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordConnectRequest records a connect request outcome.
// Result should be one of the ConnectResult* constants.
func (m *Metrics) RecordConnectRequest(ctx context.Context, provider, result string) {
	if m == nil || m.connectRequestsTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrProvider, provider),
		attribute.String(attrResult, result),
	}

	m.connectRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCallback records the outcome of handling an OAuth callback.
// Result should be one of the CallbackResult* constants. userEmail is only
// reduced to its domain and attached when detailed labels are enabled.
func (m *Metrics) RecordCallback(ctx context.Context, result, userEmail string) {
	if m == nil || m.callbacksTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrResult, result),
	}
	if m.detailedLabels && userEmail != "" {
		attrs = append(attrs, attribute.String(attrUserDomain, ExtractUserDomain(userEmail)))
	}

	m.callbacksTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
//
// Parameters:
//   - toolName: Name of the MCP tool (e.g., "hub_connect_integration")
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the tool execution
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// IncrementStateSubscribers increments the open event stream gauge.
func (m *Metrics) IncrementStateSubscribers(ctx context.Context) {
	if m == nil || m.stateSubscribers == nil {
		return // Instrumentation not initialized
	}

	m.stateSubscribers.Add(ctx, 1)
}

// DecrementStateSubscribers decrements the open event stream gauge.
func (m *Metrics) DecrementStateSubscribers(ctx context.Context) {
	if m == nil || m.stateSubscribers == nil {
		return // Instrumentation not initialized
	}

	m.stateSubscribers.Add(ctx, -1)
}
