// Package instrumentation provides OpenTelemetry metrics, tracing and audit
// logging for the integration hub.
//
// # Metrics
//
// HTTP:
//   - http_requests_total: requests by method, route pattern and status
//   - http_request_duration_seconds: request durations
//   - hub_state_subscribers: open state event streams
//
// Connection lifecycle:
//   - hub_connect_requests_total: connect requests by provider and result
//   - hub_callbacks_total: OAuth callbacks by result
//   - relay_deliveries_total: webhook deliveries by status and status class
//   - relay_delivery_duration_seconds: webhook delivery durations
//
// MCP tools:
//   - mcp_tool_invocations_total: tool invocations by tool and status
//   - mcp_tool_duration_seconds: tool execution durations
//
// # Tracing
//
// Spans are created for tool invocations (tool.<name>), callback handling
// and webhook deliveries (relay.deliver, client kind).
//
// # Configuration
//
// LoadConfig reads INSTRUMENTATION_ENABLED, METRICS_EXPORTER,
// TRACING_EXPORTER, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_TRACES_SAMPLER_ARG,
// OTEL_SERVICE_NAME, METRICS_DETAILED_LABELS and the AUDIT_LOGGING_* variables.
//
//	cfg, err := instrumentation.LoadConfig()
//	if err != nil {
//		return err
//	}
//	provider, err := instrumentation.NewProvider(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordConnectRequest(ctx, "github", instrumentation.ConnectResultRedirect)
package instrumentation
