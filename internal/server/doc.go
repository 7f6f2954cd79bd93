// Package server exposes the integration hub over HTTP.
//
// # Key Components
//
// ServerContext holds the connection orchestrator together with optional
// metrics and audit logging. It is shared by the HTTP handlers and the MCP
// tools so that every surface drives the same state machine.
//
// HTTPServer serves:
//   - GET / and GET /callback: the application URL. A provider callback
//     carrying ?code= is relayed to the webhook; on success the response is
//     303 See Other to the same URL without the code, on failure the state
//     document is returned and the code stays in the URL
//   - /api/state, /api/integrations and the connect, identity and dismiss
//     actions as JSON
//   - /api/events: a Server-Sent Events stream of state snapshots
//   - /healthz, /readyz, /healthz/detailed via HealthChecker
//   - /mcp when an MCP handler is configured
//
// MetricsServer serves Prometheus metrics on a separate port.
//
// # Security
//
// Every response carries nosniff, DENY framing and no-referrer headers so
// callback codes never leak through the Referer header. Errors are JSON
// bodies of the form {"error": ..., "error_description": ...}.
package server
