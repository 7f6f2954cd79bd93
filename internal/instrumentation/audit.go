package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/clientworkaccess-cmd/integration--hub/internal/logging"
)

// Connection lifecycle audit events.
const (
	EventConnectRequested    = "connect_requested"
	EventIdentityRequested   = "identity_requested"
	EventIdentityStored      = "identity_stored"
	EventConnectionSucceeded = "connection_succeeded"
	EventConnectionFailed    = "connection_failed"
)

// ToolInvocation captures information about an MCP tool call for audit logging.
//
// # Privacy Considerations
//
// UserEmail contains PII. It is only written in full when the AuditLogger
// is configured with IncludePII; otherwise a one-way hash is logged.
type ToolInvocation struct {
	Tool string

	// Pending identity at the time of the call, if any
	UserEmail string

	// Integration targeted by the tool, if any
	IntegrationID string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithUser sets the user identity information.
func (ti *ToolInvocation) WithUser(email string) *ToolInvocation {
	ti.UserEmail = email
	return ti
}

// WithIntegration sets the targeted integration.
func (ti *ToolInvocation) WithIntegration(id string) *ToolInvocation {
	ti.IntegrationID = id
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

func (ti *ToolInvocation) attrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	attrs = append(attrs, userAttrs(ti.UserEmail, includePII)...)
	if ti.IntegrationID != "" {
		attrs = append(attrs, slog.String("integration_id", ti.IntegrationID))
	}
	attrs = append(attrs, traceAttrs(ti.TraceID, ti.SpanID)...)
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}
	return attrs
}

// ConnectionEvent records one transition of the connection lifecycle.
type ConnectionEvent struct {
	Event         string
	IntegrationID string
	Provider      string
	Phase         string
	UserEmail     string
	Reason        string
	Duration      time.Duration
	TraceID       string
	SpanID        string
}

// NewConnectionEvent creates an event and captures the trace context of ctx.
func NewConnectionEvent(ctx context.Context, event string) *ConnectionEvent {
	return &ConnectionEvent{
		Event:   event,
		TraceID: GetTraceID(ctx),
		SpanID:  GetSpanID(ctx),
	}
}

func (ev *ConnectionEvent) attrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{slog.String("event", ev.Event)}
	if ev.IntegrationID != "" {
		attrs = append(attrs, slog.String("integration_id", ev.IntegrationID))
	}
	if ev.Provider != "" {
		attrs = append(attrs, slog.String("provider", ev.Provider))
	}
	if ev.Phase != "" {
		attrs = append(attrs, slog.String("phase", ev.Phase))
	}
	attrs = append(attrs, userAttrs(ev.UserEmail, includePII)...)
	if ev.Duration > 0 {
		attrs = append(attrs, slog.Duration("duration", ev.Duration))
	}
	if ev.Reason != "" {
		attrs = append(attrs, slog.String("reason", ev.Reason))
	}
	return append(attrs, traceAttrs(ev.TraceID, ev.SpanID)...)
}

func userAttrs(email string, includePII bool) []slog.Attr {
	if email == "" {
		return nil
	}
	if includePII {
		return []slog.Attr{slog.String("user", email)}
	}
	return []slog.Attr{
		logging.UserHash(email),
		slog.String("user_domain", ExtractUserDomain(email)),
	}
}

func traceAttrs(traceID, spanID string) []slog.Attr {
	var attrs []slog.Attr
	if traceID != "" {
		attrs = append(attrs, slog.String("trace_id", traceID))
	}
	if spanID != "" {
		attrs = append(attrs, slog.String("span_id", spanID))
	}
	return attrs
}

// AuditLogger provides structured audit logging for tool invocations and
// connection lifecycle events. A nil AuditLogger discards everything.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// By default, PII is not included in logs (hashed identifiers are used instead).
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs a completed tool invocation.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled || ti == nil {
		return
	}

	level := slog.LevelInfo
	msg := "tool_executed"
	if !ti.Success {
		level = slog.LevelWarn
		msg = "tool_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, ti.attrs(al.includePII)...)
}

// LogConnectionEvent logs a connection lifecycle transition.
// Failures are logged at warn level.
func (al *AuditLogger) LogConnectionEvent(ctx context.Context, ev *ConnectionEvent) {
	if al == nil || !al.enabled || ev == nil {
		return
	}

	level := slog.LevelInfo
	if ev.Event == EventConnectionFailed {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, ev.Event, ev.attrs(al.includePII)...)
}
