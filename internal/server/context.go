package server

import (
	"context"
	"errors"
	"sync"

	"github.com/clientworkaccess-cmd/integration--hub/internal/hub"
	"github.com/clientworkaccess-cmd/integration--hub/internal/identity"
	"github.com/clientworkaccess-cmd/integration--hub/internal/instrumentation"
)

// ServerContext holds the dependencies shared by the HTTP surface and the
// MCP tools.
type ServerContext struct {
	ctx         context.Context
	cancel      context.CancelFunc
	hub         *hub.Orchestrator
	store       identity.Store
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	mu          sync.RWMutex
	shutdown    bool
}

// NewServerContext creates a new server context around the orchestrator.
// store is used for readiness checks and may be nil.
func NewServerContext(ctx context.Context, orchestrator *hub.Orchestrator, store identity.Store) (*ServerContext, error) {
	if orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:    shutdownCtx,
		cancel: cancel,
		hub:    orchestrator,
		store:  store,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Hub returns the connection orchestrator.
func (sc *ServerContext) Hub() *hub.Orchestrator {
	return sc.hub
}

// Store returns the identity store, or nil.
func (sc *ServerContext) Store() identity.Store {
	return sc.store
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetMetrics sets the metrics recorder.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// AuditLogger returns the audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// SetAuditLogger sets the audit logger.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. Open event streams end with it.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
