package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultHTTPAddr is the default listen address of the hub.
	DefaultHTTPAddr = ":8080"

	// MCPEndpointPath is where the MCP streamable HTTP handler is mounted.
	MCPEndpointPath = "/mcp"

	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	maxFormBytes             = 4 << 10
)

// HTTPServerConfig configures the hub HTTP server.
type HTTPServerConfig struct {
	Addr string

	// MCPHandler is mounted at MCPEndpointPath when set.
	MCPHandler http.Handler

	// Health registers the probe endpoints when set.
	Health *HealthChecker

	Logger *slog.Logger
}

// HTTPServer exposes the orchestrator over HTTP: the application URL that
// receives provider callbacks, a JSON API, a Server-Sent Events state
// stream and, optionally, MCP.
type HTTPServer struct {
	sc         *ServerContext
	cfg        HTTPServerConfig
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger
}

// NewHTTPServer creates the HTTP server. Call Start or Serve to run it.
func NewHTTPServer(sc *ServerContext, cfg HTTPServerConfig) (*HTTPServer, error) {
	if sc == nil {
		return nil, errors.New("server context is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultHTTPAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &HTTPServer{
		sc:     sc,
		cfg:    cfg,
		logger: cfg.Logger.With(slog.String("component", "http")),
	}
	s.handler = s.routes()
	// No write timeout: /api/events responses are long-lived. They end
	// with the server context; other requests drain on Shutdown.
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}
	return s, nil
}

func (s *HTTPServer) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleLoad)
	mux.HandleFunc("GET /callback", s.handleLoad)

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/integrations", s.handleIntegrations)
	mux.HandleFunc("POST /api/integrations/{id}/connect", s.handleConnect)
	mux.HandleFunc("POST /api/identity", s.handleIdentity)
	mux.HandleFunc("POST /api/notices/dismiss", s.handleDismiss)
	mux.HandleFunc("GET /api/events", s.handleEvents)

	if s.cfg.Health != nil {
		s.cfg.Health.RegisterHealthEndpoints(mux)
	}
	if s.cfg.MCPHandler != nil {
		mux.Handle(MCPEndpointPath, s.cfg.MCPHandler)
	}

	return chain(mux,
		s.recoverPanics,
		securityHeaders,
		s.requestID,
		s.recordMetrics,
	)
}

// Handler returns the root handler including middleware.
func (s *HTTPServer) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and blocks until shutdown.
func (s *HTTPServer) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ln)
}

// Serve serves on ln and blocks until shutdown.
func (s *HTTPServer) Serve(ln net.Listener) error {
	s.logger.Info("starting HTTP server", slog.String("addr", ln.Addr().String()))
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ValidateRedirectURL checks that the provider redirects back over HTTPS.
// Plain HTTP is allowed only for loopback hosts.
func ValidateRedirectURL(raw string) error {
	if raw == "" {
		return errors.New("redirect URL cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid redirect URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		host := u.Hostname()
		if host == "localhost" || net.ParseIP(host).IsLoopback() {
			return nil
		}
		return fmt.Errorf("redirect URL must use HTTPS outside localhost (got: %s)", raw)
	default:
		return fmt.Errorf("invalid URL scheme: %q. Must be http (localhost only) or https", u.Scheme)
	}
}
