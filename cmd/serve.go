package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/clientworkaccess-cmd/integration--hub/internal/instrumentation"
	"github.com/clientworkaccess-cmd/integration--hub/internal/server"
	"github.com/clientworkaccess-cmd/integration--hub/internal/tools/hub_tools"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"
)

func newServeCmd() *cobra.Command {
	var (
		flags     hubFlags
		transport string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the integration hub server",
		Long: `Start the integration hub.

With the streamable-http transport (default) the server exposes:
  - GET  /                                  application URL; handles provider callbacks
  - GET  /api/state, /api/integrations      current state and catalog
  - POST /api/integrations/{id}/connect     start connecting an integration
  - POST /api/identity                      submit the user's email
  - POST /api/notices/dismiss               dismiss the current notice
  - GET  /api/events                        state changes as Server-Sent Events
  - /mcp                                    MCP tools
  - /healthz, /readyz                       health probes

With the stdio transport only the MCP tools are served. Completing an
authorization then requires the hub_complete_authorization tool.

MCP tools that change state are only registered with --yolo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, &flags, transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", transportStreamableHTTP, "Transport type: stdio or streamable-http")
	flags.addOAuthFlags(cmd)
	flags.addRelayFlags(cmd)
	flags.addStorageFlags(cmd)
	flags.addServeFlags(cmd)

	return cmd
}

func runServe(cmd *cobra.Command, flags *hubFlags, transport string) error {
	if transport != transportStdio && transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", transport)
	}

	cfg, err := flags.load(cmd)
	if err != nil {
		return err
	}
	if err := server.ValidateRedirectURL(cfg.RedirectURL); err != nil {
		return err
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := slog.Default()

	instrConfig, err := instrumentation.LoadConfig()
	if err != nil {
		return err
	}
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("error during instrumentation shutdown", slog.Any("error", err))
		}
	}()

	var metrics *instrumentation.Metrics
	if provider.Enabled() {
		metrics = provider.Metrics()
	}
	auditLogger := instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)

	app, err := newHubApp(shutdownCtx, cfg, hubAppOptions{
		Notifier: logNotifier{logger: logger},
		Metrics:  metrics,
		Audit:    auditLogger,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("error closing identity store", slog.Any("error", err))
		}
	}()

	serverContext, err := server.NewServerContext(shutdownCtx, app.hub, app.store)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Error("error during server context shutdown", slog.Any("error", err))
		}
	}()
	serverContext.SetMetrics(metrics)
	serverContext.SetAuditLogger(auditLogger)

	mcpSrv := mcpserver.NewMCPServer("integrationhub", version,
		mcpserver.WithToolCapabilities(true),
	)

	// readOnly is the inverse of yolo
	readOnly := !cfg.Yolo
	if readOnly {
		logger.Info("registering read-only MCP tools (use --yolo to enable state-changing tools)")
	} else {
		logger.Info("registering all MCP tools (--yolo is set)")
	}
	if err := hub_tools.RegisterHubTools(mcpSrv, serverContext, readOnly); err != nil {
		return fmt.Errorf("failed to register hub tools: %w", err)
	}

	switch transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	default:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, cfg, provider, logger)
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, serverContext *server.ServerContext, cfg hubEnv, provider *instrumentation.Provider, logger *slog.Logger) error {
	metricsServer, err := startMetricsServer(cfg, provider, logger)
	if err != nil {
		return err
	}

	healthChecker := server.NewHealthChecker(serverContext)
	httpServer, err := server.NewHTTPServer(serverContext, server.HTTPServerConfig{
		Addr: cfg.HTTPAddr,
		MCPHandler: mcpserver.NewStreamableHTTPServer(mcpSrv,
			mcpserver.WithEndpointPath(server.MCPEndpointPath),
		),
		Health: healthChecker,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	logger.Info("integration hub starting",
		slog.String("addr", cfg.HTTPAddr),
		slog.String("redirect_url", cfg.RedirectURL),
		slog.String("mcp_endpoint", server.MCPEndpointPath),
	)

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
	case err := <-serverDone:
		if err != nil {
			runErr = fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	healthChecker.SetReady(false)
	// Ends open event streams so that Shutdown does not wait for them.
	if err := serverContext.Shutdown(); err != nil {
		logger.Error("error during server context shutdown", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("error shutting down HTTP server: %w", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during metrics server shutdown", slog.Any("error", err))
		}
	}

	if runErr == nil {
		logger.Info("HTTP server gracefully stopped")
	}
	return runErr
}

// startMetricsServer starts the Prometheus endpoint when it is enabled and
// the provider exports to Prometheus. It returns nil otherwise.
func startMetricsServer(cfg hubEnv, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	if !cfg.MetricsEnabled || !provider.Enabled() {
		return nil, nil
	}
	if !provider.ServesPrometheus() {
		logger.Info("metrics server disabled: metrics exporter is not prometheus")
		return nil, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.MetricsAddr,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.MetricsAddr)
	if err != nil {
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	}
	go func() {
		if err := metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()
	return metricsServer, nil
}
