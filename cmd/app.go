package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clientworkaccess-cmd/integration--hub/internal/catalog"
	"github.com/clientworkaccess-cmd/integration--hub/internal/gateway"
	"github.com/clientworkaccess-cmd/integration--hub/internal/hub"
	"github.com/clientworkaccess-cmd/integration--hub/internal/identity"
	"github.com/clientworkaccess-cmd/integration--hub/internal/instrumentation"
	"github.com/clientworkaccess-cmd/integration--hub/internal/relay"
)

// hubApp bundles the orchestrator with the resources it owns.
type hubApp struct {
	store   identity.Store
	hub     *hub.Orchestrator
	gateway *gateway.Gateway
	relay   *relay.Client
}

// hubAppOptions carries optional collaborators for newHubApp.
type hubAppOptions struct {
	Notifier hub.Notifier
	Metrics  *instrumentation.Metrics
	Audit    *instrumentation.AuditLogger
	Logger   *slog.Logger
}

// newHubApp opens the identity store and wires the orchestrator from cfg.
func newHubApp(ctx context.Context, cfg hubEnv, opts hubAppOptions) (*hubApp, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	gw, err := gateway.New(cfg.gatewayConfig())
	if err != nil {
		return nil, fmt.Errorf("invalid OAuth configuration: %w", err)
	}

	rc, err := relay.New(cfg.relayConfig(),
		relay.WithMetrics(opts.Metrics),
		relay.WithLogger(opts.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid relay configuration: %w", err)
	}

	store, err := identity.NewStore(ctx, cfg.identityConfig(), opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open identity store: %w", err)
	}

	orchestrator, err := hub.New(hub.Config{Provider: catalog.ProviderGitHub}, hub.Deps{
		Store:    store,
		Catalog:  catalog.Default(),
		Gateway:  gw,
		Relay:    rc,
		Notifier: opts.Notifier,
		Metrics:  opts.Metrics,
		Audit:    opts.Audit,
		Logger:   opts.Logger,
	})
	if err != nil {
		return nil, errors.Join(err, identity.Close(store))
	}

	return &hubApp{
		store:   store,
		hub:     orchestrator,
		gateway: gw,
		relay:   rc,
	}, nil
}

// Close releases the identity store.
func (a *hubApp) Close() error {
	return identity.Close(a.store)
}
