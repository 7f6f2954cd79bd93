package hub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/clientworkaccess-cmd/integration--hub/internal/catalog"
	"github.com/clientworkaccess-cmd/integration--hub/internal/gateway"
	"github.com/clientworkaccess-cmd/integration--hub/internal/identity"
	"github.com/clientworkaccess-cmd/integration--hub/internal/instrumentation"
	"github.com/clientworkaccess-cmd/integration--hub/internal/logging"
)

// AuthorizationURLBuilder builds the provider authorization URL.
type AuthorizationURLBuilder interface {
	AuthorizationURL() string
}

// Deliverer relays an authorization code and email to the webhook.
type Deliverer interface {
	Deliver(ctx context.Context, code, email string) error
}

// Notifier receives prompts the orchestrator cannot resolve on its own.
// Methods are called without holding the orchestrator lock.
type Notifier interface {
	// NotifyUnsupported is called when connect is requested for an
	// integration without an OAuth path.
	NotifyUnsupported(ctx context.Context, name string)

	// RequestIdentity asks the user for an email. It is called at most once
	// per missing-identity episode; the answer comes back via SubmitIdentity.
	RequestIdentity(ctx context.Context, integration catalog.Integration)
}

// NopNotifier ignores all notifications.
type NopNotifier struct{}

func (NopNotifier) NotifyUnsupported(context.Context, string)            {}
func (NopNotifier) RequestIdentity(context.Context, catalog.Integration) {}

// Config configures the orchestrator.
type Config struct {
	// Provider is the OAuth provider whose callbacks are handled.
	// Catalog entries with this provider are activated on success.
	Provider catalog.Provider

	// ProviderName is used in user-facing messages (default: "GitHub").
	ProviderName string
}

// Deps are the collaborators of the orchestrator. Store, Catalog, Gateway
// and Relay are required.
type Deps struct {
	Store    identity.Store
	Catalog  *catalog.Catalog
	Gateway  AuthorizationURLBuilder
	Relay    Deliverer
	Notifier Notifier
	Metrics  *instrumentation.Metrics
	Audit    *instrumentation.AuditLogger
	Logger   *slog.Logger
}

// LoadResult is returned by HandleLoad.
type LoadResult struct {
	Outcome LoadOutcome
	// CleanURL is the URL with callback parameters removed. It is only set
	// on success; after a failure the code stays visible so that reloading
	// retries the delivery.
	CleanURL *url.URL
	Reason   string
}

// Orchestrator drives the connection lifecycle.
type Orchestrator struct {
	cfg      Config
	store    identity.Store
	catalog  *catalog.Catalog
	gateway  AuthorizationURLBuilder
	relay    Deliverer
	notifier Notifier
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
	logger   *slog.Logger

	mu      sync.Mutex
	state   state
	email   string
	version uint64
	subs    map[*subscriber]struct{}
}

// New creates an orchestrator in PhaseIdle.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	var missing []error
	if deps.Store == nil {
		missing = append(missing, errors.New("identity store is required"))
	}
	if deps.Catalog == nil {
		missing = append(missing, errors.New("catalog is required"))
	}
	if deps.Gateway == nil {
		missing = append(missing, errors.New("gateway is required"))
	}
	if deps.Relay == nil {
		missing = append(missing, errors.New("relay is required"))
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	if cfg.Provider == catalog.ProviderNone {
		cfg.Provider = catalog.ProviderGitHub
	}
	if cfg.ProviderName == "" {
		cfg.ProviderName = "GitHub"
	}
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &Orchestrator{
		cfg:      cfg,
		store:    deps.Store,
		catalog:  deps.Catalog,
		gateway:  deps.Gateway,
		relay:    deps.Relay,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		audit:    deps.Audit,
		logger:   deps.Logger.With(slog.String("component", "hub")),
		state:    state{phase: PhaseIdle},
		subs:     make(map[*subscriber]struct{}),
	}, nil
}

// Catalog returns the integration catalog.
func (o *Orchestrator) Catalog() *catalog.Catalog {
	return o.catalog
}

// RequestConnect starts connecting the integration with the given ID.
//
// Unsupported integrations raise a notice and return ErrUnsupported without
// changing state. Without a stored identity the phase becomes
// AwaitingIdentity and the Notifier is asked for an email, once per
// episode. With an identity the phase becomes Redirecting and the
// authorization URL is returned.
func (o *Orchestrator) RequestConnect(ctx context.Context, integrationID string) (ConnectResult, error) {
	logger := logging.WithIntegration(o.logger, integrationID)

	integration, ok := o.catalog.FindByID(integrationID)
	if !ok {
		o.metrics.RecordConnectRequest(ctx, catalog.ProviderNone.String(), instrumentation.ConnectResultNotFound)
		return ConnectResult{}, fmt.Errorf("%w: %q", ErrIntegrationNotFound, integrationID)
	}
	provider := integration.Provider.String()

	if !integration.SupportsOAuth() {
		o.metrics.RecordConnectRequest(ctx, provider, instrumentation.ConnectResultUnsupported)
		logger.InfoContext(ctx, "connect requested for unsupported integration")
		o.notifier.NotifyUnsupported(ctx, integration.Name)
		return ConnectResult{Integration: integration}, fmt.Errorf("%s: %w", integration.Name, ErrUnsupported)
	}

	o.mu.Lock()
	if o.state.phase == PhaseConnecting {
		o.mu.Unlock()
		o.metrics.RecordConnectRequest(ctx, provider, instrumentation.ConnectResultInProgress)
		return ConnectResult{Integration: integration}, ErrConnectionInProgress
	}

	email, present, err := o.loadIdentityLocked(ctx)
	if err != nil {
		o.mu.Unlock()
		o.metrics.RecordConnectRequest(ctx, provider, instrumentation.ConnectResultError)
		return ConnectResult{Integration: integration}, err
	}

	if !present {
		prompt := o.state.phase != PhaseAwaitingIdentity
		if prompt {
			o.transitionLocked(state{phase: PhaseAwaitingIdentity, integrationID: integration.ID})
		}
		o.mu.Unlock()

		o.metrics.RecordConnectRequest(ctx, provider, instrumentation.ConnectResultIdentityRequired)
		if prompt {
			o.auditEvent(ctx, instrumentation.EventIdentityRequested, integration, "", "")
			o.notifier.RequestIdentity(ctx, integration)
		}
		return ConnectResult{
			Outcome:     ConnectIdentityRequired,
			Integration: integration,
			Prompted:    prompt,
		}, nil
	}

	o.transitionLocked(state{phase: PhaseRedirecting, integrationID: integration.ID})
	o.mu.Unlock()

	o.metrics.RecordConnectRequest(ctx, provider, instrumentation.ConnectResultRedirect)
	o.auditEvent(ctx, instrumentation.EventConnectRequested, integration, email, "")
	logger.InfoContext(ctx, "redirecting to provider", logging.UserHash(email))

	return ConnectResult{
		Outcome:     ConnectRedirect,
		RedirectURL: o.gateway.AuthorizationURL(),
		Integration: integration,
	}, nil
}

// SubmitIdentity validates and stores email, moves to Redirecting and
// returns the authorization URL the caller must navigate to.
func (o *Orchestrator) SubmitIdentity(ctx context.Context, email string) (string, error) {
	email, err := identity.ValidateEmail(email)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}

	o.mu.Lock()
	if o.state.phase == PhaseConnecting {
		o.mu.Unlock()
		return "", ErrConnectionInProgress
	}

	if err := o.store.Set(ctx, email); err != nil {
		o.mu.Unlock()
		return "", fmt.Errorf("failed to store identity: %w", err)
	}
	o.email = email

	integrationID := o.state.integrationID
	if integrationID == "" {
		integrationID = o.firstProviderIntegrationID()
	}
	o.transitionLocked(state{phase: PhaseRedirecting, integrationID: integrationID})
	o.mu.Unlock()

	integration, _ := o.catalog.FindByID(integrationID)
	o.auditEvent(ctx, instrumentation.EventIdentityStored, integration, email, "")
	o.logger.InfoContext(ctx, "identity stored", logging.UserHash(email))

	return o.gateway.AuthorizationURL(), nil
}

// HandleLoad processes the application URL on (re)load. When it carries an
// authorization code the code is relayed to the webhook together with the
// stored identity; a provider error fails the attempt without delivery.
//
// Once issued, the webhook call is not cancelled with ctx; it runs until
// the relay timeout or completion, so a delivered code is never reported
// as failed because the caller went away.
func (o *Orchestrator) HandleLoad(ctx context.Context, current *url.URL) (LoadResult, error) {
	cbErr := gateway.ExtractCallbackError(current)
	code, hasCode := gateway.ExtractCallbackCode(current)
	if cbErr == nil && !hasCode {
		return LoadResult{Outcome: LoadNoCallback}, nil
	}

	ctx, span := instrumentation.StartSpan(ctx, "hub.handle_load")
	defer span.End()
	defer func() {
		span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithPhase(string(o.Phase())).Build()...)
	}()

	o.mu.Lock()
	if o.state.phase == PhaseConnecting {
		o.mu.Unlock()
		o.metrics.RecordCallback(ctx, instrumentation.CallbackResultInProgress, "")
		instrumentation.SetSpanError(span, ErrConnectionInProgress)
		return LoadResult{}, ErrConnectionInProgress
	}
	integrationID := o.state.integrationID
	if integrationID == "" {
		integrationID = o.firstProviderIntegrationID()
	}
	integration, _ := o.catalog.FindByID(integrationID)
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
		WithIntegration(integrationID, string(integration.Provider)).
		Build()...)

	if cbErr != nil {
		reason := deniedPrefix + cbErr.Error()
		o.transitionLocked(state{phase: PhaseFailed, reason: reason, integrationID: integrationID})
		o.mu.Unlock()

		o.metrics.RecordCallback(ctx, instrumentation.CallbackResultDenied, "")
		o.auditEvent(ctx, instrumentation.EventConnectionFailed, integration, "", reason)
		instrumentation.SetSpanError(span, cbErr)
		return LoadResult{Outcome: LoadFailed, Reason: reason}, nil
	}

	email, present, err := o.loadIdentityLocked(ctx)
	if err != nil || !present {
		reason, spanErr := ReasonIdentityMissing, ErrIdentityMissing
		if err != nil {
			reason, spanErr = ReasonIdentityUnreadable, err
			o.logger.ErrorContext(ctx, "failed to read identity for callback", logging.Err(err))
		}
		o.transitionLocked(state{phase: PhaseFailed, reason: reason, integrationID: integrationID})
		o.mu.Unlock()

		o.metrics.RecordCallback(ctx, instrumentation.CallbackResultIdentityMissing, "")
		o.auditEvent(ctx, instrumentation.EventConnectionFailed, integration, "", reason)
		instrumentation.SetSpanError(span, spanErr)
		return LoadResult{Outcome: LoadFailed, Reason: reason}, nil
	}

	o.transitionLocked(state{phase: PhaseConnecting, integrationID: integrationID})
	o.mu.Unlock()

	logger := logging.WithOperation(o.logger, "handle_load")
	logger.InfoContext(ctx, "relaying authorization code",
		slog.String("code", logging.SanitizeCode(code)),
		logging.UserHash(email))

	start := time.Now()
	deliverErr := o.relay.Deliver(context.WithoutCancel(ctx), code, email)

	o.mu.Lock()
	if deliverErr != nil {
		reason := webhookFailurePrefix + deliverErr.Error()
		o.transitionLocked(state{phase: PhaseFailed, reason: reason, integrationID: integrationID})
		o.mu.Unlock()

		o.metrics.RecordCallback(ctx, instrumentation.CallbackResultDeliveryFailed, email)
		ev := o.connectionEvent(ctx, instrumentation.EventConnectionFailed, integration, email, reason)
		ev.Duration = time.Since(start)
		o.audit.LogConnectionEvent(ctx, ev)
		instrumentation.SetSpanError(span, deliverErr)
		return LoadResult{Outcome: LoadFailed, Reason: reason}, nil
	}

	matched := o.catalog.UpdateStatus(catalog.ByProvider(o.cfg.Provider), catalog.StatusActive)
	notice := SuccessMessage(o.cfg.ProviderName)
	o.transitionLocked(state{phase: PhaseSucceeded, notice: notice, integrationID: integrationID})
	o.mu.Unlock()

	if matched == 0 {
		logger.WarnContext(ctx, "no catalog entry matched the provider",
			logging.Provider(o.cfg.Provider.String()))
	}
	o.metrics.RecordCallback(ctx, instrumentation.CallbackResultSucceeded, email)
	ev := o.connectionEvent(ctx, instrumentation.EventConnectionSucceeded, integration, email, "")
	ev.Duration = time.Since(start)
	o.audit.LogConnectionEvent(ctx, ev)
	instrumentation.SetSpanSuccess(span)

	return LoadResult{
		Outcome:  LoadSucceeded,
		CleanURL: gateway.StripCallback(current),
	}, nil
}

// Dismiss clears a success or failure notice, returning to Idle. It also
// cancels a pending identity prompt. Other phases are unaffected.
func (o *Orchestrator) Dismiss() {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch o.state.phase {
	case PhaseSucceeded, PhaseFailed, PhaseAwaitingIdentity:
		o.transitionLocked(state{phase: PhaseIdle})
	}
}

// Snapshot returns the current observable state. The email is re-read from
// the identity store.
func (o *Orchestrator) Snapshot(ctx context.Context) Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, _, err := o.loadIdentityLocked(ctx); err != nil {
		o.logger.WarnContext(ctx, "failed to read identity for snapshot", logging.Err(err))
	}
	return o.snapshotLocked()
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.phase
}

func (o *Orchestrator) snapshotLocked() Snapshot {
	return o.state.snapshot(o.email, o.catalog.List(), o.version)
}

// transitionLocked replaces the state and publishes the new snapshot.
func (o *Orchestrator) transitionLocked(next state) {
	prev := o.state.phase
	o.state = next
	o.version++
	if prev != next.phase {
		o.logger.Debug("phase transition",
			slog.String("from", string(prev)),
			logging.Phase(string(next.phase)))
	}
	o.publishLocked(o.snapshotLocked())
}

// loadIdentityLocked reads the store and refreshes the cached email.
func (o *Orchestrator) loadIdentityLocked(ctx context.Context) (string, bool, error) {
	email, ok, err := o.store.Get(ctx)
	if err != nil {
		return "", false, fmt.Errorf("failed to read identity: %w", err)
	}
	if ok {
		o.email = email
	}
	return email, ok, nil
}

func (o *Orchestrator) firstProviderIntegrationID() string {
	for _, it := range o.catalog.List() {
		if it.Provider == o.cfg.Provider {
			return it.ID
		}
	}
	return ""
}

func (o *Orchestrator) connectionEvent(ctx context.Context, event string, it catalog.Integration, email, reason string) *instrumentation.ConnectionEvent {
	ev := instrumentation.NewConnectionEvent(ctx, event)
	ev.IntegrationID = it.ID
	ev.Provider = it.Provider.String()
	if it.ID == "" {
		ev.Provider = o.cfg.Provider.String()
	}
	ev.UserEmail = email
	ev.Reason = reason
	o.mu.Lock()
	ev.Phase = string(o.state.phase)
	o.mu.Unlock()
	return ev
}

func (o *Orchestrator) auditEvent(ctx context.Context, event string, it catalog.Integration, email, reason string) {
	o.audit.LogConnectionEvent(ctx, o.connectionEvent(ctx, event, it, email, reason))
}
