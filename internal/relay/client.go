package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/clientworkaccess-cmd/integration--hub/internal/instrumentation"
	"github.com/clientworkaccess-cmd/integration--hub/internal/logging"
)

// DefaultTimeout bounds a single delivery when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// maxDrainBytes caps how much of an ignored response body is read so the
// connection can be reused.
const maxDrainBytes = 64 << 10

// Config configures the webhook relay.
type Config struct {
	// URL is the webhook endpoint.
	URL string

	// ClientID is the OAuth client identifier forwarded with every delivery.
	ClientID string

	// ClientSecret is only sent when ForwardClientSecret is true.
	ClientSecret string

	// ForwardClientSecret includes the client secret in the payload. Off by
	// default; the webhook should hold its own copy of the secret.
	ForwardClientSecret bool

	// Timeout bounds one delivery (default: DefaultTimeout).
	Timeout time.Duration
}

// Validate checks the relay configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return ErrNotConfigured
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid relay URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid relay URL %q: scheme must be http or https", c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid relay URL %q: host is required", c.URL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("relay timeout must not be negative, got %s", c.Timeout)
	}
	if c.ForwardClientSecret && c.ClientSecret == "" {
		return fmt.Errorf("client secret forwarding is enabled but no client secret is set")
	}
	return nil
}

// Client posts payloads to the webhook.
type Client struct {
	cfg     Config
	http    *http.Client
	now     func() time.Time
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Timeout is left untouched;
// the delivery deadline comes from Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithClock replaces the time source used for payload timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithMetrics records deliveries in m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New validates cfg and creates a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:    cfg,
		http:   &http.Client{},
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "relay"))

	if cfg.ForwardClientSecret {
		c.logger.Warn("client secret forwarding enabled: the OAuth client secret will be sent to the webhook with every delivery",
			slog.String("secret", logging.SanitizeSecret(cfg.ClientSecret)))
	}
	return c, nil
}

// Timeout returns the effective per-delivery timeout.
func (c *Client) Timeout() time.Duration {
	return c.cfg.Timeout
}

// Deliver posts code and email to the webhook once. A nil error means the
// webhook answered 2xx; the response body is ignored. Any failure is a
// *DeliveryError.
func (c *Client) Deliver(ctx context.Context, code, email string) error {
	start := time.Now()
	ctx, span := instrumentation.StartRelaySpan(ctx,
		instrumentation.NewSpanAttributeBuilder().WithUser(email).Build()...)
	defer span.End()

	statusCode, err := c.post(ctx, NewPayload(code, email, c.cfg, c.now()))
	duration := time.Since(start)

	span.SetAttributes(attribute.Int(instrumentation.SpanAttrStatusCode, statusCode))
	if err != nil {
		instrumentation.SetSpanError(span, err)
		c.metrics.RecordRelayDelivery(ctx, instrumentation.StatusError, statusCode, duration)
		c.logger.WarnContext(ctx, "webhook delivery failed",
			logging.Status(logging.StatusError),
			slog.Int("http_status", statusCode),
			slog.String("code", logging.SanitizeCode(code)),
			logging.UserHash(email),
			slog.Duration(logging.KeyDuration, duration),
			logging.Err(err))
		return err
	}

	instrumentation.SetSpanSuccess(span)
	c.metrics.RecordRelayDelivery(ctx, instrumentation.StatusSuccess, statusCode, duration)
	c.logger.InfoContext(ctx, "webhook delivered",
		logging.Status(logging.StatusSuccess),
		slog.Int("http_status", statusCode),
		logging.UserHash(email),
		slog.Duration(logging.KeyDuration, duration))
	return nil
}

func (c *Client) post(ctx context.Context, payload Payload) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, &DeliveryError{Err: fmt.Errorf("encode payload: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return 0, &DeliveryError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, &DeliveryError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, &DeliveryError{StatusCode: resp.StatusCode}
	}
	return resp.StatusCode, nil
}
