package identity

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"github.com/valkey-io/valkey-go"
)

// ValkeyConfig holds configuration for the Valkey backend.
type ValkeyConfig struct {
	// URL is the Valkey server address (e.g., "valkey.namespace.svc:6379")
	URL string

	// Password is the optional password for Valkey authentication
	Password string

	// TLSEnabled enables TLS for Valkey connections
	TLSEnabled bool

	// TLSCAFile is the path to a CA certificate file for TLS verification.
	// Use this when Valkey uses certificates signed by a private CA.
	TLSCAFile string

	// KeyPrefix is the prefix for all Valkey keys (default: "integrationhub:")
	KeyPrefix string

	// DB is the Valkey database number (default: 0)
	DB int
}

// DefaultValkeyKeyPrefix is used when ValkeyConfig.KeyPrefix is empty.
const DefaultValkeyKeyPrefix = "integrationhub:"

// Validate checks the configuration without connecting.
func (c ValkeyConfig) Validate() error {
	if strings.TrimSpace(c.URL) == "" {
		return fmt.Errorf("valkey URL is required when using valkey identity storage")
	}
	if c.DB < 0 {
		return fmt.Errorf("valkey DB must be non-negative, got %d", c.DB)
	}
	if c.TLSCAFile != "" && !c.TLSEnabled {
		return fmt.Errorf("valkey TLS CA file set but TLS is not enabled")
	}
	return nil
}

func (c ValkeyConfig) key() string {
	prefix := c.KeyPrefix
	if prefix == "" {
		prefix = DefaultValkeyKeyPrefix
	}
	return prefix + Key
}

func (c ValkeyConfig) tlsConfig() (*tls.Config, error) {
	if !c.TLSEnabled {
		return nil, nil
	}
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.TLSCAFile == "" {
		return cfg, nil
	}
	pem, err := os.ReadFile(c.TLSCAFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read valkey CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("no certificates found in valkey CA file %s", c.TLSCAFile)
	}
	cfg.RootCAs = pool
	return cfg, nil
}

// ValkeyStore persists the identity as a single Valkey string key
// with no expiry.
type ValkeyStore struct {
	client valkey.Client
	key    string
}

// NewValkeyStore connects to Valkey and verifies the connection with PING.
func NewValkeyStore(ctx context.Context, cfg ValkeyConfig) (*ValkeyStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tlsCfg, err := cfg.tlsConfig()
	if err != nil {
		return nil, err
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{cfg.URL},
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		TLSConfig:    tlsCfg,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", cfg.URL, err)
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping failed: %w", err)
	}

	return &ValkeyStore{client: client, key: cfg.key()}, nil
}

// Get returns the stored email.
func (s *ValkeyStore) Get(ctx context.Context) (string, bool, error) {
	email, err := s.client.Do(ctx, s.client.B().Get().Key(s.key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("valkey get %s: %w", s.key, err)
	}
	return email, true, nil
}

// Set stores email without expiry.
func (s *ValkeyStore) Set(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return ErrEmptyIdentity
	}
	if err := s.client.Do(ctx, s.client.B().Set().Key(s.key).Value(email).Build()).Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w", s.key, err)
	}
	return nil
}

// Close closes the Valkey client.
func (s *ValkeyStore) Close() error {
	s.client.Close()
	return nil
}
