package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/clientworkaccess-cmd/integration--hub/internal/gateway"
	"github.com/clientworkaccess-cmd/integration--hub/internal/identity"
	"github.com/clientworkaccess-cmd/integration--hub/internal/relay"
)

// hubEnv holds the hub configuration. Values come from the environment
// (after the optional .env file) and are overridden by flags that were set
// explicitly on the command line.
type hubEnv struct {
	// OAuth client registered with the provider
	ClientID     string   `env:"GITHUB_CLIENT_ID"`
	ClientSecret string   `env:"GITHUB_CLIENT_SECRET"`
	RedirectURL  string   `env:"GITHUB_REDIRECT_URL" envDefault:"http://localhost:8080/"`
	Scopes       []string `env:"GITHUB_SCOPES" envSeparator:","`
	AuthURL      string   `env:"GITHUB_AUTH_URL"`

	// Webhook relay
	WebhookURL          string        `env:"RELAY_WEBHOOK_URL"`
	RelayTimeout        time.Duration `env:"RELAY_TIMEOUT" envDefault:"10s"`
	ForwardClientSecret bool          `env:"RELAY_FORWARD_CLIENT_SECRET"`

	// Identity store
	StorageType     string `env:"IDENTITY_STORAGE_TYPE" envDefault:"file"`
	StoragePath     string `env:"IDENTITY_STORAGE_PATH"`
	ValkeyURL       string `env:"VALKEY_URL"`
	ValkeyPassword  string `env:"VALKEY_PASSWORD"`
	ValkeyTLS       bool   `env:"VALKEY_TLS_ENABLED"`
	ValkeyTLSCAFile string `env:"VALKEY_TLS_CA_FILE"`
	ValkeyKeyPrefix string `env:"VALKEY_KEY_PREFIX" envDefault:"integrationhub:"`
	ValkeyDB        int    `env:"VALKEY_DB"`

	// Serving
	HTTPAddr       string `env:"HUB_HTTP_ADDR" envDefault:":8080"`
	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsAddr    string `env:"METRICS_ADDR" envDefault:":9090"`
	Yolo           bool   `env:"MCP_YOLO"`
}

// loadEnvFile loads path into the process environment. A missing default
// file is not an error; variables already set are not overwritten.
func loadEnvFile(cmd *cobra.Command, path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err != nil && cmd.Flags().Changed("env-file") {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// parseHubEnv reads hubEnv from the environment.
func parseHubEnv() (hubEnv, error) {
	var cfg hubEnv
	if err := env.Parse(&cfg); err != nil {
		return hubEnv{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Scopes = parseCommaSeparatedList(strings.Join(cfg.Scopes, ","))
	return cfg, nil
}

// hubFlags binds flags for the subset of hubEnv a command needs. Each flag
// only overrides the environment when it was set explicitly.
type hubFlags struct {
	cfg     hubEnv
	binders []func(cmd *cobra.Command, cfg *hubEnv)
}

func (f *hubFlags) stringVar(cmd *cobra.Command, name, usage string, field func(*hubEnv) *string) {
	cmd.Flags().StringVar(field(&f.cfg), name, "", usage)
	f.binders = append(f.binders, func(cmd *cobra.Command, cfg *hubEnv) {
		if cmd.Flags().Changed(name) {
			*field(cfg) = *field(&f.cfg)
		}
	})
}

func (f *hubFlags) boolVar(cmd *cobra.Command, name, usage string, field func(*hubEnv) *bool) {
	cmd.Flags().BoolVar(field(&f.cfg), name, false, usage)
	f.binders = append(f.binders, func(cmd *cobra.Command, cfg *hubEnv) {
		if cmd.Flags().Changed(name) {
			*field(cfg) = *field(&f.cfg)
		}
	})
}

func (f *hubFlags) intVar(cmd *cobra.Command, name, usage string, field func(*hubEnv) *int) {
	cmd.Flags().IntVar(field(&f.cfg), name, 0, usage)
	f.binders = append(f.binders, func(cmd *cobra.Command, cfg *hubEnv) {
		if cmd.Flags().Changed(name) {
			*field(cfg) = *field(&f.cfg)
		}
	})
}

func (f *hubFlags) durationVar(cmd *cobra.Command, name, usage string, field func(*hubEnv) *time.Duration) {
	cmd.Flags().DurationVar(field(&f.cfg), name, 0, usage)
	f.binders = append(f.binders, func(cmd *cobra.Command, cfg *hubEnv) {
		if cmd.Flags().Changed(name) {
			*field(cfg) = *field(&f.cfg)
		}
	})
}

func (f *hubFlags) stringSliceVar(cmd *cobra.Command, name, usage string, field func(*hubEnv) *[]string) {
	cmd.Flags().StringSliceVar(field(&f.cfg), name, nil, usage)
	f.binders = append(f.binders, func(cmd *cobra.Command, cfg *hubEnv) {
		if cmd.Flags().Changed(name) {
			*field(cfg) = *field(&f.cfg)
		}
	})
}

// load parses the environment and applies explicitly set flags on top.
func (f *hubFlags) load(cmd *cobra.Command) (hubEnv, error) {
	cfg, err := parseHubEnv()
	if err != nil {
		return hubEnv{}, err
	}
	for _, bind := range f.binders {
		bind(cmd, &cfg)
	}
	return cfg, nil
}

// addOAuthFlags registers the provider flags shared by all commands.
func (f *hubFlags) addOAuthFlags(cmd *cobra.Command) {
	f.stringVar(cmd, "client-id", "OAuth client ID. Can also use GITHUB_CLIENT_ID env var.",
		func(c *hubEnv) *string { return &c.ClientID })
	f.stringVar(cmd, "redirect-url", "URL the provider redirects back to (default http://localhost:8080/). Can also use GITHUB_REDIRECT_URL env var.",
		func(c *hubEnv) *string { return &c.RedirectURL })
	f.stringSliceVar(cmd, "scopes", "OAuth scopes (default repo,read:user,user:email). Can also use GITHUB_SCOPES env var.",
		func(c *hubEnv) *[]string { return &c.Scopes })
}

// addRelayFlags registers the webhook flags.
func (f *hubFlags) addRelayFlags(cmd *cobra.Command) {
	f.stringVar(cmd, "webhook-url", "Webhook that receives authorization codes. Can also use RELAY_WEBHOOK_URL env var.",
		func(c *hubEnv) *string { return &c.WebhookURL })
	f.durationVar(cmd, "relay-timeout", "Timeout of a webhook delivery (default 10s). Can also use RELAY_TIMEOUT env var.",
		func(c *hubEnv) *time.Duration { return &c.RelayTimeout })
	f.boolVar(cmd, "forward-client-secret", "WARNING: include the OAuth client secret in webhook payloads. Can also use RELAY_FORWARD_CLIENT_SECRET env var.",
		func(c *hubEnv) *bool { return &c.ForwardClientSecret })
}

// addStorageFlags registers the identity store flags.
func (f *hubFlags) addStorageFlags(cmd *cobra.Command) {
	f.stringVar(cmd, "storage-type", "Identity storage type: memory, file, sqlite or valkey (default file). Can also use IDENTITY_STORAGE_TYPE env var.",
		func(c *hubEnv) *string { return &c.StorageType })
	f.stringVar(cmd, "storage-path", "Path of the file or sqlite identity store. Can also use IDENTITY_STORAGE_PATH env var.",
		func(c *hubEnv) *string { return &c.StoragePath })
	f.stringVar(cmd, "valkey-url", "Valkey server address (e.g., valkey.namespace.svc:6379). Can also use VALKEY_URL env var.",
		func(c *hubEnv) *string { return &c.ValkeyURL })
	f.stringVar(cmd, "valkey-password", "Valkey authentication password. Can also use VALKEY_PASSWORD env var.",
		func(c *hubEnv) *string { return &c.ValkeyPassword })
	f.boolVar(cmd, "valkey-tls", "Enable TLS for Valkey connections. Can also use VALKEY_TLS_ENABLED env var.",
		func(c *hubEnv) *bool { return &c.ValkeyTLS })
	f.stringVar(cmd, "valkey-tls-ca-file", "CA certificate file for verifying the Valkey server. Can also use VALKEY_TLS_CA_FILE env var.",
		func(c *hubEnv) *string { return &c.ValkeyTLSCAFile })
	f.stringVar(cmd, "valkey-key-prefix", "Prefix for Valkey keys (default integrationhub:). Can also use VALKEY_KEY_PREFIX env var.",
		func(c *hubEnv) *string { return &c.ValkeyKeyPrefix })
	f.intVar(cmd, "valkey-db", "Valkey database number. Can also use VALKEY_DB env var.",
		func(c *hubEnv) *int { return &c.ValkeyDB })
}

// addServeFlags registers the HTTP, metrics and MCP flags.
func (f *hubFlags) addServeFlags(cmd *cobra.Command) {
	f.stringVar(cmd, "http-addr", "HTTP server address (default :8080). Can also use HUB_HTTP_ADDR env var.",
		func(c *hubEnv) *string { return &c.HTTPAddr })
	f.boolVar(cmd, "metrics-enabled", "Serve Prometheus metrics on a separate address (default true). Can also use METRICS_ENABLED env var.",
		func(c *hubEnv) *bool { return &c.MetricsEnabled })
	f.stringVar(cmd, "metrics-addr", "Metrics server address (default :9090). Can also use METRICS_ADDR env var.",
		func(c *hubEnv) *string { return &c.MetricsAddr })
	f.boolVar(cmd, "yolo", "Register MCP tools that change state (connect, set identity, complete, dismiss). Can also use MCP_YOLO env var.",
		func(c *hubEnv) *bool { return &c.Yolo })
}

func (c hubEnv) identityConfig() identity.Config {
	return identity.Config{
		Type: identity.StorageType(c.StorageType),
		Path: c.StoragePath,
		Valkey: identity.ValkeyConfig{
			URL:        c.ValkeyURL,
			Password:   c.ValkeyPassword,
			TLSEnabled: c.ValkeyTLS,
			TLSCAFile:  c.ValkeyTLSCAFile,
			KeyPrefix:  c.ValkeyKeyPrefix,
			DB:         c.ValkeyDB,
		},
	}
}

func (c hubEnv) gatewayConfig() gateway.Config {
	return gateway.Config{
		ClientID:    c.ClientID,
		RedirectURL: c.RedirectURL,
		Scopes:      c.Scopes,
		AuthURL:     c.AuthURL,
	}
}

func (c hubEnv) relayConfig() relay.Config {
	return relay.Config{
		URL:                 c.WebhookURL,
		ClientID:            c.ClientID,
		ClientSecret:        c.ClientSecret,
		ForwardClientSecret: c.ForwardClientSecret,
		Timeout:             c.RelayTimeout,
	}
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
