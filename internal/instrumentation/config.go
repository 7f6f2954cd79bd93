package instrumentation

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the configuration for OpenTelemetry instrumentation.
// Fields tagged with env are populated by LoadConfig.
type Config struct {
	// ServiceName is the name of the service (default: integrationhub)
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"integrationhub"`

	// ServiceVersion is the version of the service, set from build info
	ServiceVersion string

	// ServiceInstanceID is the unique instance identifier (default: hostname)
	ServiceInstanceID string `env:"OTEL_SERVICE_INSTANCE_ID"`

	// K8sNamespace is the Kubernetes namespace (K8S_NAMESPACE, then POD_NAMESPACE)
	K8sNamespace string `env:"K8S_NAMESPACE"`

	// K8sPodName is the Kubernetes pod name (K8S_POD_NAME, then HOSTNAME)
	K8sPodName string `env:"K8S_POD_NAME"`

	// Enabled determines if instrumentation is active (default: true)
	Enabled bool `env:"INSTRUMENTATION_ENABLED" envDefault:"true"`

	// MetricsExporter is one of "prometheus", "otlp", "stdout" (default: "prometheus")
	MetricsExporter string `env:"METRICS_EXPORTER" envDefault:"prometheus"`

	// TracingExporter is one of "otlp", "stdout", "none" (default: "none")
	TracingExporter string `env:"TRACING_EXPORTER" envDefault:"none"`

	// OTLPEndpoint is the OTLP collector endpoint without scheme,
	// e.g. "localhost:4318".
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// OTLPInsecure disables TLS for OTLP export. Local development only:
	// traces carry integration IDs and user domains.
	OTLPInsecure bool `env:"OTEL_EXPORTER_OTLP_INSECURE"`

	// TraceSamplingRate is the sampling rate for traces (0.0 to 1.0, default: 0.1)
	TraceSamplingRate float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"0.1"`

	// PrometheusEndpoint is the path for the Prometheus metrics endpoint (default: "/metrics")
	PrometheusEndpoint string `env:"PROMETHEUS_ENDPOINT" envDefault:"/metrics"`

	// DetailedLabels adds the user's email domain to callback metrics.
	// Keep disabled in production to bound cardinality.
	DetailedLabels bool `env:"METRICS_DETAILED_LABELS"`

	// AuditLogging configures audit logging behavior.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	// Enabled determines if audit logging is active (default: true)
	Enabled bool `env:"AUDIT_LOGGING_ENABLED" envDefault:"true"`

	// IncludePII writes full email addresses instead of hashed identifiers.
	// SECURITY: Ensure audit logs are stored securely with appropriate access controls.
	IncludePII bool `env:"AUDIT_LOGGING_INCLUDE_PII"`
}

// envFallbacks are consulted when the primary variable is unset.
type envFallbacks struct {
	PodNamespace string `env:"POD_NAMESPACE"`
	Hostname     string `env:"HOSTNAME"`
}

// LoadConfig reads the instrumentation configuration from the environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse instrumentation environment: %w", err)
	}
	fb, err := env.ParseAs[envFallbacks]()
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse instrumentation environment: %w", err)
	}
	if cfg.K8sNamespace == "" {
		cfg.K8sNamespace = fb.PodNamespace
	}
	if cfg.K8sPodName == "" {
		cfg.K8sPodName = fb.Hostname
	}
	cfg.ServiceVersion = "unknown"
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	validMetricsExporters := map[string]bool{ExporterPrometheus: true, ExporterOTLP: true, ExporterStdout: true}
	if c.MetricsExporter != "" && !validMetricsExporters[c.MetricsExporter] {
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	validTracingExporters := map[string]bool{ExporterOTLP: true, ExporterStdout: true, ExporterNone: true}
	if c.TracingExporter != "" && !validTracingExporters[c.TracingExporter] {
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if c.TracingExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using OTLP tracing exporter")
	}
	if c.MetricsExporter == ExporterOTLP && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using OTLP metrics exporter")
	}

	return nil
}

// DefaultServiceName is the service name reported when OTEL_SERVICE_NAME is unset.
const DefaultServiceName = "integrationhub"

// Constants for metric label values.
const (
	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
	StatusUnknown = "unknown"

	// Connect request results (hub_connect_requests_total)
	ConnectResultRedirect         = "redirect"
	ConnectResultIdentityRequired = "identity_required"
	ConnectResultUnsupported      = "unsupported"
	ConnectResultNotFound         = "not_found"
	ConnectResultInProgress       = "in_progress"
	ConnectResultError            = "error"

	// Callback results (hub_callbacks_total)
	CallbackResultSucceeded       = "succeeded"
	CallbackResultDeliveryFailed  = "delivery_failed"
	CallbackResultIdentityMissing = "identity_missing"
	CallbackResultDenied          = "denied"
	CallbackResultInProgress      = "in_progress"

	// Relay status classes (relay_deliveries_total)
	RelayStatusTransport = "transport"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// Metric recording intervals
	DefaultMetricInterval = 10 * time.Second
)
