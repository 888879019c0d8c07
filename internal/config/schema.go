// Package config handles YAML configuration loading, environment variable
// expansion, defaults and validation for ctxwin.
package config

import (
	"time"

	"github.com/flemzord/ctxwin/internal/security"
)

// Estimator kinds.
const (
	EstimatorChar     = "char"
	EstimatorTiktoken = "tiktoken"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Context   ContextConfig   `yaml:"context"`
	Estimator EstimatorConfig `yaml:"estimator"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ContextConfig tunes context assembly.
type ContextConfig struct {
	// DefaultWindowTokens applies when a request carries no window.
	DefaultWindowTokens int `yaml:"default_window_tokens"`

	// MaxContextTokens caps requested windows. 0 disables the cap.
	MaxContextTokens int `yaml:"max_context_tokens"`

	// Timezone is an IANA zone name for rendered timestamps. Defaults to UTC.
	Timezone string `yaml:"timezone"`

	// DefaultExampleName is used in the participant attribution note when
	// no participant is active.
	DefaultExampleName string `yaml:"default_example_name"`
}

// EstimatorConfig selects the token estimator.
type EstimatorConfig struct {
	// Kind is "char" or "tiktoken". Defaults to "char".
	Kind string `yaml:"kind"`

	// CharsPerToken is the char estimator ratio. Defaults to 4.
	CharsPerToken float64 `yaml:"chars_per_token"`

	// Encoding is the tiktoken encoding. Defaults to cl100k_base.
	Encoding string `yaml:"encoding"`
}

// CacheConfig controls the persistent token-count cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`

	// PruneSchedule is a 5-field cron expression. Defaults to "0 3 * * *".
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxAge is how long an unused count is kept. Defaults to 720h.
	MaxAge time.Duration `yaml:"max_age"`
}

// ServerConfig controls the HTTP gateway.
type ServerConfig struct {
	Bind            string        `yaml:"bind"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes bounds request bodies. Defaults to 4 MiB.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	Auth AuthConfig `yaml:"auth"`

	// RateLimit applies per-client limits to the assembly endpoint.
	RateLimit security.RateLimitConfig `yaml:"rate_limit"`
}

// AuthConfig protects the assembly endpoint. Empty disables auth.
type AuthConfig struct {
	BearerToken string `yaml:"bearer_token"`
	BasicUser   string `yaml:"basic_user"`
	BasicPass   string `yaml:"basic_pass"`
}

// Secrets returns the configured credentials, for log redaction.
func (a AuthConfig) Secrets() []string {
	return []string{a.BearerToken, a.BasicPass}
}

// TelemetryConfig controls metrics and tracing.
type TelemetryConfig struct {
	// MetricsEnabled exposes /metrics. Defaults to true.
	MetricsEnabled *bool `yaml:"metrics_enabled"`

	// OTLPEndpoint is host:port of an OTLP/HTTP collector. Empty disables
	// trace export.
	OTLPEndpoint string `yaml:"otlp_endpoint"`

	// OTLPInsecure disables TLS towards the collector.
	OTLPInsecure bool `yaml:"otlp_insecure"`

	ServiceName string `yaml:"service_name"`
}

// MetricsOn reports whether metrics are enabled.
func (t TelemetryConfig) MetricsOn() bool {
	return t.MetricsEnabled == nil || *t.MetricsEnabled
}
