package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Context.DefaultWindowTokens != 8192 {
		t.Errorf("DefaultWindowTokens = %d, want 8192", cfg.Context.DefaultWindowTokens)
	}
	if cfg.Estimator.Kind != EstimatorChar {
		t.Errorf("Estimator.Kind = %q, want char", cfg.Estimator.Kind)
	}
	if !cfg.Telemetry.MetricsOn() {
		t.Error("metrics should default to enabled")
	}
}

func TestParse_Full(t *testing.T) {
	t.Parallel()

	raw := []byte(`
version: "1"
context:
  default_window_tokens: 16000
  max_context_tokens: 32000
  timezone: UTC
  default_example_name: Robin
estimator:
  kind: tiktoken
  encoding: o200k_base
cache:
  enabled: true
  path: /tmp/cache.db
  prune_schedule: "*/30 * * * *"
  max_age: 48h
server:
  bind: 0.0.0.0:9000
  read_timeout: 2s
  rate_limit:
    requests_per_min: 120
telemetry:
  metrics_enabled: false
  otlp_endpoint: collector:4318
`)
	cfg, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Context.DefaultWindowTokens != 16000 || cfg.Context.DefaultExampleName != "Robin" {
		t.Errorf("context = %+v", cfg.Context)
	}
	if cfg.Estimator.Encoding != "o200k_base" {
		t.Errorf("encoding = %q", cfg.Estimator.Encoding)
	}
	if cfg.Cache.MaxAge != 48*time.Hour {
		t.Errorf("cache.max_age = %s, want 48h", cfg.Cache.MaxAge)
	}
	if cfg.Server.ReadTimeout != 2*time.Second {
		t.Errorf("server.read_timeout = %s, want 2s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != defaultWriteTimeout {
		t.Errorf("server.write_timeout = %s, want default", cfg.Server.WriteTimeout)
	}
	if cfg.Server.RateLimit.RequestsPerMin != 120 || cfg.Server.RateLimit.TokensPerHour != 0 {
		t.Errorf("server.rate_limit = %+v", cfg.Server.RateLimit)
	}
	if cfg.Telemetry.MetricsOn() {
		t.Error("metrics_enabled: false must disable metrics")
	}
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Server.Bind != defaultBind {
		t.Errorf("Bind = %q, want default", cfg.Server.Bind)
	}
}

func TestParse_UnknownField(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte("version: \"1\"\nbogus: true\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing_version", func(c *Config) { c.Version = "" }, "version"},
		{"unsupported_version", func(c *Config) { c.Version = "99" }, "unsupported version"},
		{"negative_window", func(c *Config) { c.Context.DefaultWindowTokens = -1 }, "default_window_tokens"},
		{"default_above_cap", func(c *Config) { c.Context.MaxContextTokens = 1000 }, "exceeds max_context_tokens"},
		{"bad_timezone", func(c *Config) { c.Context.Timezone = "Mars/Olympus" }, "timezone"},
		{"bad_estimator", func(c *Config) { c.Estimator.Kind = "bpe" }, "estimator.kind"},
		{"bad_schedule", func(c *Config) { c.Cache.Enabled = true; c.Cache.PruneSchedule = "nope" }, "prune_schedule"},
		{"empty_cache_path", func(c *Config) { c.Cache.Enabled = true; c.Cache.Path = "" }, "cache.path"},
		{"bad_bind", func(c *Config) { c.Server.Bind = "localhost" }, "server.bind"},
		{"half_basic_auth", func(c *Config) { c.Server.Auth.BasicUser = "admin" }, "basic_pass"},
		{"negative_timeout", func(c *Config) { c.Server.ReadTimeout = -time.Second }, "timeouts"},
		{"negative_rate_limit", func(c *Config) { c.Server.RateLimit.TokensPerHour = -1 }, "rate_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestValidate_DisabledCacheSkipsChecks(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Cache.PruneSchedule = "nope"
	if err := Validate(cfg); err != nil {
		t.Errorf("disabled cache should not be validated: %v", err)
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Version = ""
	cfg.Estimator.Kind = "bpe"
	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "version") || !strings.Contains(err.Error(), "estimator.kind") {
		t.Errorf("all problems should be reported: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Environment expansion
// ---------------------------------------------------------------------------

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("CTXWIN_TEST_BIND", "127.0.0.1:7777")

	path := filepath.Join(t.TempDir(), "ctxwin.yaml")
	raw := "version: \"1\"\nserver:\n  bind: ${CTXWIN_TEST_BIND}\ncontext:\n  timezone: ${CTXWIN_TEST_UNSET_TZ:-UTC}\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Bind != "127.0.0.1:7777" {
		t.Errorf("Bind = %q", cfg.Server.Bind)
	}
	if cfg.Context.Timezone != "UTC" {
		t.Errorf("Timezone = %q, want default from expression", cfg.Context.Timezone)
	}
}

func TestExpandEnv_Unresolved(t *testing.T) {
	t.Parallel()

	_, err := expandEnv([]byte("a: ${CTXWIN_TEST_MISSING_A}\nb: ${CTXWIN_TEST_MISSING_B}\n"))
	if err == nil {
		t.Fatal("expected error for unresolved variables")
	}
	for _, name := range []string{"CTXWIN_TEST_MISSING_A", "CTXWIN_TEST_MISSING_B"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error should list %s: %v", name, err)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error")
	}
}

func TestContextConfig_EngineConfig(t *testing.T) {
	t.Parallel()

	c := ContextConfig{DefaultWindowTokens: 4096, MaxContextTokens: 8192, Timezone: "Europe/Paris", DefaultExampleName: "Robin"}
	ec, err := c.EngineConfig()
	if err != nil {
		t.Fatalf("EngineConfig: %v", err)
	}
	if ec.DefaultWindowTokens != 4096 || ec.MaxContextTokens != 8192 || ec.DefaultExampleName != "Robin" {
		t.Errorf("EngineConfig = %+v", ec)
	}
	if ec.Location == nil || ec.Location.String() != "Europe/Paris" {
		t.Errorf("Location = %v, want Europe/Paris", ec.Location)
	}

	if _, err := (ContextConfig{Timezone: "Mars/Olympus"}).EngineConfig(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestAuthConfig_Secrets(t *testing.T) {
	t.Parallel()

	got := AuthConfig{BearerToken: "tok", BasicUser: "admin", BasicPass: "pw"}.Secrets()
	if len(got) != 2 || got[0] != "tok" || got[1] != "pw" {
		t.Errorf("Secrets() = %v", got)
	}
}
