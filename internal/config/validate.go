package config

import (
	"errors"
	"fmt"
	"net"

	"github.com/flemzord/ctxwin/internal/cron"
)

// Validate checks the semantic validity of a Config with defaults applied.
// All problems are reported together.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	errs = append(errs, validateContext(cfg.Context)...)
	errs = append(errs, validateEstimator(cfg.Estimator)...)
	errs = append(errs, validateCache(cfg.Cache)...)
	errs = append(errs, validateServer(cfg.Server)...)

	return errors.Join(errs...)
}

func validateContext(c ContextConfig) []error {
	var errs []error
	if c.DefaultWindowTokens < 0 {
		errs = append(errs, fmt.Errorf("config: context.default_window_tokens must be non-negative, got %d", c.DefaultWindowTokens))
	}
	if c.MaxContextTokens < 0 {
		errs = append(errs, fmt.Errorf("config: context.max_context_tokens must be non-negative, got %d", c.MaxContextTokens))
	}
	if c.MaxContextTokens > 0 && c.DefaultWindowTokens > c.MaxContextTokens {
		errs = append(errs, fmt.Errorf("config: context.default_window_tokens (%d) exceeds max_context_tokens (%d)",
			c.DefaultWindowTokens, c.MaxContextTokens))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("config: context.timezone: %w", err))
	}
	return errs
}

func validateEstimator(e EstimatorConfig) []error {
	var errs []error
	switch e.Kind {
	case EstimatorChar, EstimatorTiktoken:
	default:
		errs = append(errs, fmt.Errorf("config: estimator.kind %q is not one of %q, %q", e.Kind, EstimatorChar, EstimatorTiktoken))
	}
	if e.CharsPerToken < 0 {
		errs = append(errs, fmt.Errorf("config: estimator.chars_per_token must be positive, got %v", e.CharsPerToken))
	}
	return errs
}

func validateCache(c CacheConfig) []error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if c.Path == "" {
		errs = append(errs, errors.New("config: cache.path is required when the cache is enabled"))
	}
	if err := cron.ValidateSchedule(c.PruneSchedule); err != nil {
		errs = append(errs, fmt.Errorf("config: cache.prune_schedule: %w", err))
	}
	if c.MaxAge < 0 {
		errs = append(errs, fmt.Errorf("config: cache.max_age must be non-negative, got %s", c.MaxAge))
	}
	return errs
}

func validateServer(s ServerConfig) []error {
	var errs []error
	if _, _, err := net.SplitHostPort(s.Bind); err != nil {
		errs = append(errs, fmt.Errorf("config: server.bind %q: %w", s.Bind, err))
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("config: server timeouts must be non-negative"))
	}
	if (s.Auth.BasicUser == "") != (s.Auth.BasicPass == "") {
		errs = append(errs, errors.New("config: server.auth.basic_user and basic_pass must be set together"))
	}
	if s.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("config: server.max_body_bytes must be non-negative, got %d", s.MaxBodyBytes))
	}
	if s.RateLimit.RequestsPerMin < 0 || s.RateLimit.TokensPerHour < 0 {
		errs = append(errs, errors.New("config: server.rate_limit values must be non-negative"))
	}
	return errs
}
