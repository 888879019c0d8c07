package config

import (
	"time"

	ctxengine "github.com/flemzord/ctxwin/internal/context"
)

const (
	defaultWindowTokens    = 8192
	defaultCharsPerToken   = 4.0
	defaultEncoding        = "cl100k_base"
	defaultCachePath       = "ctxwin-cache.db"
	defaultPruneSchedule   = "0 3 * * *"
	defaultCacheMaxAge     = 30 * 24 * time.Hour
	defaultBind            = "127.0.0.1:8080"
	defaultReadTimeout     = 5 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxBodyBytes    = 4 << 20
	defaultServiceName     = "ctxwin"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: "1"}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Context.DefaultWindowTokens == 0 {
		c.Context.DefaultWindowTokens = defaultWindowTokens
	}
	if c.Context.Timezone == "" {
		c.Context.Timezone = "UTC"
	}

	if c.Estimator.Kind == "" {
		c.Estimator.Kind = EstimatorChar
	}
	if c.Estimator.CharsPerToken == 0 {
		c.Estimator.CharsPerToken = defaultCharsPerToken
	}
	if c.Estimator.Encoding == "" {
		c.Estimator.Encoding = defaultEncoding
	}

	if c.Cache.Path == "" {
		c.Cache.Path = defaultCachePath
	}
	if c.Cache.PruneSchedule == "" {
		c.Cache.PruneSchedule = defaultPruneSchedule
	}
	if c.Cache.MaxAge == 0 {
		c.Cache.MaxAge = defaultCacheMaxAge
	}

	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = defaultMaxBodyBytes
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = defaultServiceName
	}
}

// Location resolves the configured timezone.
func (c ContextConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// EngineConfig converts the section into the engine's configuration.
func (c ContextConfig) EngineConfig() (ctxengine.ContextConfig, error) {
	loc, err := c.Location()
	if err != nil {
		return ctxengine.ContextConfig{}, err
	}
	return ctxengine.ContextConfig{
		DefaultWindowTokens: c.DefaultWindowTokens,
		MaxContextTokens:    c.MaxContextTokens,
		DefaultExampleName:  c.DefaultExampleName,
		Location:            loc,
	}, nil
}
