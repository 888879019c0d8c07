package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/flemzord/ctxwin/internal/config"
	ctxengine "github.com/flemzord/ctxwin/internal/context"
	"github.com/flemzord/ctxwin/internal/telemetry"
	"github.com/flemzord/ctxwin/internal/tokencache"
)

// app is the wired engine shared by every command.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	estimator ctxengine.NamedEstimator
	store     *tokencache.Store
	assembler *ctxengine.Assembler
	registry  *prometheus.Registry
	recorder  *telemetry.Recorder
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	engineCfg, err := cfg.Context.EngineConfig()
	if err != nil {
		return nil, err
	}

	rt := &app{cfg: cfg, logger: logger}
	rt.estimator = newEstimator(cfg.Estimator, logger)

	if cfg.Cache.Enabled {
		store, err := tokencache.Open(ctx, tokencache.Config{Path: cfg.Cache.Path, MaxAge: cfg.Cache.MaxAge})
		if err != nil {
			return nil, err
		}
		rt.store = store
		rt.estimator = tokencache.NewEstimator(rt.estimator, store, logger)
	}

	rt.assembler = ctxengine.NewAssembler(rt.estimator, engineCfg)

	var reg prometheus.Registerer
	if cfg.Telemetry.MetricsOn() {
		rt.registry = prometheus.NewRegistry()
		reg = rt.registry
	}
	rt.recorder = telemetry.NewRecorder(reg)
	return rt, nil
}

// newEstimator builds the configured estimator. A tokenizer that cannot be
// loaded degrades to the char estimator with a warning.
func newEstimator(cfg config.EstimatorConfig, logger *slog.Logger) ctxengine.NamedEstimator {
	if cfg.Kind == config.EstimatorTiktoken {
		est, err := ctxengine.NewTiktokenEstimator(cfg.Encoding)
		if err == nil {
			return est
		}
		logger.Warn("tiktoken unavailable, falling back to char estimator", "encoding", cfg.Encoding, "error", err)
	}
	return ctxengine.NewCharEstimator(cfg.CharsPerToken)
}

func (rt *app) Close() error {
	var errs []error
	if rt.store != nil {
		errs = append(errs, rt.store.Close())
	}
	return errors.Join(errs...)
}
