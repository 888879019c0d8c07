package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/flemzord/ctxwin/internal/cron"
	"github.com/flemzord/ctxwin/internal/gateway"
	"github.com/flemzord/ctxwin/internal/mcptool"
	"github.com/flemzord/ctxwin/internal/reload"
	"github.com/flemzord/ctxwin/internal/security"
	"github.com/flemzord/ctxwin/internal/telemetry"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve context assembly over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
				Endpoint:    cfg.Telemetry.OTLPEndpoint,
				Insecure:    cfg.Telemetry.OTLPInsecure,
				ServiceName: cfg.Telemetry.ServiceName,
			})
			if err != nil {
				return err
			}

			rt, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			reloader, err := reload.NewHandler(cfg, rt.estimator, logger)
			if err != nil {
				return err
			}
			startReload(ctx, reloader, configPath(cmd), logger)

			opts := gateway.Options{
				Builder:   reloader,
				Measurer:  reloader,
				Recorder:  rt.recorder,
				Estimator: rt.estimator.Name(),
				Logger:    logger,
			}
			if rt.registry != nil {
				opts.Registerer = rt.registry
				opts.Gatherer = rt.registry
			}
			if cfg.Server.RateLimit.Enabled() {
				opts.Limiter = security.NewRateLimiter(cfg.Server.RateLimit)
			}
			gw, err := gateway.New(gateway.Config{
				Bind:            cfg.Server.Bind,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				MaxBodyBytes:    cfg.Server.MaxBodyBytes,
				Auth: gateway.AuthConfig{
					BearerToken: cfg.Server.Auth.BearerToken,
					BasicUser:   cfg.Server.Auth.BasicUser,
					BasicPass:   cfg.Server.Auth.BasicPass,
				},
			}, opts)
			if err != nil {
				return err
			}

			sched, err := newScheduler(rt)
			if err != nil {
				return err
			}
			if err := sched.Start(ctx); err != nil {
				return err
			}
			if err := gw.Start(ctx); err != nil {
				_ = sched.Stop(context.Background())
				return err
			}

			<-ctx.Done()
			logger.Info("shutting down")

			// The serve context is already cancelled; shut down on a fresh one.
			shutdownCtx := context.Background()
			return errors.Join(
				gw.Stop(shutdownCtx),
				sched.Stop(shutdownCtx),
				shutdownTracing(shutdownCtx),
			)
		},
	}
}

// startReload re-applies the config file on edits and on SIGHUP. Without a
// config file there is nothing to reload.
func startReload(ctx context.Context, h *reload.Handler, path string, logger *slog.Logger) {
	if path == "" {
		return
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	var events <-chan reload.Event
	w, err := reload.NewWatcher(reload.WatcherConfig{ConfigPath: path}, logger)
	if err != nil {
		logger.Warn("config watcher unavailable, reload on SIGHUP only", "error", err)
	} else {
		events = w.Events()
		go w.Run(ctx)
	}

	go func() {
		defer signal.Stop(hup)
		if w != nil {
			defer func() { _ = w.Close() }()
		}
		h.Watch(ctx, path, events, hup)
	}()
}

// newScheduler registers the maintenance jobs the app needs.
func newScheduler(rt *app) (*cron.Scheduler, error) {
	sched := cron.NewScheduler(rt.logger)
	if rt.store != nil {
		if err := sched.RegisterJob(&cron.CachePruneJob{
			Store:        rt.store,
			MaxAge:       rt.cfg.Cache.MaxAge,
			Logger:       rt.logger,
			ScheduleExpr: rt.cfg.Cache.PruneSchedule,
		}); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the assemble_context tool over MCP stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rt, err := newApp(cmd.Context(), cfg, newLogger(cmd, cfg))
			if err != nil {
				return err
			}
			defer func() { _ = rt.Close() }()

			tool := mcptool.NewAssembleTool(rt.assembler, rt.recorder)
			return mcptool.ServeStdio(mcptool.NewServer("ctxwin", version, tool))
		},
	}
}
