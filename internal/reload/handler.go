package reload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/flemzord/ctxwin/internal/config"
	ctxengine "github.com/flemzord/ctxwin/internal/context"
	"github.com/flemzord/ctxwin/pkg/message"
)

// Handler owns the live assembler of a server and rebuilds it when the
// configuration changes. Only the context section is applied in place;
// changes to other sections are reported as needing a restart.
type Handler struct {
	estimator ctxengine.TokenEstimator
	logger    *slog.Logger

	mu      sync.Mutex // serializes reloads
	applied *config.Config
	current atomic.Pointer[ctxengine.Assembler]
}

// NewHandler creates a handler serving an assembler built from cfg.
func NewHandler(cfg *config.Config, estimator ctxengine.TokenEstimator, logger *slog.Logger) (*Handler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{estimator: estimator, logger: logger}
	asm, err := h.assemblerFor(cfg)
	if err != nil {
		return nil, err
	}
	h.applied = cfg
	h.current.Store(asm)
	return h, nil
}

// BuildContext assembles with the current assembler.
func (h *Handler) BuildContext(in ctxengine.AssemblyInput) ctxengine.AssembledContext {
	return h.current.Load().BuildContext(in)
}

// MeasureEntries prices entries with the current assembler.
func (h *Handler) MeasureEntries(entries []message.HistoryEntry, speakerName string) []message.HistoryEntry {
	return h.current.Load().MeasureEntries(entries, speakerName)
}

// Assembler returns the assembler currently in use.
func (h *Handler) Assembler() *ctxengine.Assembler {
	return h.current.Load()
}

// HandleReload loads a fresh config from disk, validates it, and applies it.
// On error the running configuration is kept.
func (h *Handler) HandleReload(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	return h.Apply(ctx, cfg)
}

// Apply swaps in an assembler built from an already-validated cfg.
func (h *Handler) Apply(ctx context.Context, cfg *config.Config) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before reload: %w", err)
	}

	asm, err := h.assemblerFor(cfg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if sections := restartSections(h.applied, cfg); len(sections) > 0 {
		h.logger.Warn("reload: changes require a restart", "sections", sections)
	}
	h.applied = cfg
	h.current.Store(asm)

	h.logger.Info("configuration reloaded",
		"default_window_tokens", cfg.Context.DefaultWindowTokens,
		"max_context_tokens", cfg.Context.MaxContextTokens,
		"timezone", cfg.Context.Timezone,
	)
	return nil
}

// Watch reloads configPath on every watcher event or signal until ctx is
// cancelled. Failed reloads are logged. Either channel may be nil.
func (h *Handler) Watch(ctx context.Context, configPath string, events <-chan Event, signals <-chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			h.reload(ctx, configPath, "file")
		case sig := <-signals:
			h.reload(ctx, configPath, sig.String())
		}
	}
}

func (h *Handler) reload(ctx context.Context, configPath, trigger string) {
	if err := h.HandleReload(ctx, configPath); err != nil {
		h.logger.Error("reload: keeping previous configuration", "trigger", trigger, "error", err)
	}
}

func (h *Handler) assemblerFor(cfg *config.Config) (*ctxengine.Assembler, error) {
	ec, err := cfg.Context.EngineConfig()
	if err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}
	return ctxengine.NewAssembler(h.estimator, ec), nil
}

// restartSections names the sections of next that differ from prev and are
// only read at startup.
func restartSections(prev, next *config.Config) []string {
	var out []string
	if prev.Estimator != next.Estimator {
		out = append(out, "estimator")
	}
	if prev.Cache != next.Cache {
		out = append(out, "cache")
	}
	if prev.Server != next.Server {
		out = append(out, "server")
	}
	pt, nt := prev.Telemetry, next.Telemetry
	if pt.MetricsOn() != nt.MetricsOn() || pt.OTLPEndpoint != nt.OTLPEndpoint ||
		pt.OTLPInsecure != nt.OTLPInsecure || pt.ServiceName != nt.ServiceName {
		out = append(out, "telemetry")
	}
	return out
}
