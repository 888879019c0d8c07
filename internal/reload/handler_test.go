package reload

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/flemzord/ctxwin/internal/config"
	ctxengine "github.com/flemzord/ctxwin/internal/context"
	"github.com/flemzord/ctxwin/pkg/message"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestHandler(t *testing.T, logger *slog.Logger) *Handler {
	t.Helper()
	h, err := NewHandler(config.Default(), ctxengine.NewCharEstimator(4), logger)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	return h
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ctxwin.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func windowOf(h *Handler) int {
	return h.BuildContext(ctxengine.AssemblyInput{}).Budget.ContextWindowTokens
}

func TestNewHandler_UsesConfig(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, testLogger())
	if got := windowOf(h); got != config.Default().Context.DefaultWindowTokens {
		t.Errorf("window = %d, want default", got)
	}
	if h.Assembler() == nil {
		t.Fatal("Assembler() = nil")
	}
}

func TestHandler_MeasureEntries(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, testLogger())
	entries := []message.HistoryEntry{{Role: message.RoleUser, Content: "hello"}}
	want := h.Assembler().MeasureEntries(entries, "Nova")

	got := h.MeasureEntries(entries, "Nova")
	if len(got) != 1 || got[0].Tokens != want[0].Tokens {
		t.Errorf("MeasureEntries = %+v, want %+v", got, want)
	}
	if _, ok := got[0].Tokens.Known(); !ok {
		t.Error("entry must be measured")
	}
}

func TestHandler_HandleReload_AppliesContext(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, testLogger())
	before := h.Assembler()
	path := writeConfig(t, "version: \"1\"\ncontext:\n  default_window_tokens: 2048\n")

	if err := h.HandleReload(context.Background(), path); err != nil {
		t.Fatalf("HandleReload: %v", err)
	}
	if got := windowOf(h); got != 2048 {
		t.Errorf("window = %d, want 2048", got)
	}
	if h.Assembler() == before {
		t.Error("assembler must be replaced")
	}
}

func TestHandler_HandleReload_FileNotFound(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, testLogger())
	if err := h.HandleReload(context.Background(), "/nonexistent/ctxwin.yaml"); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestHandler_HandleReload_InvalidKeepsPrevious(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, testLogger())
	path := writeConfig(t, "version: \"1\"\ncontext:\n  default_window_tokens: -5\n")

	if err := h.HandleReload(context.Background(), path); err == nil {
		t.Fatal("expected validation error")
	}
	if got := windowOf(h); got != config.Default().Context.DefaultWindowTokens {
		t.Errorf("window = %d, previous configuration must stay", got)
	}
}

func TestHandler_Apply_CancelledContext(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.Apply(ctx, config.Default()); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestHandler_Apply_WarnsOnRestartSections(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := newTestHandler(t, slog.New(slog.NewTextHandler(&buf, nil)))

	next := config.Default()
	next.Server.Bind = "127.0.0.1:9999"
	if err := h.Apply(context.Background(), next); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "require a restart") || !strings.Contains(out, "server") {
		t.Errorf("expected restart warning naming server:\n%s", out)
	}
}

func TestRestartSections(t *testing.T) {
	t.Parallel()

	off := false
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   []string
	}{
		{"none", func(*config.Config) {}, nil},
		{"context_only", func(c *config.Config) { c.Context.DefaultWindowTokens = 100 }, nil},
		{"estimator", func(c *config.Config) { c.Estimator.Kind = config.EstimatorTiktoken }, []string{"estimator"}},
		{"cache", func(c *config.Config) { c.Cache.Enabled = true }, []string{"cache"}},
		{"rate_limit", func(c *config.Config) { c.Server.RateLimit.RequestsPerMin = 10 }, []string{"server"}},
		{"metrics", func(c *config.Config) { c.Telemetry.MetricsEnabled = &off }, []string{"telemetry"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			next := config.Default()
			tt.mutate(next)
			if got := restartSections(config.Default(), next); !slices.Equal(got, tt.want) {
				t.Errorf("restartSections = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHandler_Watch(t *testing.T) {
	t.Parallel()

	h := newTestHandler(t, testLogger())
	path := writeConfig(t, "version: \"1\"\ncontext:\n  default_window_tokens: 1024\n")

	events := make(chan Event, 1)
	signals := make(chan os.Signal, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Watch(ctx, path, events, signals)
		close(done)
	}()

	events <- Event{ConfigPath: path}
	waitForWindow(t, h, 1024)

	if err := os.WriteFile(path, []byte("version: \"1\"\ncontext:\n  default_window_tokens: 512\n"), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	signals <- syscall.SIGHUP
	waitForWindow(t, h, 512)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func waitForWindow(t *testing.T, h *Handler, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if windowOf(h) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("window = %d, want %d", windowOf(h), want)
}
