// Package reload applies configuration changes to a running server. A
// Watcher reports edits of the config file; a Handler re-reads it and swaps
// the live assembler.
package reload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 250 * time.Millisecond

// WatcherConfig configures the file watcher.
type WatcherConfig struct {
	// ConfigPath is the path to the configuration file to watch.
	ConfigPath string

	// Debounce coalesces bursts of writes into one event.
	// Defaults to 250ms if zero.
	Debounce time.Duration
}

func (c WatcherConfig) debounceOrDefault() time.Duration {
	if c.Debounce > 0 {
		return c.Debounce
	}
	return defaultDebounce
}

// Event represents a change of the watched file.
type Event struct {
	ConfigPath string
}

// Watcher reports modifications of a configuration file. It watches the
// parent directory so editors that replace the file by rename are seen.
type Watcher struct {
	cfg    WatcherConfig
	target string
	fs     *fsnotify.Watcher
	events chan Event
	logger *slog.Logger
}

// NewWatcher creates a watcher for cfg.ConfigPath. Call Run to start it.
func NewWatcher(cfg WatcherConfig, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	target, err := filepath.Abs(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reload: resolve %s: %w", cfg.ConfigPath, err)
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("reload: create watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(target)); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("reload: watch %s: %w", filepath.Dir(target), err)
	}

	return &Watcher{
		cfg:    cfg,
		target: target,
		fs:     fs,
		events: make(chan Event, 1),
		logger: logger,
	}, nil
}

// Events returns the channel of change events. It is closed when Run returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run forwards debounced change events until ctx is cancelled or the
// watcher is closed. Should be run in a goroutine.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.cfg.debounceOrDefault())
			} else {
				timer.Reset(w.cfg.debounceOrDefault())
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.events <- Event{ConfigPath: w.cfg.ConfigPath}:
			default:
				// A reload is already pending.
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("reload: watcher error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

// Close releases the underlying watcher. Safe to call multiple times.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.target {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
