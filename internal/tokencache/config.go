package tokencache

import (
	"fmt"
	"time"
)

const (
	defaultBusyTimeout = 5000
	defaultMaxAge      = 30 * 24 * time.Hour
)

// Config holds the token cache settings.
type Config struct {
	// Path is the database file path.
	Path string `yaml:"path"`

	// WAL enables WAL journal mode for concurrent reads. Defaults to true.
	WAL *bool `yaml:"wal"`

	// BusyTimeout is the milliseconds to wait on a busy lock. Defaults to 5000.
	BusyTimeout int `yaml:"busy_timeout"`

	// MaxAge is how long an unused count survives a prune. Defaults to 30 days.
	MaxAge time.Duration `yaml:"max_age"`
}

func (c *Config) defaults() {
	if c.WAL == nil {
		t := true
		c.WAL = &t
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
	if c.MaxAge == 0 {
		c.MaxAge = defaultMaxAge
	}
}

func (c *Config) walEnabled() bool {
	return c.WAL == nil || *c.WAL
}

func (c *Config) validate() error {
	if c.Path == "" {
		return fmt.Errorf("tokencache: path is required")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("tokencache: busy_timeout must be non-negative, got %d", c.BusyTimeout)
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("tokencache: max_age must be non-negative, got %s", c.MaxAge)
	}
	return nil
}
