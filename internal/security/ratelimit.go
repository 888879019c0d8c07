// Package security holds the request-facing safeguards of the gateway:
// per-client rate limiting and secret redaction for logs.
package security

import (
	"errors"
	"sync"
	"time"
)

// ErrRateLimited is returned when a client exceeds one of its limits.
var ErrRateLimited = errors.New("rate limit exceeded")

// sweepInterval bounds how often idle clients are dropped.
const sweepInterval = time.Minute

// RateLimitConfig holds per-client limits. Zero disables a limit.
type RateLimitConfig struct {
	// RequestsPerMin bounds assembly requests per client per minute.
	RequestsPerMin int `yaml:"requests_per_min"`

	// TokensPerHour bounds the tokens a client's assembled contexts may
	// occupy per hour.
	TokensPerHour int `yaml:"tokens_per_hour"`
}

// Enabled reports whether any limit is set.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerMin > 0 || c.TokensPerHour > 0
}

// RateLimiter implements sliding-window limits keyed by client. Requests are
// admitted by Allow; tokens are charged after the fact by Charge and only
// gate the client's next request.
type RateLimiter struct {
	mu        sync.Mutex
	config    RateLimitConfig
	clients   map[string]*clientBuckets
	now       func() time.Time
	lastSweep time.Time
}

type clientBuckets struct {
	requests bucket
	tokens   bucket
}

type bucket struct {
	window time.Duration
	limit  int
	events []event
	total  int
}

type event struct {
	at time.Time
	n  int
}

// NewRateLimiter creates a rate limiter with the given limits.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		config:  cfg,
		clients: make(map[string]*clientBuckets),
		now:     time.Now,
	}
}

// Allow admits one request from client, or returns ErrRateLimited when the
// request window is full or the token window is already spent.
func (rl *RateLimiter) Allow(client string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)
	c := rl.client(client)

	c.requests.evict(now)
	c.tokens.evict(now)

	if c.requests.limit > 0 && c.requests.total >= c.requests.limit {
		return ErrRateLimited
	}
	if c.tokens.limit > 0 && c.tokens.total >= c.tokens.limit {
		return ErrRateLimited
	}
	c.requests.add(now, 1)
	return nil
}

// Charge records n tokens against client. Non-positive n is ignored.
func (rl *RateLimiter) Charge(client string, n int) {
	if n <= 0 || rl.config.TokensPerHour <= 0 {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	c := rl.client(client)
	c.tokens.evict(now)
	c.tokens.add(now, n)
}

// Clients returns the number of clients currently tracked.
func (rl *RateLimiter) Clients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func (rl *RateLimiter) client(key string) *clientBuckets {
	c, ok := rl.clients[key]
	if !ok {
		c = &clientBuckets{
			requests: bucket{window: time.Minute, limit: rl.config.RequestsPerMin},
			tokens:   bucket{window: time.Hour, limit: rl.config.TokensPerHour},
		}
		rl.clients[key] = c
	}
	return c
}

// sweep drops clients whose windows hold no events. Caller holds mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < sweepInterval {
		return
	}
	rl.lastSweep = now
	for key, c := range rl.clients {
		c.requests.evict(now)
		c.tokens.evict(now)
		if len(c.requests.events) == 0 && len(c.tokens.events) == 0 {
			delete(rl.clients, key)
		}
	}
}

func (b *bucket) add(now time.Time, n int) {
	b.events = append(b.events, event{at: now, n: n})
	b.total += n
}

// evict removes events outside the sliding window.
func (b *bucket) evict(now time.Time) {
	cutoff := now.Add(-b.window)
	// Events are chronologically ordered.
	i := 0
	for i < len(b.events) && b.events[i].at.Before(cutoff) {
		b.total -= b.events[i].n
		i++
	}
	if i > 0 {
		b.events = b.events[i:]
	}
}
