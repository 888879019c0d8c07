package tokencache

import (
	"context"
	"log/slog"
	"time"

	"github.com/zeebo/blake3"

	ctxengine "github.com/flemzord/ctxwin/internal/context"
)

// lookupTimeout bounds a single cache round trip. Estimate has no context, so
// a stuck database must not stall assembly.
const lookupTimeout = 2 * time.Second

// Estimator wraps a named estimator with the persistent cache. Counts are
// namespaced by the inner estimator's name so switching tokenizers never
// reuses stale numbers. Cache failures are logged and fall back to the inner
// estimator.
type Estimator struct {
	inner  ctxengine.NamedEstimator
	store  *Store
	logger *slog.Logger
}

var _ ctxengine.NamedEstimator = (*Estimator)(nil)

// NewEstimator creates a caching estimator. A nil logger uses slog.Default().
func NewEstimator(inner ctxengine.NamedEstimator, store *Store, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{inner: inner, store: store, logger: logger}
}

// Digest returns the cache key of text.
func Digest(text string) []byte {
	sum := blake3.Sum256([]byte(text))
	return sum[:]
}

// Estimate implements ctxengine.TokenEstimator.
func (e *Estimator) Estimate(text string) int {
	if text == "" {
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	ns := e.inner.Name()
	digest := Digest(text)

	n, ok, err := e.store.Get(ctx, ns, digest)
	if err != nil {
		e.logger.Warn("token cache lookup failed", "namespace", ns, "error", err)
	}
	if ok {
		return n
	}

	n = e.inner.Estimate(text)
	if err := e.store.Put(ctx, ns, digest, n); err != nil {
		e.logger.Warn("token cache store failed", "namespace", ns, "error", err)
	}
	return n
}

// Name implements ctxengine.NamedEstimator.
func (e *Estimator) Name() string {
	return e.inner.Name()
}
