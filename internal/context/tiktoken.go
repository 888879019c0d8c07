package ctxengine

import (
	"errors"
	"fmt"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used when none is configured.
const DefaultEncoding = "cl100k_base"

// ErrEstimatorUnavailable indicates that a tokenizer could not be loaded.
var ErrEstimatorUnavailable = errors.New("ctxengine: estimator unavailable")

// TiktokenEstimator counts tokens with a real BPE tokenizer.
type TiktokenEstimator struct {
	mu       sync.Mutex
	enc      *tiktoken.Tiktoken
	encoding string
}

var _ NamedEstimator = (*TiktokenEstimator)(nil)

// NewTiktokenEstimator loads the named encoding (cl100k_base when empty).
// Loading may fetch the BPE ranks on first use.
func NewTiktokenEstimator(encoding string) (*TiktokenEstimator, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %s: %w", ErrEstimatorUnavailable, encoding, err)
	}
	return &TiktokenEstimator{enc: enc, encoding: encoding}, nil
}

// Estimate implements TokenEstimator.
func (e *TiktokenEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.enc.Encode(text, nil, nil))
}

// Name implements NamedEstimator.
func (e *TiktokenEstimator) Name() string {
	return "tiktoken/" + e.encoding
}
