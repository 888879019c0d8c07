package ctxengine

import (
	"math"
	"strconv"
)

// TokenEstimator estimates the token count of a string. Implementations used
// with a shared Assembler must be safe for concurrent use.
type TokenEstimator interface {
	Estimate(text string) int
}

// NamedEstimator is a TokenEstimator that can identify its tokenizer. Caches
// use the name to keep counts from different tokenizers apart.
type NamedEstimator interface {
	TokenEstimator
	Name() string
}

// EstimatorFunc adapts a plain function to TokenEstimator.
type EstimatorFunc func(text string) int

// Estimate implements TokenEstimator.
func (f EstimatorFunc) Estimate(text string) int { return f(text) }

const defaultCharsPerToken = 4.0

// CharEstimator estimates tokens using a simple characters-per-token ratio.
// A ratio of ~4 works well for English; ~3 for French or other Latin languages.
// A ratio <= 0, including the zero value, counts as 4.
type CharEstimator struct {
	CharsPerToken float64
}

var _ NamedEstimator = (*CharEstimator)(nil)

// NewCharEstimator creates a CharEstimator with the given ratio.
// If charsPerToken is <= 0, defaults to 4.0 (English approximation).
func NewCharEstimator(charsPerToken float64) *CharEstimator {
	if charsPerToken <= 0 {
		charsPerToken = defaultCharsPerToken
	}
	return &CharEstimator{CharsPerToken: charsPerToken}
}

func (e *CharEstimator) ratio() float64 {
	if e.CharsPerToken <= 0 {
		return defaultCharsPerToken
	}
	return e.CharsPerToken
}

// Estimate returns the estimated token count for the given text, rounded up.
func (e *CharEstimator) Estimate(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(math.Ceil(float64(len(text)) / e.ratio()))
}

// Name implements NamedEstimator.
func (e *CharEstimator) Name() string {
	return "chars/" + strconv.FormatFloat(e.ratio(), 'f', -1, 64)
}

// roughEstimator prices structural overhead where a slight overcount is
// acceptable and a tokenizer call per group is not.
var roughEstimator = NewCharEstimator(defaultCharsPerToken)
