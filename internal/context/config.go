// Package ctxengine assembles the bounded context window of a conversational
// turn: it budgets tokens across the fixed prompt sections, selects the
// newest history that fits, offers leftover budget to other channels, and
// renders the survivors with promptfmt.
package ctxengine

import "time"

// StrategyRecency names the only selection strategy: newest-first,
// contiguous-suffix selection.
const StrategyRecency = "recency_contiguous_suffix"

// ContextConfig holds the tuning knobs for the context engine.
type ContextConfig struct {
	// DefaultWindowTokens applies when a request carries no window size.
	DefaultWindowTokens int

	// MaxContextTokens caps any window a request asks for. 0 means no cap.
	MaxContextTokens int

	// DefaultExampleName is the example speaker of the participant
	// attribution note when no participant is active.
	DefaultExampleName string

	// Location is the zone timestamps are rendered in. Nil means UTC.
	Location *time.Location

	// Now supplies the reference instant for relative times when a request
	// does not carry one. Nil means time.Now.
	Now func() time.Time
}

// withDefaults returns a copy of cfg with zero-valued fields replaced by
// sensible defaults.
func (cfg ContextConfig) withDefaults() ContextConfig {
	if cfg.DefaultWindowTokens <= 0 {
		cfg.DefaultWindowTokens = 8192
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return cfg
}

// windowFor resolves the effective window of a request.
func (cfg ContextConfig) windowFor(requested int) int {
	window := requested
	if window <= 0 {
		window = cfg.DefaultWindowTokens
	}
	if cfg.MaxContextTokens > 0 && window > cfg.MaxContextTokens {
		window = cfg.MaxContextTokens
	}
	return window
}
