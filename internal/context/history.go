package ctxengine

import (
	"slices"
	"strings"

	"github.com/flemzord/ctxwin/internal/promptfmt"
	"github.com/flemzord/ctxwin/pkg/message"
)

// SelectionResult is the outcome of current-channel history selection.
type SelectionResult struct {
	// SelectedHistory holds the surviving entries, oldest first.
	SelectedHistory []message.HistoryEntry

	// SerializedHistory is the rendered current-channel block followed by
	// the cross-channel block, if any.
	SerializedHistory string

	MessagesIncluded int
	MessagesDropped  int

	// HistoryTokensUsed covers current-channel and cross-channel content.
	// It is the sum of the entry costs plus cross-channel overhead; the
	// newlines joining messages and blocks are not priced, so a tokenizer
	// may count a few more tokens in SerializedHistory.
	HistoryTokensUsed int

	CrossChannelMessagesIncluded int
	CrossChannelTokensUsed       int
}

// Selector picks and renders history under a token budget. It is stateless
// beyond its injected capabilities and may be shared between goroutines when
// its estimator is.
type Selector struct {
	estimator TokenEstimator
	times     promptfmt.TimeFormatter
}

// NewSelector creates a Selector.
func NewSelector(estimator TokenEstimator, tf promptfmt.TimeFormatter) *Selector {
	return &Selector{estimator: estimator, times: tf}
}

// cost resolves the token cost of a rendered entry: the measured count when
// one was supplied, the estimator otherwise.
func (s *Selector) cost(e message.HistoryEntry, rendered string) int {
	if n, ok := e.Tokens.Known(); ok {
		return n
	}
	return s.estimator.Estimate(rendered)
}

// takeSuffix walks entries from newest to oldest, keeping each while the
// running total stays within limit. The first entry that does not fit ends
// the walk; nothing older is considered. The rendered survivors are returned
// oldest first together with their total cost.
func (s *Selector) takeSuffix(entries []message.HistoryEntry, speakerName string, limit int) ([]string, int) {
	var (
		rendered []string
		used     int
	)
	for i := len(entries) - 1; i >= 0; i-- {
		text := promptfmt.FormatMessage(entries[i], speakerName, s.times)
		c := s.cost(entries[i], text)
		if used+c > limit {
			break
		}
		rendered = append(rendered, text)
		used += c
	}
	slices.Reverse(rendered)
	return rendered, used
}

// SelectAndSerializeHistory selects the newest contiguous run of entries
// that fits budget and renders it. Any budget left afterwards is offered to
// the cross-channel groups, whose block is appended after the current
// channel's.
func (s *Selector) SelectAndSerializeHistory(
	entries []message.HistoryEntry,
	speakerName string,
	budget int,
	groups ...message.ChannelHistoryGroup,
) SelectionResult {
	if len(entries) == 0 && len(groups) == 0 {
		return SelectionResult{}
	}
	if budget <= 0 {
		return SelectionResult{MessagesDropped: len(entries)}
	}

	rendered, used := s.takeSuffix(entries, speakerName, budget)
	n := len(rendered)

	result := SelectionResult{
		SelectedHistory:   slices.Clone(entries[len(entries)-n:]),
		MessagesIncluded:  n,
		MessagesDropped:   len(entries) - n,
		HistoryTokensUsed: used,
	}

	var b strings.Builder
	b.WriteString(strings.Join(rendered, "\n"))

	if remaining := budget - used; remaining > 0 && len(groups) > 0 {
		cross := s.SerializeCrossChannelHistory(groups, speakerName, remaining)
		if cross.XML != "" {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(cross.XML)
			result.CrossChannelMessagesIncluded = cross.MessagesIncluded
			result.CrossChannelTokensUsed = cross.TokensUsed
			result.HistoryTokensUsed += cross.TokensUsed
		}
	}

	result.SerializedHistory = b.String()
	return result
}

// MeasureEntries returns a copy of entries in which every entry lacking a
// token count carries one, priced exactly as selection would price it.
// Callers persist the counts so later selections skip the estimator.
func (s *Selector) MeasureEntries(entries []message.HistoryEntry, speakerName string) []message.HistoryEntry {
	out := slices.Clone(entries)
	for i := range out {
		if _, ok := out[i].Tokens.Known(); ok {
			continue
		}
		text := promptfmt.FormatMessage(out[i], speakerName, s.times)
		out[i].Tokens = message.Measured(s.estimator.Estimate(text))
	}
	return out
}
