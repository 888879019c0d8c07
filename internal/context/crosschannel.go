package ctxengine

import (
	"strings"

	"github.com/flemzord/ctxwin/internal/promptfmt"
	"github.com/flemzord/ctxwin/pkg/message"
)

// CrossChannelResult is the rendered history of other channels.
type CrossChannelResult struct {
	XML              string
	MessagesIncluded int
	// TokensUsed includes the container and per-channel overhead.
	TokensUsed int
}

// SerializeCrossChannelHistory fits the history of other channels into
// tokenBudget. Groups are visited in the given order (most recently active
// channel first); each contributes the newest contiguous run of its messages
// that still fits the running total. A group that fits nothing is skipped and
// later groups are still tried.
//
// The container overhead is measured once with the selector's estimator;
// per-channel overhead uses the character approximation.
func (s *Selector) SerializeCrossChannelHistory(groups []message.ChannelHistoryGroup, speakerName string, tokenBudget int) CrossChannelResult {
	if len(groups) == 0 || tokenBudget <= 0 {
		return CrossChannelResult{}
	}

	open, closing := promptfmt.CrossChannelOpen(), promptfmt.CrossChannelClose()
	containerOverhead := s.estimator.Estimate(open + closing)
	available := tokenBudget - containerOverhead
	if available <= 0 {
		return CrossChannelResult{}
	}

	var (
		blocks   []string
		used     int
		included int
	)
	for i := range groups {
		if used >= available {
			break
		}

		groupOpen := promptfmt.ChannelOpen(groups[i].Environment)
		groupClose := promptfmt.ChannelClose()
		overhead := roughEstimator.Estimate(groupOpen + groupClose)

		limit := available - used - overhead
		if limit <= 0 {
			continue
		}

		rendered, cost := s.takeSuffix(groups[i].Entries, speakerName, limit)
		if len(rendered) == 0 {
			continue
		}

		used += overhead + cost
		included += len(rendered)
		blocks = append(blocks, groupOpen+strings.Join(rendered, "\n")+groupClose)
	}

	if len(blocks) == 0 {
		return CrossChannelResult{}
	}

	return CrossChannelResult{
		XML:              open + strings.Join(blocks, "\n") + closing,
		MessagesIncluded: included,
		TokensUsed:       containerOverhead + used,
	}
}
