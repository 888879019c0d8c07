package ctxengine_test

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/flemzord/ctxwin/internal/promptfmt"
	"github.com/flemzord/ctxwin/pkg/message"
)

var refNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

func testFormatter() promptfmt.ZoneFormatter {
	return promptfmt.NewZoneFormatter(time.UTC, refNow)
}

// mockEstimator returns fixed counts for known texts and len(text) otherwise.
// It counts calls so tests can assert the estimator was not consulted.
type mockEstimator struct {
	fixed map[string]int
	calls atomic.Int64
}

func (m *mockEstimator) Estimate(text string) int {
	m.calls.Add(1)
	if n, ok := m.fixed[text]; ok {
		return n
	}
	return len(text)
}

// measuredEntries creates alternating user/assistant entries with the given
// pre-measured costs, oldest first.
func measuredEntries(costs ...int) []message.HistoryEntry {
	entries := make([]message.HistoryEntry, len(costs))
	for i, c := range costs {
		role := message.RoleUser
		if i%2 == 1 {
			role = message.RoleAssistant
		}
		entries[i] = message.HistoryEntry{
			Role:    role,
			Content: fmt.Sprintf("msg-%d", i),
			Tokens:  message.Measured(c),
		}
	}
	return entries
}

func guildGroup(channel string, costs ...int) message.ChannelHistoryGroup {
	entries := measuredEntries(costs...)
	for i := range entries {
		entries[i].Content = channel + "-" + entries[i].Content
	}
	return message.ChannelHistoryGroup{
		Environment: message.ChannelEnvironment{Type: message.ChatGuild, GuildName: "Guild", ChannelName: channel},
		Entries:     entries,
	}
}
