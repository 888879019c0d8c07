package ctxengine

import (
	"strings"
	"time"

	"github.com/flemzord/ctxwin/internal/promptfmt"
	"github.com/flemzord/ctxwin/pkg/message"
)

// AssemblyInput contains the inputs for context assembly. Every slice may be
// nil.
type AssemblyInput struct {
	// ContextWindowTokens is the hard ceiling for the whole prompt.
	// 0 selects the configured default.
	ContextWindowTokens int

	// SystemPrompt is the base instruction text.
	SystemPrompt string

	// CurrentMessage is the text of the turn being answered.
	CurrentMessage string

	// SpeakerName is the AI persona the prompt is built for. Assistant turns
	// without a persona are attributed to it.
	SpeakerName string

	Participants message.Participants
	Memories     []message.MemoryDocument
	History      []message.HistoryEntry
	CrossChannel []message.ChannelHistoryGroup

	// Now is the reference instant for relative timestamps. Zero means the
	// assembler's clock.
	Now time.Time
}

// SelectionMetadata summarizes what history selection did.
type SelectionMetadata struct {
	Strategy                     string `json:"strategy"`
	MessagesIncluded             int    `json:"messages_included"`
	MessagesDropped              int    `json:"messages_dropped"`
	CrossChannelMessagesIncluded int    `json:"cross_channel_messages_included"`
}

// AssembledContext is the output of context assembly.
type AssembledContext struct {
	// SystemPrompt is the base prompt followed by the participants block.
	SystemPrompt string

	// MemoryBlock is the rendered memory archive, or "".
	MemoryBlock string

	CurrentMessage string

	// SelectedHistory holds the surviving current-channel entries, oldest first.
	SelectedHistory []message.HistoryEntry

	// SerializedHistory is the rendered history, cross-channel block included.
	SerializedHistory string

	Budget    TokenBudget
	Selection SelectionMetadata
}

// Render joins the non-empty prompt sections in prompt order.
func (c AssembledContext) Render() string {
	var parts []string
	for _, s := range []string{c.SystemPrompt, c.MemoryBlock, c.SerializedHistory, c.CurrentMessage} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Assembler builds the context window for a turn. It keeps no per-request
// state and is safe for concurrent use when its estimator is.
type Assembler struct {
	estimator TokenEstimator
	config    ContextConfig
}

// NewAssembler creates an Assembler with the given estimator and config.
func NewAssembler(estimator TokenEstimator, cfg ContextConfig) *Assembler {
	return &Assembler{
		estimator: estimator,
		config:    cfg.withDefaults(),
	}
}

// MeasureEntries returns a copy of entries with every missing token count
// filled in, priced as BuildContext would price them.
func (a *Assembler) MeasureEntries(entries []message.HistoryEntry, speakerName string) []message.HistoryEntry {
	tf := promptfmt.NewZoneFormatter(a.config.Location, a.config.Now())
	return NewSelector(a.estimator, tf).MeasureEntries(entries, speakerName)
}

// BuildContext assembles the context window.
//
// The assembly process:
//  1. Render participants into the system prompt and render the memory archive
//  2. Compute the budget left for history
//  3. Select current-channel history, then cross-channel history
//  4. Return the assembled result with budget breakdown
//
// An exhausted budget yields zero history, never an error.
func (a *Assembler) BuildContext(in AssemblyInput) AssembledContext {
	now := in.Now
	if now.IsZero() {
		now = a.config.Now()
	}
	tf := promptfmt.NewZoneFormatter(a.config.Location, now)

	systemPrompt := in.SystemPrompt
	if block := promptfmt.FormatParticipants(in.Participants, a.config.DefaultExampleName, tf); block != "" {
		if systemPrompt != "" {
			systemPrompt += "\n\n"
		}
		systemPrompt += block
	}
	memoryBlock := promptfmt.FormatMemories(in.Memories, tf)

	budget := ComputeBudget(a.estimator, a.config.windowFor(in.ContextWindowTokens), systemPrompt, in.CurrentMessage, memoryBlock)

	selector := NewSelector(a.estimator, tf)
	sel := selector.SelectAndSerializeHistory(in.History, in.SpeakerName, budget.HistoryBudget, in.CrossChannel...)
	budget.HistoryTokensUsed = sel.HistoryTokensUsed

	return AssembledContext{
		SystemPrompt:      systemPrompt,
		MemoryBlock:       memoryBlock,
		CurrentMessage:    in.CurrentMessage,
		SelectedHistory:   sel.SelectedHistory,
		SerializedHistory: sel.SerializedHistory,
		Budget:            budget,
		Selection: SelectionMetadata{
			Strategy:                     StrategyRecency,
			MessagesIncluded:             sel.MessagesIncluded,
			MessagesDropped:              sel.MessagesDropped,
			CrossChannelMessagesIncluded: sel.CrossChannelMessagesIncluded,
		},
	}
}
