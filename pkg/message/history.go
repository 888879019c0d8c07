package message

import "time"

// Provenance carries optional attribution for a history entry.
type Provenance struct {
	// Forwarded is true when the message was forwarded from elsewhere.
	Forwarded bool `json:"forwarded,omitempty"`

	// PersonaName is the speaker: the user's display name on user turns, or
	// the persona that produced an assistant turn.
	PersonaName string `json:"persona_name,omitempty"`

	// ReferencedMessages are replies or quotes embedded in the message.
	ReferencedMessages []Reference `json:"referenced_messages,omitempty"`

	// Attachments are media descriptions attached to the message.
	Attachments []Attachment `json:"attachments,omitempty"`
}

// HistoryEntry is one conversational turn as fetched from storage.
type HistoryEntry struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at,omitzero"`
	Tokens     TokenCost  `json:"tokens"`
	Provenance Provenance `json:"provenance,omitzero"`
}

// ChannelHistoryGroup bundles the history of one other channel. Entries are
// chronological (oldest first).
type ChannelHistoryGroup struct {
	Environment ChannelEnvironment `json:"environment"`
	Entries     []HistoryEntry     `json:"entries"`
}

// MemoryDocument is a long-term memory retrieved for the current turn.
type MemoryDocument struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	Score     float64   `json:"score,omitempty"`
}
