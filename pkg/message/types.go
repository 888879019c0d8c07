// Package message defines the read-only data contract between the history and
// memory stores upstream and the context engine. Values in this package are
// built once per request and never mutated by the engine.
package message

import (
	"encoding/json"
	"fmt"
)

// Role identifies who authored a history entry.
type Role uint8

// Supported roles. The zero value is invalid so that a forgotten role is
// caught at the boundary instead of rendering as a silent default.
const (
	RoleSystem Role = iota + 1
	RoleUser
	RoleAssistant
)

// ParseRole converts a wire string into a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "system":
		return RoleSystem, nil
	case "user":
		return RoleUser, nil
	case "assistant":
		return RoleAssistant, nil
	default:
		return 0, fmt.Errorf("message: unknown role %q", s)
	}
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r >= RoleSystem && r <= RoleAssistant
}

// String returns the wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("message: cannot marshal invalid role %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ChatType indicates the kind of conversation a channel hosts.
type ChatType string

const (
	// ChatDM is a direct (one-to-one) conversation.
	ChatDM ChatType = "dm"
	// ChatGuild is a channel inside a guild (server).
	ChatGuild ChatType = "guild"
)

// ChannelEnvironment describes where a conversation happens. It feeds the
// location header of cross-channel history blocks.
type ChannelEnvironment struct {
	Type        ChatType `json:"type"`
	GuildName   string   `json:"guild_name,omitempty"`
	ChannelName string   `json:"channel_name,omitempty"`
	ChannelID   string   `json:"channel_id,omitempty"`
}

// IsDirectMessage reports whether the environment is a DM.
func (e ChannelEnvironment) IsDirectMessage() bool {
	return e.Type == ChatDM
}

// TokenCost is the token count of a history entry. It is either already
// measured (typically cached upstream) or unknown and in need of measurement.
// The zero value means "needs measurement".
type TokenCost struct {
	tokens   int
	measured bool
}

// Measured returns a TokenCost carrying a known count. Negative counts are
// clamped to zero.
func Measured(tokens int) TokenCost {
	if tokens < 0 {
		tokens = 0
	}
	return TokenCost{tokens: tokens, measured: true}
}

// Known returns the measured count and true, or 0 and false when the entry
// still needs measurement.
func (c TokenCost) Known() (int, bool) {
	return c.tokens, c.measured
}

// MarshalJSON encodes a measured cost as a number and an unmeasured one as null.
func (c TokenCost) MarshalJSON() ([]byte, error) {
	if !c.measured {
		return []byte("null"), nil
	}
	return json.Marshal(c.tokens)
}

// UnmarshalJSON accepts a non-negative number (measured) or null (needs
// measurement).
func (c *TokenCost) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = TokenCost{}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("message: token count: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("message: negative token count %d", n)
	}
	*c = Measured(n)
	return nil
}
