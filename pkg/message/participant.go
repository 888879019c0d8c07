package message

import "time"

// GuildInfo is the guild-scoped profile of a participant.
type GuildInfo struct {
	Roles    []string  `json:"roles,omitempty"`
	Color    string    `json:"color,omitempty"`
	JoinedAt time.Time `json:"joined_at,omitzero"`
}

// ParticipantInfo is the profile of one conversation participant.
type ParticipantInfo struct {
	DisplayName string     `json:"display_name"`
	Username    string     `json:"username,omitempty"`
	About       string     `json:"about,omitempty"`
	Active      bool       `json:"active,omitempty"`
	Pronouns    string     `json:"pronouns,omitempty"`
	Guild       *GuildInfo `json:"guild,omitempty"`
}

// Participant binds a stable identifier to a profile.
type Participant struct {
	ID   string          `json:"id"`
	Info ParticipantInfo `json:"info"`
}

// Participants is an ordered participant list. Order is significant and is
// preserved verbatim in the rendered prompt.
type Participants []Participant

// Active returns the first participant flagged active.
func (p Participants) Active() (Participant, bool) {
	for _, participant := range p {
		if participant.Info.Active {
			return participant, true
		}
	}
	return Participant{}, false
}
