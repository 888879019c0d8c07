package promptfmt

import (
	"strings"

	"github.com/flemzord/ctxwin/pkg/message"
)

// Fallback speaker labels.
const (
	UserLabel   = "User"
	SystemLabel = "System"
)

// Speaker returns the name a history entry is attributed to. Assistant turns
// default to speakerName (the AI persona the prompt is built for); user turns
// default to UserLabel.
func Speaker(e message.HistoryEntry, speakerName string) string {
	persona := e.Provenance.PersonaName
	switch e.Role {
	case message.RoleAssistant:
		if persona != "" {
			return persona
		}
		return speakerName
	case message.RoleUser:
		if persona != "" {
			return persona
		}
		return UserLabel
	case message.RoleSystem:
		return SystemLabel
	}
	return UserLabel
}

// FormatMessage renders one history entry as a <message> element.
// Referenced messages and attachment descriptions are flattened into the text.
func FormatMessage(e message.HistoryEntry, speakerName string, tf TimeFormatter) string {
	var b strings.Builder
	b.WriteString("<" + TagMessage)
	attr(&b, AttrRole, e.Role.String())
	if from := Speaker(e, speakerName); from != "" {
		attr(&b, AttrFrom, from)
	}
	if ValidTime(e.CreatedAt) {
		attr(&b, AttrTime, tf.Absolute(e.CreatedAt))
	}
	if e.Provenance.Forwarded {
		attr(&b, AttrForwarded, "true")
	}
	b.WriteByte('>')
	b.WriteString(EscapeText(flattenContent(e)))
	b.WriteString(CloseTag(TagMessage))
	return b.String()
}

// flattenContent joins the message body with its references and attachments.
func flattenContent(e message.HistoryEntry) string {
	p := e.Provenance
	if len(p.ReferencedMessages) == 0 && len(p.Attachments) == 0 {
		return e.Content
	}

	var b strings.Builder
	b.WriteString(e.Content)
	for _, ref := range p.ReferencedMessages {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[Replying to ")
		if ref.AuthorName != "" {
			b.WriteString(ref.AuthorName)
		} else {
			b.WriteString("an earlier message")
		}
		b.WriteString(": ")
		b.WriteString(ref.Content)
		b.WriteByte(']')
	}
	for _, a := range p.Attachments {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[Attachment: ")
		b.WriteString(a.Label())
		if a.Description != "" {
			b.WriteString(" - ")
			b.WriteString(a.Description)
		}
		b.WriteByte(']')
	}
	return b.String()
}

// FormatLocation renders the location header of a channel.
func FormatLocation(env message.ChannelEnvironment) string {
	var b strings.Builder
	b.WriteString("<" + TagLocation)
	typ := env.Type
	if typ == "" {
		typ = message.ChatGuild
	}
	attr(&b, AttrType, string(typ))
	if !env.IsDirectMessage() {
		if env.GuildName != "" {
			attr(&b, AttrGuild, env.GuildName)
		}
		if env.ChannelName != "" {
			attr(&b, AttrChannel, "#"+strings.TrimPrefix(env.ChannelName, "#"))
		}
	}
	b.WriteString("/>")
	return b.String()
}

// ChannelOpen returns the opening wrapper of one channel's history, including
// the location header.
func ChannelOpen(env message.ChannelEnvironment) string {
	return OpenTag(TagChannelHistory) + "\n" + FormatLocation(env) + "\n"
}

// ChannelClose returns the closing wrapper of one channel's history.
func ChannelClose() string {
	return "\n" + CloseTag(TagChannelHistory)
}

// CrossChannelOpen and CrossChannelClose delimit the whole cross-channel block.
func CrossChannelOpen() string {
	return OpenTag(TagCrossChannel) + "\n"
}

// CrossChannelClose closes the cross-channel container.
func CrossChannelClose() string {
	return "\n" + CloseTag(TagCrossChannel)
}
