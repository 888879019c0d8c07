package promptfmt

import (
	"strings"

	"github.com/flemzord/ctxwin/pkg/message"
)

// FormatParticipant renders one participant. The about text goes into a CDATA
// block so user-written prose reaches the model unescaped.
func FormatParticipant(p message.Participant, tf TimeFormatter) string {
	var b strings.Builder
	writeParticipant(&b, p, tf)
	return b.String()
}

func writeParticipant(b *strings.Builder, p message.Participant, tf TimeFormatter) {
	info := p.Info

	b.WriteString("<" + TagParticipant)
	attr(b, AttrID, p.ID)
	if info.Active {
		attr(b, AttrActive, "true")
	}
	b.WriteString(">\n")

	b.WriteString("<" + TagName)
	attr(b, AttrDisplay, info.DisplayName)
	if info.Username != "" {
		attr(b, AttrUsername, info.Username)
	}
	b.WriteString("/>\n")

	if info.Pronouns != "" {
		b.WriteString(OpenTag(TagPronouns))
		b.WriteString(EscapeText(info.Pronouns))
		b.WriteString(CloseTag(TagPronouns))
		b.WriteByte('\n')
	}

	if g := info.Guild; g != nil {
		writeGuild(b, g, tf)
	}

	if info.About != "" {
		b.WriteString(OpenTag(TagAbout))
		b.WriteString(CDATA(info.About))
		b.WriteString(CloseTag(TagAbout))
		b.WriteByte('\n')
	}

	b.WriteString(CloseTag(TagParticipant))
}

func writeGuild(b *strings.Builder, g *message.GuildInfo, tf TimeFormatter) {
	b.WriteString("<" + TagGuildInfo)
	if g.Color != "" {
		attr(b, AttrColor, g.Color)
	}
	if ValidTime(g.JoinedAt) {
		attr(b, AttrJoined, tf.Date(g.JoinedAt))
	}
	if len(g.Roles) == 0 {
		b.WriteString("/>\n")
		return
	}
	b.WriteByte('>')
	b.WriteString(OpenTag(TagRoles))
	for _, role := range g.Roles {
		b.WriteString(OpenTag(TagRole))
		b.WriteString(EscapeText(role))
		b.WriteString(CloseTag(TagRole))
	}
	b.WriteString(CloseTag(TagRoles))
	b.WriteString(CloseTag(TagGuildInfo))
	b.WriteByte('\n')
}

// FormatParticipants renders the participant list in order. With more than
// one participant an attribution note is appended; its example speaker is the
// active participant, or defaultExample when none is active (an empty
// defaultExample falls back to DefaultExampleName). Returns "" for an empty
// list.
func FormatParticipants(ps message.Participants, defaultExample string, tf TimeFormatter) string {
	if len(ps) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(OpenTag(TagParticipants))
	b.WriteByte('\n')
	for i := range ps {
		writeParticipant(&b, ps[i], tf)
		b.WriteByte('\n')
	}
	if len(ps) > 1 {
		b.WriteString(OpenTag(TagNote))
		b.WriteString(EscapeText(attributionNote(exampleName(ps, defaultExample))))
		b.WriteString(CloseTag(TagNote))
		b.WriteByte('\n')
	}
	b.WriteString(CloseTag(TagParticipants))
	return b.String()
}

func exampleName(ps message.Participants, fallback string) string {
	if active, ok := ps.Active(); ok && active.Info.DisplayName != "" {
		return active.Info.DisplayName
	}
	if fallback != "" {
		return fallback
	}
	return DefaultExampleName
}

func attributionNote(example string) string {
	return "Several people take part in this conversation. Every user message carries a " +
		AttrFrom + `="..." attribute naming its author: a message with ` + AttrFrom + `="` + example +
		`" was written by ` + example + ". Attribute each statement to the person who made it " +
		"and reply to the author of the latest message."
}
