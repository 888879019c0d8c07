package promptfmt

import (
	"strings"

	"github.com/flemzord/ctxwin/pkg/message"
)

// FormatMemory renders one memory as a <memory> element. Time attributes are
// emitted only when the memory carries a valid timestamp.
func FormatMemory(m message.MemoryDocument, tf TimeFormatter) string {
	var b strings.Builder
	writeMemory(&b, m, tf)
	return b.String()
}

func writeMemory(b *strings.Builder, m message.MemoryDocument, tf TimeFormatter) {
	b.WriteString("<" + TagMemory)
	if m.ID != "" {
		attr(b, AttrID, m.ID)
	}
	if ValidTime(m.CreatedAt) {
		attr(b, AttrTimestamp, tf.Absolute(m.CreatedAt))
		attr(b, AttrRelative, tf.Relative(m.CreatedAt))
	}
	b.WriteByte('>')
	b.WriteString(EscapeText(m.Content))
	b.WriteString(CloseTag(TagMemory))
}

// FormatMemories renders the full memory archive: the container, the
// archival instruction, then every memory in the given order. It returns ""
// when there are no memories.
func FormatMemories(memories []message.MemoryDocument, tf TimeFormatter) string {
	if len(memories) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(OpenTag(TagMemoryArchive))
	b.WriteByte('\n')
	b.WriteString(OpenTag(TagInstruction))
	b.WriteString(EscapeText(MemoryInstruction))
	b.WriteString(CloseTag(TagInstruction))
	b.WriteByte('\n')
	for i := range memories {
		writeMemory(&b, memories[i], tf)
		b.WriteByte('\n')
	}
	b.WriteString(CloseTag(TagMemoryArchive))
	return b.String()
}
