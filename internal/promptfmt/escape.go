// Package promptfmt renders memories, participants and messages into the
// XML-tagged fragments that make up a prompt. Every function is deterministic:
// the same input always yields byte-identical output, which the token
// accounting in ctxengine relies on.
package promptfmt

import "strings"

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
		"\n", "&#10;",
		"\r", "&#13;",
		"\t", "&#9;",
	)
)

// EscapeText escapes s for use as element text. Newlines are kept as-is so
// the model sees natural paragraphs.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeAttr escapes s for use inside a double-quoted attribute value.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// CDATA wraps s in a CDATA section, preserving it byte-for-byte. A "]]>"
// inside s is split across two sections so it cannot terminate the block.
func CDATA(s string) string {
	return "<![CDATA[" + strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>") + "]]>"
}

// attr writes ` name="value"` with the value escaped.
func attr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(EscapeAttr(value))
	b.WriteByte('"')
}

// OpenTag returns "<name>".
func OpenTag(name string) string {
	return "<" + name + ">"
}

// CloseTag returns "</name>".
func CloseTag(name string) string {
	return "</" + name + ">"
}
