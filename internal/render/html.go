package render

import (
	"strings"

	"github.com/go-arborium/arborium/internal/engine"
)

// HTML renders a flat, non-overlapping span stream over source to a
// compact HTML string (§4.4). Because the stream is non-overlapping by
// construction (the assembler's postcondition), the output is guaranteed
// well-formed: tags never interleave.
func HTML(source []byte, spans []engine.Span) string {
	var b strings.Builder
	b.Grow(len(source) + len(source)/4)

	var pos uint32
	for _, s := range spans {
		if s.Start < pos {
			// Assembler postcondition says this cannot happen; defensive only.
			continue
		}
		if s.Start > uint32(len(source)) || s.End > uint32(len(source)) {
			continue
		}
		escapeInto(&b, source[pos:s.Start])

		tag, ok := CompactTag(s.Capture)
		if !ok {
			escapeInto(&b, source[s.Start:s.End])
			pos = s.End
			continue
		}
		b.WriteString("<a-")
		b.WriteString(tag)
		b.WriteByte('>')
		escapeInto(&b, source[s.Start:s.End])
		b.WriteString("</a-")
		b.WriteString(tag)
		b.WriteByte('>')
		pos = s.End
	}
	if int(pos) < len(source) {
		escapeInto(&b, source[pos:])
	}
	return b.String()
}

// escapeInto HTML-escapes &, <, >, " into entities, writing directly into
// b to avoid an intermediate allocation per span.
func escapeInto(b *strings.Builder, text []byte) {
	last := 0
	for i, c := range text {
		var entity string
		switch c {
		case '&':
			entity = "&amp;"
		case '<':
			entity = "&lt;"
		case '>':
			entity = "&gt;"
		case '"':
			entity = "&quot;"
		default:
			continue
		}
		b.Write(text[last:i])
		b.WriteString(entity)
		last = i + 1
	}
	b.Write(text[last:])
}
