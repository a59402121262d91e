package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/go-arborium/arborium/internal/engine"
)

// ansiPalette maps a compact tag (see tags.go) to a terminal SGR
// parameter. Unmapped tags render unstyled rather than falling back to a
// default color, mirroring the HTML renderer's "unknown capture, plain
// text" rule.
var ansiPalette = map[string]string{
	"k":  "35",  // keyword: magenta
	"f":  "34",  // function: blue
	"s":  "32",  // string: green
	"se": "32;1",
	"c":  "90", // comment: bright black
	"n":  "33", // number/constant: yellow
	"t":  "36", // type: cyan
	"v":  "37", // variable: white
	"pr": "36",
	"o":  "37",
	"p":  "37",
	"tg": "35",
	"at": "33",
	"ns": "36",
}

// ANSI renders a flat span stream as an ANSI-colored terminal string,
// the secondary rendering target alongside HTML (§4.4 covers HTML; this
// mirrors its walk with a different emission backend). PlainText
// round-trips to the original text, which this package's tests use to
// check ANSI output never alters the underlying bytes.
func ANSI(source []byte, spans []engine.Span) string {
	var b strings.Builder
	b.Grow(len(source) + len(source)/4)

	var pos uint32
	for _, s := range spans {
		if s.Start < pos || s.End > uint32(len(source)) {
			continue
		}
		b.Write(source[pos:s.Start])

		tag, ok := CompactTag(s.Capture)
		sgr, styled := ansiPalette[tag]
		if !ok || !styled {
			b.Write(source[s.Start:s.End])
			pos = s.End
			continue
		}
		fmt.Fprintf(&b, "\x1b[%sm", sgr)
		b.Write(source[s.Start:s.End])
		b.WriteString("\x1b[0m")
		pos = s.End
	}
	if int(pos) < len(source) {
		b.Write(source[pos:])
	}
	return b.String()
}

// PlainText strips ANSI escape sequences back out of a rendered string,
// used by tests asserting the round-trip scenario (S6) also holds for
// the ANSI renderer.
func PlainText(rendered string) string {
	return ansi.Strip(rendered)
}
