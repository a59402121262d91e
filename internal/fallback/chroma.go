// Package fallback provides an optional, default-off lexer for
// languages the grammar registry cannot serve — neither a static
// tree-sitter binding nor a resolvable WASM module. It trades precision
// (chroma's lexers are regex-based, not a real parse) for coverage: a
// page that would otherwise render as unstyled plain text gets some
// syntax color instead.
package fallback

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Chroma renders source with chroma's own lexer+formatter pipeline,
// bypassing the tree-sitter engine entirely. It is only ever invoked by
// a caller that already checked the grammar provider returned absent for
// language (§8, S5 "unknown language") and has explicitly opted into the
// fallback — the engine itself never calls this package.
type Chroma struct {
	style *chroma.Style
}

// NewChroma constructs a fallback renderer using the named chroma style
// ("monokai", "github", ...); an unknown name falls back to chroma's
// "swapoff" default.
func NewChroma(styleName string) *Chroma {
	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}
	return &Chroma{style: style}
}

// Available reports whether chroma has a lexer registered for language,
// so a caller can decide whether falling back is worth attempting.
func Available(language string) bool {
	return lexers.Get(language) != nil
}

// Render lexes and formats source as HTML. It returns an error only if
// chroma itself fails to tokenize or format; an unrecognized language
// degrades to chroma's plaintext lexer rather than erroring, matching
// the engine's own "unknown language renders as escaped plain text"
// contract (§8, S5) as closely as a regex lexer can.
func (c *Chroma) Render(language string, source []byte) (string, error) {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, string(source))
	if err != nil {
		return "", fmt.Errorf("fallback: tokenize %q: %w", language, err)
	}

	formatter := html.New(html.WithClasses(true), html.TabWidth(4))

	var buf bytes.Buffer
	if err := formatter.Format(&buf, c.style, iterator); err != nil {
		return "", fmt.Errorf("fallback: format %q: %w", language, err)
	}
	return buf.String(), nil
}

// StyleCSS returns the CSS stylesheet for the class names Render emits,
// so a caller using Render more than once doesn't repeat the stylesheet
// inline on every response.
func (c *Chroma) StyleCSS() (string, error) {
	formatter := html.New(html.WithClasses(true))
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, c.style); err != nil {
		return "", fmt.Errorf("fallback: write style css: %w", err)
	}
	return buf.String(), nil
}
