package fallback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAvailableKnownLanguage(t *testing.T) {
	t.Parallel()

	require.True(t, Available("go"))
}

func TestAvailableUnknownLanguage(t *testing.T) {
	t.Parallel()

	require.False(t, Available("not-a-real-language-xyz"))
}

func TestRenderProducesStyledHTML(t *testing.T) {
	t.Parallel()

	c := NewChroma("monokai")
	out, err := c.Render("go", []byte("package main\n\nfunc main() {}\n"))
	require.NoError(t, err)
	require.Contains(t, out, "<pre")
	require.Contains(t, out, "package")
}

func TestRenderUnknownLanguageDegradesToPlaintext(t *testing.T) {
	t.Parallel()

	c := NewChroma("monokai")
	out, err := c.Render("not-a-real-language-xyz", []byte("hello world"))
	require.NoError(t, err)
	require.Contains(t, out, "hello world")
}

func TestNewChromaUnknownStyleFallsBack(t *testing.T) {
	t.Parallel()

	c := NewChroma("not-a-real-style-xyz")
	require.NotNil(t, c.style)
}

func TestStyleCSSReturnsNonEmptyStylesheet(t *testing.T) {
	t.Parallel()

	c := NewChroma("monokai")
	css, err := c.StyleCSS()
	require.NoError(t, err)
	require.True(t, strings.Contains(css, "{"))
}
