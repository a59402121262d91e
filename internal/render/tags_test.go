package render

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactTagExactMatch(t *testing.T) {
	t.Parallel()

	tag, ok := CompactTag("keyword")
	require.True(t, ok)
	require.Equal(t, "k", tag)
}

func TestCompactTagLongestPrefixFallback(t *testing.T) {
	t.Parallel()

	tag, ok := CompactTag("keyword.control.import")
	require.True(t, ok)
	require.Equal(t, "k", tag)
}

func TestCompactTagUnmappedReturnsFalse(t *testing.T) {
	t.Parallel()

	_, ok := CompactTag("totally.unknown.capture")
	require.False(t, ok)
}
