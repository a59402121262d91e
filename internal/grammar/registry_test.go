package grammar

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasStaticBindingKnownLanguages(t *testing.T) {
	t.Parallel()

	require.True(t, HasStaticBinding("go"))
	require.True(t, HasStaticBinding("rust"))
	require.True(t, HasStaticBinding("python"))
}

func TestHasStaticBindingWASMOnlyLanguages(t *testing.T) {
	t.Parallel()

	// html and css have no compiled-in grammar in this build; they are
	// only reachable through the async WASM provider.
	require.False(t, HasStaticBinding("html"))
	require.False(t, HasStaticBinding("css"))
}

func TestStaticLanguageIDsIncludesEveryRegisteredLanguage(t *testing.T) {
	t.Parallel()

	ids := StaticLanguageIDs()
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	require.True(t, set["go"])
	require.True(t, set["javascript"])
	require.True(t, set["python"])
	require.True(t, set["rust"])
	require.Len(t, set, 4)
	// typescript has a grammar binding in the wider ecosystem but no
	// query files in this build, so it is WASM-only like html.
	require.False(t, set["typescript"])
	require.False(t, set["html"])
}
