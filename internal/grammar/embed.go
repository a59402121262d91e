package grammar

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed queries/*/highlights.scm queries/*/injections.scm queries/languages.json
var queriesFS embed.FS

// LanguagesManifest is the source-of-truth language list: every language
// the engine knows ABOUT, whether or not a statically-linked grammar
// binding is compiled into this binary. Languages without a static
// binding (StaticBinding == false) are only reachable through the
// asynchronous WASM provider (internal/grammar/wasmplugin).
type LanguagesManifest struct {
	Generated string             `json:"generated,omitempty"`
	Languages []ManifestLanguage `json:"languages"`
}

// ManifestLanguage describes one supported language.
type ManifestLanguage struct {
	Name          string `json:"name"`
	StaticBinding bool   `json:"static_binding"`
	HasHighlights bool   `json:"has_highlights"`
	HasInjections bool   `json:"has_injections"`
}

// LoadLanguagesManifest loads the embedded language manifest.
func LoadLanguagesManifest() (LanguagesManifest, error) {
	data, err := queriesFS.ReadFile("queries/languages.json")
	if err != nil {
		return LanguagesManifest{}, fmt.Errorf("grammar: read embedded languages manifest: %w", err)
	}
	var m LanguagesManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return LanguagesManifest{}, fmt.Errorf("grammar: parse embedded languages manifest: %w", err)
	}
	return m, nil
}

// LoadHighlightsQuery returns the embedded highlights.scm content for a
// language, or an error if none is embedded.
func LoadHighlightsQuery(lang string) ([]byte, error) {
	return queriesFS.ReadFile("queries/" + lang + "/highlights.scm")
}

// LoadInjectionsQuery returns the embedded injections.scm content for a
// language. Absence is not an error: most grammars have no injections.
func LoadInjectionsQuery(lang string) ([]byte, error) {
	data, err := queriesFS.ReadFile("queries/" + lang + "/injections.scm")
	if err != nil {
		return nil, nil
	}
	return data, nil
}
