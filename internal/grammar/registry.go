package grammar

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
)

// injectionsByLanguage declares, per language, which languages it may
// request an injection for. This is static metadata used both to answer
// Plugin.InjectionLanguages() and, via the orchestrator, to pre-warm an
// async provider (§4.5 get-required-languages). Only entries for
// statically bound languages are consulted by the static provider; a
// language without a compiled-in binding has no injection metadata here,
// and the WASM plugin reports none for it either. Each list names the
// languages the language's queries/<lang>/injections.scm can request.
var injectionsByLanguage = map[string][]string{
	"javascript": {"css", "html", "graphql", "gql", "regex"},
}

// staticLanguages registers the tree-sitter grammars compiled directly
// into this binary (the native deployment shape, §5.1), each paired with
// hand-written query files under internal/grammar/queries. Every other
// language (everything queries/languages.json lists with
// static_binding=false) is reachable
// only through the asynchronous WASM provider in
// internal/grammar/wasmplugin, where a missing query file degrades that
// language to zero spans (§7) rather than shipping a binding with no
// captures behind it.
var staticLanguages = map[string]func() *tree_sitter.Language{
	"go":         func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_go.Language()) },
	"javascript": func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_javascript.Language()) },
	"python":     func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_python.Language()) },
	"rust":       func() *tree_sitter.Language { return tree_sitter.NewLanguage(tree_sitter_rust.Language()) },
}

// StaticLanguageIDs returns the languages with a compiled-in grammar
// binding, sorted is not guaranteed; callers that need a stable order
// should sort the result themselves.
func StaticLanguageIDs() []string {
	out := make([]string, 0, len(staticLanguages))
	for id := range staticLanguages {
		out = append(out, id)
	}
	return out
}

// HasStaticBinding reports whether language has a compiled-in grammar.
func HasStaticBinding(language string) bool {
	_, ok := staticLanguages[language]
	return ok
}
