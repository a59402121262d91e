package grammar

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// treeSitterPlugin is the statically-linked Grammar Plugin: one compiled
// tree-sitter grammar plus its highlight-query and injection-query
// programs, backed by a small pool of raw parsers so concurrent sessions
// of the same language don't serialize on a single *tree_sitter.Parser.
type treeSitterPlugin struct {
	id       string
	lang     *tree_sitter.Language
	pool     *parserPool
	poolSize int

	highlightQuery *tree_sitter.Query
	highlightNames []string

	injectionQuery *tree_sitter.Query
	injectionNames []string

	injectionLanguages []string
}

// newTreeSitterPlugin compiles the highlight and (optional) injection query
// sources for one language and returns a ready-to-use plugin.
func newTreeSitterPlugin(id string, lang *tree_sitter.Language, highlightsSrc, injectionsSrc []byte, declaredInjections []string, poolSize int) (*treeSitterPlugin, error) {
	if lang == nil {
		return nil, fmt.Errorf("grammar %q: nil tree-sitter language", id)
	}

	hq, err := tree_sitter.NewQuery(lang, string(highlightsSrc))
	if err != nil {
		return nil, fmt.Errorf("grammar %q: compile highlights query: %w", id, err)
	}

	p := &treeSitterPlugin{
		id:                 id,
		lang:               lang,
		pool:               newParserPool(poolSize),
		poolSize:           poolSize,
		highlightQuery:     hq,
		highlightNames:     hq.CaptureNames(),
		injectionLanguages: declaredInjections,
	}

	if len(injectionsSrc) > 0 {
		iq, err := tree_sitter.NewQuery(lang, string(injectionsSrc))
		if err != nil {
			hq.Close()
			return nil, fmt.Errorf("grammar %q: compile injections query: %w", id, err)
		}
		p.injectionQuery = iq
		p.injectionNames = iq.CaptureNames()
	}

	return p, nil
}

func (p *treeSitterPlugin) LanguageID() string { return p.id }

func (p *treeSitterPlugin) InjectionLanguages() []string {
	out := make([]string, len(p.injectionLanguages))
	copy(out, p.injectionLanguages)
	return out
}

func (p *treeSitterPlugin) CreateSession() (Session, error) {
	handle, ok := p.pool.acquire(nil)
	if !ok {
		return nil, ErrPoolClosed
	}
	return &treeSitterSession{plugin: p, handle: handle, state: SessionEmpty}, nil
}

func (p *treeSitterPlugin) Close() error {
	if p.highlightQuery != nil {
		p.highlightQuery.Close()
	}
	if p.injectionQuery != nil {
		p.injectionQuery.Close()
	}
	return p.pool.close()
}

// extract runs both query programs over a freshly parsed tree and returns
// the raw, possibly-overlapping ParseResult. Offsets are in the plugin's
// own source buffer; the caller (the highlight engine) translates them
// into parent coordinates.
func (p *treeSitterPlugin) extract(tree *tree_sitter.Tree, source []byte) (ParseResult, error) {
	root := tree.RootNode()
	if root == nil {
		return ParseResult{}, nil
	}

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	spans := make([]Span, 0, 64)
	captures := cursor.Captures(p.highlightQuery, root, source)
	for {
		match, index := captures.Next()
		if match == nil {
			break
		}
		if !match.SatisfiesTextPredicate(p.highlightQuery, nil, nil, source) {
			continue
		}
		if int(index) >= len(match.Captures) {
			continue
		}
		cap := match.Captures[index]
		if int(cap.Index) >= len(p.highlightNames) {
			continue
		}
		name := p.highlightNames[cap.Index]
		start, end := cap.Node.StartByte(), cap.Node.EndByte()
		if start > end {
			continue
		}
		spans = append(spans, Span{Start: start, End: end, Capture: name})
	}

	var injections []Injection
	if p.injectionQuery != nil {
		icursor := tree_sitter.NewQueryCursor()
		defer icursor.Close()

		matches := icursor.Matches(p.injectionQuery, root, source)
		for {
			match := matches.Next()
			if match == nil {
				break
			}
			inj, ok := p.injectionForMatch(match, source)
			if !ok {
				continue
			}
			injections = append(injections, inj)
		}
	}

	return ParseResult{Spans: spans, Injections: injections}, nil
}

func (p *treeSitterPlugin) injectionForMatch(match *tree_sitter.QueryMatch, source []byte) (Injection, bool) {
	var (
		hasContent      bool
		start, end      uint32
		language        string
		includeChildren bool
	)

	for _, cap := range match.Captures {
		if int(cap.Index) >= len(p.injectionNames) {
			continue
		}
		switch p.injectionNames[cap.Index] {
		case "injection.content":
			start, end = cap.Node.StartByte(), cap.Node.EndByte()
			hasContent = true
		case "injection.language":
			language = strings.Trim(strings.TrimSpace(cap.Node.Utf8Text(source)), `"'`)
		case "injection.include-children":
			includeChildren = true
		}
	}

	if language == "" {
		for _, setting := range p.injectionQuery.PropertySettings(match.PatternIndex) {
			switch setting.Key {
			case "injection.language":
				if setting.Value != nil {
					language = *setting.Value
				}
			case "injection.include-children", "injection.self":
				includeChildren = true
			}
		}
	}

	if !hasContent || language == "" || start > end {
		return Injection{}, false
	}
	return Injection{Start: start, End: end, Language: language, IncludeChildren: includeChildren}, true
}
