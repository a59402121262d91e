package grammar

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// StaticProvider is the synchronous Grammar Provider (§5.1): every
// language it can serve is compiled into the binary, so Get never
// suspends on I/O. Concurrent first-requests for the same language are
// coalesced with singleflight so N goroutines racing to highlight the
// first "go" document only pay the query-compilation cost once.
type StaticProvider struct {
	poolSize int

	mu      sync.RWMutex
	plugins map[string]*treeSitterPlugin
	failed  map[string]error

	group singleflight.Group
}

// NewStaticProvider returns a Provider backed by the compiled-in grammars
// in this binary's registry. poolSize <= 0 uses runtime.NumCPU() parsers
// per language.
func NewStaticProvider(poolSize int) *StaticProvider {
	return &StaticProvider{
		poolSize: poolSize,
		plugins:  make(map[string]*treeSitterPlugin),
		failed:   make(map[string]error),
	}
}

func (sp *StaticProvider) Get(ctx context.Context, language string) (Plugin, bool, error) {
	sp.mu.RLock()
	if p, ok := sp.plugins[language]; ok {
		sp.mu.RUnlock()
		return p, true, nil
	}
	if err, ok := sp.failed[language]; ok {
		sp.mu.RUnlock()
		return nil, false, err
	}
	sp.mu.RUnlock()

	if !HasStaticBinding(language) {
		return nil, false, nil
	}

	v, err, _ := sp.group.Do(language, func() (any, error) {
		return sp.load(language)
	})
	if err != nil {
		sp.mu.Lock()
		sp.failed[language] = err
		sp.mu.Unlock()
		return nil, false, err
	}
	return v.(*treeSitterPlugin), true, nil
}

func (sp *StaticProvider) load(language string) (*treeSitterPlugin, error) {
	sp.mu.RLock()
	if p, ok := sp.plugins[language]; ok {
		sp.mu.RUnlock()
		return p, nil
	}
	sp.mu.RUnlock()

	ctor, ok := staticLanguages[language]
	if !ok {
		return nil, fmt.Errorf("grammar: no static binding for language %q", language)
	}

	highlightsSrc, err := LoadHighlightsQuery(language)
	if err != nil {
		return nil, fmt.Errorf("grammar: load highlights query for %q: %w", language, err)
	}
	injectionsSrc, err := LoadInjectionsQuery(language)
	if err != nil {
		return nil, fmt.Errorf("grammar: load injections query for %q: %w", language, err)
	}

	plugin, err := newTreeSitterPlugin(language, ctor(), highlightsSrc, injectionsSrc, injectionsByLanguage[language], sp.poolSize)
	if err != nil {
		return nil, err
	}

	sp.mu.Lock()
	sp.plugins[language] = plugin
	sp.mu.Unlock()

	return plugin, nil
}

// Close releases every parser pool and compiled query this provider has
// loaded. Safe to call once, at process shutdown.
func (sp *StaticProvider) Close() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	var firstErr error
	for _, p := range sp.plugins {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
