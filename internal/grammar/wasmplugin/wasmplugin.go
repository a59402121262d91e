// Package wasmplugin implements the asynchronous Grammar Provider (§5.2):
// a provider whose Get may suspend on I/O because the grammar it serves
// is not compiled into the host binary but shipped as a WASM component,
// fetched through a host-supplied ModuleLoader and run under wazero.
//
// The module ABI is intentionally small. A grammar component exports:
//
//	alloc(size i32) i32        - reserve size bytes in linear memory, return offset
//	dealloc(ptr i32, size i32)  - release a previous allocation
//	highlight(ptr i32, len i32) i64 - parse+query the source at [ptr,ptr+len)
//	                                  in linear memory; returns a packed
//	                                  (resultPtr<<32 | resultLen) pair
//
// The result bytes are this package's own little-endian, length-prefixed
// wire format (see decodeParseResult below); decoding it is this
// package's responsibility alone; a WASM grammar and a statically-linked
// one are interchangeable from the Highlight Engine's point of view only
// in that both ultimately produce a grammar.ParseResult, not because they
// share an on-the-wire representation.
package wasmplugin

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"golang.org/x/sync/singleflight"

	"github.com/go-arborium/arborium/internal/grammar"
)

// ModuleLoader resolves a language name to the raw bytes of a compiled
// WASM grammar component. Implementations typically read from an
// embedded asset directory, a local plugin cache, or fetch over the
// network; whatever I/O it performs is the reason this provider's Get is
// the async codepath's only suspension point (§5.2).
type ModuleLoader interface {
	Load(ctx context.Context, language string) ([]byte, error)
}

// ModuleLoaderFunc adapts a function to ModuleLoader.
type ModuleLoaderFunc func(ctx context.Context, language string) ([]byte, error)

func (f ModuleLoaderFunc) Load(ctx context.Context, language string) ([]byte, error) {
	return f(ctx, language)
}

// ErrLanguageUnavailable is returned when the loader has no module for a
// requested language; this is a normal "not found," not a fault.
var ErrLanguageUnavailable = fmt.Errorf("wasmplugin: no module available for language")

// Provider is the async Grammar Provider. It never caches a failed load:
// a transient fetch error this call should not poison future requests for
// the same language (§5.2, edge case "load failure is not cached").
type Provider struct {
	runtime wazero.Runtime
	loader  ModuleLoader

	mu      sync.RWMutex
	plugins map[string]*Plugin

	group singleflight.Group
}

// New constructs a Provider. The supplied context bounds only the
// runtime's own setup (compilation cache, host module instantiation);
// it is not retained past New.
func New(ctx context.Context, loader ModuleLoader) (*Provider, error) {
	rt := wazero.NewRuntime(ctx)
	return &Provider{
		runtime: rt,
		loader:  loader,
		plugins: make(map[string]*Plugin),
	}, nil
}

// Get implements grammar.Provider. The first call for a language compiles
// and instantiates its WASM module; concurrent first-callers for the same
// language are coalesced onto one singleflight call.
func (p *Provider) Get(ctx context.Context, language string) (grammar.Plugin, bool, error) {
	p.mu.RLock()
	if pl, ok := p.plugins[language]; ok {
		p.mu.RUnlock()
		return pl, true, nil
	}
	p.mu.RUnlock()

	v, err, _ := p.group.Do(language, func() (any, error) {
		return p.load(ctx, language)
	})
	if err != nil {
		if err == ErrLanguageUnavailable {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v.(*Plugin), true, nil
}

func (p *Provider) load(ctx context.Context, language string) (*Plugin, error) {
	p.mu.RLock()
	if pl, ok := p.plugins[language]; ok {
		p.mu.RUnlock()
		return pl, nil
	}
	p.mu.RUnlock()

	raw, err := p.loader.Load(ctx, language)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrLanguageUnavailable
	}

	compiled, err := p.runtime.CompileModule(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("wasmplugin: compile module for %q: %w", language, err)
	}

	mod, err := p.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(language))
	if err != nil {
		return nil, fmt.Errorf("wasmplugin: instantiate module for %q: %w", language, err)
	}

	pl, err := newPlugin(language, mod)
	if err != nil {
		mod.Close(ctx)
		return nil, err
	}

	p.mu.Lock()
	p.plugins[language] = pl
	p.mu.Unlock()

	return pl, nil
}

// Close tears down the wazero runtime and every instantiated module.
func (p *Provider) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pl := range p.plugins {
		_ = pl.module.Close(ctx)
	}
	return p.runtime.Close(ctx)
}

// Plugin is a grammar.Plugin backed by one instantiated WASM component.
// Unlike the statically-linked plugin, it has no raw-parser pool: every
// Session shares the same module instance, and the plugin's mutex
// serializes calls into it.
type Plugin struct {
	language string
	module   api.Module

	allocFn     api.Function
	deallocFn   api.Function
	highlightFn api.Function

	mu sync.Mutex
}

func newPlugin(language string, mod api.Module) (*Plugin, error) {
	p := &Plugin{
		language:    language,
		module:      mod,
		allocFn:     mod.ExportedFunction("alloc"),
		deallocFn:   mod.ExportedFunction("dealloc"),
		highlightFn: mod.ExportedFunction("highlight"),
	}
	if p.allocFn == nil || p.deallocFn == nil || p.highlightFn == nil {
		return nil, fmt.Errorf("wasmplugin: module %q is missing a required export (alloc/dealloc/highlight)", language)
	}
	return p, nil
}

func (p *Plugin) LanguageID() string { return p.language }

// InjectionLanguages always returns nil: a WASM component does not
// report which languages it may inject (§5.2 notes that injected-language
// discovery for dynamic grammars is best-effort).
func (p *Plugin) InjectionLanguages() []string { return nil }

func (p *Plugin) CreateSession() (grammar.Session, error) {
	return &session{plugin: p, state: grammar.SessionEmpty}, nil
}

// session adapts the module's single-shot highlight() export to the
// Session state machine. Because the guest module holds no parser state
// across calls, ApplyEdit behaves exactly like SetText. Cancel does
// nothing itself; an in-flight Parse returns early only when its ctx is
// canceled, and there is no partial tree to discard.
type session struct {
	plugin *Plugin
	state  grammar.SessionState
	text   []byte

	mu sync.Mutex
}

func (s *session) State() grammar.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) SetText(text []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == grammar.SessionFreed {
		return
	}
	s.text = append([]byte(nil), text...)
	s.state = grammar.SessionReady
}

func (s *session) ApplyEdit(text []byte, _ grammar.Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == grammar.SessionFreed {
		return grammar.ErrSessionFreed
	}
	s.text = append([]byte(nil), text...)
	s.state = grammar.SessionReady
	return nil
}

func (s *session) Parse(ctx context.Context) (grammar.ParseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case grammar.SessionFreed:
		return grammar.ParseResult{}, grammar.ErrSessionFreed
	case grammar.SessionEmpty:
		return grammar.ParseResult{}, grammar.ErrNotReady
	}

	s.state = grammar.SessionParsing
	result, err := s.plugin.highlight(ctx, s.text)
	s.state = grammar.SessionReady
	if ctx.Err() != nil {
		return grammar.ParseResult{}, nil
	}
	return result, err
}

// Cancel relies on ctx cancellation checked at Parse's single suspension
// point (the highlight() call into the guest); there is no separate
// cancellation channel into the WASM module itself.
func (s *session) Cancel() {}

func (s *session) Free() {
	s.mu.Lock()
	s.state = grammar.SessionFreed
	s.text = nil
	s.mu.Unlock()
}

// highlight copies source into the guest's linear memory, invokes its
// highlight export, and decodes the packed-wire ParseResult it returns.
// The plugin-level mutex serializes calls because the guest module's own
// memory and globals are not safe for concurrent reentry.
func (p *Plugin) highlight(ctx context.Context, source []byte) (grammar.ParseResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	mem := p.module.Memory()

	allocRes, err := p.allocFn.Call(ctx, uint64(len(source)))
	if err != nil {
		return grammar.ParseResult{}, fmt.Errorf("wasmplugin: alloc: %w", err)
	}
	ptr := uint32(allocRes[0])
	defer p.deallocFn.Call(ctx, uint64(ptr), uint64(len(source)))

	if !mem.Write(ptr, source) {
		return grammar.ParseResult{}, fmt.Errorf("wasmplugin: write source into guest memory out of bounds")
	}

	packed, err := p.highlightFn.Call(ctx, uint64(ptr), uint64(len(source)))
	if err != nil {
		return grammar.ParseResult{}, fmt.Errorf("wasmplugin: highlight: %w", err)
	}

	resultPtr := uint32(packed[0] >> 32)
	resultLen := uint32(packed[0])
	if resultLen == 0 {
		return grammar.ParseResult{}, nil
	}

	raw, ok := mem.Read(resultPtr, resultLen)
	if !ok {
		return grammar.ParseResult{}, fmt.Errorf("wasmplugin: read result from guest memory out of bounds")
	}

	return decodeParseResult(raw)
}

// decodeParseResult parses this package's own little-endian wire format:
// a span count, then (start, end, capture) span records, then an
// injection count, then (start, end, language, include_children)
// injection records. Offsets and flags are u32; strings are a u32 byte
// length followed by the bytes. It has no counterpart on the
// statically linked path, which never serializes a ParseResult at all.
func decodeParseResult(raw []byte) (grammar.ParseResult, error) {
	const u32 = 4
	if len(raw) < u32 {
		return grammar.ParseResult{}, fmt.Errorf("wasmplugin: truncated result")
	}
	r := raw
	readU32 := func() (uint32, error) {
		if len(r) < u32 {
			return 0, fmt.Errorf("wasmplugin: truncated result")
		}
		v := binary.LittleEndian.Uint32(r[:u32])
		r = r[u32:]
		return v, nil
	}
	readString := func() (string, error) {
		n, err := readU32()
		if err != nil {
			return "", err
		}
		if uint32(len(r)) < n {
			return "", fmt.Errorf("wasmplugin: truncated string")
		}
		s := string(r[:n])
		r = r[n:]
		return s, nil
	}

	spanCount, err := readU32()
	if err != nil {
		return grammar.ParseResult{}, err
	}
	spans := make([]grammar.Span, 0, spanCount)
	for range spanCount {
		start, err := readU32()
		if err != nil {
			return grammar.ParseResult{}, err
		}
		end, err := readU32()
		if err != nil {
			return grammar.ParseResult{}, err
		}
		capture, err := readString()
		if err != nil {
			return grammar.ParseResult{}, err
		}
		spans = append(spans, grammar.Span{Start: start, End: end, Capture: capture})
	}

	injCount, err := readU32()
	if err != nil {
		return grammar.ParseResult{}, err
	}
	var injections []grammar.Injection
	for range injCount {
		start, err := readU32()
		if err != nil {
			return grammar.ParseResult{}, err
		}
		end, err := readU32()
		if err != nil {
			return grammar.ParseResult{}, err
		}
		lang, err := readString()
		if err != nil {
			return grammar.ParseResult{}, err
		}
		includeChildren, err := readU32()
		if err != nil {
			return grammar.ParseResult{}, err
		}
		injections = append(injections, grammar.Injection{
			Start:           start,
			End:             end,
			Language:        lang,
			IncludeChildren: includeChildren != 0,
		})
	}

	return grammar.ParseResult{Spans: spans, Injections: injections}, nil
}
