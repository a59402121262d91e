package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-arborium/arborium/internal/grammar"
)

// Options configures one Highlight call.
type Options struct {
	// MaxDepth bounds injection recursion (§4.3). Zero means
	// DefaultMaxDepth.
	MaxDepth int
}

// Engine is the highlight engine (§4.3): it drives a Grammar Provider
// through the session lifecycle, resolves injections recursively, and
// assembles a flat, non-overlapping span stream in top-level coordinates.
type Engine struct {
	provider grammar.Provider
	cache    *ParseCache
}

// New constructs an Engine over the given provider. cache may be nil, in
// which case parse results are never memoized.
func New(provider grammar.Provider, cache *ParseCache) *Engine {
	return &Engine{provider: provider, cache: cache}
}

// Highlight runs the full pipeline for one top-level (language, source)
// pair and returns the resulting flat span stream. An unknown top-level
// language is not an error (§8, S5): it returns a nil stream.
func (e *Engine) Highlight(ctx context.Context, language string, source []byte, opts Options) ([]Span, error) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	// The top-level language instance itself counts as depth 1: a single
	// injection hop (html -> css) reaches depth 2, matching the spec's S2
	// scenario ("max_depth=2" resolves one hop) and S3 ("max_depth=2"
	// stops at the second hop, html -> js -> css unresolved; "max_depth=3"
	// resolves it).
	raw, err := e.highlightAt(ctx, language, source, 1, maxDepth)
	if err != nil {
		return nil, err
	}
	return assemble(raw), nil
}

// highlightAt produces the raw (possibly overlapping, possibly
// cross-language) span set for one injection frame at recursion depth d.
// Offsets in the returned spans are already translated into the
// caller-supplied source's own coordinate space.
func (e *Engine) highlightAt(ctx context.Context, language string, source []byte, depth, maxDepth int) ([]rawSpan, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plugin, ok, err := e.provider.Get(ctx, language)
	if err != nil {
		// Provider failures are never fatal to the caller (§7): the
		// subtree degrades to zero spans rather than aborting Highlight.
		slog.Warn("grammar provider failed, degrading subtree to empty span set", "language", language, "depth", depth, "error", err)
		return nil, nil
	}
	if !ok {
		slog.Debug("no grammar plugin available", "language", language, "depth", depth)
		return nil, nil
	}

	result, fromCache, err := e.parse(ctx, plugin, language, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// A ParseError (fatal parser failure) or any other parse-stage
		// error degrades this subtree to zero spans instead of
		// propagating out of Highlight (§7).
		slog.Warn("parse failed, degrading subtree to empty span set", "language", language, "depth", depth, "error", err)
		return nil, nil
	}
	slog.Debug("parsed source", "language", language, "depth", depth, "cache_hit", fromCache, "bytes", len(source))

	order := 0
	raw := make([]rawSpan, 0, len(result.Spans))
	for _, s := range result.Spans {
		if s.Start > s.End || s.End > uint32(len(source)) {
			slog.Warn("dropping out-of-range span", "language", language, "start", s.Start, "end", s.End)
			continue
		}
		raw = append(raw, rawSpan{start: s.Start, end: s.End, capture: s.Capture, language: language, order: order})
		order++
	}

	if depth+1 > maxDepth {
		return raw, nil
	}

	for _, inj := range result.Injections {
		childSpans, suppressed, err := e.resolveInjection(ctx, inj, source, depth, maxDepth, language, &order)
		if err != nil {
			return nil, err
		}
		if suppressed != nil {
			raw = clipOrSuppress(raw, inj.Start, inj.End, *suppressed)
		}
		raw = append(raw, childSpans...)
	}

	return raw, nil
}

// resolveInjection validates and recursively resolves one injection
// record, returning the child-language spans (already translated into
// the parent's coordinate space) plus, when include_children is false, a
// non-nil suppression range for the caller to apply to the parent's own
// spans.
func (e *Engine) resolveInjection(ctx context.Context, inj grammar.Injection, parentSource []byte, depth, maxDepth int, parentLang string, order *int) ([]rawSpan, *[2]uint32, error) {
	if inj.Start > inj.End || inj.End > uint32(len(parentSource)) {
		pv := newProtocolViolation(parentLang, fmt.Sprintf("injection range [%d,%d) invalid for source of length %d", inj.Start, inj.End, len(parentSource)))
		slog.Warn("rejecting malformed injection", "correlation_id", pv.CorrelationID, "language", parentLang, "reason", pv.Reason)
		return nil, nil, nil
	}

	childSource := parentSource[inj.Start:inj.End]
	childRaw, err := e.highlightAt(ctx, inj.Language, childSource, depth+1, maxDepth)
	if err != nil {
		return nil, nil, err
	}

	translated := make([]rawSpan, 0, len(childRaw))
	for _, s := range childRaw {
		translated = append(translated, rawSpan{
			start:    s.start + inj.Start,
			end:      s.end + inj.Start,
			capture:  s.capture,
			language: s.language,
			order:    *order,
		})
		*order++
	}

	if inj.IncludeChildren {
		return translated, nil, nil
	}
	rng := [2]uint32{inj.Start, inj.End}
	return translated, &rng, nil
}

// clipOrSuppress applies the include_children=false rule (§4.3 step 4):
// parent spans fully inside [start,end) are dropped; spans partially
// overlapping are clipped to the boundary they cross.
func clipOrSuppress(spans []rawSpan, start, end uint32, _ [2]uint32) []rawSpan {
	out := spans[:0:0]
	for _, s := range spans {
		switch {
		case s.end <= start || s.start >= end:
			out = append(out, s)
		case s.start >= start && s.end <= end:
			// fully inside: suppressed
		case s.start < start && s.end > start && s.end <= end:
			s.end = start
			out = append(out, s)
		case s.start >= start && s.start < end && s.end > end:
			s.start = end
			out = append(out, s)
		case s.start < start && s.end > end:
			// spans straddle the whole injection; keep the two outer slivers
			left := s
			left.end = start
			right := s
			right.start = end
			out = append(out, left, right)
		}
	}
	return out
}

func (e *Engine) parse(ctx context.Context, plugin grammar.Plugin, language string, source []byte) (grammar.ParseResult, bool, error) {
	var key uint64
	if e.cache != nil {
		key = CacheKey(language, source)
		if cached, ok := e.cache.Get(key); ok {
			return cached, true, nil
		}
	}

	session, err := plugin.CreateSession()
	if err != nil {
		return grammar.ParseResult{}, false, err
	}
	defer session.Free()

	session.SetText(source)
	result, err := session.Parse(ctx)
	if err != nil {
		return grammar.ParseResult{}, false, err
	}

	if e.cache != nil {
		e.cache.Put(key, result)
	}
	return result, false, nil
}
