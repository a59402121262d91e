package engine

import "sort"

// rawSpan is one capture produced by a grammar plugin (possibly nested
// inside another), before overlap resolution.
type rawSpan struct {
	start, end uint32
	capture    string
	language   string
	// order is the stable, plugin-emission order; used as the final
	// tie-break so two captures opening at the same offset with equal
	// specificity resolve deterministically.
	order int
}

type eventKind int

const (
	eventOpen eventKind = iota
	eventClose
)

type event struct {
	offset uint32
	kind   eventKind
	span   *rawSpan
}

// assemble converts a set of possibly-overlapping raw spans into a
// totally-ordered, non-overlapping stream: one flat span per sub-interval,
// carrying the highest-priority capture active over that interval.
//
// Priority tie-breaks, most to least significant:
//  1. longer dotted capture prefix wins (more specific capture name)
//  2. smaller byte range wins (innermost)
//  3. earlier emission order wins (stable)
//
// The open question of "priority-overrides-order" vs "first-wins" is
// resolved in favor of priority-overrides-order: a short, highly specific
// capture that opens after a broader one still wins the sub-interval
// where both are active. See DESIGN.md for the rationale.
func assemble(spans []rawSpan) []Span {
	spans = dedup(spans)
	if len(spans) == 0 {
		return nil
	}

	events := make([]event, 0, len(spans)*2)
	for i := range spans {
		s := &spans[i]
		if s.start >= s.end {
			continue
		}
		events = append(events, event{offset: s.start, kind: eventOpen, span: s})
		events = append(events, event{offset: s.end, kind: eventClose, span: s})
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].offset != events[j].offset {
			return events[i].offset < events[j].offset
		}
		// Process closes before opens at a shared offset so a span
		// ending exactly where another begins never appears active
		// simultaneously with it.
		return events[i].kind > events[j].kind
	})

	active := make(map[*rawSpan]struct{})
	out := make([]Span, 0, len(spans))

	var cursor uint32
	flush := func(end uint32) {
		if end <= cursor || len(active) == 0 {
			cursor = end
			return
		}
		top := pickTop(active)
		if top != nil {
			appendSpan(&out, Span{Start: cursor, End: end, Capture: top.capture, Language: top.language})
		}
		cursor = end
	}

	for i := 0; i < len(events); {
		offset := events[i].offset
		flush(offset)

		for i < len(events) && events[i].offset == offset {
			e := events[i]
			switch e.kind {
			case eventOpen:
				active[e.span] = struct{}{}
			case eventClose:
				delete(active, e.span)
			}
			i++
		}
		cursor = offset
	}

	return coalesce(out)
}

func pickTop(active map[*rawSpan]struct{}) *rawSpan {
	var best *rawSpan
	for s := range active {
		if best == nil || higherPriority(s, best) {
			best = s
		}
	}
	return best
}

// higherPriority reports whether a outranks b under the tie-break order.
func higherPriority(a, b *rawSpan) bool {
	pa, pb := dottedDepth(a.capture), dottedDepth(b.capture)
	if pa != pb {
		return pa > pb
	}
	ra, rb := a.end-a.start, b.end-b.start
	if ra != rb {
		return ra < rb
	}
	return a.order < b.order
}

func dottedDepth(capture string) int {
	depth := 1
	for _, r := range capture {
		if r == '.' {
			depth++
		}
	}
	return depth
}

func appendSpan(out *[]Span, s Span) {
	if s.Start >= s.End {
		return
	}
	*out = append(*out, s)
}

// coalesce merges adjacent spans that carry the same (capture, language).
func coalesce(spans []Span) []Span {
	if len(spans) < 2 {
		return spans
	}
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if last.End == s.Start && last.Capture == s.Capture && last.Language == s.Language {
			last.End = s.End
			continue
		}
		out = append(out, s)
	}
	return out
}

// dedup collapses raw spans that share an identical (start, end, capture,
// language) tuple, keeping the first emission order.
func dedup(spans []rawSpan) []rawSpan {
	if len(spans) < 2 {
		return spans
	}
	type key struct {
		start, end uint32
		capture    string
		language   string
	}
	seen := make(map[key]bool, len(spans))
	out := make([]rawSpan, 0, len(spans))
	for _, s := range spans {
		k := key{s.start, s.end, s.capture, s.language}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}
