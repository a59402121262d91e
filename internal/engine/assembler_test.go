package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleFlattensNestedCaptures(t *testing.T) {
	t.Parallel()

	spans := []rawSpan{
		{start: 0, end: 10, capture: "function", language: "go", order: 0},
		{start: 0, end: 2, capture: "keyword", language: "go", order: 1},
	}

	out := assemble(spans)

	require.Len(t, out, 2)
	require.Equal(t, Span{Start: 0, End: 2, Capture: "keyword", Language: "go"}, out[0])
	require.Equal(t, Span{Start: 2, End: 10, Capture: "function", Language: "go"}, out[1])
}

func TestAssembleMoreSpecificCaptureWinsOverlap(t *testing.T) {
	t.Parallel()

	spans := []rawSpan{
		{start: 0, end: 20, capture: "keyword", language: "rust", order: 0},
		{start: 5, end: 10, capture: "keyword.control.import", language: "rust", order: 1},
	}

	out := assemble(spans)

	require.Len(t, out, 3)
	require.Equal(t, "keyword", out[0].Capture)
	require.Equal(t, uint32(0), out[0].Start)
	require.Equal(t, uint32(5), out[0].End)
	require.Equal(t, "keyword.control.import", out[1].Capture)
	require.Equal(t, uint32(5), out[1].Start)
	require.Equal(t, uint32(10), out[1].End)
	require.Equal(t, "keyword", out[2].Capture)
	require.Equal(t, uint32(10), out[2].Start)
	require.Equal(t, uint32(20), out[2].End)
}

func TestAssembleDedupsIdenticalSpans(t *testing.T) {
	t.Parallel()

	spans := []rawSpan{
		{start: 0, end: 4, capture: "string", language: "go", order: 0},
		{start: 0, end: 4, capture: "string", language: "go", order: 1},
	}

	out := assemble(spans)
	require.Len(t, out, 1)
}

func TestAssembleCoalescesAdjacentIdenticalCaptures(t *testing.T) {
	t.Parallel()

	spans := []rawSpan{
		{start: 0, end: 4, capture: "comment", language: "go", order: 0},
		{start: 4, end: 8, capture: "comment", language: "go", order: 1},
	}

	out := assemble(spans)
	require.Len(t, out, 1)
	require.Equal(t, uint32(0), out[0].Start)
	require.Equal(t, uint32(8), out[0].End)
}

func TestAssembleIsIdempotent(t *testing.T) {
	t.Parallel()

	spans := []rawSpan{
		{start: 0, end: 20, capture: "keyword", language: "rust", order: 0},
		{start: 5, end: 10, capture: "keyword.control.import", language: "rust", order: 1},
		{start: 12, end: 15, capture: "string", language: "rust", order: 2},
	}

	first := assemble(spans)

	reRaw := make([]rawSpan, len(first))
	for i, s := range first {
		reRaw[i] = rawSpan{start: s.Start, end: s.End, capture: s.Capture, language: s.Language, order: i}
	}
	second := assemble(reRaw)

	require.Equal(t, first, second)
}

func TestAssembleIdenticalCaptureOverlapCoalesces(t *testing.T) {
	t.Parallel()

	spans := []rawSpan{
		{start: 0, end: 10, capture: "variable", language: "go", order: 0},
		{start: 2, end: 4, capture: "variable", language: "go", order: 1},
	}

	out := assemble(spans)
	// Same capture on both, so everything coalesces into one span and the
	// inner range is indistinguishable from the outer — this asserts the
	// coalescing doesn't accidentally fragment on identical-capture overlap.
	require.Len(t, out, 1)
	require.Equal(t, uint32(0), out[0].Start)
	require.Equal(t, uint32(10), out[0].End)
}
