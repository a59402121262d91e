package wasmplugin

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-arborium/arborium/internal/grammar"
)

func encodeForTest(t *testing.T, result grammar.ParseResult) []byte {
	t.Helper()

	var buf []byte
	putU32 := func(v uint32) {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	putString := func(s string) {
		putU32(uint32(len(s)))
		buf = append(buf, s...)
	}

	putU32(uint32(len(result.Spans)))
	for _, s := range result.Spans {
		putU32(s.Start)
		putU32(s.End)
		putString(s.Capture)
	}

	putU32(uint32(len(result.Injections)))
	for _, inj := range result.Injections {
		putU32(inj.Start)
		putU32(inj.End)
		putString(inj.Language)
		if inj.IncludeChildren {
			putU32(1)
		} else {
			putU32(0)
		}
	}

	return buf
}

func TestDecodeParseResultRoundTrips(t *testing.T) {
	t.Parallel()

	want := grammar.ParseResult{
		Spans: []grammar.Span{
			{Start: 0, End: 2, Capture: "keyword"},
			{Start: 3, End: 7, Capture: "function"},
		},
		Injections: []grammar.Injection{
			{Start: 8, End: 20, Language: "css", IncludeChildren: true},
		},
	}

	raw := encodeForTest(t, want)
	got, err := decodeParseResult(raw)
	require.NoError(t, err)
	require.Equal(t, want.Spans, got.Spans)
	require.Equal(t, want.Injections, got.Injections)
}

func TestDecodeParseResultEmpty(t *testing.T) {
	t.Parallel()

	raw := encodeForTest(t, grammar.ParseResult{})
	got, err := decodeParseResult(raw)
	require.NoError(t, err)
	require.Empty(t, got.Spans)
	require.Empty(t, got.Injections)
}

func TestDecodeParseResultTruncatedErrors(t *testing.T) {
	t.Parallel()

	_, err := decodeParseResult([]byte{1, 2})
	require.Error(t, err)
}
