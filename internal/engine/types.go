package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// Span is one entry in the engine's flat, non-overlapping output stream:
// a half-open byte range in top-level source coordinates, tagged with
// both the capture name and the language that produced it.
type Span struct {
	Start    uint32
	End      uint32
	Capture  string
	Language string
}

// DefaultMaxDepth bounds injection recursion when a caller does not
// supply one explicitly.
const DefaultMaxDepth = 8

// ProtocolViolation reports a grammar plugin (native or WASM) returning
// data that breaks the engine's contract — an injection with start > end,
// or a range outside the source it was produced from. These are logged
// and the offending injection is dropped rather than propagated as a
// fatal error, so one misbehaving grammar cannot take down a highlight
// call for an otherwise well-formed document.
type ProtocolViolation struct {
	CorrelationID string
	Language      string
	Reason        string
}

func newProtocolViolation(language, reason string) *ProtocolViolation {
	return &ProtocolViolation{
		CorrelationID: uuid.NewString(),
		Language:      language,
		Reason:        reason,
	}
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("engine: protocol violation [%s] language=%s: %s", e.CorrelationID, e.Language, e.Reason)
}
