// Package grammar defines the grammar-plugin contract: a per-language unit
// owning a parser, a highlight-query program, and an injection-query
// program, exposed through a session-scoped lifecycle.
package grammar

import (
	"context"
	"errors"
	"fmt"
)

// Span is a raw capture emitted by a plugin's highlight query, in the
// plugin's own source buffer coordinates.
type Span struct {
	Start   uint32
	End     uint32
	Capture string
}

// Injection is a raw capture emitted by a plugin's injection query, in the
// plugin's own source buffer coordinates.
type Injection struct {
	Start           uint32
	End             uint32
	Language        string
	IncludeChildren bool
}

// ParseResult is everything a single Parse call produces. All offsets are
// in the plugin's own source buffer, never the top-level buffer.
type ParseResult struct {
	Spans      []Span
	Injections []Injection
}

// ParseError reports a fatal, non-recoverable parser failure. A partial or
// error-recovered tree is NOT a ParseError — it is a successful ParseResult
// with whatever spans the query program could still produce.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("grammar: parse failed: %s", e.Message)
}

// Edit describes a mutation applied to a session's text buffer before the
// next Parse, expressed in both byte offsets and row/column for grammars
// that track source positions.
type Edit struct {
	StartByte    uint32
	OldEndByte   uint32
	NewEndByte   uint32
	StartRow     uint32
	StartCol     uint32
	OldEndRow    uint32
	OldEndCol    uint32
	NewEndRow    uint32
	NewEndCol    uint32
}

// SessionState is the session lifecycle state machine:
// Empty -> Ready (after SetText/ApplyEdit) -> Parsing (during Parse) -> Ready.
// Cancel from any state returns to Ready with a cleared parser.
// FreeSession from any state is terminal.
type SessionState int

const (
	SessionEmpty SessionState = iota
	SessionReady
	SessionParsing
	SessionFreed
)

func (s SessionState) String() string {
	switch s {
	case SessionEmpty:
		return "empty"
	case SessionReady:
		return "ready"
	case SessionParsing:
		return "parsing"
	case SessionFreed:
		return "freed"
	default:
		return "unknown"
	}
}

var (
	// ErrSessionFreed is returned when an operation targets a freed session.
	ErrSessionFreed = errors.New("grammar: session is freed")
	// ErrNotReady is returned when Parse is called before any SetText/ApplyEdit.
	ErrNotReady = errors.New("grammar: session has no text set")
)

// Session is a plugin-opaque per-document working state: current text plus
// any incremental parse state. Exactly one owner; must be explicitly freed.
type Session interface {
	State() SessionState
	SetText(text []byte)
	ApplyEdit(text []byte, edit Edit) error
	Parse(ctx context.Context) (ParseResult, error)
	Cancel()
	Free()
}

// Plugin is a per-language unit combining a parser, highlight queries, and
// injection queries. A plugin exclusively owns its parser and any sessions
// it creates.
type Plugin interface {
	LanguageID() string
	InjectionLanguages() []string
	CreateSession() (Session, error)
}

// Closer is satisfied by plugins that hold resources (parser pools, compiled
// queries) that must be released when the provider caching the plugin is
// closed.
type Closer interface {
	Close() error
}
