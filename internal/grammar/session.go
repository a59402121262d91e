package grammar

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// readChunkSize bounds how much source the cancellation-aware read
// callback hands tree-sitter at a time; small enough that Cancel takes
// effect within a bounded number of tree-sitter check-points (§5, §8.8).
const readChunkSize = 4096

// treeSitterSession implements the Empty -> Ready -> Parsing -> Ready
// session state machine over one raw parser checked out from the owning
// plugin's pool.
type treeSitterSession struct {
	mu     sync.Mutex
	plugin *treeSitterPlugin
	handle *parserHandle
	state  SessionState
	text   []byte

	canceled atomic.Bool
}

func (s *treeSitterSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *treeSitterSession) SetText(text []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionFreed {
		return
	}
	s.text = append([]byte(nil), text...)
	s.state = SessionReady
}

func (s *treeSitterSession) ApplyEdit(text []byte, edit Edit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SessionFreed {
		return ErrSessionFreed
	}
	if edit.NewEndByte > uint32(len(text)) {
		return fmt.Errorf("grammar: edit new_end_byte %d exceeds new text length %d", edit.NewEndByte, len(text))
	}
	// Incremental reparse (retaining the previous tree across edits) is not
	// implemented: the session does not keep the prior *tree_sitter.Tree
	// around once Parse returns. Every ApplyEdit therefore results in a
	// full reparse on the next Parse call. The observable contract is the
	// same either way (§9, open question 3).
	s.text = append([]byte(nil), text...)
	s.state = SessionReady
	return nil
}

func (s *treeSitterSession) Parse(ctx context.Context) (ParseResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case SessionFreed:
		return ParseResult{}, ErrSessionFreed
	case SessionEmpty:
		return ParseResult{}, ErrNotReady
	}

	s.state = SessionParsing
	s.canceled.Store(false)

	if err := s.handle.parser.SetLanguage(s.plugin.lang); err != nil {
		s.state = SessionReady
		return ParseResult{}, &ParseError{Message: err.Error()}
	}

	source := s.text
	read := func(offset int, _ tree_sitter.Point) []byte {
		if offset < 0 || offset >= len(source) {
			return nil
		}
		if s.canceled.Load() || (ctx != nil && ctx.Err() != nil) {
			return nil
		}
		end := offset + readChunkSize
		if end > len(source) {
			end = len(source)
		}
		return source[offset:end]
	}

	tree := s.handle.parser.ParseWithOptions(read, nil, nil)
	s.state = SessionReady

	if s.canceled.Load() || (ctx != nil && ctx.Err() != nil) {
		if tree != nil {
			tree.Close()
		}
		return ParseResult{}, nil
	}

	if tree == nil {
		return ParseResult{}, &ParseError{Message: "tree-sitter returned a nil tree"}
	}
	defer tree.Close()

	return s.plugin.extract(tree, source)
}

func (s *treeSitterSession) Cancel() {
	s.canceled.Store(true)
	s.mu.Lock()
	if s.state == SessionParsing || s.state == SessionReady {
		s.state = SessionReady
	}
	s.mu.Unlock()
}

func (s *treeSitterSession) Free() {
	s.mu.Lock()
	if s.state == SessionFreed {
		s.mu.Unlock()
		return
	}
	s.state = SessionFreed
	handle := s.handle
	s.handle = nil
	s.mu.Unlock()

	s.plugin.pool.release(handle)
}
