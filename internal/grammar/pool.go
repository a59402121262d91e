package grammar

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// ErrPoolClosed indicates parser acquisition failed because the pool is closed.
var ErrPoolClosed = errors.New("grammar: parser pool is closed")

// parserHandle wraps one raw tree-sitter parser instance.
type parserHandle struct {
	parser    *tree_sitter.Parser
	closeOnce sync.Once
}

func newParserHandle() *parserHandle {
	return &parserHandle{parser: tree_sitter.NewParser()}
}

func (h *parserHandle) close() {
	if h == nil {
		return
	}
	h.closeOnce.Do(func() {
		h.parser.Close()
	})
}

// parserPool hands out raw tree-sitter parser instances. Tree-sitter
// parsers are not thread-safe per-instance; a plugin keeps a small pool to
// let multiple sessions of the same language run in parallel rather than
// serializing on one parser.
type parserPool struct {
	parsers chan *parserHandle
	closeCh chan struct{}

	closed    atomic.Bool
	closeOnce sync.Once

	mu      sync.RWMutex
	holders sync.WaitGroup
}

func defaultPoolSize() int {
	if n := runtime.NumCPU(); n > 0 {
		return n
	}
	return 1
}

func newParserPool(size int) *parserPool {
	if size <= 0 {
		size = defaultPoolSize()
	}
	p := &parserPool{
		parsers: make(chan *parserHandle, size),
		closeCh: make(chan struct{}),
	}
	for range size {
		p.parsers <- newParserHandle()
	}
	return p
}

func (p *parserPool) acquire(ctx context.Context) (*parserHandle, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	for {
		if err := ctx.Err(); err != nil {
			return nil, false
		}
		if p.closed.Load() {
			return nil, false
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-p.closeCh:
			return nil, false
		case h := <-p.parsers:
			if h == nil {
				continue
			}
			p.mu.RLock()
			if p.closed.Load() {
				p.mu.RUnlock()
				h.close()
				return nil, false
			}
			p.holders.Add(1)
			p.mu.RUnlock()
			return h, true
		}
	}
}

func (p *parserPool) release(h *parserHandle) {
	if p == nil || h == nil {
		return
	}
	defer p.holders.Done()

	if p.closed.Load() {
		h.close()
		return
	}
	select {
	case p.parsers <- h:
	case <-p.closeCh:
		h.close()
	}
}

func (p *parserPool) close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed.Store(true)
		close(p.closeCh)
		p.mu.Unlock()

		p.holders.Wait()

		for {
			select {
			case h := <-p.parsers:
				h.close()
			default:
				return
			}
		}
	})
	return nil
}
