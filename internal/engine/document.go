package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-arborium/arborium/internal/grammar"
)

// DocumentHandle is an opaque, process-local identifier for a document
// tracked by the Orchestrator (§4.5). It carries no meaning to callers
// beyond identity.
type DocumentHandle uint64

type document struct {
	mu       sync.Mutex
	language string
	text     []byte
	cancel   context.CancelFunc
}

// Orchestrator is the Cross-Boundary Document Orchestrator: a thin layer
// over Engine for hosts that manage documents with lifetimes longer than
// one Highlight call (editors, language servers, the WASM/JS boundary).
// Documents are opaque integer handles to keep the boundary
// language-neutral (§4.5).
type Orchestrator struct {
	engine *Engine

	mu      sync.RWMutex
	nextID  atomic.Uint64
	docs    map[DocumentHandle]*document
}

// NewOrchestrator constructs an Orchestrator over the given engine.
func NewOrchestrator(engine *Engine) *Orchestrator {
	return &Orchestrator{
		engine: engine,
		docs:   make(map[DocumentHandle]*document),
	}
}

// CreateDocument allocates a new document bound to language and returns
// its handle.
func (o *Orchestrator) CreateDocument(language string) DocumentHandle {
	id := DocumentHandle(o.nextID.Add(1))
	o.mu.Lock()
	o.docs[id] = &document{language: language}
	o.mu.Unlock()
	return id
}

// FreeDocument releases a document. Freeing an already-freed or unknown
// handle is a no-op.
func (o *Orchestrator) FreeDocument(doc DocumentHandle) {
	o.mu.Lock()
	delete(o.docs, doc)
	o.mu.Unlock()
}

var errUnknownDocument = fmt.Errorf("engine: unknown document handle")

func (o *Orchestrator) get(doc DocumentHandle) (*document, error) {
	o.mu.RLock()
	d, ok := o.docs[doc]
	o.mu.RUnlock()
	if !ok {
		return nil, errUnknownDocument
	}
	return d, nil
}

// SetText replaces a document's full text.
func (o *Orchestrator) SetText(doc DocumentHandle, text []byte) error {
	d, err := o.get(doc)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.text = append([]byte(nil), text...)
	d.mu.Unlock()
	return nil
}

// ApplyEdit replaces a document's text to reflect one incremental edit.
// The edit descriptor is accepted for ABI parity with the plugin-level
// contract (§6) but, like the underlying grammar sessions, this
// orchestrator always reparses from the new full text rather than
// reusing a previous tree.
func (o *Orchestrator) ApplyEdit(doc DocumentHandle, text []byte, _ grammar.Edit) error {
	return o.SetText(doc, text)
}

// Highlight runs the engine's Highlight pipeline over a document's
// current text. The context passed to the engine is derived from ctx and
// recorded on the document so that a concurrent Cancel(doc) can cancel
// it. Only the most recently started Highlight on a handle is recorded,
// and the record is cleared when a Highlight on that handle returns. The
// context reaches the plugin session's Parse, and highlightAt checks
// ctx.Err() before each recursion step, so cancellation takes effect
// inside a parse whose session watches ctx, and otherwise at the next
// injection boundary.
func (o *Orchestrator) Highlight(ctx context.Context, doc DocumentHandle, maxDepth int) ([]Span, error) {
	d, err := o.get(doc)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	language := d.language
	text := d.text
	d.cancel = cancel
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		if d.cancel != nil {
			d.cancel = nil
		}
		d.mu.Unlock()
		cancel()
	}()

	return o.engine.Highlight(runCtx, language, text, Options{MaxDepth: maxDepth})
}

// Cancel aborts a document's in-flight Highlight call, if any, by
// canceling the context that call is running under. A document with no
// in-flight call, or an unknown handle, makes this a no-op.
func (o *Orchestrator) Cancel(doc DocumentHandle) {
	d, err := o.get(doc)
	if err != nil {
		return
	}
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// GetRequiredLanguages returns the transitive closure of languages a
// document may need through injections, so a host can pre-warm an async
// provider before calling Highlight.
func (o *Orchestrator) GetRequiredLanguages(ctx context.Context, doc DocumentHandle, maxDepth int) ([]string, error) {
	d, err := o.get(doc)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	language := d.language
	d.mu.Unlock()

	seen := map[string]bool{}
	var walk func(lang string, depth int) error
	walk = func(lang string, depth int) error {
		if seen[lang] || depth > maxDepth {
			return nil
		}
		seen[lang] = true
		plugin, ok, err := o.engine.provider.Get(ctx, lang)
		if err != nil || !ok {
			return err
		}
		for _, next := range plugin.InjectionLanguages() {
			if err := walk(next, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	// Depth counts like Engine.Highlight: the top-level language is depth 1.
	if err := walk(language, 1); err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for lang := range seen {
		out = append(out, lang)
	}
	return out, nil
}
