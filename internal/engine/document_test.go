package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-arborium/arborium/internal/grammar"
)

// blockingSession.Parse never returns on its own; it only unblocks when
// its context is canceled, letting tests observe Orchestrator.Cancel
// actually interrupting an in-flight Highlight rather than being dead
// state.
type blockingSession struct {
	started chan struct{}
	state   grammar.SessionState
}

func (s *blockingSession) State() grammar.SessionState { return s.state }
func (s *blockingSession) SetText(_ []byte)             { s.state = grammar.SessionReady }
func (s *blockingSession) ApplyEdit(_ []byte, _ grammar.Edit) error {
	s.state = grammar.SessionReady
	return nil
}
func (s *blockingSession) Parse(ctx context.Context) (grammar.ParseResult, error) {
	close(s.started)
	<-ctx.Done()
	return grammar.ParseResult{}, ctx.Err()
}
func (s *blockingSession) Cancel() {}
func (s *blockingSession) Free()   {}

type blockingPlugin struct {
	started chan struct{}
}

func (p *blockingPlugin) LanguageID() string           { return "go" }
func (p *blockingPlugin) InjectionLanguages() []string { return nil }
func (p *blockingPlugin) CreateSession() (grammar.Session, error) {
	return &blockingSession{started: p.started}, nil
}

type blockingProvider struct {
	plugin *blockingPlugin
}

func (p *blockingProvider) Get(_ context.Context, language string) (grammar.Plugin, bool, error) {
	if language != "go" {
		return nil, false, nil
	}
	return p.plugin, true, nil
}

func TestOrchestratorCreateSetHighlightFree(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{plugins: map[string]*fakePlugin{
		"go": {
			id: "go",
			result: grammar.ParseResult{
				Spans: []grammar.Span{{Start: 0, End: 4, Capture: "keyword"}},
			},
		},
	}}
	orch := NewOrchestrator(New(provider, nil))

	doc := orch.CreateDocument("go")
	require.NoError(t, orch.SetText(doc, []byte("func")))

	spans, err := orch.Highlight(context.Background(), doc, 4)
	require.NoError(t, err)
	require.Equal(t, []Span{{Start: 0, End: 4, Capture: "keyword", Language: "go"}}, spans)

	orch.FreeDocument(doc)
	_, err = orch.Highlight(context.Background(), doc, 4)
	require.ErrorIs(t, err, errUnknownDocument)
}

func TestOrchestratorUnknownHandleErrors(t *testing.T) {
	t.Parallel()

	orch := NewOrchestrator(New(&fakeProvider{plugins: map[string]*fakePlugin{}}, nil))

	err := orch.SetText(DocumentHandle(999), []byte("x"))
	require.ErrorIs(t, err, errUnknownDocument)

	// Cancel and FreeDocument on an unknown handle are no-ops, not errors.
	orch.Cancel(DocumentHandle(999))
	orch.FreeDocument(DocumentHandle(999))
}

func TestOrchestratorApplyEditReplacesFullText(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{plugins: map[string]*fakePlugin{
		"go": {id: "go", result: grammar.ParseResult{}},
	}}
	orch := NewOrchestrator(New(provider, nil))

	doc := orch.CreateDocument("go")
	require.NoError(t, orch.SetText(doc, []byte("first")))
	require.NoError(t, orch.ApplyEdit(doc, []byte("second"), grammar.Edit{}))

	d, err := orch.get(doc)
	require.NoError(t, err)
	require.Equal(t, []byte("second"), d.text)
}

func TestOrchestratorGetRequiredLanguagesWalksInjectionClosure(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{plugins: map[string]*fakePlugin{
		"html": {id: "html", injections: []string{"css", "javascript"}},
		"css":  {id: "css"},
		"javascript": {id: "javascript", injections: []string{"css"}},
	}}
	orch := NewOrchestrator(New(provider, nil))

	doc := orch.CreateDocument("html")
	langs, err := orch.GetRequiredLanguages(context.Background(), doc, 8)
	require.NoError(t, err)

	set := make(map[string]bool, len(langs))
	for _, l := range langs {
		set[l] = true
	}
	require.True(t, set["html"])
	require.True(t, set["css"])
	require.True(t, set["javascript"])
}

func TestOrchestratorCancelInterruptsInFlightHighlight(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	provider := &blockingProvider{plugin: &blockingPlugin{started: started}}
	orch := NewOrchestrator(New(provider, nil))

	doc := orch.CreateDocument("go")
	require.NoError(t, orch.SetText(doc, []byte("func")))

	errCh := make(chan error, 1)
	go func() {
		_, err := orch.Highlight(context.Background(), doc, 4)
		errCh <- err
	}()

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("highlight never reached the blocking parse call")
	}

	orch.Cancel(doc)

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancel did not interrupt the in-flight highlight")
	}
}
