package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-arborium/arborium/internal/engine"
	"github.com/go-arborium/arborium/internal/grammar"
)

type fakeSession struct {
	result grammar.ParseResult
	state  grammar.SessionState
}

func (s *fakeSession) State() grammar.SessionState { return s.state }
func (s *fakeSession) SetText(_ []byte)            { s.state = grammar.SessionReady }
func (s *fakeSession) ApplyEdit(_ []byte, _ grammar.Edit) error {
	s.state = grammar.SessionReady
	return nil
}
func (s *fakeSession) Parse(_ context.Context) (grammar.ParseResult, error) { return s.result, nil }
func (s *fakeSession) Cancel()                                             {}
func (s *fakeSession) Free()                                               {}

type fakePlugin struct {
	id     string
	result grammar.ParseResult
}

func (p *fakePlugin) LanguageID() string           { return p.id }
func (p *fakePlugin) InjectionLanguages() []string { return nil }
func (p *fakePlugin) CreateSession() (grammar.Session, error) {
	return &fakeSession{result: p.result}, nil
}

type fakeProvider struct {
	plugins map[string]*fakePlugin
}

func (p *fakeProvider) Get(_ context.Context, language string) (grammar.Plugin, bool, error) {
	pl, ok := p.plugins[language]
	if !ok {
		return nil, false, nil
	}
	return pl, true, nil
}

func newTestEngine() *engine.Engine {
	provider := &fakeProvider{plugins: map[string]*fakePlugin{
		"go": {
			id: "go",
			result: grammar.ParseResult{
				Spans: []grammar.Span{{Start: 0, End: 4, Capture: "keyword"}},
			},
		},
	}}
	return engine.New(provider, nil)
}

func TestHandleHighlightReturnsSpansByDefault(t *testing.T) {
	t.Parallel()

	s := NewServer(newTestEngine())
	body, _ := json.Marshal(highlightRequest{Language: "go", Source: "func"})
	req := httptest.NewRequest(http.MethodPost, "/v1/highlight", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp highlightResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.HTML)
	require.Equal(t, []engine.Span{{Start: 0, End: 4, Capture: "keyword", Language: "go"}}, resp.Spans)
}

func TestHandleHighlightHTMLFormat(t *testing.T) {
	t.Parallel()

	s := NewServer(newTestEngine())
	body, _ := json.Marshal(highlightRequest{Language: "go", Source: "func", Format: "html"})
	req := httptest.NewRequest(http.MethodPost, "/v1/highlight", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp highlightResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.HTML)
	require.Empty(t, resp.Spans)
}

func TestHandleHighlightRejectsMissingLanguage(t *testing.T) {
	t.Parallel()

	s := NewServer(newTestEngine())
	body, _ := json.Marshal(highlightRequest{Source: "func"})
	req := httptest.NewRequest(http.MethodPost, "/v1/highlight", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHighlightRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	s := NewServer(newTestEngine())
	req := httptest.NewRequest(http.MethodPost, "/v1/highlight", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealthz(t *testing.T) {
	t.Parallel()

	s := NewServer(newTestEngine())
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}
