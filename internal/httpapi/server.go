// Package httpapi exposes the highlight engine over HTTP, the serving
// shape the spec frames as "docs.rs-scale traffic with per-file parses
// taking microseconds to low milliseconds" (§1).
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/go-arborium/arborium/internal/engine"
	"github.com/go-arborium/arborium/internal/render"
)

// Server wires the engine into a chi router under /v1.
type Server struct {
	engine *engine.Engine
	router chi.Router
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithJWTAuth installs the bearer-token middleware (auth.go) on every
// route under /v1, requiring a valid token signed with secret.
func WithJWTAuth(secret []byte) Option {
	return func(s *Server) {
		s.router.Use(requireBearerJWT(secret))
	}
}

// NewServer constructs a Server ready to mount or serve directly.
func NewServer(eng *engine.Engine, opts ...Option) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	s := &Server{engine: eng, router: r}
	for _, opt := range opts {
		opt(s)
	}

	r.Post("/v1/highlight", s.handleHighlight)
	r.Get("/v1/healthz", s.handleHealthz)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type highlightRequest struct {
	Language string `json:"language"`
	Source   string `json:"source"`
	MaxDepth int    `json:"max_depth"`
	Format   string `json:"format"` // "spans" (default) or "html"
}

type highlightResponse struct {
	Spans []engine.Span `json:"spans,omitempty"`
	HTML  string        `json:"html,omitempty"`
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Language == "" {
		writeJSONError(w, http.StatusBadRequest, "language is required")
		return
	}

	spans, err := s.engine.Highlight(r.Context(), req.Language, []byte(req.Source), engine.Options{MaxDepth: req.MaxDepth})
	if err != nil {
		slog.Error("highlight request failed", "language", req.Language, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "highlight failed")
		return
	}

	resp := highlightResponse{}
	if req.Format == "html" {
		resp.HTML = render.HTML([]byte(req.Source), spans)
	} else {
		resp.Spans = spans
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
