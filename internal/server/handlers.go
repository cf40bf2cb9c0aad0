package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/erdtower/pkg/buildinfo"
	"github.com/matzehuels/erdtower/pkg/errors"
	"github.com/matzehuels/erdtower/pkg/geom"
	"github.com/matzehuels/erdtower/pkg/graph"
	"github.com/matzehuels/erdtower/pkg/pipeline"
	"github.com/matzehuels/erdtower/pkg/schema"
	"github.com/matzehuels/erdtower/pkg/session"
)

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatJSON: "application/json",
}

// =============================================================================
// Request and response bodies
// =============================================================================

type layoutRequest struct {
	Schema *schema.Schema `json:"schema"`
	pipeline.Options
	Displacements []graph.Displacement `json:"displacements,omitempty"`
}

type createSessionRequest struct {
	Schema    *schema.Schema `json:"schema"`
	Direction string         `json:"direction,omitempty"`
}

type dragStartRequest struct {
	Node string `json:"node"`
}

type dragMoveRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type directionRequest struct {
	Direction string `json:"direction"`
}

// sessionResponse is the stored session plus the composed view to draw.
type sessionResponse struct {
	session.Record
	View *graph.Layout `json:"view,omitempty"`
}

func newSessionResponse(sess *session.Session) sessionResponse {
	resp := sessionResponse{Record: sess.Record()}
	if v := sess.View(); v != nil {
		wire := graph.FromDiagram(v, nil)
		resp.View = &wire
	}
	return resp
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// Service endpoints
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"date":    buildinfo.Date,
	})
}

// =============================================================================
// Stateless layout and render
// =============================================================================

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Schema == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "missing schema"))
		return
	}

	l, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), req.Schema, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(hit))
	writeJSON(w, http.StatusOK, graph.FromDiagram(l, graph.ToDisplacements(req.Displacements)))
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}

	var req layoutRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Schema == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "missing schema"))
		return
	}

	opts := req.Options
	opts.Formats = []string{format}
	opts.Displacements = graph.ToDisplacements(req.Displacements)
	res, err := s.runner.Execute(r.Context(), req.Schema, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("X-Cache", cacheHeader(res.CacheInfo.LayoutHit && res.CacheInfo.RenderHit))
	writeArtifact(w, format, res.Artifacts[format])
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Schema == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "missing schema"))
		return
	}
	if err := req.Schema.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	dir, err := parseDirection(req.Direction)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess := session.New(req.Schema, dir, s.opts.SessionTTL)
	if err := sess.Relayout(r.Context(), s.layouter()); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info("created session", "id", sess.ID, "tables", len(req.Schema.Tables), "direction", dir)
	writeJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, err := s.store.Get(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	var req dragStartRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, func(ctx context.Context, sess *session.Session) error {
		return sess.StartDrag(ctx, req.Node)
	})
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	var req dragMoveRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, func(_ context.Context, sess *session.Session) error {
		return sess.MoveDrag(geom.Pt(req.DX, req.DY))
	})
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, sess *session.Session) error {
		sess.EndDrag(ctx)
		return nil
	})
}

func (s *Server) handleResetNode(w http.ResponseWriter, r *http.Request) {
	node := chi.URLParam(r, "node")
	s.mutate(w, r, func(_ context.Context, sess *session.Session) error {
		return sess.ResetNode(node)
	})
}

func (s *Server) handleRelayout(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, sess *session.Session) error {
		return sess.Relayout(ctx, s.layouter())
	})
}

func (s *Server) handleSetDirection(w http.ResponseWriter, r *http.Request) {
	var req directionRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	dir, err := parseDirection(req.Direction)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.mutate(w, r, func(ctx context.Context, sess *session.Session) error {
		return sess.SetDirection(ctx, s.layouter(), dir)
	})
}

func (s *Server) handleSessionSVG(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !sess.HasLayout() {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "session %s has no layout yet", sess.ID))
		return
	}
	opts := pipeline.Options{
		Theme:         r.URL.Query().Get("theme"),
		Title:         r.URL.Query().Get("title"),
		Displacements: sess.Displacements(),
	}
	svg, err := pipeline.RenderSVG(sess.Schema, sess.Base(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeArtifact(w, pipeline.FormatSVG, svg)
}

// mutate applies fn to the session named in the URL under its lock and
// stores the result. A failed fn leaves the stored session untouched.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(context.Context, *session.Session) error) {
	id := chi.URLParam(r, "id")
	unlock := s.locks.Lock(id)
	defer unlock()

	ctx := r.Context()
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := fn(ctx, sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.Set(ctx, sess); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse(sess))
}

// =============================================================================
// Encoding helpers
// =============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	var tooLarge *http.MaxBytesError
	switch {
	case stderrors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
	case stderrors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: errors.UserMessage(err), Code: string(errors.GetCode(err))})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeArtifact(w http.ResponseWriter, format string, data []byte) {
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func cacheHeader(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
