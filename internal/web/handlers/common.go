package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/facerecognx/internal/faceapi"
	"github.com/kozaktomas/facerecognx/internal/web/middleware"
	"github.com/kozaktomas/facerecognx/internal/web/templates"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// apiResponse is the {ok, msg} envelope of the JSON endpoints.
type apiResponse struct {
	OK  bool   `json:"ok"`
	Msg string `json:"msg,omitempty"`
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, apiResponse{OK: false, Msg: message})
}

// decodeJSON reads a JSON body limited to maxBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// withRequestID forwards the chi request ID to face service calls.
func withRequestID(r *http.Request) *http.Request {
	ctx := faceapi.WithRequestID(r.Context(), chiMiddleware.GetReqID(r.Context()))
	return r.WithContext(ctx)
}

// pages renders HTML pages and consumes pending flashes.
type pages struct {
	renderer       *templates.Renderer
	sessionManager *middleware.SessionManager
}

// render writes a page for the request's session. extra flashes are shown after the stored ones.
func (p pages) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any, extra ...middleware.Flash) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil && p.sessionManager != nil {
		session = p.sessionManager.GetSessionFromRequest(r)
	}

	var flashes []middleware.Flash
	if session != nil && p.sessionManager != nil {
		flashes = p.sessionManager.PopFlashes(r.Context(), session.ID)
	}
	flashes = append(flashes, extra...)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	var buf strings.Builder
	err := p.renderer.Render(&buf, name, templates.Page{
		Title:   title,
		User:    session,
		Flashes: flashes,
		Data:    data,
	})
	if err != nil {
		slog.Error("render failed", "page", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

// flash stores a message on the request's session for the next page.
func (p pages) flash(r *http.Request, category, message string) {
	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		session = p.sessionManager.GetSessionFromRequest(r)
	}
	if session != nil {
		p.sessionManager.AddFlash(r.Context(), session.ID, category, message)
	}
}
