package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kozaktomas/facerecognx/internal/auth"
	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database"
	"github.com/kozaktomas/facerecognx/internal/web/middleware"
	"github.com/kozaktomas/facerecognx/internal/web/templates"
)

// AuthHandler handles login and logout
type AuthHandler struct {
	config         *config.Config
	sessionManager *middleware.SessionManager
	teachers       database.TeacherReader
	pages          pages
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(cfg *config.Config, sm *middleware.SessionManager, teachers database.TeacherReader, renderer *templates.Renderer) *AuthHandler {
	return &AuthHandler{
		config:         cfg,
		sessionManager: sm,
		teachers:       teachers,
		pages:          pages{renderer: renderer, sessionManager: sm},
	}
}

// LoginPage renders the login form
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "login", "Login", nil)
}

// Login verifies the form credentials and starts a session
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	teacherID := strings.TrimSpace(r.FormValue("teacher_id"))
	password := strings.TrimSpace(r.FormValue("password"))

	teacher, err := auth.Authenticate(r.Context(), h.teachers, teacherID, password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Error("login lookup failed", "teacher_id", sanitizeForLog(teacherID), "error", err)
		}
		h.pages.render(w, r, http.StatusOK, "login", "Login", nil,
			middleware.Flash{Category: constants.FlashDanger, Message: "Invalid credentials!"})
		return
	}

	isAdmin := teacher.ID == h.config.Admin.ID
	session, err := h.sessionManager.CreateSession(r.Context(), teacher.ID, teacher.Name, isAdmin)
	if err != nil {
		slog.Error("failed to create session", "error", err)
		http.Error(w, "failed to create session", http.StatusInternalServerError)
		return
	}
	h.sessionManager.SetSessionCookie(w, r, session)
	h.sessionManager.AddFlash(r.Context(), session.ID, constants.FlashSuccess, "Login successful!")
	slog.Info("teacher logged in", "teacher_id", teacher.ID, "admin", isAdmin)

	if isAdmin {
		http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
		return
	}
	http.Redirect(w, r, "/teacher/dashboard", http.StatusFound)
}

// Logout ends the session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if session := h.sessionManager.GetSessionFromRequest(r); session != nil {
		h.sessionManager.DeleteSession(r.Context(), session.ID)
	}
	h.sessionManager.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusFound)
}
