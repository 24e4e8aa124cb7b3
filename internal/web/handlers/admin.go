package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kozaktomas/facerecognx/internal/auth"
	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database"
	"github.com/kozaktomas/facerecognx/internal/roster"
	"github.com/kozaktomas/facerecognx/internal/web/middleware"
	"github.com/kozaktomas/facerecognx/internal/web/templates"
)

// AdminHandler serves the admin dashboard and teacher registration
type AdminHandler struct {
	teachers database.TeacherWriter
	students database.StudentReader
	validate *validator.Validate
	pages    pages
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(sm *middleware.SessionManager, teachers database.TeacherWriter, students database.StudentReader, renderer *templates.Renderer) *AdminHandler {
	return &AdminHandler{
		teachers: teachers,
		students: students,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		pages:    pages{renderer: renderer, sessionManager: sm},
	}
}

type adminDashboardData struct {
	Query    string
	Teachers []database.Teacher
	Students []database.StudentSummary
}

// Dashboard lists teachers and enrolled students, optionally filtered by ?q=
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	teachers, err := h.teachers.ListTeachers(ctx, constants.RoleTeacher)
	if err != nil {
		slog.Error("failed to list teachers", "error", err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	students, err := h.students.ListStudents(ctx)
	if err != nil {
		slog.Error("failed to list students", "error", err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	h.pages.render(w, r, http.StatusOK, "admin_dashboard", "Admin dashboard", adminDashboardData{
		Query:    query,
		Teachers: roster.FilterTeachers(teachers, query),
		Students: roster.FilterStudents(students, query),
	})
}

// RegisterTeacherPage renders the registration form
func (h *AdminHandler) RegisterTeacherPage(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "admin_register", "Register teacher", nil)
}

type registerTeacherForm struct {
	TeacherID string `validate:"required,max=64"`
	Name      string `validate:"required,max=128"`
	Email     string `validate:"required,email"`
	Password  string `validate:"required"`
}

// RegisterTeacher creates a teacher account from the form
func (h *AdminHandler) RegisterTeacher(w http.ResponseWriter, r *http.Request) {
	form := registerTeacherForm{
		TeacherID: strings.TrimSpace(r.FormValue("teacher_id")),
		Name:      strings.TrimSpace(r.FormValue("name")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		Password:  strings.TrimSpace(r.FormValue("password")),
	}
	if err := h.validate.Struct(form); err != nil {
		h.pages.flash(r, constants.FlashDanger, validationMessage(err))
		http.Redirect(w, r, "/admin/register_teacher", http.StatusFound)
		return
	}

	_, err := auth.RegisterTeacher(r.Context(), h.teachers, form.TeacherID, form.Name, form.Email, form.Password)
	if errors.Is(err, database.ErrDuplicate) {
		h.pages.flash(r, constants.FlashDanger, "Teacher ID already exists!")
		http.Redirect(w, r, "/admin/register_teacher", http.StatusFound)
		return
	}
	if err != nil {
		slog.Error("failed to register teacher", "teacher_id", sanitizeForLog(form.TeacherID), "error", err)
		http.Error(w, "failed to register teacher", http.StatusInternalServerError)
		return
	}

	slog.Info("teacher registered", "teacher_id", form.TeacherID)
	h.pages.flash(r, constants.FlashSuccess, "Teacher registered successfully!")
	http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
}

// validationMessage turns the first validation failure into a form message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid form"
	}
	field := map[string]string{
		"TeacherID": "Teacher ID",
		"Name":      "Name",
		"Email":     "Email",
		"Password":  "Password",
	}[verrs[0].Field()]
	switch verrs[0].Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Email is not a valid address"
	case "max":
		return field + " is too long"
	}
	return field + " is invalid"
}
