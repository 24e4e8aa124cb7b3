package handlers

import (
	"log/slog"
	"net/http"

	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database"
	"github.com/kozaktomas/facerecognx/internal/recognition"
	"github.com/kozaktomas/facerecognx/internal/web/middleware"
	"github.com/kozaktomas/facerecognx/internal/web/templates"
)

// TeacherHandler serves the teacher landing and camera pages
type TeacherHandler struct {
	config     *config.Config
	students   database.StudentReader
	attendance database.AttendanceReader
	recognizer *recognition.Recognizer
	pages      pages
}

// NewTeacherHandler creates a new teacher handler
func NewTeacherHandler(cfg *config.Config, sm *middleware.SessionManager, students database.StudentReader,
	attendance database.AttendanceReader, recognizer *recognition.Recognizer, renderer *templates.Renderer) *TeacherHandler {
	return &TeacherHandler{
		config:     cfg,
		students:   students,
		attendance: attendance,
		recognizer: recognizer,
		pages:      pages{renderer: renderer, sessionManager: sm},
	}
}

type teacherDashboardData struct {
	Students     int
	PresentToday int
	Today        string
}

// Dashboard is the teacher landing page; the admin is sent to the admin dashboard
func (h *TeacherHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session != nil && session.IsAdmin {
		http.Redirect(w, r, "/admin/dashboard", http.StatusFound)
		return
	}

	data := teacherDashboardData{Today: h.recognizer.Today()}
	if students, err := h.students.ListStudents(r.Context()); err == nil {
		data.Students = len(students)
	} else {
		slog.Warn("failed to count students", "error", err)
	}
	if records, err := h.attendance.ListByDate(r.Context(), data.Today); err == nil {
		data.PresentToday = len(records)
	} else {
		slog.Warn("failed to count attendance", "error", err)
	}

	h.pages.render(w, r, http.StatusOK, "teacher_dashboard", "Dashboard", data)
}

type registerStudentPageData struct {
	MinEncodings int
	Captures     int
}

// RegisterStudentPage renders the camera enrollment page
func (h *TeacherHandler) RegisterStudentPage(w http.ResponseWriter, r *http.Request) {
	captures := max(constants.EnrollCaptures, h.config.Recognition.MinEncodings)
	h.pages.render(w, r, http.StatusOK, "register_student", "Register student", registerStudentPageData{
		MinEncodings: h.config.Recognition.MinEncodings,
		Captures:     captures,
	})
}

type captureAttendancePageData struct {
	IntervalMillis int
}

// CaptureAttendancePage renders the live recognition page
func (h *TeacherHandler) CaptureAttendancePage(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, "capture_attendance", "Capture attendance", captureAttendancePageData{
		IntervalMillis: constants.CaptureIntervalMillis,
	})
}
