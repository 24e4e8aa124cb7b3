package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database"
	"github.com/kozaktomas/facerecognx/internal/recognition"
	"github.com/kozaktomas/facerecognx/internal/web/middleware"
	"github.com/kozaktomas/facerecognx/internal/web/templates"
)

// AttendanceHandler handles recognition requests and daily listings
type AttendanceHandler struct {
	recognizer *recognition.Recognizer
	attendance database.AttendanceReader
	students   database.StudentReader
	pages      pages
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(sm *middleware.SessionManager, recognizer *recognition.Recognizer,
	attendance database.AttendanceReader, students database.StudentReader, renderer *templates.Renderer) *AttendanceHandler {
	return &AttendanceHandler{
		recognizer: recognizer,
		attendance: attendance,
		students:   students,
		pages:      pages{renderer: renderer, sessionManager: sm},
	}
}

type markAttendanceRequest struct {
	Frame string `json:"frame"`
}

type markAttendanceResponse struct {
	OK            bool                     `json:"ok"`
	Marked        []recognition.StudentRef `json:"marked"`
	AlreadyMarked []recognition.StudentRef `json:"already_marked"`
}

// Mark recognizes the faces in one frame and records attendance
func (h *AttendanceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	var req markAttendanceRequest
	if err := decodeJSON(w, r, constants.MaxFrameBodySize, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if strings.TrimSpace(req.Frame) == "" {
		respondError(w, http.StatusBadRequest, "frame is required")
		return
	}

	session := middleware.GetSessionFromContext(r.Context())
	if session == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	r = withRequestID(r)
	result, err := h.recognizer.MarkAttendance(r.Context(), req.Frame, session.TeacherID)
	if err != nil {
		slog.Error("attendance recognition failed", "teacher_id", session.TeacherID, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, markAttendanceResponse{
		OK:            true,
		Marked:        result.Marked,
		AlreadyMarked: result.AlreadyMarked,
	})
}

// daily loads the records of date joined with student sections.
func (h *AttendanceHandler) daily(ctx context.Context, date string) ([]database.DailyAttendance, error) {
	records, err := h.attendance.ListByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	students, err := h.students.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	return database.JoinSections(records, students), nil
}

// requestedDate returns the ?date= value or today when it is absent.
func (h *AttendanceHandler) requestedDate(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		return h.recognizer.Today(), nil
	}
	return database.ParseDate(raw)
}

type dailyAttendancePageData struct {
	Date    string
	Records []database.DailyAttendance
}

// DailyPage renders the attendance of one day
func (h *AttendanceHandler) DailyPage(w http.ResponseWriter, r *http.Request) {
	var extra []middleware.Flash
	date, err := h.requestedDate(r)
	if err != nil {
		extra = append(extra, middleware.Flash{Category: constants.FlashDanger, Message: "Invalid date, showing today"})
		date = h.recognizer.Today()
	}

	records, err := h.daily(r.Context(), date)
	if err != nil {
		slog.Error("failed to load daily attendance", "date", date, "error", err)
		http.Error(w, "failed to load attendance", http.StatusInternalServerError)
		return
	}

	h.pages.render(w, r, http.StatusOK, "daily_attendance", "Daily attendance", dailyAttendancePageData{
		Date:    date,
		Records: records,
	}, extra...)
}

type attendanceEntry struct {
	StudentID     string    `json:"student_id"`
	Name          string    `json:"name"`
	Section       string    `json:"section"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	FullTimestamp time.Time `json:"full_timestamp"`
	MarkedBy      string    `json:"marked_by"`
}

type dailyAttendanceResponse struct {
	OK         bool              `json:"ok"`
	Date       string            `json:"date"`
	Attendance []attendanceEntry `json:"attendance"`
}

// DailyAPI returns the attendance of one day as JSON
func (h *AttendanceHandler) DailyAPI(w http.ResponseWriter, r *http.Request) {
	date, err := h.requestedDate(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.daily(r.Context(), date)
	if err != nil {
		slog.Error("failed to load daily attendance", "date", date, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load attendance")
		return
	}

	entries := make([]attendanceEntry, len(records))
	for i, rec := range records {
		entries[i] = attendanceEntry{
			StudentID:     rec.StudentID,
			Name:          rec.Name,
			Section:       rec.Section,
			Date:          rec.Date,
			Time:          rec.Time,
			FullTimestamp: rec.FullTimestamp,
			MarkedBy:      rec.MarkedBy,
		}
	}
	respondJSON(w, http.StatusOK, dailyAttendanceResponse{OK: true, Date: date, Attendance: entries})
}
