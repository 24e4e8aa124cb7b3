package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/imaging"
	"github.com/kozaktomas/facerecognx/internal/recognition"
	"github.com/kozaktomas/facerecognx/internal/web/middleware"
)

// StudentsHandler handles student enrollment
type StudentsHandler struct {
	enroller *recognition.Enroller
}

// NewStudentsHandler creates a new students handler
func NewStudentsHandler(enroller *recognition.Enroller) *StudentsHandler {
	return &StudentsHandler{enroller: enroller}
}

type registerStudentRequest struct {
	StudentID string   `json:"student_id"`
	Name      string   `json:"name"`
	Section   string   `json:"section"`
	Images    []string `json:"images"`
}

// Register enrolls a student from camera captures sent as data URLs
func (h *StudentsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if err := decodeJSON(w, r, constants.MaxEnrollBodySize, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	images := make([][]byte, len(req.Images))
	for i, img := range req.Images {
		// undecodable captures stay nil and count as submitted
		if data, err := imaging.DecodeDataURL(img); err == nil {
			images[i] = data
		}
	}

	var teacherID string
	if session := middleware.GetSessionFromContext(r.Context()); session != nil {
		teacherID = session.TeacherID
	}

	r = withRequestID(r)
	_, err := h.enroller.Enroll(r.Context(), recognition.EnrollRequest{
		StudentID: req.StudentID,
		Name:      req.Name,
		Section:   req.Section,
		TeacherID: teacherID,
		Images:    images,
	}, nil)

	var insufficient *recognition.InsufficientEncodingsError
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, apiResponse{OK: true, Msg: "Student registered successfully"})
	case errors.Is(err, recognition.ErrMissingFields):
		respondError(w, http.StatusBadRequest, "All fields required")
	case errors.Is(err, recognition.ErrStudentExists):
		respondError(w, http.StatusBadRequest, "Student ID already exists")
	case errors.As(err, &insufficient):
		respondError(w, http.StatusBadRequest, insufficient.Error())
	default:
		slog.Error("student enrollment failed", "student_id", sanitizeForLog(req.StudentID), "error", err)
		respondError(w, http.StatusInternalServerError, "failed to register student")
	}
}
