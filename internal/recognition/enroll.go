// Package recognition implements student enrollment and attendance marking on
// top of the face service and the storage repositories.
package recognition

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database"
	"github.com/kozaktomas/facerecognx/internal/faceapi"
	"github.com/kozaktomas/facerecognx/internal/imaging"
	"github.com/kozaktomas/facerecognx/internal/metrics"
)

// FaceEncoder detects faces and returns one encoding per face.
type FaceEncoder interface {
	ComputeFaceEmbeddings(ctx context.Context, imageData []byte) (*faceapi.FaceResponse, error)
}

// EnrollRequest is a student enrollment. Images holds raw image bytes; a nil
// entry stands for a capture that could not be decoded and is counted as submitted.
type EnrollRequest struct {
	StudentID string
	Name      string
	Section   string
	TeacherID string
	Images    [][]byte
}

// Enroller registers students with their face encodings.
type Enroller struct {
	students database.StudentWriter
	encoder  FaceEncoder
	cfg      config.RecognitionConfig
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewEnroller creates an enroller; m may be nil.
func NewEnroller(students database.StudentWriter, encoder FaceEncoder, cfg config.RecognitionConfig, m *metrics.Metrics) *Enroller {
	if cfg.MinEncodings <= 0 {
		cfg.MinEncodings = constants.DefaultMinEncodings
	}
	if cfg.EnrollWorkers <= 0 {
		cfg.EnrollWorkers = constants.DefaultEnrollWorkers
	}
	return &Enroller{
		students: students,
		encoder:  encoder,
		cfg:      cfg,
		metrics:  m,
		now:      time.Now,
	}
}

// Enroll validates the request, encodes every image and stores the student when
// at least MinEncodings images contain exactly one face. progress, if not nil,
// is called once per processed image.
func (e *Enroller) Enroll(ctx context.Context, req EnrollRequest, progress func()) (*database.Student, error) {
	req.StudentID = strings.TrimSpace(req.StudentID)
	req.Name = strings.TrimSpace(req.Name)
	req.Section = strings.TrimSpace(req.Section)
	if req.StudentID == "" || req.Name == "" || req.Section == "" {
		e.metrics.Enrollment(metrics.EnrollInvalid)
		return nil, ErrMissingFields
	}

	exists, err := e.students.HasStudent(ctx, req.StudentID)
	if err != nil {
		e.metrics.Enrollment(metrics.EnrollError)
		return nil, err
	}
	if exists {
		e.metrics.Enrollment(metrics.EnrollDuplicate)
		return nil, ErrStudentExists
	}

	encodings := e.encodeAll(ctx, req.Images, progress)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(encodings) < e.cfg.MinEncodings {
		e.metrics.Enrollment(metrics.EnrollInsufficient)
		return nil, &InsufficientEncodingsError{
			Valid:     len(encodings),
			Submitted: len(req.Images),
			Required:  e.cfg.MinEncodings,
		}
	}

	student := &database.Student{
		ID:           req.StudentID,
		Name:         req.Name,
		Section:      req.Section,
		Encodings:    encodings,
		RegisteredBy: req.TeacherID,
		RegisteredOn: e.now(),
	}
	if err := student.Validate(e.cfg.MinEncodings); err != nil {
		e.metrics.Enrollment(metrics.EnrollError)
		return nil, err
	}

	if err := e.students.CreateStudent(ctx, student); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			e.metrics.Enrollment(metrics.EnrollDuplicate)
			return nil, ErrStudentExists
		}
		e.metrics.Enrollment(metrics.EnrollError)
		return nil, err
	}

	e.metrics.Enrollment(metrics.EnrollOK)
	slog.Info("student enrolled", "student_id", student.ID, "encodings", len(encodings), "images", len(req.Images), "teacher_id", req.TeacherID)
	return student, nil
}

// encodeAll runs encodeOne over images with a bounded worker pool and returns
// the accepted encodings in submission order.
func (e *Enroller) encodeAll(ctx context.Context, images [][]byte, progress func()) []database.Encoding {
	results := make([]database.Encoding, len(images))
	sem := make(chan struct{}, e.cfg.EnrollWorkers)
	var wg sync.WaitGroup
	var progressMu sync.Mutex

	for i, img := range images {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			enc := e.encodeOne(ctx, img)
			results[i] = enc
			e.metrics.EnrollImage(enc != nil)

			if progress != nil {
				progressMu.Lock()
				progress()
				progressMu.Unlock()
			}
		}()
	}
	wg.Wait()

	encodings := make([]database.Encoding, 0, len(images))
	for _, enc := range results {
		if enc != nil {
			encodings = append(encodings, enc)
		}
	}
	return encodings
}

// encodeOne returns the encoding of an image holding exactly one face, or nil.
func (e *Enroller) encodeOne(ctx context.Context, data []byte) database.Encoding {
	if len(data) == 0 || ctx.Err() != nil {
		return nil
	}
	normalized, err := imaging.Normalize(data, e.cfg.MaxImageSize)
	if err != nil {
		slog.Debug("skipping undecodable enrollment image", "error", err)
		return nil
	}
	resp, err := e.encoder.ComputeFaceEmbeddings(ctx, normalized)
	if err != nil {
		slog.Warn("face service failed for enrollment image", "error", err)
		return nil
	}
	if len(resp.Faces) != 1 {
		return nil
	}
	return database.Encoding(resp.Faces[0].Embedding)
}
