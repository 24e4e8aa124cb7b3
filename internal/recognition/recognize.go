package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database"
	"github.com/kozaktomas/facerecognx/internal/imaging"
	"github.com/kozaktomas/facerecognx/internal/metrics"
)

// StudentRef identifies a recognized student in responses.
type StudentRef struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
}

// MarkResult lists the students recognized in one frame.
type MarkResult struct {
	Marked        []StudentRef `json:"marked"`
	AlreadyMarked []StudentRef `json:"already_marked"`
}

// Recognizer matches faces in a frame against enrolled students and records attendance.
type Recognizer struct {
	students   database.StudentReader
	attendance database.AttendanceWriter
	encoder    FaceEncoder
	cfg        config.RecognitionConfig
	loc        *time.Location
	metrics    *metrics.Metrics
	now        func() time.Time
	hnsw       *hnswCache
}

// NewRecognizer creates a recognizer; loc sets the attendance calendar and m may be nil.
func NewRecognizer(students database.StudentReader, attendance database.AttendanceWriter, encoder FaceEncoder,
	cfg config.RecognitionConfig, loc *time.Location, m *metrics.Metrics) *Recognizer {
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = constants.DefaultMatchThreshold
	}
	if loc == nil {
		loc = time.Local
	}
	r := &Recognizer{
		students:   students,
		attendance: attendance,
		encoder:    encoder,
		cfg:        cfg,
		loc:        loc,
		metrics:    m,
		now:        time.Now,
	}
	if cfg.Index == constants.IndexHNSW {
		r.hnsw = &hnswCache{}
	}
	return r
}

// Today returns the current calendar date in the configured zone.
func (r *Recognizer) Today() string {
	return r.now().In(r.loc).Format(constants.DateLayout)
}

// MarkAttendance decodes a data URL frame and marks every recognized student.
func (r *Recognizer) MarkAttendance(ctx context.Context, frame string, teacherID string) (*MarkResult, error) {
	data, err := imaging.PrepareDataURL(frame, r.cfg.MaxImageSize)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	return r.MarkFrame(ctx, data, teacherID)
}

// MarkFrame marks every student whose nearest stored encoding lies strictly
// below the match threshold. Each student is recorded at most once per day.
func (r *Recognizer) MarkFrame(ctx context.Context, image []byte, teacherID string) (*MarkResult, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveRecognition(time.Since(start).Seconds()) }()

	matcher, known, err := r.matcher(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := r.encoder.ComputeFaceEmbeddings(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("detect faces: %w", err)
	}
	r.metrics.FacesDetected(len(resp.Faces))

	result := &MarkResult{Marked: []StudentRef{}, AlreadyMarked: []StudentRef{}}
	if known == 0 {
		return result, nil
	}

	for _, face := range resp.Faces {
		entry, dist, ok := matcher.Nearest(database.Encoding(face.Embedding))
		if !ok || dist >= r.cfg.MatchThreshold {
			r.metrics.UnmatchedFace()
			continue
		}

		rec := database.NewAttendanceRecord(entry.StudentID, entry.Name, teacherID, r.now(), r.loc)
		inserted, err := r.attendance.MarkAttendance(ctx, &rec)
		if err != nil {
			return nil, fmt.Errorf("mark attendance for %s: %w", entry.StudentID, err)
		}

		ref := StudentRef{StudentID: entry.StudentID, Name: entry.Name}
		if inserted {
			result.Marked = append(result.Marked, ref)
			slog.Info("attendance marked", "student_id", entry.StudentID, "distance", dist, "teacher_id", teacherID)
		} else {
			result.AlreadyMarked = append(result.AlreadyMarked, ref)
		}
		r.metrics.AttendanceMark(!inserted)
	}

	return result, nil
}

func (r *Recognizer) matcher(ctx context.Context) (Matcher, int, error) {
	if r.hnsw != nil {
		return r.hnsw.matcher(ctx, r.students)
	}
	return linearSource(ctx, r.students)
}
