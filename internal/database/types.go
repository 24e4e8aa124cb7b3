package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kozaktomas/facerecognx/internal/constants"
)

// Encoding is a fixed-length face encoding vector produced by the face service.
type Encoding []float64

// Float32 converts the encoding for vector indexes and pgvector columns.
func (e Encoding) Float32() []float32 {
	out := make([]float32, len(e))
	for i, v := range e {
		out[i] = float32(v)
	}
	return out
}

// EncodingFromFloat32 converts a stored float32 vector back into an Encoding.
func EncodingFromFloat32(v []float32) Encoding {
	out := make(Encoding, len(v))
	for i, f := range v {
		out[i] = float64(f)
	}
	return out
}

// Teacher is an account allowed to log in; the admin account is a teacher with RoleAdmin.
type Teacher struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// IsAdmin reports whether the account carries the admin role.
func (t *Teacher) IsAdmin() bool {
	return t.Role == constants.RoleAdmin
}

// Student is an enrolled student together with all of their face encodings.
type Student struct {
	ID           string
	Name         string
	Section      string
	Encodings    []Encoding
	RegisteredBy string
	RegisteredOn time.Time
}

// Validate checks the invariants a student record must satisfy before it is stored.
func (s *Student) Validate(minEncodings int) error {
	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Section) == "" {
		return errors.New("student id, name and section are required")
	}
	if len(s.Encodings) < minEncodings {
		return fmt.Errorf("student %s has %d encodings, need %d", s.ID, len(s.Encodings), minEncodings)
	}
	for i, enc := range s.Encodings {
		if len(enc) == 0 {
			return fmt.Errorf("student %s encoding %d is empty", s.ID, i)
		}
	}
	return nil
}

// Summary drops the encodings for listings.
func (s *Student) Summary() StudentSummary {
	return StudentSummary{
		ID:            s.ID,
		Name:          s.Name,
		Section:       s.Section,
		RegisteredBy:  s.RegisteredBy,
		RegisteredOn:  s.RegisteredOn,
		EncodingCount: len(s.Encodings),
	}
}

// StudentSummary is a student without encodings, used by dashboards and lookups.
type StudentSummary struct {
	ID            string
	Name          string
	Section       string
	RegisteredBy  string
	RegisteredOn  time.Time
	EncodingCount int
}

// EncodingEntry is one stored encoding tagged with its owner.
type EncodingEntry struct {
	StudentID string
	Name      string
	Encoding  Encoding
}

// Flatten expands every student into one entry per stored encoding.
func Flatten(students []Student) []EncodingEntry {
	n := 0
	for i := range students {
		n += len(students[i].Encodings)
	}
	entries := make([]EncodingEntry, 0, n)
	for i := range students {
		for _, enc := range students[i].Encodings {
			entries = append(entries, EncodingEntry{
				StudentID: students[i].ID,
				Name:      students[i].Name,
				Encoding:  enc,
			})
		}
	}
	return entries
}

// AttendanceRecord is one daily presence of a student.
type AttendanceRecord struct {
	StudentID     string
	Name          string
	Date          string // YYYY-MM-DD
	Time          string // HH:MM:SS
	FullTimestamp time.Time
	MarkedBy      string
}

// NewAttendanceRecord builds a record for the calendar day of now in loc.
func NewAttendanceRecord(studentID, name, markedBy string, now time.Time, loc *time.Location) AttendanceRecord {
	local := now.In(loc)
	return AttendanceRecord{
		StudentID:     studentID,
		Name:          name,
		Date:          local.Format(constants.DateLayout),
		Time:          local.Format(constants.TimeLayout),
		FullTimestamp: local,
		MarkedBy:      markedBy,
	}
}

// Validate checks the record before it reaches a store.
func (r *AttendanceRecord) Validate() error {
	if r.StudentID == "" {
		return errors.New("attendance record without student id")
	}
	if _, err := time.Parse(constants.DateLayout, r.Date); err != nil {
		return fmt.Errorf("invalid attendance date %q: %w", r.Date, err)
	}
	return nil
}

// DailyAttendance is an attendance record joined with the student's section.
type DailyAttendance struct {
	AttendanceRecord
	Section string
}

// JoinSections attaches sections from students to records, "N/A" when the student is unknown.
func JoinSections(records []AttendanceRecord, students []StudentSummary) []DailyAttendance {
	sections := make(map[string]string, len(students))
	for _, s := range students {
		sections[s.ID] = s.Section
	}
	out := make([]DailyAttendance, len(records))
	for i, r := range records {
		section, ok := sections[r.StudentID]
		if !ok {
			section = "N/A"
		}
		out[i] = DailyAttendance{AttendanceRecord: r, Section: section}
	}
	return out
}

// ParseDate validates a YYYY-MM-DD query value.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(constants.DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t.Format(constants.DateLayout), nil
}
