package database

import (
	"context"
)

// TeacherReader provides read-only access to teacher accounts
type TeacherReader interface {
	// GetTeacher retrieves a teacher by identifier, returns nil if not found
	GetTeacher(ctx context.Context, id string) (*Teacher, error)
	// ListTeachers returns all teachers with the given role ordered by identifier
	ListTeachers(ctx context.Context, role string) ([]Teacher, error)
}

// TeacherWriter provides write access to teacher accounts
type TeacherWriter interface {
	TeacherReader

	// CreateTeacher inserts a teacher, returns ErrDuplicate if the identifier is taken
	CreateTeacher(ctx context.Context, teacher *Teacher) error
}

// StudentReader provides read-only access to enrolled students
type StudentReader interface {
	// GetStudent retrieves a student with encodings, returns nil if not found
	GetStudent(ctx context.Context, id string) (*Student, error)
	// HasStudent checks if a student identifier is registered
	HasStudent(ctx context.Context, id string) (bool, error)
	// ListStudents returns all students without encodings ordered by identifier
	ListStudents(ctx context.Context) ([]StudentSummary, error)
	// ListWithEncodings returns all students including their encodings
	ListWithEncodings(ctx context.Context) ([]Student, error)
	// CountEncodings returns the total number of stored encodings
	CountEncodings(ctx context.Context) (int, error)
}

// StudentWriter provides write access to enrolled students
type StudentWriter interface {
	StudentReader

	// CreateStudent inserts a student with encodings, returns ErrDuplicate if the identifier is taken
	CreateStudent(ctx context.Context, student *Student) error
}

// AttendanceReader provides read-only access to attendance records
type AttendanceReader interface {
	// ListByDate returns all records for a date ordered by full timestamp
	ListByDate(ctx context.Context, date string) ([]AttendanceRecord, error)
	// GetAttendance retrieves the record for a student on a date, returns nil if not found
	GetAttendance(ctx context.Context, studentID, date string) (*AttendanceRecord, error)
}

// AttendanceWriter provides write access to attendance records
type AttendanceWriter interface {
	AttendanceReader

	// MarkAttendance inserts the record unless one already exists for (student, date).
	// The check and insert are a single atomic operation of the store.
	// Returns true if the record was inserted.
	MarkAttendance(ctx context.Context, record *AttendanceRecord) (bool, error)
}

// Store groups the repositories of one backend. It is built once at startup
// and passed explicitly to the services that need it.
type Store struct {
	Teachers   TeacherWriter
	Students   StudentWriter
	Attendance AttendanceWriter

	// Ping checks backend connectivity, may be nil
	Ping func(ctx context.Context) error
	// Close releases backend resources, may be nil
	Close func() error
}

// Healthy pings the backend when a ping function is configured.
func (s *Store) Healthy(ctx context.Context) error {
	if s.Ping == nil {
		return nil
	}
	return s.Ping(ctx)
}

// Shutdown closes the backend when a close function is configured.
func (s *Store) Shutdown() error {
	if s.Close == nil {
		return nil
	}
	return s.Close()
}
