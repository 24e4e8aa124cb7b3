// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/kozaktomas/facerecognx/internal/database"
)

// MockTeacherRepository is a mock implementation of database.TeacherWriter
type MockTeacherRepository struct {
	mu       sync.RWMutex
	teachers map[string]database.Teacher

	// Error injection
	GetError    error
	ListError   error
	CreateError error
}

// NewMockTeacherRepository creates a new mock teacher repository
func NewMockTeacherRepository() *MockTeacherRepository {
	return &MockTeacherRepository{teachers: make(map[string]database.Teacher)}
}

// AddTeacher adds a teacher to the mock store
func (m *MockTeacherRepository) AddTeacher(t database.Teacher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teachers[t.ID] = t
}

// GetTeacher retrieves a teacher by identifier
func (m *MockTeacherRepository) GetTeacher(ctx context.Context, id string) (*database.Teacher, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teachers[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// ListTeachers returns teachers with a role, without password hashes
func (m *MockTeacherRepository) ListTeachers(ctx context.Context, role string) ([]database.Teacher, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.Teacher
	for _, t := range m.teachers {
		if t.Role == role {
			t.PasswordHash = ""
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CreateTeacher inserts a teacher unless the identifier exists
func (m *MockTeacherRepository) CreateTeacher(ctx context.Context, t *database.Teacher) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.teachers[t.ID]; ok {
		return database.ErrDuplicate
	}
	m.teachers[t.ID] = *t
	return nil
}

// Count returns the number of stored teachers
func (m *MockTeacherRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.teachers)
}

// MockStudentRepository is a mock implementation of database.StudentWriter
type MockStudentRepository struct {
	mu       sync.RWMutex
	students map[string]database.Student

	// Error injection
	GetError    error
	HasError    error
	ListError   error
	CountError  error
	CreateError error
}

// NewMockStudentRepository creates a new mock student repository
func NewMockStudentRepository() *MockStudentRepository {
	return &MockStudentRepository{students: make(map[string]database.Student)}
}

// AddStudent adds a student to the mock store
func (m *MockStudentRepository) AddStudent(s database.Student) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[s.ID] = s
}

// GetStudent retrieves a student by identifier
func (m *MockStudentRepository) GetStudent(ctx context.Context, id string) (*database.Student, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// HasStudent checks if a student exists
func (m *MockStudentRepository) HasStudent(ctx context.Context, id string) (bool, error) {
	if m.HasError != nil {
		return false, m.HasError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.students[id]
	return ok, nil
}

func (m *MockStudentRepository) sorted() []database.Student {
	out := make([]database.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListStudents returns all students without encodings
func (m *MockStudentRepository) ListStudents(ctx context.Context) ([]database.StudentSummary, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []database.StudentSummary
	for _, s := range m.sorted() {
		out = append(out, s.Summary())
	}
	return out, nil
}

// ListWithEncodings returns all students with encodings
func (m *MockStudentRepository) ListWithEncodings(ctx context.Context) ([]database.Student, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sorted(), nil
}

// CountEncodings returns the total number of encodings
func (m *MockStudentRepository) CountEncodings(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.students {
		n += len(s.Encodings)
	}
	return n, nil
}

// CreateStudent inserts a student unless the identifier exists
func (m *MockStudentRepository) CreateStudent(ctx context.Context, s *database.Student) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.students[s.ID]; ok {
		return database.ErrDuplicate
	}
	m.students[s.ID] = *s
	return nil
}

// Count returns the number of stored students
func (m *MockStudentRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students)
}

// MockAttendanceRepository is a mock implementation of database.AttendanceWriter
type MockAttendanceRepository struct {
	mu      sync.Mutex
	records []database.AttendanceRecord

	// Error injection
	ListError error
	GetError  error
	MarkError error
}

// NewMockAttendanceRepository creates a new mock attendance repository
func NewMockAttendanceRepository() *MockAttendanceRepository {
	return &MockAttendanceRepository{}
}

// ListByDate returns records for a date ordered by full timestamp
func (m *MockAttendanceRepository) ListByDate(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []database.AttendanceRecord
	for _, r := range m.records {
		if r.Date == date {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FullTimestamp.Before(out[j].FullTimestamp) })
	return out, nil
}

// GetAttendance retrieves the record for a student on a date
func (m *MockAttendanceRepository) GetAttendance(ctx context.Context, studentID, date string) (*database.AttendanceRecord, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.StudentID == studentID && r.Date == date {
			return &r, nil
		}
	}
	return nil, nil
}

// MarkAttendance inserts the record unless one exists for (student, date)
func (m *MockAttendanceRepository) MarkAttendance(ctx context.Context, rec *database.AttendanceRecord) (bool, error) {
	if m.MarkError != nil {
		return false, m.MarkError
	}
	if err := rec.Validate(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.StudentID == rec.StudentID && r.Date == rec.Date {
			return false, nil
		}
	}
	m.records = append(m.records, *rec)
	return true, nil
}

// Records returns a copy of all stored records
func (m *MockAttendanceRepository) Records() []database.AttendanceRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]database.AttendanceRecord(nil), m.records...)
}

// Store bundles mock repositories into a database.Store
type Store struct {
	Teachers   *MockTeacherRepository
	Students   *MockStudentRepository
	Attendance *MockAttendanceRepository

	// PingError is returned by the store health check
	PingError error
}

// NewStore creates a mock store with empty repositories
func NewStore() *Store {
	return &Store{
		Teachers:   NewMockTeacherRepository(),
		Students:   NewMockStudentRepository(),
		Attendance: NewMockAttendanceRepository(),
	}
}

// Database returns the database.Store view of the mocks
func (s *Store) Database() *database.Store {
	return &database.Store{
		Teachers:   s.Teachers,
		Students:   s.Students,
		Attendance: s.Attendance,
		Ping:       func(context.Context) error { return s.PingError },
	}
}
