package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/facerecognx/internal/database"
	"github.com/pgvector/pgvector-go"
)

// StudentRepository provides PostgreSQL-backed student storage.
// Encodings live in student_encodings as pgvector columns.
type StudentRepository struct {
	pool *Pool
}

// NewStudentRepository creates a new PostgreSQL student repository
func NewStudentRepository(pool *Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// GetStudent retrieves a student with encodings, returns nil if not found
func (r *StudentRepository) GetStudent(ctx context.Context, id string) (*database.Student, error) {
	var s database.Student
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, section, registered_by, registered_on
		FROM students
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Section, &s.RegisteredBy, &s.RegisteredOn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT encoding FROM student_encodings
		WHERE student_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("get student encodings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var vec pgvector.Vector
		if err := rows.Scan(&vec); err != nil {
			return nil, fmt.Errorf("scan encoding: %w", err)
		}
		s.Encodings = append(s.Encodings, database.EncodingFromFloat32(vec.Slice()))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate encodings: %w", err)
	}
	return &s, nil
}

// HasStudent checks if a student identifier is registered
func (r *StudentRepository) HasStudent(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check student: %w", err)
	}
	return exists, nil
}

// ListStudents returns all students without encodings
func (r *StudentRepository) ListStudents(ctx context.Context) ([]database.StudentSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.name, s.section, s.registered_by, s.registered_on, COUNT(e.position)
		FROM students s
		LEFT JOIN student_encodings e ON e.student_id = s.id
		GROUP BY s.id
		ORDER BY s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	var students []database.StudentSummary
	for rows.Next() {
		var s database.StudentSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Section, &s.RegisteredBy, &s.RegisteredOn, &s.EncodingCount); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// ListWithEncodings returns every student with encodings in enrollment order
func (r *StudentRepository) ListWithEncodings(ctx context.Context) ([]database.Student, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.name, s.section, s.registered_by, s.registered_on, e.encoding
		FROM students s
		JOIN student_encodings e ON e.student_id = s.id
		ORDER BY s.id, e.position
	`)
	if err != nil {
		return nil, fmt.Errorf("list encodings: %w", err)
	}
	defer rows.Close()

	var students []database.Student
	for rows.Next() {
		var s database.Student
		var vec pgvector.Vector
		if err := rows.Scan(&s.ID, &s.Name, &s.Section, &s.RegisteredBy, &s.RegisteredOn, &vec); err != nil {
			return nil, fmt.Errorf("scan encoding row: %w", err)
		}
		enc := database.EncodingFromFloat32(vec.Slice())
		if n := len(students); n > 0 && students[n-1].ID == s.ID {
			students[n-1].Encodings = append(students[n-1].Encodings, enc)
			continue
		}
		s.Encodings = []database.Encoding{enc}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate encoding rows: %w", err)
	}
	return students, nil
}

// CountEncodings returns the total number of stored encodings
func (r *StudentRepository) CountEncodings(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM student_encodings").Scan(&count); err != nil {
		return 0, fmt.Errorf("count encodings: %w", err)
	}
	return count, nil
}

// CreateStudent inserts the student and all encodings in one transaction
func (r *StudentRepository) CreateStudent(ctx context.Context, s *database.Student) error {
	tx, err := r.pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO students (id, name, section, registered_by, registered_on)
		VALUES ($1, $2, $3, $4, $5)
	`, s.ID, s.Name, s.Section, s.RegisteredBy, s.RegisteredOn)
	if isUniqueViolation(err) {
		return database.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert student: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO student_encodings (student_id, position, encoding)
		VALUES ($1, $2, $3)
	`)
	if err != nil {
		return fmt.Errorf("prepare encoding insert: %w", err)
	}
	defer stmt.Close()

	for i, enc := range s.Encodings {
		if _, err := stmt.ExecContext(ctx, s.ID, i, pgvector.NewVector(enc.Float32())); err != nil {
			return fmt.Errorf("insert encoding %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit student: %w", err)
	}
	return nil
}
