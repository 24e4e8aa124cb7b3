package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kozaktomas/facerecognx/internal/database"
)

// TeacherRepository provides PostgreSQL-backed teacher accounts
type TeacherRepository struct {
	pool *Pool
}

// NewTeacherRepository creates a new PostgreSQL teacher repository
func NewTeacherRepository(pool *Pool) *TeacherRepository {
	return &TeacherRepository{pool: pool}
}

// GetTeacher retrieves a teacher by identifier, returns nil if not found
func (r *TeacherRepository) GetTeacher(ctx context.Context, id string) (*database.Teacher, error) {
	var t database.Teacher
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, created_at
		FROM teachers
		WHERE id = $1
	`, id).Scan(&t.ID, &t.Name, &t.Email, &t.PasswordHash, &t.Role, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	return &t, nil
}

// ListTeachers returns teachers with the given role, password hashes are not loaded
func (r *TeacherRepository) ListTeachers(ctx context.Context, role string) ([]database.Teacher, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, role, created_at
		FROM teachers
		WHERE role = $1
		ORDER BY id
	`, role)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	defer rows.Close()

	var teachers []database.Teacher
	for rows.Next() {
		var t database.Teacher
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.Role, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan teacher: %w", err)
		}
		teachers = append(teachers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teachers: %w", err)
	}
	return teachers, nil
}

// CreateTeacher inserts a teacher, returns database.ErrDuplicate if the identifier is taken
func (r *TeacherRepository) CreateTeacher(ctx context.Context, t *database.Teacher) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO teachers (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
	`, t.ID, t.Name, t.Email, t.PasswordHash, t.Role)
	if isUniqueViolation(err) {
		return database.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}
