// Package auth holds teacher credential handling and the admin bootstrap.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown teacher or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword returns a bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Authenticate looks up a teacher and verifies the password.
func Authenticate(ctx context.Context, teachers database.TeacherReader, id, password string) (*database.Teacher, error) {
	if id == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	teacher, err := teachers.GetTeacher(ctx, id)
	if err != nil {
		return nil, err
	}
	if teacher == nil || !CheckPassword(teacher.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return teacher, nil
}

// RegisterTeacher creates a teacher account with the teacher role.
// database.ErrDuplicate is returned when the identifier is taken.
func RegisterTeacher(ctx context.Context, teachers database.TeacherWriter, id, name, email, password string) (*database.Teacher, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	t := &database.Teacher{
		ID:           id,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         constants.RoleTeacher,
		CreatedAt:    time.Now(),
	}
	if err := teachers.CreateTeacher(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// EnsureAdmin creates the admin account if it does not exist yet.
// It is safe to call on every start and from several processes.
func EnsureAdmin(ctx context.Context, teachers database.TeacherWriter, cfg config.AdminConfig) error {
	existing, err := teachers.GetTeacher(ctx, cfg.ID)
	if err != nil {
		return fmt.Errorf("look up admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	admin := &database.Teacher{
		ID:           cfg.ID,
		Name:         cfg.Name,
		Email:        cfg.Email,
		PasswordHash: hash,
		Role:         constants.RoleAdmin,
		CreatedAt:    time.Now(),
	}
	if err := teachers.CreateTeacher(ctx, admin); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}
	slog.Info("admin account created", "admin_id", cfg.ID)
	return nil
}
