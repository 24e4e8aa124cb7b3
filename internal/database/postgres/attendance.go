package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/facerecognx/internal/constants"
	"github.com/kozaktomas/facerecognx/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed attendance records
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

const attendanceColumns = `student_id, name, attendance_date, attendance_time, full_timestamp, marked_by`

func scanAttendance(scan func(dest ...any) error) (database.AttendanceRecord, error) {
	var rec database.AttendanceRecord
	var date time.Time
	if err := scan(&rec.StudentID, &rec.Name, &date, &rec.Time, &rec.FullTimestamp, &rec.MarkedBy); err != nil {
		return rec, err
	}
	rec.Date = date.Format(constants.DateLayout)
	return rec, nil
}

// ListByDate returns all records for a date ordered by full timestamp
func (r *AttendanceRepository) ListByDate(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance
		WHERE attendance_date = $1
		ORDER BY full_timestamp, id
	`, date)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}

// GetAttendance retrieves the record for a student on a date, returns nil if not found
func (r *AttendanceRepository) GetAttendance(ctx context.Context, studentID, date string) (*database.AttendanceRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+attendanceColumns+`
		FROM attendance
		WHERE student_id = $1 AND attendance_date = $2
	`, studentID, date)
	rec, err := scanAttendance(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	return &rec, nil
}

// MarkAttendance inserts the record unless (student_id, attendance_date) exists.
func (r *AttendanceRepository) MarkAttendance(ctx context.Context, rec *database.AttendanceRecord) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}
	result, err := r.pool.Exec(ctx, `
		INSERT INTO attendance (`+attendanceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (student_id, attendance_date) DO NOTHING
	`, rec.StudentID, rec.Name, rec.Date, rec.Time, rec.FullTimestamp, rec.MarkedBy)
	if err != nil {
		return false, fmt.Errorf("mark attendance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("getting rows affected: %w", err)
	}
	return n == 1, nil
}
