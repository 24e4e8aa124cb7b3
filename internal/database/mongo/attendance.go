package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/facerecognx/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type attendanceDoc struct {
	StudentID     string    `bson:"student_id"`
	Name          string    `bson:"name"`
	Date          string    `bson:"date"`
	Time          string    `bson:"time"`
	FullTimestamp time.Time `bson:"full_timestamp"`
	MarkedBy      string    `bson:"marked_by"`
}

func (d *attendanceDoc) toRecord() database.AttendanceRecord {
	return database.AttendanceRecord{
		StudentID:     d.StudentID,
		Name:          d.Name,
		Date:          d.Date,
		Time:          d.Time,
		FullTimestamp: d.FullTimestamp,
		MarkedBy:      d.MarkedBy,
	}
}

// AttendanceRepository stores records in web_attendance with a unique (student_id, date) index
type AttendanceRepository struct {
	coll *mongo.Collection
}

// ListByDate returns all records for a date ordered by full timestamp
func (r *AttendanceRepository) ListByDate(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"date": date},
		options.Find().SetSort(bson.D{{Key: "full_timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	var docs []attendanceDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode attendance: %w", err)
	}

	out := make([]database.AttendanceRecord, len(docs))
	for i := range docs {
		out[i] = docs[i].toRecord()
	}
	return out, nil
}

// GetAttendance retrieves the record for a student on a date, returns nil if not found
func (r *AttendanceRepository) GetAttendance(ctx context.Context, studentID, date string) (*database.AttendanceRecord, error) {
	var doc attendanceDoc
	err := r.coll.FindOne(ctx, bson.M{"student_id": studentID, "date": date}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	rec := doc.toRecord()
	return &rec, nil
}

// MarkAttendance inserts the record; the unique index turns a second insert
// for the same (student_id, date) into a duplicate key error.
func (r *AttendanceRepository) MarkAttendance(ctx context.Context, rec *database.AttendanceRecord) (bool, error) {
	if err := rec.Validate(); err != nil {
		return false, err
	}
	_, err := r.coll.InsertOne(ctx, attendanceDoc{
		StudentID:     rec.StudentID,
		Name:          rec.Name,
		Date:          rec.Date,
		Time:          rec.Time,
		FullTimestamp: rec.FullTimestamp,
		MarkedBy:      rec.MarkedBy,
	})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mark attendance: %w", err)
	}
	return true, nil
}
