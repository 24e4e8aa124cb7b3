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

type studentDoc struct {
	StudentID    string      `bson:"student_id"`
	Name         string      `bson:"name"`
	Section      string      `bson:"section"`
	Encodings    [][]float64 `bson:"encodings,omitempty"`
	RegisteredBy string      `bson:"registered_by"`
	RegisteredOn time.Time   `bson:"registered_on"`
	// Populated by the aggregation in ListStudents only.
	EncodingCount int `bson:"encoding_count,omitempty"`
}

func (d *studentDoc) toStudent() database.Student {
	encs := make([]database.Encoding, len(d.Encodings))
	for i, e := range d.Encodings {
		encs[i] = database.Encoding(e)
	}
	return database.Student{
		ID:           d.StudentID,
		Name:         d.Name,
		Section:      d.Section,
		Encodings:    encs,
		RegisteredBy: d.RegisteredBy,
		RegisteredOn: d.RegisteredOn,
	}
}

// StudentRepository stores students and their encodings in one document each
type StudentRepository struct {
	coll *mongo.Collection
}

// GetStudent retrieves a student with encodings, returns nil if not found
func (r *StudentRepository) GetStudent(ctx context.Context, id string) (*database.Student, error) {
	var doc studentDoc
	err := r.coll.FindOne(ctx, bson.M{"student_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}
	s := doc.toStudent()
	return &s, nil
}

// HasStudent checks if a student identifier is registered
func (r *StudentRepository) HasStudent(ctx context.Context, id string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"student_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check student: %w", err)
	}
	return n > 0, nil
}

// ListStudents returns all students without encodings
func (r *StudentRepository) ListStudents(ctx context.Context) ([]database.StudentSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "student_id", Value: 1}}}},
		{{Key: "$project", Value: bson.D{
			{Key: "student_id", Value: 1},
			{Key: "name", Value: 1},
			{Key: "section", Value: 1},
			{Key: "registered_by", Value: 1},
			{Key: "registered_on", Value: 1},
			{Key: "encoding_count", Value: bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$encodings", bson.A{}}}}}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	var docs []studentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode students: %w", err)
	}

	out := make([]database.StudentSummary, len(docs))
	for i, d := range docs {
		out[i] = database.StudentSummary{
			ID:            d.StudentID,
			Name:          d.Name,
			Section:       d.Section,
			RegisteredBy:  d.RegisteredBy,
			RegisteredOn:  d.RegisteredOn,
			EncodingCount: d.EncodingCount,
		}
	}
	return out, nil
}

// ListWithEncodings returns every student including encodings
func (r *StudentRepository) ListWithEncodings(ctx context.Context) ([]database.Student, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "student_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list encodings: %w", err)
	}
	var docs []studentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode students: %w", err)
	}

	out := make([]database.Student, len(docs))
	for i := range docs {
		out[i] = docs[i].toStudent()
	}
	return out, nil
}

// CountEncodings returns the total number of stored encodings
func (r *StudentRepository) CountEncodings(ctx context.Context) (int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$size", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$encodings", bson.A{}}}}}}}}},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("count encodings: %w", err)
	}
	var result []struct {
		Total int `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, fmt.Errorf("decode encoding count: %w", err)
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].Total, nil
}

// CreateStudent inserts a student document, returns database.ErrDuplicate if the identifier is taken
func (r *StudentRepository) CreateStudent(ctx context.Context, s *database.Student) error {
	encs := make([][]float64, len(s.Encodings))
	for i, e := range s.Encodings {
		encs[i] = []float64(e)
	}
	_, err := r.coll.InsertOne(ctx, studentDoc{
		StudentID:    s.ID,
		Name:         s.Name,
		Section:      s.Section,
		Encodings:    encs,
		RegisteredBy: s.RegisteredBy,
		RegisteredOn: s.RegisteredOn,
	})
	if mongo.IsDuplicateKeyError(err) {
		return database.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}
