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

type teacherDoc struct {
	TeacherID string    `bson:"teacher_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password,omitempty"` // bcrypt hash
	Role      string    `bson:"role"`
	CreatedAt time.Time `bson:"created_at,omitempty"`
}

func (d *teacherDoc) toTeacher() database.Teacher {
	return database.Teacher{
		ID:           d.TeacherID,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         d.Role,
		CreatedAt:    d.CreatedAt,
	}
}

// TeacherRepository stores teachers in the teachers collection
type TeacherRepository struct {
	coll *mongo.Collection
}

// GetTeacher retrieves a teacher by identifier, returns nil if not found
func (r *TeacherRepository) GetTeacher(ctx context.Context, id string) (*database.Teacher, error) {
	var doc teacherDoc
	err := r.coll.FindOne(ctx, bson.M{"teacher_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get teacher: %w", err)
	}
	t := doc.toTeacher()
	return &t, nil
}

// ListTeachers returns teachers with the given role without password hashes
func (r *TeacherRepository) ListTeachers(ctx context.Context, role string) ([]database.Teacher, error) {
	opts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.D{{Key: "teacher_id", Value: 1}})

	cursor, err := r.coll.Find(ctx, bson.M{"role": role}, opts)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	var docs []teacherDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode teachers: %w", err)
	}

	teachers := make([]database.Teacher, len(docs))
	for i := range docs {
		teachers[i] = docs[i].toTeacher()
	}
	return teachers, nil
}

// CreateTeacher inserts a teacher, returns database.ErrDuplicate if the identifier is taken
func (r *TeacherRepository) CreateTeacher(ctx context.Context, t *database.Teacher) error {
	createdAt := t.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.coll.InsertOne(ctx, teacherDoc{
		TeacherID: t.ID,
		Name:      t.Name,
		Email:     t.Email,
		Password:  t.PasswordHash,
		Role:      t.Role,
		CreatedAt: createdAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return database.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}
