// Package mongo stores teachers, students and attendance in MongoDB using the
// document layout of the facerecognx database (teachers, students, web_attendance).
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names
const (
	teachersCollection   = "teachers"
	studentsCollection   = "students"
	attendanceCollection = "web_attendance"
)

// Client wraps a connected MongoDB client and the application database.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to MongoDB and ensures the unique indexes exist.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*Client, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	opts := options.Client().
		ApplyURI(cfg.URL).
		SetMaxPoolSize(uint64(cfg.MaxOpenConns)).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	c := &Client{client: client, db: client.Database(cfg.MongoDatabase)}
	if err := c.EnsureIndexes(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// EnsureIndexes creates the unique indexes the repositories rely on.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{teachersCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "teacher_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{studentsCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "student_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{attendanceCollection, mongo.IndexModel{
			Keys:    bson.D{{Key: "student_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{attendanceCollection, mongo.IndexModel{
			Keys: bson.D{{Key: "date", Value: 1}, {Key: "full_timestamp", Value: 1}},
		}},
	}

	for _, idx := range indexes {
		if _, err := c.db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.collection, err)
		}
	}
	return nil
}

// Ping checks the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongodb: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (c *Client) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	return nil
}

// NewStore assembles the repositories backed by c.
func NewStore(c *Client) *database.Store {
	return &database.Store{
		Teachers:   &TeacherRepository{coll: c.db.Collection(teachersCollection)},
		Students:   &StudentRepository{coll: c.db.Collection(studentsCollection)},
		Attendance: &AttendanceRepository{coll: c.db.Collection(attendanceCollection)},
		Ping:       c.Ping,
		Close:      c.Close,
	}
}
