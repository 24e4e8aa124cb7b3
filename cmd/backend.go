package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/facerecognx/internal/config"
	"github.com/kozaktomas/facerecognx/internal/database"
	"github.com/kozaktomas/facerecognx/internal/database/mongo"
	"github.com/kozaktomas/facerecognx/internal/database/postgres"
	"github.com/kozaktomas/facerecognx/internal/database/redis"
	"github.com/kozaktomas/facerecognx/internal/web/middleware"
)

// openStore connects to the database named by DATABASE_URL and prepares its schema.
// The pool is returned for PostgreSQL so sessions can share it; it is nil for MongoDB.
func openStore(ctx context.Context, cfg *config.Config) (*database.Store, *postgres.Pool, error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("DATABASE_URL environment variable is required")
	}

	if cfg.Database.IsMongo() {
		fmt.Println("Connecting to MongoDB...")
		client, err := mongo.Open(ctx, &cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize MongoDB: %w", err)
		}
		return mongo.NewStore(client), nil, nil
	}

	fmt.Println("Connecting to PostgreSQL...")
	pool, err := postgres.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return postgres.NewStore(pool), pool, nil
}

// openSessionRepository prefers Redis, then the PostgreSQL pool, and otherwise keeps sessions in memory.
// The returned close function is never nil.
func openSessionRepository(ctx context.Context, cfg *config.Config, pool *postgres.Pool) (middleware.SessionRepository, func() error, error) {
	noop := func() error { return nil }

	if cfg.Redis.Addr != "" {
		client, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		fmt.Printf("Session persistence enabled (Redis %s)\n", cfg.Redis.Addr)
		return redis.NewSessionRepository(client), client.Close, nil
	}

	if pool != nil {
		fmt.Println("Session persistence enabled (PostgreSQL)")
		return postgres.NewSessionRepository(pool), noop, nil
	}

	fmt.Println("Sessions are kept in memory")
	return nil, noop, nil
}
