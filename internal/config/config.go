package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Database    DatabaseConfig
	Redis       RedisConfig
	FaceService FaceServiceConfig
	Recognition RecognitionConfig
	Admin       AdminConfig
	Web         WebConfig
	TimeZone    string // IANA zone used for the attendance calendar date (default Local)
}

type DatabaseConfig struct {
	URL           string // postgres://... or mongodb://...
	MaxOpenConns  int    // Maximum open connections (default 25)
	MaxIdleConns  int    // Maximum idle connections (default 5)
	MongoDatabase string // Database name when URL is a MongoDB URI (default facerecognx)
}

// IsMongo reports whether the database URL points at a MongoDB deployment.
func (c *DatabaseConfig) IsMongo() bool {
	return strings.HasPrefix(c.URL, "mongodb://") || strings.HasPrefix(c.URL, "mongodb+srv://")
}

type RedisConfig struct {
	Addr     string // host:port, empty disables the redis session store
	Password string
	DB       int
}

type FaceServiceConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type RecognitionConfig struct {
	MatchThreshold float64 `yaml:"match_threshold"` // strict upper bound on Euclidean distance
	MinEncodings   int     `yaml:"min_encodings"`   // single-face images required to enroll
	Index          string  `yaml:"index"`           // linear or hnsw
	MaxImageSize   int     `yaml:"max_image_size"`  // longest edge sent to the face service
	EnrollWorkers  int     `yaml:"enroll_workers"`
}

type AdminConfig struct {
	ID       string `yaml:"id"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
}

type WebConfig struct {
	Host           string
	Port           int
	SessionSecret  string
	AllowedOrigins []string // extra CORS origins, localhost is always allowed
}

type defaults struct {
	Recognition RecognitionConfig `yaml:"recognition"`
	FaceService FaceServiceConfig `yaml:"face_service"`
	Admin       AdminConfig       `yaml:"admin"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a positive float, falling back to defaultVal.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func Load() *Config {
	var d defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			MaxOpenConns:  envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  envInt("DATABASE_MAX_IDLE_CONNS", 5),
			MongoDatabase: envString("MONGO_DATABASE", "facerecognx"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       envInt("REDIS_DB", 0),
		},
		FaceService: FaceServiceConfig{
			URL:     envString("FACE_SERVICE_URL", d.FaceService.URL),
			Timeout: envDuration("FACE_SERVICE_TIMEOUT", d.FaceService.Timeout),
		},
		Recognition: RecognitionConfig{
			MatchThreshold: envFloat("MATCH_THRESHOLD", d.Recognition.MatchThreshold),
			MinEncodings:   envInt("MIN_ENCODINGS", d.Recognition.MinEncodings),
			Index:          strings.ToLower(envString("MATCH_INDEX", d.Recognition.Index)),
			MaxImageSize:   envInt("MAX_IMAGE_SIZE", d.Recognition.MaxImageSize),
			EnrollWorkers:  envInt("ENROLL_WORKERS", d.Recognition.EnrollWorkers),
		},
		Admin: AdminConfig{
			ID:       envString("ADMIN_ID", d.Admin.ID),
			Password: envString("ADMIN_PASSWORD", d.Admin.Password),
			Name:     envString("ADMIN_NAME", d.Admin.Name),
			Email:    envString("ADMIN_EMAIL", d.Admin.Email),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", "0.0.0.0"),
			Port:           envInt("WEB_PORT", 8080),
			SessionSecret:  os.Getenv("WEB_SESSION_SECRET"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		TimeZone: os.Getenv("APP_TIMEZONE"),
	}
}

// Location resolves TimeZone, falling back to the local zone when unset or unknown.
func (c *Config) Location() *time.Location {
	if c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
