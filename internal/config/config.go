package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/botswana-harvard/edc-configuration/internal/convert"
)

// MemoryDatabaseURL selects the in-memory store instead of PostgreSQL.
const MemoryDatabaseURL = "memory://"

type Config struct {
	DatabaseURL string // EDC_DATABASE_URL (required; "memory://" = in-memory store)
	GRPCAddr    string // EDC_GRPC_ADDR (default ":9090")
	HTTPAddr    string // EDC_HTTP_ADDR (default ":8080")
	NATSURL     string // EDC_NATS_URL (optional, empty = no events)
	AuthToken   string // EDC_AUTH_TOKEN (optional, empty = auth disabled)
	AppConfig   string // EDC_APP_CONFIG (optional TOML deployment file)

	Time     TimeSettings
	LogLevel slog.Level // EDC_LOG_LEVEL (default "info")

	// Sync settings
	SyncInterval   time.Duration // EDC_SYNC_INTERVAL (default 0 = disabled)
	SyncS3Bucket   string        // EDC_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // EDC_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // EDC_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // EDC_SYNC_S3_KEY (default "edc/configuration.jsonl")
	SyncGitRepo    string        // EDC_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // EDC_SYNC_GIT_FILE (default "configuration.jsonl")
	SyncGitBranch  string        // EDC_SYNC_GIT_BRANCH (default "main")
}

// TimeSettings is the deployment's datetime policy.
type TimeSettings struct {
	UseTZ    bool           // EDC_USE_TZ (default true)
	Location *time.Location // EDC_TIME_ZONE (default "UTC")
}

// Codec returns a value codec following the datetime policy.
func (ts TimeSettings) Codec() *convert.Codec {
	if ts.UseTZ {
		return convert.New(convert.WithTimeZone(ts.Location))
	}
	return convert.New()
}

// LoadTime reads EDC_USE_TZ and EDC_TIME_ZONE. Commands that never touch the
// database use it on its own.
func LoadTime() (TimeSettings, error) {
	ts := TimeSettings{UseTZ: true, Location: time.UTC}
	if v := os.Getenv("EDC_USE_TZ"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ts, fmt.Errorf("EDC_USE_TZ: %w", err)
		}
		ts.UseTZ = b
	}
	loc, err := time.LoadLocation(envOrDefault("EDC_TIME_ZONE", "UTC"))
	if err != nil {
		return ts, fmt.Errorf("EDC_TIME_ZONE: %w", err)
	}
	ts.Location = loc
	return ts, nil
}

// LoadLogLevel reads EDC_LOG_LEVEL.
func LoadLogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(envOrDefault("EDC_LOG_LEVEL", "info"))); err != nil {
		return slog.LevelInfo, fmt.Errorf("EDC_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("EDC_DATABASE_URL"),
		GRPCAddr:       envOrDefault("EDC_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("EDC_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("EDC_NATS_URL"),
		AuthToken:      os.Getenv("EDC_AUTH_TOKEN"),
		AppConfig:      os.Getenv("EDC_APP_CONFIG"),
		SyncS3Bucket:   os.Getenv("EDC_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("EDC_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("EDC_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("EDC_SYNC_S3_KEY", "edc/configuration.jsonl"),
		SyncGitRepo:    os.Getenv("EDC_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("EDC_SYNC_GIT_FILE", "configuration.jsonl"),
		SyncGitBranch:  envOrDefault("EDC_SYNC_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("EDC_DATABASE_URL is required")
	}

	var err error
	if c.Time, err = LoadTime(); err != nil {
		return nil, err
	}
	if c.LogLevel, err = LoadLogLevel(); err != nil {
		return nil, err
	}

	d, err := time.ParseDuration(envOrDefault("EDC_SYNC_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("EDC_SYNC_INTERVAL: %w", err)
	}
	if d < 0 {
		return nil, fmt.Errorf("EDC_SYNC_INTERVAL: must not be negative")
	}
	c.SyncInterval = d

	return c, nil
}

// InMemory reports whether the in-memory store was selected.
func (c *Config) InMemory() bool {
	return c.DatabaseURL == MemoryDatabaseURL
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
