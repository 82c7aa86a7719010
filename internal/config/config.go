package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string // TASKDEPS_DATABASE_URL (required)
	GRPCAddr    string // TASKDEPS_GRPC_ADDR (default ":9090")
	HTTPAddr    string // TASKDEPS_HTTP_ADDR (default ":8080")
	NATSURL     string // TASKDEPS_NATS_URL (optional, empty = no events)
	Metrics     bool   // TASKDEPS_METRICS (default true; serves /metrics)

	// Sync settings
	SyncInterval   time.Duration // TASKDEPS_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // TASKDEPS_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // TASKDEPS_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // TASKDEPS_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // TASKDEPS_SYNC_S3_KEY (default "taskdeps/backup.jsonl")
	SyncGitRepo    string        // TASKDEPS_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // TASKDEPS_SYNC_GIT_FILE (default "tasks.jsonl")
	SyncGitBranch  string        // TASKDEPS_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("TASKDEPS_DATABASE_URL"),
		GRPCAddr:       envOrDefault("TASKDEPS_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("TASKDEPS_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("TASKDEPS_NATS_URL"),
		SyncS3Bucket:   os.Getenv("TASKDEPS_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("TASKDEPS_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("TASKDEPS_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("TASKDEPS_SYNC_S3_KEY", "taskdeps/backup.jsonl"),
		SyncGitRepo:    os.Getenv("TASKDEPS_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("TASKDEPS_SYNC_GIT_FILE", "tasks.jsonl"),
		SyncGitBranch:  envOrDefault("TASKDEPS_SYNC_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("TASKDEPS_DATABASE_URL is required")
	}

	metrics, err := strconv.ParseBool(envOrDefault("TASKDEPS_METRICS", "true"))
	if err != nil {
		return nil, fmt.Errorf("TASKDEPS_METRICS: %w", err)
	}
	c.Metrics = metrics

	d, err := time.ParseDuration(envOrDefault("TASKDEPS_SYNC_INTERVAL", "3m"))
	if err != nil {
		return nil, fmt.Errorf("TASKDEPS_SYNC_INTERVAL: %w", err)
	}
	if d < 0 {
		return nil, fmt.Errorf("TASKDEPS_SYNC_INTERVAL: must not be negative, got %s", d)
	}
	c.SyncInterval = d

	return c, nil
}

// SyncEnabled reports whether any backup destination is configured.
func (c *Config) SyncEnabled() bool {
	return c.SyncInterval > 0 && (c.SyncS3Bucket != "" || c.SyncGitRepo != "")
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
