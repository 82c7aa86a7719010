package config

import (
	"testing"
	"time"
)

var allEnvVars = []string{
	"TASKDEPS_DATABASE_URL", "TASKDEPS_GRPC_ADDR", "TASKDEPS_HTTP_ADDR",
	"TASKDEPS_NATS_URL", "TASKDEPS_METRICS",
	"TASKDEPS_SYNC_INTERVAL", "TASKDEPS_SYNC_S3_BUCKET", "TASKDEPS_SYNC_S3_ENDPOINT",
	"TASKDEPS_SYNC_S3_REGION", "TASKDEPS_SYNC_S3_KEY", "TASKDEPS_SYNC_GIT_REPO",
	"TASKDEPS_SYNC_GIT_FILE", "TASKDEPS_SYNC_GIT_BRANCH",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantGRPCAddr string
		wantHTTPAddr string
		wantNATSURL  string
		wantMetrics  bool
	}{
		{
			name:    "MissingDatabaseURL",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:         "Defaults",
			env:          map[string]string{"TASKDEPS_DATABASE_URL": "postgres://localhost/tasks"},
			wantGRPCAddr: ":9090",
			wantHTTPAddr: ":8080",
			wantMetrics:  true,
		},
		{
			name: "Custom",
			env: map[string]string{
				"TASKDEPS_DATABASE_URL": "postgres://db:5432/tasks",
				"TASKDEPS_GRPC_ADDR":    ":5050",
				"TASKDEPS_HTTP_ADDR":    ":3000",
				"TASKDEPS_NATS_URL":     "nats://localhost:4222",
				"TASKDEPS_METRICS":      "false",
			},
			wantGRPCAddr: ":5050",
			wantHTTPAddr: ":3000",
			wantNATSURL:  "nats://localhost:4222",
		},
		{
			name: "BadMetricsFlag",
			env: map[string]string{
				"TASKDEPS_DATABASE_URL": "postgres://localhost/tasks",
				"TASKDEPS_METRICS":      "sometimes",
			},
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.GRPCAddr != tc.wantGRPCAddr {
				t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, tc.wantGRPCAddr)
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
			if cfg.Metrics != tc.wantMetrics {
				t.Errorf("Metrics = %v, want %v", cfg.Metrics, tc.wantMetrics)
			}
		})
	}
}

func TestLoad_SyncSettings(t *testing.T) {
	for _, tc := range []struct {
		name        string
		env         map[string]string
		wantErr     bool
		wantInt     time.Duration
		wantKey     string
		wantFile    string
		wantEnabled bool
	}{
		{
			name:     "Defaults",
			wantInt:  3 * time.Minute,
			wantKey:  "taskdeps/backup.jsonl",
			wantFile: "tasks.jsonl",
		},
		{
			name:        "S3Enabled",
			env:         map[string]string{"TASKDEPS_SYNC_S3_BUCKET": "backups", "TASKDEPS_SYNC_S3_KEY": "x.jsonl"},
			wantInt:     3 * time.Minute,
			wantKey:     "x.jsonl",
			wantFile:    "tasks.jsonl",
			wantEnabled: true,
		},
		{
			name:     "ZeroIntervalDisables",
			env:      map[string]string{"TASKDEPS_SYNC_INTERVAL": "0s", "TASKDEPS_SYNC_GIT_REPO": "/tmp/repo"},
			wantKey:  "taskdeps/backup.jsonl",
			wantFile: "tasks.jsonl",
		},
		{
			name:    "BadInterval",
			env:     map[string]string{"TASKDEPS_SYNC_INTERVAL": "soon"},
			wantErr: true,
		},
		{
			name:    "NegativeInterval",
			env:     map[string]string{"TASKDEPS_SYNC_INTERVAL": "-1m"},
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			t.Setenv("TASKDEPS_DATABASE_URL", "postgres://localhost/tasks")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.SyncInterval != tc.wantInt {
				t.Errorf("SyncInterval = %v, want %v", cfg.SyncInterval, tc.wantInt)
			}
			if cfg.SyncS3Key != tc.wantKey {
				t.Errorf("SyncS3Key = %q, want %q", cfg.SyncS3Key, tc.wantKey)
			}
			if cfg.SyncGitFile != tc.wantFile {
				t.Errorf("SyncGitFile = %q, want %q", cfg.SyncGitFile, tc.wantFile)
			}
			if cfg.SyncS3Region != "us-east-1" {
				t.Errorf("SyncS3Region = %q, want us-east-1", cfg.SyncS3Region)
			}
			if got := cfg.SyncEnabled(); got != tc.wantEnabled {
				t.Errorf("SyncEnabled() = %v, want %v", got, tc.wantEnabled)
			}
		})
	}
}
