package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Chat history backends.
const (
	HistoryMemory = "memory"
	HistoryNATS   = "nats"
)

type Config struct {
	DatabaseURL string   // DEVSIM_DATABASE_URL (required)
	GRPCAddr    string   // DEVSIM_GRPC_ADDR (default ":9090")
	HTTPAddr    string   // DEVSIM_HTTP_ADDR (default ":5000")
	NATSURL     string   // DEVSIM_NATS_URL (optional, empty = no events)
	CORSOrigins []string // DEVSIM_CORS_ORIGINS (comma separated, default "*")

	// Chat settings
	GenAIAPIKey      string // DEVSIM_GENAI_API_KEY (optional, empty = chat disabled)
	GenAIModel       string // DEVSIM_GENAI_MODEL (default "gemini-2.0-flash")
	ChatHistory      string // DEVSIM_CHAT_HISTORY ("memory" or "nats", default "memory")
	ChatHistoryLimit int    // DEVSIM_CHAT_HISTORY_LIMIT (default 20)

	// Sync settings
	SyncInterval   time.Duration // DEVSIM_SYNC_INTERVAL (default 0 = disabled)
	SyncS3Bucket   string        // DEVSIM_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // DEVSIM_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // DEVSIM_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // DEVSIM_SYNC_S3_KEY (default "devsim/projects.jsonl")
	SyncGitRepo    string        // DEVSIM_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // DEVSIM_SYNC_GIT_FILE (default "projects.jsonl")
	SyncGitBranch  string        // DEVSIM_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("DEVSIM_DATABASE_URL"),
		GRPCAddr:       envOrDefault("DEVSIM_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("DEVSIM_HTTP_ADDR", ":5000"),
		NATSURL:        os.Getenv("DEVSIM_NATS_URL"),
		CORSOrigins:    splitList(envOrDefault("DEVSIM_CORS_ORIGINS", "*")),
		GenAIAPIKey:    os.Getenv("DEVSIM_GENAI_API_KEY"),
		GenAIModel:     envOrDefault("DEVSIM_GENAI_MODEL", "gemini-2.0-flash"),
		ChatHistory:    envOrDefault("DEVSIM_CHAT_HISTORY", HistoryMemory),
		SyncS3Bucket:   os.Getenv("DEVSIM_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("DEVSIM_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("DEVSIM_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("DEVSIM_SYNC_S3_KEY", "devsim/projects.jsonl"),
		SyncGitRepo:    os.Getenv("DEVSIM_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("DEVSIM_SYNC_GIT_FILE", "projects.jsonl"),
		SyncGitBranch:  envOrDefault("DEVSIM_SYNC_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("DEVSIM_DATABASE_URL is required")
	}

	switch c.ChatHistory {
	case HistoryMemory:
	case HistoryNATS:
		if c.NATSURL == "" {
			return nil, fmt.Errorf("DEVSIM_CHAT_HISTORY=nats requires DEVSIM_NATS_URL")
		}
	default:
		return nil, fmt.Errorf("DEVSIM_CHAT_HISTORY: unknown backend %q", c.ChatHistory)
	}

	limit, err := strconv.Atoi(envOrDefault("DEVSIM_CHAT_HISTORY_LIMIT", "20"))
	if err != nil || limit <= 0 {
		return nil, fmt.Errorf("DEVSIM_CHAT_HISTORY_LIMIT: must be a positive integer")
	}
	c.ChatHistoryLimit = limit

	if intervalStr := os.Getenv("DEVSIM_SYNC_INTERVAL"); intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("DEVSIM_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
