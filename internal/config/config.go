// Package config loads all application configuration from the
// environment, once, at startup.
//
// FAIL FAST:
// Every required variable is checked here and ALL missing ones are
// reported in a single error, so a misconfigured deployment fails on
// boot with a complete list instead of failing lazily per-request. The
// token secrets in particular must never be defaulted — a process
// without them refuses to start rather than run insecurely.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the immutable process-wide configuration.
type Config struct {
	// Server
	Port          int
	AllowedOrigin string
	Production    bool // drives the Secure flag on session cookies

	// Database
	DBPath string

	// Token secrets (two independent secrets, see internal/auth)
	AccessTokenSecret  string
	RefreshTokenSecret string

	// Media store (S3-compatible)
	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3Endpoint     string // optional: MinIO / R2 / localstack
	S3UsePathStyle bool   // optional: required by most non-AWS endpoints
	MediaBaseURL   string // optional: public URL prefix override (e.g. a CDN)
}

// Load reads the configuration from environment variables.
// Returns an error naming every missing required variable.
func Load() (*Config, error) {
	cfg := &Config{}

	var missing []string
	require := func(key string) string {
		v := os.Getenv(key)
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg.DBPath = require("DB_PATH")
	cfg.AccessTokenSecret = require("ACCESS_TOKEN_SECRET")
	cfg.RefreshTokenSecret = require("REFRESH_TOKEN_SECRET")
	cfg.S3Bucket = require("S3_BUCKET")
	cfg.S3Region = require("S3_REGION")
	cfg.S3AccessKey = require("S3_ACCESS_KEY")
	cfg.S3SecretKey = require("S3_SECRET_KEY")

	if len(missing) > 0 {
		return nil, fmt.Errorf("config: missing required environment variables: %s",
			strings.Join(missing, ", "))
	}

	// Optional, with defaults
	cfg.Port = 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT value %q", portStr)
		}
		cfg.Port = port
	}

	cfg.AllowedOrigin = os.Getenv("ALLOWED_ORIGIN")
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "http://localhost:3000"
	}

	cfg.Production = os.Getenv("ENV") == "production"
	cfg.S3Endpoint = os.Getenv("S3_ENDPOINT")
	cfg.S3UsePathStyle = os.Getenv("S3_USE_PATH_STYLE") == "true"
	cfg.MediaBaseURL = os.Getenv("MEDIA_BASE_URL")

	return cfg, nil
}
