package config

import (
	"strings"
	"testing"
)

// setRequired sets every required variable to a placeholder value.
// t.Setenv automatically restores the previous values after the test.
func setRequired(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DB_PATH", "ACCESS_TOKEN_SECRET", "REFRESH_TOKEN_SECRET",
		"S3_BUCKET", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY",
	} {
		t.Setenv(key, "test-"+key)
	}
	// Clear optional vars so defaults are exercised
	for _, key := range []string{"PORT", "ALLOWED_ORIGIN", "ENV", "S3_ENDPOINT", "MEDIA_BASE_URL"} {
		t.Setenv(key, "")
	}
}

func TestLoad_AllRequiredPresent(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DBPath != "test-DB_PATH" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port default = %d, want 8080", cfg.Port)
	}
	if cfg.AllowedOrigin != "http://localhost:3000" {
		t.Errorf("AllowedOrigin default = %q", cfg.AllowedOrigin)
	}
	if cfg.Production {
		t.Error("Production should default to false")
	}
}

func TestLoad_ReportsEveryMissingVariable(t *testing.T) {
	setRequired(t)
	t.Setenv("ACCESS_TOKEN_SECRET", "")
	t.Setenv("S3_BUCKET", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail when required variables are missing")
	}
	for _, want := range []string{"ACCESS_TOKEN_SECRET", "S3_BUCKET"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should name %s", err, want)
		}
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "not-a-number")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a non-numeric PORT")
	}
}

func TestLoad_ProductionFlag(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Production {
		t.Error("ENV=production should set Production")
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
}
