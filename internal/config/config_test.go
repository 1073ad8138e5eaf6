package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKEN_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOKEN_SECRET", "s3cret")
	t.Setenv("DATABASE_URL", "postgres://localhost/rse")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("PROGRESS_TTL", "1h")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/rse" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v", cfg.LogLevel)
	}
	if cfg.ProgressTTL != time.Hour {
		t.Errorf("ProgressTTL = %v", cfg.ProgressTTL)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestLoadRequiresTokenSecret(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Setenv("TOKEN_SECRET", "")
	os.Unsetenv("TOKEN_SECRET")
	if _, err := Load(); err == nil {
		t.Fatal("load succeeded without TOKEN_SECRET")
	}

	t.Setenv("TOKEN_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("load succeeded with an empty TOKEN_SECRET")
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("TOKEN_SECRET", "")
	os.Unsetenv("TOKEN_SECRET")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TOKEN_SECRET=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("TOKEN_SECRET") })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TokenSecret != "from-dotenv" {
		t.Errorf("TokenSecret = %q", cfg.TokenSecret)
	}
}
