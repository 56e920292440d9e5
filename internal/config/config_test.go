package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const sampleYAML = `
server:
  port: "9090"
database:
  driver: sqlite
  dsn: file:exam.db
redis:
  addr: localhost:6379
  ttl: 30m
quiz:
  ttl: 5m
auth:
  secret: from-file
  token_ttl: 2h
storage:
  base_path: ./data
  public_url: /files
cors:
  origins: ["http://localhost:3000"]
log:
  level: debug
  format: json
`

func TestLoadReadsYAMLAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("AUTH_SECRET", "from-env")
	t.Setenv("DATABASE_DSN", "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Database.Driver != "sqlite" || cfg.Database.DSN != "file:exam.db" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Auth.Secret != "from-env" {
		t.Fatalf("expected env secret to win, got %q", cfg.Auth.Secret)
	}
	if cfg.Auth.Issuer != "exam-service" {
		t.Fatalf("expected default issuer, got %q", cfg.Auth.Issuer)
	}
	if len(cfg.CORS.Origins) != 1 || cfg.Log.Format != "json" {
		t.Fatalf("unexpected cors/log %+v %+v", cfg.CORS, cfg.Log)
	}
	if got := TTLDuration(cfg.Auth.TokenTTL, time.Hour); got != 2*time.Hour {
		t.Fatalf("expected 2h token ttl, got %v", got)
	}
}

func TestLoadDefaultsDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: \"8080\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "memory" {
		t.Fatalf("expected memory driver by default, got %q", cfg.Database.Driver)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %v", got)
	}
	if got := TTLDuration("soon", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback on bad input, got %v", got)
	}
}

func TestWithContextAddsRequestID(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	entry := WithContext(ctx)
	if entry.Data["request_id"] != "req-42" {
		t.Fatalf("expected request id field, got %v", entry.Data)
	}
	if _, ok := WithContext(context.Background()).Data["request_id"]; ok {
		t.Fatalf("unexpected request id without middleware")
	}
}
