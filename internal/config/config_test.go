package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_PORT", "")
	t.Setenv("EMBED_WORKERS", "")
	t.Setenv("RECOMMEND_DEADLINE_MS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "8080" {
		t.Fatalf("expected default api port 8080, got %q", cfg.APIPort)
	}
	if cfg.EmbedWorkers != 8 {
		t.Fatalf("expected default embed workers 8, got %d", cfg.EmbedWorkers)
	}
	if cfg.RecommendDeadlineMS != 2000 {
		t.Fatalf("expected default recommend deadline 2000, got %d", cfg.RecommendDeadlineMS)
	}
	if cfg.NATSSubject != "embeddings.jobs" {
		t.Fatalf("expected default subject embeddings.jobs, got %q", cfg.NATSSubject)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_PORT", "9999")
	t.Setenv("EMBED_WORKERS", "3")
	t.Setenv("API_RATE_LIMIT_RPS", "12")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "9999" {
		t.Fatalf("expected api port override, got %q", cfg.APIPort)
	}
	if cfg.EmbedWorkers != 3 {
		t.Fatalf("expected embed workers 3, got %d", cfg.EmbedWorkers)
	}
	if cfg.APIRateLimitRPS != 12 {
		t.Fatalf("expected rate limit 12, got %d", cfg.APIRateLimitRPS)
	}
}

func TestLoadYAMLOverlayThenEnvWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("api_port: \"7777\"\nembed_workers: 2\nlog_level: debug\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "6666")
	t.Setenv("EMBED_WORKERS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "6666" {
		t.Fatalf("expected env to win over yaml, got %q", cfg.APIPort)
	}
	if cfg.EmbedWorkers != 2 {
		t.Fatalf("expected yaml embed workers 2, got %d", cfg.EmbedWorkers)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected yaml log level debug, got %q", cfg.LogLevel)
	}
}

func TestLoadMalformedIntEnvFails(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("EMBED_WORKERS", "lots")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for malformed EMBED_WORKERS")
	}
	if !strings.Contains(err.Error(), "EMBED_WORKERS") {
		t.Fatalf("error should name the offending variable, got %v", err)
	}
}

func TestLoadMissingConfigFileFails(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
