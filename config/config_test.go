package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestProcessConfigDefaults(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		viper.Reset()
		cfg := Config{}
		processConfigDefaults(&cfg)

		if cfg.Addr() != "127.0.0.1:8080" {
			t.Errorf("Expected default address 127.0.0.1:8080, got %s", cfg.Addr())
		}
		if cfg.CurseAPIURL != DefaultCurseAPIURL {
			t.Errorf("Expected CurseAPIURL to be %s, got %s", DefaultCurseAPIURL, cfg.CurseAPIURL)
		}
		if cfg.UserAgent == "" {
			t.Error("Expected UserAgent to have a default value")
		}
		if cfg.CacheTTL != 48*time.Hour {
			t.Errorf("Expected CacheTTL to be 48h, got %s", cfg.CacheTTL)
		}
		if cfg.ResolveWorkers != 8 {
			t.Errorf("Expected ResolveWorkers to be 8, got %d", cfg.ResolveWorkers)
		}
	})

	t.Run("respects existing values", func(t *testing.T) {
		viper.Reset()
		cfg := Config{
			EditorPort: 9000,
			UserAgent:  "custom-agent",
			CachePath:  "/tmp/other.db",
			CacheTTL:   time.Hour,
		}
		processConfigDefaults(&cfg)

		if cfg.EditorPort != 9000 {
			t.Errorf("Expected EditorPort to stay 9000, got %d", cfg.EditorPort)
		}
		if cfg.UserAgent != "custom-agent" {
			t.Errorf("Expected UserAgent to stay custom-agent, got %s", cfg.UserAgent)
		}
		if cfg.CachePath != "/tmp/other.db" {
			t.Errorf("Expected CachePath to stay /tmp/other.db, got %s", cfg.CachePath)
		}
		if cfg.CacheTTL != time.Hour {
			t.Errorf("Expected CacheTTL to stay 1h, got %s", cfg.CacheTTL)
		}
	})
}

func TestValidateAndEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("invalid port", func(t *testing.T) {
		cfg := Config{EditorPort: 70000, ResolveWorkers: 1, CachePath: "x.db"}
		if err := validateAndEnsureDirectories(&cfg); err == nil {
			t.Error("Expected error for out of range port")
		}
	})

	t.Run("invalid workers", func(t *testing.T) {
		cfg := Config{EditorPort: 8080, ResolveWorkers: -1, CachePath: "x.db"}
		if err := validateAndEnsureDirectories(&cfg); err == nil {
			t.Error("Expected error for negative worker count")
		}
	})

	t.Run("missing cache path", func(t *testing.T) {
		cfg := Config{EditorPort: 8080, ResolveWorkers: 1}
		if err := validateAndEnsureDirectories(&cfg); err == nil {
			t.Error("Expected error for missing CachePath")
		}
	})

	t.Run("disabled cache needs no path", func(t *testing.T) {
		cfg := Config{EditorPort: 8080, ResolveWorkers: 1, CacheDisabled: true}
		if err := validateAndEnsureDirectories(&cfg); err != nil {
			t.Errorf("Unexpected error: %v", err)
		}
	})

	t.Run("creates cache directory", func(t *testing.T) {
		cacheDir := filepath.Join(tmpDir, "state", "editor")
		cfg := Config{EditorPort: 8080, ResolveWorkers: 1, CachePath: filepath.Join(cacheDir, "cache.db")}
		if err := validateAndEnsureDirectories(&cfg); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
			t.Errorf("Directory %s was not created", cacheDir)
		}
	})
}

func TestLoadConfigFromEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	t.Setenv("EDITOR_PORT", "9123")
	t.Setenv("CACHE_TTL", "2h")
	t.Setenv("CACHE_PATH", filepath.Join(dir, "cache.db"))

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.EditorPort != 9123 {
		t.Errorf("Expected EditorPort 9123, got %d", cfg.EditorPort)
	}
	if cfg.CacheTTL != 2*time.Hour {
		t.Errorf("Expected CacheTTL 2h, got %s", cfg.CacheTTL)
	}
	if cfg.EditorIP != DefaultEditorIP {
		t.Errorf("Expected default EditorIP, got %s", cfg.EditorIP)
	}
}
