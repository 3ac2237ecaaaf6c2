package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultEditorIP       = "127.0.0.1"
	DefaultEditorPort     = 8080
	DefaultCurseAPIURL    = "https://curse.nikky.moe"
	DefaultUserAgent      = "comp500/modpack-editor client"
	DefaultCachePath      = "modpackEditorCache.db"
	DefaultCacheTTL       = 48 * time.Hour
	DefaultResolveWorkers = 8
)

// Config holds all configuration for the application.
// Values are loaded by Viper from a config file and/or environment variables.
type Config struct {
	EditorIP       string        `mapstructure:"EDITOR_IP"`
	EditorPort     int           `mapstructure:"EDITOR_PORT"`
	CurseAPIURL    string        `mapstructure:"CURSE_API_URL"`
	UserAgent      string        `mapstructure:"USERAGENT"`
	CachePath      string        `mapstructure:"CACHE_PATH"`
	CacheDisabled  bool          `mapstructure:"CACHE_DISABLED"`
	CacheTTL       time.Duration `mapstructure:"CACHE_TTL"`
	ResolveWorkers int           `mapstructure:"RESOLVE_WORKERS"`
}

// Addr is the listen address of the HTTP backend.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.EditorIP, c.EditorPort)
}

var envKeys = []string{
	"EDITOR_IP",
	"EDITOR_PORT",
	"CURSE_API_URL",
	"USERAGENT",
	"CACHE_PATH",
	"CACHE_DISABLED",
	"CACHE_TTL",
	"RESOLVE_WORKERS",
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)   // Path to look for the config file in
	viper.SetConfigName(".env") // Name of config file (without extension)
	viper.SetConfigType("env")  // REQUIRED if the config file does not have the extension in the name

	vip_err := viper.ReadInConfig()
	if _, ok := vip_err.(viper.ConfigFileNotFoundError); ok {
		slog.Info("Config file (.env) not found, relying on environment variables.")
	} else if vip_err != nil {
		return Config{}, fmt.Errorf("fatal error config file: %w", vip_err)
	}

	viper.AutomaticEnv()
	for _, key := range envKeys {
		if err := viper.BindEnv(key, key); err != nil {
			slog.Warn("Unable to bind env var", "key", key, "error", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct, %w", err)
	}

	processConfigDefaults(&config)
	if err := validateAndEnsureDirectories(&config); err != nil {
		return Config{}, err
	}
	return config, nil
}

// processConfigDefaults fills in every setting that was left empty.
func processConfigDefaults(config *Config) {
	if config.EditorIP == "" {
		config.EditorIP = DefaultEditorIP
	}
	if config.EditorPort == 0 {
		config.EditorPort = DefaultEditorPort
	}
	if config.CurseAPIURL == "" {
		config.CurseAPIURL = DefaultCurseAPIURL
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
		slog.Info("USERAGENT not set, using default", "useragent", config.UserAgent)
	}
	if config.CachePath == "" {
		config.CachePath = DefaultCachePath
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultCacheTTL
	}
	if config.ResolveWorkers == 0 {
		config.ResolveWorkers = DefaultResolveWorkers
	}
}

// validateAndEnsureDirectories rejects impossible settings and creates the
// directory holding the cache database.
func validateAndEnsureDirectories(config *Config) error {
	if config.EditorPort < 1 || config.EditorPort > 65535 {
		return fmt.Errorf("EDITOR_PORT must be between 1 and 65535, got %d", config.EditorPort)
	}
	if config.ResolveWorkers < 1 {
		return fmt.Errorf("RESOLVE_WORKERS must be positive, got %d", config.ResolveWorkers)
	}
	if config.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative, got %s", config.CacheTTL)
	}
	if config.CacheDisabled {
		return nil
	}
	if config.CachePath == "" {
		slog.Error("CACHE_PATH is not set")
		return fmt.Errorf("CACHE_PATH is required unless CACHE_DISABLED is set")
	}

	cacheDir := filepath.Dir(config.CachePath)
	if _, err := os.Stat(cacheDir); os.IsNotExist(err) {
		slog.Info("Cache directory does not exist, creating it", "path", cacheDir)
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			slog.Error("Failed to create cache directory", "path", cacheDir, "error", err)
			return err
		}
	} else if err != nil {
		slog.Error("Failed to check cache directory", "path", cacheDir, "error", err)
		return err
	}
	return nil
}
