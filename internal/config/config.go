// Package config loads settings from a TOML file with MEDALS_* environment
// overrides on top. A missing config file is not an error; every key has a
// usable default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

const envPrefix = "medals"

// Config holds every tunable setting.
type Config struct {
	AppListURL   string `toml:"app_list_url" envconfig:"APP_LIST_URL"`
	CacheDir     string `toml:"cache_dir" envconfig:"CACHE_DIR"`
	SchemaDir    string `toml:"schema_dir" envconfig:"SCHEMA_DIR"`
	Language     string `toml:"language" envconfig:"LANGUAGE"`
	IPCTimeoutMS int    `toml:"ipc_timeout_ms" envconfig:"IPC_TIMEOUT_MS"`
	LogLevel     string `toml:"log_level" envconfig:"LOG_LEVEL"`
}

// Loaded pairs the effective config with the path it came from. Path is
// empty when no file existed and defaults were used.
type Loaded struct {
	Config Config
	Path   string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		AppListURL: "https://gib.me/sam/games.xml",
		CacheDir:   defaultCacheDir(),
		Language:   "english",
		LogLevel:   "info",
	}
}

// Timeout converts the millisecond setting to a duration. The default of
// zero disables pipe deadlines; reads and writes then block until the peer
// acts, the safe behavior for a strict request/response channel.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.IPCTimeoutMS) * time.Millisecond
}

// schemaInstallDirs are the client install locations probed when no schema
// dir is configured, most specific first.
func schemaInstallDirs(home string) []string {
	return []string{
		filepath.Join(home, "snap/steam/common/.local/share/Steam"),
		filepath.Join(home, ".steam/debian-installation"),
		filepath.Join(home, ".steam/steam"),
		filepath.Join(home, ".steam/root"),
	}
}

// SchemaFile resolves the stats schema file for one app. An explicit
// schema_dir wins; otherwise the known client install dirs are probed.
func (c Config) SchemaFile(appID uint32) (string, error) {
	name := fmt.Sprintf("UserGameStatsSchema_%d.bin", appID)
	if c.SchemaDir != "" {
		return filepath.Join(c.SchemaDir, name), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve schema dir: %w", err)
	}
	for _, dir := range schemaInstallDirs(home) {
		if _, err := os.Stat(dir); err == nil {
			return filepath.Join(dir, "appcache/stats", name), nil
		}
	}
	return "", errors.New("no client installation found; set schema_dir")
}

// Load reads the config file (explicit path, else the default location),
// then applies environment overrides. A missing default file yields pure
// defaults; a missing explicit file is an error.
func Load(explicitPath string) (Loaded, error) {
	cfg := Default()

	path := explicitPath
	if path == "" {
		path = defaultConfigPath()
	}

	body, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(body, &cfg); err != nil {
			return Loaded{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && explicitPath == "":
		path = ""
	default:
		return Loaded{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Loaded{}, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := validate(cfg); err != nil {
		return Loaded{}, err
	}
	return Loaded{Config: cfg, Path: path}, nil
}

func validate(cfg Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	if cfg.IPCTimeoutMS < 0 {
		return fmt.Errorf("ipc_timeout_ms must not be negative, got %d", cfg.IPCTimeoutMS)
	}
	if cfg.AppListURL == "" {
		return errors.New("app_list_url must not be empty")
	}
	return nil
}

func defaultConfigPath() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "medals", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "medals", "config.toml")
}

func defaultCacheDir() string {
	if base := os.Getenv("XDG_CACHE_HOME"); base != "" {
		return filepath.Join(base, "medals")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, ".cache", "medals")
}
