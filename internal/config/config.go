package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
	EnvFile string `toml:"env_file"`
	APIBind string `toml:"api_bind"`
}

// Auth maps bearer tokens to collection owners.
type Auth struct {
	Tokens map[string]string `toml:"tokens"`
}

// Discogs contains configuration for the Discogs database API.
type Discogs struct {
	Token             string  `toml:"token"`
	BaseURL           string  `toml:"base_url"`
	UserAgent         string  `toml:"user_agent"`
	RequestsPerMinute int     `toml:"requests_per_minute"`
	MatchThreshold    float64 `toml:"match_threshold"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Vision contains the OpenAI-compatible endpoint used to identify record
// sleeves from photos.
type Vision struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Pipeline contains tuning for the photo identification workflow.
type Pipeline struct {
	// SuccessDismissMillis is how long a successful run stays visible before
	// it is closed automatically.
	SuccessDismissMillis int `toml:"success_dismiss_millis"`
	// MaxImageBytes caps the size of an uploaded capture.
	MaxImageBytes int64 `toml:"max_image_bytes"`
	// IdleTimeoutMinutes closes API runs nobody has touched for this long.
	IdleTimeoutMinutes int `toml:"idle_timeout_minutes"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RecordAdded    bool   `toml:"record_added"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Teko.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories, optional .env file, and API bind address
//   - Auth: bearer tokens accepted by the API
//   - Discogs: master search and release versions
//   - Vision: AI identification of record sleeves
//   - Pipeline: photo workflow timings and limits
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Auth          Auth          `toml:"auth"`
	Discogs       Discogs       `toml:"discogs"`
	Vision        Vision        `toml:"vision"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/teko/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.loadEnvFile(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("teko.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// loadEnvFile reads KEY=value pairs from paths.env_file into the process
// environment. Variables that are already set keep their value.
func (c *Config) loadEnvFile() error {
	envPath := strings.TrimSpace(c.Paths.EnvFile)
	if envPath == "" {
		return nil
	}
	expanded, err := expandPath(envPath)
	if err != nil {
		return fmt.Errorf("paths.env_file: %w", err)
	}
	c.Paths.EnvFile = expanded
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(expanded); err != nil {
		return fmt.Errorf("load env file %s: %w", expanded, err)
	}
	return nil
}

// EnsureDirectories creates required directories for daemon and CLI operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the collection database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "collection.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "tekod.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// VisionConfig contains the settings the vision client needs.
type VisionConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// GetVision returns the trimmed vision connection settings.
func (c *Config) GetVision() VisionConfig {
	return VisionConfig{
		APIKey:         strings.TrimSpace(c.Vision.APIKey),
		BaseURL:        strings.TrimSpace(c.Vision.BaseURL),
		Model:          strings.TrimSpace(c.Vision.Model),
		Referer:        strings.TrimSpace(c.Vision.Referer),
		Title:          strings.TrimSpace(c.Vision.Title),
		TimeoutSeconds: c.Vision.TimeoutSeconds,
	}
}
