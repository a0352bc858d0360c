package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"teko/internal/services"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDiscogs(); err != nil {
		return err
	}
	if err := c.validateVision(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind %q must be host:port: %w", c.Paths.APIBind, err)
	}
	return nil
}

func (c *Config) validateDiscogs() error {
	if err := validateURL("discogs.base_url", c.Discogs.BaseURL); err != nil {
		return err
	}
	if c.Discogs.MatchThreshold <= 0 || c.Discogs.MatchThreshold > 1 {
		return errors.New("discogs.match_threshold must be between 0 (exclusive) and 1")
	}
	if c.Discogs.RequestsPerMinute <= 0 {
		return errors.New("discogs.requests_per_minute must be positive")
	}
	return nil
}

func (c *Config) validateVision() error {
	if err := validateURL("vision.base_url", c.Vision.BaseURL); err != nil {
		return err
	}
	if strings.TrimSpace(c.Vision.Model) == "" {
		return errors.New("vision.model must be set")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.SuccessDismissMillis > 60_000 {
		return errors.New("pipeline.success_dismiss_millis must be at most 60000")
	}
	if c.Pipeline.MaxImageBytes <= 0 {
		return errors.New("pipeline.max_image_bytes must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func validateURL(field, value string) error {
	parsed, err := url.Parse(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, value)
	}
	return nil
}

// RequireDiscogs reports a configuration error when the Discogs token is absent.
func (c *Config) RequireDiscogs() error {
	if strings.TrimSpace(c.Discogs.Token) != "" {
		return nil
	}
	path, err := DefaultConfigPath()
	if err != nil {
		path = "~/.config/teko/config.toml"
	}
	return fmt.Errorf("%w: discogs.token is required. Set DISCOGS_TOKEN env var or edit %s (create with 'teko config init')", services.ErrConfiguration, path)
}

// RequireVision reports a configuration error when the vision API key is absent.
func (c *Config) RequireVision() error {
	if strings.TrimSpace(c.Vision.APIKey) != "" {
		return nil
	}
	path, err := DefaultConfigPath()
	if err != nil {
		path = "~/.config/teko/config.toml"
	}
	return fmt.Errorf("%w: vision.api_key is required. Set TEKO_VISION_API_KEY env var or edit %s (create with 'teko config init')", services.ErrConfiguration, path)
}
