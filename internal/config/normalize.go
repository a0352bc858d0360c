package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAuth()
	c.normalizeDiscogs()
	c.normalizeVision()
	c.normalizePipeline()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeAuth() {
	if len(c.Auth.Tokens) == 0 {
		if value, ok := os.LookupEnv("TEKO_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
			user := "local"
			if owner, ok := os.LookupEnv("TEKO_API_USER"); ok && strings.TrimSpace(owner) != "" {
				user = strings.TrimSpace(owner)
			}
			c.Auth.Tokens = map[string]string{strings.TrimSpace(value): user}
		}
		return
	}
	tokens := make(map[string]string, len(c.Auth.Tokens))
	for token, user := range c.Auth.Tokens {
		token = strings.TrimSpace(token)
		user = strings.TrimSpace(user)
		if token == "" || user == "" {
			continue
		}
		tokens[token] = user
	}
	c.Auth.Tokens = tokens
}

func (c *Config) normalizeDiscogs() {
	c.Discogs.Token = strings.TrimSpace(c.Discogs.Token)
	if c.Discogs.Token == "" {
		if value, ok := os.LookupEnv("DISCOGS_TOKEN"); ok {
			c.Discogs.Token = strings.TrimSpace(value)
		}
	}
	c.Discogs.BaseURL = strings.TrimRight(strings.TrimSpace(c.Discogs.BaseURL), "/")
	if c.Discogs.BaseURL == "" {
		c.Discogs.BaseURL = defaultDiscogsBaseURL
	}
	c.Discogs.UserAgent = strings.TrimSpace(c.Discogs.UserAgent)
	if c.Discogs.UserAgent == "" {
		c.Discogs.UserAgent = defaultDiscogsUserAgent
	}
	if c.Discogs.RequestsPerMinute <= 0 {
		c.Discogs.RequestsPerMinute = defaultDiscogsRequestsPerMinute
	}
	if c.Discogs.TimeoutSeconds <= 0 {
		c.Discogs.TimeoutSeconds = defaultDiscogsTimeoutSeconds
	}
}

func (c *Config) normalizeVision() {
	c.Vision.BaseURL = strings.TrimSpace(c.Vision.BaseURL)
	if c.Vision.BaseURL == "" {
		c.Vision.BaseURL = defaultVisionBaseURL
	}
	c.Vision.Model = strings.TrimSpace(c.Vision.Model)
	if c.Vision.Model == "" {
		c.Vision.Model = defaultVisionModel
	}
	c.Vision.Referer = strings.TrimSpace(c.Vision.Referer)
	if c.Vision.Referer == "" {
		c.Vision.Referer = defaultVisionReferer
	}
	c.Vision.Title = strings.TrimSpace(c.Vision.Title)
	if c.Vision.Title == "" {
		c.Vision.Title = defaultVisionTitle
	}
	if c.Vision.TimeoutSeconds <= 0 {
		c.Vision.TimeoutSeconds = defaultVisionTimeoutSeconds
	}
	c.Vision.APIKey = strings.TrimSpace(c.Vision.APIKey)
	if c.Vision.APIKey == "" {
		if value, ok := os.LookupEnv("TEKO_VISION_API_KEY"); ok {
			c.Vision.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.Vision.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.SuccessDismissMillis < 0 {
		c.Pipeline.SuccessDismissMillis = 0
	}
	if c.Pipeline.MaxImageBytes <= 0 {
		c.Pipeline.MaxImageBytes = defaultMaxImageBytes
	}
	if c.Pipeline.IdleTimeoutMinutes <= 0 {
		c.Pipeline.IdleTimeoutMinutes = defaultIdleTimeoutMinutes
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
