package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"teko/internal/collection"
	"teko/internal/config"
	"teko/internal/logging"
)

const defaultOwner = "local"

type commandContext struct {
	configFlag   *string
	userFlag     *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, userFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		userFlag:     userFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// owner resolves the collection owner for local commands.
func (c *commandContext) owner() string {
	if c.userFlag != nil {
		if user := strings.TrimSpace(*c.userFlag); user != "" {
			return user
		}
	}
	if user := strings.TrimSpace(os.Getenv("TEKO_USER")); user != "" {
		return user
	}
	return defaultOwner
}

// logLevelOverride returns the --log-level value, if any.
func (c *commandContext) logLevelOverride() string {
	if c.logLevelFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.logLevelFlag)
}

// commandLogger writes to stderr so command output stays parseable. One-shot
// commands log warnings and above unless --log-level says otherwise.
func (c *commandContext) commandLogger(cfg *config.Config) (*slog.Logger, error) {
	level := c.logLevelOverride()
	if level == "" {
		level = "warn"
	}
	format := "console"
	if cfg != nil {
		format = cfg.Logging.Format
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	return logger, nil
}

func (c *commandContext) withStore(fn func(*config.Config, *collection.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := collection.Open(cfg)
	if err != nil {
		return fmt.Errorf("open collection: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
