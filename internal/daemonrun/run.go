package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"teko/internal/api"
	"teko/internal/auth"
	"teko/internal/collection"
	"teko/internal/config"
	"teko/internal/daemon"
	"teko/internal/logging"
	"teko/internal/pipeline"
	"teko/internal/preflight"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Version     string
}

// Run starts the teko daemon and blocks until the context is cancelled or
// SIGINT/SIGTERM arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logPath := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
	level := cfg.Logging.Level
	if strings.TrimSpace(opts.LogLevel) != "" {
		level = opts.LogLevel
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logConfigSnapshot(logger, cfg, opts.Version)
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.LogDirTarget(cfg.Paths.LogDir))

	pidPath := filepath.Join(cfg.Paths.DataDir, "tekod.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	catalog, err := NewCatalog(cfg)
	if err != nil {
		return err
	}

	store, err := collection.Open(cfg)
	if err != nil {
		logger.Error("open collection store", logging.Error(err))
		return err
	}

	pipelineOpts, err := PipelineOptions(cfg, store, catalog, logger)
	if err != nil {
		store.Close()
		return err
	}
	for _, result := range preflight.Failed(preflight.RunAll(signalCtx, cfg, catalog, store)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run 'teko status' for the full report"),
			logging.String(logging.FieldImpact, "captures depending on this check may fail"),
		)
	}

	registry := pipeline.NewRegistry(pipelineOpts,
		pipeline.WithIdleTTL(time.Duration(cfg.Pipeline.IdleTimeoutMinutes)*time.Minute))

	tokens := auth.NewStaticTokens(cfg.Auth.Tokens)
	if tokens.Len() == 0 {
		logging.WarnWithContext(logger, "no API tokens configured", "auth_unconfigured",
			logging.String(logging.FieldErrorHint, "add [auth] tokens to config.toml or set TEKO_API_TOKEN"),
			logging.String(logging.FieldImpact, "every authenticated API request will be rejected"),
		)
	}

	srv, err := api.New(api.Options{
		Store:         store,
		Catalog:       catalog,
		Registry:      registry,
		Auth:          tokens,
		Logger:        logger,
		MaxImageBytes: cfg.Pipeline.MaxImageBytes,
		Version:       opts.Version,
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("create api server: %w", err)
	}

	d, err := daemon.New(cfg, store, registry, srv.Handler(), logger)
	if err != nil {
		store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("teko daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config, version string) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("version", version),
		logging.String("data_dir", cfg.Paths.DataDir),
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.Bool("discogs_token_present", strings.TrimSpace(cfg.Discogs.Token) != ""),
		logging.Bool("vision_key_present", strings.TrimSpace(cfg.Vision.APIKey) != ""),
		logging.String("vision_model", cfg.Vision.Model),
		logging.Float64("match_threshold", cfg.Discogs.MatchThreshold),
		logging.Int("api_tokens", len(cfg.Auth.Tokens)),
		logging.Bool("ntfy_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	)
}
