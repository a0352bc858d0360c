package daemonrun

import (
	"log/slog"
	"time"

	"teko/internal/collection"
	"teko/internal/config"
	"teko/internal/notifications"
	"teko/internal/pipeline"
	"teko/internal/services/discogs"
	"teko/internal/services/vision"
)

// NewCatalog builds the Discogs client from configuration.
func NewCatalog(cfg *config.Config) (*discogs.Client, error) {
	if err := cfg.RequireDiscogs(); err != nil {
		return nil, err
	}
	return discogs.New(cfg.Discogs.Token, cfg.Discogs.BaseURL,
		discogs.WithUserAgent(cfg.Discogs.UserAgent),
		discogs.WithRequestsPerMinute(cfg.Discogs.RequestsPerMinute),
		discogs.WithMatchThreshold(cfg.Discogs.MatchThreshold),
		discogs.WithTimeout(time.Duration(cfg.Discogs.TimeoutSeconds)*time.Second),
	)
}

// NewIdentifier builds the vision client from configuration.
func NewIdentifier(cfg *config.Config) (*vision.Client, error) {
	if err := cfg.RequireVision(); err != nil {
		return nil, err
	}
	return vision.NewClient(vision.Config(cfg.GetVision())), nil
}

// PipelineOptions wires the collaborators every run shares. Session is left
// unset so runs resolve the owner from the request context.
func PipelineOptions(cfg *config.Config, store *collection.Store, catalog *discogs.Client, logger *slog.Logger) (pipeline.Options, error) {
	identifier, err := NewIdentifier(cfg)
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{
		Identifier:   identifier,
		Matcher:      catalog,
		Recorder:     store,
		Notifier:     notifications.NewService(cfg),
		Logger:       logger,
		SuccessDelay: time.Duration(cfg.Pipeline.SuccessDismissMillis) * time.Millisecond,
	}, nil
}
