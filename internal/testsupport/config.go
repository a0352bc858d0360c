package testsupport

import (
	"path/filepath"
	"testing"

	"teko/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Auth.Tokens = map[string]string{"test-token": "test-user"}
	cfgVal.Discogs.Token = "test"
	cfgVal.Vision.APIKey = "test"
	cfgVal.Pipeline.SuccessDismissMillis = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithDiscogsURL points the Discogs client at a test server.
func WithDiscogsURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Discogs.BaseURL = url
		b.cfg.Discogs.RequestsPerMinute = 6000
	}
}

// WithVisionURL points the vision client at a test server.
func WithVisionURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Vision.BaseURL = url
	}
}

// WithToken registers an additional bearer token for owner.
func WithToken(token, owner string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Auth.Tokens[token] = owner
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
