package config

const (
	defaultDataDir                  = "~/.local/share/teko"
	defaultLogDir                   = "~/.local/share/teko/logs"
	defaultAPIBind                  = "127.0.0.1:7488"
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultLogRetentionDays         = 30
	defaultDiscogsBaseURL           = "https://api.discogs.com"
	defaultDiscogsUserAgent         = "Teko/dev +https://github.com/teko-app/teko"
	defaultDiscogsRequestsPerMinute = 60
	defaultDiscogsMatchThreshold    = 0.85
	defaultDiscogsTimeoutSeconds    = 10
	defaultVisionBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultVisionModel              = "google/gemini-2.5-flash"
	defaultVisionReferer            = "https://github.com/teko-app/teko"
	defaultVisionTitle              = "Teko Record Identifier"
	defaultVisionTimeoutSeconds     = 60
	defaultSuccessDismissMillis     = 1500
	defaultMaxImageBytes            = 10 << 20
	defaultIdleTimeoutMinutes       = 30
	defaultNotifyRequestTimeout     = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Discogs: Discogs{
			BaseURL:           defaultDiscogsBaseURL,
			UserAgent:         defaultDiscogsUserAgent,
			RequestsPerMinute: defaultDiscogsRequestsPerMinute,
			MatchThreshold:    defaultDiscogsMatchThreshold,
			TimeoutSeconds:    defaultDiscogsTimeoutSeconds,
		},
		Vision: Vision{
			BaseURL:        defaultVisionBaseURL,
			Model:          defaultVisionModel,
			Referer:        defaultVisionReferer,
			Title:          defaultVisionTitle,
			TimeoutSeconds: defaultVisionTimeoutSeconds,
		},
		Pipeline: Pipeline{
			SuccessDismissMillis: defaultSuccessDismissMillis,
			MaxImageBytes:        defaultMaxImageBytes,
			IdleTimeoutMinutes:   defaultIdleTimeoutMinutes,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			RecordAdded:    true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
