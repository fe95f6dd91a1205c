package config

const (
	defaultStateDir          = "~/.local/share/redub"
	defaultLogDir            = "~/.local/share/redub/logs"
	defaultMediaCacheDir     = "~/.cache/redub/media"
	defaultSocketPath        = "~/.local/share/redub/redub.sock"
	defaultAPIBind           = "127.0.0.1:7823"
	defaultSpeechBaseURL     = "http://127.0.0.1:8787"
	defaultSpeechEngine      = "kokoro"
	defaultRequestTimeout    = 60
	defaultRenderTimeout     = 600
	defaultStatsRefresh      = 300
	defaultChunkSize         = 200
	defaultRowHeightEstimate = 28
	defaultViewportMargin    = 600
	defaultAlignMargin       = 0.25
	defaultProgressTick      = 1
	defaultProgressSafety    = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogRetentionDays  = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:      defaultStateDir,
			LogDir:        defaultLogDir,
			MediaCacheDir: defaultMediaCacheDir,
			SocketPath:    defaultSocketPath,
			APIBind:       defaultAPIBind,
		},
		Speech: Speech{
			BaseURL:              defaultSpeechBaseURL,
			Engine:               defaultSpeechEngine,
			RequestTimeout:       defaultRequestTimeout,
			RenderTimeout:        defaultRenderTimeout,
			StatsRefreshInterval: defaultStatsRefresh,
		},
		Editor: Editor{
			ChunkSize:         defaultChunkSize,
			RowHeightEstimate: defaultRowHeightEstimate,
			ViewportMargin:    defaultViewportMargin,
			AlignMargin:       defaultAlignMargin,
			ProgressTick:      defaultProgressTick,
			ProgressSafety:    defaultProgressSafety,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
