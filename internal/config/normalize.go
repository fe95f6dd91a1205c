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
	c.normalizeSpeech()
	c.normalizeEditor()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.MediaCacheDir) == "" {
		c.Paths.MediaCacheDir = defaultMediaCacheDir
	}
	if c.Paths.MediaCacheDir, err = expandPath(c.Paths.MediaCacheDir); err != nil {
		return fmt.Errorf("paths.media_cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		c.Paths.SocketPath = defaultSocketPath
	}
	if c.Paths.SocketPath, err = expandPath(c.Paths.SocketPath); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeSpeech() {
	c.Speech.BaseURL = strings.TrimRight(strings.TrimSpace(c.Speech.BaseURL), "/")
	if c.Speech.BaseURL == "" {
		c.Speech.BaseURL = defaultSpeechBaseURL
	}
	c.Speech.APIToken = strings.TrimSpace(c.Speech.APIToken)
	if c.Speech.APIToken == "" {
		if value, ok := os.LookupEnv("REDUB_SPEECH_TOKEN"); ok {
			c.Speech.APIToken = strings.TrimSpace(value)
		}
	}
	c.Speech.Engine = strings.ToLower(strings.TrimSpace(c.Speech.Engine))
	if c.Speech.Engine == "" {
		c.Speech.Engine = defaultSpeechEngine
	}
	if c.Speech.RequestTimeout <= 0 {
		c.Speech.RequestTimeout = defaultRequestTimeout
	}
	if c.Speech.RenderTimeout <= 0 {
		c.Speech.RenderTimeout = defaultRenderTimeout
	}
	if c.Speech.StatsRefreshInterval <= 0 {
		c.Speech.StatsRefreshInterval = defaultStatsRefresh
	}
}

func (c *Config) normalizeEditor() {
	if c.Editor.ChunkSize <= 0 {
		c.Editor.ChunkSize = defaultChunkSize
	}
	if c.Editor.RowHeightEstimate <= 0 {
		c.Editor.RowHeightEstimate = defaultRowHeightEstimate
	}
	if c.Editor.ViewportMargin < 0 {
		c.Editor.ViewportMargin = defaultViewportMargin
	}
	if c.Editor.AlignMargin < 0 {
		c.Editor.AlignMargin = defaultAlignMargin
	}
	if c.Editor.ProgressTick <= 0 {
		c.Editor.ProgressTick = defaultProgressTick
	}
	if c.Editor.ProgressSafety <= 0 {
		c.Editor.ProgressSafety = defaultProgressSafety
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
