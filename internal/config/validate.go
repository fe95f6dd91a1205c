package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSpeech(); err != nil {
		return err
	}
	if err := c.validateEditor(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if strings.TrimSpace(c.Paths.SocketPath) == "" {
		return errors.New("paths.socket_path must be set")
	}
	return nil
}

func (c *Config) validateSpeech() error {
	parsed, err := url.Parse(c.Speech.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("speech.base_url %q must be an absolute http(s) URL", c.Speech.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("speech.base_url scheme %q is not supported", parsed.Scheme)
	}
	if err := ensurePositiveMap(map[string]int{
		"speech.request_timeout":        c.Speech.RequestTimeout,
		"speech.render_timeout":         c.Speech.RenderTimeout,
		"speech.stats_refresh_interval": c.Speech.StatsRefreshInterval,
	}); err != nil {
		return err
	}
	if c.Speech.RenderTimeout < c.Speech.RequestTimeout {
		return errors.New("speech.render_timeout must be at least speech.request_timeout")
	}
	return nil
}

func (c *Config) validateEditor() error {
	if err := ensurePositiveMap(map[string]int{
		"editor.chunk_size":      c.Editor.ChunkSize,
		"editor.progress_tick":   c.Editor.ProgressTick,
		"editor.progress_safety": c.Editor.ProgressSafety,
	}); err != nil {
		return err
	}
	if c.Editor.RowHeightEstimate <= 0 {
		return errors.New("editor.row_height_estimate must be positive")
	}
	if c.Editor.AlignMargin < 0 {
		return errors.New("editor.align_margin must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
