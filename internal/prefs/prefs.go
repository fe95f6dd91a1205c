package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"redub/internal/editor"
)

// Prefs captures the persisted editor preferences.
type Prefs struct {
	VoiceMode       string        `toml:"voice_mode"`
	VoiceID         string        `toml:"voice_id"`
	FavoriteVoiceID string        `toml:"favorite_voice_id"`
	Timing          editor.Timing `toml:"timing"`
}

// Default returns preferences matching a fresh editor session.
func Default() Prefs {
	return Prefs{
		VoiceMode: string(editor.VoiceBorrow),
		Timing:    editor.DefaultTiming(),
	}
}

// Store reads and writes preferences.
type Store interface {
	Load() (Prefs, error)
	Save(Prefs) error
}

// FileStore persists preferences as a TOML file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads preferences from disk. A missing file yields defaults; a
// malformed file is an error so the caller can surface it instead of
// silently resetting the user's choices.
func (s *FileStore) Load() (Prefs, error) {
	prefs := Default()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return prefs, nil
		}
		return prefs, fmt.Errorf("read prefs: %w", err)
	}

	if err := toml.Unmarshal(data, &prefs); err != nil {
		return Default(), fmt.Errorf("parse prefs: %w", err)
	}
	prefs.normalize()
	return prefs, nil
}

// Save writes preferences to disk, creating the parent directory if needed.
func (s *FileStore) Save(prefs Prefs) error {
	prefs.normalize()

	data, err := toml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create prefs directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}

func (p *Prefs) normalize() {
	if _, ok := editor.ParseVoiceMode(p.VoiceMode); !ok {
		p.VoiceMode = string(editor.VoiceBorrow)
	}
	defaults := editor.DefaultTiming()
	if p.Timing.MarginSec < 0 {
		p.Timing.MarginSec = defaults.MarginSec
	}
	if p.Timing.FadeMs < 0 {
		p.Timing.FadeMs = defaults.FadeMs
	}
	if p.Timing.TrimTopDb <= 0 {
		p.Timing.TrimTopDb = defaults.TrimTopDb
	}
	if p.Timing.TrimPrepadMs < 0 {
		p.Timing.TrimPrepadMs = defaults.TrimPrepadMs
	}
	if p.Timing.TrimPostpadMs < 0 {
		p.Timing.TrimPostpadMs = defaults.TrimPostpadMs
	}
}
