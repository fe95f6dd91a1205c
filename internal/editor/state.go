package editor

import (
	"strings"

	"redub/internal/transcript"
)

// Step identifies the current workflow stage.
type Step string

const (
	StepImport  Step = "import"
	StepAlign   Step = "align"
	StepReplace Step = "replace"
	StepExport  Step = "export"
)

var stepOrder = []Step{StepImport, StepAlign, StepReplace, StepExport}

// Steps returns the ordered list of workflow stages.
func Steps() []Step {
	cp := make([]Step, len(stepOrder))
	copy(cp, stepOrder)
	return cp
}

// ParseStep converts a string into a known Step.
func ParseStep(value string) (Step, bool) {
	normalized := Step(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range stepOrder {
		if s == normalized {
			return s, true
		}
	}
	return "", false
}

// VoiceMode selects how replacement speech is voiced.
type VoiceMode string

const (
	// VoiceBorrow synthesizes using vocal characteristics extracted from
	// the originally selected audio.
	VoiceBorrow VoiceMode = "borrow"
	// VoiceNamed uses an explicitly chosen engine voice.
	VoiceNamed VoiceMode = "named"
	// VoiceFavorite uses a saved favorite voice.
	VoiceFavorite VoiceMode = "favorite"
)

// ParseVoiceMode converts a string into a known VoiceMode.
func ParseVoiceMode(value string) (VoiceMode, bool) {
	switch VoiceMode(strings.ToLower(strings.TrimSpace(value))) {
	case VoiceBorrow:
		return VoiceBorrow, true
	case VoiceNamed:
		return VoiceNamed, true
	case VoiceFavorite:
		return VoiceFavorite, true
	default:
		return "", false
	}
}

// Timing holds the numeric replacement parameters persisted across sessions.
type Timing struct {
	MarginSec     float64 `json:"marginSec" toml:"margin_sec"`
	FadeMs        int     `json:"fadeMs" toml:"fade_ms"`
	TrimEnable    bool    `json:"trimEnable" toml:"trim_enable"`
	TrimTopDb     float64 `json:"trimTopDb" toml:"trim_top_db"`
	TrimPrepadMs  int     `json:"trimPrepadMs" toml:"trim_prepad_ms"`
	TrimPostpadMs int     `json:"trimPostpadMs" toml:"trim_postpad_ms"`
}

// DefaultTiming returns the baseline replacement parameters.
func DefaultTiming() Timing {
	return Timing{
		MarginSec:     0.25,
		FadeMs:        12,
		TrimEnable:    true,
		TrimTopDb:     40,
		TrimPrepadMs:  10,
		TrimPostpadMs: 10,
	}
}

// Selection is a time interval in seconds. Either bound may be nil; a
// selection whose end does not exceed its start selects nothing. The type
// itself does not enforce ordering: consumers go through Valid.
type Selection struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

// SelectionOf builds a selection from two concrete bounds.
func SelectionOf(start, end float64) Selection {
	return Selection{Start: &start, End: &end}
}

// Valid reports whether the selection covers a positive-width interval.
func (s Selection) Valid() bool {
	return s.Start != nil && s.End != nil && *s.End > *s.Start
}

// Bounds returns the interval when Valid, else zeros and false.
func (s Selection) Bounds() (float64, float64, bool) {
	if !s.Valid() {
		return 0, 0, false
	}
	return *s.Start, *s.End, true
}

// State is the single owned aggregate for one editing session.
type State struct {
	Step   Step   `json:"step"`
	Busy   bool   `json:"busy"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`

	JobID    string `json:"jobId,omitempty"`
	AudioURL string `json:"audioUrl,omitempty"`

	Transcript      *transcript.Transcript `json:"transcript,omitempty"`
	WhisperXEnabled bool                   `json:"whisperxEnabled"`

	Selection Selection `json:"selection"`

	VoiceMode       VoiceMode `json:"voiceMode"`
	VoiceID         string    `json:"voiceId,omitempty"`
	FavoriteVoiceID string    `json:"favoriteVoiceId,omitempty"`
	ReplaceText     string    `json:"replaceText"`
	Timing          Timing    `json:"timing"`

	PreviewURL string `json:"previewUrl,omitempty"`
	FinalURL   string `json:"finalUrl,omitempty"`
}

// NewState returns the initial session state.
func NewState() State {
	return State{
		Step:      StepImport,
		VoiceMode: VoiceBorrow,
		Timing:    DefaultTiming(),
	}
}

// HasSelection reports whether a usable selection exists.
func (s State) HasSelection() bool {
	return s.Selection.Valid()
}

// CanReplace reports whether the replace-preview operation may be launched.
// The triggering control is disabled upstream when this is false, so empty
// replace text never reaches the orchestrator.
func (s State) CanReplace() bool {
	return s.JobID != "" && !s.Busy && s.HasSelection() && strings.TrimSpace(s.ReplaceText) != ""
}

// CanApply reports whether the apply operation may be launched.
func (s State) CanApply() bool {
	return s.JobID != "" && !s.Busy && s.PreviewURL != ""
}
