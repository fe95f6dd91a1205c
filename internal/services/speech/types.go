package speech

import (
	"redub/internal/editor"
	"redub/internal/transcript"
)

// Source identifies media to import: either a fetchable URL or a local file
// uploaded with the request. Exactly one should be set.
type Source struct {
	URL      string
	FilePath string
}

// Media describes the playable audio produced for an editing job.
type Media struct {
	AudioURL string  `json:"audioUrl"`
	Duration float64 `json:"duration"`
}

// TranscribeResult is the full response to an import transcription.
type TranscribeResult struct {
	JobID              string                 `json:"jobId"`
	Media              Media                  `json:"media"`
	Transcript         *transcript.Transcript `json:"transcript"`
	AlignmentAvailable bool                   `json:"alignmentAvailable"`
}

// VoiceSelector carries the replacement voicing choice to the service.
type VoiceSelector struct {
	Mode       editor.VoiceMode `json:"mode"`
	VoiceID    string           `json:"voiceId,omitempty"`
	FavoriteID string           `json:"favoriteId,omitempty"`
}

// ReplaceRequest renders synthesized speech over a selected time range.
type ReplaceRequest struct {
	JobID  string
	Start  float64
	End    float64
	Text   string
	Timing editor.Timing
	Voice  VoiceSelector
}

// Voice is one selectable engine voice.
type Voice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Favorite is a saved voice shortcut.
type Favorite struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	VoiceID string `json:"voiceId"`
}

// Stats reports per-operation real-time factors measured server-side.
type Stats struct {
	Throughput map[string]float64 `json:"throughput"`
}
