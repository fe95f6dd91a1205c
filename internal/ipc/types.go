package ipc

import (
	"redub/internal/editor"
	"redub/internal/services/speech"
	"redub/internal/session"
)

// SessionState mirrors the editor state aggregate for IPC consumers.
type SessionState = editor.State

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// PreflightResult describes one environment check.
type PreflightResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// StatusResponse represents combined daemon and session status information.
type StatusResponse struct {
	Running      bool              `json:"running"`
	PID          int               `json:"pid"`
	QueueDBPath  string            `json:"queue_db_path"`
	LockPath     string            `json:"lock_path"`
	QueueStats   map[string]int    `json:"queue_stats"`
	Checks       []PreflightResult `json:"checks"`
	SessionState SessionState      `json:"session_state"`
}

// QueueEntry is the render-log DTO shared by queue methods.
type QueueEntry struct {
	ID              int64   `json:"id"`
	Kind            string  `json:"kind"`
	Label           string  `json:"label"`
	Status          string  `json:"status"`
	ProgressPercent float64 `json:"progress_percent"`
	ProgressMessage string  `json:"progress_message,omitempty"`
	ResultURL       string  `json:"result_url,omitempty"`
	ErrorMessage    string  `json:"error_message,omitempty"`
	RequestID       string  `json:"request_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries.
type QueueListResponse struct {
	Entries []QueueEntry `json:"entries"`
}

// QueueDescribeRequest fetches a single queue entry by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single queue entry.
type QueueDescribeResponse struct {
	Entry QueueEntry `json:"entry"`
}

// QueueClearRequest removes queue entries. FinishedOnly restricts removal to
// terminal entries.
type QueueClearRequest struct {
	FinishedOnly bool `json:"finished_only"`
}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// ImportRequest transcribes new media from a URL or a local file path.
type ImportRequest struct {
	Source   string `json:"source"`
	FilePath string `json:"file_path"`
}

// AlignFullRequest re-runs alignment over the whole job.
type AlignFullRequest struct{}

// AlignRegionRequest re-aligns a time range. A zero-width range falls back to
// the current selection; a non-positive margin falls back to the configured
// default.
type AlignRegionRequest struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Margin float64 `json:"margin"`
}

// SetStepRequest moves the session to a workflow step.
type SetStepRequest struct {
	Step string `json:"step"`
}

// SetSelectionRequest replaces the time selection. Nil bounds clear it.
type SetSelectionRequest struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

// SetReplaceTextRequest updates the replacement text.
type SetReplaceTextRequest struct {
	Text string `json:"text"`
}

// SetVoiceRequest updates the voicing choice. Empty fields are left
// untouched.
type SetVoiceRequest struct {
	Mode       string `json:"mode"`
	VoiceID    string `json:"voice_id"`
	FavoriteID string `json:"favorite_id"`
}

// PatchTimingRequest updates only the timing fields that are present.
type PatchTimingRequest struct {
	MarginSec     *float64 `json:"margin_sec"`
	FadeMs        *int     `json:"fade_ms"`
	TrimEnable    *bool    `json:"trim_enable"`
	TrimTopDb     *float64 `json:"trim_top_db"`
	TrimPrepadMs  *int     `json:"trim_prepad_ms"`
	TrimPostpadMs *int     `json:"trim_postpad_ms"`
}

// ReplacePreviewRequest renders a preview with the current session inputs.
type ReplacePreviewRequest struct{}

// ApplyRequest commits the current preview to the final output.
type ApplyRequest struct{}

// StateResponse carries the session state after a mutation or operation.
type StateResponse struct {
	State SessionState `json:"state"`
}

// SuggestRequest asks for the next-step affordance.
type SuggestRequest struct{}

// SuggestResponse carries the suggestion, if any.
type SuggestResponse struct {
	Step      string `json:"step"`
	Available bool   `json:"available"`
}

// EventsRequest reads session events newer than a sequence number.
type EventsRequest struct {
	Since int64 `json:"since"`
}

// EventsResponse carries buffered session events.
type EventsResponse struct {
	Events  []session.Event `json:"events"`
	LastSeq int64           `json:"last_seq"`
}

// VoicesRequest lists voices for the configured synthesis engine.
type VoicesRequest struct{}

// VoicesResponse contains selectable voices.
type VoicesResponse struct {
	Voices []speech.Voice `json:"voices"`
}

// FavoritesRequest lists the saved favorite voices.
type FavoritesRequest struct{}

// FavoritesResponse contains saved favorites.
type FavoritesResponse struct {
	Favorites []speech.Favorite `json:"favorites"`
}
