package editor

import "redub/internal/transcript"

// Action is the closed set of state mutations. The unexported marker method
// seals the set: types outside this package cannot satisfy the interface, so
// unknown actions are rejected by the compiler rather than at runtime.
type Action interface {
	isAction()
}

// SetStep changes the workflow stage. The user may always navigate between
// steps manually; busy and error flags never block this.
type SetStep struct {
	Step Step
}

// SetBusy toggles the busy flag together with its human status line.
type SetBusy struct {
	Busy   bool
	Status string
}

// SetError records an operation failure message. An empty message clears the
// field; errors otherwise persist until the next action resets them.
type SetError struct {
	Message string
}

// SetJob records the remote editing session produced by a transcription.
type SetJob struct {
	JobID    string
	AudioURL string
}

// SetTranscript replaces the transcript wholesale.
type SetTranscript struct {
	Transcript *transcript.Transcript
}

// SetAlignmentAvailable records whether server-side fine alignment exists.
type SetAlignmentAvailable struct {
	Available bool
}

// SetSelection replaces the current time selection. Nil bounds clear it.
type SetSelection struct {
	Selection Selection
}

// SetVoiceMode switches the replacement voicing mode.
type SetVoiceMode struct {
	Mode VoiceMode
}

// SetVoiceID chooses a named engine voice.
type SetVoiceID struct {
	ID string
}

// SetFavoriteVoice chooses a saved favorite voice.
type SetFavoriteVoice struct {
	ID string
}

// SetReplaceText updates the replacement text.
type SetReplaceText struct {
	Text string
}

// PatchTiming updates only the timing fields whose pointers are non-nil.
type PatchTiming struct {
	MarginSec     *float64
	FadeMs        *int
	TrimEnable    *bool
	TrimTopDb     *float64
	TrimPrepadMs  *int
	TrimPostpadMs *int
}

// SetPreviewURL records a rendered replacement preview.
type SetPreviewURL struct {
	URL string
}

// SetFinalURL records the committed final output.
type SetFinalURL struct {
	URL string
}

func (SetStep) isAction()               {}
func (SetBusy) isAction()               {}
func (SetError) isAction()              {}
func (SetJob) isAction()                {}
func (SetTranscript) isAction()         {}
func (SetAlignmentAvailable) isAction() {}
func (SetSelection) isAction()          {}
func (SetVoiceMode) isAction()          {}
func (SetVoiceID) isAction()            {}
func (SetFavoriteVoice) isAction()      {}
func (SetReplaceText) isAction()        {}
func (PatchTiming) isAction()           {}
func (SetPreviewURL) isAction()         {}
func (SetFinalURL) isAction()           {}
