package editor

// Apply returns the state after one action. It is pure and total: the input
// state is never mutated, every known action is handled, and a nil action
// returns the state unchanged.
func Apply(state State, action Action) State {
	switch a := action.(type) {
	case SetStep:
		state.Step = a.Step
	case SetBusy:
		state.Busy = a.Busy
		state.Status = a.Status
	case SetError:
		state.Error = a.Message
	case SetJob:
		state.JobID = a.JobID
		state.AudioURL = a.AudioURL
	case SetTranscript:
		state.Transcript = a.Transcript
	case SetAlignmentAvailable:
		state.WhisperXEnabled = a.Available
	case SetSelection:
		state.Selection = a.Selection
	case SetVoiceMode:
		state.VoiceMode = a.Mode
	case SetVoiceID:
		state.VoiceID = a.ID
	case SetFavoriteVoice:
		state.FavoriteVoiceID = a.ID
	case SetReplaceText:
		state.ReplaceText = a.Text
	case PatchTiming:
		state.Timing = patchTiming(state.Timing, a)
	case SetPreviewURL:
		state.PreviewURL = a.URL
	case SetFinalURL:
		state.FinalURL = a.URL
	}
	return state
}

func patchTiming(t Timing, p PatchTiming) Timing {
	if p.MarginSec != nil {
		t.MarginSec = *p.MarginSec
	}
	if p.FadeMs != nil {
		t.FadeMs = *p.FadeMs
	}
	if p.TrimEnable != nil {
		t.TrimEnable = *p.TrimEnable
	}
	if p.TrimTopDb != nil {
		t.TrimTopDb = *p.TrimTopDb
	}
	if p.TrimPrepadMs != nil {
		t.TrimPrepadMs = *p.TrimPrepadMs
	}
	if p.TrimPostpadMs != nil {
		t.TrimPostpadMs = *p.TrimPostpadMs
	}
	return t
}
