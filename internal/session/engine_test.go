package session

import (
	"testing"

	"redub/internal/editor"
)

func TestNewHydratesSavedPreferences(t *testing.T) {
	stub := &stubSpeech{}
	f := newFixture(t, stub)

	timing := editor.DefaultTiming()
	timing.MarginSec = 0.5
	timing.FadeMs = 30
	saved := f.prefs
	if err := saved.Save(prefsWith("favorite", "voice-7", "fav-2", timing)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A second engine over the same store picks up the saved preferences.
	rebuilt, err := New(f.cfg, f.store, stub, saved, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer rebuilt.Close()

	state := rebuilt.Snapshot()
	if state.VoiceMode != editor.VoiceFavorite {
		t.Errorf("VoiceMode = %q, want favorite", state.VoiceMode)
	}
	if state.VoiceID != "voice-7" || state.FavoriteVoiceID != "fav-2" {
		t.Errorf("voice ids = %q/%q, want voice-7/fav-2", state.VoiceID, state.FavoriteVoiceID)
	}
	if state.Timing.MarginSec != 0.5 || state.Timing.FadeMs != 30 {
		t.Errorf("timing not hydrated: %+v", state.Timing)
	}
}

func TestDispatchPersistsVoiceChanges(t *testing.T) {
	f := newFixture(t, &stubSpeech{})

	f.engine.Dispatch(editor.SetVoiceMode{Mode: editor.VoiceNamed})
	f.engine.Dispatch(editor.SetVoiceID{ID: "voice-3"})

	saved, err := f.prefs.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.VoiceMode != string(editor.VoiceNamed) {
		t.Errorf("persisted voice mode = %q, want named", saved.VoiceMode)
	}
	if saved.VoiceID != "voice-3" {
		t.Errorf("persisted voice id = %q, want voice-3", saved.VoiceID)
	}
}

func TestDispatchPersistsTimingPatch(t *testing.T) {
	f := newFixture(t, &stubSpeech{})

	fade := 42
	f.engine.Dispatch(editor.PatchTiming{FadeMs: &fade})

	saved, err := f.prefs.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Timing.FadeMs != 42 {
		t.Errorf("persisted fade = %d, want 42", saved.Timing.FadeMs)
	}
	// Unpatched fields retain their defaults.
	if saved.Timing.MarginSec != editor.DefaultTiming().MarginSec {
		t.Errorf("persisted margin = %v, want default", saved.Timing.MarginSec)
	}
}

func TestDispatchSelectionDoesNotPersist(t *testing.T) {
	f := newFixture(t, &stubSpeech{})

	f.engine.Dispatch(editor.SetSelection{Selection: editor.SelectionOf(1, 2)})

	saved, err := f.prefs.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.VoiceMode != string(editor.VoiceBorrow) {
		t.Errorf("selection dispatch altered prefs: %+v", saved)
	}
	if !f.engine.Snapshot().HasSelection() {
		t.Error("selection not applied to state")
	}
}

func TestDispatchPublishesStateEvents(t *testing.T) {
	f := newFixture(t, &stubSpeech{})

	before := f.engine.Hub().LastSeq()
	f.engine.Dispatch(editor.SetReplaceText{Text: "updated line"})

	events := f.engine.Hub().Since(before)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Type != EventState || events[0].State == nil {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if events[0].State.ReplaceText != "updated line" {
		t.Errorf("event state text = %q", events[0].State.ReplaceText)
	}
}

func TestSuggestFollowsWorkflow(t *testing.T) {
	f := newFixture(t, &stubSpeech{transcribeResult: sampleResult()})

	if _, ok := f.engine.Suggest(); ok {
		t.Error("fresh session should have no suggestion")
	}

	// Import lands on the align step, so the suggestion points one ahead.
	f.importMedia(t)
	step, ok := f.engine.Suggest()
	if !ok || step != editor.StepReplace {
		t.Errorf("suggestion after import = %q/%v, want replace", step, ok)
	}

	// Stepping back to import re-offers alignment.
	f.engine.Dispatch(editor.SetStep{Step: editor.StepImport})
	step, ok = f.engine.Suggest()
	if !ok || step != editor.StepAlign {
		t.Errorf("suggestion on import step = %q/%v, want align", step, ok)
	}
}

func TestDispatchSetStepNavigates(t *testing.T) {
	f := newFixture(t, &stubSpeech{transcribeResult: sampleResult()})
	f.importMedia(t)

	state := f.engine.Dispatch(editor.SetStep{Step: editor.StepExport})
	if state.Step != editor.StepExport {
		t.Errorf("Step = %q, want export", state.Step)
	}

	state = f.engine.Dispatch(editor.SetStep{Step: editor.StepImport})
	if state.Step != editor.StepImport {
		t.Errorf("Step = %q, want import", state.Step)
	}
}
