package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"redub/internal/editor"
	"redub/internal/progress"
	"redub/internal/queue"
	"redub/internal/services"
	"redub/internal/services/speech"
	"redub/internal/transcript"
)

func TestImportCommitsJobFields(t *testing.T) {
	f := newFixture(t, &stubSpeech{transcribeResult: sampleResult(), duration: 120})

	f.importMedia(t)

	state := f.engine.Snapshot()
	if state.JobID != "job-1" {
		t.Errorf("JobID = %q, want job-1", state.JobID)
	}
	if state.AudioURL != "http://media/audio.wav" {
		t.Errorf("AudioURL = %q", state.AudioURL)
	}
	if state.Transcript == nil || state.Transcript.TokenCount() != 2 {
		t.Error("transcript not committed")
	}
	if !state.WhisperXEnabled {
		t.Error("alignment availability not committed")
	}
	if state.Busy {
		t.Error("busy not cleared after import")
	}
	if state.Error != "" {
		t.Errorf("unexpected error %q", state.Error)
	}
	if f.engine.MediaDuration() != 120 {
		t.Errorf("MediaDuration = %v, want 120", f.engine.MediaDuration())
	}

	entry := f.onlyJob(t, queue.KindTranscribe)
	if entry.Status != queue.StatusDone {
		t.Errorf("entry status = %q, want done", entry.Status)
	}
	if entry.ResultURL != "http://media/audio.wav" {
		t.Errorf("entry result = %q", entry.ResultURL)
	}
	if entry.RequestID == "" {
		t.Error("entry missing request id")
	}
}

func TestImportAdvancesToAlignStep(t *testing.T) {
	f := newFixture(t, &stubSpeech{transcribeResult: sampleResult()})

	if f.engine.Snapshot().Step != editor.StepImport {
		t.Fatalf("fresh session step = %q, want import", f.engine.Snapshot().Step)
	}

	f.importMedia(t)

	if step := f.engine.Snapshot().Step; step != editor.StepAlign {
		t.Errorf("step after import = %q, want align", step)
	}
}

func TestImportClampsTranscriptTimings(t *testing.T) {
	result := sampleResult()
	result.Transcript.Words = append(result.Transcript.Words,
		transcript.Word{Text: "overrun", Start: 119, End: 130},
	)
	f := newFixture(t, &stubSpeech{transcribeResult: result})

	f.importMedia(t)

	state := f.engine.Snapshot()
	words := state.Transcript.Words
	if got := words[len(words)-1].End; got != 120 {
		t.Errorf("overrun word end = %v, want clamped to 120", got)
	}
}

func TestImportClearsPreviousOutputs(t *testing.T) {
	f := newFixture(t, &stubSpeech{transcribeResult: sampleResult()})

	f.engine.Dispatch(editor.SetSelection{Selection: editor.SelectionOf(3, 5)})
	f.engine.Dispatch(editor.SetReplaceText{Text: "old line"})
	f.engine.Dispatch(editor.SetPreviewURL{URL: "http://media/preview-old.wav"})
	f.engine.Dispatch(editor.SetFinalURL{URL: "http://media/final-old.wav"})

	f.importMedia(t)

	state := f.engine.Snapshot()
	if state.HasSelection() || state.ReplaceText != "" || state.PreviewURL != "" || state.FinalURL != "" {
		t.Errorf("stale outputs survived import: %+v", state)
	}
}

func TestImportFailureSetsErrorAndFailsEntry(t *testing.T) {
	stub := &stubSpeech{
		transcribeErr: services.Wrap(services.ErrTranscription, "transcribe", "source unreachable", nil),
	}
	f := newFixture(t, stub)

	err := f.engine.Import(context.Background(), speech.Source{URL: "http://media/in.mp4"})
	if !errors.Is(err, services.ErrTranscription) {
		t.Fatalf("Import error = %v, want transcription marker", err)
	}

	state := f.engine.Snapshot()
	if state.Busy {
		t.Error("busy not cleared after failure")
	}
	if state.Error == "" {
		t.Error("state error not set")
	}
	if state.JobID != "" {
		t.Errorf("failed import set JobID %q", state.JobID)
	}

	entry := f.onlyJob(t, queue.KindTranscribe)
	if entry.Status != queue.StatusFailed {
		t.Errorf("entry status = %q, want failed", entry.Status)
	}
	if entry.ErrorMessage == "" {
		t.Error("entry missing error message")
	}
}

func TestOperationRejectedWhileBusy(t *testing.T) {
	f := newFixture(t, &stubSpeech{transcribeResult: sampleResult()})

	f.engine.Dispatch(editor.SetBusy{Busy: true, Status: "working"})
	err := f.engine.Import(context.Background(), speech.Source{URL: "http://media/in.mp4"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Import while busy = %v, want validation error", err)
	}

	jobs, listErr := f.store.List(context.Background())
	if listErr != nil {
		t.Fatalf("List: %v", listErr)
	}
	if len(jobs) != 0 {
		t.Errorf("rejected launch created %d queue entries", len(jobs))
	}
}

func TestAlignFullReplacesTranscript(t *testing.T) {
	stub := &stubSpeech{transcribeResult: sampleResult(), alignResult: sampleTranscript()}
	stub.alignResult.Note = "refined"
	f := newFixture(t, stub)
	f.importMedia(t)

	if err := f.engine.AlignFull(context.Background()); err != nil {
		t.Fatalf("AlignFull: %v", err)
	}

	state := f.engine.Snapshot()
	if state.Transcript == nil || state.Transcript.Note != "refined" {
		t.Error("transcript not replaced by alignment")
	}
	if state.Busy {
		t.Error("busy not cleared")
	}

	entry := f.onlyJob(t, queue.KindAlignFull)
	if entry.Status != queue.StatusDone {
		t.Errorf("entry status = %q, want done", entry.Status)
	}
}

func TestAlignFullRequiresImport(t *testing.T) {
	f := newFixture(t, &stubSpeech{})

	if err := f.engine.AlignFull(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("AlignFull without media = %v, want validation error", err)
	}
}

func TestAlignRegionUsesSelectionAndDefaultMargin(t *testing.T) {
	stub := &stubSpeech{transcribeResult: sampleResult(), alignResult: sampleTranscript()}
	f := newFixture(t, stub)
	f.importMedia(t)
	f.engine.Dispatch(editor.SetSelection{Selection: editor.SelectionOf(10, 14)})

	if err := f.engine.AlignRegion(context.Background(), editor.Selection{}, 0); err != nil {
		t.Fatalf("AlignRegion: %v", err)
	}

	call := stub.lastRegionCall(t)
	if call.jobID != "job-1" {
		t.Errorf("jobID = %q", call.jobID)
	}
	if call.start != 10 || call.end != 14 {
		t.Errorf("range = [%v, %v], want [10, 14]", call.start, call.end)
	}
	if call.margin != f.cfg.Editor.AlignMargin {
		t.Errorf("margin = %v, want configured default %v", call.margin, f.cfg.Editor.AlignMargin)
	}
}

func TestAlignRegionExplicitBoundsOverrideSelection(t *testing.T) {
	stub := &stubSpeech{transcribeResult: sampleResult(), alignResult: sampleTranscript()}
	f := newFixture(t, stub)
	f.importMedia(t)
	f.engine.Dispatch(editor.SetSelection{Selection: editor.SelectionOf(10, 14)})

	if err := f.engine.AlignRegion(context.Background(), editor.SelectionOf(20, 25), 1.5); err != nil {
		t.Fatalf("AlignRegion: %v", err)
	}

	call := stub.lastRegionCall(t)
	if call.start != 20 || call.end != 25 || call.margin != 1.5 {
		t.Errorf("call = %+v, want [20, 25] margin 1.5", call)
	}
}

func TestAlignRegionRequiresSelection(t *testing.T) {
	stub := &stubSpeech{transcribeResult: sampleResult()}
	f := newFixture(t, stub)
	f.importMedia(t)

	err := f.engine.AlignRegion(context.Background(), editor.Selection{}, 0)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("AlignRegion without selection = %v, want validation error", err)
	}
}

func TestReplacePreviewCarriesVoiceAndTiming(t *testing.T) {
	stub := &stubSpeech{transcribeResult: sampleResult(), previewURL: "http://media/preview.wav"}
	f := newFixture(t, stub)
	f.importMedia(t)

	f.engine.Dispatch(editor.SetSelection{Selection: editor.SelectionOf(4, 8)})
	f.engine.Dispatch(editor.SetReplaceText{Text: "better line"})
	f.engine.Dispatch(editor.SetVoiceMode{Mode: editor.VoiceNamed})
	f.engine.Dispatch(editor.SetVoiceID{ID: "voice-9"})
	fade := 25
	f.engine.Dispatch(editor.PatchTiming{FadeMs: &fade})

	if err := f.engine.ReplacePreview(context.Background()); err != nil {
		t.Fatalf("ReplacePreview: %v", err)
	}

	req := stub.replaceReq
	if req.JobID != "job-1" || req.Start != 4 || req.End != 8 {
		t.Errorf("request identity = %+v", req)
	}
	if req.Text != "better line" {
		t.Errorf("request text = %q", req.Text)
	}
	if req.Voice.Mode != editor.VoiceNamed || req.Voice.VoiceID != "voice-9" {
		t.Errorf("request voice = %+v", req.Voice)
	}
	if req.Timing.FadeMs != 25 {
		t.Errorf("request fade = %d, want 25", req.Timing.FadeMs)
	}

	state := f.engine.Snapshot()
	if state.PreviewURL != "http://media/preview.wav" {
		t.Errorf("PreviewURL = %q", state.PreviewURL)
	}
	entry := f.onlyJob(t, queue.KindReplacePreview)
	if entry.Status != queue.StatusDone || entry.ResultURL != "http://media/preview.wav" {
		t.Errorf("entry = %q/%q", entry.Status, entry.ResultURL)
	}
}

func TestReplacePreviewAdvancesToExportStep(t *testing.T) {
	stub := &stubSpeech{transcribeResult: sampleResult(), previewURL: "http://media/preview.wav"}
	f := newFixture(t, stub)
	f.importMedia(t)
	f.engine.Dispatch(editor.SetSelection{Selection: editor.SelectionOf(4, 8)})
	f.engine.Dispatch(editor.SetReplaceText{Text: "better line"})

	if err := f.engine.ReplacePreview(context.Background()); err != nil {
		t.Fatalf("ReplacePreview: %v", err)
	}

	if step := f.engine.Snapshot().Step; step != editor.StepExport {
		t.Errorf("step after preview = %q, want export", step)
	}
}

func TestAlignFullClampsTranscriptTimings(t *testing.T) {
	aligned := sampleTranscript()
	aligned.Words[0].Start = -0.4
	stub := &stubSpeech{transcribeResult: sampleResult(), alignResult: aligned}
	f := newFixture(t, stub)
	f.importMedia(t)

	if err := f.engine.AlignFull(context.Background()); err != nil {
		t.Fatalf("AlignFull: %v", err)
	}

	if got := f.engine.Snapshot().Transcript.Words[0].Start; got != 0 {
		t.Errorf("negative word start = %v, want clamped to 0", got)
	}
}

func TestReplacePreviewRequiresSelectionAndText(t *testing.T) {
	f := newFixture(t, &stubSpeech{transcribeResult: sampleResult()})
	f.importMedia(t)

	if err := f.engine.ReplacePreview(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("ReplacePreview = %v, want validation error", err)
	}
}

func TestApplyCommitsFinalURL(t *testing.T) {
	stub := &stubSpeech{
		transcribeResult: sampleResult(),
		previewURL:       "http://media/preview.wav",
		finalURL:         "http://media/final.wav",
	}
	f := newFixture(t, stub)
	f.importMedia(t)
	f.engine.Dispatch(editor.SetSelection{Selection: editor.SelectionOf(4, 8)})
	f.engine.Dispatch(editor.SetReplaceText{Text: "better line"})
	if err := f.engine.ReplacePreview(context.Background()); err != nil {
		t.Fatalf("ReplacePreview: %v", err)
	}

	if err := f.engine.Apply(context.Background()); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	state := f.engine.Snapshot()
	if state.FinalURL != "http://media/final.wav" {
		t.Errorf("FinalURL = %q", state.FinalURL)
	}
	entry := f.onlyJob(t, queue.KindApply)
	if entry.Status != queue.StatusDone {
		t.Errorf("entry status = %q, want done", entry.Status)
	}
}

func TestApplyRequiresPreview(t *testing.T) {
	f := newFixture(t, &stubSpeech{transcribeResult: sampleResult()})
	f.importMedia(t)

	if err := f.engine.Apply(context.Background()); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Apply without preview = %v, want validation error", err)
	}
}

func TestStaleResultDiscarded(t *testing.T) {
	f := newFixture(t, &stubSpeech{transcribeResult: sampleResult()})
	f.importMedia(t)

	ctx := context.Background()
	entry, err := f.store.Add(ctx, queue.KindAlignFull, "Full alignment", "job-0", "req-old")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	op := &operation{kind: queue.KindAlignFull, entry: entry, jobID: "job-0"}

	stale := sampleTranscript()
	stale.Note = "stale"
	commitErr := f.engine.commit(ctx, op, "", editor.SetTranscript{Transcript: stale})
	if !services.IsStale(commitErr) {
		t.Fatalf("commit = %v, want stale marker", commitErr)
	}

	state := f.engine.Snapshot()
	if state.Transcript == nil || state.Transcript.Note == "stale" {
		t.Error("stale transcript reached the state")
	}
	if state.Busy {
		t.Error("busy not cleared after stale discard")
	}
	if state.Error != "" {
		t.Errorf("stale discard surfaced error %q", state.Error)
	}

	got, err := f.store.GetByID(ctx, entry.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != queue.StatusCanceled {
		t.Errorf("entry status = %q, want canceled", got.Status)
	}
}

func TestRefreshStatsFeedsThroughputTable(t *testing.T) {
	f := newFixture(t, &stubSpeech{})

	seedRatio(t, f, progress.KindTranscribe, 8)

	ratio, ok := f.engine.Throughput().Ratio(progress.KindTranscribe)
	if !ok || ratio != 8 {
		t.Errorf("ratio = %v/%v, want 8", ratio, ok)
	}
}

func TestRefreshStatsDegradesSilently(t *testing.T) {
	stub := &stubSpeech{statsErr: services.Wrap(services.ErrUnavailable, "stats", "fetch failed", nil)}
	f := newFixture(t, stub)

	if err := f.engine.RefreshStats(context.Background()); err != nil {
		t.Fatalf("RefreshStats should degrade, got %v", err)
	}
}

func TestEstimatorReportsProgressDuringOperation(t *testing.T) {
	stub := &stubSpeech{
		transcribeResult: sampleResult(),
		alignResult:      sampleTranscript(),
		alignDelay:       80 * time.Millisecond,
	}
	f := newFixture(t, stub, WithEstimatorOptions(progress.WithTickInterval(5*time.Millisecond)))
	f.importMedia(t)
	seedRatio(t, f, progress.KindAlignFull, 10)

	before := f.engine.Hub().LastSeq()
	if err := f.engine.AlignFull(context.Background()); err != nil {
		t.Fatalf("AlignFull: %v", err)
	}

	var ticks int
	for _, ev := range f.engine.Hub().Since(before) {
		if ev.Type == EventProgress {
			ticks++
			if ev.Progress.Percent < 0 || ev.Progress.Percent > 100 {
				t.Errorf("tick percent out of range: %v", ev.Progress.Percent)
			}
		}
	}
	if ticks == 0 {
		t.Error("expected at least one progress tick")
	}
}
