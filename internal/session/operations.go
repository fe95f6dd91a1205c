package session

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"

	"redub/internal/editor"
	"redub/internal/language"
	"redub/internal/logging"
	"redub/internal/progress"
	"redub/internal/queue"
	"redub/internal/services"
	"redub/internal/services/speech"
)

// operation tracks one in-flight remote call: its queue entry plus the job
// identity captured when it launched, used to detect late results.
type operation struct {
	kind      queue.Kind
	entry     *queue.Job
	jobID     string
	requestID string
}

// Import transcribes new media and establishes a fresh editing job. The
// previous selection, replace text, and rendered outputs are cleared because
// they refer to media that no longer backs the session.
func (e *Engine) Import(ctx context.Context, source speech.Source) error {
	ctx, op, err := e.begin(ctx, queue.KindTranscribe, importLabel(source), "Transcribing media")
	if err != nil {
		return err
	}

	var estimate float64
	if source.URL != "" {
		if d, derr := e.svc.EstimateDuration(ctx, source.URL); derr == nil && d > 0 {
			estimate = d
		}
	}
	tick := e.startEstimate(op, progress.KindTranscribe, estimate, "Transcribing media")

	result, err := e.svc.Transcribe(ctx, source)
	tick.Cancel()
	if err != nil {
		return e.fail(ctx, op, err)
	}

	e.mu.Lock()
	e.mediaDuration = result.Media.Duration
	e.mu.Unlock()

	if result.Transcript != nil {
		if code := language.Normalize(result.Transcript.Language); code != "" {
			result.Transcript.Language = code
		}
		result.Transcript = result.Transcript.Clamped()
	}

	return e.commit(ctx, op, result.Media.AudioURL,
		editor.SetJob{JobID: result.JobID, AudioURL: result.Media.AudioURL},
		editor.SetTranscript{Transcript: result.Transcript},
		editor.SetAlignmentAvailable{Available: result.AlignmentAvailable},
		editor.SetSelection{},
		editor.SetReplaceText{},
		editor.SetPreviewURL{},
		editor.SetFinalURL{},
		editor.SetStep{Step: editor.StepAlign},
	)
}

// AlignFull re-runs fine alignment over the whole job and replaces the
// transcript.
func (e *Engine) AlignFull(ctx context.Context) error {
	if e.Snapshot().JobID == "" {
		return services.Wrap(services.ErrValidation, "align-full", "no media imported", nil)
	}

	ctx, op, err := e.begin(ctx, queue.KindAlignFull, "Full alignment", "Aligning transcript")
	if err != nil {
		return err
	}

	tick := e.startEstimate(op, progress.KindAlignFull, e.MediaDuration(), "Aligning transcript")

	result, err := e.svc.AlignFull(ctx, op.jobID)
	tick.Cancel()
	if err != nil {
		return e.fail(ctx, op, err)
	}

	return e.commit(ctx, op, "", editor.SetTranscript{Transcript: result.Clamped()})
}

// AlignRegion re-aligns only the given time range. An invalid sel falls back
// to the current selection; a non-positive margin falls back to the
// configured default.
func (e *Engine) AlignRegion(ctx context.Context, sel editor.Selection, margin float64) error {
	snap := e.Snapshot()
	if snap.JobID == "" {
		return services.Wrap(services.ErrValidation, "align-region", "no media imported", nil)
	}
	if !sel.Valid() {
		sel = snap.Selection
	}
	start, end, ok := sel.Bounds()
	if !ok {
		return services.Wrap(services.ErrValidation, "align-region", "no time range selected", nil)
	}
	if margin <= 0 {
		margin = e.cfg.Editor.AlignMargin
	}

	ctx, op, err := e.begin(ctx, queue.KindAlignRegion, "Region alignment", "Aligning selection")
	if err != nil {
		return err
	}

	tick := e.startEstimate(op, progress.KindAlignRegion, (end-start)+2*margin, "Aligning selection")

	result, err := e.svc.AlignRegion(ctx, op.jobID, start, end, margin)
	tick.Cancel()
	if err != nil {
		return e.fail(ctx, op, err)
	}

	return e.commit(ctx, op, "", editor.SetTranscript{Transcript: result.Clamped()})
}

// ReplacePreview renders synthesized speech over the current selection with
// the current text, voice, and timing, and records the preview URL.
func (e *Engine) ReplacePreview(ctx context.Context) error {
	snap := e.Snapshot()
	if !snap.CanReplace() {
		return services.Wrap(services.ErrValidation, "replace-preview", "selection and replace text required", nil)
	}
	start, end, _ := snap.Selection.Bounds()

	ctx, op, err := e.begin(ctx, queue.KindReplacePreview, "Replace preview", "Rendering preview")
	if err != nil {
		return err
	}

	previewURL, err := e.svc.ReplacePreview(ctx, speech.ReplaceRequest{
		JobID:  op.jobID,
		Start:  start,
		End:    end,
		Text:   snap.ReplaceText,
		Timing: snap.Timing,
		Voice: speech.VoiceSelector{
			Mode:       snap.VoiceMode,
			VoiceID:    snap.VoiceID,
			FavoriteID: snap.FavoriteVoiceID,
		},
	})
	if err != nil {
		return e.fail(ctx, op, err)
	}

	return e.commit(ctx, op, previewURL,
		editor.SetPreviewURL{URL: previewURL},
		editor.SetStep{Step: editor.StepExport},
	)
}

// Apply commits the current preview into the final output.
func (e *Engine) Apply(ctx context.Context) error {
	snap := e.Snapshot()
	if !snap.CanApply() {
		return services.Wrap(services.ErrValidation, "apply", "no preview to apply", nil)
	}

	ctx, op, err := e.begin(ctx, queue.KindApply, "Apply to final", "Applying preview")
	if err != nil {
		return err
	}

	finalURL, err := e.svc.ApplyToFinal(ctx, op.jobID)
	if err != nil {
		return e.fail(ctx, op, err)
	}

	return e.commit(ctx, op, finalURL, editor.SetFinalURL{URL: finalURL})
}

// RefreshStats folds the latest server-side throughput ratios into the
// estimator table. Best-effort: a failed fetch leaves the table unchanged.
func (e *Engine) RefreshStats(ctx context.Context) error {
	stats, err := e.svc.OperationStats(ctx)
	if err != nil {
		if services.Degradable(err) {
			e.logger.Debug("throughput refresh skipped", logging.Error(err))
			return nil
		}
		return err
	}
	ratios := make(map[progress.Kind]float64, len(stats.Throughput))
	for kind, ratio := range stats.Throughput {
		ratios[progress.Kind(kind)] = ratio
	}
	e.ratios.Update(ratios)
	return nil
}

// Voices lists selectable voices for the configured synthesis engine.
func (e *Engine) Voices(ctx context.Context) ([]speech.Voice, error) {
	return e.svc.Voices(ctx, e.cfg.Speech.Engine)
}

// Favorites lists the user's saved voices.
func (e *Engine) Favorites(ctx context.Context) ([]speech.Favorite, error) {
	return e.svc.Favorites(ctx)
}

// begin gates and records a new operation: it rejects a launch while another
// operation is in flight, flips busy with the human status line, clears any
// previous error, and opens the Rendering queue entry.
func (e *Engine) begin(ctx context.Context, kind queue.Kind, label, status string) (context.Context, *operation, error) {
	requestID := uuid.NewString()

	e.mu.Lock()
	if e.state.Busy {
		e.mu.Unlock()
		return ctx, nil, services.Wrap(services.ErrValidation, string(kind), "another operation is in flight", nil)
	}
	jobID := e.state.JobID
	e.state = editor.Apply(e.state, editor.SetBusy{Busy: true, Status: status})
	e.state = editor.Apply(e.state, editor.SetError{})
	snap := e.state
	e.mu.Unlock()
	e.publishState(snap)

	entry, err := e.store.Add(ctx, kind, label, jobID, requestID)
	if err != nil {
		e.transition(editor.SetBusy{}, editor.SetError{Message: services.UserMessage(err)})
		return ctx, nil, err
	}
	e.publishQueue(entry.ID, kind, queue.StatusRendering)

	ctx = services.WithOperation(ctx, string(kind))
	ctx = services.WithRequestID(ctx, requestID)
	if jobID != "" {
		ctx = services.WithJobID(ctx, jobID)
	}

	e.logger.Info("operation started",
		logging.String(logging.FieldKind, string(kind)),
		logging.Int64(logging.FieldRenderID, entry.ID),
		logging.String(logging.FieldRequestID, requestID),
	)
	return ctx, &operation{kind: kind, entry: entry, jobID: jobID, requestID: requestID}, nil
}

// startEstimate begins a progress estimate for the operation when a media
// duration and a throughput ratio exist. A nil return means indeterminate
// progress; Cancel on the nil job is a no-op.
func (e *Engine) startEstimate(op *operation, kind progress.Kind, mediaSeconds float64, message string) *progress.Job {
	job := e.estimator.Start(kind, mediaSeconds, func(percent float64) {
		if err := e.store.SetProgress(context.Background(), op.entry.ID, percent, message); err != nil {
			e.logger.Debug("progress write failed", logging.Error(err))
		}
		e.publishProgress(op.entry.ID, op.kind, percent, message)
		if e.sampler.ShouldLog(percent, string(kind)) {
			e.logger.Info("operation progress",
				logging.String(logging.FieldKind, string(kind)),
				logging.Int64(logging.FieldRenderID, op.entry.ID),
				logging.Float64(logging.FieldProgressPercent, percent),
			)
		}
	})
	if job == nil {
		e.logger.Debug("no throughput estimate", logging.String(logging.FieldKind, string(kind)))
	}
	return job
}

// commit finishes a successful operation. When the session job changed while
// the call was in flight the result is stale: the queue entry is canceled,
// busy is cleared, and nothing touches the state fields.
func (e *Engine) commit(ctx context.Context, op *operation, resultURL string, actions ...editor.Action) error {
	e.mu.Lock()
	if op.jobID != "" && e.state.JobID != op.jobID {
		e.mu.Unlock()
		e.sampler.Reset()
		if err := e.store.MarkCanceled(ctx, op.entry.ID, "superseded by a newer import"); err != nil {
			e.logger.Warn("queue update failed", logging.Error(err))
		}
		e.publishQueue(op.entry.ID, op.kind, queue.StatusCanceled)
		e.transition(editor.SetBusy{})
		e.logger.Info("stale result discarded",
			logging.String(logging.FieldKind, string(op.kind)),
			logging.Int64(logging.FieldRenderID, op.entry.ID),
		)
		return services.Wrap(services.ErrStale, string(op.kind), "job changed while rendering", nil)
	}
	for _, action := range actions {
		e.state = editor.Apply(e.state, action)
	}
	e.state = editor.Apply(e.state, editor.SetBusy{})
	snap := e.state
	e.mu.Unlock()
	e.publishState(snap)

	e.sampler.Reset()
	if err := e.store.MarkDone(ctx, op.entry.ID, resultURL); err != nil {
		e.logger.Warn("queue update failed", logging.Error(err))
	}
	e.publishQueue(op.entry.ID, op.kind, queue.StatusDone)

	e.logger.Info("operation finished",
		logging.String(logging.FieldKind, string(op.kind)),
		logging.Int64(logging.FieldRenderID, op.entry.ID),
	)
	return nil
}

// fail finishes a failed operation: the most recent still-Rendering entry of
// the same kind gets the error message, the state records the normalized
// error text, and busy clears.
func (e *Engine) fail(ctx context.Context, op *operation, opErr error) error {
	e.sampler.Reset()

	message := services.UserMessage(opErr)
	if latest, err := e.store.LatestRendering(ctx, op.kind); err != nil {
		e.logger.Warn("queue lookup failed", logging.Error(err))
	} else if latest != nil {
		if err := e.store.MarkFailed(ctx, latest.ID, message); err != nil {
			e.logger.Warn("queue update failed", logging.Error(err))
		}
		e.publishQueue(latest.ID, op.kind, queue.StatusFailed)
	}

	e.transition(editor.SetBusy{}, editor.SetError{Message: message})

	logging.ErrorWithContext(e.logger, "operation failed", "operation_failed",
		logging.String(logging.FieldKind, string(op.kind)),
		logging.Int64(logging.FieldRenderID, op.entry.ID),
		logging.Error(opErr),
	)
	return opErr
}

func importLabel(source speech.Source) string {
	if source.URL != "" {
		return source.URL
	}
	if source.FilePath != "" {
		return filepath.Base(source.FilePath)
	}
	return "import"
}
