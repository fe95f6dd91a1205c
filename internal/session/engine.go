package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"redub/internal/config"
	"redub/internal/editor"
	"redub/internal/logging"
	"redub/internal/prefs"
	"redub/internal/progress"
	"redub/internal/queue"
	"redub/internal/services/speech"
	"redub/internal/transcript"
)

// SpeechService is the remote-operations surface the engine drives. The HTTP
// client in services/speech satisfies it; tests substitute a stub.
type SpeechService interface {
	Transcribe(ctx context.Context, source speech.Source) (speech.TranscribeResult, error)
	EstimateDuration(ctx context.Context, mediaURL string) (float64, error)
	AlignFull(ctx context.Context, jobID string) (*transcript.Transcript, error)
	AlignRegion(ctx context.Context, jobID string, start, end, margin float64) (*transcript.Transcript, error)
	ReplacePreview(ctx context.Context, req speech.ReplaceRequest) (string, error)
	ApplyToFinal(ctx context.Context, jobID string) (string, error)
	OperationStats(ctx context.Context) (speech.Stats, error)
	Voices(ctx context.Context, engineID string) ([]speech.Voice, error)
	Favorites(ctx context.Context) ([]speech.Favorite, error)
}

// Engine owns one editing session: the state aggregate, the queue log, the
// progress estimator, and the event hub. All state mutations funnel through
// Dispatch or the operation methods; reads go through Snapshot.
type Engine struct {
	cfg    *config.Config
	store  *queue.Store
	svc    SpeechService
	prefs  prefs.Store
	logger *slog.Logger

	ratios    *progress.Throughput
	estimator *progress.Estimator
	sampler   *logging.ProgressSampler
	hub       *Hub

	mu            sync.Mutex
	state         editor.State
	mediaDuration float64
}

// Option configures optional engine behavior.
type Option func(*engineOptions)

type engineOptions struct {
	estimatorOpts []progress.Option
}

// WithEstimatorOptions appends options to the progress estimator, letting
// tests inject a fake clock or a short tick interval.
func WithEstimatorOptions(opts ...progress.Option) Option {
	return func(o *engineOptions) {
		o.estimatorOpts = append(o.estimatorOpts, opts...)
	}
}

// New constructs an engine. Preferences are hydrated once, here; a malformed
// preferences file surfaces as an error rather than silently resetting the
// user's choices.
func New(cfg *config.Config, store *queue.Store, svc SpeechService, prefStore prefs.Store, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	options := &engineOptions{}
	for _, opt := range opts {
		opt(options)
	}

	saved, err := prefStore.Load()
	if err != nil {
		return nil, err
	}

	state := editor.NewState()
	if mode, ok := editor.ParseVoiceMode(saved.VoiceMode); ok {
		state.VoiceMode = mode
	}
	state.VoiceID = saved.VoiceID
	state.FavoriteVoiceID = saved.FavoriteVoiceID
	state.Timing = saved.Timing

	ratios := progress.NewThroughput()
	estimatorOpts := []progress.Option{
		progress.WithTickInterval(time.Duration(cfg.Editor.ProgressTick) * time.Second),
		progress.WithSafetyMargin(time.Duration(cfg.Editor.ProgressSafety) * time.Second),
	}
	estimatorOpts = append(estimatorOpts, options.estimatorOpts...)

	return &Engine{
		cfg:       cfg,
		store:     store,
		svc:       svc,
		prefs:     prefStore,
		logger:    logging.NewComponentLogger(logger, "session"),
		ratios:    ratios,
		estimator: progress.NewEstimator(ratios, estimatorOpts...),
		sampler:   logging.NewProgressSampler(10),
		hub:       NewHub(),
		state:     state,
	}, nil
}

// Hub returns the session event stream.
func (e *Engine) Hub() *Hub {
	return e.hub
}

// Throughput returns the shared operation throughput table.
func (e *Engine) Throughput() *progress.Throughput {
	return e.ratios
}

// Close stops the estimator and tears down event subscriptions.
func (e *Engine) Close() {
	e.estimator.Stop()
	e.hub.Close()
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() editor.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// MediaDuration returns the duration of the imported media in seconds, zero
// when nothing has been imported.
func (e *Engine) MediaDuration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mediaDuration
}

// Suggest computes the non-binding next-step affordance for the current
// state.
func (e *Engine) Suggest() (editor.Step, bool) {
	return editor.SuggestNext(e.Snapshot())
}

// Dispatch applies one editor action and broadcasts the resulting state.
// Voice and timing mutations are written through to the preference store so
// they survive restarts.
func (e *Engine) Dispatch(action editor.Action) editor.State {
	snap := e.transition(action)
	if persistsPrefs(action) {
		e.savePrefs(snap)
	}
	return snap
}

// transition applies actions atomically and publishes the state snapshot.
func (e *Engine) transition(actions ...editor.Action) editor.State {
	e.mu.Lock()
	for _, action := range actions {
		e.state = editor.Apply(e.state, action)
	}
	snap := e.state
	e.mu.Unlock()

	e.publishState(snap)
	return snap
}

func persistsPrefs(action editor.Action) bool {
	switch action.(type) {
	case editor.SetVoiceMode, editor.SetVoiceID, editor.SetFavoriteVoice, editor.PatchTiming:
		return true
	default:
		return false
	}
}

// savePrefs persists the voice and timing fields. Failures are logged, never
// surfaced: losing a preference write must not interrupt editing.
func (e *Engine) savePrefs(state editor.State) {
	saved := prefs.Prefs{
		VoiceMode:       string(state.VoiceMode),
		VoiceID:         state.VoiceID,
		FavoriteVoiceID: state.FavoriteVoiceID,
		Timing:          state.Timing,
	}
	if err := e.prefs.Save(saved); err != nil {
		e.logger.Warn("preference write failed", logging.Error(err))
	}
}

func (e *Engine) publishState(state editor.State) {
	e.hub.publish(Event{Type: EventState, State: &state})
}

func (e *Engine) publishProgress(entryID int64, kind queue.Kind, percent float64, message string) {
	e.hub.publish(Event{Type: EventProgress, Progress: &ProgressUpdate{
		EntryID: entryID,
		Kind:    kind,
		Percent: percent,
		Message: message,
	}})
}

func (e *Engine) publishQueue(entryID int64, kind queue.Kind, status queue.Status) {
	e.hub.publish(Event{Type: EventQueue, Queue: &QueueUpdate{
		EntryID: entryID,
		Kind:    kind,
		Status:  status,
	}})
}
