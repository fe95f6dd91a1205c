package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"redub/internal/config"
	"redub/internal/editor"
	"redub/internal/logging"
	"redub/internal/prefs"
	"redub/internal/progress"
	"redub/internal/queue"
	"redub/internal/services/speech"
	"redub/internal/testsupport"
	"redub/internal/transcript"
)

type regionCall struct {
	jobID  string
	start  float64
	end    float64
	margin float64
}

// stubSpeech is a scriptable SpeechService for engine tests.
type stubSpeech struct {
	mu sync.Mutex

	transcribeResult speech.TranscribeResult
	transcribeErr    error
	transcribeDelay  time.Duration

	duration    float64
	durationErr error

	alignResult *transcript.Transcript
	alignErr    error
	alignDelay  time.Duration

	regionCalls []regionCall

	replaceReq speech.ReplaceRequest
	previewURL string
	replaceErr error

	finalURL string
	applyErr error

	stats    speech.Stats
	statsErr error

	voices    []speech.Voice
	favorites []speech.Favorite
}

func (s *stubSpeech) Transcribe(ctx context.Context, source speech.Source) (speech.TranscribeResult, error) {
	if s.transcribeDelay > 0 {
		time.Sleep(s.transcribeDelay)
	}
	return s.transcribeResult, s.transcribeErr
}

func (s *stubSpeech) EstimateDuration(ctx context.Context, mediaURL string) (float64, error) {
	return s.duration, s.durationErr
}

func (s *stubSpeech) AlignFull(ctx context.Context, jobID string) (*transcript.Transcript, error) {
	if s.alignDelay > 0 {
		time.Sleep(s.alignDelay)
	}
	return s.alignResult, s.alignErr
}

func (s *stubSpeech) AlignRegion(ctx context.Context, jobID string, start, end, margin float64) (*transcript.Transcript, error) {
	s.mu.Lock()
	s.regionCalls = append(s.regionCalls, regionCall{jobID, start, end, margin})
	s.mu.Unlock()
	return s.alignResult, s.alignErr
}

func (s *stubSpeech) ReplacePreview(ctx context.Context, req speech.ReplaceRequest) (string, error) {
	s.mu.Lock()
	s.replaceReq = req
	s.mu.Unlock()
	return s.previewURL, s.replaceErr
}

func (s *stubSpeech) ApplyToFinal(ctx context.Context, jobID string) (string, error) {
	return s.finalURL, s.applyErr
}

func (s *stubSpeech) OperationStats(ctx context.Context) (speech.Stats, error) {
	return s.stats, s.statsErr
}

func (s *stubSpeech) Voices(ctx context.Context, engineID string) ([]speech.Voice, error) {
	return s.voices, nil
}

func (s *stubSpeech) Favorites(ctx context.Context) ([]speech.Favorite, error) {
	return s.favorites, nil
}

func (s *stubSpeech) lastRegionCall(t *testing.T) regionCall {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.regionCalls) == 0 {
		t.Fatal("expected an align-region call")
	}
	return s.regionCalls[len(s.regionCalls)-1]
}

func sampleTranscript() *transcript.Transcript {
	return &transcript.Transcript{
		Language: "en",
		Duration: 120,
		Segments: []transcript.Segment{{Text: "hello world", Start: 0, End: 2}},
		Words: []transcript.Word{
			{Text: "hello", Start: 0, End: 1},
			{Text: "world", Start: 1, End: 2},
		},
	}
}

func sampleResult() speech.TranscribeResult {
	return speech.TranscribeResult{
		JobID:              "job-1",
		Media:              speech.Media{AudioURL: "http://media/audio.wav", Duration: 120},
		Transcript:         sampleTranscript(),
		AlignmentAvailable: true,
	}
}

type engineFixture struct {
	engine *Engine
	store  *queue.Store
	cfg    *config.Config
	prefs  *prefs.FileStore
	stub   *stubSpeech
}

func newFixture(t *testing.T, stub *stubSpeech, opts ...Option) *engineFixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	prefStore := prefs.NewFileStore(cfg.PrefsPath())

	engine, err := New(cfg, store, stub, prefStore, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(engine.Close)

	return &engineFixture{engine: engine, store: store, cfg: cfg, prefs: prefStore, stub: stub}
}

func (f *engineFixture) importMedia(t *testing.T) {
	t.Helper()
	if err := f.engine.Import(context.Background(), speech.Source{URL: "http://media/in.mp4"}); err != nil {
		t.Fatalf("Import: %v", err)
	}
}

func (f *engineFixture) onlyJob(t *testing.T, kind queue.Kind) *queue.Job {
	t.Helper()
	jobs, err := f.store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	for _, job := range jobs {
		if job.Kind == kind {
			return job
		}
	}
	t.Fatalf("no queue entry of kind %q", kind)
	return nil
}

func prefsWith(mode, voiceID, favoriteID string, timing editor.Timing) prefs.Prefs {
	return prefs.Prefs{
		VoiceMode:       mode,
		VoiceID:         voiceID,
		FavoriteVoiceID: favoriteID,
		Timing:          timing,
	}
}

func seedRatio(t *testing.T, f *engineFixture, kind progress.Kind, ratio float64) {
	t.Helper()
	f.stub.stats = speech.Stats{Throughput: map[string]float64{string(kind): ratio}}
	if err := f.engine.RefreshStats(context.Background()); err != nil {
		t.Fatalf("RefreshStats: %v", err)
	}
}
