package progress_test

import (
	"sync"
	"testing"
	"time"

	"redub/internal/progress"
)

// fakeClock advances only when told to, keeping tick math deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestStartWithoutRatioReturnsNil(t *testing.T) {
	ratios := progress.NewThroughput()
	est := progress.NewEstimator(ratios)

	if job := est.Start(progress.KindTranscribe, 600, nil); job != nil {
		t.Fatal("unknown throughput must skip estimation")
	}

	ratios.Update(map[progress.Kind]float64{progress.KindTranscribe: 10})
	if job := est.Start(progress.KindTranscribe, 0, nil); job != nil {
		t.Fatal("unknown duration must skip estimation")
	}
}

func TestProgressReachesHalfAtHalfProjectedTime(t *testing.T) {
	// 600s of media at a real-time factor of 10 projects 60s of wall time,
	// so 30s elapsed should report ~50%.
	clock := newFakeClock()
	ratios := progress.NewThroughput()
	ratios.Update(map[progress.Kind]float64{progress.KindTranscribe: 10})
	est := progress.NewEstimator(ratios,
		progress.WithTickInterval(time.Millisecond),
		progress.WithClock(clock.Now),
	)

	job := est.Start(progress.KindTranscribe, 600, nil)
	if job == nil {
		t.Fatal("expected an estimating job")
	}
	defer job.Cancel()

	clock.Advance(30 * time.Second)
	waitFor(t, "50%", func() bool { return job.Percent() >= 49.9 && job.Percent() <= 50.1 })
}

func TestProgressMonotonicAndClamped(t *testing.T) {
	clock := newFakeClock()
	ratios := progress.NewThroughput()
	ratios.Update(map[progress.Kind]float64{progress.KindAlignFull: 2})
	est := progress.NewEstimator(ratios,
		progress.WithTickInterval(time.Millisecond),
		progress.WithClock(clock.Now),
		progress.WithSafetyMargin(time.Hour),
	)

	var mu sync.Mutex
	var seen []float64
	job := est.Start(progress.KindAlignFull, 10, func(percent float64) {
		mu.Lock()
		seen = append(seen, percent)
		mu.Unlock()
	})
	if job == nil {
		t.Fatal("expected an estimating job")
	}
	defer job.Cancel()

	// Walk well past the projected 5s total; ticks must clamp at 100.
	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		time.Sleep(5 * time.Millisecond)
	}
	waitFor(t, "clamp at 100", func() bool { return job.Percent() == 100 })

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("progress regressed: %v -> %v", seen[i-1], seen[i])
		}
	}
	if last := seen[len(seen)-1]; last != 100 {
		t.Fatalf("final tick = %v, want 100", last)
	}
}

func TestSafetyTimeoutCancelsJob(t *testing.T) {
	clock := newFakeClock()
	ratios := progress.NewThroughput()
	ratios.Update(map[progress.Kind]float64{progress.KindAlignRegion: 1})
	est := progress.NewEstimator(ratios,
		progress.WithTickInterval(time.Millisecond),
		progress.WithClock(clock.Now),
		progress.WithSafetyMargin(10*time.Second),
	)

	job := est.Start(progress.KindAlignRegion, 5, nil)
	if job == nil {
		t.Fatal("expected an estimating job")
	}

	// Projected total 5s + 10s safety margin.
	clock.Advance(16 * time.Second)
	waitFor(t, "safety cancellation", job.Done)
}

func TestStartCancelsPreviousJob(t *testing.T) {
	clock := newFakeClock()
	ratios := progress.NewThroughput()
	ratios.Update(map[progress.Kind]float64{
		progress.KindTranscribe: 10,
		progress.KindAlignFull:  10,
	})
	est := progress.NewEstimator(ratios,
		progress.WithTickInterval(time.Millisecond),
		progress.WithClock(clock.Now),
	)

	first := est.Start(progress.KindTranscribe, 600, nil)
	second := est.Start(progress.KindAlignFull, 600, nil)
	if first == nil || second == nil {
		t.Fatal("expected both jobs to start")
	}
	defer second.Cancel()

	waitFor(t, "previous timer cancelled", first.Done)
	if second.Done() {
		t.Fatal("new job must keep running")
	}
}

func TestStopCancelsActiveJob(t *testing.T) {
	ratios := progress.NewThroughput()
	ratios.Update(map[progress.Kind]float64{progress.KindTranscribe: 10})
	est := progress.NewEstimator(ratios, progress.WithTickInterval(time.Millisecond))

	job := est.Start(progress.KindTranscribe, 600, nil)
	if job == nil {
		t.Fatal("expected an estimating job")
	}
	est.Stop()
	waitFor(t, "teardown cancellation", job.Done)
}

func TestThroughputIgnoresBadRatios(t *testing.T) {
	ratios := progress.NewThroughput()
	ratios.Update(map[progress.Kind]float64{progress.KindTranscribe: 8})
	ratios.Update(map[progress.Kind]float64{progress.KindTranscribe: -1, progress.KindAlignFull: 0})

	if ratio, ok := ratios.Ratio(progress.KindTranscribe); !ok || ratio != 8 {
		t.Fatalf("existing ratio clobbered: %v %v", ratio, ok)
	}
	if _, ok := ratios.Ratio(progress.KindAlignFull); ok {
		t.Fatal("zero ratio must not be stored")
	}
}
