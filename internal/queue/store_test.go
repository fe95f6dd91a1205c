package queue_test

import (
	"context"
	"testing"
	"time"

	"redub/internal/queue"
	"redub/internal/testsupport"
)

func TestAddStartsJobRendering(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job, err := store.Add(ctx, queue.KindTranscribe, "episode.mp3", "job-remote", "req-1")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if job.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if job.Status != queue.StatusRendering {
		t.Fatalf("unexpected status %q", job.Status)
	}
	if job.StartedAt == nil {
		t.Fatal("expected started timestamp")
	}
	if job.Kind != queue.KindTranscribe {
		t.Fatalf("unexpected kind %q", job.Kind)
	}
	if job.Label != "episode.mp3" || job.RemoteJobID != "job-remote" || job.RequestID != "req-1" {
		t.Fatalf("unexpected job fields: %+v", job)
	}
}

func TestSetProgressOnlyTouchesRenderingJobs(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job := testsupport.NewJob(t, store, queue.KindAlignFull, "align pass")
	if err := store.SetProgress(ctx, job.ID, 42.5, "aligning"); err != nil {
		t.Fatalf("SetProgress: %v", err)
	}

	updated, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.ProgressPercent != 42.5 || updated.ProgressMessage != "aligning" {
		t.Fatalf("unexpected progress: %+v", updated)
	}

	if err := store.MarkDone(ctx, job.ID, "https://cdn.example.com/out.wav"); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := store.SetProgress(ctx, job.ID, 10, "late tick"); err != nil {
		t.Fatalf("SetProgress after done: %v", err)
	}

	final, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if final.ProgressPercent != 100 {
		t.Fatalf("expected done progress preserved, got %v", final.ProgressPercent)
	}
	if final.Status != queue.StatusDone {
		t.Fatalf("unexpected status %q", final.Status)
	}
	if final.ResultURL != "https://cdn.example.com/out.wav" {
		t.Fatalf("unexpected result url %q", final.ResultURL)
	}
	if final.FinishedAt == nil {
		t.Fatal("expected finished timestamp")
	}
}

func TestMarkFailedRecordsMessage(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job := testsupport.NewJob(t, store, queue.KindReplacePreview, "preview")
	if err := store.MarkFailed(ctx, job.ID, "render failed: voice unavailable"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	failed, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if failed.Status != queue.StatusFailed {
		t.Fatalf("unexpected status %q", failed.Status)
	}
	if failed.ErrorMessage != "render failed: voice unavailable" {
		t.Fatalf("unexpected error message %q", failed.ErrorMessage)
	}
}

func TestLatestRenderingPrefersNewestJob(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.NewJob(t, store, queue.KindTranscribe, "first")
	second := testsupport.NewJob(t, store, queue.KindAlignRegion, "second")

	latest, err := store.LatestRendering(ctx, "")
	if err != nil {
		t.Fatalf("LatestRendering: %v", err)
	}
	if latest == nil || latest.ID != second.ID {
		t.Fatalf("expected job %d, got %+v", second.ID, latest)
	}

	byKind, err := store.LatestRendering(ctx, queue.KindTranscribe)
	if err != nil {
		t.Fatalf("LatestRendering by kind: %v", err)
	}
	if byKind == nil || byKind.ID != first.ID {
		t.Fatalf("expected job %d for kind filter, got %+v", first.ID, byKind)
	}

	if err := store.MarkCanceled(ctx, second.ID, "superseded"); err != nil {
		t.Fatalf("MarkCanceled: %v", err)
	}

	latest, err = store.LatestRendering(ctx, "")
	if err != nil {
		t.Fatalf("LatestRendering: %v", err)
	}
	if latest == nil || latest.ID != first.ID {
		t.Fatalf("expected job %d after cancel, got %+v", first.ID, latest)
	}

	none, err := store.LatestRendering(ctx, queue.KindApply)
	if err != nil {
		t.Fatalf("LatestRendering missing kind: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil for kind with no jobs, got %+v", none)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a := testsupport.NewJob(t, store, queue.KindTranscribe, "a")
	b := testsupport.NewJob(t, store, queue.KindApply, "b")
	if err := store.MarkDone(ctx, a.ID, ""); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(all))
	}
	if all[0].ID != b.ID {
		t.Fatalf("expected newest first, got job %d", all[0].ID)
	}

	rendering, err := store.List(ctx, queue.StatusRendering)
	if err != nil {
		t.Fatalf("List rendering: %v", err)
	}
	if len(rendering) != 1 || rendering[0].ID != b.ID {
		t.Fatalf("unexpected rendering jobs: %+v", rendering)
	}
}

func TestFailRenderingMarksAllInFlight(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.NewJob(t, store, queue.KindTranscribe, "one")
	testsupport.NewJob(t, store, queue.KindAlignFull, "two")

	affected, err := store.FailRendering(ctx, queue.DaemonStopReason)
	if err != nil {
		t.Fatalf("FailRendering: %v", err)
	}
	if affected != 2 {
		t.Fatalf("expected 2 affected, got %d", affected)
	}

	failed, err := store.List(ctx, queue.StatusFailed)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failed) != 2 {
		t.Fatalf("expected 2 failed jobs, got %d", len(failed))
	}
	for _, job := range failed {
		if job.ErrorMessage != queue.DaemonStopReason {
			t.Fatalf("unexpected error message %q", job.ErrorMessage)
		}
	}
}

func TestClearFinishedKeepsRenderingJobs(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	done := testsupport.NewJob(t, store, queue.KindTranscribe, "done")
	testsupport.NewJob(t, store, queue.KindApply, "live")
	if err := store.MarkDone(ctx, done.ID, ""); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}

	removed, err := store.ClearFinished(ctx)
	if err != nil {
		t.Fatalf("ClearFinished: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}

	remaining, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Status != queue.StatusRendering {
		t.Fatalf("unexpected remaining jobs: %+v", remaining)
	}
}

func TestHealthAggregatesCounts(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	a := testsupport.NewJob(t, store, queue.KindTranscribe, "a")
	b := testsupport.NewJob(t, store, queue.KindAlignFull, "b")
	testsupport.NewJob(t, store, queue.KindApply, "c")
	if err := store.MarkDone(ctx, a.ID, ""); err != nil {
		t.Fatalf("MarkDone: %v", err)
	}
	if err := store.MarkFailed(ctx, b.ID, "boom"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Total != 3 || health.Done != 1 || health.Failed != 1 || health.Rendering != 1 {
		t.Fatalf("unexpected health: %+v", health)
	}
}

func TestJobElapsed(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	finished := started.Add(90 * time.Second)
	job := queue.Job{StartedAt: &started, FinishedAt: &finished}
	if got := job.Elapsed(finished.Add(time.Hour)); got != 90*time.Second {
		t.Fatalf("unexpected elapsed %v", got)
	}

	running := queue.Job{StartedAt: &started}
	if got := running.Elapsed(started.Add(30 * time.Second)); got != 30*time.Second {
		t.Fatalf("unexpected running elapsed %v", got)
	}

	if got := (queue.Job{}).Elapsed(finished); got != 0 {
		t.Fatalf("expected zero elapsed, got %v", got)
	}
}
