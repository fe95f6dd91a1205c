package textview_test

import (
	"math"
	"testing"

	"redub/internal/textview"
)

func TestChunkCount(t *testing.T) {
	cases := []struct {
		tokens, chunkSize, want int
	}{
		{0, 200, 0},
		{1, 200, 1},
		{200, 200, 1},
		{201, 200, 2},
		{40000, 200, 200},
		{999, 100, 10},
	}
	for _, tc := range cases {
		w := textview.New(tc.tokens, tc.chunkSize, 100)
		if got := w.ChunkCount(); got != tc.want {
			t.Errorf("ChunkCount(%d tokens / %d) = %d, want %d", tc.tokens, tc.chunkSize, got, tc.want)
		}
	}
}

func TestTokenRangeClampsLastChunk(t *testing.T) {
	w := textview.New(450, 200, 100)
	lo, hi := w.TokenRange(2)
	if lo != 400 || hi != 450 {
		t.Fatalf("TokenRange(2) = [%d, %d), want [400, 450)", lo, hi)
	}
	if lo, hi := w.TokenRange(3); lo != 0 || hi != 0 {
		t.Fatalf("out-of-range chunk should return empty range, got [%d, %d)", lo, hi)
	}
}

func TestUpdateMarksNeighborsVisible(t *testing.T) {
	// Ten chunks of estimated height 100 each.
	w := textview.New(2000, 200, 100)

	// Viewport over chunk 4 only.
	w.Update(textview.Viewport{Top: 400, Height: 100})

	for i := 0; i < w.ChunkCount(); i++ {
		want := i >= 3 && i <= 5
		if w.Visible(i) != want {
			t.Errorf("chunk %d visible = %v, want %v", i, w.Visible(i), want)
		}
	}
}

func TestMarginExpandsIntersection(t *testing.T) {
	w := textview.New(2000, 200, 100)

	// Without margin chunk 5 is outside; a 50-unit margin reaches into it,
	// which then drags chunk 6 in as its neighbor.
	w.Update(textview.Viewport{Top: 400, Height: 100, Margin: 50})
	if !w.Visible(5) || !w.Visible(6) {
		t.Fatal("margin-expanded viewport should instantiate ahead of scroll")
	}
	if w.Visible(7) {
		t.Fatal("chunk 7 is beyond margin and neighbor expansion")
	}
}

func TestReleasedChunkKeepsMeasuredHeight(t *testing.T) {
	w := textview.New(2000, 200, 100)

	w.Update(textview.Viewport{Top: 0, Height: 100})
	w.Measure(0, 137.5)
	w.Measure(1, 92.25)

	// Scroll far away; chunks 0 and 1 are released.
	w.Update(textview.Viewport{Top: 800, Height: 100})
	if w.Visible(0) || w.Visible(1) {
		t.Fatal("distant chunks should be released")
	}
	if got := w.Height(0); got != 137.5 {
		t.Fatalf("released chunk lost its measured height: %v", got)
	}
	if got := w.Height(1); got != 92.25 {
		t.Fatalf("released chunk lost its measured height: %v", got)
	}
}

func TestExtentStableAcrossVisibilityToggles(t *testing.T) {
	w := textview.New(2000, 200, 100)

	// Measure everything once at its rendered size.
	for i := 0; i < w.ChunkCount(); i++ {
		w.Measure(i, 100+float64(i))
	}
	want := w.Extent()

	// Simulated scroll: 50 viewport moves toggling chunks in and out.
	for pass := 0; pass < 50; pass++ {
		top := float64((pass * 173) % 900)
		w.Update(textview.Viewport{Top: top, Height: 150, Margin: 40})
		if got := w.Extent(); math.Abs(got-want) > 1e-9 {
			t.Fatalf("extent drifted on pass %d: %v, want %v", pass, got, want)
		}
	}
}

func TestDetachedWindowerIgnoresLateCallbacks(t *testing.T) {
	w := textview.New(2000, 200, 100)
	w.Update(textview.Viewport{Top: 0, Height: 100})
	w.Detach()

	// The observer fires once more after the container is gone.
	w.Update(textview.Viewport{Top: 0, Height: 100})
	w.Measure(0, 500)

	if w.VisibleCount() != 0 {
		t.Fatal("detached windower must not mark chunks visible")
	}
	if w.Height(0) != 100 {
		t.Fatal("detached windower must drop late measurements")
	}
}

func TestZeroChunkSizeFallsBack(t *testing.T) {
	w := textview.New(400, 0, 100)
	if got := w.ChunkCount(); got != 2 {
		t.Fatalf("ChunkCount with default chunk size = %d, want 2", got)
	}
}
