package selection_test

import (
	"testing"

	"redub/internal/selection"
	"redub/internal/transcript"
)

func testWords() []transcript.Word {
	return []transcript.Word{
		{Text: "the", Start: 0.0, End: 0.2},
		{Text: "quick", Start: 0.2, End: 0.6},
		{Text: "brown", Start: 0.6, End: 1.1},
		{Text: "fox", Start: 1.1, End: 1.5},
		{Text: "jumps", Start: 1.5, End: 2.2},
	}
}

func TestBeginSelectsSingleToken(t *testing.T) {
	tracker := selection.NewDragTracker(testWords())

	sel, ok := tracker.Begin(2)
	if !ok {
		t.Fatal("Begin(2) should succeed")
	}
	if *sel.Start != 0.6 || *sel.End != 1.1 {
		t.Fatalf("selection = [%v, %v], want [0.6, 1.1]", *sel.Start, *sel.End)
	}
	if !tracker.Selecting() {
		t.Fatal("tracker should report a drag in progress")
	}
}

func TestExtendUsesBoundaryTimestampsBothDirections(t *testing.T) {
	words := testWords()

	tracker := selection.NewDragTracker(words)
	tracker.Begin(1)
	sel, ok := tracker.Extend(4)
	if !ok {
		t.Fatal("forward Extend failed")
	}
	if *sel.Start != 0.2 || *sel.End != 2.2 {
		t.Fatalf("forward selection = [%v, %v], want [0.2, 2.2]", *sel.Start, *sel.End)
	}

	// Dragging backwards past the anchor must span min..max, never invert.
	sel, ok = tracker.Extend(0)
	if !ok {
		t.Fatal("backward Extend failed")
	}
	if *sel.Start != 0.0 || *sel.End != 0.6 {
		t.Fatalf("backward selection = [%v, %v], want [0.0, 0.6]", *sel.Start, *sel.End)
	}
}

func TestReleaseClearsDragEvenOffTarget(t *testing.T) {
	tracker := selection.NewDragTracker(testWords())
	tracker.Begin(0)

	// Pointer-up lands outside the token list; the drag must still end.
	tracker.Release()
	if tracker.Selecting() {
		t.Fatal("drag survived release")
	}
	if _, ok := tracker.Extend(3); ok {
		t.Fatal("Extend after release must be a no-op")
	}
}

func TestExtendWithoutBeginIsNoOp(t *testing.T) {
	tracker := selection.NewDragTracker(testWords())
	if _, ok := tracker.Extend(1); ok {
		t.Fatal("Extend without Begin should fail")
	}
}

func TestBeginOutOfRange(t *testing.T) {
	tracker := selection.NewDragTracker(testWords())
	if _, ok := tracker.Begin(-1); ok {
		t.Fatal("Begin(-1) should fail")
	}
	if _, ok := tracker.Begin(5); ok {
		t.Fatal("Begin past end should fail")
	}
	if tracker.Selecting() {
		t.Fatal("failed Begin must not start a drag")
	}
}

func TestActivateSelectsAndSignalsPreview(t *testing.T) {
	tracker := selection.NewDragTracker(testWords())

	sel, preview, ok := tracker.Activate(3)
	if !ok {
		t.Fatal("Activate(3) should succeed")
	}
	if *sel.Start != 1.1 || *sel.End != 1.5 {
		t.Fatalf("selection = [%v, %v], want [1.1, 1.5]", *sel.Start, *sel.End)
	}
	if preview.Start != 1.1 || preview.End != 1.5 {
		t.Fatalf("preview signal = %+v", preview)
	}
	if tracker.Selecting() {
		t.Fatal("Activate must not leave a drag in progress")
	}
}
