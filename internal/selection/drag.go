package selection

import (
	"redub/internal/editor"
	"redub/internal/transcript"
)

// PreviewSignal asks the caller to scrub playback over a just-selected
// token. It is returned separately from the selection so callers that only
// want the selection can discard it.
type PreviewSignal struct {
	Start float64
	End   float64
}

// DragTracker turns press/extend/release gestures over word tokens into a
// time selection. The selection spanning two tokens uses the boundary
// tokens' timestamps, not index-based width, because token durations vary.
type DragTracker struct {
	words     []transcript.Word
	selecting bool
	anchor    int
}

// NewDragTracker builds a tracker over the given token list.
func NewDragTracker(words []transcript.Word) *DragTracker {
	return &DragTracker{words: words, anchor: -1}
}

// Selecting reports whether a drag is in progress.
func (d *DragTracker) Selecting() bool {
	return d.selecting
}

// Begin starts a drag on token i and selects that token's own interval.
func (d *DragTracker) Begin(i int) (editor.Selection, bool) {
	if !d.inRange(i) {
		return editor.Selection{}, false
	}
	d.selecting = true
	d.anchor = i
	w := d.words[i]
	return editor.SelectionOf(w.Start, w.End), true
}

// Extend recomputes the selection while the button is held over token j: the
// union spanning min(anchor, j)..max(anchor, j).
func (d *DragTracker) Extend(j int) (editor.Selection, bool) {
	if !d.selecting || !d.inRange(j) {
		return editor.Selection{}, false
	}
	lo, hi := d.anchor, j
	if lo > hi {
		lo, hi = hi, lo
	}
	return editor.SelectionOf(d.words[lo].Start, d.words[hi].End), true
}

// Release ends the drag. It is bound to a window-scoped pointer-up, so it is
// valid (and required) even when the pointer has left the token list; a drag
// must never survive past its release.
func (d *DragTracker) Release() {
	d.selecting = false
	d.anchor = -1
}

// Activate handles a double activation on token i: it selects that single
// token and emits a preview signal for the same interval.
func (d *DragTracker) Activate(i int) (editor.Selection, PreviewSignal, bool) {
	if !d.inRange(i) {
		return editor.Selection{}, PreviewSignal{}, false
	}
	w := d.words[i]
	return editor.SelectionOf(w.Start, w.End), PreviewSignal{Start: w.Start, End: w.End}, true
}

func (d *DragTracker) inRange(i int) bool {
	return i >= 0 && i < len(d.words)
}
