package selection

import "redub/internal/editor"

// Handle identifies which timeline selection marker is being dragged.
type Handle int

const (
	HandleStart Handle = iota
	HandleEnd
)

// SeekTime maps a proportional scrubber position (0..1) to a playback time.
// Out-of-range fractions clamp to the timeline bounds.
func SeekTime(fraction, duration float64) float64 {
	if duration <= 0 {
		return 0
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return fraction * duration
}

// MoveHandle re-derives the selection after one marker is dragged to time t.
// A handle dragged past its counterpart swaps roles, so the result always
// satisfies start <= end; an inverted but valid-looking range is impossible.
func MoveHandle(sel editor.Selection, h Handle, t, duration float64) editor.Selection {
	if duration > 0 {
		if t < 0 {
			t = 0
		}
		if t > duration {
			t = duration
		}
	} else if t < 0 {
		t = 0
	}

	start, end := t, t
	switch h {
	case HandleStart:
		if sel.End != nil {
			end = *sel.End
		}
	case HandleEnd:
		if sel.Start != nil {
			start = *sel.Start
		}
	}
	if start > end {
		start, end = end, start
	}
	return editor.SelectionOf(start, end)
}
