package transcript

import "strings"

// Word is a single timed token with offsets in seconds.
type Word struct {
	Text    string  `json:"word"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Score   float64 `json:"score,omitempty"`
	Speaker string  `json:"speaker,omitempty"`
}

// Segment is a sentence-level grouping of transcribed speech.
type Segment struct {
	Text    string  `json:"text"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker,omitempty"`
}

// Transcript is the full alignment result for one piece of media.
type Transcript struct {
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
	Words    []Word    `json:"words"`
	Note     string    `json:"note,omitempty"`
}

// TokenCount returns the number of word tokens.
func (t *Transcript) TokenCount() int {
	if t == nil {
		return 0
	}
	return len(t.Words)
}

// EffectiveDuration returns the declared duration, falling back to the
// latest word or segment end time when the header value is missing.
func (t *Transcript) EffectiveDuration() float64 {
	if t == nil {
		return 0
	}
	if t.Duration > 0 {
		return t.Duration
	}
	var max float64
	for _, w := range t.Words {
		if w.End > max {
			max = w.End
		}
	}
	for _, s := range t.Segments {
		if s.End > max {
			max = s.End
		}
	}
	return max
}

// Text concatenates segment texts into a single display string.
func (t *Transcript) Text() string {
	if t == nil {
		return ""
	}
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if trimmed := strings.TrimSpace(seg.Text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

// WordsInRange returns the indexes of words overlapping [start, end).
// Degenerate ranges (end <= start) select nothing.
func (t *Transcript) WordsInRange(start, end float64) []int {
	if t == nil || end <= start {
		return nil
	}
	var out []int
	for i, w := range t.Words {
		if w.End > start && w.Start < end {
			out = append(out, i)
		}
	}
	return out
}

// Clamped returns a copy with timing irregularities repaired: negative
// offsets are raised to zero, inverted word or segment ranges collapse to
// their start time, and times beyond a known duration are pulled back.
// The original transcript is never mutated.
func (t *Transcript) Clamped() *Transcript {
	if t == nil {
		return nil
	}
	out := &Transcript{
		Language: t.Language,
		Duration: t.Duration,
		Note:     t.Note,
		Segments: make([]Segment, len(t.Segments)),
		Words:    make([]Word, len(t.Words)),
	}
	limit := t.EffectiveDuration()
	copy(out.Segments, t.Segments)
	copy(out.Words, t.Words)
	for i := range out.Words {
		out.Words[i].Start, out.Words[i].End = clampPair(out.Words[i].Start, out.Words[i].End, limit)
	}
	for i := range out.Segments {
		out.Segments[i].Start, out.Segments[i].End = clampPair(out.Segments[i].Start, out.Segments[i].End, limit)
	}
	return out
}

func clampPair(start, end, limit float64) (float64, float64) {
	if start < 0 {
		start = 0
	}
	if end < 0 {
		end = 0
	}
	if limit > 0 {
		if start > limit {
			start = limit
		}
		if end > limit {
			end = limit
		}
	}
	if end < start {
		end = start
	}
	return start, end
}
