package textview

// DefaultChunkSize is the number of tokens per lazy-render chunk.
const DefaultChunkSize = 200

// Viewport describes the visible region of the scroll container in the same
// unit as chunk heights. Margin expands the intersection test on both sides
// so chunks instantiate slightly ahead of being scrolled into view.
type Viewport struct {
	Top    float64
	Height float64
	Margin float64
}

// Windower tracks which token chunks should be rendered for the current
// viewport. A chunk occupies its last measured height once one exists, so a
// just-hidden chunk's placeholder never shifts the layout.
type Windower struct {
	chunkSize  int
	tokenCount int
	estimate   float64

	heights  map[int]float64
	visible  map[int]struct{}
	detached bool
}

// New constructs a windower for tokenCount tokens. A chunkSize below one
// falls back to DefaultChunkSize; estimate is the placeholder height used
// for chunks that have never been measured.
func New(tokenCount, chunkSize int, estimate float64) *Windower {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	if tokenCount < 0 {
		tokenCount = 0
	}
	if estimate < 0 {
		estimate = 0
	}
	return &Windower{
		chunkSize:  chunkSize,
		tokenCount: tokenCount,
		estimate:   estimate,
		heights:    make(map[int]float64),
		visible:    make(map[int]struct{}),
	}
}

// ChunkCount returns ceil(tokenCount / chunkSize).
func (w *Windower) ChunkCount() int {
	if w.tokenCount == 0 {
		return 0
	}
	return (w.tokenCount + w.chunkSize - 1) / w.chunkSize
}

// TokenRange returns the half-open token index range [lo, hi) of chunk i.
func (w *Windower) TokenRange(i int) (int, int) {
	if i < 0 || i >= w.ChunkCount() {
		return 0, 0
	}
	lo := i * w.chunkSize
	hi := lo + w.chunkSize
	if hi > w.tokenCount {
		hi = w.tokenCount
	}
	return lo, hi
}

// Height returns the placeholder height for chunk i: the last measured
// rendered height when one exists, the construction estimate otherwise.
func (w *Windower) Height(i int) float64 {
	if h, ok := w.heights[i]; ok {
		return h
	}
	return w.estimate
}

// Offset returns the distance from the top of the list to chunk i.
func (w *Windower) Offset(i int) float64 {
	var off float64
	for c := 0; c < i && c < w.ChunkCount(); c++ {
		off += w.Height(c)
	}
	return off
}

// Extent returns the total scroll extent across all chunks. It must remain
// stable across visibility toggles once heights are measured.
func (w *Windower) Extent() float64 {
	var total float64
	for c := 0; c < w.ChunkCount(); c++ {
		total += w.Height(c)
	}
	return total
}

// Measure records the rendered height of chunk i. Late measurements after
// Detach are dropped.
func (w *Windower) Measure(i int, height float64) {
	if w.detached || i < 0 || i >= w.ChunkCount() || height <= 0 {
		return
	}
	w.heights[i] = height
}

// Update recomputes the visible chunk set for the given viewport. Chunks
// whose rect intersects the margin-expanded viewport become visible along
// with their immediate neighbors; chunks at distance two or more are
// released back to placeholder form. Update after Detach is a no-op.
func (w *Windower) Update(vp Viewport) {
	if w.detached {
		return
	}
	count := w.ChunkCount()
	next := make(map[int]struct{}, len(w.visible))

	lo := vp.Top - vp.Margin
	hi := vp.Top + vp.Height + vp.Margin

	off := 0.0
	for c := 0; c < count; c++ {
		h := w.Height(c)
		if off < hi && off+h > lo {
			next[c] = struct{}{}
			if c > 0 {
				next[c-1] = struct{}{}
			}
			if c+1 < count {
				next[c+1] = struct{}{}
			}
		}
		off += h
	}
	w.visible = next
}

// Visible reports whether chunk i should currently be rendered live.
func (w *Windower) Visible(i int) bool {
	_, ok := w.visible[i]
	return ok
}

// VisibleCount returns the number of live chunks.
func (w *Windower) VisibleCount() int {
	return len(w.visible)
}

// Detach marks the scroll container as gone. Observer callbacks routinely
// fire after teardown; every entry point treats a detached windower as a
// no-op instead of resurrecting view state.
func (w *Windower) Detach() {
	w.detached = true
	w.visible = make(map[int]struct{})
}
