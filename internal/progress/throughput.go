package progress

import "sync"

// Kind names an estimatable operation.
type Kind string

const (
	KindTranscribe  Kind = "transcribe"
	KindAlignFull   Kind = "align_full"
	KindAlignRegion Kind = "align_region"
)

// Throughput maintains historical real-time factors per operation kind:
// seconds of media processed per wall-clock second. It is refreshed from the
// periodic stats fetch and read by the estimator; a missing or non-positive
// ratio means the kind cannot be estimated.
type Throughput struct {
	mu     sync.RWMutex
	ratios map[Kind]float64
}

// NewThroughput returns an empty table.
func NewThroughput() *Throughput {
	return &Throughput{ratios: make(map[Kind]float64)}
}

// Update merges freshly fetched ratios. Non-positive values are ignored so a
// degraded stats payload cannot poison existing history.
func (t *Throughput) Update(ratios map[Kind]float64) {
	if len(ratios) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for kind, ratio := range ratios {
		if ratio > 0 {
			t.ratios[kind] = ratio
		}
	}
}

// Ratio returns the stored real-time factor for kind.
func (t *Throughput) Ratio(kind Kind) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ratio, ok := t.ratios[kind]
	return ratio, ok
}
