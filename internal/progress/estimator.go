package progress

import (
	"sync"
	"time"
)

const (
	// DefaultTickInterval is how often an active job reports progress.
	DefaultTickInterval = time.Second
	// DefaultSafetyMargin bounds how long a job may keep ticking past its
	// projected completion before cancelling itself.
	DefaultSafetyMargin = 10 * time.Second
)

// Estimator starts progress jobs against a shared throughput table. At most
// one job is active per estimator: starting a new operation cancels the
// previous timer so a stale ticker can never keep running underneath a new
// job.
type Estimator struct {
	ratios   *Throughput
	interval time.Duration
	safety   time.Duration
	now      func() time.Time

	mu     sync.Mutex
	active *Job
}

// Option configures optional estimator behavior.
type Option func(*Estimator)

// WithTickInterval overrides the tick cadence (tests use a short interval).
func WithTickInterval(interval time.Duration) Option {
	return func(e *Estimator) {
		if interval > 0 {
			e.interval = interval
		}
	}
}

// WithSafetyMargin overrides the post-deadline cancellation window.
func WithSafetyMargin(margin time.Duration) Option {
	return func(e *Estimator) {
		if margin >= 0 {
			e.safety = margin
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Estimator) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEstimator constructs an estimator reading ratios from the given table.
func NewEstimator(ratios *Throughput, opts ...Option) *Estimator {
	e := &Estimator{
		ratios:   ratios,
		interval: DefaultTickInterval,
		safety:   DefaultSafetyMargin,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins estimating an operation over mediaSeconds of input. onTick
// receives the clamped percentage once per interval. A nil return means no
// estimate is possible (unknown throughput or unknown duration); the caller
// shows indeterminate progress instead.
func (e *Estimator) Start(kind Kind, mediaSeconds float64, onTick func(percent float64)) *Job {
	if e == nil || mediaSeconds <= 0 {
		return nil
	}
	ratio, ok := e.ratios.Ratio(kind)
	if !ok || ratio <= 0 {
		return nil
	}

	total := time.Duration(mediaSeconds / ratio * float64(time.Second))
	if total <= 0 {
		return nil
	}

	job := &Job{
		kind:    kind,
		total:   total,
		started: e.now(),
		now:     e.now,
		stop:    make(chan struct{}),
	}

	e.mu.Lock()
	previous := e.active
	e.active = job
	e.mu.Unlock()
	if previous != nil {
		previous.Cancel()
	}

	go job.run(e.interval, e.safety, onTick)
	return job
}

// Stop cancels any active job. Callers invoke it on teardown so a timer can
// never outlive its owner.
func (e *Estimator) Stop() {
	e.mu.Lock()
	job := e.active
	e.active = nil
	e.mu.Unlock()
	if job != nil {
		job.Cancel()
	}
}

// Job is one running progress estimate.
type Job struct {
	kind    Kind
	total   time.Duration
	started time.Time
	now     func() time.Time

	once sync.Once
	stop chan struct{}

	mu   sync.Mutex
	last float64
}

// Kind returns the operation kind being estimated.
func (j *Job) Kind() Kind {
	return j.kind
}

// Percent returns the latest reported percentage.
func (j *Job) Percent() float64 {
	if j == nil {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}

// Cancel stops the ticker. It is idempotent and safe from any goroutine;
// callers must invoke it on both operation success and failure.
func (j *Job) Cancel() {
	if j == nil {
		return
	}
	j.once.Do(func() { close(j.stop) })
}

// Done reports whether the job has been cancelled.
func (j *Job) Done() bool {
	if j == nil {
		return true
	}
	select {
	case <-j.stop:
		return true
	default:
		return false
	}
}

func (j *Job) run(interval, safety time.Duration, onTick func(percent float64)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	deadline := j.total + safety
	for {
		select {
		case <-j.stop:
			return
		case <-ticker.C:
			elapsed := j.now().Sub(j.started)
			percent := float64(elapsed) / float64(j.total) * 100
			if percent > 100 {
				percent = 100
			}

			j.mu.Lock()
			if percent < j.last {
				percent = j.last
			}
			j.last = percent
			j.mu.Unlock()

			if onTick != nil {
				onTick(percent)
			}
			if elapsed >= deadline {
				j.Cancel()
				return
			}
		}
	}
}
