package ink

import "time"

// Quality is the coarse render-quality level set by the scheduler.
// Surfaces map it to their resampling filters.
type Quality uint8

const (
	// QualityLow favors speed: nearest-neighbor resampling.
	QualityLow Quality = iota

	// QualityMedium balances speed and quality: bilinear resampling.
	QualityMedium

	// QualityHigh favors quality: bicubic resampling.
	QualityHigh
)

// schedulerWindow is the number of flush-duration samples in the
// rolling window.
const schedulerWindow = 8

// Scheduler observes per-flush render latency and tunes the render
// pipeline in real time: the render-side minimum segment length, the
// per-tick segment budget, and the coarse render quality. This is how
// the engine degrades gracefully on slow hardware instead of
// accumulating input lag.
//
// The scheduler never blocks; it only adjusts parameters that other
// components read on their own schedule.
type Scheduler struct {
	targetFPS float64
	interval  time.Duration

	minDistRange [2]float64
	flushRange   [2]int

	samples [schedulerWindow]float64 // milliseconds
	count   int
	next    int

	lastAdapt time.Time

	minDistance       float64
	maxPointsPerFlush int
	quality           Quality
}

// NewScheduler creates a scheduler with knobs seeded from cfg.
func NewScheduler(cfg Config) *Scheduler {
	return &Scheduler{
		targetFPS:         cfg.TargetFPS,
		interval:          cfg.AdaptInterval,
		minDistRange:      cfg.MinDistanceRange,
		flushRange:        cfg.FlushRange,
		minDistance:       cfg.MinDistance,
		maxPointsPerFlush: cfg.FlushRange[1] / 2,
		quality:           QualityHigh,
	}
}

// Observe records one flush duration.
func (s *Scheduler) Observe(d time.Duration) {
	s.samples[s.next] = float64(d) / float64(time.Millisecond)
	s.next = (s.next + 1) % schedulerWindow
	if s.count < schedulerWindow {
		s.count++
	}
}

// Adapt re-tunes the knobs when the adaptation interval has elapsed.
// Call once per tick with the current time.
func (s *Scheduler) Adapt(now time.Time) {
	if s.lastAdapt.IsZero() {
		s.lastAdapt = now
		return
	}
	if now.Sub(s.lastAdapt) < s.interval || s.count == 0 {
		return
	}
	s.lastAdapt = now

	var sum float64
	for i := 0; i < s.count; i++ {
		sum += s.samples[i]
	}
	mean := sum / float64(s.count)
	if mean <= 0 {
		return
	}
	fps := 1000 / mean

	switch {
	case fps < 0.60*s.targetFPS:
		s.adjust(1.0, 0.5, QualityLow)
	case fps < 0.75*s.targetFPS:
		s.adjust(0.5, 0.7, QualityLow)
	case fps < 0.90*s.targetFPS:
		s.adjust(0.25, 0.85, QualityMedium)
	case fps >= 0.95*s.targetFPS:
		s.adjust(-0.25, 1.25, QualityHigh)
	}

	Logger().Debug("scheduler adapted",
		"fps", fps,
		"minDistance", s.minDistance,
		"maxPointsPerFlush", s.maxPointsPerFlush,
		"quality", s.quality,
	)
}

// adjust moves the knobs by one band step and clamps them.
func (s *Scheduler) adjust(distDelta, flushScale float64, q Quality) {
	s.minDistance += distDelta
	if s.minDistance < s.minDistRange[0] {
		s.minDistance = s.minDistRange[0]
	}
	if s.minDistance > s.minDistRange[1] {
		s.minDistance = s.minDistRange[1]
	}

	s.maxPointsPerFlush = int(float64(s.maxPointsPerFlush) * flushScale)
	if s.maxPointsPerFlush < s.flushRange[0] {
		s.maxPointsPerFlush = s.flushRange[0]
	}
	if s.maxPointsPerFlush > s.flushRange[1] {
		s.maxPointsPerFlush = s.flushRange[1]
	}

	s.quality = q
}

// MinDistance returns the render-side minimum segment length. Segments
// shorter than this are skipped during a flush, not removed from
// history.
func (s *Scheduler) MinDistance() float64 {
	return s.minDistance
}

// MaxPointsPerFlush returns the per-tick segment budget.
func (s *Scheduler) MaxPointsPerFlush() int {
	return s.maxPointsPerFlush
}

// Quality returns the current coarse render quality.
func (s *Scheduler) Quality() Quality {
	return s.quality
}
