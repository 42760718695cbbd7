package ink

import (
	"time"

	"github.com/viewstage/ink/backend"
)

// Config holds the engine's tuning constants. The defaults come from
// the shipped product's empirical tuning; they are policy, not
// invariants, and hosts may override any of them.
type Config struct {
	// Quantization is the coordinate rounding step applied to raw
	// pointer samples before distance tests.
	Quantization float64

	// MinDistance is the history-side spatial filter: quantized
	// segments shorter than this never enter a stroke.
	MinDistance float64

	// BatchInterval is the history-side temporal throttle between
	// accepted points. It bounds history size, not render cadence.
	BatchInterval time.Duration

	// MaxPointsPerStroke triggers an eager in-place simplify on the
	// live stroke when exceeded.
	MaxPointsPerStroke int

	// Epsilon is the Douglas-Peucker tolerance used for stroke
	// simplification.
	Epsilon float64

	// SmoothStrength and SmoothAlgorithm configure finalize-time
	// smoothing of draw strokes. Strength 0 disables smoothing.
	SmoothStrength  float64
	SmoothAlgorithm SmoothAlgorithm

	// SmoothMinPoints is the minimum finalized point count before
	// smoothing applies. Short taps are left untouched to avoid
	// visible distortion.
	SmoothMinPoints int

	// GapBridgeDistance is the maximum gap between an appended
	// segment's start and the previous segment's end before an
	// implicit bridging segment is inserted.
	GapBridgeDistance float64

	// MaxUndoSteps bounds the individually undoable stroke suffix.
	// Older strokes are flattened into the base image.
	MaxUndoSteps int

	// CompactThreshold is the stroke count that schedules a
	// compaction pass after EndStroke.
	CompactThreshold int

	// CullThreshold is the stroke count above which RedrawAll applies
	// viewport culling (when a viewport is set).
	CullThreshold int

	// MaxBatchSize flushes a render batch early when reached.
	MaxBatchSize int

	// TargetFPS is the scheduler's frame-rate goal.
	TargetFPS float64

	// AdaptInterval is how often the scheduler re-tunes its knobs.
	AdaptInterval time.Duration

	// MinDistanceRange clamps the scheduler's render-side minimum
	// segment length as [floor, ceiling].
	MinDistanceRange [2]float64

	// FlushRange clamps the scheduler's per-tick segment budget as
	// [floor, ceiling].
	FlushRange [2]int
}

// DefaultConfig returns the engine's default tuning.
func DefaultConfig() Config {
	return Config{
		Quantization:       1.0,
		MinDistance:        1.0,
		BatchInterval:      30 * time.Millisecond,
		MaxPointsPerStroke: 1500,
		Epsilon:            0.5,
		SmoothStrength:     0.3,
		SmoothAlgorithm:    SmoothBezier,
		SmoothMinPoints:    50,
		GapBridgeDistance:  1.5,
		MaxUndoSteps:       10,
		CompactThreshold:   10,
		CullThreshold:      20,
		MaxBatchSize:       100,
		TargetFPS:          60,
		AdaptInterval:      800 * time.Millisecond,
		MinDistanceRange:   [2]float64{0.5, 6.0},
		FlushRange:         [2]int{50, 800},
	}
}

// Option configures an Engine during creation.
//
// Example:
//
//	eng := ink.New(surface,
//	    ink.WithProcessor(proc),
//	    ink.WithConfig(cfg),
//	)
type Option func(*engineOptions)

type engineOptions struct {
	cfg       Config
	processor backend.Processor
	offscreen func(width, height int) Surface
}

func defaultEngineOptions() engineOptions {
	return engineOptions{
		cfg: DefaultConfig(),
		offscreen: func(width, height int) Surface {
			return NewImageSurface(width, height)
		},
	}
}

// WithConfig replaces the default tuning constants.
func WithConfig(cfg Config) Option {
	return func(o *engineOptions) {
		o.cfg = cfg
	}
}

// WithProcessor sets the accelerated backend processor. When nil (the
// default), the registry's best available processor is used; every
// processor call retains a pure in-process fallback.
func WithProcessor(p backend.Processor) Option {
	return func(o *engineOptions) {
		o.processor = p
	}
}

// WithOffscreenFactory sets the constructor for offscreen surfaces
// used by compaction. Hosts with custom Surface implementations
// provide a matching factory so compacted pixels stay
// backend-consistent. The default creates an ImageSurface.
func WithOffscreenFactory(f func(width, height int) Surface) Option {
	return func(o *engineOptions) {
		if f != nil {
			o.offscreen = f
		}
	}
}
