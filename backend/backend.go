// Package backend defines the accelerated point-processing boundary of
// the annotation engine.
//
// A Processor offers the engine's geometry and batching operations
// through an implementation that may live out of process (a native or
// wasm peer reached over RPC) or in process (the pure Go software
// processor). Every engine call site that uses a Processor keeps a
// local fallback executed on any error: losing the accelerated backend
// degrades performance, never correctness.
//
// The wire types serialize to the camelCase JSON format spoken by the
// native backend, so an existing native peer is a drop-in Processor.
package backend

import "errors"

// ErrFallback indicates the processor cannot handle this operation.
// The caller should transparently fall back to local processing.
var ErrFallback = errors.New("backend: falling back to local processing")

// Point is one drawn segment on the wire.
type Point struct {
	FromX float64 `json:"fromX"`
	FromY float64 `json:"fromY"`
	ToX   float64 `json:"toX"`
	ToY   float64 `json:"toY"`
}

// Stroke is a recorded stroke on the wire.
type Stroke struct {
	ID         string  `json:"id,omitempty"`
	Type       string  `json:"type"`
	Points     []Point `json:"points"`
	Color      string  `json:"color,omitempty"`
	LineWidth  float64 `json:"lineWidth,omitempty"`
	EraserSize float64 `json:"eraserSize,omitempty"`
}

// PointConfig is the shared filter configuration for point processing.
type PointConfig struct {
	Epsilon      float64 `json:"epsilon"`
	MinDistance  float64 `json:"minDistance"`
	Quantization float64 `json:"quantization"`
}

// CollectState is the carried-over collector state for CollectPoints:
// the timestamp of the last accepted point (milliseconds) and its end
// coordinates.
type CollectState struct {
	LastTime uint64  `json:"lastTime"`
	LastX    float64 `json:"lastX"`
	LastY    float64 `json:"lastY"`
}

// CollectResult is the outcome of a CollectPoints call.
type CollectResult struct {
	CollectedPoints []Point `json:"collectedPoints"`
	LastTime        uint64  `json:"lastTime"`
	LastX           float64 `json:"lastX"`
	LastY           float64 `json:"lastY"`
}

// DrawCommand is one pending render segment with its render state.
type DrawCommand struct {
	Type      string  `json:"type"`
	FromX     float64 `json:"fromX"`
	FromY     float64 `json:"fromY"`
	ToX       float64 `json:"toX"`
	ToY       float64 `json:"toY"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"lineWidth"`
}

// Viewport is the visible region for CullStrokes.
type Viewport struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Processor is the accelerated backend surface. Implementations must
// be behaviorally equivalent to the local fallbacks: same invariants,
// not necessarily bit-identical pixels.
//
// Inputs are passed by value or copied before any cross-thread hop;
// processors never share mutable state with the engine.
type Processor interface {
	// Name returns the processor name (e.g. "software", "rpc").
	Name() string

	// ProcessStrokePoints quantizes, filters and simplifies a point
	// list in one pass. Used at stroke finalize time.
	ProcessStrokePoints(points []Point, cfg PointConfig) ([]Point, error)

	// SmoothPath smooths a point path. algorithm is "bezier" or
	// "moving_average"; smoothness is clamped to [0, 1].
	SmoothPath(points []Point, smoothness float64, algorithm string) ([]Point, error)

	// CollectPoints applies the history-side spatial and temporal
	// filters to a raw sample batch, resuming from last.
	CollectPoints(points []Point, cfg PointConfig, last CollectState, now uint64) (CollectResult, error)

	// BatchDrawCommands drops sub-minDistance segments and groups the
	// rest by render state, preserving first-seen group order.
	BatchDrawCommands(commands []DrawCommand, minDistance float64, maxBatchSize int) ([]DrawCommand, error)

	// CullStrokes returns the strokes with at least one segment
	// touching the viewport, in original order.
	CullStrokes(strokes []Stroke, vp Viewport) ([]Stroke, error)

	// CompactStrokes flattens strokes over the PNG-encoded base image
	// (nil for a blank base) and returns the new base as PNG.
	// Processors without a raster pipeline return ErrFallback.
	CompactStrokes(base []byte, strokes []Stroke, width, height int) ([]byte, error)

	// Close releases processor resources.
	Close() error
}

// collectThrottle is the minimum spacing between accepted points in
// milliseconds, matching the native backend's constant.
const collectThrottle = 30

// eagerSimplifyLimit is the collected point count that triggers an
// eager simplify pass, matching the native backend's constant.
const eagerSimplifyLimit = 1500
