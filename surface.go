package ink

import "image"

// PathStyle carries the render state for one stroked path. Batches are
// keyed by this state to minimize state changes on the target surface.
type PathStyle struct {
	Kind  Kind
	Color string
	Width float64
}

// Surface is the drawing target the engine renders onto. The host
// provides one (a window backbuffer, a compositor layer); the engine
// also creates offscreen surfaces for compaction.
//
// Surfaces are single-writer: all calls come from the engine's owner
// goroutine.
type Surface interface {
	// Size returns the surface dimensions in pixels.
	Size() (width, height int)

	// Clear resets the surface to fully transparent.
	Clear()

	// DrawImage draws img scaled into the rectangle at (x, y) with the
	// given size, using the resampling quality.
	DrawImage(img image.Image, x, y, width, height float64, q Quality)

	// StrokePath draws a polyline of segments in one pass. KindDraw
	// composites the style color over the surface; KindErase removes
	// coverage (destination-out).
	StrokePath(points []Segment, style PathStyle)

	// Snapshot returns the current pixels as an opaque immutable
	// image. The engine uses it for the compacted base image.
	Snapshot() image.Image
}
