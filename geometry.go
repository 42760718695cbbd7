package ink

import "github.com/viewstage/ink/internal/geom"

// Distance returns the Euclidean distance between (x1, y1) and (x2, y2).
func Distance(x1, y1, x2, y2 float64) float64 {
	return geom.Distance(x1, y1, x2, y2)
}

// Quantize rounds coord to the nearest multiple of step. A step of
// zero or less leaves the coordinate unchanged.
func Quantize(coord, step float64) float64 {
	return geom.Quantize(coord, step)
}

// PerpendicularDistance returns the distance from (px, py) to the line
// segment from (x1, y1) to (x2, y2).
func PerpendicularDistance(px, py, x1, y1, x2, y2 float64) float64 {
	return geom.PerpendicularDistance(px, py, x1, y1, x2, y2)
}

// Simplify reduces a segment list with recursive Douglas-Peucker.
// Inputs of length two or less are returned unchanged. Simplify is
// idempotent and always preserves the first and last segment.
func Simplify(points []Segment, epsilon float64) []Segment {
	if len(points) <= 2 {
		return points
	}
	return fromGeomSlice(geom.Simplify(toGeomSlice(points), epsilon))
}

// SmoothAlgorithm selects the path smoothing method.
type SmoothAlgorithm string

// Smoothing algorithms. SmoothBezier blends interior points toward
// Bezier-style control points; SmoothMovingAverage applies a boxcar
// filter whose window grows with strength.
const (
	SmoothBezier        SmoothAlgorithm = "bezier"
	SmoothMovingAverage SmoothAlgorithm = "moving_average"
)

// Smooth smooths a segment path. strength is clamped to [0, 1]; at 0
// the input is returned unchanged. Unknown algorithms fall back to
// SmoothBezier.
func Smooth(points []Segment, strength float64, algorithm SmoothAlgorithm) []Segment {
	if strength <= 0 || len(points) < 2 {
		return points
	}
	gp := toGeomSlice(points)
	if algorithm == SmoothMovingAverage {
		return fromGeomSlice(geom.SmoothMovingAverage(gp, strength))
	}
	return fromGeomSlice(geom.SmoothBezier(gp, strength))
}

// Viewport is the visible region used for stroke culling during a
// full redraw.
type Viewport struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Intersects reports whether any part of the segment touches the viewport.
func (v Viewport) Intersects(s Segment) bool {
	return geom.SegmentIntersectsRect(
		s.FromX, s.FromY, s.ToX, s.ToY,
		v.X, v.Y, v.X+v.Width, v.Y+v.Height,
	)
}

// CullStrokes returns the strokes with at least one segment touching
// the viewport, preserving their original order. Culling is purely a
// performance optimization: it never removes a stroke that would
// contribute visible pixels.
func CullStrokes(strokes []*Stroke, vp Viewport) []*Stroke {
	visible := make([]*Stroke, 0, len(strokes))
	for _, st := range strokes {
		if st.Kind == KindClear || st.intersects(vp) {
			visible = append(visible, st)
		}
	}
	return visible
}
