// Package geom provides the pure geometry kernel shared by the public
// ink API and the backend processors: distance and quantization
// helpers, Douglas-Peucker simplification, path smoothing, and the
// segment/rectangle intersection test used for viewport culling.
package geom

import "math"

// Segment is a drawn line segment. Stroke paths are lists of segments
// rather than bare coordinates; consecutive segments need not be
// contiguous.
type Segment struct {
	FromX, FromY float64
	ToX, ToY     float64
}

// Distance returns the Euclidean distance between (x1, y1) and (x2, y2).
func Distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// Length returns the length of the segment.
func (s Segment) Length() float64 {
	return Distance(s.FromX, s.FromY, s.ToX, s.ToY)
}

// Quantize rounds coord to the nearest multiple of step.
// A step of zero or less leaves the coordinate unchanged.
func Quantize(coord, step float64) float64 {
	if step <= 0 {
		return coord
	}
	return math.Round(coord/step) * step
}

// Quantized returns the segment with all four coordinates quantized to step.
func (s Segment) Quantized(step float64) Segment {
	return Segment{
		FromX: Quantize(s.FromX, step),
		FromY: Quantize(s.FromY, step),
		ToX:   Quantize(s.ToX, step),
		ToY:   Quantize(s.ToY, step),
	}
}

// PerpendicularDistance returns the distance from point (px, py) to the
// line segment from (x1, y1) to (x2, y2). Points beyond either endpoint
// measure to the nearest endpoint.
func PerpendicularDistance(px, py, x1, y1, x2, y2 float64) float64 {
	a := px - x1
	b := py - y1
	c := x2 - x1
	d := y2 - y1

	lenSq := c*c + d*d
	param := -1.0
	if lenSq != 0 {
		param = (a*c + b*d) / lenSq
	}

	var xx, yy float64
	switch {
	case param < 0:
		xx, yy = x1, y1
	case param > 1:
		xx, yy = x2, y2
	default:
		xx, yy = x1+param*c, y1+param*d
	}
	return Distance(px, py, xx, yy)
}

// Simplify reduces a segment list with recursive Douglas-Peucker.
// Each segment is represented by its start point; the chord runs from
// the first segment's start to the last segment's end. Inputs of
// length two or less are returned unchanged. Simplify is idempotent
// and always preserves the first and last segment.
func Simplify(points []Segment, epsilon float64) []Segment {
	if len(points) <= 2 {
		return points
	}

	sx, sy := points[0].FromX, points[0].FromY
	ex, ey := points[len(points)-1].ToX, points[len(points)-1].ToY

	maxDist := 0.0
	maxIdx := 0
	for i := 1; i < len(points)-1; i++ {
		d := PerpendicularDistance(points[i].FromX, points[i].FromY, sx, sy, ex, ey)
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= epsilon {
		return []Segment{points[0], points[len(points)-1]}
	}

	left := Simplify(points[:maxIdx+1], epsilon)
	right := Simplify(points[maxIdx:], epsilon)

	// The split point appears at the end of left and the start of
	// right; drop the duplicate.
	out := make([]Segment, 0, len(left)+len(right)-1)
	out = append(out, left...)
	out = append(out, right[1:]...)
	return out
}

// SmoothBezier blends each interior point toward its neighbors with
// Bezier-style control points. strength is clamped to [0, 1]; at 0 the
// input is returned unchanged. Endpoints are never moved.
func SmoothBezier(points []Segment, strength float64) []Segment {
	if strength <= 0 || len(points) < 3 {
		return points
	}
	if strength > 1 {
		strength = 1
	}
	factor := strength * 0.5

	out := make([]Segment, 0, len(points))
	out = append(out, points[0])
	for i := 1; i < len(points)-1; i++ {
		prev := points[i-1]
		curr := points[i]
		next := points[i+1]
		out = append(out, Segment{
			FromX: curr.FromX + (prev.ToX-curr.FromX)*factor,
			FromY: curr.FromY + (prev.ToY-curr.FromY)*factor,
			ToX:   curr.ToX + (next.FromX-curr.ToX)*factor,
			ToY:   curr.ToY + (next.FromY-curr.ToY)*factor,
		})
	}
	out = append(out, points[len(points)-1])
	return out
}

// SmoothMovingAverage smooths with a boxcar filter whose window grows
// with strength (3 samples at 0, 10 at 1). Prefix sums keep the pass
// linear in the number of points.
func SmoothMovingAverage(points []Segment, strength float64) []Segment {
	n := len(points)
	if strength <= 0 || n < 2 {
		return points
	}
	if strength > 1 {
		strength = 1
	}
	window := int(3 + strength*7)
	half := window / 2

	prefix := make([][4]float64, n+1)
	for i, p := range points {
		prefix[i+1] = [4]float64{
			prefix[i][0] + p.FromX,
			prefix[i][1] + p.FromY,
			prefix[i][2] + p.ToX,
			prefix[i][3] + p.ToY,
		}
	}

	out := make([]Segment, n)
	for i := range points {
		start := i - half
		if start < 0 {
			start = 0
		}
		end := i + half
		if end > n-1 {
			end = n - 1
		}
		count := float64(end - start + 1)
		out[i] = Segment{
			FromX: (prefix[end+1][0] - prefix[start][0]) / count,
			FromY: (prefix[end+1][1] - prefix[start][1]) / count,
			ToX:   (prefix[end+1][2] - prefix[start][2]) / count,
			ToY:   (prefix[end+1][3] - prefix[start][3]) / count,
		}
	}
	return out
}

// SegmentIntersectsRect reports whether the segment from (x1, y1) to
// (x2, y2) touches the axis-aligned rectangle. Trivial rejects run
// first; a segment straddling the rectangle is detected by checking
// the rectangle corners against the segment's line.
func SegmentIntersectsRect(x1, y1, x2, y2, left, top, right, bottom float64) bool {
	if x1 < left && x2 < left {
		return false
	}
	if x1 > right && x2 > right {
		return false
	}
	if y1 < top && y2 < top {
		return false
	}
	if y1 > bottom && y2 > bottom {
		return false
	}

	d1 := (left-x1)*(y2-y1) - (top-y1)*(x2-x1)
	d2 := (right-x1)*(y2-y1) - (top-y1)*(x2-x1)
	d3 := (left-x1)*(y2-y1) - (bottom-y1)*(x2-x1)
	d4 := (right-x1)*(y2-y1) - (bottom-y1)*(x2-x1)

	// No crossing only when all four corners lie strictly on the same
	// side of the segment's line.
	if d1*d2 > 0 && d1*d3 > 0 && d1*d4 > 0 {
		return false
	}
	return true
}
