package ink

import "github.com/viewstage/ink/internal/geom"

// Segment is a drawn line segment, the unit of a stroke path. Stroke
// paths record segments rather than bare coordinates because sampling
// is lossy: consecutive segments need not be contiguous, and the store
// inserts explicit bridging segments to keep the rendered path whole.
//
// The JSON field names match the wire format spoken by accelerated
// backends.
type Segment struct {
	FromX float64 `json:"fromX"`
	FromY float64 `json:"fromY"`
	ToX   float64 `json:"toX"`
	ToY   float64 `json:"toY"`
}

// Seg is a convenience function to create a Segment.
func Seg(fromX, fromY, toX, toY float64) Segment {
	return Segment{FromX: fromX, FromY: fromY, ToX: toX, ToY: toY}
}

// Length returns the length of the segment.
func (s Segment) Length() float64 {
	return geom.Distance(s.FromX, s.FromY, s.ToX, s.ToY)
}

// Quantized returns the segment with all four coordinates rounded to
// the nearest multiple of step.
func (s Segment) Quantized(step float64) Segment {
	return fromGeom(toGeom(s).Quantized(step))
}

// toGeom converts a public segment to the internal kernel type.
func toGeom(s Segment) geom.Segment {
	return geom.Segment{FromX: s.FromX, FromY: s.FromY, ToX: s.ToX, ToY: s.ToY}
}

func fromGeom(s geom.Segment) Segment {
	return Segment{FromX: s.FromX, FromY: s.FromY, ToX: s.ToX, ToY: s.ToY}
}

// toGeomSlice converts a segment list to the internal kernel type.
func toGeomSlice(points []Segment) []geom.Segment {
	out := make([]geom.Segment, len(points))
	for i, p := range points {
		out[i] = toGeom(p)
	}
	return out
}

func fromGeomSlice(points []geom.Segment) []Segment {
	out := make([]Segment, len(points))
	for i, p := range points {
		out[i] = fromGeom(p)
	}
	return out
}
