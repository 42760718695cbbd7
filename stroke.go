package ink

import (
	"encoding/json"
	"fmt"
	"image"
)

// Kind identifies how a stroke composites onto the surface.
type Kind uint8

const (
	// KindDraw composites the stroke's color over the surface.
	KindDraw Kind = iota

	// KindErase removes previously drawn pixels (destination-out).
	KindErase

	// KindClear is the pseudo-stroke pushed by Engine.ClearAll. It
	// captures the pre-clear state so a single undo step restores it.
	KindClear
)

// kindNames is the wire encoding for Kind, shared with accelerated
// backends.
var kindNames = map[Kind]string{
	KindDraw:  "draw",
	KindErase: "erase",
	KindClear: "clear",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// MarshalJSON encodes the kind as its wire name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a wire name back into a Kind.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for kind, name := range kindNames {
		if name == s {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("ink: unknown stroke kind %q", s)
}

// Stroke is one continuous pointer gesture's recorded path plus its
// render attributes. A stroke is mutable only while its gesture is
// active; once finalized by the store it must be treated as immutable.
// Per-view duplication (page switches, state saves) goes through Clone.
type Stroke struct {
	ID     string    `json:"id,omitempty"`
	Kind   Kind      `json:"type"`
	Points []Segment `json:"points"`
	Color  string    `json:"color,omitempty"`
	Width  float64   `json:"lineWidth,omitempty"`

	// prev holds the captured pre-clear state. Non-nil only for
	// KindClear markers and never serialized: a marker that leaves the
	// undo window loses its snapshot by design.
	prev *snapshot
}

// snapshot is the {strokes, baseImage} pair captured by a clear marker.
type snapshot struct {
	strokes []*Stroke
	base    image.Image
}

// Clone returns a deep copy of the stroke. The points slice is copied
// so the clone can outlive mutation of the original's backing array.
func (s *Stroke) Clone() *Stroke {
	c := *s
	c.Points = make([]Segment, len(s.Points))
	copy(c.Points, s.Points)
	c.prev = nil
	return &c
}

// Bounds returns the stroke's bounding viewport, padded by half the
// stroke width so culling accounts for rendered thickness.
func (s *Stroke) Bounds() Viewport {
	if len(s.Points) == 0 {
		return Viewport{}
	}
	minX, minY := s.Points[0].FromX, s.Points[0].FromY
	maxX, maxY := minX, minY
	for _, p := range s.Points {
		for _, c := range [2][2]float64{{p.FromX, p.FromY}, {p.ToX, p.ToY}} {
			if c[0] < minX {
				minX = c[0]
			}
			if c[0] > maxX {
				maxX = c[0]
			}
			if c[1] < minY {
				minY = c[1]
			}
			if c[1] > maxY {
				maxY = c[1]
			}
		}
	}
	pad := s.Width / 2
	return Viewport{X: minX - pad, Y: minY - pad, Width: maxX - minX + 2*pad, Height: maxY - minY + 2*pad}
}

// intersects reports whether any segment of the stroke touches the
// viewport, after a cheap bounding-box reject.
func (s *Stroke) intersects(vp Viewport) bool {
	b := s.Bounds()
	if b.X > vp.X+vp.Width || b.X+b.Width < vp.X ||
		b.Y > vp.Y+vp.Height || b.Y+b.Height < vp.Y {
		return false
	}
	for _, p := range s.Points {
		if vp.Intersects(p) {
			return true
		}
	}
	return false
}

// EncodeStrokes serializes a stroke list to JSON for persistence. The
// base image is deliberately not part of this format: it is an opaque
// pixel handle owned by the host (see Engine.SaveState).
func EncodeStrokes(strokes []*Stroke) ([]byte, error) {
	return json.Marshal(strokes)
}

// DecodeStrokes deserializes a stroke list produced by EncodeStrokes.
func DecodeStrokes(data []byte) ([]*Stroke, error) {
	var strokes []*Stroke
	if err := json.Unmarshal(data, &strokes); err != nil {
		return nil, err
	}
	return strokes, nil
}
