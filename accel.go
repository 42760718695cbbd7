package ink

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/viewstage/ink/backend"
)

// Wire conversions between engine types and the backend's JSON DTOs.

func segmentsToWire(points []Segment) []backend.Point {
	out := make([]backend.Point, len(points))
	for i, p := range points {
		out[i] = backend.Point{FromX: p.FromX, FromY: p.FromY, ToX: p.ToX, ToY: p.ToY}
	}
	return out
}

func segmentsFromWire(points []backend.Point) []Segment {
	out := make([]Segment, len(points))
	for i, p := range points {
		out[i] = Segment{FromX: p.FromX, FromY: p.FromY, ToX: p.ToX, ToY: p.ToY}
	}
	return out
}

func strokeToWire(st *Stroke) backend.Stroke {
	w := backend.Stroke{
		ID:     st.ID,
		Type:   st.Kind.String(),
		Points: segmentsToWire(st.Points),
		Color:  st.Color,
	}
	if st.Kind == KindErase {
		w.EraserSize = st.Width
	} else {
		w.LineWidth = st.Width
	}
	return w
}

func strokesToWire(strokes []*Stroke) []backend.Stroke {
	out := make([]backend.Stroke, len(strokes))
	for i, st := range strokes {
		out[i] = strokeToWire(st)
	}
	return out
}

func viewportToWire(vp Viewport) backend.Viewport {
	return backend.Viewport{X: vp.X, Y: vp.Y, Width: vp.Width, Height: vp.Height}
}

// encodeBaseImage serializes a base image to PNG for a compaction
// request. A nil base encodes to nil (blank base).
func encodeBaseImage(base image.Image) ([]byte, error) {
	if base == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, base); err != nil {
		return nil, fmt.Errorf("ink: encode base image: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeBaseImage deserializes a compaction result.
func decodeBaseImage(data []byte) (image.Image, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ink: decode base image: %w", err)
	}
	return img, nil
}

// surfaceProcessor wraps an in-process processor and adds a
// raster-backed CompactStrokes using the engine's own surface
// implementation. The backend daemon uses it to serve full compaction
// out of process.
type surfaceProcessor struct {
	backend.Processor
	offscreen func(width, height int) Surface
}

// NewLocalProcessor returns the software processor extended with
// surface-backed compaction. It is behaviorally identical to the
// engine's local fallbacks.
func NewLocalProcessor() backend.Processor {
	return &surfaceProcessor{
		Processor: backend.Software{},
		offscreen: func(width, height int) Surface {
			return NewImageSurface(width, height)
		},
	}
}

// CompactStrokes flattens the wire strokes over the PNG base image and
// returns the new base as PNG.
func (p *surfaceProcessor) CompactStrokes(base []byte, strokes []backend.Stroke, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New("ink: compact: invalid surface size")
	}

	var baseImg image.Image
	if len(base) > 0 {
		img, err := decodeBaseImage(base)
		if err != nil {
			return nil, err
		}
		baseImg = img
	}

	surf := p.offscreen(width, height)
	flattenStrokes(surf, baseImg, wireToLocalStrokes(strokes))
	return encodeBaseImage(surf.Snapshot())
}

// wireToLocalStrokes rebuilds engine strokes from wire strokes for
// local rendering.
func wireToLocalStrokes(strokes []backend.Stroke) []*Stroke {
	out := make([]*Stroke, 0, len(strokes))
	for _, w := range strokes {
		kind := KindDraw
		width := w.LineWidth
		switch w.Type {
		case KindErase.String():
			kind = KindErase
			width = w.EraserSize
		case KindClear.String():
			kind = KindClear
		}
		out = append(out, &Stroke{
			ID:     w.ID,
			Kind:   kind,
			Points: segmentsFromWire(w.Points),
			Color:  w.Color,
			Width:  width,
		})
	}
	return out
}

// flattenStrokes renders base plus strokes in chronological order onto
// a cleared surface. Erase strokes composite at their point in
// history, which is why flattening replays in order rather than
// layering by kind.
func flattenStrokes(surf Surface, base image.Image, strokes []*Stroke) {
	w, h := surf.Size()
	surf.Clear()
	if base != nil {
		surf.DrawImage(base, 0, 0, float64(w), float64(h), QualityHigh)
	}
	for _, st := range strokes {
		if st.Kind == KindClear {
			surf.Clear()
			continue
		}
		if len(st.Points) == 0 {
			continue
		}
		surf.StrokePath(st.Points, PathStyle{Kind: st.Kind, Color: st.Color, Width: st.Width})
	}
}
