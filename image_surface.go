package ink

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// ImageSurface is the software Surface implementation backed by an
// image.RGBA. Stroke outlines are rasterized with x/image/vector and
// image blits are resampled with x/image/draw, with the filter chosen
// by the scheduler's quality level.
type ImageSurface struct {
	rgba   *image.RGBA
	width  int
	height int
}

var _ Surface = (*ImageSurface)(nil)

// NewImageSurface creates a transparent software surface with the
// given dimensions.
func NewImageSurface(width, height int) *ImageSurface {
	return &ImageSurface{
		rgba:   image.NewRGBA(image.Rect(0, 0, width, height)),
		width:  width,
		height: height,
	}
}

// Size returns the surface dimensions in pixels.
func (s *ImageSurface) Size() (width, height int) {
	return s.width, s.height
}

// RGBA returns the backing image for host compositing. The engine owns
// the pixels; hosts must treat the returned image as read-only.
func (s *ImageSurface) RGBA() *image.RGBA {
	return s.rgba
}

// Clear resets the surface to fully transparent.
func (s *ImageSurface) Clear() {
	pix := s.rgba.Pix
	for i := range pix {
		pix[i] = 0
	}
}

// scalerFor maps the scheduler's coarse quality level to a resampling
// filter.
func scalerFor(q Quality) xdraw.Scaler {
	switch q {
	case QualityLow:
		return xdraw.NearestNeighbor
	case QualityMedium:
		return xdraw.ApproxBiLinear
	default:
		return xdraw.CatmullRom
	}
}

// DrawImage draws img scaled into the rectangle at (x, y).
func (s *ImageSurface) DrawImage(img image.Image, x, y, width, height float64, q Quality) {
	if img == nil || width <= 0 || height <= 0 {
		return
	}
	dr := image.Rect(int(x), int(y), int(x+width), int(y+height))
	sr := img.Bounds()
	if dr.Dx() == sr.Dx() && dr.Dy() == sr.Dy() {
		draw.Draw(s.rgba, dr, img, sr.Min, draw.Over)
		return
	}
	scalerFor(q).Scale(s.rgba, dr, img, sr, xdraw.Over, nil)
}

// StrokePath draws a polyline of segments as one rasterized pass with
// round caps. Erase strokes remove coverage instead of compositing.
func (s *ImageSurface) StrokePath(points []Segment, style PathStyle) {
	if len(points) == 0 {
		return
	}
	width := style.Width
	if width <= 0 {
		width = 1
	}

	rz := vector.NewRasterizer(s.width, s.height)
	for _, p := range points {
		addSegmentOutline(rz, p, width/2)
	}

	mask := image.NewAlpha(s.rgba.Bounds())
	rz.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	if style.Kind == KindErase {
		s.eraseMask(mask)
		return
	}
	src := image.NewUniform(parseHexColor(style.Color))
	draw.DrawMask(s.rgba, s.rgba.Bounds(), src, image.Point{}, mask, image.Point{}, draw.Over)
}

// eraseMask multiplies destination alpha by the inverse of the mask
// coverage (destination-out). The backing image is premultiplied, so
// all four channels scale together.
func (s *ImageSurface) eraseMask(mask *image.Alpha) {
	b := s.rgba.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := mask.AlphaAt(x, y).A
			if a == 0 {
				continue
			}
			i := s.rgba.PixOffset(x, y)
			inv := uint32(255 - a)
			pix := s.rgba.Pix
			pix[i+0] = uint8(uint32(pix[i+0]) * inv / 255)
			pix[i+1] = uint8(uint32(pix[i+1]) * inv / 255)
			pix[i+2] = uint8(uint32(pix[i+2]) * inv / 255)
			pix[i+3] = uint8(uint32(pix[i+3]) * inv / 255)
		}
	}
}

// Snapshot returns an immutable copy of the current pixels.
func (s *ImageSurface) Snapshot() image.Image {
	c := image.NewRGBA(s.rgba.Bounds())
	copy(c.Pix, s.rgba.Pix)
	return c
}

// capSides is the polygon resolution for round caps.
const capSides = 16

// addSegmentOutline appends the stroke outline of one segment: a quad
// along the segment plus round caps at both ends. Degenerate segments
// become a single dot.
func addSegmentOutline(rz *vector.Rasterizer, p Segment, r float64) {
	dx := p.ToX - p.FromX
	dy := p.ToY - p.FromY
	length := math.Hypot(dx, dy)

	if length > 0 {
		// Unit normal scaled to half width.
		nx := -dy / length * r
		ny := dx / length * r

		rz.MoveTo(float32(p.FromX+nx), float32(p.FromY+ny))
		rz.LineTo(float32(p.ToX+nx), float32(p.ToY+ny))
		rz.LineTo(float32(p.ToX-nx), float32(p.ToY-ny))
		rz.LineTo(float32(p.FromX-nx), float32(p.FromY-ny))
		rz.ClosePath()
	}

	addCircle(rz, p.FromX, p.FromY, r)
	if length > 0 {
		addCircle(rz, p.ToX, p.ToY, r)
	}
}

// addCircle appends a polygonal circle approximation. The rasterizer
// accumulates signed coverage, so the circle must wind the same way as
// the body quad or overlapping caps cancel the body's coverage.
func addCircle(rz *vector.Rasterizer, cx, cy, r float64) {
	if r <= 0 {
		return
	}
	rz.MoveTo(float32(cx+r), float32(cy))
	for i := 1; i < capSides; i++ {
		a := 2 * math.Pi * float64(i) / capSides
		rz.LineTo(float32(cx+r*math.Cos(a)), float32(cy-r*math.Sin(a)))
	}
	rz.ClosePath()
}

// parseHexColor parses #rgb, #rrggbb and #rrggbbaa colors. Malformed
// strings yield opaque black.
func parseHexColor(s string) color.NRGBA {
	c := color.NRGBA{A: 0xff}
	if len(s) == 0 || s[0] != '#' {
		return c
	}
	hex := s[1:]

	digit := func(b byte) (uint8, bool) {
		switch {
		case b >= '0' && b <= '9':
			return b - '0', true
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10, true
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10, true
		}
		return 0, false
	}
	pair := func(i int) (uint8, bool) {
		hi, ok1 := digit(hex[i])
		lo, ok2 := digit(hex[i+1])
		return hi<<4 | lo, ok1 && ok2
	}

	switch len(hex) {
	case 3:
		r, ok1 := digit(hex[0])
		g, ok2 := digit(hex[1])
		b, ok3 := digit(hex[2])
		if ok1 && ok2 && ok3 {
			c.R, c.G, c.B = r*17, g*17, b*17
		}
	case 6:
		r, ok1 := pair(0)
		g, ok2 := pair(2)
		b, ok3 := pair(4)
		if ok1 && ok2 && ok3 {
			c.R, c.G, c.B = r, g, b
		}
	case 8:
		r, ok1 := pair(0)
		g, ok2 := pair(2)
		b, ok3 := pair(4)
		a, ok4 := pair(6)
		if ok1 && ok2 && ok3 && ok4 {
			c.R, c.G, c.B, c.A = r, g, b, a
		}
	}
	return c
}
