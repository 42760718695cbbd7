package backend

import (
	"github.com/viewstage/ink/internal/geom"
)

func init() {
	Register(NameSoftware, func() Processor { return Software{} })
}

// Software is the pure Go in-process processor. It is the behavioral
// reference for every accelerated implementation and the guaranteed
// fallback when none is available.
type Software struct{}

var _ Processor = Software{}

// Name returns "software".
func (Software) Name() string { return NameSoftware }

func toGeom(points []Point) []geom.Segment {
	out := make([]geom.Segment, len(points))
	for i, p := range points {
		out[i] = geom.Segment{FromX: p.FromX, FromY: p.FromY, ToX: p.ToX, ToY: p.ToY}
	}
	return out
}

func fromGeom(points []geom.Segment) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{FromX: p.FromX, FromY: p.FromY, ToX: p.ToX, ToY: p.ToY}
	}
	return out
}

// ProcessStrokePoints quantizes, filters and simplifies in one pass.
func (Software) ProcessStrokePoints(points []Point, cfg PointConfig) ([]Point, error) {
	filtered := make([]geom.Segment, 0, len(points))
	for _, p := range points {
		q := geom.Segment{FromX: p.FromX, FromY: p.FromY, ToX: p.ToX, ToY: p.ToY}.Quantized(cfg.Quantization)
		if q.Length() >= cfg.MinDistance {
			filtered = append(filtered, q)
		}
	}
	return fromGeom(geom.Simplify(filtered, cfg.Epsilon)), nil
}

// SmoothPath smooths a point path with the named algorithm.
func (Software) SmoothPath(points []Point, smoothness float64, algorithm string) ([]Point, error) {
	if len(points) < 2 || smoothness <= 0 {
		return points, nil
	}
	gp := toGeom(points)
	if algorithm == "moving_average" {
		return fromGeom(geom.SmoothMovingAverage(gp, smoothness)), nil
	}
	return fromGeom(geom.SmoothBezier(gp, smoothness)), nil
}

// CollectPoints applies the spatial and temporal filters to a raw
// sample batch, resuming from last.
func (Software) CollectPoints(points []Point, cfg PointConfig, last CollectState, now uint64) (CollectResult, error) {
	collected := make([]geom.Segment, 0, len(points))
	lastTime := last.LastTime
	lastX, lastY := last.LastX, last.LastY

	for _, p := range points {
		q := geom.Segment{FromX: p.FromX, FromY: p.FromY, ToX: p.ToX, ToY: p.ToY}.Quantized(cfg.Quantization)
		if q.Length() < cfg.MinDistance {
			continue
		}
		// Additive form: now-lastTime would wrap if a peer sends a
		// timestamp behind the carried state.
		if now < lastTime+collectThrottle {
			continue
		}
		lastTime = now
		lastX, lastY = q.ToX, q.ToY
		collected = append(collected, q)

		if len(collected) > eagerSimplifyLimit {
			collected = geom.Simplify(collected, cfg.Epsilon)
		}
	}

	return CollectResult{
		CollectedPoints: fromGeom(collected),
		LastTime:        lastTime,
		LastX:           lastX,
		LastY:           lastY,
	}, nil
}

// BatchDrawCommands drops sub-minDistance segments and groups the rest
// by render state in first-seen order.
func (Software) BatchDrawCommands(commands []DrawCommand, minDistance float64, maxBatchSize int) ([]DrawCommand, error) {
	type key struct {
		typ   string
		color string
		width float64
	}

	groups := make(map[key][]DrawCommand)
	order := make([]key, 0, 4)

	for _, cmd := range commands {
		if geom.Distance(cmd.FromX, cmd.FromY, cmd.ToX, cmd.ToY) < minDistance {
			continue
		}
		k := key{typ: cmd.Type, color: cmd.Color, width: cmd.LineWidth}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], cmd)
	}

	out := make([]DrawCommand, 0, len(commands))
	for _, k := range order {
		out = append(out, groups[k]...)
	}
	return out, nil
}

// CullStrokes keeps the strokes with at least one segment touching the
// viewport.
func (Software) CullStrokes(strokes []Stroke, vp Viewport) ([]Stroke, error) {
	left, top := vp.X, vp.Y
	right, bottom := vp.X+vp.Width, vp.Y+vp.Height

	visible := make([]Stroke, 0, len(strokes))
	for _, st := range strokes {
		if len(st.Points) == 0 {
			continue
		}
		for _, p := range st.Points {
			if geom.SegmentIntersectsRect(p.FromX, p.FromY, p.ToX, p.ToY, left, top, right, bottom) {
				visible = append(visible, st)
				break
			}
		}
	}
	return visible, nil
}

// CompactStrokes is not supported: the software processor has no
// raster pipeline. The engine's local fallback renders the compaction
// itself.
func (Software) CompactStrokes([]byte, []Stroke, int, int) ([]byte, error) {
	return nil, ErrFallback
}

// Close is a no-op.
func (Software) Close() error { return nil }
