package ink

import (
	"errors"
	"time"

	"github.com/viewstage/ink/backend"
)

// Engine is the top-level annotation engine context. It wires the
// point collector, the stroke store, the adaptive scheduler, the
// render pipeline, and the accelerated backend together, with a
// lifetime owned by the host (construct on canvas init, drop on
// teardown).
//
// All methods must be called from a single goroutine, normally the
// host's UI loop. Pointer handlers (StartStroke, AppendPoint,
// EndStroke) never block; Tick is the once-per-display-frame callback.
type Engine struct {
	cfg     Config
	surface Surface
	proc    backend.Processor

	collector *Collector
	scheduler *Scheduler
	pipeline  *Pipeline
	store     *Store

	viewport *Viewport

	color      string
	width      float64
	eraserSize float64

	dirty bool
}

// New creates an engine drawing onto surface.
func New(surface Surface, opts ...Option) *Engine {
	o := defaultEngineOptions()
	for _, opt := range opts {
		opt(&o)
	}

	proc := o.processor
	if proc == nil {
		proc = backend.Default()
	}
	if proc != nil {
		Logger().Info("annotation engine ready", "processor", proc.Name())
	}

	width, height := surface.Size()
	scheduler := NewScheduler(o.cfg)

	return &Engine{
		cfg:        o.cfg,
		surface:    surface,
		proc:       proc,
		collector:  NewCollector(o.cfg.Quantization, o.cfg.MinDistance, o.cfg.BatchInterval),
		scheduler:  scheduler,
		pipeline:   NewPipeline(surface, proc, scheduler, o.cfg.MaxBatchSize),
		store:      NewStore(o.cfg, proc, o.offscreen, width, height),
		color:      "#000000",
		width:      3,
		eraserSize: 20,
	}
}

// SetColor sets the draw color for subsequent strokes (#rrggbb).
func (e *Engine) SetColor(color string) { e.color = color }

// SetWidth sets the draw stroke width for subsequent strokes.
func (e *Engine) SetWidth(width float64) { e.width = width }

// SetEraserSize sets the eraser width for subsequent erase strokes.
func (e *Engine) SetEraserSize(size float64) { e.eraserSize = size }

// SetViewport sets the visible region used to cull off-screen strokes
// during RedrawAll. Pass nil to disable culling.
func (e *Engine) SetViewport(vp *Viewport) {
	if vp == nil {
		e.viewport = nil
		return
	}
	v := *vp
	e.viewport = &v
}

// StartStroke opens a stroke with the current tool settings
// (pointer-down). An unfinished gesture is finalized first, so a lost
// pointer-up can never corrupt the history.
func (e *Engine) StartStroke(kind Kind) {
	if e.store.ActiveStroke() != nil {
		e.EndStroke()
	}
	e.collector.Reset()
	width := e.width
	if kind == KindErase {
		width = e.eraserSize
	}
	e.store.Begin(kind, e.color, width)
}

// AppendPoint feeds one raw pointer sample (pointer-move). It reports
// whether the sample survived the collector's filters and entered the
// stroke.
func (e *Engine) AppendPoint(raw Segment) bool {
	if e.store.ActiveStroke() == nil {
		return false
	}
	seg, ok := e.collector.Accept(raw, time.Now())
	if !ok {
		return false
	}

	style := e.store.ActiveStyle()
	for _, appended := range e.store.Append(seg) {
		e.pipeline.Add(DrawCommand{Style: style, Seg: appended})
	}
	e.dirty = true
	return true
}

// EndStroke finalizes the live gesture (pointer-up, -leave and -cancel
// all route here with identical semantics) and flushes its remaining
// segments. Exceeding the compaction threshold schedules a background
// compaction.
func (e *Engine) EndStroke() {
	e.store.End()
	e.pipeline.FlushAll()
}

// Undo removes the most recent stroke and redraws. Undoing a clear
// restores the full pre-clear state. Undo on an empty history is a
// no-op and returns false.
func (e *Engine) Undo() bool {
	if !e.store.Undo() {
		return false
	}
	e.pipeline.Reset()
	e.RedrawAll()
	e.dirty = true
	return true
}

// ClearAll wipes the surface and the history. The erased state is
// captured so a single Undo fully restores it.
func (e *Engine) ClearAll() {
	e.store.Clear()
	e.pipeline.Reset()
	e.surface.Clear()
	e.dirty = true
}

// RedrawAll repaints the surface from scratch: base image first, then
// every retained stroke in chronological order, so erase strokes
// composite at the point in history they occurred. Above the cull
// threshold, off-screen strokes are skipped when a viewport is set.
func (e *Engine) RedrawAll() {
	width, height := e.surface.Size()
	e.surface.Clear()

	if base := e.store.Base(); base != nil {
		e.surface.DrawImage(base, 0, 0, float64(width), float64(height), e.scheduler.Quality())
	}

	strokes := e.store.Strokes()
	if e.viewport != nil && len(strokes) > e.cfg.CullThreshold {
		strokes = e.cullVisible(strokes, *e.viewport)
	}

	for _, st := range strokes {
		if st.Kind == KindClear {
			e.surface.Clear()
			continue
		}
		if len(st.Points) == 0 {
			continue
		}
		e.surface.StrokePath(st.Points, PathStyle{Kind: st.Kind, Color: st.Color, Width: st.Width})
	}

	if act := e.store.ActiveStroke(); act != nil && len(act.Points) > 0 {
		e.surface.StrokePath(act.Points, e.store.ActiveStyle())
	}
}

// cullVisible drops strokes that cannot contribute visible pixels,
// preserving order. Clear markers always survive: they affect every
// pixel. The accelerated backend is tried first.
func (e *Engine) cullVisible(strokes []*Stroke, vp Viewport) []*Stroke {
	if e.proc != nil {
		wire, err := e.proc.CullStrokes(strokesToWire(strokes), viewportToWire(vp))
		if err == nil {
			visible := make(map[string]bool, len(wire))
			for _, st := range wire {
				visible[st.ID] = true
			}
			kept := make([]*Stroke, 0, len(wire))
			for _, st := range strokes {
				if st.Kind == KindClear || visible[st.ID] {
					kept = append(kept, st)
				}
			}
			return kept
		}
		if !errors.Is(err, backend.ErrFallback) {
			Logger().Warn("viewport culling failed on backend, using local fallback",
				"processor", e.proc.Name(), "err", err)
		}
	}
	return CullStrokes(strokes, vp)
}

// Tick is the once-per-display-frame callback: it applies finished
// compaction results, runs one bounded pipeline flush, feeds the flush
// latency to the scheduler, and reports whether pending work remains,
// queued segments or an in-flight compaction (the host keeps
// scheduling ticks only while it does).
func (e *Engine) Tick(now time.Time) bool {
	e.store.ApplyPending()

	if e.pipeline.Pending() > 0 {
		start := time.Now()
		e.pipeline.Flush()
		e.scheduler.Observe(time.Since(start))
	}
	e.scheduler.Adapt(now)
	return e.pipeline.Pending() > 0 || e.store.Compacting()
}

// UndoDepth returns the number of individually undoable steps.
func (e *Engine) UndoDepth() int {
	return e.store.UndoDepth()
}

// Dirty reports whether the annotation state changed since the last
// MarkSaved.
func (e *Engine) Dirty() bool {
	return e.dirty
}

// MarkSaved clears the dirty flag after the host persists the state.
func (e *Engine) MarkSaved() {
	e.dirty = false
}

// Surface returns the engine's drawing surface.
func (e *Engine) Surface() Surface {
	return e.surface
}

// Scheduler returns the adaptive performance scheduler, exposed for
// host-side diagnostics.
func (e *Engine) Scheduler() *Scheduler {
	return e.scheduler
}
