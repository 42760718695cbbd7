// Package ink is an incremental freehand-annotation engine.
//
// # Overview
//
// ink lets a host application annotate a live background (camera feed,
// document page) with bounded memory, multi-level undo, and sustained
// interactive frame rates on weak hardware. The host owns the window,
// the input devices, and persistence; the engine owns strokes, the
// undo/compaction scheme, adaptive performance scheduling, and batched
// rendering against an abstract drawing surface.
//
// # Quick Start
//
//	surface := ink.NewImageSurface(1280, 720)
//	eng := ink.New(surface)
//
//	// Pointer gesture: down, move, up.
//	eng.StartStroke(ink.KindDraw)
//	eng.AppendPoint(ink.Seg(10, 10, 12, 11))
//	eng.AppendPoint(ink.Seg(12, 11, 15, 13))
//	eng.EndStroke()
//
//	// Once per display frame:
//	for eng.Tick(time.Now()) {
//	}
//
// # Architecture
//
// The engine is organized into:
//   - Public API: Engine, Segment, Stroke, Surface, Collector,
//     Scheduler, Pipeline
//   - Internal: geom (simplification, smoothing, culling kernels)
//   - Backend: optional accelerated point processing with a pure
//     in-process fallback (see the backend package)
//
// All Engine methods must be called from a single goroutine, normally
// the host's UI loop. Compaction work runs in the background and its
// results are applied during Tick, guarded by a load token so a stale
// result can never overwrite newer state.
package ink
