package ink

import (
	"bytes"
	"fmt"
	"testing"
	"time"
)

// engineConfig disables the temporal throttle so programmatic samples
// are not dropped by wall-clock timing.
func engineConfig() Config {
	cfg := DefaultConfig()
	cfg.BatchInterval = 0
	return cfg
}

func newTestEngine(cfg Config) (*Engine, *ImageSurface) {
	surf := NewImageSurface(64, 64)
	return New(surf, WithConfig(cfg)), surf
}

// drawStroke feeds one horizontal five-segment stroke at the given row.
func drawStroke(t *testing.T, e *Engine, kind Kind, color string, y float64) {
	t.Helper()
	e.SetColor(color)
	e.StartStroke(kind)
	for i := 0; i < 5; i++ {
		x := float64(i) * 5
		if !e.AppendPoint(Seg(x, y, x+5, y)) {
			t.Fatalf("sample %d of stroke at y=%v rejected", i, y)
		}
	}
	e.EndStroke()
}

// settleEngine ticks until background compaction has fully caught up.
func settleEngine(t *testing.T, e *Engine) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		e.Tick(time.Now())
		if !e.store.Compacting() && e.store.Base() != nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("compacted base image never arrived")
}

func requireSamePixels(t *testing.T, got, want *ImageSurface, context string) {
	t.Helper()
	if !bytes.Equal(got.RGBA().Pix, want.RGBA().Pix) {
		t.Errorf("%s: surfaces differ", context)
	}
}

func strokeColor(i int) string {
	return fmt.Sprintf("#%02x40c0", (i*37)%256)
}

// TestEngine_CompactionPreservesPixels draws past the undo window so
// the older strokes are flattened into the base image, then checks the
// repainted result against an engine that never compacts.
func TestEngine_CompactionPreservesPixels(t *testing.T) {
	cfg := engineConfig()
	cfg.MaxUndoSteps = 10
	cfg.CompactThreshold = 10

	ref := engineConfig()
	ref.CompactThreshold = 1000

	compacted, compactedSurf := newTestEngine(cfg)
	reference, referenceSurf := newTestEngine(ref)

	for i := 0; i < 15; i++ {
		y := float64(2 + i*4)
		kind := KindDraw
		if i == 12 {
			kind = KindErase
		}
		drawStroke(t, compacted, kind, strokeColor(i), y)
		drawStroke(t, reference, kind, strokeColor(i), y)
	}

	settleEngine(t, compacted)
	if got := compacted.UndoDepth(); got != cfg.MaxUndoSteps {
		t.Errorf("UndoDepth() = %d after compaction, want %d", got, cfg.MaxUndoSteps)
	}

	compacted.RedrawAll()
	reference.RedrawAll()
	requireSamePixels(t, compactedSurf, referenceSurf, "compacted vs uncompacted repaint")
}

// TestEngine_UndoToBase exhausts the undo window and verifies only the
// flattened base remains.
func TestEngine_UndoToBase(t *testing.T) {
	cfg := engineConfig()
	cfg.MaxUndoSteps = 10
	cfg.CompactThreshold = 10

	e, surf := newTestEngine(cfg)
	for i := 0; i < 15; i++ {
		drawStroke(t, e, KindDraw, strokeColor(i), float64(2+i*4))
	}
	settleEngine(t, e)

	for i := 0; i < 10; i++ {
		if !e.Undo() {
			t.Fatalf("undo %d failed", i+1)
		}
	}
	if e.Undo() {
		t.Error("undo past the flattened base succeeded")
	}

	// Only the first five strokes were flattened; they are all that
	// should remain.
	base, baseSurf := newTestEngine(engineConfig())
	for i := 0; i < 5; i++ {
		drawStroke(t, base, KindDraw, strokeColor(i), float64(2+i*4))
	}
	base.RedrawAll()
	requireSamePixels(t, surf, baseSurf, "base-only pixels after exhausting undo")
}

// TestEngine_TickReportsCompactionInFlight drives the host's tick loop
// contract: Tick must keep returning true until the compaction result
// has been drained, even with no queued segments.
func TestEngine_TickReportsCompactionInFlight(t *testing.T) {
	cfg := engineConfig()
	cfg.MaxUndoSteps = 10
	cfg.CompactThreshold = 10

	e, _ := newTestEngine(cfg)
	for i := 0; i < 15; i++ {
		drawStroke(t, e, KindDraw, strokeColor(i), float64(2+i*4))
	}

	// EndStroke flushed every segment; only the compaction remains.
	deadline := time.Now().Add(2 * time.Second)
	ticked := false
	for e.Tick(time.Now()) {
		ticked = true
		if !time.Now().Before(deadline) {
			t.Fatal("Tick never reported the work done")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !ticked {
		t.Fatal("Tick reported no work while a compaction was in flight")
	}
	if e.SaveState().Base == nil {
		t.Error("Tick reported done before the compacted base was drained")
	}
}

func TestEngine_UndoRemovesLastStroke(t *testing.T) {
	e, surf := newTestEngine(engineConfig())
	ref, refSurf := newTestEngine(engineConfig())

	for i := 0; i < 3; i++ {
		drawStroke(t, e, KindDraw, strokeColor(i), float64(10+i*10))
	}
	for i := 0; i < 2; i++ {
		drawStroke(t, ref, KindDraw, strokeColor(i), float64(10+i*10))
	}

	if !e.Undo() {
		t.Fatal("undo failed")
	}
	ref.RedrawAll()
	requireSamePixels(t, surf, refSurf, "after undoing the third stroke")
}

func TestEngine_ClearUndoRoundTrip(t *testing.T) {
	e, surf := newTestEngine(engineConfig())
	ref, refSurf := newTestEngine(engineConfig())

	for i := 0; i < 2; i++ {
		drawStroke(t, e, KindDraw, strokeColor(i), float64(10+i*10))
		drawStroke(t, ref, KindDraw, strokeColor(i), float64(10+i*10))
	}

	e.ClearAll()
	for _, v := range surf.RGBA().Pix {
		if v != 0 {
			t.Fatal("surface not blank after ClearAll")
		}
	}
	if e.UndoDepth() != 1 {
		t.Fatalf("UndoDepth() = %d after ClearAll, want 1", e.UndoDepth())
	}

	if !e.Undo() {
		t.Fatal("undo of clear failed")
	}
	ref.RedrawAll()
	requireSamePixels(t, surf, refSurf, "after undoing the clear")
}

func TestEngine_EraserRemovesInk(t *testing.T) {
	e, surf := newTestEngine(engineConfig())

	drawStroke(t, e, KindDraw, "#ff0000", 20)
	e.SetEraserSize(30)
	drawStroke(t, e, KindErase, "", 20)

	if a := surf.RGBA().RGBAAt(12, 20).A; a != 0 {
		t.Errorf("erased pixel alpha = %d, want 0", a)
	}
}

func TestEngine_DirtyFlag(t *testing.T) {
	e, _ := newTestEngine(engineConfig())
	if e.Dirty() {
		t.Error("fresh engine is dirty")
	}

	drawStroke(t, e, KindDraw, "#000000", 10)
	if !e.Dirty() {
		t.Error("engine not dirty after drawing")
	}

	e.MarkSaved()
	if e.Dirty() {
		t.Error("engine dirty after MarkSaved")
	}

	e.Undo()
	if !e.Dirty() {
		t.Error("engine not dirty after undo")
	}
}

func TestEngine_SaveLoadRoundTrip(t *testing.T) {
	e, surf := newTestEngine(engineConfig())

	for i := 0; i < 3; i++ {
		drawStroke(t, e, KindDraw, strokeColor(i), float64(10+i*10))
	}
	saved := e.SaveState()
	want := append([]byte(nil), surf.RGBA().Pix...)

	drawStroke(t, e, KindDraw, "#123456", 50)
	e.ClearAll()

	e.LoadState(saved)
	if !bytes.Equal(surf.RGBA().Pix, want) {
		t.Error("pixels not restored by LoadState")
	}
	if e.Dirty() {
		t.Error("engine dirty right after LoadState")
	}
	if e.UndoDepth() != 3 {
		t.Errorf("UndoDepth() = %d after LoadState, want 3", e.UndoDepth())
	}
}

func TestEngine_SavedStateIsIsolated(t *testing.T) {
	e, _ := newTestEngine(engineConfig())
	drawStroke(t, e, KindDraw, "#000000", 10)

	saved := e.SaveState()
	drawStroke(t, e, KindDraw, "#000000", 20)

	if len(saved.Strokes) != 1 {
		t.Errorf("saved state grew to %d strokes after more drawing", len(saved.Strokes))
	}
}

func TestEngine_StartStrokeFinalizesUnfinishedGesture(t *testing.T) {
	e, _ := newTestEngine(engineConfig())

	e.StartStroke(KindDraw)
	e.AppendPoint(Seg(0, 10, 5, 10))
	// Pointer-up was lost; the next pointer-down must not corrupt
	// history.
	e.StartStroke(KindDraw)
	e.AppendPoint(Seg(0, 20, 5, 20))
	e.EndStroke()

	if got := e.UndoDepth(); got != 2 {
		t.Errorf("UndoDepth() = %d, want 2 (lost pointer-up finalized)", got)
	}
}

func TestEngine_ViewportCulling(t *testing.T) {
	cfg := engineConfig()
	cfg.CullThreshold = 2
	e, surf := newTestEngine(cfg)

	for i := 0; i < 4; i++ {
		drawStroke(t, e, KindDraw, "#ff0000", float64(10+i*10))
	}
	e.SetViewport(&Viewport{X: 0, Y: 0, Width: 64, Height: 15})
	e.RedrawAll()

	if a := surf.RGBA().RGBAAt(12, 10).A; a == 0 {
		t.Error("in-viewport stroke culled")
	}
	if a := surf.RGBA().RGBAAt(12, 40).A; a != 0 {
		t.Error("off-viewport stroke drawn")
	}
}
