package backend

import (
	"errors"
	"testing"
)

func pts(coords ...float64) []Point {
	out := make([]Point, 0, len(coords)/4)
	for i := 0; i+3 < len(coords); i += 4 {
		out = append(out, Point{FromX: coords[i], FromY: coords[i+1], ToX: coords[i+2], ToY: coords[i+3]})
	}
	return out
}

func TestSoftware_ProcessStrokePoints(t *testing.T) {
	proc := Software{}
	cfg := PointConfig{Epsilon: 0.5, MinDistance: 1, Quantization: 1}

	in := pts(
		0, 0, 5, 0,
		5, 0, 5.2, 0, // quantizes to zero length, dropped
		5, 0, 10, 0,
		10, 0, 15, 0, // collinear with the previous, simplified away
	)
	got, err := proc.ProcessStrokePoints(in, cfg)
	if err != nil {
		t.Fatalf("ProcessStrokePoints: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("kept %d points, want 2", len(got))
	}
	if got[0] != (Point{ToX: 5}) {
		t.Errorf("first point = %v, want (0,0)->(5,0)", got[0])
	}
	if got[1] != (Point{FromX: 10, ToX: 15}) {
		t.Errorf("last point = %v, want (10,0)->(15,0)", got[1])
	}
}

func TestSoftware_SmoothPath(t *testing.T) {
	proc := Software{}
	in := pts(0, 0, 2, 4, 2, 4, 4, 0, 4, 0, 6, 4, 6, 4, 8, 0)

	t.Run("zero smoothness unchanged", func(t *testing.T) {
		got, err := proc.SmoothPath(in, 0, "bezier")
		if err != nil {
			t.Fatalf("SmoothPath: %v", err)
		}
		for i := range got {
			if got[i] != in[i] {
				t.Fatalf("point %d changed: %v", i, got[i])
			}
		}
	})

	t.Run("moving average reduces amplitude", func(t *testing.T) {
		got, err := proc.SmoothPath(in, 1, "moving_average")
		if err != nil {
			t.Fatalf("SmoothPath: %v", err)
		}
		if len(got) != len(in) {
			t.Fatalf("length changed: %d, want %d", len(got), len(in))
		}
		for i := 1; i < len(got)-1; i++ {
			if got[i].FromY <= 0 || got[i].FromY >= 4 {
				t.Errorf("point %d not averaged: fromY = %v", i, got[i].FromY)
			}
		}
	})
}

func TestSoftware_CollectPoints(t *testing.T) {
	proc := Software{}
	cfg := PointConfig{MinDistance: 1, Quantization: 1}

	batch := pts(0, 0, 5, 0, 5, 0, 10, 0, 10, 0, 15, 0)

	first, err := proc.CollectPoints(batch, cfg, CollectState{}, 100)
	if err != nil {
		t.Fatalf("CollectPoints: %v", err)
	}
	// All samples in one batch share the same timestamp, so the
	// throttle admits exactly one.
	if len(first.CollectedPoints) != 1 {
		t.Fatalf("first batch collected %d, want 1", len(first.CollectedPoints))
	}
	if first.LastTime != 100 || first.LastX != 5 || first.LastY != 0 {
		t.Errorf("carried state = %+v, want lastTime=100 last=(5,0)", first)
	}

	state := CollectState{LastTime: first.LastTime, LastX: first.LastX, LastY: first.LastY}

	inside, err := proc.CollectPoints(batch, cfg, state, 110)
	if err != nil {
		t.Fatalf("CollectPoints: %v", err)
	}
	if len(inside.CollectedPoints) != 0 {
		t.Errorf("batch inside throttle collected %d, want 0", len(inside.CollectedPoints))
	}

	after, err := proc.CollectPoints(batch, cfg, state, 140)
	if err != nil {
		t.Fatalf("CollectPoints: %v", err)
	}
	if len(after.CollectedPoints) != 1 {
		t.Errorf("batch after throttle collected %d, want 1", len(after.CollectedPoints))
	}
}

func TestSoftware_CollectPointsClockBehindState(t *testing.T) {
	proc := Software{}
	cfg := PointConfig{MinDistance: 1, Quantization: 1}

	// A peer resume with a timestamp behind the carried state must
	// throttle, not wrap the unsigned subtraction and accept.
	state := CollectState{LastTime: 1000, LastX: 5, LastY: 0}
	got, err := proc.CollectPoints(pts(0, 0, 5, 0), cfg, state, 500)
	if err != nil {
		t.Fatalf("CollectPoints: %v", err)
	}
	if len(got.CollectedPoints) != 0 {
		t.Errorf("collected %d points with now behind lastTime, want 0", len(got.CollectedPoints))
	}
	if got.LastTime != 1000 {
		t.Errorf("carried lastTime = %d, want 1000 unchanged", got.LastTime)
	}
}

func TestSoftware_BatchDrawCommands(t *testing.T) {
	proc := Software{}
	cmds := []DrawCommand{
		{Type: "draw", Color: "#ff0000", LineWidth: 3, ToX: 10},
		{Type: "draw", Color: "#0000ff", LineWidth: 3, FromY: 5, ToX: 10, ToY: 5},
		{Type: "draw", Color: "#ff0000", LineWidth: 3, FromX: 10, ToX: 20},
		{Type: "draw", Color: "#ff0000", LineWidth: 3, FromX: 20, ToX: 20.2}, // sub-minDistance
	}

	got, err := proc.BatchDrawCommands(cmds, 1, 100)
	if err != nil {
		t.Fatalf("BatchDrawCommands: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("kept %d commands, want 3", len(got))
	}
	// First-seen group order: both red commands, then the blue one.
	if got[0].Color != "#ff0000" || got[1].Color != "#ff0000" || got[2].Color != "#0000ff" {
		t.Errorf("group order = %s, %s, %s", got[0].Color, got[1].Color, got[2].Color)
	}
}

func TestSoftware_CullStrokes(t *testing.T) {
	proc := Software{}
	strokes := []Stroke{
		{ID: "in", Type: "draw", Points: pts(10, 10, 20, 20)},
		{ID: "out", Type: "draw", Points: pts(200, 200, 300, 300)},
		{ID: "crossing", Type: "draw", Points: pts(-50, 50, 150, 50)},
		{ID: "empty", Type: "draw"},
	}

	got, err := proc.CullStrokes(strokes, Viewport{X: 0, Y: 0, Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("CullStrokes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("kept %d strokes, want 2", len(got))
	}
	if got[0].ID != "in" || got[1].ID != "crossing" {
		t.Errorf("kept %s, %s; want in, crossing", got[0].ID, got[1].ID)
	}
}

func TestSoftware_CompactStrokesFallsBack(t *testing.T) {
	_, err := Software{}.CompactStrokes(nil, nil, 64, 64)
	if !errors.Is(err, ErrFallback) {
		t.Errorf("CompactStrokes error = %v, want ErrFallback", err)
	}
}

func TestRegistry(t *testing.T) {
	if Get(NameSoftware) == nil {
		t.Fatal("software processor not registered at init")
	}
	if Get("nope") != nil {
		t.Error("Get of unknown name returned a processor")
	}

	// Without an RPC peer, Default selects the software processor.
	if p := Default(); p == nil || p.Name() != NameSoftware {
		t.Errorf("Default() = %v, want software", p)
	}

	Register("custom", func() Processor { return Software{} })
	defer Unregister("custom")

	found := false
	for _, name := range Available() {
		if name == "custom" {
			found = true
		}
	}
	if !found {
		t.Error("registered processor missing from Available()")
	}
}
