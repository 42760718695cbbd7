package backend

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
)

// dialTestRPC spins up a websocket server around proc and dials it.
func dialTestRPC(t *testing.T, proc Processor) *RPC {
	t.Helper()
	srv := httptest.NewServer(NewServer(proc))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	rpc, err := DialRPC(url, 0)
	if err != nil {
		t.Fatalf("DialRPC(%s): %v", url, err)
	}
	t.Cleanup(func() { _ = rpc.Close() })
	return rpc
}

func TestRPC_RoundTrip(t *testing.T) {
	rpc := dialTestRPC(t, Software{})
	cfg := PointConfig{Epsilon: 0.5, MinDistance: 1, Quantization: 1}

	in := pts(0, 0, 5, 0, 5, 0, 10, 0, 10, 0, 15, 0)
	got, err := rpc.ProcessStrokePoints(in, cfg)
	if err != nil {
		t.Fatalf("ProcessStrokePoints over rpc: %v", err)
	}
	want, _ := Software{}.ProcessStrokePoints(in, cfg)
	if len(got) != len(want) {
		t.Fatalf("rpc returned %d points, software %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("point %d: rpc %v, software %v", i, got[i], want[i])
		}
	}
}

func TestRPC_CullStrokes(t *testing.T) {
	rpc := dialTestRPC(t, Software{})

	strokes := []Stroke{
		{ID: "in", Type: "draw", Points: pts(10, 10, 20, 20)},
		{ID: "out", Type: "draw", Points: pts(200, 200, 300, 300)},
	}
	got, err := rpc.CullStrokes(strokes, Viewport{Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("CullStrokes over rpc: %v", err)
	}
	if len(got) != 1 || got[0].ID != "in" {
		t.Errorf("culled to %v, want [in]", got)
	}
}

func TestRPC_BatchDrawCommands(t *testing.T) {
	rpc := dialTestRPC(t, Software{})

	cmds := []DrawCommand{
		{Type: "draw", Color: "#ff0000", LineWidth: 3, ToX: 10},
		{Type: "draw", Color: "#0000ff", LineWidth: 3, ToX: 10},
		{Type: "draw", Color: "#ff0000", LineWidth: 3, FromX: 10, ToX: 20},
	}
	got, err := rpc.BatchDrawCommands(cmds, 1, 100)
	if err != nil {
		t.Fatalf("BatchDrawCommands over rpc: %v", err)
	}
	if len(got) != 3 || got[1].Color != "#ff0000" {
		t.Errorf("grouping lost over the wire: %v", got)
	}
}

func TestRPC_FallbackCrossesWire(t *testing.T) {
	// The software peer has no raster pipeline; its ErrFallback must
	// survive the wire as the distinguished error string.
	rpc := dialTestRPC(t, Software{})

	_, err := rpc.CompactStrokes(nil, nil, 64, 64)
	if !errors.Is(err, ErrFallback) {
		t.Errorf("CompactStrokes error = %v, want ErrFallback", err)
	}
}

func TestRPC_RegistersAndUnregisters(t *testing.T) {
	srv := httptest.NewServer(NewServer(Software{}))
	defer srv.Close()

	rpc, err := DialRPC("ws"+strings.TrimPrefix(srv.URL, "http"), 0)
	if err != nil {
		t.Fatalf("DialRPC: %v", err)
	}
	if p := Default(); p == nil || p.Name() != NameRPC {
		t.Errorf("Default() = %v while connected, want rpc", p)
	}

	if err := rpc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if p := Default(); p == nil || p.Name() != NameSoftware {
		t.Errorf("Default() = %v after Close, want software", p)
	}
}
