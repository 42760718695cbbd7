package backend

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// rpcEnvelope frames one request or response on the websocket. Every
// payload is plain JSON, so a native or wasm peer can implement the
// protocol without Go types.
type rpcEnvelope struct {
	Op      string          `json:"op,omitempty"`
	ID      uint64          `json:"id"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// errFallbackWire is the distinguished error string a peer returns for
// operations it wants handled locally. The client maps it back to
// ErrFallback.
const errFallbackWire = "fallback"

// Operation names on the wire.
const (
	opProcessStrokePoints = "processStrokePoints"
	opSmoothPath          = "smoothPath"
	opCollectPoints       = "collectPoints"
	opBatchDrawCommands   = "batchProcessDrawCommands"
	opCullStrokes         = "cullStrokesByViewport"
	opCompactStrokes      = "compactStrokes"
)

// DefaultRPCTimeout bounds each round trip when the dialer does not
// specify one.
const DefaultRPCTimeout = 2 * time.Second

// RPC is a Processor backed by an out-of-process peer over a
// websocket. Calls are synchronous request/response with a deadline;
// any transport or peer error surfaces to the caller, whose local
// fallback then runs.
type RPC struct {
	conn    *websocket.Conn
	timeout time.Duration

	// mu serializes calls: the protocol allows one in-flight request
	// per connection.
	mu     sync.Mutex
	nextID uint64
}

var _ Processor = (*RPC)(nil)

// DialRPC connects to an accelerated backend peer at url
// (e.g. "ws://127.0.0.1:7465/rpc"). A timeout of zero uses
// DefaultRPCTimeout.
func DialRPC(url string, timeout time.Duration) (*RPC, error) {
	if timeout <= 0 {
		timeout = DefaultRPCTimeout
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("backend: dial %s: %w", url, err)
	}
	r := &RPC{conn: conn, timeout: timeout}
	Register(NameRPC, func() Processor { return r })
	logger().Info("accelerated backend connected", "url", url)
	return r, nil
}

// Name returns "rpc".
func (r *RPC) Name() string { return NameRPC }

// call performs one request/response round trip.
func (r *RPC) call(op string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("backend: marshal %s: %w", op, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	deadline := time.Now().Add(r.timeout)

	_ = r.conn.SetWriteDeadline(deadline)
	if err := r.conn.WriteJSON(rpcEnvelope{Op: op, ID: id, Payload: payload}); err != nil {
		return fmt.Errorf("backend: write %s: %w", op, err)
	}

	_ = r.conn.SetReadDeadline(deadline)
	var resp rpcEnvelope
	for {
		if err := r.conn.ReadJSON(&resp); err != nil {
			return fmt.Errorf("backend: read %s: %w", op, err)
		}
		if resp.ID == id {
			break
		}
		// Stale response from a timed-out call; skip it.
	}

	if resp.Error == errFallbackWire {
		return ErrFallback
	}
	if resp.Error != "" {
		return fmt.Errorf("backend: %s: %s", op, resp.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("backend: decode %s: %w", op, err)
	}
	return nil
}

type processPointsRequest struct {
	Points []Point     `json:"points"`
	Config PointConfig `json:"config"`
}

// ProcessStrokePoints implements Processor.
func (r *RPC) ProcessStrokePoints(points []Point, cfg PointConfig) ([]Point, error) {
	var out []Point
	err := r.call(opProcessStrokePoints, processPointsRequest{Points: points, Config: cfg}, &out)
	return out, err
}

type smoothPathRequest struct {
	Points     []Point `json:"points"`
	Smoothness float64 `json:"smoothness"`
	Algorithm  string  `json:"algorithm"`
}

// SmoothPath implements Processor.
func (r *RPC) SmoothPath(points []Point, smoothness float64, algorithm string) ([]Point, error) {
	var out []Point
	err := r.call(opSmoothPath, smoothPathRequest{Points: points, Smoothness: smoothness, Algorithm: algorithm}, &out)
	return out, err
}

type collectPointsRequest struct {
	Points      []Point     `json:"points"`
	Config      PointConfig `json:"config"`
	LastTime    uint64      `json:"lastTime"`
	LastX       float64     `json:"lastX"`
	LastY       float64     `json:"lastY"`
	CurrentTime uint64      `json:"currentTime"`
}

// CollectPoints implements Processor.
func (r *RPC) CollectPoints(points []Point, cfg PointConfig, last CollectState, now uint64) (CollectResult, error) {
	var out CollectResult
	err := r.call(opCollectPoints, collectPointsRequest{
		Points:      points,
		Config:      cfg,
		LastTime:    last.LastTime,
		LastX:       last.LastX,
		LastY:       last.LastY,
		CurrentTime: now,
	}, &out)
	return out, err
}

type batchCommandsRequest struct {
	Commands     []DrawCommand `json:"commands"`
	MinDistance  float64       `json:"minDistance"`
	MaxBatchSize int           `json:"maxBatchSize"`
}

// BatchDrawCommands implements Processor.
func (r *RPC) BatchDrawCommands(commands []DrawCommand, minDistance float64, maxBatchSize int) ([]DrawCommand, error) {
	var out []DrawCommand
	err := r.call(opBatchDrawCommands, batchCommandsRequest{
		Commands:     commands,
		MinDistance:  minDistance,
		MaxBatchSize: maxBatchSize,
	}, &out)
	return out, err
}

type cullStrokesRequest struct {
	Strokes  []Stroke `json:"strokes"`
	Viewport Viewport `json:"viewport"`
}

// CullStrokes implements Processor.
func (r *RPC) CullStrokes(strokes []Stroke, vp Viewport) ([]Stroke, error) {
	var out []Stroke
	err := r.call(opCullStrokes, cullStrokesRequest{Strokes: strokes, Viewport: vp}, &out)
	return out, err
}

type compactStrokesRequest struct {
	BaseImage []byte   `json:"baseImage,omitempty"`
	Strokes   []Stroke `json:"strokes"`
	Width     int      `json:"width"`
	Height    int      `json:"height"`
}

type compactStrokesResponse struct {
	BaseImage []byte `json:"baseImage"`
}

// CompactStrokes implements Processor. The base image travels as PNG
// bytes (base64 inside the JSON envelope).
func (r *RPC) CompactStrokes(base []byte, strokes []Stroke, width, height int) ([]byte, error) {
	var out compactStrokesResponse
	err := r.call(opCompactStrokes, compactStrokesRequest{
		BaseImage: base,
		Strokes:   strokes,
		Width:     width,
		Height:    height,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.BaseImage, nil
}

// Close closes the websocket and unregisters the processor.
func (r *RPC) Close() error {
	Unregister(NameRPC)
	return r.conn.Close()
}
