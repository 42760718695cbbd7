package backend

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
)

// Server exposes a Processor over the websocket RPC protocol. It is
// the counterpart of RPC: a daemon wraps its processor in a Server,
// and engines dial it with DialRPC.
type Server struct {
	proc     Processor
	upgrader websocket.Upgrader
}

// NewServer creates a server backed by proc.
func NewServer(proc Processor) *Server {
	return &Server{
		proc: proc,
		upgrader: websocket.Upgrader{
			// The daemon binds to loopback; origin checking is the
			// host application's concern.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the connection and serves requests until the
// peer disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger().Warn("rpc upgrade failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	log := logger().With("remote", conn.RemoteAddr().String())
	log.Info("rpc peer connected")

	for {
		var req rpcEnvelope
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("rpc read ended", "err", err)
			}
			return
		}

		resp := s.dispatch(req)
		if err := conn.WriteJSON(resp); err != nil {
			log.Debug("rpc write failed", "err", err)
			return
		}
	}
}

// dispatch runs one operation and builds its response envelope.
func (s *Server) dispatch(req rpcEnvelope) rpcEnvelope {
	result, err := s.handle(req.Op, req.Payload)
	resp := rpcEnvelope{ID: req.ID}
	switch {
	case errors.Is(err, ErrFallback):
		resp.Error = errFallbackWire
	case err != nil:
		resp.Error = err.Error()
	default:
		resp.Result = result
	}
	return resp
}

func (s *Server) handle(op string, payload json.RawMessage) (json.RawMessage, error) {
	switch op {
	case opProcessStrokePoints:
		var req processPointsRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		points, err := s.proc.ProcessStrokePoints(req.Points, req.Config)
		if err != nil {
			return nil, err
		}
		return json.Marshal(points)

	case opSmoothPath:
		var req smoothPathRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		points, err := s.proc.SmoothPath(req.Points, req.Smoothness, req.Algorithm)
		if err != nil {
			return nil, err
		}
		return json.Marshal(points)

	case opCollectPoints:
		var req collectPointsRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		result, err := s.proc.CollectPoints(req.Points, req.Config, CollectState{
			LastTime: req.LastTime,
			LastX:    req.LastX,
			LastY:    req.LastY,
		}, req.CurrentTime)
		if err != nil {
			return nil, err
		}
		return json.Marshal(result)

	case opBatchDrawCommands:
		var req batchCommandsRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		commands, err := s.proc.BatchDrawCommands(req.Commands, req.MinDistance, req.MaxBatchSize)
		if err != nil {
			return nil, err
		}
		return json.Marshal(commands)

	case opCullStrokes:
		var req cullStrokesRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		strokes, err := s.proc.CullStrokes(req.Strokes, req.Viewport)
		if err != nil {
			return nil, err
		}
		return json.Marshal(strokes)

	case opCompactStrokes:
		var req compactStrokesRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
		base, err := s.proc.CompactStrokes(req.BaseImage, req.Strokes, req.Width, req.Height)
		if err != nil {
			return nil, err
		}
		return json.Marshal(compactStrokesResponse{BaseImage: base})

	default:
		return nil, errors.New("unknown op " + op)
	}
}
