package ink

import (
	"errors"
	"image"

	"github.com/google/uuid"
	"github.com/viewstage/ink/backend"
)

// compactResult is one finished compaction pass, delivered from the
// compaction goroutine to the owner goroutine.
type compactResult struct {
	token uint64
	base  image.Image
}

// Store owns the ordered stroke list, the compacted base image, and
// the undo/compaction policy. All methods are owner-goroutine only;
// compaction runs in the background on copied inputs and its result is
// applied by ApplyPending, guarded by the load token.
type Store struct {
	cfg       Config
	proc      backend.Processor
	offscreen func(width, height int) Surface
	width     int
	height    int

	strokes []*Stroke
	base    image.Image

	// token is the latest issued load token. A compaction result is
	// applied only when its token still matches; anything else is a
	// stale result from a superseded pass and is silently discarded.
	token uint64

	// inFlight guards against overlapping compaction passes: a second
	// pass flattening over a base the first pass has not delivered yet
	// would lose the first pass's pixels.
	inFlight bool

	active  *Stroke
	results chan compactResult
}

// NewStore creates a store for a surface of the given size.
func NewStore(cfg Config, proc backend.Processor, offscreen func(width, height int) Surface, width, height int) *Store {
	return &Store{
		cfg:       cfg,
		proc:      proc,
		offscreen: offscreen,
		width:     width,
		height:    height,
		results:   make(chan compactResult, 4),
	}
}

// Begin opens a new mutable stroke with the given tool settings.
func (s *Store) Begin(kind Kind, color string, width float64) {
	s.active = &Stroke{
		ID:    uuid.NewString(),
		Kind:  kind,
		Color: color,
		Width: width,
	}
}

// ActiveStyle returns the render state of the live stroke. Valid only
// while a gesture is active.
func (s *Store) ActiveStyle() PathStyle {
	if s.active == nil {
		return PathStyle{}
	}
	return PathStyle{Kind: s.active.Kind, Color: s.active.Color, Width: s.active.Width}
}

// ActiveStroke returns the live stroke, or nil outside a gesture.
func (s *Store) ActiveStroke() *Stroke {
	return s.active
}

// Append adds an accepted segment to the live stroke. When the new
// segment's start does not coincide with the previous segment's end,
// an implicit bridging segment is inserted first so the rendered path
// has no visual breaks. The returned slice holds every segment
// actually appended, bridge included, for the render pipeline.
func (s *Store) Append(seg Segment) []Segment {
	if s.active == nil {
		return nil
	}

	appended := make([]Segment, 0, 2)
	if n := len(s.active.Points); n > 0 {
		prev := s.active.Points[n-1]
		if Distance(prev.ToX, prev.ToY, seg.FromX, seg.FromY) > s.cfg.GapBridgeDistance {
			bridge := Seg(prev.ToX, prev.ToY, seg.FromX, seg.FromY)
			s.active.Points = append(s.active.Points, bridge)
			appended = append(appended, bridge)
		}
	}
	s.active.Points = append(s.active.Points, seg)
	appended = append(appended, seg)

	// Eager in-place simplify keeps a very long gesture bounded while
	// it is still being drawn.
	if s.cfg.MaxPointsPerStroke > 0 && len(s.active.Points) > s.cfg.MaxPointsPerStroke {
		s.active.Points = Simplify(s.active.Points, s.cfg.Epsilon)
	}
	return appended
}

// End finalizes the live stroke: oversized draw strokes are simplified
// and smoothed, erase strokes keep their exact geometry. Empty strokes
// are dropped. Exceeding the compaction threshold schedules a
// background compaction pass.
func (s *Store) End() *Stroke {
	st := s.active
	s.active = nil
	if st == nil || len(st.Points) == 0 {
		return nil
	}

	if st.Kind == KindDraw && len(st.Points) > s.cfg.SmoothMinPoints {
		st.Points = s.finalizePoints(st.Points)
	}

	s.strokes = append(s.strokes, st)
	if len(s.strokes) > s.cfg.CompactThreshold {
		s.scheduleCompact()
	}
	return st
}

// finalizePoints simplifies and smooths a finalized draw path, trying
// the accelerated backend first with the pure fallback on any error.
func (s *Store) finalizePoints(points []Segment) []Segment {
	cfg := backend.PointConfig{
		Epsilon:      s.cfg.Epsilon,
		MinDistance:  s.cfg.MinDistance,
		Quantization: s.cfg.Quantization,
	}

	simplified := points
	processed := false
	if s.proc != nil {
		wire, err := s.proc.ProcessStrokePoints(segmentsToWire(points), cfg)
		if err == nil {
			simplified = segmentsFromWire(wire)
			processed = true
		} else if !errors.Is(err, backend.ErrFallback) {
			Logger().Warn("stroke finalize failed on backend, using local fallback",
				"processor", s.proc.Name(), "err", err)
		}
	}
	if !processed {
		simplified = Simplify(points, s.cfg.Epsilon)
	}

	if s.cfg.SmoothStrength <= 0 {
		return simplified
	}
	if s.proc != nil {
		wire, err := s.proc.SmoothPath(segmentsToWire(simplified), s.cfg.SmoothStrength, string(s.cfg.SmoothAlgorithm))
		if err == nil {
			return segmentsFromWire(wire)
		}
		if !errors.Is(err, backend.ErrFallback) {
			Logger().Warn("path smoothing failed on backend, using local fallback",
				"processor", s.proc.Name(), "err", err)
		}
	}
	return Smooth(simplified, s.cfg.SmoothStrength, s.cfg.SmoothAlgorithm)
}

// Undo pops the most recent stroke. A clear marker restores its
// captured {strokes, baseImage} pair wholesale. Undo on an empty
// history is a no-op.
func (s *Store) Undo() bool {
	n := len(s.strokes)
	if n == 0 {
		return false
	}
	last := s.strokes[n-1]
	if last.Kind == KindClear && last.prev != nil {
		s.strokes = last.prev.strokes
		s.base = last.prev.base
		s.token++
		return true
	}
	s.strokes = s.strokes[:n-1]
	return true
}

// Clear pushes a clear marker capturing the current state, so a single
// undo step fully restores it, then empties the history. Any in-flight
// compaction is superseded by the token bump.
func (s *Store) Clear() {
	marker := &Stroke{
		ID:   uuid.NewString(),
		Kind: KindClear,
		prev: &snapshot{strokes: s.strokes, base: s.base},
	}
	s.strokes = []*Stroke{marker}
	s.base = nil
	s.active = nil
	s.token++
}

// Strokes returns the retained stroke list. Callers must not mutate it.
func (s *Store) Strokes() []*Stroke {
	return s.strokes
}

// Base returns the compacted base image, or nil before the first
// compaction.
func (s *Store) Base() image.Image {
	return s.base
}

// UndoDepth returns the number of individually undoable steps.
func (s *Store) UndoDepth() int {
	return len(s.strokes)
}

// Compacting reports whether a compaction pass is in flight. Hosts
// must keep ticking while it is, or the result sits undrained.
func (s *Store) Compacting() bool {
	return s.inFlight
}

// SetState replaces the history wholesale (page switch, load).
// Strokes are deep-copied in; the base image is taken as an opaque
// immutable handle. In-flight compactions are superseded.
func (s *Store) SetState(strokes []*Stroke, base image.Image) {
	s.strokes = make([]*Stroke, len(strokes))
	for i, st := range strokes {
		s.strokes[i] = st.Clone()
	}
	s.base = base
	s.active = nil
	s.token++
}

// scheduleCompact splits the history so the retained suffix stays
// within MaxUndoSteps and flattens the older prefix off the
// interactive path. The split happens immediately: even if the
// flattening fails, no history is lost; only the bounded-memory
// guarantee is deferred to the next pass.
func (s *Store) scheduleCompact() {
	if s.inFlight || len(s.strokes) <= s.cfg.MaxUndoSteps {
		return
	}
	cut := len(s.strokes) - s.cfg.MaxUndoSteps
	toCompact := s.strokes[:cut]
	s.strokes = append([]*Stroke(nil), s.strokes[cut:]...)

	s.inFlight = true
	s.token++
	token := s.token
	base := s.base

	Logger().Debug("compaction scheduled", "flattened", len(toCompact), "kept", len(s.strokes), "token", token)
	go s.compact(token, base, toCompact)
}

// compact flattens toCompact over base into a new base image. It runs
// off the owner goroutine: inputs are immutable (finalized strokes,
// replaced-never-mutated base) and the result crosses back by value
// through the results channel.
func (s *Store) compact(token uint64, base image.Image, toCompact []*Stroke) {
	if img, err := s.compactAccelerated(base, toCompact); err == nil {
		s.results <- compactResult{token: token, base: img}
		return
	} else if !errors.Is(err, backend.ErrFallback) {
		Logger().Warn("accelerated compaction failed, using local fallback", "err", err)
	}

	surf := s.offscreen(s.width, s.height)
	flattenStrokes(surf, base, toCompact)
	s.results <- compactResult{token: token, base: surf.Snapshot()}
}

// compactAccelerated runs the compaction through the backend
// processor.
func (s *Store) compactAccelerated(base image.Image, toCompact []*Stroke) (image.Image, error) {
	if s.proc == nil {
		return nil, backend.ErrFallback
	}
	encoded, err := encodeBaseImage(base)
	if err != nil {
		return nil, err
	}
	result, err := s.proc.CompactStrokes(encoded, strokesToWire(toCompact), s.width, s.height)
	if err != nil {
		return nil, err
	}
	return decodeBaseImage(result)
}

// ApplyPending drains finished compaction results on the owner
// goroutine. Results whose token no longer matches are stale and are
// silently discarded. When the history is still over the compaction
// threshold after draining (passes run one at a time), the next pass
// is scheduled here.
func (s *Store) ApplyPending() {
	for {
		select {
		case r := <-s.results:
			s.inFlight = false
			if r.token != s.token {
				Logger().Debug("stale compaction result discarded", "token", r.token, "current", s.token)
				continue
			}
			s.base = r.base
		default:
			if !s.inFlight && len(s.strokes) > s.cfg.CompactThreshold {
				s.scheduleCompact()
			}
			return
		}
	}
}
