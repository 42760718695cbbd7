package ink

import "image"

// State is the per-page annotation state a host persists across page
// or image switches: the retained stroke list and the opaque base
// image handle (nil before the first compaction).
type State struct {
	Strokes []*Stroke
	Base    image.Image
}

// Clone deep-copies the stroke list. The base image is shared: it is
// immutable by construction (replaced, never mutated).
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := &State{Base: s.Base, Strokes: make([]*Stroke, len(s.Strokes))}
	for i, st := range s.Strokes {
		c.Strokes[i] = st.Clone()
	}
	return c
}

// SaveState captures the current page state. The strokes are
// deep-copied so later drawing on this page cannot mutate the saved
// copy. A live gesture is finalized first.
func (e *Engine) SaveState() *State {
	if e.store.ActiveStroke() != nil {
		e.EndStroke()
	}
	st := &State{Strokes: e.store.Strokes(), Base: e.store.Base()}
	return st.Clone()
}

// LoadState replaces the current page state and repaints. Passing nil
// resets to an empty page. Any in-flight compaction for the previous
// page is superseded.
func (e *Engine) LoadState(st *State) {
	e.pipeline.Reset()
	if st == nil {
		e.store.SetState(nil, nil)
	} else {
		e.store.SetState(st.Strokes, st.Base)
	}
	e.RedrawAll()
	e.dirty = false
}
