package ink

import (
	"errors"

	"github.com/viewstage/ink/backend"
)

// DrawCommand is one pending render segment with its render state.
type DrawCommand struct {
	Style PathStyle
	Seg   Segment
}

// Pipeline batches pending draw commands and executes them against the
// drawing surface. Commands are grouped by render state
// (kind, color, width) to minimize state changes, and each group is
// drawn as a single path.
//
// The per-flush segment budget and the render-side minimum segment
// length come from the Scheduler on every flush.
type Pipeline struct {
	surface   Surface
	proc      backend.Processor
	scheduler *Scheduler

	maxBatchSize int
	pending      []DrawCommand
}

// NewPipeline creates a pipeline drawing onto surface. proc may be nil
// to always use the local grouping path.
func NewPipeline(surface Surface, proc backend.Processor, scheduler *Scheduler, maxBatchSize int) *Pipeline {
	return &Pipeline{
		surface:      surface,
		proc:         proc,
		scheduler:    scheduler,
		maxBatchSize: maxBatchSize,
	}
}

// Add queues one command. Reaching the batch size triggers an early
// flush so a long uninterrupted gesture cannot grow the queue without
// bound between ticks.
func (p *Pipeline) Add(cmd DrawCommand) {
	p.pending = append(p.pending, cmd)
	if len(p.pending) >= p.maxBatchSize {
		p.Flush()
	}
}

// Pending returns the number of queued commands.
func (p *Pipeline) Pending() int {
	return len(p.pending)
}

// Reset drops all queued commands without drawing them.
func (p *Pipeline) Reset() {
	p.pending = p.pending[:0]
}

// Flush draws up to the scheduler's per-flush budget of queued
// commands and returns the number of segments consumed.
func (p *Pipeline) Flush() int {
	if len(p.pending) == 0 {
		return 0
	}

	limit := p.scheduler.MaxPointsPerFlush()
	take := len(p.pending)
	if limit > 0 && take > limit {
		take = limit
	}
	batch := p.pending[:take]
	p.pending = p.pending[take:]

	minDistance := p.scheduler.MinDistance()
	optimized := p.optimize(batch, minDistance)
	p.drawGroups(optimized)
	return take
}

// FlushAll flushes until the queue is empty (stroke end, page switch).
func (p *Pipeline) FlushAll() {
	for len(p.pending) > 0 {
		p.Flush()
	}
}

// optimize filters and groups a batch, trying the accelerated backend
// first and falling back to the in-process processor on any error.
func (p *Pipeline) optimize(batch []DrawCommand, minDistance float64) []backend.DrawCommand {
	wire := make([]backend.DrawCommand, len(batch))
	for i, cmd := range batch {
		wire[i] = backend.DrawCommand{
			Type:      cmd.Style.Kind.String(),
			FromX:     cmd.Seg.FromX,
			FromY:     cmd.Seg.FromY,
			ToX:       cmd.Seg.ToX,
			ToY:       cmd.Seg.ToY,
			Color:     cmd.Style.Color,
			LineWidth: cmd.Style.Width,
		}
	}

	if p.proc != nil {
		optimized, err := p.proc.BatchDrawCommands(wire, minDistance, p.maxBatchSize)
		if err == nil {
			return optimized
		}
		if !errors.Is(err, backend.ErrFallback) {
			Logger().Warn("batch optimize failed, using local fallback", "processor", p.proc.Name(), "err", err)
		}
	}
	optimized, _ := backend.Software{}.BatchDrawCommands(wire, minDistance, p.maxBatchSize)
	return optimized
}

// drawGroups walks the optimized command list and strokes each
// contiguous same-state run as one path.
func (p *Pipeline) drawGroups(commands []backend.DrawCommand) {
	i := 0
	for i < len(commands) {
		style := styleOf(commands[i])
		j := i
		for j < len(commands) && styleOf(commands[j]) == style {
			j++
		}

		points := make([]Segment, 0, j-i)
		for _, cmd := range commands[i:j] {
			points = append(points, Seg(cmd.FromX, cmd.FromY, cmd.ToX, cmd.ToY))
		}
		p.surface.StrokePath(points, style)
		i = j
	}
}

func styleOf(cmd backend.DrawCommand) PathStyle {
	kind := KindDraw
	if cmd.Type == KindErase.String() {
		kind = KindErase
	}
	return PathStyle{Kind: kind, Color: cmd.Color, Width: cmd.LineWidth}
}
