package ink

import "time"

// Collector is the per-gesture temporal/spatial filter that reduces
// raw pointer samples to a sparse point stream before they enter a
// stroke. It bounds history size; render-side throttling is the
// Scheduler's job.
//
// A Collector belongs to a single gesture at a time: Reset is called
// on every StartStroke.
type Collector struct {
	quantization  float64
	minDistance   float64
	batchInterval time.Duration

	lastAccepted time.Time
	lastX, lastY float64
	accepted     int
}

// NewCollector creates a collector with the given history-side filter
// settings.
func NewCollector(quantization, minDistance float64, batchInterval time.Duration) *Collector {
	return &Collector{
		quantization:  quantization,
		minDistance:   minDistance,
		batchInterval: batchInterval,
	}
}

// Reset clears the gesture state. Call at the start of each pointer
// gesture.
func (c *Collector) Reset() {
	c.lastAccepted = time.Time{}
	c.lastX, c.lastY = 0, 0
	c.accepted = 0
}

// Accept filters one raw sample. It returns the quantized segment and
// true when the sample passes both the spatial and the temporal
// filter; rejected samples are a no-op.
func (c *Collector) Accept(raw Segment, now time.Time) (Segment, bool) {
	q := raw.Quantized(c.quantization)
	if q.Length() < c.minDistance {
		return Segment{}, false
	}
	if !c.lastAccepted.IsZero() && now.Sub(c.lastAccepted) < c.batchInterval {
		return Segment{}, false
	}

	c.lastAccepted = now
	c.lastX, c.lastY = q.ToX, q.ToY
	c.accepted++
	return q, true
}

// Accepted returns the number of samples accepted since the last Reset.
func (c *Collector) Accepted() int {
	return c.accepted
}

// Last returns the end coordinates of the most recently accepted
// segment. Valid only when Accepted() > 0.
func (c *Collector) Last() (x, y float64) {
	return c.lastX, c.lastY
}
