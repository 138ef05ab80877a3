package tempo

import "time"

// Clock is one self-contained time track. It holds a running elapsed total,
// the most recent increment, and a wrapped (modulo) view of elapsed time that
// sidesteps float32 precision decay on long runs. A Clock accumulates whatever
// increment it is given; it knows nothing about pausing, speed scaling, or
// fixed steps.
//
// Clock is plain copyable data with no shared ownership. Assigning one is a
// full value copy, so a snapshot taken from a live clock is not affected by
// later advances of the source.
type Clock struct {
	// Delta is the increment applied by the most recent AdvanceBy,
	// zero until the first advance.
	Delta          time.Duration
	DeltaSeconds   float32
	DeltaSeconds64 float64

	// Elapsed is the total accumulated since the clock was created.
	// It never decreases within one clock's lifetime.
	Elapsed          time.Duration
	ElapsedSeconds   float32
	ElapsedSeconds64 float64

	// ElapsedWrapped is Elapsed modulo WrapPeriod. The seconds forms below
	// are derived from this bounded remainder rather than from the unbounded
	// ElapsedSeconds: a float32 loses relative precision as its magnitude
	// grows, so re-deriving from the remainder keeps the wrapped readout
	// accurate indefinitely.
	ElapsedWrapped          time.Duration
	ElapsedSecondsWrapped   float32
	ElapsedSecondsWrapped64 float64

	// WrapPeriod is the wrapping modulus, a whole number of seconds.
	// It must be non-zero before the first advance (Time's setter enforces
	// this); a new value takes effect on the next AdvanceBy.
	WrapPeriod time.Duration
}

// NewClock returns a zeroed clock with the given wrap modulus
func NewClock(wrapPeriod time.Duration) Clock {
	return Clock{WrapPeriod: wrapPeriod}
}

// AdvanceBy accumulates a non-negative delta into the clock and rederives
// every readout. The wrapped-seconds fields are recomputed from the bounded
// remainder, never cast down from the unbounded elapsed seconds.
func (c *Clock) AdvanceBy(delta time.Duration) {
	c.Delta = delta
	c.DeltaSeconds64 = delta.Seconds()
	c.DeltaSeconds = float32(c.DeltaSeconds64)

	c.Elapsed += delta
	c.ElapsedSeconds64 = c.Elapsed.Seconds()
	c.ElapsedSeconds = float32(c.ElapsedSeconds64)

	c.ElapsedWrapped = c.Elapsed % c.WrapPeriod
	c.ElapsedSecondsWrapped64 = c.ElapsedWrapped.Seconds()
	c.ElapsedSecondsWrapped = float32(c.ElapsedSecondsWrapped64)
}
