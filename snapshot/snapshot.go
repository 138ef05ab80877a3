// Package snapshot captures read-only views of a tempo.Time for debugging,
// recording, and tooling. A capture reads only the public accessor surface
// and is plain data afterwards: safe to hold, compare, and serialize while
// the live clock moves on. Serialization uses deterministic CBOR so equal
// states always produce identical bytes.
package snapshot

import (
	"time"

	"github.com/lixenwraith/tempo"
)

// Track mirrors one clock track's readouts at capture time
type Track struct {
	Delta          time.Duration `cbor:"delta"`
	DeltaSeconds   float32       `cbor:"delta_seconds"`
	DeltaSeconds64 float64       `cbor:"delta_seconds_f64"`

	Elapsed          time.Duration `cbor:"elapsed"`
	ElapsedSeconds   float32       `cbor:"elapsed_seconds"`
	ElapsedSeconds64 float64       `cbor:"elapsed_seconds_f64"`

	ElapsedWrapped          time.Duration `cbor:"elapsed_wrapped"`
	ElapsedSecondsWrapped   float32       `cbor:"elapsed_seconds_wrapped"`
	ElapsedSecondsWrapped64 float64       `cbor:"elapsed_seconds_wrapped_f64"`

	WrapPeriod time.Duration `cbor:"wrap_period"`
}

// Snapshot is the full observable state of a tempo.Time at one instant
type Snapshot struct {
	Startup     time.Time `cbor:"startup"`
	FirstUpdate time.Time `cbor:"first_update"`
	LastUpdate  time.Time `cbor:"last_update"`

	Paused bool `cbor:"paused"`

	// RelativeSpeed is the speed as observed, so zero while paused
	RelativeSpeed float64 `cbor:"relative_speed"`

	MaxDelta         time.Duration `cbor:"max_delta"`
	FixedPeriod      time.Duration `cbor:"fixed_period"`
	FixedAccumulated time.Duration `cbor:"fixed_accumulated"`
	WrapPeriod       time.Duration `cbor:"wrap_period"`

	Raw     Track `cbor:"raw"`
	Virtual Track `cbor:"virtual"`
	Fixed   Track `cbor:"fixed"`
	Current Track `cbor:"current"`
}

// Capture reads t's public accessors into a Snapshot. The caller provides
// whatever ordering the host uses against the tick mutator; under a
// loop.Scheduler that means calling from a system or inside RunSafe.
func Capture(t *tempo.Time) Snapshot {
	return Snapshot{
		Startup:     t.Startup(),
		FirstUpdate: t.FirstUpdate(),
		LastUpdate:  t.LastUpdate(),

		Paused:        t.IsPaused(),
		RelativeSpeed: t.RelativeSpeed64(),

		MaxDelta:         t.MaxDelta(),
		FixedPeriod:      t.FixedPeriod(),
		FixedAccumulated: t.FixedAccumulated(),
		WrapPeriod:       t.WrapPeriod(),

		Raw:     captureTrack(t.RawClock()),
		Virtual: captureTrack(t.VirtualClock()),
		Fixed:   captureTrack(t.FixedClock()),
		Current: captureTrack(t.CurrentClock()),
	}
}

func captureTrack(c tempo.Clock) Track {
	return Track{
		Delta:          c.Delta,
		DeltaSeconds:   c.DeltaSeconds,
		DeltaSeconds64: c.DeltaSeconds64,

		Elapsed:          c.Elapsed,
		ElapsedSeconds:   c.ElapsedSeconds,
		ElapsedSeconds64: c.ElapsedSeconds64,

		ElapsedWrapped:          c.ElapsedWrapped,
		ElapsedSecondsWrapped:   c.ElapsedSecondsWrapped,
		ElapsedSecondsWrapped64: c.ElapsedSecondsWrapped64,

		WrapPeriod: c.WrapPeriod,
	}
}
