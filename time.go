// Package tempo reconciles the different notions of "now" a real-time loop
// needs: raw wall time, a pausable and scalable virtual time, and a fixed-step
// time for deterministic, frame-rate-independent logic. One timestamp sample
// per tick fans out into four coherent tracks; leftover virtual time pools in
// an accumulator until a fixed-step consumer expends it in whole periods.
package tempo

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Defaults applied by NewTime.
const (
	// DefaultWrapPeriod is the modulus for wrapped elapsed readouts.
	DefaultWrapPeriod = time.Hour

	// DefaultMaxDelta caps how much virtual time a single update may
	// advance. It keeps a large stall (debugger pause, terminal suspend)
	// from slamming dependent systems with one huge step.
	DefaultMaxDelta = 333 * time.Millisecond

	// DefaultFixedPeriod is the length of one fixed step.
	DefaultFixedPeriod = time.Second / 60
)

// Validation errors returned by Time setters.
var (
	ErrZeroWrapPeriod       = errors.New("tempo: wrap period must be positive")
	ErrFractionalWrapPeriod = errors.New("tempo: wrap period must be a whole number of seconds")
	ErrInvalidSpeed         = errors.New("tempo: relative speed must be finite and non-negative")
	ErrInvalidFixedPeriod   = errors.New("tempo: fixed period must be positive")
)

// Time owns the four clock tracks and the control state that shapes them:
// pause flag, speed multiplier, per-update clamp, fixed period, and the
// fixed-step accumulator. The host loop calls Update once per tick with a
// fresh timestamp; a fixed-step consumer then calls ExpendFixed in a loop
// until it reports exhaustion.
//
// Time is not synchronized. It assumes a single mutator and readers that the
// host orders after the mutator within each tick (loop.Scheduler provides
// that ordering).
type Time struct {
	startup     time.Time
	firstUpdate time.Time
	lastUpdate  time.Time

	paused bool

	// float64 rather than float32 to minimize drift from repeated scaling
	relativeSpeed float64

	// maxDelta caps the scaled delta applied per update; 0 disables the clamp
	maxDelta time.Duration

	fixedAccumulated time.Duration
	fixedPeriod      time.Duration

	wrapPeriod time.Duration

	rawClock     Clock
	virtualClock Clock
	fixedClock   Clock
	currentClock Clock
}

// NewTime creates a Time anchored at the given startup timestamp with all
// four tracks zeroed: speed 1.0, unpaused, DefaultWrapPeriod wrapping,
// DefaultMaxDelta clamp, DefaultFixedPeriod steps, empty accumulator.
func NewTime(startup time.Time) *Time {
	return &Time{
		startup:       startup,
		relativeSpeed: 1.0,
		maxDelta:      DefaultMaxDelta,
		fixedPeriod:   DefaultFixedPeriod,
		wrapPeriod:    DefaultWrapPeriod,
		rawClock:      NewClock(DefaultWrapPeriod),
		virtualClock:  NewClock(DefaultWrapPeriod),
		fixedClock:    NewClock(DefaultWrapPeriod),
		currentClock:  NewClock(DefaultWrapPeriod),
	}
}

// Update fans a new timestamp sample out into the raw and virtual tracks and
// pools the scaled delta for fixed-step expenditure. Call it exactly once per
// tick, before anything else in the tick reads time.
//
// The instant must be at or after the previous one; feeding an older
// timestamp produces a negative delta and numerically nonsensical (though
// memory-safe) state. That contract is the caller's to keep. It is not
// validated here, so bugs surface instead of being silently clamped.
//
// The very first Update suppresses its own delta: the gap from startup
// through pre-loop initialization still lands in elapsed, but delta reads
// zero until the second call. Without this, frame one would see an
// artificially large step covering asset loading and setup work.
func (t *Time) Update(instant time.Time) {
	last := t.lastUpdate
	if last.IsZero() {
		last = t.startup
	}
	rawDelta := instant.Sub(last)
	t.rawClock.AdvanceBy(rawDelta)

	var scaledDelta time.Duration
	switch {
	case t.paused:
		scaledDelta = 0
	case t.relativeSpeed != 1.0:
		scaledDelta = time.Duration(float64(rawDelta) * t.relativeSpeed)
	default:
		// skip the multiply at normal speed so no rounding sneaks in
		scaledDelta = rawDelta
	}

	delta := scaledDelta
	if t.maxDelta > 0 && delta > t.maxDelta {
		delta = t.maxDelta
	}

	t.virtualClock.AdvanceBy(delta)
	t.fixedAccumulated += delta

	if t.lastUpdate.IsZero() {
		t.firstUpdate = instant
		t.rawClock.AdvanceBy(0)
		t.virtualClock.AdvanceBy(0)
	}
	t.lastUpdate = instant
	t.currentClock = t.virtualClock
}

// ExpendFixed attempts to consume exactly one fixed period from the
// accumulator. On success it advances the fixed track by one period, retags
// the current track as fixed, and returns true. On exhaustion it leaves the
// accumulator untouched, restores the current track to virtual, and returns
// false.
//
// The fixed-step consumer calls this in a loop right after each Update,
// running its fixed-rate logic once per true result. Leftover sub-period time
// stays pooled for the next tick, so fixed steps neither drift nor drop time
// across frame-rate hitches.
func (t *Time) ExpendFixed() bool {
	if t.fixedAccumulated >= t.fixedPeriod {
		t.fixedAccumulated -= t.fixedPeriod
		t.fixedClock.AdvanceBy(t.fixedPeriod)
		t.currentClock = t.fixedClock
		return true
	}
	t.currentClock = t.virtualClock
	return false
}

// Startup returns the timestamp the clock was anchored at, usually when the
// application started. It never changes.
func (t *Time) Startup() time.Time {
	return t.startup
}

// FirstUpdate returns the instant of the first Update call, or the zero
// time.Time if Update has not run yet.
func (t *Time) FirstUpdate() time.Time {
	return t.firstUpdate
}

// LastUpdate returns the instant of the most recent Update call, or the zero
// time.Time if Update has not run yet.
func (t *Time) LastUpdate() time.Time {
	return t.lastUpdate
}

// Delta returns how much the current track advanced in the last update.
func (t *Time) Delta() time.Duration {
	return t.currentClock.Delta
}

// DeltaSeconds returns Delta as float32 seconds.
func (t *Time) DeltaSeconds() float32 {
	return t.currentClock.DeltaSeconds
}

// DeltaSeconds64 returns Delta as float64 seconds.
func (t *Time) DeltaSeconds64() float64 {
	return t.currentClock.DeltaSeconds64
}

// Elapsed returns how much the current track has advanced since startup.
func (t *Time) Elapsed() time.Duration {
	return t.currentClock.Elapsed
}

// ElapsedSeconds returns Elapsed as float32 seconds. This value loses
// precision as it grows; use ElapsedSecondsWrapped where that matters.
func (t *Time) ElapsedSeconds() float32 {
	return t.currentClock.ElapsedSeconds
}

// ElapsedSeconds64 returns Elapsed as float64 seconds.
func (t *Time) ElapsedSeconds64() float64 {
	return t.currentClock.ElapsedSeconds64
}

// ElapsedWrapped returns Elapsed modulo the wrap period.
func (t *Time) ElapsedWrapped() time.Duration {
	return t.currentClock.ElapsedWrapped
}

// ElapsedSecondsWrapped returns the wrapped elapsed as float32 seconds.
// Intended for consumers (e.g. shader-style animation inputs) that need a
// float32 but cannot afford the precision decay of ElapsedSeconds.
func (t *Time) ElapsedSecondsWrapped() float32 {
	return t.currentClock.ElapsedSecondsWrapped
}

// ElapsedSecondsWrapped64 returns the wrapped elapsed as float64 seconds.
func (t *Time) ElapsedSecondsWrapped64() float64 {
	return t.currentClock.ElapsedSecondsWrapped64
}

// RawDelta returns how much real time elapsed between the last two updates,
// unaffected by pausing, scaling, or the clamp.
func (t *Time) RawDelta() time.Duration {
	return t.rawClock.Delta
}

// RawDeltaSeconds returns RawDelta as float32 seconds.
func (t *Time) RawDeltaSeconds() float32 {
	return t.rawClock.DeltaSeconds
}

// RawDeltaSeconds64 returns RawDelta as float64 seconds.
func (t *Time) RawDeltaSeconds64() float64 {
	return t.rawClock.DeltaSeconds64
}

// RawElapsed returns how much real time has elapsed since startup.
func (t *Time) RawElapsed() time.Duration {
	return t.rawClock.Elapsed
}

// RawElapsedSeconds returns RawElapsed as float32 seconds. This value loses
// precision as it grows; use RawElapsedSecondsWrapped where that matters.
func (t *Time) RawElapsedSeconds() float32 {
	return t.rawClock.ElapsedSeconds
}

// RawElapsedSeconds64 returns RawElapsed as float64 seconds.
func (t *Time) RawElapsedSeconds64() float64 {
	return t.rawClock.ElapsedSeconds64
}

// RawElapsedWrapped returns RawElapsed modulo the wrap period.
func (t *Time) RawElapsedWrapped() time.Duration {
	return t.rawClock.ElapsedWrapped
}

// RawElapsedSecondsWrapped returns the wrapped raw elapsed as float32 seconds.
func (t *Time) RawElapsedSecondsWrapped() float32 {
	return t.rawClock.ElapsedSecondsWrapped
}

// RawElapsedSecondsWrapped64 returns the wrapped raw elapsed as float64 seconds.
func (t *Time) RawElapsedSecondsWrapped64() float64 {
	return t.rawClock.ElapsedSecondsWrapped64
}

// RawClock returns a copy of the raw (unscaled wall time) track.
func (t *Time) RawClock() Clock {
	return t.rawClock
}

// VirtualClock returns a copy of the virtual (pause/speed-adjusted) track.
func (t *Time) VirtualClock() Clock {
	return t.virtualClock
}

// FixedClock returns a copy of the fixed-step track. It only ever advances
// in whole fixed periods.
func (t *Time) FixedClock() Clock {
	return t.fixedClock
}

// CurrentClock returns a copy of whichever track is presently active:
// the fixed track while fixed steps are being expended, the virtual track
// otherwise. It is never the raw track.
func (t *Time) CurrentClock() Clock {
	return t.currentClock
}

// WrapPeriod returns the modulus used for the wrapped elapsed readouts.
func (t *Time) WrapPeriod() time.Duration {
	return t.wrapPeriod
}

// SetWrapPeriod changes the wrapping modulus on the raw, virtual, and fixed
// tracks. The period must be a positive whole number of seconds; the new
// modulus takes effect on each track's next advance. The current track is an
// already-captured copy of one of the other three, so it is deliberately not
// touched here.
func (t *Time) SetWrapPeriod(period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("%w: %v", ErrZeroWrapPeriod, period)
	}
	if period%time.Second != 0 {
		return fmt.Errorf("%w: %v", ErrFractionalWrapPeriod, period)
	}
	t.wrapPeriod = period
	t.rawClock.WrapPeriod = period
	t.virtualClock.WrapPeriod = period
	t.fixedClock.WrapPeriod = period
	return nil
}

// RelativeSpeed returns the virtual track's speed relative to wall time as
// float32. It reports zero while paused so observers see a consistent
// "not advancing" signal; the configured multiplier is preserved underneath.
func (t *Time) RelativeSpeed() float32 {
	return float32(t.RelativeSpeed64())
}

// RelativeSpeed64 returns the virtual track's speed relative to wall time as
// float64, zero while paused.
func (t *Time) RelativeSpeed64() float64 {
	if t.paused {
		return 0
	}
	return t.relativeSpeed
}

// SetRelativeSpeed sets the speed the virtual track advances relative to wall
// time; 2.0 runs twice as fast as the system clock. Raw measurements are
// unaffected.
func (t *Time) SetRelativeSpeed(ratio float32) error {
	return t.SetRelativeSpeed64(float64(ratio))
}

// SetRelativeSpeed64 sets the relative speed from a float64 ratio.
// The ratio must be finite and non-negative.
func (t *Time) SetRelativeSpeed64(ratio float64) error {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, ratio)
	}
	t.relativeSpeed = ratio
	return nil
}

// Pause freezes the virtual track. Raw measurements keep advancing.
func (t *Time) Pause() {
	t.paused = true
}

// Unpause resumes the virtual track at the preserved relative speed.
func (t *Time) Unpause() {
	t.paused = false
}

// IsPaused reports whether the virtual track is frozen.
func (t *Time) IsPaused() bool {
	return t.paused
}

// MaxDelta returns the per-update clamp on the scaled delta, 0 if disabled.
func (t *Time) MaxDelta() time.Duration {
	return t.maxDelta
}

// SetMaxDelta changes the per-update clamp on the scaled delta. Zero (or a
// negative value) disables clamping entirely.
func (t *Time) SetMaxDelta(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.maxDelta = d
}

// FixedPeriod returns the length of one fixed step.
func (t *Time) FixedPeriod() time.Duration {
	return t.fixedPeriod
}

// SetFixedPeriod changes the length of one fixed step. Already-accumulated
// time is kept and drains against the new period.
func (t *Time) SetFixedPeriod(period time.Duration) error {
	if period <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidFixedPeriod, period)
	}
	t.fixedPeriod = period
	return nil
}

// FixedAccumulated returns the pooled virtual time not yet expended as fixed
// steps. Between ticks this may exceed the fixed period; it only drops below
// once the consumer has drained it via ExpendFixed.
func (t *Time) FixedAccumulated() time.Duration {
	return t.fixedAccumulated
}
