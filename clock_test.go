package tempo

import (
	"math"
	"testing"
	"time"
)

// floatEq reports whether two float32 values agree within a small epsilon,
// for readouts that pass through float32 rounding.
func floatEq(a, b float32) bool {
	return math.Abs(float64(a-b)) <= 1e-6
}

// TestClockAdvanceBy tests basic delta and elapsed accumulation
func TestClockAdvanceBy(t *testing.T) {
	clock := NewClock(time.Hour)

	if clock.Delta != 0 || clock.Elapsed != 0 {
		t.Errorf("Fresh clock delta/elapsed = %v/%v, want 0/0", clock.Delta, clock.Elapsed)
	}

	clock.AdvanceBy(250 * time.Millisecond)

	if clock.Delta != 250*time.Millisecond {
		t.Errorf("Delta = %v, want 250ms", clock.Delta)
	}
	if clock.Elapsed != 250*time.Millisecond {
		t.Errorf("Elapsed = %v, want 250ms", clock.Elapsed)
	}
	if clock.DeltaSeconds64 != (250 * time.Millisecond).Seconds() {
		t.Errorf("DeltaSeconds64 = %v, want %v", clock.DeltaSeconds64, (250 * time.Millisecond).Seconds())
	}
	if clock.DeltaSeconds != float32((250 * time.Millisecond).Seconds()) {
		t.Errorf("DeltaSeconds = %v, want %v", clock.DeltaSeconds, float32((250 * time.Millisecond).Seconds()))
	}

	clock.AdvanceBy(750 * time.Millisecond)

	if clock.Delta != 750*time.Millisecond {
		t.Errorf("Delta after second advance = %v, want 750ms", clock.Delta)
	}
	if clock.Elapsed != time.Second {
		t.Errorf("Elapsed after second advance = %v, want 1s", clock.Elapsed)
	}
	if clock.ElapsedSeconds64 != 1.0 {
		t.Errorf("ElapsedSeconds64 = %v, want 1.0", clock.ElapsedSeconds64)
	}
	if clock.ElapsedSeconds != 1.0 {
		t.Errorf("ElapsedSeconds = %v, want 1.0", clock.ElapsedSeconds)
	}
}

// TestClockZeroAdvance tests that a zero advance clears delta but keeps elapsed
func TestClockZeroAdvance(t *testing.T) {
	clock := NewClock(time.Hour)
	clock.AdvanceBy(500 * time.Millisecond)

	clock.AdvanceBy(0)

	if clock.Delta != 0 {
		t.Errorf("Delta after zero advance = %v, want 0", clock.Delta)
	}
	if clock.DeltaSeconds != 0 || clock.DeltaSeconds64 != 0 {
		t.Errorf("Delta seconds after zero advance = %v/%v, want 0/0", clock.DeltaSeconds, clock.DeltaSeconds64)
	}
	if clock.Elapsed != 500*time.Millisecond {
		t.Errorf("Elapsed after zero advance = %v, want 500ms", clock.Elapsed)
	}
}

// TestClockWrapping tests the modulo view of elapsed time
func TestClockWrapping(t *testing.T) {
	clock := NewClock(3 * time.Second)

	steps := []struct {
		advance     time.Duration
		wrapped     time.Duration
		wrappedSecs float32
	}{
		{time.Second, time.Second, 1.0},
		{time.Second, 2 * time.Second, 2.0},
		{time.Second, 0, 0.0},
		{time.Second, time.Second, 1.0},
	}

	for i, step := range steps {
		clock.AdvanceBy(step.advance)
		if clock.ElapsedWrapped != step.wrapped {
			t.Errorf("Step %d: ElapsedWrapped = %v, want %v", i, clock.ElapsedWrapped, step.wrapped)
		}
		if !floatEq(clock.ElapsedSecondsWrapped, step.wrappedSecs) {
			t.Errorf("Step %d: ElapsedSecondsWrapped = %v, want %v", i, clock.ElapsedSecondsWrapped, step.wrappedSecs)
		}
	}

	// The unwrapped total keeps growing past the modulus
	if clock.Elapsed != 4*time.Second {
		t.Errorf("Elapsed = %v, want 4s", clock.Elapsed)
	}
}

// TestClockWrappedPrecision tests that the wrapped readout keeps sub-second
// precision at magnitudes where the unwrapped float32 has already lost it
func TestClockWrappedPrecision(t *testing.T) {
	clock := NewClock(3600 * time.Second)

	// 10,000,000.125 s: float32 spacing above 2^23 is a full unit,
	// so the 0.125 s fraction cannot survive in ElapsedSeconds
	clock.AdvanceBy(10_000_000*time.Second + 125*time.Millisecond)

	if clock.ElapsedSeconds != 10_000_000.0 {
		t.Errorf("ElapsedSeconds = %v, want 10000000.0 (fraction lost to float32)", clock.ElapsedSeconds)
	}

	// 10,000,000.125 mod 3600 = 2800.125, exactly representable in float32
	wantWrapped := 2800*time.Second + 125*time.Millisecond
	if clock.ElapsedWrapped != wantWrapped {
		t.Errorf("ElapsedWrapped = %v, want %v", clock.ElapsedWrapped, wantWrapped)
	}
	if clock.ElapsedSecondsWrapped != 2800.125 {
		t.Errorf("ElapsedSecondsWrapped = %v, want 2800.125", clock.ElapsedSecondsWrapped)
	}
	if clock.ElapsedSecondsWrapped64 != 2800.125 {
		t.Errorf("ElapsedSecondsWrapped64 = %v, want 2800.125", clock.ElapsedSecondsWrapped64)
	}
}

// TestClockValueCopy tests that a copied clock is fully independent
func TestClockValueCopy(t *testing.T) {
	clock := NewClock(time.Hour)
	clock.AdvanceBy(time.Second)

	snapshot := clock
	clock.AdvanceBy(time.Second)

	if snapshot.Elapsed != time.Second {
		t.Errorf("Snapshot elapsed = %v after source advanced, want 1s", snapshot.Elapsed)
	}
	if snapshot.Delta != time.Second {
		t.Errorf("Snapshot delta = %v after source advanced, want 1s", snapshot.Delta)
	}
	if clock.Elapsed != 2*time.Second {
		t.Errorf("Source elapsed = %v, want 2s", clock.Elapsed)
	}
}

// TestClockWrapPeriodChange tests that a new modulus takes effect on the next advance
func TestClockWrapPeriodChange(t *testing.T) {
	clock := NewClock(5 * time.Second)
	clock.AdvanceBy(4 * time.Second)

	if clock.ElapsedWrapped != 4*time.Second {
		t.Errorf("ElapsedWrapped = %v, want 4s", clock.ElapsedWrapped)
	}

	// Not recomputed until the next advance
	clock.WrapPeriod = 3 * time.Second
	if clock.ElapsedWrapped != 4*time.Second {
		t.Errorf("ElapsedWrapped after modulus change = %v, want 4s (stale until advance)", clock.ElapsedWrapped)
	}

	clock.AdvanceBy(0)
	if clock.ElapsedWrapped != time.Second {
		t.Errorf("ElapsedWrapped after zero advance = %v, want 1s (4s mod 3s)", clock.ElapsedWrapped)
	}
}
