package snapshot

import (
	"bytes"
	"testing"
	"time"

	"github.com/lixenwraith/tempo"
)

// driveClock produces a Time in a nontrivial state: updated twice, dilated,
// and part-way through a fixed drain
func driveClock(t *testing.T) *tempo.Time {
	t.Helper()

	start := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	tm := tempo.NewTime(start)
	if err := tm.SetFixedPeriod(10 * time.Millisecond); err != nil {
		t.Fatalf("SetFixedPeriod: %v", err)
	}
	if err := tm.SetWrapPeriod(3 * time.Second); err != nil {
		t.Fatalf("SetWrapPeriod: %v", err)
	}

	tm.Update(start.Add(100 * time.Millisecond))
	if err := tm.SetRelativeSpeed64(1.5); err != nil {
		t.Fatalf("SetRelativeSpeed64: %v", err)
	}
	tm.Update(start.Add(130 * time.Millisecond))
	tm.ExpendFixed()
	return tm
}

func TestMarshalDeterministic(t *testing.T) {
	snap := Capture(driveClock(t))

	first, err := Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same snapshot marshaled to different bytes")
	}

	// An independently driven but identical clock must encode identically
	other, err := Marshal(Capture(driveClock(t)))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, other) {
		t.Error("equal clock states marshaled to different bytes")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	snap := Capture(driveClock(t))

	data, err := Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Snapshot
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !decoded.Startup.Equal(snap.Startup) {
		t.Errorf("Startup = %v, want %v", decoded.Startup, snap.Startup)
	}
	if !decoded.FirstUpdate.Equal(snap.FirstUpdate) {
		t.Errorf("FirstUpdate = %v, want %v", decoded.FirstUpdate, snap.FirstUpdate)
	}
	if !decoded.LastUpdate.Equal(snap.LastUpdate) {
		t.Errorf("LastUpdate = %v, want %v", decoded.LastUpdate, snap.LastUpdate)
	}
	if decoded.Paused != snap.Paused {
		t.Errorf("Paused = %v, want %v", decoded.Paused, snap.Paused)
	}
	if decoded.RelativeSpeed != snap.RelativeSpeed {
		t.Errorf("RelativeSpeed = %v, want %v", decoded.RelativeSpeed, snap.RelativeSpeed)
	}
	if decoded.FixedAccumulated != snap.FixedAccumulated {
		t.Errorf("FixedAccumulated = %v, want %v", decoded.FixedAccumulated, snap.FixedAccumulated)
	}
	if decoded.WrapPeriod != snap.WrapPeriod {
		t.Errorf("WrapPeriod = %v, want %v", decoded.WrapPeriod, snap.WrapPeriod)
	}

	// Track structs are plain numerics, so they survive exactly
	if decoded.Raw != snap.Raw {
		t.Errorf("Raw track = %+v, want %+v", decoded.Raw, snap.Raw)
	}
	if decoded.Virtual != snap.Virtual {
		t.Errorf("Virtual track = %+v, want %+v", decoded.Virtual, snap.Virtual)
	}
	if decoded.Fixed != snap.Fixed {
		t.Errorf("Fixed track = %+v, want %+v", decoded.Fixed, snap.Fixed)
	}
	if decoded.Current != snap.Current {
		t.Errorf("Current track = %+v, want %+v", decoded.Current, snap.Current)
	}
}

func TestMarshalNeverUpdated(t *testing.T) {
	tm := tempo.NewTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	snap := Capture(tm)

	data, err := Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal of never-updated clock: %v", err)
	}

	var decoded Snapshot
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.FirstUpdate.IsZero() {
		t.Errorf("FirstUpdate = %v, want zero time", decoded.FirstUpdate)
	}
	if !decoded.LastUpdate.IsZero() {
		t.Errorf("LastUpdate = %v, want zero time", decoded.LastUpdate)
	}
}

func TestTimestampPrecisionSurvives(t *testing.T) {
	start := time.Date(2024, 3, 1, 8, 30, 15, 123456789, time.UTC)
	tm := tempo.NewTime(start)
	tm.Update(start.Add(7 * time.Nanosecond))

	data, err := Marshal(Capture(tm))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Snapshot
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	want := start.Add(7 * time.Nanosecond)
	if !decoded.LastUpdate.Equal(want) {
		t.Errorf("LastUpdate lost precision: %v, want %v",
			decoded.LastUpdate.Format(time.RFC3339Nano), want.Format(time.RFC3339Nano))
	}
}
