package tempo

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestMonotonicProviderAdvances(t *testing.T) {
	provider := NewMonotonicTimeProvider()

	t1 := provider.Now()
	time.Sleep(10 * time.Millisecond)
	t2 := provider.Now()

	if !t2.After(t1) {
		t.Fatalf("second sample %v not after first %v", t2, t1)
	}
	if diff := t2.Sub(t1); diff < 10*time.Millisecond {
		t.Errorf("slept 10ms but samples are only %v apart", diff)
	}

	// time.Time carries a monotonic reading when taken via time.Now; its
	// String form then includes an " m=" component
	if !strings.Contains(t1.String(), " m=") {
		t.Errorf("sample %v has no monotonic clock reading", t1)
	}
}

func TestMockProviderAdvance(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock := NewMockTimeProvider(start)

	if got := mock.Now(); !got.Equal(start) {
		t.Fatalf("initial Now() = %v, want %v", got, start)
	}

	got := mock.Advance(90 * time.Minute)
	want := start.Add(90 * time.Minute)
	if !got.Equal(want) {
		t.Errorf("Advance returned %v, want %v", got, want)
	}
	if now := mock.Now(); !now.Equal(want) {
		t.Errorf("Now() after Advance = %v, want %v", now, want)
	}

	// Advances accumulate
	mock.Advance(30 * time.Minute)
	mock.Advance(15 * time.Minute)
	want = start.Add(2*time.Hour + 15*time.Minute)
	if now := mock.Now(); !now.Equal(want) {
		t.Errorf("Now() after stacked advances = %v, want %v", now, want)
	}
}

func TestMockProviderSetTime(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock := NewMockTimeProvider(start)

	forward := start.Add(24 * time.Hour)
	mock.SetTime(forward)
	if now := mock.Now(); !now.Equal(forward) {
		t.Errorf("Now() after forward jump = %v, want %v", now, forward)
	}

	// Backward jumps are permitted so tests can exercise misordered input
	backward := start.Add(-time.Hour)
	mock.SetTime(backward)
	if now := mock.Now(); !now.Equal(backward) {
		t.Errorf("Now() after backward jump = %v, want %v", now, backward)
	}
}

func TestMockProviderConcurrentCrank(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock := NewMockTimeProvider(start)

	const (
		crankers = 8
		cranks   = 250
	)

	var wg sync.WaitGroup
	for i := 0; i < crankers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < cranks; j++ {
				mock.Advance(time.Millisecond)
			}
		}()
	}
	// Readers racing the crankers
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < cranks; j++ {
				if mock.Now().Before(start) {
					t.Error("Now() went before start")
					return
				}
			}
		}()
	}
	wg.Wait()

	want := start.Add(crankers * cranks * time.Millisecond)
	if now := mock.Now(); !now.Equal(want) {
		t.Errorf("after %d concurrent 1ms advances Now() = %v, want %v", crankers*cranks, now, want)
	}
}

func TestMockProviderDrivesTime(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock := NewMockTimeProvider(start)
	tm := NewTime(mock.Now())

	// First update absorbs its delta
	tm.Update(mock.Advance(5 * time.Millisecond))
	if got := tm.Delta(); got != 0 {
		t.Fatalf("first update Delta = %v, want 0", got)
	}

	// From then on deltas are exactly what the mock was cranked by
	steps := []time.Duration{
		16 * time.Millisecond,
		7 * time.Millisecond,
		100 * time.Millisecond,
	}
	for _, step := range steps {
		tm.Update(mock.Advance(step))
		if got := tm.Delta(); got != step {
			t.Errorf("after Advance(%v) Delta = %v, want %v", step, got, step)
		}
	}

	wantElapsed := 5*time.Millisecond + 16*time.Millisecond + 7*time.Millisecond + 100*time.Millisecond
	if got := tm.Elapsed(); got != wantElapsed {
		t.Errorf("Elapsed = %v, want %v", got, wantElapsed)
	}
	if got := tm.LastUpdate(); !got.Equal(mock.Now()) {
		t.Errorf("LastUpdate = %v, want mock's Now %v", got, mock.Now())
	}
}
