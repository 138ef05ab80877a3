package tempo

import "time"

// TimeProvider supplies the timestamps fed into Time.Update. Production code
// uses MonotonicTimeProvider; tests substitute MockTimeProvider to drive the
// clock deterministically.
type TimeProvider interface {
	Now() time.Time
}

// MonotonicTimeProvider provides the real system time with monotonic clock
// readings, so successive samples never run backwards across NTP or wall
// clock adjustments.
type MonotonicTimeProvider struct{}

// NewMonotonicTimeProvider creates a new monotonic time provider
func NewMonotonicTimeProvider() *MonotonicTimeProvider {
	return &MonotonicTimeProvider{}
}

// Now returns the current time with monotonic clock reading
func (p *MonotonicTimeProvider) Now() time.Time {
	return time.Now()
}
