package tempo

import (
	"sync"
	"time"
)

// MockTimeProvider is a hand-cranked time source for tests. Time stands
// still until the test advances it, which makes every Update delta exact
// and every assertion deterministic.
//
// Safe for concurrent use, so tests can crank it while a scheduler samples
// it from another goroutine.
type MockTimeProvider struct {
	mu  sync.RWMutex
	now time.Time
}

var _ TimeProvider = (*MockTimeProvider)(nil)

// NewMockTimeProvider creates a mock pinned at start.
func NewMockTimeProvider(start time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: start}
}

// Now returns the mock's current instant.
func (m *MockTimeProvider) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Advance moves the mock forward by d and returns the resulting instant,
// so a test can write tm.Update(mock.Advance(step)) in one line.
func (m *MockTimeProvider) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	return m.now
}

// SetTime jumps the mock to an absolute instant. Jumping backwards violates
// Time.Update's ordering contract; it is allowed here so tests can probe
// exactly that misuse.
func (m *MockTimeProvider) SetTime(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}
