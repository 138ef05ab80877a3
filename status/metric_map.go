package status

import (
	"maps"
	"slices"
	"sync"
)

// MetricMap hands out stable pointers to metrics of type T, creating each
// metric on first request. Callers cache the pointer once during setup and
// hit the atomic directly afterwards, so the map lock is only paid at
// registration time, never on the tick path.
type MetricMap[T any] struct {
	mu    sync.RWMutex
	items map[string]*T
}

// NewMetricMap creates an empty metric map
func NewMetricMap[T any]() *MetricMap[T] {
	return &MetricMap[T]{items: make(map[string]*T)}
}

// Get returns the pointer registered under key, allocating the metric on
// first use. The returned pointer stays valid for the life of the map.
func (m *MetricMap[T]) Get(key string) *T {
	m.mu.RLock()
	ptr, ok := m.items[key]
	m.mu.RUnlock()
	if ok {
		return ptr
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another goroutine may have registered key between the two locks
	if ptr, ok := m.items[key]; ok {
		return ptr
	}
	ptr = new(T)
	m.items[key] = ptr
	return ptr
}

// Has reports whether key is registered, without creating it
func (m *MetricMap[T]) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.items[key]
	return ok
}

// Range calls fn for every registered metric in sorted key order.
// fn must not register new metrics.
func (m *MetricMap[T]) Range(fn func(key string, metric *T)) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, key := range slices.Sorted(maps.Keys(m.items)) {
		fn(key, m.items[key])
	}
}

// Len returns the number of registered metrics
func (m *MetricMap[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
