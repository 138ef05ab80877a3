// Package loop drives a tempo.Time from a real or mocked time source.
// Its Scheduler owns the per-tick sequence: sample the source, advance the
// clocks, run tick systems on virtual time, drain the fixed-step
// accumulator through fixed systems, and publish loop metrics. It also
// provides the resource store hosts use to share the Time value and other
// singletons across subsystems without coupling them to the composition
// root.
package loop

import (
	"reflect"
	"sync"
)

// ResourceStore is a thread-safe container for process-wide singletons,
// keyed by static type. Register pointer types so every reader observes
// in-place updates.
type ResourceStore struct {
	mu        sync.RWMutex
	resources map[reflect.Type]any
}

// NewResourceStore creates an empty store
func NewResourceStore() *ResourceStore {
	return &ResourceStore{resources: make(map[reflect.Type]any)}
}

// AddResource registers or replaces the resource of type T. Keying uses the
// static type, so a value can also be registered under an interface it
// implements by naming the interface explicitly:
//
//	AddResource[tempo.TimeProvider](store, provider)
func AddResource[T any](rs *ResourceStore, resource T) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.resources[reflect.TypeFor[T]()] = resource
}

// GetResource retrieves the resource of type T, reporting whether it was
// registered
func GetResource[T any](rs *ResourceStore) (T, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	val, ok := rs.resources[reflect.TypeFor[T]()]
	if !ok {
		var zero T
		return zero, false
	}
	return val.(T), true
}

// MustGetResource retrieves a resource that is required to exist, panicking
// when it does not. Reserve it for wiring done once at startup, where a
// missing resource is a programming error.
func MustGetResource[T any](rs *ResourceStore) T {
	res, ok := GetResource[T](rs)
	if !ok {
		panic("loop: required resource not registered: " + reflect.TypeFor[T]().String())
	}
	return res
}
