// Package status provides lock-free metric primitives for instrumenting
// real-time loops. Writers on the tick path store through pointers cached
// at setup time; readers such as dashboards and recorders observe without
// ever coordinating with the loop.
package status

import "sync/atomic"

// Registry is the central metrics facade, one MetricMap per value kind.
// The loop scheduler publishes its tick counters here and tooling reads
// them back by key.
type Registry struct {
	Bools  *MetricMap[atomic.Bool]
	Ints   *MetricMap[atomic.Int64]
	Floats *MetricMap[AtomicFloat]
}

// NewRegistry creates a Registry with empty metric maps
func NewRegistry() *Registry {
	return &Registry{
		Bools:  NewMetricMap[atomic.Bool](),
		Ints:   NewMetricMap[atomic.Int64](),
		Floats: NewMetricMap[AtomicFloat](),
	}
}

// Len returns the total number of metrics across all kinds
func (r *Registry) Len() int {
	return r.Bools.Len() + r.Ints.Len() + r.Floats.Len()
}
