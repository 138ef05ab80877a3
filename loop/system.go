package loop

import "github.com/lixenwraith/tempo"

// System is a unit of host logic driven by the Scheduler. Tick systems run
// once per tick with the current track on virtual time; fixed systems run
// once per expended fixed period with the current track on fixed time.
type System interface {
	// Update runs one step of the system against the shared clock
	Update(t *tempo.Time)

	// Priority orders systems within a phase; lower values run first
	Priority() int
}

// SystemFunc adapts a bare function into a System with a fixed priority
func SystemFunc(priority int, fn func(*tempo.Time)) System {
	return &funcSystem{priority: priority, fn: fn}
}

type funcSystem struct {
	priority int
	fn       func(*tempo.Time)
}

func (s *funcSystem) Update(t *tempo.Time) { s.fn(t) }

func (s *funcSystem) Priority() int { return s.priority }

// insertByPriority adds sys keeping the slice sorted by ascending priority;
// registration order breaks ties
func insertByPriority(systems []System, sys System) []System {
	systems = append(systems, sys)
	i := len(systems) - 1
	for i > 0 && systems[i-1].Priority() > sys.Priority() {
		systems[i] = systems[i-1]
		i--
	}
	systems[i] = sys
	return systems
}
