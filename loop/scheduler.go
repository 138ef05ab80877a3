package loop

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/tempo"
	"github.com/lixenwraith/tempo/status"
)

// Metric keys the scheduler publishes on every tick
const (
	MetricTicks         = "loop.ticks"
	MetricFixedSteps    = "loop.fixed_steps"
	MetricAccumulatedMS = "loop.accumulated_ms"
	MetricPaused        = "loop.paused"
)

// Scheduler drives the shared tempo.Time. Each tick samples the time
// provider, advances the clocks, runs tick systems in priority order on
// virtual time, drains whole fixed periods through fixed systems on fixed
// time, and publishes loop metrics.
//
// The scheduler is the single writer the time model assumes. Everything
// else either reads between ticks (the updateDone channel marks tick
// boundaries) or runs under RunSafe.
type Scheduler struct {
	provider tempo.TimeProvider
	time     *tempo.Time

	tickInterval     time.Duration
	nextTickDeadline time.Time

	// mu guards system registration and the tick deadline
	mu           sync.RWMutex
	tickSystems  []System
	fixedSystems []System

	// tickMu serializes Step with RunSafe callers, giving readers a
	// happens-before edge against the tick mutation
	tickMu sync.Mutex

	tickCount atomic.Uint64

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool

	// Frame synchronization channels
	frameReady <-chan struct{} // renderer signals it consumed the last tick
	updateDone chan<- struct{} // scheduler signals a tick completed

	// Cached metric pointers
	statTicks   *atomic.Int64
	statSteps   *atomic.Int64
	statAccumMS *status.AtomicFloat
	statPaused  *atomic.Bool
}

// NewScheduler wires a scheduler to the store's registered *tempo.Time and
// *status.Registry; both must already be present. tickInterval is the
// target spacing between Update calls and must be positive. frameReady,
// when non-nil, gates each tick of the autonomous loop on a renderer
// signal. The returned channel receives one signal after each completed
// tick; it is buffered and never blocks the loop.
func NewScheduler(
	store *ResourceStore,
	provider tempo.TimeProvider,
	tickInterval time.Duration,
	frameReady <-chan struct{},
) (*Scheduler, <-chan struct{}) {
	updateDone := make(chan struct{}, 1)

	reg := MustGetResource[*status.Registry](store)

	s := &Scheduler{
		provider:     provider,
		time:         MustGetResource[*tempo.Time](store),
		tickInterval: tickInterval,
		stopChan:     make(chan struct{}),
		frameReady:   frameReady,
		updateDone:   updateDone,
		statTicks:    reg.Ints.Get(MetricTicks),
		statSteps:    reg.Ints.Get(MetricFixedSteps),
		statAccumMS:  reg.Floats.Get(MetricAccumulatedMS),
		statPaused:   reg.Bools.Get(MetricPaused),
	}

	return s, updateDone
}

// AddSystem registers a system run once per tick, on virtual time.
// Systems run in ascending priority order; ties keep registration order.
func (s *Scheduler) AddSystem(sys System) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickSystems = insertByPriority(s.tickSystems, sys)
}

// AddFixedSystem registers a system run once per expended fixed period,
// on fixed time
func (s *Scheduler) AddFixedSystem(sys System) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixedSystems = insertByPriority(s.fixedSystems, sys)
}

// Step executes one synchronous tick: sample the provider, advance the
// clocks, run tick systems, drain the accumulator through fixed systems,
// publish metrics. Hosts that own their loop call Step directly; Start
// runs the same sequence on the autonomous goroutine.
func (s *Scheduler) Step() {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	s.mu.RLock()
	tickSystems := slices.Clone(s.tickSystems)
	fixedSystems := slices.Clone(s.fixedSystems)
	s.mu.RUnlock()

	s.time.Update(s.provider.Now())

	for _, sys := range tickSystems {
		sys.Update(s.time)
	}

	var steps int64
	for s.time.ExpendFixed() {
		for _, sys := range fixedSystems {
			sys.Update(s.time)
		}
		steps++
	}

	s.tickCount.Add(1)

	s.statTicks.Add(1)
	s.statSteps.Add(steps)
	s.statAccumMS.Store(s.time.FixedAccumulated().Seconds() * 1000)
	s.statPaused.Store(s.time.IsPaused())
}

// RunSafe executes fn while the tick mutex is held, so fn observes a fully
// settled tick: no update or fixed-step drain runs concurrently. Reads and
// control changes (pause, speed, wrap period) from other goroutines belong
// in here.
func (s *Scheduler) RunSafe(fn func()) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	fn()
}

// Start launches the autonomous tick loop. No-op when already running.
func (s *Scheduler) Start() {
	if s.running.CompareAndSwap(false, true) {
		s.wg.Add(1)
		go s.run()
	}
}

// Stop halts the autonomous loop and waits for any in-flight tick to
// finish. Safe to call multiple times and from multiple goroutines.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		if s.running.CompareAndSwap(true, false) {
			close(s.stopChan)
			s.wg.Wait()
		}
	})
}

// TickCount returns the number of completed ticks
func (s *Scheduler) TickCount() uint64 {
	return s.tickCount.Load()
}

// TickInterval returns the configured spacing between ticks
func (s *Scheduler) TickInterval() time.Duration {
	return s.tickInterval
}

// run paces ticks against deadlines: each deadline is the previous one plus
// the interval, so scheduling jitter does not accumulate. When the loop
// falls more than two intervals behind it resyncs to now instead of
// burst-firing catch-up ticks.
func (s *Scheduler) run() {
	defer s.wg.Done()

	s.mu.Lock()
	s.nextTickDeadline = s.provider.Now().Add(s.tickInterval)
	s.mu.Unlock()

	timer := time.NewTimer(0)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		now := s.provider.Now()

		s.mu.RLock()
		deadline := s.nextTickDeadline
		s.mu.RUnlock()

		var sleepDuration time.Duration

		if !now.Before(deadline) {
			if s.frameReady != nil {
				// Gate on the renderer, but never stall more than two
				// intervals; a stuck frontend must not freeze the clock
				select {
				case <-s.frameReady:
				case <-time.After(s.tickInterval * 2):
				case <-s.stopChan:
					return
				}
			}

			s.Step()

			s.mu.Lock()
			s.nextTickDeadline = s.nextTickDeadline.Add(s.tickInterval)

			maxBehind := s.tickInterval * 2
			if now.Sub(s.nextTickDeadline) > maxBehind {
				s.nextTickDeadline = now.Add(s.tickInterval)
			}
			deadline = s.nextTickDeadline
			s.mu.Unlock()

			select {
			case s.updateDone <- struct{}{}:
			default:
			}

			sleepDuration = deadline.Sub(s.provider.Now())
			if sleepDuration < 0 {
				sleepDuration = 0
			}
		} else {
			sleepDuration = deadline.Sub(now)
		}

		if sleepDuration > 0 {
			timer.Reset(sleepDuration)
			select {
			case <-timer.C:
			case <-s.stopChan:
				return
			}
		}
	}
}
