// tempo-metronome drives a fixed-step clock as a musical metronome: one
// fixed period per beat, a sine blip per step. It steps the scheduler from
// its own loop rather than starting it, which is the host-owned mode, and
// demonstrates pause and time dilation against an audibly steady reference.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/tempo"
	"github.com/lixenwraith/tempo/config"
	"github.com/lixenwraith/tempo/loop"
	"github.com/lixenwraith/tempo/status"
)

const sampleRate = beep.SampleRate(44100)

// pollInterval is how often the host loop samples the clock. It only bounds
// beat latency; beat timing itself comes from the fixed accumulator.
const pollInterval = 5 * time.Millisecond

var (
	configFlag     = flag.String("config", "", "Path to YAML config (default: $TEMPO_CONFIG, else built-in defaults)")
	bpmFlag        = flag.Int("bpm", 0, "Beats per minute, overrides config when positive")
	pitchFlag      = flag.Float64("pitch", 0, "Blip frequency in Hz, overrides config when positive")
	volumeFlag     = flag.Float64("volume", -1, "Blip volume 0..1, overrides config when non-negative")
	speedFlag      = flag.Float64("speed", 1.0, "Relative clock speed; 2.0 plays double-time")
	beatsFlag      = flag.Int("beats", 16, "Number of beats to play before exiting")
	pauseAfterFlag = flag.Int("pause-after", 0, "Pause the clock for 2s after this beat (0 disables)")
)

const resumeDelay = 2 * time.Second

type metronome struct {
	pitch  float64
	volume float64
	audio  bool

	count int
	total int

	pauseAfter int
	resumeAt   time.Time
	didPause   bool
	resumed    bool
}

func (m *metronome) onBeat(t *tempo.Time) {
	m.count++
	accent := (m.count-1)%4 == 0
	m.blip(accent)

	mark := "  "
	if accent {
		mark = "* "
	}
	fmt.Printf("%sbeat %3d/%d   fixed %8.3fs   virtual %8.3fs   raw %8.3fs\n",
		mark, m.count, m.total,
		t.FixedClock().ElapsedSeconds64,
		t.VirtualClock().ElapsedSeconds64,
		t.RawElapsedSeconds64())

	if m.pauseAfter > 0 && m.count == m.pauseAfter && !m.didPause {
		t.Pause()
		m.didPause = true
		m.resumeAt = time.Now().Add(resumeDelay)
		fmt.Printf("-- paused for %v; raw keeps counting --\n", resumeDelay)
	}
}

func (m *metronome) blip(accent bool) {
	if !m.audio {
		return
	}
	pitch := m.pitch
	if accent {
		pitch *= 2
	}
	sine, err := generators.SineTone(sampleRate, pitch)
	if err != nil {
		return
	}
	tone := beep.Take(sampleRate.N(60*time.Millisecond), sine)
	speaker.Play(newVolume(tone, m.volume))
}

// math.Log2(0) is -Inf, so zero volume becomes a silent streamer instead
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\ntempo-metronome crashed: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	flag.Parse()

	cfg, err := config.Resolve(*configFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	bpm := cfg.Metronome.BPM
	if *bpmFlag > 0 {
		bpm = *bpmFlag
	}
	pitch := cfg.Metronome.PitchHz
	if *pitchFlag > 0 {
		pitch = *pitchFlag
	}
	volume := cfg.Metronome.Volume
	if *volumeFlag >= 0 {
		volume = *volumeFlag
	}
	if *beatsFlag <= 0 {
		fmt.Fprintln(os.Stderr, "beats must be positive")
		os.Exit(1)
	}
	if *speedFlag <= 0 {
		fmt.Fprintln(os.Stderr, "speed must be positive; use pause-after to stop the clock")
		os.Exit(1)
	}

	beat := time.Duration(int64(time.Minute) / int64(bpm))

	provider := tempo.NewMonotonicTimeProvider()
	tm := tempo.NewTime(provider.Now())
	if err := cfg.Apply(tm); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := tm.SetFixedPeriod(beat); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := tm.SetRelativeSpeed64(*speedFlag); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// A metronome always starts running, whatever the config says
	tm.Unpause()

	audio := true
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		fmt.Fprintf(os.Stderr, "audio unavailable: %v (continuing in silence)\n", err)
		audio = false
	}
	if audio {
		defer speaker.Close()
	}

	reg := status.NewRegistry()
	store := loop.NewResourceStore()
	loop.AddResource(store, tm)
	loop.AddResource(store, reg)

	sched, _ := loop.NewScheduler(store, provider, pollInterval, nil)

	m := &metronome{
		pitch:      pitch,
		volume:     volume,
		audio:      audio,
		total:      *beatsFlag,
		pauseAfter: *pauseAfterFlag,
	}
	sched.AddFixedSystem(loop.SystemFunc(0, m.onBeat))

	fmt.Printf("%d bpm (%v/beat), speed x%g, %d beats\n", bpm, beat, *speedFlag, m.total)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	// Host-owned loop: everything touches the clock from this goroutine,
	// so no RunSafe is needed.
	for m.count < m.total {
		<-ticker.C
		sched.Step()

		if m.didPause && !m.resumed && time.Now().After(m.resumeAt) {
			tm.Unpause()
			m.resumed = true
			fmt.Printf("-- resumed: raw %.3fs, virtual %.3fs --\n",
				tm.RawElapsedSeconds64(), tm.VirtualClock().ElapsedSeconds64)
		}
	}

	steps := reg.Ints.Get(loop.MetricFixedSteps).Load()
	fmt.Printf("done: %d beats, %d fixed steps, raw %.3fs, virtual %.3fs, fixed %.3fs\n",
		m.count, steps,
		tm.RawElapsedSeconds64(),
		tm.VirtualClock().ElapsedSeconds64,
		tm.FixedClock().ElapsedSeconds64)
}
