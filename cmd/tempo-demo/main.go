// tempo-demo renders a live four-track clock dashboard in the terminal.
// It runs the scheduler in autonomous mode, gated on rendered frames, and
// exposes the control surface interactively: pause, time dilation, and
// snapshot history dumps.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/tempo"
	"github.com/lixenwraith/tempo/config"
	"github.com/lixenwraith/tempo/loop"
	"github.com/lixenwraith/tempo/snapshot"
	"github.com/lixenwraith/tempo/status"
)

var (
	configFlag  = flag.String("config", "", "Path to YAML config (default: $TEMPO_CONFIG, else built-in defaults)")
	tickFlag    = flag.Duration("tick", 0, "Scheduler tick interval, overrides config when positive")
	fixedHzFlag = flag.Float64("fixed-hz", 0, "Fixed steps per second, overrides config when positive")
)

const (
	minSpeed = 1.0 / 16
	maxSpeed = 16.0
)

var (
	styleDefault = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleLabel   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleValue   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleRunning = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	stylePaused  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleBar     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

type dashboard struct {
	screen tcell.Screen

	time     *tempo.Time
	sched    *loop.Scheduler
	recorder *snapshot.Recorder

	frameReady chan struct{}
	updateDone <-chan struct{}

	// Cached metric pointers
	statTicks *atomic.Int64
	statSteps *atomic.Int64

	tick  time.Duration
	speed float64

	statusLine string
}

func main() {
	var screen tcell.Screen

	// Panic recovery: restore the terminal before the stack trace hits stderr
	defer func() {
		if r := recover(); r != nil {
			if screen != nil {
				screen.Fini()
			}
			fmt.Fprintf(os.Stderr, "\ntempo-demo crashed: %v\n", r)
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

	tick := cfg.TickInterval()
	if *tickFlag > 0 {
		tick = *tickFlag
	}

	provider := tempo.NewMonotonicTimeProvider()
	tm := tempo.NewTime(provider.Now())
	if err := cfg.Apply(tm); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *fixedHzFlag > 0 {
		if err := tm.SetFixedPeriod(time.Duration(float64(time.Second) / *fixedHzFlag)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	reg := status.NewRegistry()
	store := loop.NewResourceStore()
	loop.AddResource(store, tm)
	loop.AddResource(store, reg)

	frameReady := make(chan struct{}, 1)
	sched, updateDone := loop.NewScheduler(store, provider, tick, frameReady)

	var recorder *snapshot.Recorder
	if cfg.Recorder.Capacity > 0 {
		recorder = snapshot.NewRecorder(cfg.Recorder.Capacity)
		sched.AddSystem(recorder)
	}

	screen, err = tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize screen: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize screen: %v\n", err)
		os.Exit(1)
	}
	screen.SetStyle(styleDefault)
	screen.HideCursor()
	defer screen.Fini()

	d := &dashboard{
		screen:     screen,
		time:       tm,
		sched:      sched,
		recorder:   recorder,
		frameReady: frameReady,
		updateDone: updateDone,
		statTicks:  reg.Ints.Get(loop.MetricTicks),
		statSteps:  reg.Ints.Get(loop.MetricFixedSteps),
		tick:       tick,
		speed:      cfg.Time.RelativeSpeed,
	}

	sched.Start()
	defer sched.Stop()

	// Let the first tick through before any frame has rendered
	frameReady <- struct{}{}

	d.run()
}

func (d *dashboard) run() {
	eventChan := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := d.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	frameTicker := time.NewTicker(33 * time.Millisecond)
	defer frameTicker.Stop()

	var updatePending bool

	for {
		select {
		case ev := <-eventChan:
			if !d.handleInput(ev) {
				return
			}

		case <-frameTicker.C:
			select {
			case <-d.updateDone:
				updatePending = false
			default:
				updatePending = true
			}

			var snap snapshot.Snapshot
			recorded := 0
			d.sched.RunSafe(func() {
				snap = snapshot.Capture(d.time)
				if d.recorder != nil {
					recorded = d.recorder.Len()
				}
			})

			d.draw(snap, recorded)

			// Signal ready for the next update (non-blocking)
			if !updatePending {
				select {
				case d.frameReady <- struct{}{}:
				default:
				}
			}
		}
	}
}

func (d *dashboard) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}

		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			d.sched.RunSafe(func() {
				if d.time.IsPaused() {
					d.time.Unpause()
				} else {
					d.time.Pause()
				}
			})
		case '+', '=':
			d.setSpeed(d.speed * 2)
		case '-', '_':
			d.setSpeed(d.speed / 2)
		case 'r':
			d.setSpeed(1.0)
		case 'd':
			d.statusLine = d.dumpHistory()
		}

	case *tcell.EventResize:
		d.screen.Sync()
	}
	return true
}

// setSpeed clamps and applies a new relative speed. The dashboard keeps its
// own notion of the target speed because the clock reports zero while
// paused.
func (d *dashboard) setSpeed(speed float64) {
	if speed < minSpeed {
		speed = minSpeed
	}
	if speed > maxSpeed {
		speed = maxSpeed
	}
	d.speed = speed

	d.sched.RunSafe(func() {
		if err := d.time.SetRelativeSpeed64(speed); err != nil {
			d.statusLine = err.Error()
		}
	})
}

// dumpHistory writes the recorder ring to a timestamped CBOR file
func (d *dashboard) dumpHistory() string {
	if d.recorder == nil {
		return "recording disabled (recorder.capacity = 0)"
	}

	name := fmt.Sprintf("tempo-history-%d.cbor", time.Now().Unix())
	f, err := os.Create(name)
	if err != nil {
		return "dump failed: " + err.Error()
	}
	defer f.Close()

	var (
		count    int
		writeErr error
	)
	d.sched.RunSafe(func() {
		count = d.recorder.Len()
		_, writeErr = d.recorder.WriteTo(f)
	})
	if writeErr != nil {
		return "dump failed: " + writeErr.Error()
	}
	return fmt.Sprintf("wrote %d snapshots to %s", count, name)
}

func (d *dashboard) draw(snap snapshot.Snapshot, recorded int) {
	s := d.screen
	s.Clear()

	fixedHz := 0.0
	if snap.FixedPeriod > 0 {
		fixedHz = 1.0 / snap.FixedPeriod.Seconds()
	}

	drawText(s, 1, 1, styleTitle, "TEMPO")
	drawText(s, 8, 1, styleLabel, "four-track clock dashboard")

	state, stateStyle := "RUNNING", styleRunning
	if snap.Paused {
		state, stateStyle = "PAUSED", stylePaused
	}
	drawText(s, 1, 3, stateStyle, state)
	drawText(s, 10, 3, styleValue, fmt.Sprintf("speed x%.3g", d.speed))
	drawText(s, 26, 3, styleLabel, fmt.Sprintf("tick %v", d.tick))
	drawText(s, 42, 3, styleLabel, fmt.Sprintf("fixed %v (%.1f Hz)", snap.FixedPeriod, fixedHz))

	drawText(s, 1, 4, styleLabel, fmt.Sprintf("ticks %d   fixed steps %d   recorded %d",
		d.statTicks.Load(), d.statSteps.Load(), recorded))

	drawText(s, 1, 6, styleLabel, fmt.Sprintf("%-9s %12s %16s %14s", "TRACK", "DELTA", "ELAPSED", "WRAPPED"))
	drawTrack(s, 7, "raw", snap.Raw)
	drawTrack(s, 8, "virtual", snap.Virtual)
	drawTrack(s, 9, "fixed", snap.Fixed)
	drawTrack(s, 10, "current", snap.Current)

	accum := snap.FixedAccumulated.Seconds() * 1000
	period := snap.FixedPeriod.Seconds() * 1000
	frac := 0.0
	if period > 0 {
		frac = accum / period
	}
	drawText(s, 1, 12, styleLabel, "accumulator")
	drawText(s, 13, 12, styleBar, progressBar(20, frac))
	drawText(s, 35, 12, styleValue, fmt.Sprintf("%.2f / %.2f ms", accum, period))

	drawText(s, 1, 14, styleLabel, fmt.Sprintf("startup %s   last update %s",
		snap.Startup.Format("15:04:05.000"), snap.LastUpdate.Format("15:04:05.000")))

	drawText(s, 1, 16, styleLabel, "space pause   +/- speed   r reset   d dump   q quit")
	if d.statusLine != "" {
		drawText(s, 1, 17, styleValue, d.statusLine)
	}

	s.Show()
}

func drawTrack(s tcell.Screen, y int, name string, tr snapshot.Track) {
	line := fmt.Sprintf("%-9s %10.2fms %15.3fs %13.3fs",
		name,
		tr.DeltaSeconds64*1000,
		tr.ElapsedSeconds64,
		tr.ElapsedSecondsWrapped64)
	drawText(s, 1, y, styleValue, line)
}

// progressBar renders a fixed-width fill meter; frac above 1 stays full
func progressBar(width int, frac float64) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac * float64(width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for i, r := range text {
		s.SetContent(x+i, y, r, nil, style)
	}
}
