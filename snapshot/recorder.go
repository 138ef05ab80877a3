package snapshot

import (
	"errors"
	"io"

	"github.com/lixenwraith/tempo"
)

// recorderPriority places the recorder after ordinary host systems within
// its phase
const recorderPriority = 1000

// Recorder retains the most recent snapshots in a fixed-capacity ring.
// It satisfies the scheduler's System interface, so registering it as a
// tick system records one snapshot per tick.
//
// Recorder is not synchronized. It expects the same single-writer ordering
// as the Time it observes: drive it from the scheduler, read it under
// RunSafe or after Stop.
type Recorder struct {
	ring []Snapshot
	next int
	size int
}

// NewRecorder creates a recorder holding up to capacity snapshots.
// Capacity below one is raised to one.
func NewRecorder(capacity int) *Recorder {
	if capacity < 1 {
		capacity = 1
	}
	return &Recorder{ring: make([]Snapshot, capacity)}
}

// Record stores s, evicting the oldest snapshot once the ring is full
func (r *Recorder) Record(s Snapshot) {
	r.ring[r.next] = s
	r.next = (r.next + 1) % len(r.ring)
	if r.size < len(r.ring) {
		r.size++
	}
}

// Update captures t and records it
func (r *Recorder) Update(t *tempo.Time) {
	r.Record(Capture(t))
}

// Priority orders the recorder after ordinary host systems
func (r *Recorder) Priority() int {
	return recorderPriority
}

// Len returns the number of snapshots currently retained
func (r *Recorder) Len() int {
	return r.size
}

// Cap returns the ring capacity
func (r *Recorder) Cap() int {
	return len(r.ring)
}

// Latest returns the most recent snapshot, if one has been recorded
func (r *Recorder) Latest() (Snapshot, bool) {
	if r.size == 0 {
		return Snapshot{}, false
	}
	return r.ring[(r.next-1+len(r.ring))%len(r.ring)], true
}

// History returns the retained snapshots ordered oldest to newest.
// The returned slice is a copy; the ring keeps recording independently.
func (r *Recorder) History() []Snapshot {
	out := make([]Snapshot, 0, r.size)

	oldest := 0
	if r.size == len(r.ring) {
		oldest = r.next
	}
	for i := 0; i < r.size; i++ {
		out = append(out, r.ring[(oldest+i)%len(r.ring)])
	}
	return out
}

// WriteTo streams the retained history to w as a CBOR sequence, one data
// item per snapshot, oldest first. It implements io.WriterTo.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	enc := NewEncoder(cw)
	for _, s := range r.History() {
		if err := enc.Encode(s); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// ReadHistory decodes a CBOR sequence of snapshots, as written by WriteTo,
// until EOF
func ReadHistory(r io.Reader) ([]Snapshot, error) {
	dec := NewDecoder(r)

	var out []Snapshot
	for {
		var s Snapshot
		if err := dec.Decode(&s); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		out = append(out, s)
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
