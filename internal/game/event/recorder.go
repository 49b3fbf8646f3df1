package event

// Recorder collects the events of one step call, stamping each with the
// current simulation tick.
type Recorder struct {
	tick   uint32
	events []Event
}

// NewRecorder creates an empty Recorder at tick 0.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetTick sets the tick stamped on subsequently emitted events.
func (r *Recorder) SetTick(tick uint32) {
	r.tick = tick
}

// Tick returns the current stamp.
func (r *Recorder) Tick() uint32 {
	return r.tick
}

// Emit appends p at the current tick.
func (r *Recorder) Emit(p Payload) {
	r.events = append(r.events, Event{Tick: r.tick, Payload: p})
}

// Len returns the number of events recorded since the last Drain.
func (r *Recorder) Len() int {
	return len(r.events)
}

// Events returns the recorded events without clearing them.
func (r *Recorder) Events() []Event {
	return r.events
}

// Drain returns the recorded events and clears the buffer. The tick is kept.
func (r *Recorder) Drain() []Event {
	out := r.events
	r.events = nil
	return out
}

// Count returns how many events in events have kind k.
func Count(events []Event, k Kind) int {
	n := 0
	for _, e := range events {
		if e.Kind() == k {
			n++
		}
	}
	return n
}
