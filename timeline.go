package framegraph

import "fmt"

// EventType discriminates timeline events.
type EventType uint8

const (
	EventRaster EventType = iota
	EventCompute
	EventFence
)

// TimelineEvent is one step of the compiled frame. For raster and compute
// events Pass is the index of the pass in submission order. For fence
// events Signal is the queue whose prior work must finish before Wait
// continues; pass events leave both zero.
type TimelineEvent struct {
	Type   EventType
	Pass   int
	Signal Queue
	Wait   Queue
}

// String implements fmt.Stringer.
func (e TimelineEvent) String() string {
	switch e.Type {
	case EventRaster:
		return fmt.Sprintf("Raster(%d)", e.Pass)
	case EventCompute:
		return fmt.Sprintf("Compute(%d)", e.Pass)
	case EventFence:
		return fmt.Sprintf("Fence(%s->%s)", e.Signal, e.Wait)
	default:
		return fmt.Sprintf("EventType(%d)", e.Type)
	}
}

// Timeline is the ordered event list produced by Compile. Its order is the
// execution order.
type Timeline struct {
	events []TimelineEvent
	passes int
}

// NewTimeline creates an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{}
}

// Clear removes every event.
func (t *Timeline) Clear() {
	t.events = t.events[:0]
	t.passes = 0
}

// AddRasterEvent appends the execution of graphics pass index.
func (t *Timeline) AddRasterEvent(index int) {
	t.events = append(t.events, TimelineEvent{Type: EventRaster, Pass: index})
	t.passes++
}

// AddComputeEvent appends the execution of compute pass index.
func (t *Timeline) AddComputeEvent(index int) {
	t.events = append(t.events, TimelineEvent{Type: EventCompute, Pass: index})
	t.passes++
}

// AddFenceEvent appends a fence: wait blocks until signal's prior work completes.
func (t *Timeline) AddFenceEvent(signal, wait Queue) {
	t.events = append(t.events, TimelineEvent{Type: EventFence, Pass: -1, Signal: signal, Wait: wait})
}

// Events returns the events in execution order. The slice is owned by the
// timeline and valid until the next Clear.
func (t *Timeline) Events() []TimelineEvent { return t.events }

// Passes returns the pass indices in execution order.
func (t *Timeline) Passes() []int {
	out := make([]int, 0, t.passes)
	for _, e := range t.events {
		if e.Type != EventFence {
			out = append(out, e.Pass)
		}
	}
	return out
}

// Len returns the number of events.
func (t *Timeline) Len() int { return len(t.events) }

// PassCount returns the number of raster and compute events.
func (t *Timeline) PassCount() int { return t.passes }

// IsEmpty reports whether the timeline has no events.
func (t *Timeline) IsEmpty() bool { return len(t.events) == 0 }
