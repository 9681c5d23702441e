// Package events is the internal event bus the DER scheduler (pkg/der)
// uses in place of insert_event's C callback dispatch: a non-blocking,
// buffered-channel pub/sub with a package-level default bus, so the
// scheduler and its I/O collaborators communicate only through channels
// per the single-event-loop concurrency model.
package events

// Kind identifies one of the eight internal event categories the
// scheduler emits.
type Kind int

const (
	EventStart Kind = iota
	EventEnd
	ScheduleUpdate
	DeviceSchedule
	DeviceMetering
	DefaultStart
	DefaultEnd
	ResourceRemove
)

func (k Kind) String() string {
	switch k {
	case EventStart:
		return "EVENT_START"
	case EventEnd:
		return "EVENT_END"
	case ScheduleUpdate:
		return "SCHEDULE_UPDATE"
	case DeviceSchedule:
		return "DEVICE_SCHEDULE"
	case DeviceMetering:
		return "DEVICE_METERING"
	case DefaultStart:
		return "DEFAULT_START"
	case DefaultEnd:
		return "DEFAULT_END"
	case ResourceRemove:
		return "RESOURCE_REMOVE"
	default:
		return "UNKNOWN"
	}
}

// Event carries a back-reference (typically *der.EventBlock,
// *der.DefaultControl, *der.Schedule, or *der.DerDevice) and the
// discriminator naming which of the eight categories it belongs to.
type Event struct {
	Kind    Kind
	Subject interface{}
}

// Bus is a lightweight in-process pub-sub implementation backed by a
// buffered channel.
type Bus struct {
	ch chan Event
}

// NewBus creates a bus with the given buffer size.
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Event, buffer)}
}

// Publish attempts to enqueue evt without blocking. Returns true if
// published, false if the buffer is full — the caller decides whether a
// dropped event (rather than a stalled loop) is acceptable, matching
// spec.md's "no timeouts at the scheduler level" stance.
func (b *Bus) Publish(evt Event) bool {
	select {
	case b.ch <- evt:
		return true
	default:
		return false
	}
}

// Subscribe returns a read-only channel for consumers.
func (b *Bus) Subscribe() <-chan Event {
	return b.ch
}

var defaultBus *Bus

// InitDefault initializes the package-level singleton bus that the
// package-level Publish and Subscribe use. pkg/der does not use it; it
// publishes to the Bus it is given.
func InitDefault(buffer int) {
	defaultBus = NewBus(buffer)
}

// Default returns the global bus, or nil if InitDefault was never
// called.
func Default() *Bus {
	return defaultBus
}

// Publish enqueues via the default bus if initialized.
func Publish(evt Event) bool {
	if defaultBus == nil {
		return false
	}
	return defaultBus.Publish(evt)
}

// Subscribe returns the channel from the default bus if initialized,
// otherwise a closed channel so a caller ranging over it returns
// immediately instead of blocking forever.
func Subscribe() <-chan Event {
	if defaultBus == nil {
		c := make(chan Event)
		close(c)
		return c
	}
	return defaultBus.Subscribe()
}
