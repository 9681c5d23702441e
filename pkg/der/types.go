// Package der implements the DER control-event scheduling core: the
// per-device Schedule and EventBlock state machine (spec.md §4.7), the
// default-controls overlay (spec.md §4.8), and the SFDI-keyed device
// registry (spec.md §4 supplemented features), all built on the
// schema-driven object graph pkg/parser produces.
package der

import (
	"errors"
	"fmt"
	"time"
)

// ErrLookupMiss covers find_device/resource lookups that return
// nothing; it is logged and never fatal, per spec.md §7.
var ErrLookupMiss = errors.New("der: lookup miss")

// ErrProgramAborted is the sentinel AbortedError wraps, so callers can
// errors.Is against the category without caring which block aborted.
var ErrProgramAborted = errors.New("der: program aborted")

// AbortedError carries the EventBlock whose program was withdrawn while
// the block was Active (spec.md §4.7 step 3, §8 scenario 4).
type AbortedError struct {
	Block *EventBlock
}

func (e *AbortedError) Error() string {
	return fmt.Sprintf("der: program %q aborted for event %s", e.Block.Program.Key, e.Block.EventID)
}

func (e *AbortedError) Unwrap() error {
	return ErrProgramAborted
}

// Status is an EventBlock's position in the scheduler's state machine.
type Status int

const (
	Scheduled Status = iota
	Active
	Cancelled
	Superseded
	Aborted
	Complete
)

func (s Status) String() string {
	switch s {
	case Scheduled:
		return "Scheduled"
	case Active:
		return "Active"
	case Cancelled:
		return "Cancelled"
	case Superseded:
		return "Superseded"
	case Aborted:
		return "Aborted"
	case Complete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Program is a retained DERProgram: primacy plus, if the program has a
// subordinate DefaultDERControl, its default overlay contribution. Key
// is the stable identity ScheduleDER diffs old against new program
// lists by — a deployment wires it to the resource's href or mRID; the
// object graph itself is not retained (see EventBlock doc comment).
type Program struct {
	Key     string
	Primacy uint8
	Created time.Time
	Default *DefaultControl
}

// DefaultControl is a singly-linked-list node: one program's
// DefaultDERControl contribution to a device's default overlay.
// SourceMask is the full set of modes the DefaultDERControl resource
// declares; Mask is the subset UpdateDefaults currently has it
// supplying (SourceMask minus whatever real controls already cover).
type DefaultControl struct {
	Next       *DefaultControl
	Program    *Program
	SourceMask uint64
	Mask       uint64
}

// EventBlock is one scheduled DERControl instance. It holds no pointer
// into the parsed object graph: Start/Duration/DER are extracted scalar
// values, not aliases into a pooled object.Object, so the schedule's
// retention of a block never conflicts with the parser's pool returning
// the EndDevice tree it came from. Program and Device are non-owning
// back-references per spec.md §3's ownership summary.
type EventBlock struct {
	Start    time.Time
	Duration time.Duration
	Primacy  uint8
	Program  *Program
	DER      uint64
	Status   Status
	Device   *DerDevice
	EventID  string
	Created  time.Time
}

// End returns the instant this block's window closes.
func (eb *EventBlock) End() time.Time {
	return eb.Start.Add(eb.Duration)
}

// MeterReading is one metering sample posted for a device.
type MeterReading struct {
	Time  time.Time
	Value int64
}

// Settings is a device's configuration bag, populated by
// pkg/config.LoadDeviceSettings.
type Settings struct {
	Dir    string
	Values map[string]string
}
