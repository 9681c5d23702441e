package der

import (
	"time"

	"github.com/google/uuid"

	"github.com/psu-powerlab/se2030/pkg/events"
	"github.com/psu-powerlab/se2030/pkg/hashtable"
	"github.com/psu-powerlab/se2030/pkg/object"
	"github.com/psu-powerlab/se2030/pkg/schema"
)

// Schedule is one device's scheduled/active/superseded event blocks,
// the Go analog of spec.md §3's Schedule structure.
type Schedule struct {
	Device     *DerDevice
	Scheduled  []*EventBlock
	Active     []*EventBlock
	Superseded []*EventBlock

	byKey *hashtable.Table[string, *EventBlock]
}

func newSchedule(dev *DerDevice) *Schedule {
	return &Schedule{
		Device: dev,
		byKey:  hashtable.New[string, *EventBlock](16, func(eb *EventBlock) string { return eb.EventID }),
	}
}

func (sch *Schedule) blocksForProgram(p *Program) []*EventBlock {
	var out []*EventBlock
	for _, set := range [][]*EventBlock{sch.Scheduled, sch.Active, sch.Superseded} {
		for _, eb := range set {
			if eb.Program == p {
				out = append(out, eb)
			}
		}
	}
	return out
}

func removeBlock(list *[]*EventBlock, eb *EventBlock) {
	l := *list
	for i, x := range l {
		if x == eb {
			*list = append(l[:i], l[i+1:]...)
			return
		}
	}
}

// precedes implements spec.md §4.7 step 5's tie-break: lower primacy
// wins; equal primacy falls to most-recently-created wins.
func precedes(a, b *EventBlock) bool {
	if a.Primacy != b.Primacy {
		return a.Primacy < b.Primacy
	}
	return a.Created.After(b.Created)
}

func insertByPrimacy(list *[]*EventBlock, eb *EventBlock) {
	l := append(*list, eb)
	for i := len(l) - 1; i > 0 && precedes(l[i], l[i-1]); i-- {
		l[i], l[i-1] = l[i-1], l[i]
	}
	*list = l
}

func (sch *Schedule) recomputeActiveMask() {
	var mask uint64
	for _, eb := range sch.Active {
		mask |= eb.DER
	}
	sch.Device.ActiveMask = mask
}

// Activate transitions eb from Scheduled to Active. If an
// already-Active block asserts an overlapping DER mode, the two
// conflict: the lower-precedence one (per precedes) becomes Superseded
// instead of both running, per spec.md §4.7's per-block state machine
// and §8's identical-primacy boundary case.
func (sch *Schedule) Activate(eb *EventBlock, bus *events.Bus) {
	for _, other := range sch.Active {
		if other.DER&eb.DER == 0 {
			continue
		}
		if precedes(eb, other) {
			sch.Deactivate(other, Superseded, bus)
			continue
		}
		eb.Status = Superseded
		removeBlock(&sch.Scheduled, eb)
		sch.Superseded = append(sch.Superseded, eb)
		return
	}

	eb.Status = Active
	removeBlock(&sch.Scheduled, eb)
	sch.Active = append(sch.Active, eb)
	sch.recomputeActiveMask()
	bus.Publish(events.Event{Kind: events.EventStart, Subject: eb})
	UpdateDefaults(sch.Device, bus)
}

// Deactivate moves eb out of Active with the given terminal status
// (Complete, Cancelled, Superseded, or Aborted) and fires EVENT_END.
func (sch *Schedule) Deactivate(eb *EventBlock, status Status, bus *events.Bus) {
	eb.Status = status
	removeBlock(&sch.Active, eb)
	if status == Superseded {
		sch.Superseded = append(sch.Superseded, eb)
	}
	sch.recomputeActiveMask()
	bus.Publish(events.Event{Kind: events.EventEnd, Subject: eb})
	UpdateDefaults(sch.Device, bus)
}

// TypeIndices names the schema type headers the scheduler walks. The
// scheduler is otherwise schema-agnostic; a deployment supplies the
// indices its generated schema assigns to these types.
type TypeIndices struct {
	FunctionSetAssignments int
	DERProgram             int
	DERControl             int
	DefaultDERControl      int
	DERControlBase         int
}

// ProgramKey extracts a stable identity for a DERProgram resource
// across repeated ScheduleDER calls (its href or mRID in a real
// deployment). The object graph itself is never retained past one
// ScheduleDER call, so without this the scheduler would have no way to
// recognize "the same program" on the next hydration.
type ProgramKey func(program *object.Object) string

// ResponseSink is the spec.md §6 `device_response` collaborator:
// notified when ScheduleDER aborts a block whose program was withdrawn
// server-side while the block was Active.
type ResponseSink interface {
	Respond(eb *EventBlock, err error)
}

// Scheduler drives ScheduleDER and the default-controls overlay for
// devices sharing one schema and one event bus.
type Scheduler struct {
	Schema   *schema.Schema
	Types    TypeIndices
	Bus      *events.Bus
	KeyOf    ProgramKey
	Response ResponseSink
}

func childrenOfType(s *schema.Schema, obj *object.Object, typeHeader int) []*object.Object {
	var out []*object.Object
	for _, f := range fieldsOf(s, obj.Type) {
		if f.Simple || f.Attribute {
			continue
		}
		if f.Substitution {
			if st, ok := obj.Subst[f.Name]; ok && st != nil && s.TypeIsA(st.Type, typeHeader) {
				out = append(out, st.Data)
			}
			continue
		}
		if f.ChildType == typeHeader || s.TypeIsA(f.ChildType, typeHeader) {
			out = append(out, obj.Children[f.Name]...)
		}
	}
	return out
}

func firstOfType(s *schema.Schema, obj *object.Object, typeHeader int) *object.Object {
	children := childrenOfType(s, obj, typeHeader)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

func scalarUint8(obj *object.Object, name string) uint8 {
	switch v := obj.Scalars[name].(type) {
	case uint8:
		return v
	case uint64:
		return uint8(v)
	case int64:
		return uint8(v)
	}
	return 0
}

func scalarString(obj *object.Object, name string) string {
	v, _ := obj.Scalars[name].(string)
	return v
}

// buildPrograms walks edev's FunctionSetAssignments -> DERProgram ->
// {DERControl, DefaultDERControl} tree, producing the retained program
// list (primacy-ordered) and the event blocks their DERControls
// describe, per spec.md §4.7 steps 1-2 and §4.8.
func (s *Scheduler) buildPrograms(dev *DerDevice, edev *object.Object, now time.Time) ([]*Program, []*EventBlock) {
	var programs []*Program
	var blocks []*EventBlock

	for _, fsa := range childrenOfType(s.Schema, edev, s.Types.FunctionSetAssignments) {
		for _, prog := range childrenOfType(s.Schema, fsa, s.Types.DERProgram) {
			p := &Program{
				Key:     s.KeyOf(prog),
				Primacy: scalarUint8(prog, "primacy"),
				Created: now,
			}

			if def := firstOfType(s.Schema, prog, s.Types.DefaultDERControl); def != nil {
				base := firstOfType(s.Schema, def, s.Types.DERControlBase)
				p.Default = &DefaultControl{
					Program:    p,
					SourceMask: Mask(s.Schema, s.Types.DERControlBase, base),
				}
			}

			for _, ctl := range childrenOfType(s.Schema, prog, s.Types.DERControl) {
				base := firstOfType(s.Schema, ctl, s.Types.DERControlBase)
				eventID := scalarString(ctl, "mRID")
				if eventID == "" {
					eventID = uuid.NewString()
				}
				eb := &EventBlock{
					Primacy: p.Primacy,
					Program: p,
					Device:  dev,
					DER:     Mask(s.Schema, s.Types.DERControlBase, base),
					Status:  Scheduled,
					EventID: eventID,
					Created: now,
				}
				blocks = append(blocks, eb)
			}

			i := len(programs)
			programs = append(programs, p)
			for ; i > 0 && programs[i-1].Primacy > programs[i].Primacy; i-- {
				programs[i-1], programs[i] = programs[i], programs[i-1]
			}
		}
	}

	return programs, blocks
}

// ScheduleDER is the spec.md §4.7 entry point, triggered after an
// EndDevice resource hydration. It looks up dev's retained program
// list, diffs it against the freshly parsed edev tree, aborts any
// Active block whose program was withdrawn, rebuilds the Scheduled
// list for every retained and new program's controls, and
// recomputes the default-controls overlay.
func (s *Scheduler) ScheduleDER(dev *DerDevice, edev *object.Object, now time.Time) {
	newPrograms, newBlocks := s.buildPrograms(dev, edev, now)

	newByKey := make(map[string]*Program, len(newPrograms))
	for _, p := range newPrograms {
		newByKey[p.Key] = p
	}

	for _, p := range dev.Programs {
		if _, retained := newByKey[p.Key]; retained {
			continue
		}
		for _, eb := range dev.Schedule.blocksForProgram(p) {
			wasActive := eb.Status == Active
			if wasActive {
				dev.Schedule.Deactivate(eb, Aborted, s.Bus)
				if s.Response != nil {
					s.Response.Respond(eb, &AbortedError{Block: eb})
				}
			} else {
				eb.Status = Aborted
			}
			removeBlock(&dev.Schedule.Scheduled, eb)
			removeBlock(&dev.Schedule.Superseded, eb)
			dev.Schedule.byKey.Delete(eb.EventID)
		}
	}

	retainedActive := dev.Schedule.Active[:0]
	for _, eb := range dev.Schedule.Active {
		if _, ok := newByKey[eb.Program.Key]; ok {
			retainedActive = append(retainedActive, eb)
		}
	}
	dev.Schedule.Active = retainedActive
	dev.Schedule.Scheduled = nil
	dev.Schedule.Superseded = nil

	for _, eb := range newBlocks {
		insertByPrimacy(&dev.Schedule.Scheduled, eb)
		dev.Schedule.byKey.Put(eb)
	}

	dev.Programs = newPrograms

	s.Bus.Publish(events.Event{Kind: events.ScheduleUpdate, Subject: dev.Schedule})
	s.Bus.Publish(events.Event{Kind: events.DeviceSchedule, Subject: dev})

	UpdateDefaults(dev, s.Bus)
}
