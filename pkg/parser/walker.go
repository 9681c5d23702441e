package parser

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/psu-powerlab/se2030/pkg/object"
	"github.com/psu-powerlab/se2030/pkg/schema"
)

// ErrInvalid is returned when the input does not match the schema at
// the walker's current position: a required field never matched, a
// repeating field underflowed its minimum count, or a substitution's
// resolved type does not derive from the field's declared base.
var ErrInvalid = errors.New("parser: document does not match schema")

// stackItem is one frame of nested complex fields, the Go analog of
// the original's StackItem {se, obj, count} triple.
type stackItem struct {
	headerIndex int
	fields      []schema.Entry
	fieldIdx    int
	obj         *object.Object
	count       int // iterations seen of the field currently at fieldIdx

	fieldName  string // name this object attaches under in its parent, "" for the root
	substField string // non-empty: attach as parent's Subst[substField] instead of a Children slice
}

// Walker drives a Driver through a document using the schema's field
// layout, producing a pooled object.Object graph. It is the
// driver-independent half of the shared parser core; Driver
// implementations (xmldriver, exidriver) own only primitive decoding.
type Walker struct {
	driver Driver
	schema *schema.Schema
	pool   *object.Pool

	// stack survives across Parse calls: an error leaves it exactly
	// where the walk stopped, so a caller that feeds more bytes via
	// Driver.Rebuffer and calls Parse again resumes the same document
	// instead of restarting it — the walker's half of the rebuffer
	// contract, matched by each Driver's own primitive-level resumability.
	stack []*stackItem
}

// New creates a Walker bound to a Driver, Schema, and object Pool. The
// Walker does not own the Driver's lifetime; callers Rebuffer it
// directly when more input arrives mid-parse.
func New(d Driver, s *schema.Schema, p *object.Pool) *Walker {
	return &Walker{driver: d, schema: s, pool: p}
}

// Parse drives the document to completion and returns its root object.
// On error the walker's position is preserved; calling Parse again
// after Driver.Rebuffer resumes from there. A caller that abandons a
// parse instead should Release the in-progress root object to reclaim
// every object allocated so far.
func (w *Walker) Parse() (*object.Object, error) {
	if len(w.stack) == 0 {
		rootType, err := w.driver.Start()
		if err != nil {
			return nil, err
		}
		w.stack = append(w.stack, w.pushFrame(rootType, "", false))
	}
	root := w.stack[0]

	for len(w.stack) > 0 {
		top := w.stack[len(w.stack)-1]

		if top.fieldIdx >= len(top.fields) {
			if err := w.driver.End(); err != nil {
				return nil, err
			}
			finished := top
			w.stack = w.stack[:len(w.stack)-1]
			if len(w.stack) > 0 {
				parent := w.stack[len(w.stack)-1]
				w.attach(parent, finished)
				field := &parent.fields[parent.fieldIdx]
				if err := w.advanceAfterIteration(parent, field, &w.stack); err != nil {
					return nil, err
				}
			}
			continue
		}

		field := &top.fields[top.fieldIdx]

		if field.Attribute {
			v, err := w.driver.Simple(field)
			if err != nil {
				return nil, err
			}
			w.setValue(top.obj, field, v)
			top.fieldIdx++
			top.count = 0
			continue
		}

		state, err := w.driver.Next(field)
		if err != nil {
			return nil, err
		}

		switch state {
		case Next:
			if top.count < field.Min {
				return nil, pkgerrors.Wrap(ErrInvalid, fmt.Sprintf("field %q below minimum occurrences", field.Name))
			}
			top.fieldIdx++
			top.count = 0

		case Invalid:
			return nil, pkgerrors.Wrap(ErrInvalid, fmt.Sprintf("driver rejected field %q", field.Name))

		case End:
			for i := top.fieldIdx; i < len(top.fields); i++ {
				if top.fields[i].Min > 0 {
					return nil, pkgerrors.Wrap(ErrInvalid, fmt.Sprintf("required field %q missing", top.fields[i].Name))
				}
			}
			top.fieldIdx = len(top.fields)

		case Element:
			if err := w.doIteration(top, field, &w.stack); err != nil {
				return nil, err
			}
			if field.Simple {
				if err := w.advanceAfterIteration(top, field, &w.stack); err != nil {
					return nil, err
				}
			}
			// Complex iterations advance when their pushed frame pops.
		}
	}

	return root.obj, nil
}

// doIteration performs one occurrence of field: for a simple field it
// decodes and stores the value directly into top.obj; for a complex
// field it pushes a new frame the walker descends into next. A
// substitution field resolves its concrete type via XsiType first and
// rejects one that does not derive from the field's declared base.
func (w *Walker) doIteration(top *stackItem, field *schema.Entry, stack *[]*stackItem) error {
	typ := field.ChildType
	if field.Substitution {
		resolved, err := w.driver.XsiType()
		if err != nil {
			return err
		}
		if !w.schema.TypeIsA(resolved, field.ChildType) {
			return pkgerrors.Wrap(ErrInvalid, fmt.Sprintf("substitution field %q resolved to a type not derived from its base", field.Name))
		}
		typ = resolved
	}

	if field.Simple {
		v, err := w.driver.Value(field)
		if err != nil {
			return err
		}
		w.setValue(top.obj, field, v)
		top.count++
		return nil
	}

	child := w.pushFrame(typ, field.Name, field.Substitution)
	top.count++
	*stack = append(*stack, child)
	return nil
}

// advanceAfterIteration is called once one occurrence of a field is
// fully processed. Repeating fields (Max > 1 or Unbounded) ask the
// driver whether another occurrence follows; if so, the next
// occurrence begins immediately rather than re-running Next. Otherwise
// it checks the accumulated count against Min and advances fieldIdx.
func (w *Walker) advanceAfterIteration(top *stackItem, field *schema.Entry, stack *[]*stackItem) error {
	if field.Max > 1 || field.Unbounded {
		ok, err := w.driver.Sequence(field)
		if err != nil {
			return err
		}
		if ok {
			return w.doIteration(top, field, stack)
		}
	}
	if top.count < field.Min {
		return pkgerrors.Wrap(ErrInvalid, fmt.Sprintf("field %q below minimum occurrences", field.Name))
	}
	top.fieldIdx++
	top.count = 0
	return nil
}

// setValue stores a simple field's decoded value, and for boolean
// fields also sets its presence/value bit — booleans are the one kind
// where "present" and "true" are the same bit, matching se_true.
// Presence of every other optional field is just Scalars key
// existence; the walker sets no Flags bit for them.
func (w *Walker) setValue(obj *object.Object, field *schema.Entry, v interface{}) {
	obj.Scalars[field.Name] = v
	if field.XSKind == schema.XSBoolean {
		if b, _ := v.(bool); b {
			obj.SetTrue(field.Bit)
		}
	}
}

func (w *Walker) attach(parent *stackItem, child *stackItem) {
	if child.substField != "" {
		parent.obj.Subst[child.substField] = &object.Substitution{Type: child.headerIndex, Data: child.obj}
		return
	}
	parent.obj.Children[child.fieldName] = append(parent.obj.Children[child.fieldName], child.obj)
}

func (w *Walker) pushFrame(typ int, fieldName string, substitution bool) *stackItem {
	headerIdx, fields := fieldsOf(w.schema, typ)
	obj := w.pool.Allocate(headerIdx)
	item := &stackItem{headerIndex: headerIdx, fields: fields, obj: obj, fieldName: fieldName}
	if substitution {
		item.substField = fieldName
	}
	return item
}
