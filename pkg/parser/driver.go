// Package parser implements the wire-format-independent walker that
// drives an IEEE 2030.5 document's shape from its schema, and the
// Driver interface the XML and EXI wire formats each satisfy once
// (pkg/parser/xmldriver, pkg/parser/exidriver). The walker owns the
// {Next, Element, End, Invalid} state machine and the field/stack
// bookkeeping; drivers own nothing but primitive decoding, token
// lookahead, and string tables.
package parser

import "github.com/psu-powerlab/se2030/pkg/schema"

// State is the walker's top-level state between driver calls.
type State int

const (
	// Next means the walker should advance to evaluate the field
	// currently at the top frame's cursor.
	Next State = iota
	// Element means a start tag/event matching the candidate field was
	// found; the walker descends into it.
	Element
	// End means the current frame's fields are exhausted and its
	// closing tag/event should be consumed.
	End
	// Invalid means the input does not match the schema at the current
	// position (a field mismatch, a cardinality underflow, or an
	// xsi:type that does not resolve).
	Invalid
)

// Driver is the fixed nine-operation capability set spec.md's shared
// walker drives; the XML and EXI wire formats each implement it once.
type Driver interface {
	// Start locates the document element and returns the schema index
	// (an element-redirect entry) of the root.
	Start() (typeIndex int, err error)

	// Next advances the lookahead by one token/event for the candidate
	// field and reports which walker state that represents. A driver
	// that finds a start tag/event matching field.Name returns Element;
	// one that finds the enclosing end tag/event returns End; anything
	// else that cannot be made to match returns Next so the walker
	// tries the following field.
	Next(field *schema.Entry) (State, error)

	// XsiType resolves a polymorphic substitution at the current
	// position (an xsi:type attribute for XML, an extended event code
	// for EXI) to a concrete schema type index.
	XsiType() (typeIndex int, err error)

	// End consumes the closing tag/event of the element the walker is
	// currently positioned on.
	End() error

	// Sequence is called between iterations of a repeating field. ok
	// is false once the repetition ends (driver-specific: no further
	// matching start tag for XML, event code 0 for EXI).
	Sequence(field *schema.Entry) (ok bool, err error)

	// Value decodes a simple field's value from element/event content.
	Value(field *schema.Entry) (interface{}, error)

	// Simple decodes a simple field whose value is taken directly from
	// the currently open start tag rather than a following token — the
	// XML attribute map lookup. Drivers with no such concept (EXI) can
	// treat this identically to Value.
	Simple(field *schema.Entry) (interface{}, error)

	// Done reports whether the driver has fully consumed its buffered
	// input and is positioned at a document boundary.
	Done() bool

	// Rebuffer supplies more bytes after a primitive returned an
	// incomplete sentinel. No state committed before the incomplete
	// return is lost; the next call to the same operation resumes it.
	Rebuffer(data []byte)
}

func fieldsOf(s *schema.Schema, typ int) (headerIndex int, fields []schema.Entry) {
	if typ < s.Length() {
		typ = s.Entries[typ].Base
	}
	return typ, s.Fields(typ)
}
