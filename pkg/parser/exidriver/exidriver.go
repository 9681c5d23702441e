// Package exidriver implements pkg/parser.Driver over pkg/exi, the EXI
// half of the two wire formats IEEE 2030.5 documents travel in.
package exidriver

import (
	"errors"

	"github.com/psu-powerlab/se2030/pkg/exi"
	"github.com/psu-powerlab/se2030/pkg/parser"
	"github.com/psu-powerlab/se2030/pkg/schema"
)

// ErrInvalid covers a schemaId mismatch, an event code with no
// matching field, or an xsi:type that does not resolve.
var ErrInvalid = errors.New("exidriver: invalid document")

// frame mirrors one level of the walker's own frame stack, tracked
// independently here because an EXI event code's bit width depends on
// how many field candidates remain at the current scanning position —
// information the Driver interface does not pass to Next directly.
type frame struct {
	fields []schema.Entry
	pos    int
}

// Driver is an exidriver instance over one document's byte stream.
type Driver struct {
	dec    *exi.Decoder
	schema *schema.Schema

	code     int
	haveCode bool

	frames []frame
}

// New creates a Driver over the initial buffer, bound to s for
// schemaId validation, root element selection, and xsi:type
// resolution.
func New(data []byte, s *schema.Schema) *Driver {
	return &Driver{dec: exi.NewDecoder(data), schema: s}
}

// Rebuffer supplies more bytes to the underlying bit decoder.
func (d *Driver) Rebuffer(data []byte) {
	d.dec.Rebuffer(data)
}

// Done reports whether the root element's frame has fully closed.
func (d *Driver) Done() bool {
	return len(d.frames) == 0
}

func fieldsOfSchema(s *schema.Schema, typ int) (int, []schema.Entry) {
	if typ < s.Length() {
		typ = s.Entries[typ].Base
	}
	return typ, s.Fields(typ)
}

func (d *Driver) pushChild(typ int) {
	_, fields := fieldsOfSchema(d.schema, typ)
	d.frames = append(d.frames, frame{fields: fields})
}

func fieldIndexOf(fields []schema.Entry, field *schema.Entry) int {
	for i := range fields {
		if &fields[i] == field {
			return i
		}
	}
	return -1
}

// Start validates the fixed options header's schemaId against the
// runtime schema, then decodes the root element selector — an event
// code bit_count(schema.Length()) bits wide, per spec.md §4.6. The
// header check and the selector read are atomic: either both commit or
// neither does, so a retry after Rebuffer starts the document over
// rather than resuming mid-selector with the header already consumed.
func (d *Driver) Start() (int, error) {
	save := *d.dec
	idx, err := d.start()
	if err != nil {
		*d.dec = save
		return 0, err
	}
	return idx, nil
}

func (d *Driver) start() (int, error) {
	schemaId, err := d.dec.ParseHeader()
	if err != nil {
		return 0, err
	}
	if schemaId != d.schema.SchemaID {
		return 0, ErrInvalid
	}

	width := exi.BitCount(d.schema.Length())
	code, err := d.dec.Bits(width)
	if err != nil {
		return 0, err
	}
	idx := int(code)
	if idx < 0 || idx >= d.schema.Length() {
		return 0, ErrInvalid
	}
	_, fields := fieldsOfSchema(d.schema, idx)
	d.frames = append(d.frames, frame{fields: fields})
	return idx, nil
}

// Next decodes (and caches) one event code sized to the number of
// field candidates remaining at the current frame's scanning position,
// plus one for the implicit end-of-element code 0. The same cached
// code is compared against every candidate field the walker tries
// until one matches or the code selects end-of-element.
func (d *Driver) Next(field *schema.Entry) (parser.State, error) {
	top := &d.frames[len(d.frames)-1]
	if !d.haveCode {
		n := len(top.fields) - top.pos
		width := exi.BitCount(n)
		code, err := d.dec.Bits(width)
		if err != nil {
			return parser.Invalid, err
		}
		d.code = int(code)
		d.haveCode = true
	}

	if d.code == 0 {
		return parser.End, nil
	}

	idx := fieldIndexOf(top.fields, field)
	if idx < top.pos || idx-top.pos+1 != d.code {
		return parser.Next, nil
	}

	d.haveCode = false
	top.pos = idx + 1
	if !field.Substitution && !field.Simple {
		d.pushChild(field.ChildType)
	}
	return parser.Element, nil
}

// Sequence decodes a single continuation bit for the next occurrence
// of a repeating field: 1 means another occurrence follows, 0 ends the
// repetition.
func (d *Driver) Sequence(field *schema.Entry) (bool, error) {
	bit, err := d.dec.Bit()
	if err != nil {
		return false, err
	}
	if bit == 0 {
		return false, nil
	}
	if !field.Substitution && !field.Simple {
		d.pushChild(field.ChildType)
	}
	return true, nil
}

// XsiType decodes the substituted element's local name (using the same
// selector-plus-table encoding as any other EXI string) and resolves
// it to a concrete schema type, then pushes the child frame for it —
// the extended-event-code case spec.md §4.6 describes, grounded here
// on the string table machinery pkg/exi already implements rather than
// a separate bit-packed type index.
func (d *Driver) XsiType() (int, error) {
	name, err := d.dec.String("xsi:type")
	if err != nil {
		return 0, err
	}
	idx := d.schema.LocalNameIndex(name)
	if idx < 0 {
		return 0, ErrInvalid
	}
	typ := d.schema.Types[idx]
	d.pushChild(typ)
	return typ, nil
}

// End consumes the current frame. The event code that produced
// parser.End (code 0) already represents the end-of-element event
// itself, so there is nothing further to decode.
func (d *Driver) End() error {
	d.haveCode = false
	if len(d.frames) > 0 {
		d.frames = d.frames[:len(d.frames)-1]
	}
	return nil
}

// Value and Simple both decode through the same event-content path in
// EXI; the attribute/element distinction XML has doesn't exist here.
func (d *Driver) Value(field *schema.Entry) (interface{}, error) {
	return d.dec.Value(field.XSKind, field.Name, field.Length)
}

func (d *Driver) Simple(field *schema.Entry) (interface{}, error) {
	return d.dec.Value(field.XSKind, field.Name, field.Length)
}
