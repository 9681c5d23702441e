// Package xmldriver implements pkg/parser.Driver over pkg/xmltoken,
// the XML half of the two wire formats IEEE 2030.5 documents travel in.
package xmldriver

import (
	"errors"

	"github.com/psu-powerlab/se2030/pkg/parser"
	"github.com/psu-powerlab/se2030/pkg/schema"
	"github.com/psu-powerlab/se2030/pkg/xmltoken"
)

// ErrIncomplete mirrors xmltoken.Incomplete as a Driver-level error.
var ErrIncomplete = errors.New("xmldriver: incomplete")

// ErrInvalid covers a malformed token stream, an unmatched closing
// tag, an unresolvable xsi:type, or an unknown root element.
var ErrInvalid = errors.New("xmldriver: invalid document")

type openTag struct {
	name  string
	empty bool
	attrs []xmltoken.Attr
}

// Driver is an xmldriver instance over one document's byte stream.
// Its open-tag stack tracks the live nesting the walker's own frame
// stack mirrors one level at a time; attrs are snapshotted per tag so
// Simple and XsiType can still read them after later tokens overwrite
// the scanner's shared buffer.
type Driver struct {
	scanner *xmltoken.Scanner
	schema  *schema.Schema

	pending   xmltoken.Token
	haveToken bool

	pendingValue interface{}
	haveValue    bool

	open []openTag
}

// New creates a Driver over the initial buffer, bound to s for element
// and local-name resolution.
func New(data []byte, s *schema.Schema) *Driver {
	return &Driver{scanner: xmltoken.New(data), schema: s}
}

// Rebuffer supplies more bytes to the underlying scanner.
func (d *Driver) Rebuffer(data []byte) {
	d.scanner.Rebuffer(data)
}

// Done reports whether the document's root element has fully closed
// and no token is cached awaiting consumption.
func (d *Driver) Done() bool {
	return len(d.open) == 0 && !d.haveToken
}

func (d *Driver) peek() xmltoken.Token {
	if !d.haveToken {
		d.pending = d.scanner.Next()
		// An Incomplete token is not cached: the scanner left its
		// cursor in place, so the next peek after Rebuffer rescans.
		d.haveToken = d.pending != xmltoken.Incomplete
	}
	return d.pending
}

func (d *Driver) consume() {
	d.haveToken = false
}

func (d *Driver) snapshotAttrs() []xmltoken.Attr {
	if len(d.scanner.Attrs) == 0 {
		return nil
	}
	return append([]xmltoken.Attr(nil), d.scanner.Attrs...)
}

// Start scans past an optional XML declaration to the document
// element and returns its schema element index.
func (d *Driver) Start() (int, error) {
	for {
		tok := d.peek()
		switch tok {
		case xmltoken.Incomplete:
			return 0, ErrIncomplete
		case xmltoken.Decl:
			d.consume()
		case xmltoken.Start, xmltoken.Empty:
			idx := d.schema.ElementIndex(d.scanner.Name)
			if idx < 0 {
				return 0, ErrInvalid
			}
			d.open = append(d.open, openTag{name: d.scanner.Name, empty: tok == xmltoken.Empty, attrs: d.snapshotAttrs()})
			d.consume()
			return idx, nil
		default:
			return 0, ErrInvalid
		}
	}
}

// Next tries field's name against the currently cached token: a match
// opens a new element and reports parser.Element; the enclosing
// element's own closing tag reports parser.End; anything else that
// cannot match reports parser.Next so the walker tries the field that
// follows, leaving the token cached for that attempt.
func (d *Driver) Next(field *schema.Entry) (parser.State, error) {
	top := &d.open[len(d.open)-1]
	if top.empty {
		return parser.End, nil
	}

	tok := d.peek()
	switch tok {
	case xmltoken.Incomplete:
		return parser.Invalid, ErrIncomplete
	case xmltoken.Invalid:
		return parser.Invalid, ErrInvalid
	case xmltoken.End:
		if d.scanner.Name != top.name {
			return parser.Invalid, ErrInvalid
		}
		return parser.End, nil
	case xmltoken.Start, xmltoken.Empty:
		if d.scanner.Name != field.Name {
			return parser.Next, nil
		}
		d.open = append(d.open, openTag{name: d.scanner.Name, empty: tok == xmltoken.Empty, attrs: d.snapshotAttrs()})
		d.consume()
		return parser.Element, nil
	default:
		return parser.Next, nil
	}
}

// Sequence is Next's counterpart for the second and later occurrences
// of a repeating field: it consumes and opens a matching start tag
// itself, since the walker will not call Next again for that
// occurrence.
func (d *Driver) Sequence(field *schema.Entry) (bool, error) {
	tok := d.peek()
	switch tok {
	case xmltoken.Incomplete:
		return false, ErrIncomplete
	case xmltoken.Invalid:
		return false, ErrInvalid
	case xmltoken.Start, xmltoken.Empty:
		if d.scanner.Name != field.Name {
			return false, nil
		}
		d.open = append(d.open, openTag{name: d.scanner.Name, empty: tok == xmltoken.Empty, attrs: d.snapshotAttrs()})
		d.consume()
		return true, nil
	default:
		return false, nil
	}
}

// XsiType reads the xsi:type attribute snapshotted when the current
// element was opened and resolves it to a concrete schema type.
func (d *Driver) XsiType() (int, error) {
	top := &d.open[len(d.open)-1]
	v, ok := xmltoken.AttrValue(top.attrs, "xsi:type")
	if !ok {
		return 0, ErrInvalid
	}
	idx := d.schema.LocalNameIndex(v)
	if idx < 0 {
		return 0, ErrInvalid
	}
	return d.schema.Types[idx], nil
}

// End consumes the closing tag of the element the walker just finished
// scanning fields for.
func (d *Driver) End() error {
	top := &d.open[len(d.open)-1]
	if top.empty {
		d.open = d.open[:len(d.open)-1]
		return nil
	}
	tok := d.peek()
	switch tok {
	case xmltoken.Incomplete:
		return ErrIncomplete
	case xmltoken.End:
		if d.scanner.Name != top.name {
			return ErrInvalid
		}
		d.consume()
		d.open = d.open[:len(d.open)-1]
		return nil
	default:
		return ErrInvalid
	}
}

// Simple reads field's value from the attribute map of the element
// currently open (the attribute-sourced case Next never sees, since
// the walker calls Simple directly for Entry.Attribute fields).
func (d *Driver) Simple(field *schema.Entry) (interface{}, error) {
	top := &d.open[len(d.open)-1]
	raw, ok := xmltoken.AttrValue(top.attrs, field.Name)
	if !ok {
		if field.Min > 0 {
			return nil, ErrInvalid
		}
		return zeroValue(field), nil
	}
	v, ok := decodeText(field, raw)
	if !ok {
		return nil, ErrInvalid
	}
	return v, nil
}

// Value decodes a simple element-sourced field: the text content
// between a just-opened start tag and its matching end tag, or the
// kind's zero value for a self-closing or empty-bodied element.
func (d *Driver) Value(field *schema.Entry) (interface{}, error) {
	top := &d.open[len(d.open)-1]
	if top.empty {
		d.open = d.open[:len(d.open)-1]
		return zeroValue(field), nil
	}

	if !d.haveValue {
		tok := d.peek()
		switch tok {
		case xmltoken.Incomplete:
			return nil, ErrIncomplete
		case xmltoken.Invalid:
			return nil, ErrInvalid
		case xmltoken.Text:
			v, ok := decodeText(field, string(d.scanner.Content))
			if !ok {
				return nil, ErrInvalid
			}
			d.pendingValue = v
			d.haveValue = true
			d.consume()
		case xmltoken.End:
			d.pendingValue = zeroValue(field)
			d.haveValue = true
			// left cached: the check below consumes it as the closing tag
		default:
			return nil, ErrInvalid
		}
	}

	end := d.peek()
	switch end {
	case xmltoken.Incomplete:
		return nil, ErrIncomplete
	case xmltoken.End:
		if d.scanner.Name != top.name {
			return nil, ErrInvalid
		}
		v := d.pendingValue
		d.haveValue = false
		d.consume()
		d.open = d.open[:len(d.open)-1]
		return v, nil
	default:
		return nil, ErrInvalid
	}
}

func zeroValue(field *schema.Entry) interface{} {
	switch field.XSKind {
	case schema.XSBoolean:
		return false
	case schema.XSString, schema.XSAnyURI:
		return ""
	case schema.XSHexBinary:
		return make([]byte, field.Length)
	case schema.XSLong, schema.XSInt, schema.XSShort, schema.XSByte:
		return int64(0)
	default:
		return uint64(0)
	}
}

func decodeText(field *schema.Entry, raw string) (interface{}, bool) {
	switch field.XSKind {
	case schema.XSBoolean:
		return xmltoken.ParseBool(raw)
	case schema.XSString, schema.XSAnyURI:
		return raw, true
	case schema.XSHexBinary:
		return xmltoken.ParseHexBinary(raw, field.Length)
	case schema.XSLong, schema.XSInt, schema.XSShort, schema.XSByte:
		return xmltoken.ParseInt(raw)
	default:
		return xmltoken.ParseUint(raw)
	}
}
