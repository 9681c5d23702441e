package exi

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"

	"github.com/psu-powerlab/se2030/pkg/schema"
)

// Value decodes one simple field value per its XSType, dispatching to
// the appropriate primitive the way exi_parse_value switches on
// xs_type. localName and length are only consulted for XSString (table
// lookup key) and XSHexBinary (fixed destination width) respectively.
func (d *Decoder) Value(kind schema.XSType, localName string, length int) (interface{}, error) {
	switch kind {
	case schema.XSString, schema.XSAnyURI:
		return d.String(localName)
	case schema.XSBoolean:
		b, err := d.Bit()
		if err != nil {
			return nil, err
		}
		return b != 0, nil
	case schema.XSHexBinary:
		return d.Binary(length)
	case schema.XSLong, schema.XSInt, schema.XSShort, schema.XSByte:
		return d.Int()
	case schema.XSULong, schema.XSUInt, schema.XSUShort, schema.XSUByte:
		return d.Uint()
	}
	return nil, pkgerrors.Wrap(ErrInvalid, fmt.Sprintf("unsupported XSType %v", kind))
}
