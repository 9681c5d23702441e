package exi

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// header is the fixed options header spec.md §4.4 and §8 scenario 2
// require: an optional 4-byte "$EXI" cookie, a distinguishing bits
// byte (0xA0), a fixed options-code byte, a schemaId encoded with the
// same selector-plus-literal scheme as ordinary EXI strings (selector
// k >= 2 means a literal of k-2 characters), and a trailing EE
// (end-of-options) bit.
const (
	cookie0 = 0x24 // '$'
	cookie1 = 0x45 // 'E'
	cookie2 = 0x58 // 'X'
	cookie3 = 0x49 // 'I'

	distinguishingByte = 0xA0
	optionsCodeByte    = 0x60 // fixed options code 0xC, packed per the EXI options-document profile
)

// ParseHeader validates and consumes the fixed EXI options header,
// returning the decoded schemaId. The 4-byte cookie is optional; when
// present it must read exactly "$EXI" (parse_header). Unlike the
// primitive decoders, the header has no per-step sub-state of its own,
// so the whole call is transactional: on ErrIncomplete the cursor is
// rolled back to where the call started, and a retry after Rebuffer
// re-parses the header from its first byte.
func (d *Decoder) ParseHeader() (string, error) {
	save := *d
	schemaId, err := d.parseHeader()
	if err != nil {
		*d = save
		return "", err
	}
	return schemaId, nil
}

func (d *Decoder) parseHeader() (string, error) {
	if d.need(4) {
		if d.data[d.pos] == cookie0 && d.data[d.pos+1] == cookie1 &&
			d.data[d.pos+2] == cookie2 && d.data[d.pos+3] == cookie3 {
			d.pos += 4
		}
	}

	b, err := d.byteAligned()
	if err != nil {
		return "", err
	}
	if b != distinguishingByte {
		return "", pkgerrors.Wrap(ErrInvalid, fmt.Sprintf("distinguishing byte %#x, want %#x", b, distinguishingByte))
	}

	b, err = d.byteAligned()
	if err != nil {
		return "", err
	}
	if b != optionsCodeByte {
		return "", pkgerrors.Wrap(ErrInvalid, fmt.Sprintf("options code byte %#x, want %#x", b, optionsCodeByte))
	}

	selector, err := d.Uint()
	if err != nil {
		return "", err
	}
	if selector < 2 {
		return "", pkgerrors.Wrap(ErrInvalid, fmt.Sprintf("schemaId selector %d below literal threshold", selector))
	}

	schemaId, err := d.literal(int(selector - 2))
	if err != nil {
		return "", err
	}

	ee, err := d.Bit()
	if err != nil {
		return "", err
	}
	if ee != 1 {
		return "", pkgerrors.Wrap(ErrInvalid, "missing end-of-options bit")
	}

	return schemaId, nil
}
