package exi

import (
	"fmt"
	"unicode/utf8"

	pkgerrors "github.com/pkg/errors"
)

// literal decodes n UTF-8 code points (each encoded in EXI as a uint
// code point value) into s.
func (d *Decoder) literal(n int) (string, error) {
	buf := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		cp, err := d.Uint()
		if err != nil {
			return "", err
		}
		var tmp [utf8.UTFMax]byte
		w := utf8.EncodeRune(tmp[:], rune(cp))
		buf = append(buf, tmp[:w]...)
	}
	return string(buf), nil
}

// compactID decodes a compact table id and looks the string up,
// matching parse_compact_id.
func (d *Decoder) compactID(t *StringTable) (string, error) {
	if t == nil || len(t.Strings) == 0 {
		return "", pkgerrors.Wrap(ErrInvalid, "compact id references an empty string table")
	}
	id, err := d.Bits(t.BitWidth())
	if err != nil {
		return "", err
	}
	if int(id) >= len(t.Strings) {
		return "", pkgerrors.Wrap(ErrInvalid, fmt.Sprintf("compact id %d out of range for table of %d entries", id, len(t.Strings)))
	}
	return t.Strings[id], nil
}

// String decodes an EXI string value: a uint selector picks the local
// table (0), the global table (1), or a literal of length k-2 (k>=2).
// localName identifies the current element for local-table lookup,
// matching exi_parse_string.
func (d *Decoder) String(localName string) (string, error) {
	if d.stringState == 0 {
		sel, err := d.Uint()
		if err != nil {
			return "", err
		}
		d.uintAcc = sel // stash selector across the state transition
		d.stringState = 1
	}
	sel := d.uintAcc
	switch sel {
	case 0:
		s, err := d.compactID(d.Local.Find(localName))
		if err != nil {
			return "", err
		}
		d.stringState = 0
		d.uintAcc = 0
		return s, nil
	case 1:
		s, err := d.compactID(d.Global)
		if err != nil {
			return "", err
		}
		d.stringState = 0
		d.uintAcc = 0
		return s, nil
	default:
		// literal decodes each code point through Uint, which
		// accumulates into uintAcc, so the stashed selector is cleared
		// first; on error the decoder rolls back to the start of the
		// literal so a retry re-reads it whole.
		save := *d
		d.uintAcc = 0
		n := int(sel - 2)
		s, err := d.literal(n)
		if err != nil {
			*d = save
			return "", err
		}
		d.stringState = 0
		d.uintAcc = 0
		table := d.Local.GetOrCreate(localName, 8)
		table.Add(s)
		d.Global.Add(s)
		return s, nil
	}
}
