package der

import (
	"github.com/psu-powerlab/se2030/pkg/object"
	"github.com/psu-powerlab/se2030/pkg/schema"
)

// fieldsOf resolves typ's field list, following the element-redirect
// rule the same way pkg/object and pkg/parser do — each package that
// walks a schema keeps its own copy of this one-line resolution rather
// than exporting it from pkg/schema, since it is a detail of the
// Entries layout, not a query the schema itself needs to answer.
func fieldsOf(s *schema.Schema, typ int) []schema.Entry {
	if typ < s.Length() {
		typ = s.Entries[typ].Base
	}
	return s.Fields(typ)
}

// Mask computes the bitmask of a DERControlBase-shaped object's
// currently-present simple fields: a boolean field is present when
// True(bit) holds, any other simple field is present when its bit is
// set in Flags (as CopyDERBase leaves it) or its Scalars entry exists.
// This is the bitmask spec.md §3 calls `der`: "which DER control modes
// it asserts."
func Mask(s *schema.Schema, typeHeader int, obj *object.Object) uint64 {
	if obj == nil {
		return 0
	}
	var mask uint64
	for _, f := range fieldsOf(s, typeHeader) {
		if !f.Simple {
			continue
		}
		present := false
		if f.XSKind == schema.XSBoolean {
			present = obj.True(f.Bit)
		} else {
			_, present = obj.Scalars[f.Name]
			present = present || obj.True(f.Bit)
		}
		if present {
			mask |= 1 << uint(f.Bit)
		}
	}
	return mask
}

// CopyDERBase overlays only the fields named by mask from src onto
// dest: boolean flags are OR-ed, every other simple field is
// overwritten, and dest's flags gain mask's bits so a later query knows
// which fields are live — spec.md §4.8's `copy_der_base`. src's own
// Flags are restored to their pre-call value afterward: der.c's
// `b->_flags` is masked for the duration of the copy and restored once
// it completes (der.c lines 113-144), a sequencing this preserves even
// though the Go map-backed Object never actually needs the temporary
// mutation to compute the overlay.
func CopyDERBase(s *schema.Schema, typeHeader int, dest, src *object.Object, mask uint64) {
	if dest == nil || src == nil {
		return
	}
	savedSrcFlags := src.Flags
	for _, f := range fieldsOf(s, typeHeader) {
		if !f.Simple {
			continue
		}
		bit := uint64(1) << uint(f.Bit)
		if mask&bit == 0 {
			continue
		}
		if f.XSKind == schema.XSBoolean {
			if src.True(f.Bit) {
				dest.SetTrue(f.Bit)
			}
			continue
		}
		if v, ok := src.Scalars[f.Name]; ok {
			dest.Scalars[f.Name] = v
		}
	}
	dest.Flags |= mask
	src.Flags = savedSrcFlags
}
