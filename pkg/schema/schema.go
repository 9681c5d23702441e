// Package schema is the static, compile-time-constant description of one
// IEEE 2030.5 schema version: every global element, every type's field
// layout, and the derivation relationships between types. It is the
// single source of truth the parser driver (pkg/parser), the object
// pool (pkg/object), and the DER scheduler (pkg/der) all walk instead of
// hand-rolling per-type logic.
//
// The entries table mirrors the original C SchemaEntry array, except
// that where the C struct overlays two meanings onto one memory word
// (offset/size, type/index) to save space, the Go Entry below names
// both unambiguously — Go has no equivalent reason to economize bits in
// a static table.
package schema

// XSType identifies the primitive XML Schema kind a simple field holds.
type XSType int

const (
	XSNull XSType = iota
	XSString
	XSBoolean
	XSHexBinary
	XSAnyURI
	XSLong
	XSInt
	XSShort
	XSByte
	XSULong
	XSUInt
	XSUShort
	XSUByte
)

// Size returns the natural byte width of a fixed-size simple value, or
// 0 for kinds with no fixed width (boolean, which lives entirely in the
// presence bitset; unbounded string).
func (x XSType) Size() int {
	switch x {
	case XSLong, XSULong:
		return 8
	case XSInt, XSUInt:
		return 4
	case XSShort, XSUShort:
		return 2
	case XSByte, XSUByte:
		return 1
	}
	return 0
}

// Entry is either a type header (Kind == KindType) describing one
// complex type's size and derivation, or a field (Kind == KindField)
// describing one member of the type header that immediately precedes
// its run of fields in the Entries slice. A KindField Entry with no
// Name and Min == Max == 0 terminates a field run (see IsTerminator),
// mirroring the original's "entries are zero-cardinality terminated."
type Entry struct {
	Kind EntryKind

	// Type header fields.
	Size int // object size in the schema's declared memory layout
	Base int // index into Entries of the base type header, 0 if none

	// Field fields.
	Name         string // local/element name used to match start tags and xsi:type
	Min, Max     int    // cardinality
	Bit          int    // presence/value bit index within the owning object's flag word
	Simple       bool   // true for XS-primitive leaves (or attributes)
	Attribute    bool   // XML-only: value comes from the attribute map, not a child element
	Unbounded    bool   // field is a singly-linked list of owned children
	Substitution bool   // field holds a (type, data) polymorphic pair
	XSKind       XSType // valid when Simple
	Length       int    // inline fixed length for string/hexBinary, 0 = heap-owned/pointer width
	ChildType    int    // valid when !Simple && !Attribute: index of the child type's header entry
}

// EntryKind discriminates a type header from a field entry.
type EntryKind int

const (
	KindType EntryKind = iota
	KindField
)

// IsTerminator reports whether e is the zero-cardinality sentinel that
// ends a field run.
func (e *Entry) IsTerminator() bool {
	return e.Kind == KindField && e.Max == 0 && e.Min == 0 && e.Name == ""
}

// Schema is a compile-time-constant description of one IEEE 2030.5
// version: the document's namespace, the EXI schemaId it must match,
// the sorted element/local-name mirrors used for binary search, and the
// Entries table described above.
type Schema struct {
	Namespace string
	SchemaID  string

	// Elements holds the sorted-by-name array of global elements.
	// Elements[i] is the local name of element entry Entries[i];
	// indices [0, len(Elements)) of Entries are element redirects
	// (Entries[i].Base names the real type header entry).
	Elements []string

	// Names is the sorted array of local names used for EXI compact
	// local-name lookup and xsi:type resolution. Types[i] is the
	// schema type index that local name i maps to via xsi:type (0 if
	// the local name is not a substitutable type).
	Names []string
	Types []int

	Entries []Entry
}

// Length is the number of global elements (the boundary between
// element-redirect entries and type/field entries in Entries).
func (s *Schema) Length() int {
	return len(s.Elements)
}

// Count is the number of local names known to the schema.
func (s *Schema) Count() int {
	return len(s.Names)
}

// ObjectSize returns the byte size the schema declares for a type, by
// index into Entries. Indices below Length() are element redirects and
// resolve through their target type header.
func (s *Schema) ObjectSize(typ int) int {
	if typ < s.Length() {
		return s.ObjectSize(s.Entries[typ].Base)
	}
	return s.Entries[typ].Size
}

// TypeIsA reports whether the type at index typ derives from base,
// walking the derivation chain via Entry.Base. A type is always
// considered derived from itself, but a field (simple or complex) entry
// never derives from anything.
func (s *Schema) TypeIsA(typ, base int) bool {
	if base < s.Length() {
		base = s.Entries[base].Base
	}
	se := &s.Entries[typ]
	if se.Kind != KindType {
		return false
	}
	if typ == base {
		return true
	}
	for se.Base != 0 {
		if se.Base == base {
			return true
		}
		se = &s.Entries[se.Base]
	}
	return false
}

// ElementIndex performs the binary search for a global element by
// local name, returning -1 if none matches.
func (s *Schema) ElementIndex(name string) int {
	return search(s.Elements, name)
}

// LocalNameIndex performs the binary search over the local-name mirror
// used for EXI local lookups and xsi:type attribute resolution.
func (s *Schema) LocalNameIndex(name string) int {
	return search(s.Names, name)
}

func search(names []string, name string) int {
	lo, hi := 0, len(names)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case names[mid] == name:
			return mid
		case names[mid] < name:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -1
}

// EntryName returns the element or field name for an Entries index,
// matching se_name: indices within the element range read straight
// from Elements, everything else reads the field's own Name.
func (s *Schema) EntryName(index int) string {
	if index < s.Length() {
		return s.Elements[index]
	}
	return s.Entries[index].Name
}

// Fields returns the slice of field entries (terminator excluded) that
// immediately follow the type header at typeHeader.
func (s *Schema) Fields(typeHeader int) []Entry {
	i := typeHeader + 1
	for i < len(s.Entries) && !s.Entries[i].IsTerminator() {
		i++
	}
	return s.Entries[typeHeader+1 : i]
}
