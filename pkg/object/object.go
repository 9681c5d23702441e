// Package object implements the schema-driven object graph that the
// parser driver (pkg/parser) builds and the DER scheduler (pkg/der)
// consumes, together with the pooled-allocation lifetime manager that
// replaces the original's manual free_object/free_object_elements walk.
//
// The original C runtime represents an object as a raw memory region
// whose field offsets the schema dictates, because that is the only way
// to hand a single generic parser a thousand different struct layouts
// in C. Go has no equivalent need: a schema-typed object is represented
// here as a generic, map-backed Object, and the schema (pkg/schema)
// still drives every walk over it (free, replace, parse) exactly the
// way it drives the original's raw-memory walk.
package object

import "github.com/psu-powerlab/se2030/pkg/schema"

// Substitution is a polymorphic (type, data) pair, the Go analog of
// SubstitutionType: a field declared as a substitution group head can
// hold any object whose type derives from the declared base type.
type Substitution struct {
	Type int
	Data *Object
}

// Object is one schema-typed node. Scalars holds simple-kind field
// values (strings, numbers, booleans) keyed by field name. Children
// holds complex-kind field values (both bounded and unbounded) as a
// slice per field name, even when Max == 1, so the walker's logic does
// not need a separate bounded-arity special case. Subst holds
// substitution-field values. Flags is the presence/value bitset;
// boolean fields and "this optional field was supplied" both live here,
// addressed by Entry.Bit, matching se_exists/se_true/se_set_true.
type Object struct {
	Type     int
	Flags    uint64
	Scalars  map[string]interface{}
	Children map[string][]*Object
	Subst    map[string]*Substitution
}

func newObject(typ int) *Object {
	return &Object{
		Type:     typ,
		Scalars:  make(map[string]interface{}),
		Children: make(map[string][]*Object),
		Subst:    make(map[string]*Substitution),
	}
}

func (o *Object) reset(typ int) {
	o.Type = typ
	o.Flags = 0
	for k := range o.Scalars {
		delete(o.Scalars, k)
	}
	for k := range o.Children {
		delete(o.Children, k)
	}
	for k := range o.Subst {
		delete(o.Subst, k)
	}
}

// Exists reports whether the optional field named name was present
// (se_exists).
func (o *Object) Exists(name string, bit int) bool {
	return o.Flags&(1<<uint(bit)) != 0
}

// True reports whether boolean field name is currently set to true
// (se_true).
func (o *Object) True(bit int) bool {
	return o.Flags&(1<<uint(bit)) != 0
}

// SetTrue marks boolean/presence bit as set (se_set_true).
func (o *Object) SetTrue(bit int) {
	o.Flags |= 1 << uint(bit)
}

// Flag returns the raw presence/value bitset (se_flags).
func (o *Object) Flag() uint64 {
	return o.Flags
}

// fieldsOf resolves the field list of o's concrete type from the
// schema, following the element-redirect-to-type-header rule the same
// way schema.ObjectSize does.
func fieldsOf(s *schema.Schema, typ int) (headerIndex int, fields []schema.Entry) {
	if typ < s.Length() {
		typ = s.Entries[typ].Base
	}
	return typ, s.Fields(typ)
}
