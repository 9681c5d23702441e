package object

import (
	"sync"

	"github.com/psu-powerlab/se2030/pkg/schema"
)

// Pool is a schema-driven allocator that recycles Objects through one
// sync.Pool per concrete schema type instead of calling free() on a
// manually laid out region. Allocate and Release are the direct
// replacements for the original's type_alloc/free_object pair; Replace
// mirrors replace_object.
//
// A Pool is safe for concurrent use, but per §5 (Concurrency & Resource
// Model) only the owning event-loop goroutine is expected to call it
// for objects belonging to its own parse or schedule.
type Pool struct {
	schema *schema.Schema

	mu    sync.Mutex
	pools map[int]*sync.Pool
	live  map[int]int // per-type outstanding allocation count, for leak accounting in tests
}

// NewPool creates a Pool bound to a Schema. The schema is immutable for
// the lifetime of the Pool.
func NewPool(s *schema.Schema) *Pool {
	return &Pool{
		schema: s,
		pools:  make(map[int]*sync.Pool),
		live:   make(map[int]int),
	}
}

func (p *Pool) poolFor(typ int) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sp, ok := p.pools[typ]
	if !ok {
		sp = &sync.Pool{New: func() interface{} { return newObject(typ) }}
		p.pools[typ] = sp
	}
	return sp
}

// Allocate returns a zeroed Object of the given schema type, drawing
// from the pool when a previously released instance is available.
func (p *Pool) Allocate(typ int) *Object {
	obj := p.poolFor(typ).Get().(*Object)
	obj.reset(typ)
	p.mu.Lock()
	p.live[typ]++
	p.mu.Unlock()
	return obj
}

// Live returns the number of Objects of typ currently allocated and not
// yet released, the accounting invariant §8 scenario 3 ("zero leaked
// allocations") tests against.
func (p *Pool) Live(typ int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live[typ]
}

// Release walks obj's fields per the schema and returns every reachable
// child back to its own type's pool before returning obj itself,
// mirroring free_object_elements/free_object. It is the non-destructive
// Release (free_object_elements) when called via ReleaseElements, and
// the full free (free_object) when called via Release.
func (p *Pool) Release(obj *Object) {
	if obj == nil {
		return
	}
	p.ReleaseElements(obj)
	p.put(obj)
}

// ReleaseElements releases obj's reachable children without recycling
// obj itself, matching free_object_elements.
func (p *Pool) ReleaseElements(obj *Object) {
	if obj == nil {
		return
	}
	_, fields := fieldsOf(p.schema, obj.Type)
	for _, f := range fields {
		switch {
		case f.Substitution:
			if st, ok := obj.Subst[f.Name]; ok && st != nil && st.Data != nil {
				p.Release(st.Data)
			}
		case f.Simple:
			// Simple scalars (including pointer-kind unbounded
			// string/anyURI arrays) carry no pooled allocations of
			// their own; Go's GC reclaims the backing strings.
		default:
			for _, child := range obj.Children[f.Name] {
				p.Release(child)
			}
		}
	}
}

func (p *Pool) put(obj *Object) {
	typ := obj.Type
	p.mu.Lock()
	if p.live[typ] > 0 {
		p.live[typ]--
	}
	p.mu.Unlock()
	p.poolFor(typ).Put(obj)
}

// Replace frees dest's elements in place, overwrites dest's scalar
// state from src, and releases src's own container back to its pool —
// the Go analog of replace_object's free+memcpy+free sequence.
func (p *Pool) Replace(dest, src *Object) {
	p.ReleaseElements(dest)
	dest.Flags = src.Flags
	for k := range dest.Scalars {
		delete(dest.Scalars, k)
	}
	for k, v := range src.Scalars {
		dest.Scalars[k] = v
	}
	for k := range dest.Children {
		delete(dest.Children, k)
	}
	for k, v := range src.Children {
		dest.Children[k] = v
	}
	for k := range dest.Subst {
		delete(dest.Subst, k)
	}
	for k, v := range src.Subst {
		dest.Subst[k] = v
	}
	src.Scalars = make(map[string]interface{})
	src.Children = make(map[string][]*Object)
	src.Subst = make(map[string]*Substitution)
	p.put(src)
}
