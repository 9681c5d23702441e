// Package hashtable implements the sparse-group open-addressed hash
// table that backs the device registry and the scheduler's event-block
// index.
// The layout follows the sparsehash concept (one bit per slot marking
// occupancy, storage materialized only for occupied slots) rather than
// Go's built-in map, because the schema-driven components need the
// resize/load-factor and iteration-with-erase guarantees this module
// set needs, which a bare map does not provide.
package hashtable

// groupSize is the number of logical slots held by one sparse group.
// The occupancy bitmap and population count share a 64-bit word: 58
// bits of bitmap plus a 6-bit count.
const groupSize = 58

// sparseGroup stores only the occupied slots of a logical run of
// groupSize positions. bits packs the population count in its high 6
// bits and the occupancy bitmap in its low 58 bits.
type sparseGroup[V any] struct {
	slot []V
	bits uint64
}

func popcount(x uint64) int {
	const (
		m1  = 0x5555555555555555
		m2  = 0x3333333333333333
		m4  = 0x0f0f0f0f0f0f0f0f
		h01 = 0x0101010101010101
	)
	x -= (x >> 1) & m1
	x = (x & m2) + ((x >> 2) & m2)
	x = (x + (x >> 4)) & m4
	return int((x * h01) >> 56)
}

// bitRank counts the set bits below position i.
func bitRank(bits uint64, i int) int {
	if i == 0 {
		return 0
	}
	return popcount(bits << (64 - uint(i)))
}

func (g *sparseGroup[V]) empty(i int) bool {
	return g.bits&(1<<uint(i)) == 0
}

func (g *sparseGroup[V]) count() int {
	return int(g.bits >> 58)
}

// index returns the slice index backing logical position i. Only valid
// when position i is occupied.
func (g *sparseGroup[V]) index(i int) int {
	return bitRank(g.bits, i)
}

// insert materializes position i with data, shifting later occupied
// slots up by one.
func (g *sparseGroup[V]) insert(i int, data V) {
	s := bitRank(g.bits, i)
	g.slot = append(g.slot, data)
	copy(g.slot[s+1:], g.slot[s:len(g.slot)-1])
	g.slot[s] = data
	g.bits += 1 << 58
	g.bits |= 1 << uint(i)
}

// KeyKind is implemented by the three supported key representations:
// strings, 64-bit integers, and 128-bit (16-byte) identifiers.
type KeyKind interface {
	string | uint64 | [16]byte
}

// hash computes the probe-start index for a key, matching the original
// djb2 string hash, the Thomas Wang 64-bit mix, and djb2-over-16-bytes
// respectively.
func hash[K KeyKind](key K) uint64 {
	switch k := any(key).(type) {
	case string:
		var h uint64 = 5381
		for i := 0; i < len(k); i++ {
			h = ((h << 5) + h) + uint64(k[i])
		}
		return h
	case uint64:
		x := k
		x = (^x) + (x << 21)
		x = x ^ (x >> 24)
		x = (x + (x << 3)) + (x << 8)
		x = x ^ (x >> 14)
		x = (x + (x << 2)) + (x << 4)
		x = x ^ (x >> 28)
		x = x + (x << 31)
		return x
	case [16]byte:
		var h uint64 = 5381
		for i := 0; i < 16; i++ {
			h = ((h << 5) + h) + uint64(k[i])
		}
		return h
	}
	panic("hashtable: unsupported key kind")
}

// Table is an open-addressed hash table of sparse groups, generic over
// a value type V identified by a key of kind K.
type Table[K KeyKind, V any] struct {
	keyOf func(V) K
	zero  V

	groups []sparseGroup[V]
	size   int
	items  int
	min    int
	max    int
}

// New allocates a Table with the given initial size, which must be a
// power of two. keyOf extracts the key from a stored value.
func New[K KeyKind, V any](size int, keyOf func(V) K) *Table[K, V] {
	t := &Table[K, V]{keyOf: keyOf}
	t.init(size)
	return t
}

func (t *Table[K, V]) init(size int) {
	groups := (size + groupSize - 1) / groupSize
	t.size = size
	t.items = 0
	t.min = (size * 40) / 100
	t.max = (size * 80) / 100
	t.groups = make([]sparseGroup[V], groups)
}

// location identifies a slot either already holding a matching key, or
// available (empty / tombstoned) should one need to be inserted.
type location struct {
	group int
	slot  int
	found bool
}

func (t *Table[K, V]) find(key K) location {
	mask := t.size - 1
	index := int(hash(key)) & mask
	probes := 0
	var marked *location
	for {
		g := &t.groups[index/groupSize]
		i := index % groupSize
		if g.slot == nil || g.empty(i) {
			if marked == nil {
				return location{group: index / groupSize, slot: i}
			}
			return *marked
		}
		e := g.index(i)
		v := g.slot[e]
		if !isZero(v) {
			if t.keyOf(v) == key {
				return location{group: index / groupSize, slot: i, found: true}
			}
		} else if marked == nil {
			marked = &location{group: index / groupSize, slot: i}
		}
		probes++
		index = (index + probes) & mask
	}
}

func isZero[V any](v V) bool {
	var zero V
	return any(v) == any(zero)
}

// Put inserts or overwrites the entry whose key matches keyOf(data).
func (t *Table[K, V]) Put(data V) {
	key := t.keyOf(data)
	loc := t.find(key)
	g := &t.groups[loc.group]
	if loc.found {
		g.slot[g.index(loc.slot)] = data
		return
	}
	if t.items == t.max {
		t.resize(t.size << 1)
		loc = t.find(key)
		g = &t.groups[loc.group]
	}
	if g.empty(loc.slot) {
		g.insert(loc.slot, data)
	} else {
		g.slot[g.index(loc.slot)] = data // reuse a tombstone
	}
	t.items++
}

// Get returns the stored value for key and true, or the zero value and
// false if no entry matches.
func (t *Table[K, V]) Get(key K) (V, bool) {
	loc := t.find(key)
	if !loc.found {
		var zero V
		return zero, false
	}
	g := &t.groups[loc.group]
	return g.slot[g.index(loc.slot)], true
}

// Delete removes the entry matching key, returning the removed value
// (and true) if one existed.
func (t *Table[K, V]) Delete(key K) (V, bool) {
	loc := t.find(key)
	if !loc.found {
		var zero V
		return zero, false
	}
	g := &t.groups[loc.group]
	e := g.index(loc.slot)
	old := g.slot[e]
	var zero V
	g.slot[e] = zero // tombstone: bit stays set, value cleared
	t.items--
	if t.items == t.min {
		t.resize(t.size >> 1)
	}
	return old, true
}

// Len returns the number of live entries.
func (t *Table[K, V]) Len() int {
	return t.items
}

func (t *Table[K, V]) resize(size int) {
	old := t.groups
	t.init(size)
	for i := range old {
		g := &old[i]
		count := g.count()
		for i, n := 0, 0; n < count; i++ {
			if g.empty(i) {
				continue
			}
			v := g.slot[g.index(i)]
			n++
			if !isZero(v) {
				t.Put(v)
			}
		}
	}
}

// Cursor supports ordered iteration over a Table with in-place
// deletion of the current element, mirroring HashPointer/foreach_h.
// group/slot track the next unvisited live element; curGroup/curSlot
// track the element most recently returned by Next, which is what
// Erase operates on.
type Cursor[K KeyKind, V any] struct {
	t    *Table[K, V]
	group, slot       int
	curGroup, curSlot int
	haveCur           bool
	done              bool
}

// Iterate returns a Cursor positioned at the first live element.
func (t *Table[K, V]) Iterate() *Cursor[K, V] {
	c := &Cursor[K, V]{t: t, group: 0, slot: -1}
	c.advance()
	return c
}

func (c *Cursor[K, V]) advance() {
	t := c.t
	for c.group < len(t.groups) {
		g := &t.groups[c.group]
		for c.slot++; c.slot < groupSize; c.slot++ {
			if g.empty(c.slot) {
				continue
			}
			if v := g.slot[g.index(c.slot)]; !isZero(v) {
				return
			}
		}
		c.group++
		c.slot = -1
	}
	c.done = true
}

// Next returns the current element and true, advancing the cursor, or
// the zero value and false once iteration is exhausted.
func (c *Cursor[K, V]) Next() (V, bool) {
	if c.done {
		var zero V
		return zero, false
	}
	g := &c.t.groups[c.group]
	v := g.slot[g.index(c.slot)]
	c.curGroup, c.curSlot, c.haveCur = c.group, c.slot, true
	c.advance()
	return v, true
}

// Erase deletes the element the cursor currently points at (the one
// most recently returned by Next), matching hash_erase.
func (c *Cursor[K, V]) Erase() {
	if !c.haveCur {
		return
	}
	g := &c.t.groups[c.curGroup]
	var zero V
	if !g.empty(c.curSlot) {
		g.slot[g.index(c.curSlot)] = zero
		c.t.items--
	}
}
