package hashtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	key uint64
	val int
}

func keyOf(e *entry) uint64 { return e.key }

func TestPutGetDeleteRoundTrip(t *testing.T) {
	tbl := New[uint64, *entry](16, keyOf)

	const n = 10000
	for i := 0; i < n; i++ {
		tbl.Put(&entry{key: uint64(i) * 2654435761, val: i})
	}
	require.Equal(t, n, tbl.Len())

	for i := 0; i < n; i++ {
		e, ok := tbl.Get(uint64(i) * 2654435761)
		require.True(t, ok)
		assert.Equal(t, i, e.val)
	}

	for i := 0; i < n; i += 2 {
		_, ok := tbl.Delete(uint64(i) * 2654435761)
		require.True(t, ok)
	}
	assert.Equal(t, n/2, tbl.Len())

	seen := 0
	c := tbl.Iterate()
	for {
		e, ok := c.Next()
		if !ok {
			break
		}
		assert.True(t, e.val%2 == 1)
		seen++
	}
	assert.Equal(t, n/2, seen)
}

func TestLoadFactorResizeBounds(t *testing.T) {
	tbl := New[uint64, *entry](16, keyOf)
	initialSize := tbl.size

	// fill to just below the 80% threshold; size must not have changed.
	max := tbl.max
	for i := 0; i < max; i++ {
		tbl.Put(&entry{key: uint64(i), val: i})
	}
	assert.Equal(t, initialSize, tbl.size)

	// one more insert crosses the threshold and doubles the table exactly once.
	tbl.Put(&entry{key: uint64(max), val: max})
	assert.Equal(t, initialSize<<1, tbl.size)

	// a further insert must land in the grown table without re-resizing yet.
	tbl.Put(&entry{key: uint64(max + 1), val: max + 1})
	assert.Equal(t, initialSize<<1, tbl.size)
}

func TestStringKeyPolicy(t *testing.T) {
	type strEntry struct {
		key string
		n   int
	}
	tbl := New[string, *strEntry](8, func(e *strEntry) string { return e.key })
	tbl.Put(&strEntry{key: "opModFixedW", n: 1})
	tbl.Put(&strEntry{key: "opModMaxLimW", n: 2})
	e, ok := tbl.Get("opModFixedW")
	require.True(t, ok)
	assert.Equal(t, 1, e.n)
	_, ok = tbl.Get("missing")
	assert.False(t, ok)
}

func TestInt128KeyPolicy(t *testing.T) {
	type lfdiEntry struct {
		key [16]byte
	}
	tbl := New[[16]byte, *lfdiEntry](8, func(e *lfdiEntry) [16]byte { return e.key })
	var k1, k2 [16]byte
	k1[0] = 1
	k2[0] = 2
	tbl.Put(&lfdiEntry{key: k1})
	tbl.Put(&lfdiEntry{key: k2})
	_, ok := tbl.Get(k1)
	assert.True(t, ok)
	_, ok = tbl.Get(k2)
	assert.True(t, ok)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	tbl := New[uint64, *entry](16, keyOf)
	_, ok := tbl.Delete(42)
	assert.False(t, ok)
}

func TestIterationErase(t *testing.T) {
	tbl := New[uint64, *entry](16, keyOf)
	for i := 0; i < 20; i++ {
		tbl.Put(&entry{key: uint64(i), val: i})
	}
	c := tbl.Iterate()
	removed := 0
	for {
		e, ok := c.Next()
		if !ok {
			break
		}
		if e.val%3 == 0 {
			c.Erase()
			removed++
		}
	}
	assert.Equal(t, 20-removed, tbl.Len())
	_, ok := tbl.Get(0)
	assert.False(t, ok)
}
