package exidriver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psu-powerlab/se2030/internal/testschema"
	"github.com/psu-powerlab/se2030/pkg/exi"
	"github.com/psu-powerlab/se2030/pkg/object"
	"github.com/psu-powerlab/se2030/pkg/parser"
	"github.com/psu-powerlab/se2030/pkg/parser/exidriver"
)

// bitWriter packs a sequence of MSB-first bit groups into bytes, so
// tests can describe an EXI stream symbolically instead of working out
// byte values that straddle arbitrary bit offsets by hand.
type bitWriter struct {
	bits []bool
}

func (w *bitWriter) writeBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.bits = append(w.bits, (v>>uint(i))&1 != 0)
	}
}

// writeUint mirrors exi.Decoder.Uint's base-128 little-endian grouping.
func (w *bitWriter) writeUint(v uint64) {
	for {
		group := v & 0x7f
		v >>= 7
		if v != 0 {
			w.writeBits(group|0x80, 8)
			continue
		}
		w.writeBits(group, 8)
		return
	}
}

func (w *bitWriter) bytes() []byte {
	out := make([]byte, (len(w.bits)+7)/8)
	for i, b := range w.bits {
		if b {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func TestExiDriverParsesMinimalEndDevice(t *testing.T) {
	s := testschema.New()

	w := &bitWriter{}
	w.writeBits(0x24, 8) // '$'
	w.writeBits(0x45, 8) // 'E'
	w.writeBits(0x58, 8) // 'X'
	w.writeBits(0x49, 8) // 'I'
	w.writeBits(0xA0, 8) // distinguishing byte
	w.writeBits(0x60, 8) // options code byte
	w.writeUint(4)       // schemaId selector: literal of length 4-2=2
	w.writeUint('S')
	w.writeUint('1')
	w.writeBits(1, 1) // EE bit

	w.writeBits(uint64(testschema.ElEndDevice), exi.BitCount(s.Length())) // root element selector

	w.writeBits(1, exi.BitCount(3)) // select field 0 (sFDI) of [sFDI, lFDI, FunctionSetAssignments]
	w.writeUint(123456)             // sFDI value

	w.writeBits(0, exi.BitCount(2)) // end-of-element: skip lFDI and FunctionSetAssignments

	d := exidriver.New(w.bytes(), s)
	pool := object.NewPool(s)
	walker := parser.New(d, s, pool)

	root, err := walker.Parse()
	require.NoError(t, err)
	assert.Equal(t, uint64(123456), root.Scalars["sFDI"])
	_, hasLFDI := root.Scalars["lFDI"]
	assert.False(t, hasLFDI)
}

func TestExiDriverRejectsSchemaIdMismatch(t *testing.T) {
	s := testschema.New()

	w := &bitWriter{}
	w.writeBits(0xA0, 8)
	w.writeBits(0x60, 8)
	w.writeUint(4)
	w.writeUint('X')
	w.writeUint('1')
	w.writeBits(1, 1)

	d := exidriver.New(w.bytes(), s)
	pool := object.NewPool(s)
	walker := parser.New(d, s, pool)

	_, err := walker.Parse()
	assert.Error(t, err)
}
