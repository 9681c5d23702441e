package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psu-powerlab/se2030/internal/testschema"
	"github.com/psu-powerlab/se2030/pkg/object"
	"github.com/psu-powerlab/se2030/pkg/parser"
	"github.com/psu-powerlab/se2030/pkg/parser/xmldriver"
)

const endDeviceXML = `<EndDevice>` +
	`<sFDI>123456</sFDI>` +
	`<lFDI>ab12</lFDI>` +
	`<FunctionSetAssignments>` +
	`<DERProgram>` +
	`<primacy>1</primacy>` +
	`<DERControl>` +
	`<mRID>abc123</mRID>` +
	`<DERControlBase>` +
	`<opModConnect>true</opModConnect>` +
	`<opModFixedW>100</opModFixedW>` +
	`</DERControlBase>` +
	`</DERControl>` +
	`</DERProgram>` +
	`</FunctionSetAssignments>` +
	`</EndDevice>`

func TestWalkerParsesNestedDocumentFromXML(t *testing.T) {
	s := testschema.New()
	pool := object.NewPool(s)
	d := xmldriver.New([]byte(endDeviceXML), s)
	w := parser.New(d, s, pool)

	root, err := w.Parse()
	require.NoError(t, err)

	assert.Equal(t, uint64(123456), root.Scalars["sFDI"])

	lfdi, ok := root.Scalars["lFDI"].([]byte)
	require.True(t, ok)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0xAB, 0x12}, lfdi)

	fsa := root.Children["FunctionSetAssignments"]
	require.Len(t, fsa, 1)

	program := fsa[0].Children["DERProgram"]
	require.Len(t, program, 1)
	assert.Equal(t, uint64(1), program[0].Scalars["primacy"])

	control := program[0].Children["DERControl"]
	require.Len(t, control, 1)
	assert.Equal(t, "abc123", control[0].Scalars["mRID"])

	base := control[0].Children["DERControlBase"]
	require.Len(t, base, 1)
	assert.True(t, base[0].True(testschema.BitOpModConnect))
	assert.Equal(t, int64(100), base[0].Scalars["opModFixedW"])
}

func TestWalkerRejectsMissingRequiredField(t *testing.T) {
	s := testschema.New()
	pool := object.NewPool(s)
	// sFDI (min 1) omitted.
	d := xmldriver.New([]byte(`<EndDevice><lFDI>ab12</lFDI></EndDevice>`), s)
	w := parser.New(d, s, pool)

	_, err := w.Parse()
	assert.Error(t, err)
}

func TestWalkerHandlesEmptyOptionalField(t *testing.T) {
	s := testschema.New()
	pool := object.NewPool(s)
	d := xmldriver.New([]byte(`<EndDevice><sFDI>1</sFDI></EndDevice>`), s)
	w := parser.New(d, s, pool)

	root, err := w.Parse()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), root.Scalars["sFDI"])
	_, hasLFDI := root.Scalars["lFDI"]
	assert.False(t, hasLFDI)
}

func TestWalkerRebufferResumesAcrossIncompleteInput(t *testing.T) {
	s := testschema.New()
	pool := object.NewPool(s)
	full := []byte(`<EndDevice><sFDI>42</sFDI></EndDevice>`)
	d := xmldriver.New(full[:len(full)-5], s)
	w := parser.New(d, s, pool)

	_, err := w.Parse()
	require.Error(t, err)

	d.Rebuffer(full)
	root, err := w.Parse()
	require.NoError(t, err)
	assert.Equal(t, uint64(42), root.Scalars["sFDI"])
}
