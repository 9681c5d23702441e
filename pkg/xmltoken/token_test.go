package xmltoken_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psu-powerlab/se2030/pkg/xmltoken"
)

func TestStartTextEndSequence(t *testing.T) {
	s := xmltoken.New([]byte(`<Foo><enabled>true</enabled></Foo>`))

	require.Equal(t, xmltoken.Start, s.Next())
	assert.Equal(t, "Foo", s.Name)

	require.Equal(t, xmltoken.Start, s.Next())
	assert.Equal(t, "enabled", s.Name)

	require.Equal(t, xmltoken.Text, s.Next())
	assert.Equal(t, "true", string(s.Content))

	require.Equal(t, xmltoken.End, s.Next())
	assert.Equal(t, "enabled", s.Name)

	require.Equal(t, xmltoken.End, s.Next())
	assert.Equal(t, "Foo", s.Name)
}

func TestEmptyTag(t *testing.T) {
	s := xmltoken.New([]byte(`<Foo/>`))
	require.Equal(t, xmltoken.Empty, s.Next())
	assert.Equal(t, "Foo", s.Name)
}

func TestAttributes(t *testing.T) {
	s := xmltoken.New([]byte(`<Foo xsi:type="DERControl" id='7'>`))
	require.Equal(t, xmltoken.Start, s.Next())
	v, ok := xmltoken.AttrValue(s.Attrs, "xsi:type")
	require.True(t, ok)
	assert.Equal(t, "DERControl", v)
	v, ok = xmltoken.AttrValue(s.Attrs, "id")
	require.True(t, ok)
	assert.Equal(t, "7", v)
}

func TestDeclAcceptedOnce(t *testing.T) {
	s := xmltoken.New([]byte(`<?xml version="1.0"?><?xml version="1.0"?>`))
	require.Equal(t, xmltoken.Decl, s.Next())
	assert.Equal(t, xmltoken.Invalid, s.Next())
}

func TestIncompleteThenRebuffer(t *testing.T) {
	partial := []byte(`<Foo><enabled>tr`)
	s := xmltoken.New(partial)
	require.Equal(t, xmltoken.Start, s.Next())
	require.Equal(t, xmltoken.Start, s.Next())
	require.Equal(t, xmltoken.Incomplete, s.Next())

	full := []byte(`<Foo><enabled>true</enabled></Foo>`)
	s.Rebuffer(full)
	require.Equal(t, xmltoken.Text, s.Next())
	assert.Equal(t, "true", string(s.Content))
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"true", "1", "false", "0"} {
		_, ok := xmltoken.ParseBool(s)
		assert.True(t, ok, s)
	}
	_, ok := xmltoken.ParseBool("yes")
	assert.False(t, ok)
}

func TestParseHexBinaryRightAligns(t *testing.T) {
	out, ok := xmltoken.ParseHexBinary("ab12", 4)
	require.True(t, ok)
	assert.Equal(t, []byte{0x00, 0x00, 0xab, 0x12}, out)
}
