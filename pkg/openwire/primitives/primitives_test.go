package primitives_test

import (
	"strings"
	"testing"

	"github.com/chris-alexander-pop/openwire-client/pkg/errors"
	"github.com/chris-alexander-pop/openwire-client/pkg/openwire/primitives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapRoundTrip(t *testing.T) {
	original := primitives.Map{
		"bool":   primitives.NewBool(true),
		"byte":   primitives.NewByte(0x7F),
		"char":   primitives.NewChar('Ω'),
		"short":  primitives.NewShort(-1234),
		"int":    primitives.NewInt(123456789),
		"long":   primitives.NewLong(-9876543210),
		"float":  primitives.NewFloat(3.5),
		"double": primitives.NewDouble(2.25),
		"string": primitives.NewString("héllo wörld"),
		"bytes":  primitives.NewBytes([]byte{0, 1, 2, 255}),
		"null":   primitives.Null(),
		"nested": primitives.NewMap(primitives.Map{"inner": primitives.NewInt(1)}),
		"list": primitives.NewList(primitives.List{
			primitives.NewString("a"),
			primitives.NewLong(2),
		}),
	}

	data, err := primitives.MarshalMap(original)
	require.NoError(t, err)

	decoded, err := primitives.UnmarshalMap(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestListRoundTrip(t *testing.T) {
	original := primitives.List{
		primitives.NewBool(false),
		primitives.NewString("x"),
		primitives.NewDouble(1.5),
	}
	data, err := primitives.MarshalList(original)
	require.NoError(t, err)

	decoded, err := primitives.UnmarshalList(data)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestBigStringRoundTrip(t *testing.T) {
	big := strings.Repeat("x", 40000)
	data, err := primitives.MarshalList(primitives.List{primitives.NewString(big)})
	require.NoError(t, err)

	decoded, err := primitives.UnmarshalList(data)
	require.NoError(t, err)
	got, err := decoded[0].AsString()
	require.NoError(t, err)
	assert.Equal(t, big, got)
}

func TestEmptyMapUnmarshal(t *testing.T) {
	decoded, err := primitives.UnmarshalMap(nil)
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestUnknownTagRejected(t *testing.T) {
	// entry count 1, key "k", bogus tag 0xEE
	data := []byte{0, 0, 0, 1, 0, 1, 'k', 0xEE}
	_, err := primitives.UnmarshalMap(data)
	require.Error(t, err)
	assert.Equal(t, primitives.CodeUnknownTag, errors.Code(err))
}

func TestTruncatedInputRejected(t *testing.T) {
	data, err := primitives.MarshalMap(primitives.Map{"k": primitives.NewLong(42)})
	require.NoError(t, err)

	_, err = primitives.UnmarshalMap(data[:len(data)-3])
	require.Error(t, err)
	assert.Equal(t, primitives.CodeTruncated, errors.Code(err))
}

func TestConversionMatrix(t *testing.T) {
	t.Run("bool and string interconvert", func(t *testing.T) {
		b, err := primitives.NewString("true").AsBool()
		require.NoError(t, err)
		assert.True(t, b)

		s, err := primitives.NewBool(false).AsString()
		require.NoError(t, err)
		assert.Equal(t, "false", s)
	})

	t.Run("numeric widening upward only", func(t *testing.T) {
		long, err := primitives.NewByte(7).AsLong()
		require.NoError(t, err)
		assert.Equal(t, int64(7), long)

		i, err := primitives.NewShort(300).AsInt()
		require.NoError(t, err)
		assert.Equal(t, int32(300), i)

		d, err := primitives.NewFloat(1.5).AsDouble()
		require.NoError(t, err)
		assert.Equal(t, 1.5, d)

		// Narrowing is a format error.
		_, err = primitives.NewLong(1).AsInt()
		require.Error(t, err)
		assert.Equal(t, primitives.CodeUnsupportedConversion, errors.Code(err))

		_, err = primitives.NewDouble(1).AsFloat()
		require.Error(t, err)
	})

	t.Run("byte arrays are isolated", func(t *testing.T) {
		_, err := primitives.NewBytes([]byte{1}).AsString()
		require.Error(t, err)
		_, err = primitives.NewString("x").AsBytes()
		require.Error(t, err)
	})

	t.Run("everything converts to string", func(t *testing.T) {
		for _, v := range []primitives.Value{
			primitives.NewByte(1),
			primitives.NewShort(2),
			primitives.NewInt(3),
			primitives.NewLong(4),
			primitives.NewFloat(5),
			primitives.NewDouble(6),
			primitives.NewChar('x'),
		} {
			_, err := v.AsString()
			require.NoError(t, err)
		}
	})

	t.Run("string parses into numerics", func(t *testing.T) {
		n, err := primitives.NewString("42").AsInt()
		require.NoError(t, err)
		assert.Equal(t, int32(42), n)

		_, err = primitives.NewString("not a number").AsInt()
		require.Error(t, err)
	})
}

func TestModifiedUTF8(t *testing.T) {
	for _, s := range []string{
		"",
		"plain ascii",
		"embedded\x00nul",
		"ünïcödé",
		"日本語",
		"emoji \U0001F600 pair",
	} {
		encoded := primitives.EncodeModifiedUTF8(s)
		decoded, err := primitives.DecodeModifiedUTF8(encoded)
		require.NoError(t, err)
		assert.Equal(t, s, decoded)
	}

	// A NUL byte never appears raw in modified UTF-8.
	assert.NotContains(t, primitives.EncodeModifiedUTF8("a\x00b"), byte(0))

	_, err := primitives.DecodeModifiedUTF8([]byte{0xFF, 0x20})
	require.Error(t, err)
	assert.Equal(t, primitives.CodeInvalidUTF8, errors.Code(err))
}
