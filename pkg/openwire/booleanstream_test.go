package openwire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func streamRoundTrip(t *testing.T, bits []bool) {
	t.Helper()
	bs := NewBooleanStream()
	for _, b := range bits {
		bs.WriteBool(b)
	}

	w := NewWriter()
	bs.Restart()
	bs.MarshalTo(w)
	require.NoError(t, w.Err())

	decoded := NewBooleanStream()
	r := NewReader(w.Bytes())
	decoded.UnmarshalFrom(r)
	require.NoError(t, r.Err())

	for i, want := range bits {
		assert.Equal(t, want, decoded.ReadBool(), "bit %d", i)
	}
	assert.Zero(t, r.Remaining(), "stream should consume exactly its own bytes")
}

func TestBooleanStreamRoundTrip(t *testing.T) {
	patterns := [][]bool{
		{},
		{true},
		{false, true, false, true, true, false, false, true},
		{true, true, true, true, true, true, true, true, true}, // crosses a byte
	}
	for _, bits := range patterns {
		streamRoundTrip(t, bits)
	}
}

func TestBooleanStreamLengthHeaders(t *testing.T) {
	// One byte of payload per 8 bits; exercise all three header forms.
	for _, bitCount := range []int{8, 63 * 8, 64 * 8, 255 * 8, 256 * 8, 1000 * 8} {
		bits := make([]bool, bitCount)
		for i := range bits {
			bits[i] = i%3 == 0
		}
		streamRoundTrip(t, bits)
	}
}

func TestBooleanStreamReadPastEnd(t *testing.T) {
	bs := NewBooleanStream()
	bs.WriteBool(true)
	bs.Restart()
	assert.True(t, bs.ReadBool())
	// Reading past what was written yields false, never panics.
	for i := 0; i < 16; i++ {
		assert.False(t, bs.ReadBool())
	}
}
