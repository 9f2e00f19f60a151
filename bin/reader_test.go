package bin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clrmeta/clrmeta/errs"
)

func TestReadCompressedUintWidths(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want uint32
	}{
		{"one byte", []byte{0x03}, 0x03},
		{"one byte max", []byte{0x7F}, 0x7F},
		{"two byte min", []byte{0x80, 0x80}, 0x80},
		{"two byte max", []byte{0xBF, 0xFF}, 0x3FFF},
		{"four byte min", []byte{0xC0, 0x00, 0x40, 0x00}, 0x4000},
		{"four byte max", []byte{0xDF, 0xFF, 0xFF, 0xFF}, 0x1FFFFFFF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := NewReader(c.data)
			got, err := r.ReadCompressedUint()
			require.NoError(t, err)
			require.Equal(t, c.want, got)
			require.Equal(t, len(c.data), r.Pos())
		})
	}
}

func TestReadCompressedUintInvalidDiscriminator(t *testing.T) {
	r := NewReader([]byte{0xF0})
	_, err := r.ReadCompressedUint()
	require.ErrorIs(t, err, errs.ErrMalformedCompressedInt)
}

func TestReadCompressedIntRoundTrip(t *testing.T) {
	for _, v := range []int32{0, 3, -3, 64, -64, 8192, -8192, 268435455, -268435456} {
		w := NewWriter()
		require.NoError(t, w.WriteCompressedInt(v))
		r := NewReader(w.Bytes())
		got, err := r.ReadCompressedInt()
		require.NoError(t, err)
		require.Equal(t, v, got, "round trip of %d", v)
	}
}

func TestReadSerStringNull(t *testing.T) {
	r := NewReader([]byte{0xFF})
	v, isNull, err := r.ReadSerString()
	require.NoError(t, err)
	require.True(t, isNull)
	require.Empty(t, v)
}

func TestReadSerStringValue(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteSerString("hello", false))
	r := NewReader(w.Bytes())
	v, isNull, err := r.ReadSerString()
	require.NoError(t, err)
	require.False(t, isNull)
	require.Equal(t, "hello", v)
}

func TestReaderEndOfStream(t *testing.T) {
	r := NewReader([]byte{0x01})
	_, err := r.ReadU32()
	require.ErrorIs(t, err, errs.ErrEndOfStream)
}

func TestReaderSliceIsBounded(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4, 5})
	sub, err := r.Slice(1, 2)
	require.NoError(t, err)
	require.Equal(t, 2, sub.Len())
	b, err := sub.ReadBytes(2)
	require.NoError(t, err)
	require.Equal(t, []byte{2, 3}, b)
	_, err = sub.ReadByte()
	require.ErrorIs(t, err, errs.ErrEndOfStream)
}
