package heap

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestStringHeapDistinctStrings(t *testing.T) {
	h := NewStringHeap()
	a := h.GetOrAdd("String 1")
	b := h.GetOrAdd("String 2")
	require.NotEqual(t, a, b)

	got, err := h.Get(a)
	require.NoError(t, err)
	require.Equal(t, "String 1", got)

	got, err = h.Get(b)
	require.NoError(t, err)
	require.Equal(t, "String 2", got)
}

func TestStringHeapDuplicateStrings(t *testing.T) {
	h := NewStringHeap()
	a := h.GetOrAdd("String 1")
	b := h.GetOrAdd("String 1")
	require.Equal(t, a, b)
}

func TestStringHeapEmptyIsOffsetZero(t *testing.T) {
	h := NewStringHeap()
	require.EqualValues(t, 0, h.GetOrAdd(""))
}

func TestBlobHeapIdempotence(t *testing.T) {
	h := NewBlobHeap()
	payload := []byte{1, 2, 3, 4}
	a := h.GetOrAdd(payload)
	b := h.GetOrAdd(payload)
	require.Equal(t, a, b)
}

func TestBlobHeapAppendRawNeverAliasesIntern(t *testing.T) {
	h := NewBlobHeap()
	payload := []byte{9, 8, 7}
	interned := h.GetOrAdd(payload)
	raw := h.AppendRaw(payload)
	require.NotEqual(t, interned, raw)

	// A later GetOrAdd of the same bytes still returns the interned offset,
	// never the raw one.
	again := h.GetOrAdd(payload)
	require.Equal(t, interned, again)
}

func TestUserStringTerminatorByte(t *testing.T) {
	h := NewUserStringHeap()

	quote := h.GetOrAdd("My String" + string(rune(0x27)))
	term, err := h.TerminatorAt(quote)
	require.NoError(t, err)
	require.EqualValues(t, 1, term)

	plain := h.GetOrAdd("My String" + string(rune('A')))
	term, err = h.TerminatorAt(plain)
	require.NoError(t, err)
	require.EqualValues(t, 0, term)

	tab := h.GetOrAdd("My String" + string(rune(0x09)))
	term, err = h.TerminatorAt(tab)
	require.NoError(t, err)
	require.EqualValues(t, 0, term)
}

func TestUserStringRoundTrip(t *testing.T) {
	h := NewUserStringHeap()
	off := h.GetOrAdd("hello world")
	got, err := h.Get(off)
	require.NoError(t, err)
	require.Equal(t, "hello world", got)
}

func TestGUIDHeapNullIsIndexZero(t *testing.T) {
	h := NewGUIDHeap()
	require.EqualValues(t, 0, h.GetOrAdd(uuid.Nil))
	got, err := h.Get(0)
	require.NoError(t, err)
	require.Equal(t, uuid.Nil, got)
}

func TestGUIDHeapIdempotence(t *testing.T) {
	h := NewGUIDHeap()
	g := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	a := h.GetOrAdd(g)
	b := h.GetOrAdd(g)
	require.Equal(t, a, b)
	require.EqualValues(t, 1, a)

	got, err := h.Get(a)
	require.NoError(t, err)
	require.Equal(t, g, got)
}

func TestGUIDHeapLoadRawRoundTrip(t *testing.T) {
	h := NewGUIDHeap()
	g := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	h.GetOrAdd(g)
	stream := h.CreateStream()

	loaded := NewGUIDHeap()
	require.NoError(t, loaded.LoadRaw(stream))
	got, err := loaded.Get(1)
	require.NoError(t, err)
	require.Equal(t, g, got)
}

func TestStringHeapOffsetsWalksEveryEntry(t *testing.T) {
	h := NewStringHeap()
	a := h.GetOrAdd("one")
	b := h.GetOrAdd("two")

	offs := h.Offsets()
	require.Contains(t, offs, a)
	require.Contains(t, offs, b)
}

func TestBlobHeapOffsetsWalksEveryEntry(t *testing.T) {
	h := NewBlobHeap()
	a := h.GetOrAdd([]byte{1, 2, 3})
	b := h.GetOrAdd([]byte{4, 5})

	offs := h.Offsets()
	require.Contains(t, offs, a)
	require.Contains(t, offs, b)
}

func TestUserStringHeapOffsetsWalksEveryEntry(t *testing.T) {
	h := NewUserStringHeap()
	a := h.GetOrAdd("hello")
	b := h.GetOrAdd("world")

	offs := h.Offsets()
	require.Contains(t, offs, a)
	require.Contains(t, offs, b)
}
