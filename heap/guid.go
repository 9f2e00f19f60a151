package heap

import (
	"fmt"

	"github.com/google/uuid"
)

// GUIDHeap is the #GUID heap: 16-byte records addressed by 1-based index.
// Index 0 is the reserved null GUID.
type GUIDHeap struct {
	entries []uuid.UUID
	byValue map[uuid.UUID]uint32
}

// NewGUIDHeap returns a heap with index 0 reserved as the null GUID.
func NewGUIDHeap() *GUIDHeap {
	return &GUIDHeap{byValue: make(map[uuid.UUID]uint32)}
}

// GetOrAdd interns g and returns its 1-based index. uuid.Nil always maps to
// index 0.
func (h *GUIDHeap) GetOrAdd(g uuid.UUID) uint32 {
	if g == uuid.Nil {
		return 0
	}
	if idx, ok := h.byValue[g]; ok {
		return idx
	}
	h.entries = append(h.entries, g)
	idx := uint32(len(h.entries))
	h.byValue[g] = idx
	return idx
}

// Get returns the GUID at the given 1-based index, or uuid.Nil for index 0.
func (h *GUIDHeap) Get(index uint32) (uuid.UUID, error) {
	if index == 0 {
		return uuid.Nil, nil
	}
	if int(index) > len(h.entries) {
		return uuid.Nil, fmt.Errorf("heap: guid index %d exceeds %d entries", index, len(h.entries))
	}
	return h.entries[index-1], nil
}

// ecmaBytes returns the little-endian-mixed 16-byte encoding ECMA-335
// mandates for a GUID: the first three fields little-endian, the remaining
// eight bytes big-endian. google/uuid stores RFC 4122 big-endian network
// order, so the first three fields are byte-swapped here and the last eight
// bytes are copied unchanged.
func ecmaBytes(g uuid.UUID) [16]byte {
	var out [16]byte
	out[0], out[1], out[2], out[3] = g[3], g[2], g[1], g[0]
	out[4], out[5] = g[5], g[4]
	out[6], out[7] = g[7], g[6]
	copy(out[8:], g[8:])
	return out
}

// CreateStream returns the byte blob ready for emission into the #GUID
// stream, one 16-byte ECMA-335-ordered record per interned entry in
// insertion order.
func (h *GUIDHeap) CreateStream() []byte {
	out := make([]byte, 0, len(h.entries)*16)
	for _, g := range h.entries {
		b := ecmaBytes(g)
		out = append(out, b[:]...)
	}
	return out
}

// Len returns the number of interned (non-null) GUID entries.
func (h *GUIDHeap) Len() int { return len(h.entries) }

// guidFromECMABytes inverts ecmaBytes, decoding one 16-byte #GUID record
// back into a uuid.UUID.
func guidFromECMABytes(b [16]byte) uuid.UUID {
	var g uuid.UUID
	g[0], g[1], g[2], g[3] = b[3], b[2], b[1], b[0]
	g[4], g[5] = b[5], b[4]
	g[6], g[7] = b[7], b[6]
	copy(g[8:], b[8:])
	return g
}

// LoadRaw replaces the heap's contents with an already-encoded #GUID
// stream, as read back from a parsed metadata directory.
func (h *GUIDHeap) LoadRaw(buf []byte) error {
	if len(buf)%16 != 0 {
		return fmt.Errorf("heap: #GUID stream length %d is not a multiple of 16", len(buf))
	}
	h.entries = h.entries[:0]
	h.byValue = make(map[uuid.UUID]uint32, len(buf)/16)
	for off := 0; off < len(buf); off += 16 {
		var raw [16]byte
		copy(raw[:], buf[off:off+16])
		g := guidFromECMABytes(raw)
		h.entries = append(h.entries, g)
		h.byValue[g] = uint32(len(h.entries))
	}
	return nil
}
