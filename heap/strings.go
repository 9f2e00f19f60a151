package heap

import "fmt"

// StringHeap is the #Strings heap: UTF-8, NUL-terminated, interned by
// decoded string value so semantically equal strings coalesce.
type StringHeap struct {
	buf    []byte
	byText map[string]uint32
}

// NewStringHeap returns a heap with the empty string pre-seeded at offset 0.
func NewStringHeap() *StringHeap {
	h := &StringHeap{byText: make(map[string]uint32)}
	h.buf = append(h.buf, 0x00)
	h.byText[""] = 0
	return h
}

// GetOrAdd interns s and returns its offset.
func (h *StringHeap) GetOrAdd(s string) uint32 {
	if off, ok := h.byText[s]; ok {
		return off
	}
	offset := uint32(len(h.buf))
	h.buf = append(h.buf, []byte(s)...)
	h.buf = append(h.buf, 0x00)
	h.byText[s] = offset
	return offset
}

// AppendRaw appends s without deduplication and returns its offset.
func (h *StringHeap) AppendRaw(s string) uint32 {
	offset := uint32(len(h.buf))
	h.buf = append(h.buf, []byte(s)...)
	h.buf = append(h.buf, 0x00)
	return offset
}

// Get returns the NUL-terminated string starting at offset.
func (h *StringHeap) Get(offset uint32) (string, error) {
	if int(offset) >= len(h.buf) {
		return "", fmt.Errorf("heap: string offset %d beyond heap length %d", offset, len(h.buf))
	}
	end := int(offset)
	for end < len(h.buf) && h.buf[end] != 0x00 {
		end++
	}
	return string(h.buf[offset:end]), nil
}

// CreateStream returns the byte blob ready for emission.
func (h *StringHeap) CreateStream() []byte {
	return append([]byte(nil), h.buf...)
}

// LoadRaw replaces the heap's contents with an already-encoded #Strings
// stream, as read back from a parsed metadata directory. GetOrAdd on a
// loaded heap does not dedupe against the loaded bytes.
func (h *StringHeap) LoadRaw(buf []byte) {
	h.buf = append([]byte(nil), buf...)
}

// Offsets returns the offset of every NUL-terminated entry in the heap, in
// ascending order, for callers that want to walk the full contents.
func (h *StringHeap) Offsets() []uint32 {
	var offs []uint32
	for off := 0; off < len(h.buf); {
		offs = append(offs, uint32(off))
		end := off
		for end < len(h.buf) && h.buf[end] != 0x00 {
			end++
		}
		off = end + 1
	}
	return offs
}

// Len returns the current physical size of the heap in bytes.
func (h *StringHeap) Len() int { return len(h.buf) }
