package heap

import (
	"fmt"
	"unicode/utf16"

	"github.com/clrmeta/clrmeta/bin"
)

// UserStringHeap is the #US heap: UTF-16LE user strings, each followed by a
// one-byte terminator flagging whether any code unit fell outside the "safe"
// printable set, interned by decoded content.
type UserStringHeap struct {
	buf    []byte
	byText map[string]uint32
}

// NewUserStringHeap returns a heap with the empty string pre-seeded at offset 0.
func NewUserStringHeap() *UserStringHeap {
	h := &UserStringHeap{byText: make(map[string]uint32)}
	h.buf = append(h.buf, 0x00) // compressed length 0, no terminator byte for the empty entry
	h.byText[""] = 0
	return h
}

// isSpecial reports whether a UTF-16 code unit forces the "has special
// characters" terminator byte to 1.
func isSpecial(u uint16) bool {
	switch {
	case u >= 0x01 && u <= 0x08:
		return true
	case u >= 0x0E && u <= 0x1F:
		return true
	case u == 0x27, u == 0x2D:
		return true
	case u >= 0x7F:
		return true
	default:
		return false
	}
}

func encodeUserString(s string) (payload []byte, terminator byte) {
	units := utf16.Encode([]rune(s))
	w := bin.NewWriter()
	special := false
	for _, u := range units {
		w.WriteU16(u)
		if isSpecial(u) {
			special = true
		}
	}
	if special {
		return w.Bytes(), 1
	}
	return w.Bytes(), 0
}

// GetOrAdd interns s and returns its offset.
func (h *UserStringHeap) GetOrAdd(s string) uint32 {
	if off, ok := h.byText[s]; ok {
		return off
	}
	offset := uint32(len(h.buf))
	payload, terminator := encodeUserString(s)
	w := bin.NewWriter()
	_ = w.WriteCompressedUint(uint32(len(payload) + 1))
	h.buf = append(h.buf, w.Bytes()...)
	h.buf = append(h.buf, payload...)
	h.buf = append(h.buf, terminator)
	h.byText[s] = offset
	return offset
}

// AppendRaw appends s without deduplication and returns its offset.
func (h *UserStringHeap) AppendRaw(s string) uint32 {
	offset := uint32(len(h.buf))
	payload, terminator := encodeUserString(s)
	w := bin.NewWriter()
	_ = w.WriteCompressedUint(uint32(len(payload) + 1))
	h.buf = append(h.buf, w.Bytes()...)
	h.buf = append(h.buf, payload...)
	h.buf = append(h.buf, terminator)
	return offset
}

// TerminatorAt returns the terminator byte stored for the entry at offset,
// used by tests to check the "special characters present" flag directly.
func (h *UserStringHeap) TerminatorAt(offset uint32) (byte, error) {
	r, err := bin.NewReader(h.buf).Slice(int(offset), len(h.buf)-int(offset))
	if err != nil {
		return 0, err
	}
	n, err := r.ReadCompressedUint()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("heap: entry at offset %d is empty and has no terminator", offset)
	}
	body, err := r.ReadBytes(int(n))
	if err != nil {
		return 0, err
	}
	return body[len(body)-1], nil
}

// Get decodes the UTF-16 payload at offset back to a string, discarding the
// terminator byte.
func (h *UserStringHeap) Get(offset uint32) (string, error) {
	r, err := bin.NewReader(h.buf).Slice(int(offset), len(h.buf)-int(offset))
	if err != nil {
		return "", err
	}
	n, err := r.ReadCompressedUint()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	body, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	payload := body[:len(body)-1]
	units := make([]uint16, 0, len(payload)/2)
	for i := 0; i+1 < len(payload); i += 2 {
		units = append(units, uint16(payload[i])|uint16(payload[i+1])<<8)
	}
	return string(utf16.Decode(units)), nil
}

// CreateStream returns the byte blob ready for emission.
func (h *UserStringHeap) CreateStream() []byte {
	return append([]byte(nil), h.buf...)
}

// LoadRaw replaces the heap's contents with an already-encoded #US stream,
// as read back from a parsed metadata directory.
func (h *UserStringHeap) LoadRaw(buf []byte) {
	h.buf = append([]byte(nil), buf...)
}

// Offsets returns the offset of every entry in the heap, in ascending
// order, for callers that want to walk the full contents.
func (h *UserStringHeap) Offsets() []uint32 {
	var offs []uint32
	r := bin.NewReader(h.buf)
	for r.Remaining() > 0 {
		offs = append(offs, uint32(r.Pos()))
		n, err := r.ReadCompressedUint()
		if err != nil {
			break
		}
		if _, err := r.ReadBytes(int(n)); err != nil {
			break
		}
	}
	return offs
}

// Len returns the current physical size of the heap in bytes.
func (h *UserStringHeap) Len() int { return len(h.buf) }
