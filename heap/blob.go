package heap

import (
	"bytes"

	"github.com/clrmeta/clrmeta/bin"
)

// BlobHeap is the #Blob heap: length-prefixed arbitrary byte payloads,
// interned by raw content. Offset 0 is the pre-seeded empty entry.
type BlobHeap struct {
	buf    []byte
	byHash map[uint64][]entry
}

// NewBlobHeap returns a heap with the empty payload pre-seeded at offset 0.
func NewBlobHeap() *BlobHeap {
	h := &BlobHeap{byHash: make(map[uint64][]entry)}
	h.buf = append(h.buf, 0x00) // compressed length 0 == empty blob
	h.byHash[contentKey(nil)] = []entry{{payload: nil, offset: 0}}
	return h
}

// GetOrAdd interns payload by content and returns its offset. Repeated
// inserts of byte-identical content return the same offset.
func (h *BlobHeap) GetOrAdd(payload []byte) uint32 {
	key := contentKey(payload)
	for _, e := range h.byHash[key] {
		if bytes.Equal(e.payload, payload) {
			return e.offset
		}
	}
	offset := uint32(len(h.buf))
	w := bin.NewWriter()
	_ = w.WriteCompressedUint(uint32(len(payload)))
	h.buf = append(h.buf, w.Bytes()...)
	h.buf = append(h.buf, payload...)
	h.byHash[key] = append(h.byHash[key], entry{payload: append([]byte(nil), payload...), offset: offset})
	return offset
}

// AppendRaw appends payload without deduplication and returns its offset.
// The raw slot is deliberately not indexed by the intern map, so a later
// GetOrAdd of the same bytes never returns this offset.
func (h *BlobHeap) AppendRaw(payload []byte) uint32 {
	offset := uint32(len(h.buf))
	w := bin.NewWriter()
	_ = w.WriteCompressedUint(uint32(len(payload)))
	h.buf = append(h.buf, w.Bytes()...)
	h.buf = append(h.buf, payload...)
	return offset
}

// Get returns the payload stored at offset, without its length prefix.
func (h *BlobHeap) Get(offset uint32) ([]byte, error) {
	r, err := bin.NewReader(h.buf).Slice(int(offset), len(h.buf)-int(offset))
	if err != nil {
		return nil, err
	}
	n, err := r.ReadCompressedUint()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(int(n))
}

// CreateStream returns the byte blob ready for emission into the #Blob
// stream of the metadata directory.
func (h *BlobHeap) CreateStream() []byte {
	return append([]byte(nil), h.buf...)
}

// LoadRaw replaces the heap's contents with an already-encoded #Blob
// stream, as read back from a parsed metadata directory.
func (h *BlobHeap) LoadRaw(buf []byte) {
	h.buf = append([]byte(nil), buf...)
}

// Offsets returns the offset of every entry in the heap, in ascending
// order, for callers that want to walk the full contents.
func (h *BlobHeap) Offsets() []uint32 {
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
func (h *BlobHeap) Len() int { return len(h.buf) }
