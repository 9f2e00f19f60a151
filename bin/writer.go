package bin

import (
	"encoding/binary"
	"fmt"
)

// Writer accumulates bytes into a growable buffer while tracking a running
// offset, an append-only sink rather than an in-place patch.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Bytes returns the accumulated buffer.
func (w *Writer) Bytes() []byte { return w.buf }

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int { return len(w.buf) }

// WriteByte appends a single byte.
func (w *Writer) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

// WriteBytes appends raw bytes verbatim.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteU16 appends a little-endian uint16.
func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteU32 appends a little-endian uint32.
func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteU64 appends a little-endian uint64.
func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// WriteIndex appends a table/heap/coded index value at the given width (2 or
// 4 bytes), the width having already been frozen by the schema encoder.
func (w *Writer) WriteIndex(v uint32, width int) error {
	switch width {
	case 2:
		if v > 0xFFFF {
			return fmt.Errorf("bin: index value %d does not fit in 2 bytes", v)
		}
		w.WriteU16(uint16(v))
	case 4:
		w.WriteU32(v)
	default:
		return fmt.Errorf("bin: unsupported index width %d", width)
	}
	return nil
}

// CompressedUintSize returns the number of bytes WriteCompressedUint would
// emit for v, without emitting them. Used by the builder and signature codec
// to size blobs before committing widths.
func CompressedUintSize(v uint32) int {
	switch {
	case v <= 0x7F:
		return 1
	case v <= 0x3FFF:
		return 2
	default:
		return 4
	}
}

// WriteCompressedUint emits an ECMA-335 §II.23.2 compressed unsigned integer.
func (w *Writer) WriteCompressedUint(v uint32) error {
	switch {
	case v <= 0x7F:
		return w.WriteByte(byte(v))
	case v <= 0x3FFF:
		w.WriteByte(byte(0x80 | (v >> 8)))
		return w.WriteByte(byte(v))
	case v <= 0x1FFFFFFF:
		w.WriteU32ForCompressed(v)
		return nil
	default:
		return fmt.Errorf("bin: value %d too large for a compressed unsigned integer", v)
	}
}

// WriteU32ForCompressed emits the 4-byte compressed-uint encoding of v
// (v must already be known to fit 0x1FFFFFFF; split out so WriteCompressedUint
// stays a single dispatch point).
func (w *Writer) WriteU32ForCompressed(v uint32) {
	w.WriteByte(byte(0xC0 | (v >> 24)))
	w.WriteByte(byte(v >> 16))
	w.WriteByte(byte(v >> 8))
	w.WriteByte(byte(v))
}

// CompressedIntSize returns the byte width WriteCompressedInt would use for v:
// 1 byte for -2^6..2^6-1, 2 bytes for -2^13..2^13-1, 4 bytes otherwise.
func CompressedIntSize(v int32) int {
	switch {
	case v >= -0x40 && v < 0x40:
		return 1
	case v >= -0x2000 && v < 0x2000:
		return 2
	}
	return 4
}

// WriteCompressedInt emits an ECMA-335 §II.23.2 compressed signed integer:
// the width is chosen from the signed range v falls in (see
// CompressedIntSize), and the value is rotated left by one bit within that
// width (sign bit moved to bit 0) and written with the matching
// compressed-unsigned prefix.
func (w *Writer) WriteCompressedInt(v int32) error {
	u := rotateSignedToUnsigned(v)
	switch size := CompressedIntSize(v); {
	case size == 2:
		w.WriteByte(byte(0x80 | (u >> 8)))
		return w.WriteByte(byte(u))
	case size == 4 && u <= 0x1FFFFFFF:
		w.WriteU32ForCompressed(u)
		return nil
	}
	return w.WriteCompressedUint(u)
}

func rotateSignedToUnsigned(v int32) uint32 {
	if v >= 0 {
		return uint32(v) << 1
	}
	switch {
	case v >= -0x40:
		return (uint32(v+0x40) << 1) | 1
	case v >= -0x2000:
		return (uint32(v+0x2000) << 1) | 1
	default:
		return (uint32(v+0x10000000) << 1) | 1
	}
}

// WriteSerString emits an ECMA-335 "serialised string": a compressed length
// followed by the UTF-8 bytes. Passing isNull writes the single 0xFF marker.
func (w *Writer) WriteSerString(value string, isNull bool) error {
	if isNull {
		return w.WriteByte(0xFF)
	}
	if err := w.WriteCompressedUint(uint32(len(value))); err != nil {
		return err
	}
	w.WriteBytes([]byte(value))
	return nil
}

// SerStringSize returns the byte length WriteSerString would emit for value.
func SerStringSize(value string, isNull bool) int {
	if isNull {
		return 1
	}
	return CompressedUintSize(uint32(len(value))) + len(value)
}
