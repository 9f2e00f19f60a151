// Package bin provides bounded, byte-oriented random access reading and
// writing over an in-memory span, plus the ECMA-335 compressed integer and
// serialised-string primitives the metadata codecs are built on.
package bin

import (
	"encoding/binary"
	"fmt"

	"github.com/clrmeta/clrmeta/errs"
)

// Reader is a bounded cursor over a byte slice. It never reads past its own
// bounds; every primitive read returns errs.ErrEndOfStream on overrun.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data starting at offset 0.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current cursor offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the total length of the underlying span.
func (r *Reader) Len() int { return len(r.data) }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.data) - r.pos }

// Seek repositions the cursor to an absolute offset within bounds.
func (r *Reader) Seek(offset int) error {
	if offset < 0 || offset > len(r.data) {
		return fmt.Errorf("bin: seek offset %d out of range [0,%d]: %w", offset, len(r.data), errs.ErrEndOfStream)
	}
	r.pos = offset
	return nil
}

// Slice returns a bounded sub-reader over [offset, offset+size) without
// disturbing this reader's own cursor.
func (r *Reader) Slice(offset, size int) (*Reader, error) {
	if offset < 0 || size < 0 || offset+size > len(r.data) {
		return nil, fmt.Errorf("bin: slice [%d,%d) exceeds length %d: %w", offset, offset+size, len(r.data), errs.ErrEndOfStream)
	}
	return &Reader{data: r.data[offset : offset+size]}, nil
}

func (r *Reader) take(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("bin: read %d bytes at %d exceeds length %d: %w", n, r.pos, len(r.data), errs.ErrEndOfStream)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	return r.take(n)
}

// ReadU16 reads a little-endian uint16.
func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadU32 reads a little-endian uint32.
func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadU64 reads a little-endian uint64.
func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadCompressedUint reads an ECMA-335 §II.23.2 compressed unsigned integer.
// The discriminator is the top bits of the first byte: 0xxxxxxx -> 1 byte,
// 10xxxxxx -> 2 bytes, 110xxxxx -> 4 bytes; any other high-bit pattern is
// malformed.
func (r *Reader) ReadCompressedUint() (uint32, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch {
	case first&0x80 == 0:
		return uint32(first), nil
	case first&0xC0 == 0x80:
		second, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		return (uint32(first&0x3F) << 8) | uint32(second), nil
	case first&0xE0 == 0xC0:
		rest, err := r.take(3)
		if err != nil {
			return 0, err
		}
		return (uint32(first&0x1F) << 24) | (uint32(rest[0]) << 16) | (uint32(rest[1]) << 8) | uint32(rest[2]), nil
	default:
		return 0, fmt.Errorf("bin: invalid compressed-uint discriminator 0x%02x: %w", first, errs.ErrMalformedCompressedInt)
	}
}

// ReadCompressedInt reads an ECMA-335 §II.23.2 compressed signed integer.
// The underlying compressed-unsigned value is decoded, then the sign bit
// (the original least-significant bit before rotation) is unrotated: the
// value is right-shifted by one and, if the low bit of the original encoding
// was set, negated and offset per the ECMA-335 rotate-right-by-one scheme.
func (r *Reader) ReadCompressedInt() (int32, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	var u uint32
	var width int
	switch {
	case first&0x80 == 0:
		u, width = uint32(first), 1
	case first&0xC0 == 0x80:
		second, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		u, width = (uint32(first&0x3F)<<8)|uint32(second), 2
	case first&0xE0 == 0xC0:
		rest, err := r.take(3)
		if err != nil {
			return 0, err
		}
		u = (uint32(first&0x1F) << 24) | (uint32(rest[0]) << 16) | (uint32(rest[1]) << 8) | uint32(rest[2])
		width = 4
	default:
		return 0, fmt.Errorf("bin: invalid compressed-int discriminator 0x%02x: %w", first, errs.ErrMalformedCompressedInt)
	}
	negative := u&1 != 0
	v := int32(u >> 1)
	if !negative {
		return v, nil
	}
	switch width {
	case 1:
		return v - 0x40, nil
	case 2:
		return v - 0x2000, nil
	default:
		return v - 0x10000000, nil
	}
}

// ReadSerString reads an ECMA-335 "serialised string": a compressed-length
// prefix followed by that many UTF-8 bytes. A length byte of 0xFF denotes a
// null string, returned as ("", true, nil).
func (r *Reader) ReadSerString() (value string, isNull bool, err error) {
	peek, err := r.ReadByte()
	if err != nil {
		return "", false, err
	}
	if peek == 0xFF {
		return "", true, nil
	}
	if err := r.Seek(r.pos - 1); err != nil {
		return "", false, err
	}
	n, err := r.ReadCompressedUint()
	if err != nil {
		return "", false, err
	}
	if n == 0 {
		return "", false, nil
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", false, err
	}
	return string(b), false, nil
}
