// Package metadata parses a metadata directory byte stream — the storage
// signature root, its stream headers, and the `#~` table stream — back into
// an in-memory image, mirroring in reverse what package builder emits.
package metadata

import (
	"fmt"

	"github.com/clrmeta/clrmeta/bin"
	"github.com/clrmeta/clrmeta/errs"
	"github.com/clrmeta/clrmeta/model"
	"github.com/clrmeta/clrmeta/schema"
)

const storageSignature = 0x424A5342

type streamHeader struct {
	offset uint32
	size   uint32
	name   string
}

// Load parses a metadata directory (as located by pecontainer.MetadataLocator)
// into a fresh Image whose row store and heaps are backed by the parsed
// bytes, materialising rows lazily on first access.
func Load(root []byte) (*model.Image, error) {
	r := bin.NewReader(root)

	sig, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("metadata: reading storage signature: %w", err)
	}
	if sig != storageSignature {
		return nil, fmt.Errorf("metadata: bad storage signature 0x%08x: %w", sig, errs.ErrBadImageFormat)
	}
	if _, err := r.ReadU16(); err != nil { // major version
		return nil, err
	}
	if _, err := r.ReadU16(); err != nil { // minor version
		return nil, err
	}
	if _, err := r.ReadU32(); err != nil { // reserved
		return nil, err
	}

	versionLen, err := r.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("metadata: reading version string length: %w", err)
	}
	if _, err := r.ReadBytes(int(versionLen)); err != nil {
		return nil, fmt.Errorf("metadata: reading version string: %w", err)
	}
	if _, err := r.ReadU16(); err != nil { // flags
		return nil, err
	}
	streamCount, err := r.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("metadata: reading stream count: %w", err)
	}

	headers := make([]streamHeader, streamCount)
	for i := range headers {
		offset, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		size, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		name, err := readPaddedName(r)
		if err != nil {
			return nil, fmt.Errorf("metadata: reading stream %d name: %w", i, err)
		}
		headers[i] = streamHeader{offset: offset, size: size, name: name}
	}

	img := model.NewImage()
	var tableStreamBytes []byte
	for _, h := range headers {
		body, err := sliceStream(root, h)
		if err != nil {
			return nil, err
		}
		switch h.name {
		case "#~":
			tableStreamBytes = body
		case "#Strings":
			img.Strings.LoadRaw(body)
		case "#US":
			img.UserStrings.LoadRaw(body)
		case "#Blob":
			img.Blobs.LoadRaw(body)
		case "#GUID":
			if err := img.GUIDs.LoadRaw(body); err != nil {
				return nil, fmt.Errorf("metadata: loading #GUID stream: %w", err)
			}
		}
	}
	if tableStreamBytes == nil {
		return nil, fmt.Errorf("metadata: metadata directory has no #~ stream: %w", errs.ErrBadImageFormat)
	}

	if err := loadTableStream(img, tableStreamBytes); err != nil {
		return nil, err
	}
	return img, nil
}

func sliceStream(root []byte, h streamHeader) ([]byte, error) {
	end := int64(h.offset) + int64(h.size)
	if end > int64(len(root)) {
		return nil, fmt.Errorf("metadata: stream %q range [%d,%d) exceeds directory length %d: %w", h.name, h.offset, end, len(root), errs.ErrBadImageFormat)
	}
	return root[h.offset:end], nil
}

// readPaddedName mirrors builder.padStreamName in reverse: read a
// NUL-terminated name, then discard padding bytes up to the next multiple
// of 4 from the start of the field.
func readPaddedName(r *bin.Reader) (string, error) {
	var name []byte
	consumed := 0
	for {
		c, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		consumed++
		if c == 0x00 {
			break
		}
		name = append(name, c)
	}
	for consumed%4 != 0 {
		if _, err := r.ReadByte(); err != nil {
			return "", err
		}
		consumed++
	}
	return string(name), nil
}

// loadTableStream parses the `#~` header and hands each populated table's
// raw row region to the row store for lazy decoding.
func loadTableStream(img *model.Image, data []byte) error {
	r := bin.NewReader(data)
	if _, err := r.ReadU32(); err != nil { // reserved
		return err
	}
	if _, err := r.ReadByte(); err != nil { // major version
		return err
	}
	if _, err := r.ReadByte(); err != nil { // minor version
		return err
	}
	heapSizeFlags, err := r.ReadByte()
	if err != nil {
		return err
	}
	if _, err := r.ReadByte(); err != nil { // reserved2
		return err
	}
	validMask, err := r.ReadU64()
	if err != nil {
		return fmt.Errorf("metadata: reading valid-tables mask: %w", err)
	}
	if _, err := r.ReadU64(); err != nil { // sorted-tables mask, not needed to load rows
		return err
	}

	var populated []schema.TableIndex
	for idx := 0; idx < 64; idx++ {
		if validMask&(uint64(1)<<uint(idx)) != 0 {
			populated = append(populated, schema.TableIndex(idx))
		}
	}

	card := make(schema.Cardinalities, len(populated))
	counts := make(map[schema.TableIndex]int, len(populated))
	for _, idx := range populated {
		n, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("metadata: reading row count for table 0x%02x: %w", byte(idx), err)
		}
		counts[idx] = int(n)
		card[idx] = int(n)
	}

	tables := schema.Tables()
	widths := schema.Compute(tables, card, heapSizesFromFlags(heapSizeFlags))

	for _, idx := range populated {
		sch, ok := tables[idx]
		if !ok {
			return fmt.Errorf("metadata: valid-tables mask names undeclared table 0x%02x: %w", byte(idx), errs.ErrBadImageFormat)
		}
		count := counts[idx]
		colWidths := widths.Columns[idx]
		stride := 0
		for _, c := range sch.Columns {
			stride += colWidths[c.Name]
		}
		chunk, err := r.ReadBytes(stride * count)
		if err != nil {
			return fmt.Errorf("metadata: reading %d rows of %s: %w", count, sch.Name, err)
		}
		if err := img.Rows.LoadRaw(idx, chunk, colWidths, count); err != nil {
			return err
		}
	}
	return nil
}

// heapSizesFromFlags reconstructs a synthetic schema.HeapSizes whose
// Compute-derived flag bits reproduce the flags actually stored in the
// stream, so the same ColumnWidth logic used at write time picks the same
// 2- or 4-byte width for every heap-index column at read time.
func heapSizesFromFlags(flags byte) schema.HeapSizes {
	var hs schema.HeapSizes
	const wide = 0x10001
	if flags&0x01 != 0 {
		hs.Strings = wide
	}
	if flags&0x02 != 0 {
		hs.GUID = wide * 16
	}
	if flags&0x04 != 0 {
		hs.Blob = wide
	}
	return hs
}
