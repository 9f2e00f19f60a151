package pecontainer

import (
	"fmt"

	"github.com/clrmeta/clrmeta/errs"
)

// locateFromRaw walks the DOS/COFF/optional headers and section table by
// hand, for images debug/pe.NewFile rejects (truncated string tables,
// obfuscated headers, packers). It mirrors just enough of the same walk to
// find the COM descriptor directory and the CLI header it points at.
func locateFromRaw(raw []byte) (MetadataRange, error) {
	peOffset := int(le32(raw[60:64]))
	if peOffset < 0 || peOffset+24 >= len(raw) {
		return MetadataRange{}, fmt.Errorf("pecontainer: invalid PE header offset: %w", errs.ErrBadImageFormat)
	}
	if string(raw[peOffset:peOffset+4]) != "PE\x00\x00" {
		return MetadataRange{}, fmt.Errorf("pecontainer: missing PE signature: %w", errs.ErrBadImageFormat)
	}

	numSections := int(raw[peOffset+6]) | int(raw[peOffset+7])<<8
	optHeaderSize := int(raw[peOffset+20]) | int(raw[peOffset+21])<<8
	optHeaderOffset := peOffset + 24
	if optHeaderOffset+optHeaderSize > len(raw) || optHeaderSize < 96 {
		return MetadataRange{}, fmt.Errorf("pecontainer: optional header truncated: %w", errs.ErrBadImageFormat)
	}

	magic := uint16(raw[optHeaderOffset]) | uint16(raw[optHeaderOffset+1])<<8
	var dataDirOffset int
	switch magic {
	case 0x10b: // PE32
		dataDirOffset = optHeaderOffset + 96
	case 0x20b: // PE32+
		dataDirOffset = optHeaderOffset + 112
	default:
		return MetadataRange{}, fmt.Errorf("pecontainer: unrecognized optional header magic 0x%x: %w", magic, errs.ErrBadImageFormat)
	}

	comDirOffset := dataDirOffset + comDescriptorDirectory*8
	if comDirOffset+8 > len(raw) {
		return MetadataRange{}, fmt.Errorf("pecontainer: COM descriptor directory entry beyond optional header: %w", errs.ErrBadImageFormat)
	}
	comDescriptorRVA := le32(raw[comDirOffset:])
	if comDescriptorRVA == 0 {
		return MetadataRange{}, fmt.Errorf("pecontainer: image has no CLI header: %w", errs.ErrBadImageFormat)
	}

	sectionHeadersOffset := optHeaderOffset + optHeaderSize
	sections, err := readSectionsFromRaw(raw, sectionHeadersOffset, numSections)
	if err != nil {
		return MetadataRange{}, err
	}

	r, ok := resolveMetadataRange(raw, sections, comDescriptorRVA)
	if !ok {
		return MetadataRange{}, fmt.Errorf("pecontainer: could not resolve metadata root RVA to a file offset: %w", errs.ErrBadImageFormat)
	}
	return r, nil
}

func readSectionsFromRaw(raw []byte, headersOffset, numSections int) ([]section, error) {
	if headersOffset+numSections*40 > len(raw) {
		return nil, fmt.Errorf("pecontainer: section headers extend beyond file: %w", errs.ErrBadImageFormat)
	}
	sections := make([]section, 0, numSections)
	for i := 0; i < numSections; i++ {
		off := headersOffset + i*40
		sections = append(sections, section{
			virtualSize:    le32(raw[off+8:]),
			virtualAddress: le32(raw[off+12:]),
			sizeOfRaw:      le32(raw[off+16:]),
			pointerToRaw:   le32(raw[off+20:]),
		})
	}
	return sections, nil
}
