// Package pecontainer locates the CLI header and metadata root inside a PE
// image. It never touches the metadata directory's contents; its only job is
// handing the core a byte range to hand to bin.NewReader.
package pecontainer

import (
	"bytes"
	"debug/pe"
	"fmt"

	"github.com/yalue/elf_reader"

	"github.com/clrmeta/clrmeta/errs"
)

// comDescriptorDirectory is the data directory index carrying the CLI header
// (ECMA-335 §II.25.3.3, PE/COFF's IMAGE_DIRECTORY_ENTRY_COMHEADER).
const comDescriptorDirectory = pe.IMAGE_DIRECTORY_ENTRY_COM_DESCRIPTOR

// cliHeaderSize is the fixed size of the CLI header (IMAGE_COR20_HEADER).
const cliHeaderSize = 72

// MetadataRange is the file-offset span of the `#~`-rooted metadata
// directory inside the source image.
type MetadataRange struct {
	Offset int64
	Size   int64
}

// section is the subset of a PE section header MetadataLocator needs to
// translate an RVA into a file offset.
type section struct {
	virtualAddress uint32
	virtualSize    uint32
	pointerToRaw   uint32
	sizeOfRaw      uint32
}

func (s section) contains(rva uint32) bool {
	return rva >= s.virtualAddress && rva < s.virtualAddress+s.virtualSize
}

func (s section) fileOffset(rva uint32) int64 {
	return int64(s.pointerToRaw) + int64(rva-s.virtualAddress)
}

// MetadataLocator finds the metadata root inside a raw file image, trying
// debug/pe first and falling back to a hand-rolled header walk when the
// standard library's parser rejects a damaged or obfuscated image.
func MetadataLocator(raw []byte) (MetadataRange, error) {
	if isELF(raw) {
		return MetadataRange{}, elfDiagnostic(raw)
	}
	if err := validateDOSHeader(raw); err != nil {
		return MetadataRange{}, err
	}

	if peFile, err := pe.NewFile(bytes.NewReader(raw)); err == nil {
		defer peFile.Close()
		if r, ok := locateViaLibrary(peFile, raw); ok {
			return r, nil
		}
	}

	return locateFromRaw(raw)
}

func validateDOSHeader(raw []byte) error {
	if len(raw) < 64 {
		return fmt.Errorf("pecontainer: file too small to be a PE image: %w", errs.ErrBadImageFormat)
	}
	if raw[0] != 'M' || raw[1] != 'Z' {
		return fmt.Errorf("pecontainer: missing MZ signature: %w", errs.ErrBadImageFormat)
	}
	return nil
}

func isELF(raw []byte) bool {
	return len(raw) >= 4 && raw[0] == 0x7f && raw[1] == 'E' && raw[2] == 'L' && raw[3] == 'F'
}

// elfDiagnostic feeds an ELF image to elf_reader purely to confirm the
// container is well-formed enough to name confidently in the rejection.
func elfDiagnostic(raw []byte) error {
	if _, err := elf_reader.ParseELFFile(raw); err != nil {
		return fmt.Errorf("pecontainer: input has an ELF magic but failed to parse as ELF: %w", errs.ErrBadImageFormat)
	}
	return fmt.Errorf("pecontainer: input is an ELF image; CoreCLR/Mono ELF-hosted metadata is out of scope: %w", errs.ErrBadImageFormat)
}

// locateViaLibrary reads the COM descriptor directory and CLI header using
// debug/pe's parsed optional header and section table.
func locateViaLibrary(peFile *pe.File, raw []byte) (MetadataRange, bool) {
	var dir pe.DataDirectory
	switch oh := peFile.OptionalHeader.(type) {
	case *pe.OptionalHeader32:
		dir = oh.DataDirectory[comDescriptorDirectory]
	case *pe.OptionalHeader64:
		dir = oh.DataDirectory[comDescriptorDirectory]
	default:
		return MetadataRange{}, false
	}
	if dir.VirtualAddress == 0 || dir.Size == 0 {
		return MetadataRange{}, false
	}

	sections := make([]section, 0, len(peFile.Sections))
	for _, s := range peFile.Sections {
		sections = append(sections, section{
			virtualAddress: s.VirtualAddress,
			virtualSize:    s.VirtualSize,
			pointerToRaw:   s.Offset,
			sizeOfRaw:      s.Size,
		})
	}

	return resolveMetadataRange(raw, sections, dir.VirtualAddress)
}

// resolveMetadataRange reads the CLI header at the COM descriptor RVA and
// returns the metadata root's file-offset span.
func resolveMetadataRange(raw []byte, sections []section, comDescriptorRVA uint32) (MetadataRange, bool) {
	headerOffset, ok := rvaToOffset(sections, comDescriptorRVA)
	if !ok || headerOffset+cliHeaderSize > int64(len(raw)) {
		return MetadataRange{}, false
	}

	// IMAGE_COR20_HEADER: cb(4), MajorRuntimeVersion(2), MinorRuntimeVersion(2),
	// MetaData: DataDirectory{VirtualAddress, Size} at offset 8.
	header := raw[headerOffset:]
	metadataRVA := le32(header[8:])
	metadataSize := le32(header[12:])
	if metadataRVA == 0 || metadataSize == 0 {
		return MetadataRange{}, false
	}

	metadataOffset, ok := rvaToOffset(sections, metadataRVA)
	if !ok || metadataOffset+int64(metadataSize) > int64(len(raw)) {
		return MetadataRange{}, false
	}

	return MetadataRange{Offset: metadataOffset, Size: int64(metadataSize)}, true
}

func rvaToOffset(sections []section, rva uint32) (int64, bool) {
	for _, s := range sections {
		if s.contains(rva) {
			return s.fileOffset(rva), true
		}
	}
	return 0, false
}

func le32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
