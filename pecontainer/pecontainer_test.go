package pecontainer

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clrmeta/clrmeta/errs"
)

// buildMinimalPE32 assembles the smallest PE32 image MetadataLocator can
// resolve: a DOS header, a COFF header, an optional header with a populated
// COM descriptor directory, one .text section, and a CLI header plus a
// metadata blob living inside that section.
func buildMinimalPE32(t *testing.T, metadataBlob []byte) []byte {
	t.Helper()

	const (
		peOffset       = 0x80
		numDataDirs    = 16
		optHeaderSize  = 96 + numDataDirs*8
		coffHeaderSize = 20
		sectionHdrSize = 40
		sectionRVA     = 0x2000
		sectionFileOff = 0x400
		cliHeaderRVA   = sectionRVA
		metadataRVA    = sectionRVA + cliHeaderSize
	)

	sectionHeadersOffset := peOffset + 4 + coffHeaderSize + optHeaderSize
	sectionSize := cliHeaderSize + len(metadataBlob)
	fileSize := sectionFileOff + sectionSize
	if pad := sectionHeadersOffset + sectionHdrSize; pad > fileSize {
		fileSize = pad
	}

	raw := make([]byte, fileSize)
	raw[0], raw[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(raw[60:], uint32(peOffset))

	copy(raw[peOffset:], "PE\x00\x00")
	coff := raw[peOffset+4:]
	binary.LittleEndian.PutUint16(coff[0:], 0x014c) // i386
	binary.LittleEndian.PutUint16(coff[2:], 1)       // NumberOfSections
	binary.LittleEndian.PutUint16(coff[16:], uint16(optHeaderSize))

	opt := raw[peOffset+4+coffHeaderSize:]
	binary.LittleEndian.PutUint16(opt[0:], 0x10b) // PE32 magic
	dataDirOffset := 96
	comDirOffset := dataDirOffset + comDescriptorDirectory*8
	binary.LittleEndian.PutUint32(opt[comDirOffset:], uint32(cliHeaderRVA))
	binary.LittleEndian.PutUint32(opt[comDirOffset+4:], uint32(cliHeaderSize))

	sectionHdr := raw[sectionHeadersOffset:]
	copy(sectionHdr[0:8], ".text\x00\x00\x00")
	binary.LittleEndian.PutUint32(sectionHdr[8:], uint32(sectionSize))   // VirtualSize
	binary.LittleEndian.PutUint32(sectionHdr[12:], uint32(sectionRVA))   // VirtualAddress
	binary.LittleEndian.PutUint32(sectionHdr[16:], uint32(sectionSize))  // SizeOfRawData
	binary.LittleEndian.PutUint32(sectionHdr[20:], uint32(sectionFileOff))

	cliHeader := raw[sectionFileOff:]
	binary.LittleEndian.PutUint32(cliHeader[0:], cliHeaderSize) // cb
	binary.LittleEndian.PutUint32(cliHeader[8:], uint32(metadataRVA))
	binary.LittleEndian.PutUint32(cliHeader[12:], uint32(len(metadataBlob)))

	copy(raw[sectionFileOff+cliHeaderSize:], metadataBlob)

	return raw
}

func TestMetadataLocatorFindsMetadataRoot(t *testing.T) {
	blob := []byte("BSJB-fake-metadata-directory")
	raw := buildMinimalPE32(t, blob)

	r, err := MetadataLocator(raw)
	require.NoError(t, err)
	require.Equal(t, int64(len(blob)), r.Size)
	require.Equal(t, blob, raw[r.Offset:r.Offset+r.Size])
}

func TestMetadataLocatorRejectsMissingMZSignature(t *testing.T) {
	_, err := MetadataLocator(make([]byte, 128))
	require.ErrorIs(t, err, errs.ErrBadImageFormat)
}

func TestMetadataLocatorNamesELFContainers(t *testing.T) {
	raw := []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0}
	_, err := MetadataLocator(raw)
	require.ErrorIs(t, err, errs.ErrBadImageFormat)
	require.Contains(t, err.Error(), "ELF")
}
