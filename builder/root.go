package builder

import (
	"github.com/clrmeta/clrmeta/bin"
)

// storageSignature is the four magic bytes ("BSJB") every CLI metadata root
// begins with (ECMA-335 §II.24.2.1).
const storageSignature = 0x424A5342

const (
	rootMajorVersion = 1
	rootMinorVersion = 1
)

// metadataVersionString is the runtime-version string embedded in the root.
// Real assemblies name the CLR they were built for; a rebuilt image carries
// this fixed marker since no source runtime version survives into the
// object model.
const metadataVersionString = "v4.0.30319"

// namedStream pairs a stream's ECMA-335 name with its already-serialized body.
type namedStream struct {
	name string
	body []byte
}

// writeMetadataRoot assembles the storage-signature header, version string,
// stream-headers table, and concatenated stream bodies into one metadata
// directory byte stream (ECMA-335 §II.24.2.1-2).
func writeMetadataRoot(streams []namedStream) ([]byte, error) {
	w := bin.NewWriter()
	w.WriteU32(storageSignature)
	w.WriteU16(rootMajorVersion)
	w.WriteU16(rootMinorVersion)
	w.WriteU32(0) // reserved

	version := padStreamName(metadataVersionString)
	w.WriteU32(uint32(len(version)))
	w.WriteBytes(version)

	w.WriteU16(0) // flags, reserved
	w.WriteU16(uint16(len(streams)))

	offset := headersSize(streams, w.Offset())
	for _, s := range streams {
		w.WriteU32(uint32(offset))
		w.WriteU32(uint32(len(s.body)))
		w.WriteBytes(padStreamName(s.name))
		offset += len(s.body)
	}

	for _, s := range streams {
		w.WriteBytes(s.body)
	}

	return w.Bytes(), nil
}

// headersSize computes where the first stream body lands: right after the
// stream-headers table that follows the writer's current offset.
func headersSize(streams []namedStream, afterHeader int) int {
	size := afterHeader
	for _, s := range streams {
		size += 8 + len(padStreamName(s.name))
	}
	return size
}
