// Package heap implements the four append-only, offset-addressed metadata
// heaps (#Strings, #US, #Blob, #GUID) with content-based interning.
package heap

import (
	"github.com/cespare/xxhash/v2"
)

// contentKey hashes an arbitrary payload for use as an intern-map key. A
// 64-bit xxhash digest is cheap to compute and, combined with the verifying
// byte-equality check every lookup performs on collision, is safe to use as
// a map key even though it is not itself a proof of equality.
func contentKey(payload []byte) uint64 {
	return xxhash.Sum64(payload)
}

// entry pairs an interned payload with its assigned offset, used to verify
// hash-bucket collisions resolve to the correct payload.
type entry struct {
	payload []byte
	offset  uint32
}
