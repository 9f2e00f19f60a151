// Package cryptoutil implements the small set of hash derivations the
// metadata object model needs, built on crypto/sha1.
package cryptoutil

import "crypto/sha1"

// PublicKeyToken derives an assembly's 8-byte public key token from its full
// public key blob: the SHA-1 hash of the key is taken, and the last 8 bytes
// of that hash are reversed. An empty key yields an empty token, matching
// AssemblyRef rows that carry no strong name.
func PublicKeyToken(publicKey []byte) []byte {
	if len(publicKey) == 0 {
		return nil
	}
	sum := sha1.Sum(publicKey)
	token := make([]byte, 8)
	for i := 0; i < 8; i++ {
		token[i] = sum[len(sum)-1-i]
	}
	return token
}
