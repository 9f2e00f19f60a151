package cryptoutil

import (
	"crypto/sha1"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublicKeyTokenIsReversedTrailingHashBytes(t *testing.T) {
	key := []byte("a fake strong-name public key blob")
	got := PublicKeyToken(key)
	require.Len(t, got, 8)

	sum := sha1.Sum(key)
	want := make([]byte, 8)
	for i := 0; i < 8; i++ {
		want[i] = sum[len(sum)-1-i]
	}
	require.Equal(t, want, got)
}

func TestPublicKeyTokenEmptyKey(t *testing.T) {
	require.Nil(t, PublicKeyToken(nil))
}
