package btree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeLeafEntry(t *testing.T) {
	key := KeyType(42)
	offset := uint32(4096)

	b := EncodeLeafEntry(key, offset)
	require.Len(t, b, LeafEntrySize)

	k2, off2 := DecodeLeafEntry(b)
	require.Equal(t, key, k2)
	require.Equal(t, offset, off2)
}

func TestEncodeDecodeInternalEntry(t *testing.T) {
	key := KeyType(-7)
	child := uint32(9)

	b := EncodeInternalEntry(key, child)
	require.Len(t, b, InternalEntrySize)

	k2, c2 := DecodeInternalEntry(b)
	require.Equal(t, key, k2)
	require.Equal(t, child, c2)
}
