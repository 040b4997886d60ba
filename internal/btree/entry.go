package btree

import (
	"github.com/ovidtal/reldb/internal/alias/bx"
)

// KeyType is the primary-key type indexed by the tree: a 32-bit signed
// integer, matching the engine's INT column type.
type KeyType = int32

const (
	// LeafEntrySize is the fixed size of one leaf entry:
	// 4 bytes key + 4 bytes record offset = 8 bytes.
	LeafEntrySize = 4 + 4

	// InternalEntrySize is 4 bytes key + 4 bytes childPageID = 8 bytes.
	InternalEntrySize = 4 + 4
)

// EncodeLeafEntry encodes (key, offset) into a compact byte slice.
// Layout: [key int32][offset uint32]
func EncodeLeafEntry(key KeyType, offset uint32) []byte {
	buf := make([]byte, LeafEntrySize)
	bx.PutU32(buf[0:4], uint32(key))
	bx.PutU32(buf[4:8], offset)
	return buf
}

// DecodeLeafEntry decodes a leaf entry into (key, offset).
func DecodeLeafEntry(b []byte) (KeyType, uint32) {
	if len(b) < LeafEntrySize {
		return 0, 0
	}
	key := KeyType(bx.U32(b[0:4]))
	offset := bx.U32(b[4:8])
	return key, offset
}

// EncodeInternalEntry encodes (minKey, childPageID).
func EncodeInternalEntry(key KeyType, child uint32) []byte {
	buf := make([]byte, InternalEntrySize)
	bx.PutU32(buf[0:4], uint32(key))
	bx.PutU32(buf[4:8], child)
	return buf
}

// DecodeInternalEntry decodes an internal entry into (key, childPageID).
func DecodeInternalEntry(b []byte) (KeyType, uint32) {
	if len(b) < InternalEntrySize {
		return 0, 0
	}
	key := KeyType(bx.U32(b[0:4]))
	child := bx.U32(b[4:8])
	return key, child
}
