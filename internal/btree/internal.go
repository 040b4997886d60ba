package btree

import (
	"log/slog"

	"github.com/ovidtal/reldb/internal/storage"
)

// InternalNode is a thin wrapper around a page used as an internal B+Tree node.
// Each entry encodes (minKey, childPageID).
//
// Semantics:
//
//   - For each child subtree we store: minKey(child), childPageID.
//
//   - Entries are kept in ascending order of minKey.
//
//   - To choose a child for search key K:
//
//     Let entries be e[0..n-1], with e[i] = (minKey_i, child_i).
//
//     For i in 0..n-2:
//     if K < minKey_{i+1}:
//     return child_i
//     return child_{n-1}
//
//   - minKey_0 is never compared against (it is the subtree covering
//     "everything less than minKey_1"); callers may leave it as a
//     placeholder.
type InternalNode struct {
	Page *storage.Page
}

func (n *InternalNode) NumKeys() int { return n.Page.NumSlots() }

func (n *InternalNode) EntryAt(i int) (KeyType, uint32, error) {
	data, err := n.Page.ReadTuple(i)
	if err != nil {
		return 0, 0, err
	}
	key, child := DecodeInternalEntry(data)
	return key, child, nil
}

func (n *InternalNode) AppendEntry(key KeyType, child uint32) error {
	data := EncodeInternalEntry(key, child)
	slot, err := n.Page.InsertTuple(data)
	if err == nil {
		slog.Debug("btree.internal.append",
			"pageID", n.Page.PageID(), "key", key, "child", child, "slot", slot)
	}
	return err
}

type internalEntry struct {
	key   KeyType
	child uint32
}

func (n *InternalNode) readEntries() ([]internalEntry, error) {
	num := n.NumKeys()
	out := make([]internalEntry, 0, num)
	for i := range num {
		k, c, err := n.EntryAt(i)
		if err != nil {
			return nil, err
		}
		out = append(out, internalEntry{key: k, child: c})
	}
	return out, nil
}

func sortInternalEntries(entries []internalEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j-1].key > entries[j].key; j-- {
			entries[j-1], entries[j] = entries[j], entries[j-1]
		}
	}
}

// findChildIndex returns (index, childPageID) for a given search key using
// the "minKey" semantics described in the type comment above.
func (n *InternalNode) findChildIndex(key KeyType) (int, uint32, error) {
	num := n.NumKeys()
	if num == 0 {
		return 0, 0, ErrCorruptNode
	}
	entries, err := n.readEntries()
	if err != nil {
		return 0, 0, err
	}
	sortInternalEntries(entries)

	for i := 0; i < len(entries)-1; i++ {
		if key < entries[i+1].key {
			return i, entries[i].child, nil
		}
	}
	last := len(entries) - 1
	return last, entries[last].child, nil
}
