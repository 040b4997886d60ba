package btree

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/ovidtal/reldb/internal/storage"
)

// LeafNode is a thin wrapper around storage.Page for leaf-level index entries.
type LeafNode struct {
	Page *storage.Page
}

func (n *LeafNode) NumKeys() int { return n.Page.NumSlots() }

func (n *LeafNode) EntryAt(i int) (KeyType, uint32, error) {
	data, err := n.Page.ReadTuple(i)
	if err != nil {
		return 0, 0, err
	}
	key, offset := DecodeLeafEntry(data)
	return key, offset, nil
}

func (n *LeafNode) AppendEntry(key KeyType, offset uint32) error {
	data := EncodeLeafEntry(key, offset)
	slot, err := n.Page.InsertTuple(data)
	if err == nil {
		slog.Debug("btree.leaf.append", "pageID", n.Page.PageID(), "key", key, "offset", offset, "slot", slot)
	}
	return err
}

type leafEntry struct {
	key    KeyType
	offset uint32
}

// readEntries reads entries in physical slot order (no sorting).
func (n *LeafNode) readEntries() ([]leafEntry, error) {
	num := n.NumKeys()
	out := make([]leafEntry, 0, num)
	for i := range num {
		k, off, err := n.EntryAt(i)
		if err != nil {
			return nil, err
		}
		out = append(out, leafEntry{key: k, offset: off})
	}
	return out, nil
}

func sortLeafEntries(entries []leafEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].key != entries[j].key {
			return entries[i].key < entries[j].key
		}
		return entries[i].offset < entries[j].offset
	})
}

func (n *LeafNode) entriesSorted() ([]leafEntry, error) {
	entries, err := n.readEntries()
	if err != nil {
		return nil, err
	}
	sortLeafEntries(entries)
	return entries, nil
}

func lowerBoundSorted(entries []leafEntry, target KeyType) int {
	lo, hi := 0, len(entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if entries[mid].key < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// FindEqual returns every offset stored under key, in no particular order
// beyond insertion (§4.3).
func (n *LeafNode) FindEqual(key KeyType) ([]uint32, error) {
	var out []uint32
	entries, err := n.entriesSorted()
	if err != nil {
		return nil, err
	}
	start := lowerBoundSorted(entries, key)
	for i := start; i < len(entries); i++ {
		if entries[i].key != key {
			break
		}
		out = append(out, entries[i].offset)
	}
	return out, nil
}

// rebuildSorted rewrites the whole leaf page in-place in sorted physical
// order. Used both for ordinary maintenance and as half of a leaf split.
func (n *LeafNode) rebuildSorted(entries []leafEntry) error {
	sortLeafEntries(entries)
	n.Page.Reset(n.Page.PageID())
	n.Page.SetFlags(NodeKindLeaf)
	for _, e := range entries {
		if err := n.AppendEntry(e.key, e.offset); err != nil {
			return err
		}
	}
	return nil
}

func (n *LeafNode) DebugDump() string {
	s := "LeafNode{"
	for i := range n.Page.NumSlots() {
		k, off, err := n.EntryAt(i)
		if err != nil {
			s += fmt.Sprintf(" [err: %v]", err)
			continue
		}
		s += fmt.Sprintf(" (%d -> %d)", k, off)
	}
	s += " }"
	return s
}
