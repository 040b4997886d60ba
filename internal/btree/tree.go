package btree

import (
	"math"

	"github.com/ovidtal/reldb/internal/bufferpool"
	"github.com/ovidtal/reldb/internal/storage"
)

// NodeKind is tagged via Page.Flags(); the zero value (NodeKindLeaf) is also
// what a freshly zero-filled page defaults to, so newly allocated pages are
// leaves until explicitly marked otherwise.
const (
	NodeKindLeaf     uint16 = 0
	NodeKindInternal uint16 = 1
)

// Tree is a disk-backed B+Tree keyed by KeyType (int32), mapping each key to
// a record-offset value. Internal nodes route by minimum key of each child
// subtree; leaves hold (key, offset) pairs and may contain duplicate keys,
// tolerating the rebuild protocol described in §4.5 even though INSERT at
// the table-store layer refuses to create true primary-key duplicates.
type Tree struct {
	SM *storage.StorageManager
	FS storage.FileSet
	BP bufferpool.Manager

	Root       uint32
	Height     int
	nextPageID uint32

	metaPath    string
	metaEnabled bool
}

var _ Index = (*Tree)(nil)

// NewTree creates a fresh (empty) Tree handle bound to fs. The root page is
// lazily initialized as a leaf on first use.
func NewTree(sm *storage.StorageManager, fs storage.FileSet, bp bufferpool.Manager) *Tree {
	t := &Tree{SM: sm, FS: fs, BP: bp, Root: 0, Height: 1, nextPageID: 1}
	if path, ok := metaPathForFileSet(fs); ok {
		t.metaPath = path
		t.metaEnabled = true
	}
	return t
}

// OpenTree loads persisted tree metadata (root/height/next page id) if
// present, or behaves like NewTree when the index file is absent, per §4.3's
// `open(path)` contract.
func OpenTree(sm *storage.StorageManager, fs storage.FileSet, bp bufferpool.Manager) (*Tree, error) {
	t := NewTree(sm, fs, bp)
	m, found, err := t.loadMeta()
	if err != nil {
		return nil, err
	}
	if found {
		t.Root = m.Root
		t.Height = m.Height
		t.nextPageID = m.NextPageID
	}
	return t, nil
}

func (t *Tree) allocatePage() uint32 {
	id := t.nextPageID
	t.nextPageID++
	return id
}

// Insert adds a (key, offset) mapping, splitting full nodes bottom-up
// (leaf first, promoting a separator into the parent, and growing a new root
// when the old root splits).
func (t *Tree) Insert(key KeyType, offset uint32) error {
	promoted, right, split, err := t.insertInto(t.Root, t.Height, key, offset)
	if err != nil {
		return err
	}
	if split {
		newRootID := t.allocatePage()
		page, err := t.BP.GetPage(newRootID)
		if err != nil {
			return err
		}
		page.SetFlags(NodeKindInternal)
		node := &InternalNode{Page: page}
		if err := node.AppendEntry(math.MinInt32, t.Root); err != nil {
			_ = t.BP.Unpin(page, false)
			return err
		}
		if err := node.AppendEntry(promoted, right); err != nil {
			_ = t.BP.Unpin(page, false)
			return err
		}
		if err := t.BP.Unpin(page, true); err != nil {
			return err
		}
		t.Root = newRootID
		t.Height++
	}
	return t.saveMeta()
}

// insertInto descends to the leaf responsible for key, inserts, and splits
// any node (leaf or internal) that overflows its page capacity, propagating
// a (promotedKey, rightPageID) pair back up to the caller when a split
// occurred at this level.
func (t *Tree) insertInto(pageID uint32, height int, key KeyType, offset uint32) (KeyType, uint32, bool, error) {
	page, err := t.BP.GetPage(pageID)
	if err != nil {
		return 0, 0, false, err
	}

	if height == 1 {
		promoted, right, split, err := t.insertLeaf(page, key, offset)
		if uerr := t.BP.Unpin(page, err == nil); uerr != nil && err == nil {
			err = uerr
		}
		return promoted, right, split, err
	}

	node := &InternalNode{Page: page}
	_, child, err := node.findChildIndex(key)
	if err != nil {
		_ = t.BP.Unpin(page, false)
		return 0, 0, false, err
	}

	childPromoted, childRight, childSplit, err := t.insertInto(child, height-1, key, offset)
	if err != nil {
		_ = t.BP.Unpin(page, false)
		return 0, 0, false, err
	}
	if !childSplit {
		_ = t.BP.Unpin(page, false)
		return 0, 0, false, nil
	}

	promoted, right, split, err := t.insertInternalEntry(page, childPromoted, childRight)
	if uerr := t.BP.Unpin(page, err == nil); uerr != nil && err == nil {
		err = uerr
	}
	return promoted, right, split, err
}

func (t *Tree) insertLeaf(page *storage.Page, key KeyType, offset uint32) (KeyType, uint32, bool, error) {
	leaf := &LeafNode{Page: page}
	entries, err := leaf.readEntries()
	if err != nil {
		return 0, 0, false, err
	}
	entries = append(entries, leafEntry{key: key, offset: offset})
	sortLeafEntries(entries)

	if len(entries) <= maxLeafEntriesPerPage() {
		if err := leaf.rebuildSorted(entries); err != nil {
			return 0, 0, false, err
		}
		return 0, 0, false, nil
	}

	mid := len(entries) / 2
	left, right := entries[:mid], entries[mid:]

	if err := leaf.rebuildSorted(left); err != nil {
		return 0, 0, false, err
	}

	rightID := t.allocatePage()
	rightPage, err := t.BP.GetPage(rightID)
	if err != nil {
		return 0, 0, false, err
	}
	rightLeaf := &LeafNode{Page: rightPage}
	if err := rightLeaf.rebuildSorted(right); err != nil {
		_ = t.BP.Unpin(rightPage, false)
		return 0, 0, false, err
	}
	if err := t.BP.Unpin(rightPage, true); err != nil {
		return 0, 0, false, err
	}

	return right[0].key, rightID, true, nil
}

func (t *Tree) insertInternalEntry(page *storage.Page, key KeyType, child uint32) (KeyType, uint32, bool, error) {
	node := &InternalNode{Page: page}
	entries, err := node.readEntries()
	if err != nil {
		return 0, 0, false, err
	}
	entries = append(entries, internalEntry{key: key, child: child})
	sortInternalEntries(entries)

	if len(entries) <= maxInternalEntriesPerPage() {
		if err := rebuildInternalSorted(node, entries); err != nil {
			return 0, 0, false, err
		}
		return 0, 0, false, nil
	}

	mid := len(entries) / 2
	left, right := entries[:mid], entries[mid:]

	if err := rebuildInternalSorted(node, left); err != nil {
		return 0, 0, false, err
	}

	rightID := t.allocatePage()
	rightPage, err := t.BP.GetPage(rightID)
	if err != nil {
		return 0, 0, false, err
	}
	rightNode := &InternalNode{Page: rightPage}
	rightPage.SetFlags(NodeKindInternal)
	if err := rebuildInternalSorted(rightNode, right); err != nil {
		_ = t.BP.Unpin(rightPage, false)
		return 0, 0, false, err
	}
	if err := t.BP.Unpin(rightPage, true); err != nil {
		return 0, 0, false, err
	}

	return right[0].key, rightID, true, nil
}

func rebuildInternalSorted(n *InternalNode, entries []internalEntry) error {
	sortInternalEntries(entries)
	n.Page.Reset(n.Page.PageID())
	n.Page.SetFlags(NodeKindInternal)
	for _, e := range entries {
		if err := n.AppendEntry(e.key, e.child); err != nil {
			return err
		}
	}
	return nil
}

// SearchEqual returns every offset stored under key.
func (t *Tree) SearchEqual(key KeyType) ([]uint32, error) {
	pageID := t.Root
	for height := t.Height; height > 1; height-- {
		page, err := t.BP.GetPage(pageID)
		if err != nil {
			return nil, err
		}
		node := &InternalNode{Page: page}
		_, child, err := node.findChildIndex(key)
		_ = t.BP.Unpin(page, false)
		if err != nil {
			return nil, err
		}
		pageID = child
	}

	page, err := t.BP.GetPage(pageID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = t.BP.Unpin(page, false) }()

	leaf := &LeafNode{Page: page}
	return leaf.FindEqual(key)
}

// Close flushes every dirty page touched by this tree's buffer manager and
// persists tree metadata, satisfying §4.3's "destructor/close flushes".
func (t *Tree) Close() error {
	if err := t.BP.FlushAll(); err != nil {
		return err
	}
	return t.saveMeta()
}
