package btree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovidtal/reldb/internal/bufferpool"
	"github.com/ovidtal/reldb/internal/storage"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()

	dir := t.TempDir()
	sm := storage.NewStorageManager()
	fs := storage.LocalFileSet{
		Dir:  dir,
		Base: "idx_test",
	}
	gp := bufferpool.NewGlobalPool(sm, bufferpool.DefaultCapacity)
	bp := gp.View(fs)

	tree := NewTree(sm, fs, bp)
	t.Cleanup(func() { _ = tree.Close() })
	return tree
}

func TestTree_InsertAndSearchEqual(t *testing.T) {
	tree := newTestTree(t)

	for i := KeyType(1); i <= 10; i++ {
		require.NoError(t, tree.Insert(i, uint32(i)*8))
	}

	offs, err := tree.SearchEqual(7)
	require.NoError(t, err)
	require.Equal(t, []uint32{56}, offs)

	offs, err = tree.SearchEqual(999)
	require.NoError(t, err)
	require.Empty(t, offs)
}

func TestTree_InsertAndSearchEqual_Duplicates(t *testing.T) {
	tree := newTestTree(t)

	require.NoError(t, tree.Insert(5, 100))
	require.NoError(t, tree.Insert(5, 200))

	offs, err := tree.SearchEqual(5)
	require.NoError(t, err)
	require.ElementsMatch(t, []uint32{100, 200}, offs)
}

func TestTree_OutOfOrderInsertIsAllowed(t *testing.T) {
	tree := newTestTree(t)

	require.NoError(t, tree.Insert(10, 1))
	require.NoError(t, tree.Insert(5, 2))
	require.NoError(t, tree.Insert(7, 3))

	offs, err := tree.SearchEqual(5)
	require.NoError(t, err)
	require.Equal(t, []uint32{2}, offs)
}

// TestTree_HeightIncreasesWithManyInserts forces enough leaf/internal splits
// for the tree to grow past a single level, and checks that lookups for
// every key (first, middle, last) still resolve correctly afterward.
func TestTree_HeightIncreasesWithManyInserts(t *testing.T) {
	tree := newTestTree(t)

	const n = 2000
	for i := KeyType(1); i <= n; i++ {
		require.NoError(t, tree.Insert(i, uint32(i)))
	}

	require.GreaterOrEqual(t, tree.Height, 2)

	for _, k := range []KeyType{1, 500, 1000, n} {
		offs, err := tree.SearchEqual(k)
		require.NoError(t, err)
		require.Equal(t, []uint32{uint32(k)}, offs)
	}
}

func TestTree_CloseAndReopenPersistsMeta(t *testing.T) {
	dir := t.TempDir()
	sm := storage.NewStorageManager()
	fs := storage.LocalFileSet{
		Dir:  dir,
		Base: "idx_reopen",
	}
	gp := bufferpool.NewGlobalPool(sm, bufferpool.DefaultCapacity)
	bp := gp.View(fs)

	tree := NewTree(sm, fs, bp)
	const n = 500
	for i := KeyType(1); i <= n; i++ {
		require.NoError(t, tree.Insert(i, uint32(i)))
	}
	require.NoError(t, tree.Close())

	reopened, err := OpenTree(sm, fs, bp)
	require.NoError(t, err)
	require.Equal(t, tree.Root, reopened.Root)
	require.Equal(t, tree.Height, reopened.Height)

	offs, err := reopened.SearchEqual(250)
	require.NoError(t, err)
	require.Equal(t, []uint32{250}, offs)
}
