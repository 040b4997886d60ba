package table

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovidtal/reldb/internal/bufferpool"
	"github.com/ovidtal/reldb/internal/record"
	"github.com/ovidtal/reldb/internal/storage"
	"github.com/ovidtal/reldb/internal/value"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dir := t.TempDir()
	sm := storage.NewStorageManager()
	gp := bufferpool.NewGlobalPool(sm, bufferpool.DefaultCapacity)

	idxFS := storage.LocalFileSet{Dir: dir, Base: "u_idx"}
	bp := gp.View(idxFS)

	schema := record.Schema{
		Table: "u",
		Columns: []record.Column{
			{Name: "id", Kind: value.KindInt, PrimaryKey: true},
			{Name: "name", Kind: value.KindString, Length: 16},
		},
	}

	s, err := Open(schema, filepath.Join(dir, "u.dat"), sm, idxFS, bp)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_InsertAndLookup(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Insert(record.Row{"id": value.Int(1), "name": value.String("alice")}))
	require.NoError(t, s.Insert(record.Row{"id": value.Int(2), "name": value.String("bob")}))

	rows, err := s.Lookup(2)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, value.String("bob"), rows[0]["name"])
}

func TestStore_InsertRejectsDuplicatePrimaryKey(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Insert(record.Row{"id": value.Int(1), "name": value.String("alice")}))
	err := s.Insert(record.Row{"id": value.Int(1), "name": value.String("again")})
	require.ErrorIs(t, err, ErrDuplicatePrimaryKey)
}

func TestStore_InsertRejectsMissingPrimaryKey(t *testing.T) {
	s := newTestStore(t)
	err := s.Insert(record.Row{"name": value.String("alice")})
	require.ErrorIs(t, err, ErrMissingPrimaryKey)
}

func TestStore_Scan(t *testing.T) {
	s := newTestStore(t)
	for i := int32(1); i <= 3; i++ {
		require.NoError(t, s.Insert(record.Row{"id": value.Int(i), "name": value.String("n")}))
	}

	count := 0
	require.NoError(t, s.Scan(func(offset uint32, row record.Row) error {
		count++
		return nil
	}))
	require.Equal(t, 3, count)
}

func TestStore_UpdatePreservesIndex(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Insert(record.Row{"id": value.Int(1), "name": value.String("alice")}))
	require.NoError(t, s.Insert(record.Row{"id": value.Int(2), "name": value.String("bob")}))

	affected, err := s.Update(func(row record.Row) (bool, error) {
		return row["id"] == value.Int(1), nil
	}, record.Row{"name": value.String("carol")})
	require.NoError(t, err)
	require.Equal(t, int64(1), affected)

	rows, err := s.Lookup(1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, value.String("carol"), rows[0]["name"])

	var total int
	require.NoError(t, s.Scan(func(offset uint32, row record.Row) error { total++; return nil }))
	require.Equal(t, 2, total)
}

func TestStore_DeleteShrinksFileAndIndex(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Insert(record.Row{"id": value.Int(1), "name": value.String("a")}))
	require.NoError(t, s.Insert(record.Row{"id": value.Int(2), "name": value.String("b")}))
	require.NoError(t, s.Insert(record.Row{"id": value.Int(3), "name": value.String("c")}))

	deleted, err := s.Delete(func(row record.Row) (bool, error) {
		return row["id"] == value.Int(2), nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	rows, err := s.Lookup(2)
	require.NoError(t, err)
	require.Empty(t, rows)

	var total int
	require.NoError(t, s.Scan(func(offset uint32, row record.Row) error { total++; return nil }))
	require.Equal(t, 2, total)
}
