package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ovidtal/reldb/internal/bufferpool"
	"github.com/ovidtal/reldb/internal/record"
	"github.com/ovidtal/reldb/internal/value"
)

func testSchema() record.Schema {
	return record.Schema{
		Table: "u",
		Columns: []record.Column{
			{Name: "id", Kind: value.KindInt, PrimaryKey: true},
			{Name: "name", Kind: value.KindString, Length: 16},
		},
	}
}

func TestEngine_RequiresCurrentDatabase(t *testing.T) {
	e, err := Open(t.TempDir(), bufferpool.DefaultCapacity)
	require.NoError(t, err)

	err = e.CreateTable(testSchema())
	require.ErrorIs(t, err, ErrNoCurrentDatabase)
}

func TestEngine_CreateTableAndInsert(t *testing.T) {
	e, err := Open(t.TempDir(), bufferpool.DefaultCapacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	require.NoError(t, e.CreateDatabase("d"))
	require.NoError(t, e.UseDatabase("d"))
	require.NoError(t, e.CreateTable(testSchema()))

	tbl, err := e.Table("u")
	require.NoError(t, err)
	require.NoError(t, tbl.Insert(record.Row{"id": value.Int(1), "name": value.String("alice")}))

	rows, err := tbl.Lookup(1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestEngine_TableHandleIsCached(t *testing.T) {
	e, err := Open(t.TempDir(), bufferpool.DefaultCapacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	require.NoError(t, e.CreateDatabase("d"))
	require.NoError(t, e.UseDatabase("d"))
	require.NoError(t, e.CreateTable(testSchema()))

	a, err := e.Table("u")
	require.NoError(t, err)
	b, err := e.Table("u")
	require.NoError(t, err)
	require.Same(t, a, b)
}

func TestEngine_UseDatabaseClearsTableCache(t *testing.T) {
	e, err := Open(t.TempDir(), bufferpool.DefaultCapacity)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	require.NoError(t, e.CreateDatabase("d1"))
	require.NoError(t, e.UseDatabase("d1"))
	require.NoError(t, e.CreateTable(testSchema()))
	_, err = e.Table("u")
	require.NoError(t, err)

	require.NoError(t, e.CreateDatabase("d2"))
	require.NoError(t, e.UseDatabase("d2"))
	require.NoError(t, e.CreateTable(testSchema()))

	tbl, err := e.Table("u")
	require.NoError(t, err)
	require.NoError(t, tbl.Insert(record.Row{"id": value.Int(9), "name": value.String("x")}))
}
