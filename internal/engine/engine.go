// Package engine owns the process-lifetime state described in §4.9: the
// catalog, the current-database name, and cached table/index handles so
// repeated operations on the same table do not re-open files.
package engine

import (
	"path/filepath"

	"github.com/ovidtal/reldb/internal/bufferpool"
	"github.com/ovidtal/reldb/internal/catalog"
	"github.com/ovidtal/reldb/internal/record"
	"github.com/ovidtal/reldb/internal/storage"
	"github.com/ovidtal/reldb/internal/table"
)

// Engine is called Database in public-facing documentation for historical
// continuity with the host process's API, but the Go type is named for
// what it does.
type Engine struct {
	Catalog *catalog.Catalog

	sm   *storage.StorageManager
	pool *bufferpool.GlobalPool

	tables map[string]*table.Store
}

// Open loads or creates the catalog rooted at dataRoot and constructs an
// Engine ready to serve operations once a database is selected.
func Open(dataRoot string, poolCapacity int) (*Engine, error) {
	cat, err := catalog.Open(dataRoot)
	if err != nil {
		return nil, err
	}
	sm := storage.NewStorageManager()
	return &Engine{
		Catalog: cat,
		sm:      sm,
		pool:    bufferpool.NewGlobalPool(sm, poolCapacity),
		tables:  make(map[string]*table.Store),
	}, nil
}

func (e *Engine) CreateDatabase(name string) error {
	return e.Catalog.CreateDatabase(name)
}

func (e *Engine) DropDatabase(name string) error {
	e.clearTableCache()
	return e.Catalog.DropDatabase(name)
}

func (e *Engine) UseDatabase(name string) error {
	e.clearTableCache()
	return e.Catalog.UseDatabase(name)
}

func (e *Engine) ListDatabases() []string {
	return e.Catalog.ListDatabases()
}

func (e *Engine) ListTables() ([]string, error) {
	if e.Catalog.Current == "" {
		return nil, ErrNoCurrentDatabase
	}
	return e.Catalog.ListTables()
}

func (e *Engine) CreateTable(schema record.Schema) error {
	if e.Catalog.Current == "" {
		return ErrNoCurrentDatabase
	}
	_, err := e.Catalog.CreateTable(schema)
	return err
}

func (e *Engine) DropTable(name string) error {
	if e.Catalog.Current == "" {
		return ErrNoCurrentDatabase
	}
	if s, ok := e.tables[e.cacheKey(name)]; ok {
		_ = s.Close()
		delete(e.tables, e.cacheKey(name))
	}
	return e.Catalog.DropTable(name)
}

// Table returns a cached handle to name's data/index files, opening and
// caching one on first use.
func (e *Engine) Table(name string) (*table.Store, error) {
	if e.Catalog.Current == "" {
		return nil, ErrNoCurrentDatabase
	}

	key := e.cacheKey(name)
	if s, ok := e.tables[key]; ok {
		return s, nil
	}

	def, err := e.Catalog.LookupTable(name)
	if err != nil {
		return nil, err
	}

	idxFS := storage.LocalFileSet{
		Dir:  filepath.Dir(def.IndexPath),
		Base: filepath.Base(def.IndexPath),
	}
	bp := e.pool.View(idxFS)

	s, err := table.Open(def.Schema, def.DataPath, e.sm, idxFS, bp)
	if err != nil {
		return nil, err
	}
	e.tables[key] = s
	return s, nil
}

func (e *Engine) cacheKey(tableName string) string {
	return e.Catalog.Current + "/" + tableName
}

func (e *Engine) clearTableCache() {
	for k, s := range e.tables {
		_ = s.Close()
		delete(e.tables, k)
	}
}

// Close flushes and releases every cached table handle.
func (e *Engine) Close() error {
	var first error
	for _, s := range e.tables {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	e.tables = make(map[string]*table.Store)
	return first
}
