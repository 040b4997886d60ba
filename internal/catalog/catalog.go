// Package catalog persists the directory of databases, tables, and their
// file paths in a single binary file under the data root, per §4.4.
package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/ovidtal/reldb/internal/btree"
	"github.com/ovidtal/reldb/internal/record"
	"github.com/ovidtal/reldb/internal/storage"
)

// TableDef is a catalog entry: a table's schema plus its resolved file
// paths. Paths are stored so callers never have to re-derive them.
type TableDef struct {
	Schema    record.Schema
	DataPath  string
	IndexPath string
}

type databaseDef struct {
	Name   string
	Tables map[string]*TableDef
}

// Catalog is the persistent collection of databases and, for the current
// database, its tables (§3 "Catalog").
type Catalog struct {
	Root      string
	Current   string
	databases map[string]*databaseDef
	path      string
}

// Open loads the catalog file under root, or initializes an empty one if
// absent (§4.4 "Loads from a catalog file at startup; if absent,
// initializes empty").
func Open(root string) (*Catalog, error) {
	c := &Catalog{
		Root:      root,
		databases: make(map[string]*databaseDef),
		path:      filepath.Join(root, "catalog.bin"),
	}

	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	if err := c.decode(data); err != nil {
		return nil, err
	}
	return c, nil
}

// Save persists the catalog atomically (temp file + rename), matching the
// rewrite-protocol idiom used throughout the engine.
func (c *Catalog) Save() error {
	data := c.encode()
	if err := os.MkdirAll(c.Root, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(c.Root, "catalog.bin.tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	ok := false
	defer func() {
		_ = tmp.Close()
		if !ok {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		return fmt.Errorf("catalog: atomic rename: %w", err)
	}
	ok = true

	slog.Debug("catalog.saved", "path", c.path, "databases", len(c.databases))
	return nil
}

// CreateDatabase registers a new, empty database and persists the catalog.
func (c *Catalog) CreateDatabase(name string) error {
	if _, ok := c.databases[name]; ok {
		return ErrDatabaseExists
	}
	c.databases[name] = &databaseDef{Name: name, Tables: make(map[string]*TableDef)}
	return c.Save()
}

// DropDatabase removes a database's schema entries and deletes its
// directory tree (§4.4).
func (c *Catalog) DropDatabase(name string) error {
	if _, ok := c.databases[name]; !ok {
		return ErrDatabaseNotFound
	}
	delete(c.databases, name)
	if c.Current == name {
		c.Current = ""
	}
	if err := os.RemoveAll(c.databasePath(name)); err != nil {
		return err
	}
	return c.Save()
}

// UseDatabase sets the current database; it must already exist.
func (c *Catalog) UseDatabase(name string) error {
	if _, ok := c.databases[name]; !ok {
		return ErrDatabaseNotFound
	}
	c.Current = name
	return c.Save()
}

// ListDatabases returns every database name, sorted.
func (c *Catalog) ListDatabases() []string {
	names := make([]string, 0, len(c.databases))
	for n := range c.databases {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ListTables returns every table name in the current database, sorted.
func (c *Catalog) ListTables() ([]string, error) {
	db, err := c.currentDB()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(db.Tables))
	for n := range db.Tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// CreateTable validates schema, resolves its file paths, and registers it
// in the current database. Fails if the name already exists (§4.4).
func (c *Catalog) CreateTable(schema record.Schema) (*TableDef, error) {
	db, err := c.currentDB()
	if err != nil {
		return nil, err
	}
	if _, ok := db.Tables[schema.Table]; ok {
		return nil, ErrTableExists
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	def := &TableDef{
		Schema:    schema,
		DataPath:  filepath.Join(c.databasePath(db.Name), schema.Table+".dat"),
		IndexPath: filepath.Join(c.databasePath(db.Name), schema.Table+".idx"),
	}
	db.Tables[schema.Table] = def
	if err := c.Save(); err != nil {
		return nil, err
	}
	return def, nil
}

// DropTable removes a table's schema entry and deletes its data/index files.
func (c *Catalog) DropTable(name string) error {
	db, err := c.currentDB()
	if err != nil {
		return err
	}
	def, ok := db.Tables[name]
	if !ok {
		return ErrTableNotFound
	}
	delete(db.Tables, name)

	_ = os.Remove(def.DataPath)
	_ = btree.DropIndex(storage.LocalFileSet{Dir: filepath.Dir(def.IndexPath), Base: filepath.Base(def.IndexPath)})

	return c.Save()
}

// LookupTable returns the table definition for name in the current database.
func (c *Catalog) LookupTable(name string) (*TableDef, error) {
	db, err := c.currentDB()
	if err != nil {
		return nil, err
	}
	def, ok := db.Tables[name]
	if !ok {
		return nil, ErrTableNotFound
	}
	return def, nil
}

func (c *Catalog) currentDB() (*databaseDef, error) {
	if c.Current == "" {
		return nil, ErrDatabaseNotFound
	}
	db, ok := c.databases[c.Current]
	if !ok {
		return nil, ErrDatabaseNotFound
	}
	return db, nil
}

func (c *Catalog) databasePath(name string) string {
	return filepath.Join(c.Root, name)
}
