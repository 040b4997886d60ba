package catalog

import "errors"

var (
	ErrDatabaseExists   = errors.New("catalog: database already exists")
	ErrDatabaseNotFound = errors.New("catalog: no such database")
	ErrTableExists      = errors.New("catalog: table already exists")
	ErrTableNotFound    = errors.New("catalog: no such table")
	ErrCorrupt          = errors.New("catalog: corrupt catalog file")
)
