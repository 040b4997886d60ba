package btree

import "errors"

var (
	// ErrUnsupportedFileSet is returned when an operation needs a LocalFileSet
	// but was handed some other FileSet implementation.
	ErrUnsupportedFileSet = errors.New("btree: unsupported FileSet (local files only)")

	// ErrCorruptNode signals a node whose on-disk shape does not match its
	// declared kind (e.g. an internal node with zero entries).
	ErrCorruptNode = errors.New("btree: corrupt node")
)
