package btree

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/ovidtal/reldb/internal/storage"
)

// DropIndex removes all index segments and its meta file. Idempotent.
func DropIndex(lfs storage.LocalFileSet) error {
	if err := os.MkdirAll(lfs.Dir, 0o755); err != nil {
		return err
	}

	if err := storage.RemoveAllSegments(lfs); err != nil {
		return err
	}

	metaPath := filepath.Join(lfs.Dir, lfs.Base+metaFileSuffix)
	if err := os.Remove(metaPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

func dropIndexFileSet(fs storage.FileSet) error {
	lfs, ok := fs.(storage.LocalFileSet)
	if !ok {
		return ErrUnsupportedFileSet
	}
	return DropIndex(lfs)
}
