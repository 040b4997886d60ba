// Package table implements the per-table data file (flat concatenation of
// fixed-width record frames) and keeps its primary-key B+ tree index
// coherent with it via the whole-file rewrite-and-rebuild protocol.
package table

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/ovidtal/reldb/internal/btree"
	"github.com/ovidtal/reldb/internal/bufferpool"
	"github.com/ovidtal/reldb/internal/record"
	"github.com/ovidtal/reldb/internal/storage"
	"github.com/ovidtal/reldb/internal/value"
)

var (
	ErrNoPrimaryKey        = errors.New("table: schema has no primary key column")
	ErrMissingPrimaryKey   = errors.New("table: record is missing its primary key field")
	ErrDuplicatePrimaryKey = errors.New("table: primary key already exists")
	ErrTypeMismatch        = record.ErrTypeMismatch
)

// Filter reports whether row matches a predicate; it is the seam the table
// store uses to stay independent of the predicate/SQL layers above it.
type Filter func(row record.Row) (bool, error)

// Store owns one table's data file and its primary-key index.
type Store struct {
	Schema   record.Schema
	DataPath string
	Index    *btree.Tree

	pkCol record.Column
	pkPos int

	sm    *storage.StorageManager
	idxFS storage.FileSet
	bp    bufferpool.Manager
}

type keyOffset struct {
	pk     int32
	offset uint32
}

// Open loads (or lazily prepares to create) a table's data file and opens
// its index, then verifies index/data consistency and rebuilds the index
// if they disagree — the recovery policy required by §4.5's failure
// atomicity note for a crash between data-file rename and index rebuild.
func Open(schema record.Schema, dataPath string, sm *storage.StorageManager, idxFS storage.FileSet, bp bufferpool.Manager) (*Store, error) {
	pkCol, pkPos, ok := schema.PrimaryKey()
	if !ok {
		return nil, ErrNoPrimaryKey
	}

	tree, err := btree.OpenTree(sm, idxFS, bp)
	if err != nil {
		return nil, err
	}

	s := &Store{
		Schema:   schema,
		DataPath: dataPath,
		Index:    tree,
		pkCol:    pkCol,
		pkPos:    pkPos,
		sm:       sm,
		idxFS:    idxFS,
		bp:       bp,
	}

	if err := s.verifyIndexConsistency(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) verifyIndexConsistency() error {
	entries, err := s.scanKeyOffsets()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		offs, err := s.Index.SearchEqual(e.pk)
		if err != nil {
			return err
		}
		if !containsOffset(offs, e.offset) {
			slog.Warn("table.index.rebuild_on_open", "table", s.Schema.Table, "reason", "index/data mismatch")
			return s.rebuildIndex(entries)
		}
	}
	return nil
}

func containsOffset(offs []uint32, target uint32) bool {
	for _, o := range offs {
		if o == target {
			return true
		}
	}
	return false
}

// Insert appends row to the data file and indexes its primary key. It
// rejects rows lacking the primary key, a mistyped key, or a duplicate key.
func (s *Store) Insert(row record.Row) error {
	pkVal, ok := row[s.pkCol.Name]
	if !ok {
		return ErrMissingPrimaryKey
	}
	if pkVal.Kind != value.KindInt {
		return ErrTypeMismatch
	}

	existing, err := s.Index.SearchEqual(pkVal.Int)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return ErrDuplicatePrimaryKey
	}

	encoded, err := record.EncodeRow(s.Schema, row)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.DataPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return err
	}
	offset := stat.Size()

	if _, err := f.WriteAt(encoded, offset); err != nil {
		return err
	}

	return s.Index.Insert(pkVal.Int, uint32(offset))
}

// Scan decodes every record in the data file, end to end, calling fn with
// its byte offset. A missing data file is treated as an empty table.
func (s *Store) Scan(fn func(offset uint32, row record.Row) error) error {
	f, err := os.Open(s.DataPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	width := s.Schema.RowWidth()
	buf := make([]byte, width)
	offset := uint32(0)
	for {
		_, err := io.ReadFull(f, buf)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return record.ErrShortRead
		}
		if err != nil {
			return err
		}

		row, err := record.DecodeRow(s.Schema, buf)
		if err != nil {
			return err
		}
		if err := fn(offset, row); err != nil {
			return err
		}
		offset += uint32(width)
	}
}

// Lookup resolves the primary key through the index, then reads each hit.
func (s *Store) Lookup(pk int32) ([]record.Row, error) {
	offs, err := s.Index.SearchEqual(pk)
	if err != nil {
		return nil, err
	}
	if len(offs) == 0 {
		return nil, nil
	}

	f, err := os.Open(s.DataPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	width := s.Schema.RowWidth()
	buf := make([]byte, width)
	out := make([]record.Row, 0, len(offs))
	for _, off := range offs {
		if _, err := f.ReadAt(buf, int64(off)); err != nil {
			continue // stale/dangling index entry: skip
		}
		row, err := record.DecodeRow(s.Schema, buf)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// Update implements §4.5's UPDATE algorithm: stream every record to a temp
// file, overlaying sets onto matches, then rename the temp file over the
// data file and rebuild the index from scratch against the new offsets.
func (s *Store) Update(filter Filter, sets record.Row) (int64, error) {
	var affected int64
	entries, err := s.rewrite(func(row record.Row) (record.Row, bool, error) {
		matched, err := filter(row)
		if err != nil {
			return nil, false, err
		}
		if matched {
			affected++
			for k, v := range sets {
				row[k] = v
			}
		}
		return row, true, nil
	})
	if err != nil {
		return 0, err
	}
	if err := s.rebuildIndex(entries); err != nil {
		return 0, err
	}
	return affected, nil
}

// Delete implements §4.5's DELETE algorithm: matching records are omitted
// from the rewritten data file, and the index is rebuilt from survivors.
func (s *Store) Delete(filter Filter) (int64, error) {
	var deleted int64
	entries, err := s.rewrite(func(row record.Row) (record.Row, bool, error) {
		matched, err := filter(row)
		if err != nil {
			return nil, false, err
		}
		if matched {
			deleted++
			return nil, false, nil // omit from rewritten file
		}
		return row, true, nil
	})
	if err != nil {
		return -1, err
	}
	if err := s.rebuildIndex(entries); err != nil {
		return -1, err
	}
	return deleted, nil
}

// rewrite streams the data file through fn, which returns the (possibly
// modified) row, whether to keep it in the rewritten file, and an error.
// It renames the rewritten file over the original on success and returns
// the surviving rows' (primary key, new offset) pairs for index rebuild.
func (s *Store) rewrite(fn func(row record.Row) (record.Row, bool, error)) ([]keyOffset, error) {
	f, err := os.Open(s.DataPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	tmpPath := s.DataPath + ".rewrite.tmp"
	tmp, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		_ = tmp.Close()
		if !ok {
			_ = os.Remove(tmpPath)
		}
	}()

	width := s.Schema.RowWidth()
	buf := make([]byte, width)
	var entries []keyOffset
	newOffset := uint32(0)

	for {
		_, err := io.ReadFull(f, buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, record.ErrShortRead
		}
		if err != nil {
			return nil, err
		}

		row, err := record.DecodeRow(s.Schema, buf)
		if err != nil {
			return nil, err
		}

		newRow, keep, err := fn(row)
		if err != nil {
			return nil, err
		}
		if !keep {
			continue
		}

		encoded, err := record.EncodeRow(s.Schema, newRow)
		if err != nil {
			return nil, err
		}
		if _, err := tmp.Write(encoded); err != nil {
			return nil, err
		}
		entries = append(entries, keyOffset{pk: newRow[s.pkCol.Name].Int, offset: newOffset})
		newOffset += uint32(width)
	}

	if err := tmp.Sync(); err != nil {
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmpPath, s.DataPath); err != nil {
		return nil, err
	}
	ok = true
	return entries, nil
}

func (s *Store) scanKeyOffsets() ([]keyOffset, error) {
	var entries []keyOffset
	err := s.Scan(func(offset uint32, row record.Row) error {
		entries = append(entries, keyOffset{pk: row[s.pkCol.Name].Int, offset: offset})
		return nil
	})
	return entries, err
}

// rebuildIndex drops the current index file(s) and reconstructs a fresh
// one from entries, per §4.3's "torn down and rebuilt as a fresh file
// cheaply" requirement.
func (s *Store) rebuildIndex(entries []keyOffset) error {
	if err := s.Index.Close(); err != nil {
		return err
	}
	if lfs, ok := s.idxFS.(storage.LocalFileSet); ok {
		if err := btree.DropIndex(lfs); err != nil {
			return err
		}
	}

	tree, err := btree.OpenTree(s.sm, s.idxFS, s.bp)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := tree.Insert(e.pk, e.offset); err != nil {
			return err
		}
	}
	if err := tree.Close(); err != nil {
		return err
	}

	reopened, err := btree.OpenTree(s.sm, s.idxFS, s.bp)
	if err != nil {
		return err
	}
	s.Index = reopened
	return nil
}

// Close flushes the index's dirty pages and saves its metadata; the pages
// stay cached in the shared buffer pool.
func (s *Store) Close() error {
	return s.Index.Close()
}
