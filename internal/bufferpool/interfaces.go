package bufferpool

import "github.com/ovidtal/reldb/internal/storage"

type BufferPool interface {
	GetPage(fs storage.FileSet, pageID uint32) (*storage.Page, error)
	Unpin(page *storage.Page, dirty bool) error
	FlushAll() error
}
