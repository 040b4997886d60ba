package btree

// Index is the minimal interface the table store (§4.3/§4.5) depends on.
// offsets identify byte positions in a table's data file.
type Index interface {
	Insert(key KeyType, offset uint32) error
	SearchEqual(key KeyType) ([]uint32, error)
	Close() error
}
