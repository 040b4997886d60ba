package record

import (
	"errors"
	"fmt"

	"github.com/ovidtal/reldb/internal/value"
)

var (
	ErrDuplicateColumn     = errors.New("record: duplicate column name")
	ErrMultiplePrimaryKeys = errors.New("record: at most one column may be the primary key")
	ErrPrimaryKeyNotInt    = errors.New("record: primary key column must be INT")
)

// Column describes one field of a table schema.
type Column struct {
	Name       string
	Kind       value.Kind
	Length     int // meaningful for KindString/KindChar only
	PrimaryKey bool

	ForeignKey bool
	RefTable   string
	RefColumn  string
}

// Width is the fixed on-disk byte width of this column, per §4.2/§3:
// int=4, float=4, bool=1, char=length, string=4 (length prefix) + length.
func (c Column) Width() int {
	switch c.Kind {
	case value.KindInt:
		return 4
	case value.KindFloat:
		return 4
	case value.KindBool:
		return 1
	case value.KindChar:
		return c.Length
	case value.KindString:
		return 4 + c.Length
	default:
		return 0
	}
}

// Schema is an ordered list of columns plus the table name they belong to.
type Schema struct {
	Table   string
	Columns []Column
}

// Validate checks the structural invariants of §3: no duplicate column
// names, at most one primary key, and that primary key (if any) is INT.
func (s Schema) Validate() error {
	seen := make(map[string]bool, len(s.Columns))
	pkSeen := false
	for _, c := range s.Columns {
		if seen[c.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = true

		if c.PrimaryKey {
			if pkSeen {
				return ErrMultiplePrimaryKeys
			}
			pkSeen = true
			if c.Kind != value.KindInt {
				return fmt.Errorf("%w: %s", ErrPrimaryKeyNotInt, c.Name)
			}
		}
	}
	return nil
}

// PrimaryKey returns the primary-key column and its position, if declared.
func (s Schema) PrimaryKey() (Column, int, bool) {
	for i, c := range s.Columns {
		if c.PrimaryKey {
			return c, i, true
		}
	}
	return Column{}, -1, false
}

// ColumnByName looks up a column by name, case-sensitively.
func (s Schema) ColumnByName(name string) (Column, int, bool) {
	for i, c := range s.Columns {
		if c.Name == name {
			return c, i, true
		}
	}
	return Column{}, -1, false
}

// RowWidth is the fixed byte width of a full row, summing every column.
func (s Schema) RowWidth() int {
	w := 0
	for _, c := range s.Columns {
		w += c.Width()
	}
	return w
}

// Row is a mapping from column name to value, independent of disk order.
type Row map[string]value.Value
