package catalog

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ovidtal/reldb/internal/alias/bx"
	"github.com/ovidtal/reldb/internal/record"
	"github.com/ovidtal/reldb/internal/value"
)

const (
	catalogMagic   = 0x52454C44 // "RELD"
	catalogVersion = 1
)

// encode serializes the catalog as: magic, version, database count, then
// each database's name/tables, then the current database name. Exact byte
// layout is an internal contract that only needs to round-trip (§6).
func (c *Catalog) encode() []byte {
	var buf bytes.Buffer

	writeU32(&buf, catalogMagic)
	writeU32(&buf, catalogVersion)

	names := make([]string, 0, len(c.databases))
	for n := range c.databases {
		names = append(names, n)
	}
	sort.Strings(names)

	writeU32(&buf, uint32(len(names)))
	for _, name := range names {
		db := c.databases[name]
		writeString(&buf, db.Name)

		tableNames := make([]string, 0, len(db.Tables))
		for n := range db.Tables {
			tableNames = append(tableNames, n)
		}
		sort.Strings(tableNames)

		writeU32(&buf, uint32(len(tableNames)))
		for _, tn := range tableNames {
			writeTableDef(&buf, db.Tables[tn])
		}
	}

	writeString(&buf, c.Current)
	return buf.Bytes()
}

func writeTableDef(buf *bytes.Buffer, def *TableDef) {
	writeString(buf, def.Schema.Table)
	writeU16(buf, uint16(len(def.Schema.Columns)))
	for _, col := range def.Schema.Columns {
		writeColumn(buf, col)
	}
	writeString(buf, def.DataPath)
	writeString(buf, def.IndexPath)
}

func writeColumn(buf *bytes.Buffer, col record.Column) {
	writeString(buf, col.Name)
	buf.WriteByte(byte(col.Kind))
	writeU32(buf, uint32(col.Length))
	writeBool(buf, col.PrimaryKey)
	writeBool(buf, col.ForeignKey)
	if col.ForeignKey {
		writeString(buf, col.RefTable)
		writeString(buf, col.RefColumn)
	}
}

func (c *Catalog) decode(data []byte) error {
	r := &reader{buf: data}

	magic, err := r.u32()
	if err != nil || magic != catalogMagic {
		return fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if _, err := r.u32(); err != nil { // version, unused for now
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	numDB, err := r.u32()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	c.databases = make(map[string]*databaseDef, numDB)
	for i := uint32(0); i < numDB; i++ {
		name, err := r.string()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		numTables, err := r.u32()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorrupt, err)
		}

		db := &databaseDef{Name: name, Tables: make(map[string]*TableDef, numTables)}
		for j := uint32(0); j < numTables; j++ {
			def, err := readTableDef(r)
			if err != nil {
				return err
			}
			db.Tables[def.Schema.Table] = def
		}
		c.databases[name] = db
	}

	current, err := r.string()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	c.Current = current
	return nil
}

func readTableDef(r *reader) (*TableDef, error) {
	name, err := r.string()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	numCols, err := r.u16()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	cols := make([]record.Column, 0, numCols)
	for k := uint16(0); k < numCols; k++ {
		col, err := readColumn(r)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	dataPath, err := r.string()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	idxPath, err := r.string()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	return &TableDef{
		Schema:    record.Schema{Table: name, Columns: cols},
		DataPath:  dataPath,
		IndexPath: idxPath,
	}, nil
}

func readColumn(r *reader) (record.Column, error) {
	name, err := r.string()
	if err != nil {
		return record.Column{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	kindByte, err := r.byte()
	if err != nil {
		return record.Column{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	length, err := r.u32()
	if err != nil {
		return record.Column{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	pk, err := r.bool()
	if err != nil {
		return record.Column{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	fk, err := r.bool()
	if err != nil {
		return record.Column{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	col := record.Column{
		Name:       name,
		Kind:       value.Kind(kindByte),
		Length:     int(length),
		PrimaryKey: pk,
		ForeignKey: fk,
	}
	if fk {
		refTable, err := r.string()
		if err != nil {
			return record.Column{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		refCol, err := r.string()
		if err != nil {
			return record.Column{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		col.RefTable = refTable
		col.RefColumn = refCol
	}
	return col, nil
}

// --- small binary writer/reader helpers, grounded on the bx LE convention ---

func writeU16(buf *bytes.Buffer, v uint16) {
	var tmp [2]byte
	bx.PutU16(tmp[:], v)
	buf.Write(tmp[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	bx.PutU32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) u16() (uint16, error) {
	if r.off+2 > len(r.buf) {
		return 0, fmt.Errorf("unexpected EOF reading u16")
	}
	v := bx.U16(r.buf[r.off : r.off+2])
	r.off += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, fmt.Errorf("unexpected EOF reading u32")
	}
	v := bx.U32(r.buf[r.off : r.off+4])
	r.off += 4
	return v, nil
}

func (r *reader) byte() (byte, error) {
	if r.off+1 > len(r.buf) {
		return 0, fmt.Errorf("unexpected EOF reading byte")
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

func (r *reader) bool() (bool, error) {
	b, err := r.byte()
	return b != 0, err
}

func (r *reader) string() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	if r.off+int(n) > len(r.buf) {
		return "", fmt.Errorf("unexpected EOF reading string")
	}
	s := string(r.buf[r.off : r.off+int(n)])
	r.off += int(n)
	return s, nil
}
