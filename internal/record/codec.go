package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ovidtal/reldb/internal/value"
)

var (
	ErrShortRead    = errors.New("record: short read (truncated row)")
	ErrTypeMismatch = errors.New("record: type mismatch on column")
)

// nativeEndian is used for every fixed-width field per the "host-native,
// no cross-host portability promised" resolution: it avoids unsafe while
// matching the source's raw in-memory layout.
var nativeEndian = binary.NativeEndian

// EncodeRow serializes row in schema column order. Missing fields are
// filled with the column's typed zero (§3 "Record"). A present field whose
// kind does not match its column is a fatal per-operation error.
func EncodeRow(schema Schema, row Row) ([]byte, error) {
	buf := make([]byte, schema.RowWidth())
	off := 0
	for _, col := range schema.Columns {
		v, ok := row[col.Name]
		if !ok {
			v = value.Zero(col.Kind)
		}
		if v.Kind != col.Kind {
			return nil, fmt.Errorf("%w %s: expected %v, got %v", ErrTypeMismatch, col.Name, col.Kind, v.Kind)
		}
		n, err := encodeField(buf[off:off+col.Width()], col, v)
		if err != nil {
			return nil, err
		}
		off += n
	}
	return buf, nil
}

func encodeField(dst []byte, col Column, v value.Value) (int, error) {
	switch col.Kind {
	case value.KindInt:
		nativeEndian.PutUint32(dst, uint32(v.Int))
		return 4, nil
	case value.KindFloat:
		nativeEndian.PutUint32(dst, math.Float32bits(v.Float))
		return 4, nil
	case value.KindBool:
		if v.Bool {
			dst[0] = 1
		} else {
			dst[0] = 0
		}
		return 1, nil
	case value.KindChar:
		n := copy(dst, v.Str)
		for i := n; i < col.Length; i++ {
			dst[i] = 0
		}
		return col.Length, nil
	case value.KindString:
		content := v.Str
		if len(content) > col.Length {
			content = content[:col.Length]
		}
		nativeEndian.PutUint32(dst[0:4], uint32(len(content)))
		n := copy(dst[4:], content)
		for i := n; i < col.Length; i++ {
			dst[4+i] = 0
		}
		return 4 + col.Length, nil
	default:
		return 0, fmt.Errorf("record: unsupported column kind %v", col.Kind)
	}
}

// DecodeRow is the exact inverse of EncodeRow, reading the same per-column
// widths. A buffer shorter than the schema's row width is ErrShortRead,
// signaling a corrupt or truncated table for that scan.
func DecodeRow(schema Schema, buf []byte) (Row, error) {
	if len(buf) < schema.RowWidth() {
		return nil, ErrShortRead
	}
	row := make(Row, len(schema.Columns))
	off := 0
	for _, col := range schema.Columns {
		v, n, err := decodeField(buf[off:], col)
		if err != nil {
			return nil, err
		}
		row[col.Name] = v
		off += n
	}
	return row, nil
}

func decodeField(src []byte, col Column) (value.Value, int, error) {
	switch col.Kind {
	case value.KindInt:
		return value.Int(int32(nativeEndian.Uint32(src[0:4]))), 4, nil
	case value.KindFloat:
		return value.Float(math.Float32frombits(nativeEndian.Uint32(src[0:4]))), 4, nil
	case value.KindBool:
		return value.Bool(src[0] != 0), 1, nil
	case value.KindChar:
		return value.Char(string(src[:col.Length])), col.Length, nil
	case value.KindString:
		l := nativeEndian.Uint32(src[0:4])
		if int(l) > col.Length {
			l = uint32(col.Length)
		}
		content := src[4 : 4+l]
		return value.String(string(content)), 4 + col.Length, nil
	default:
		return value.Value{}, 0, fmt.Errorf("record: unsupported column kind %v", col.Kind)
	}
}
