// Package value implements the engine's tagged value union: exactly one of
// 32-bit integer, 32-bit float, variable-length string, fixed-length char,
// or bool. Comparisons between mismatched tags always yield false, even for
// the not-equal operator — a deliberate policy so a mistyped predicate never
// silently "matches by accident".
package value

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindInt Kind = iota
	KindFloat
	KindString
	KindChar
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "INT"
	case KindFloat:
		return "FLOAT"
	case KindString:
		return "STRING"
	case KindChar:
		return "CHAR"
	case KindBool:
		return "BOOL"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is a tagged union; only the field matching Kind is meaningful.
type Value struct {
	Kind  Kind
	Int   int32
	Float float32
	Str   string
	Bool  bool
}

func Int(v int32) Value        { return Value{Kind: KindInt, Int: v} }
func Float(v float32) Value    { return Value{Kind: KindFloat, Float: v} }
func String(v string) Value    { return Value{Kind: KindString, Str: v} }
func Char(v string) Value      { return Value{Kind: KindChar, Str: v} }
func Bool(v bool) Value        { return Value{Kind: KindBool, Bool: v} }

// Zero returns the typed zero for a kind, per the "missing fields default to
// a typed zero" write rule. For KindChar, Zero returns an empty string; the
// record codec pads it with NUL bytes to the column's declared length.
func Zero(k Kind) Value {
	switch k {
	case KindInt:
		return Int(0)
	case KindFloat:
		return Float(0)
	case KindString:
		return String("")
	case KindChar:
		return Char("")
	case KindBool:
		return Bool(false)
	default:
		return Value{}
	}
}

var ErrUnsupportedOp = errors.New("value: operator not supported for this kind")

type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func ParseOp(s string) (Op, bool) {
	switch s {
	case "=":
		return OpEq, true
	case "!=":
		return OpNe, true
	case "<":
		return OpLt, true
	case "<=":
		return OpLe, true
	case ">":
		return OpGt, true
	case ">=":
		return OpGe, true
	default:
		return 0, false
	}
}

// Compare evaluates a op b. Mismatched tags return (false, nil) for every
// operator — callers must not special-case OpNe.
func Compare(a, b Value, op Op) (bool, error) {
	if a.Kind != b.Kind {
		return false, nil
	}

	switch a.Kind {
	case KindBool:
		switch op {
		case OpEq:
			return a.Bool == b.Bool, nil
		case OpNe:
			return a.Bool != b.Bool, nil
		default:
			return false, ErrUnsupportedOp
		}
	case KindInt:
		return compareOrdered(int64(a.Int), int64(b.Int), op), nil
	case KindFloat:
		return compareOrdered(float64(a.Float), float64(b.Float), op), nil
	case KindString, KindChar:
		return compareOrdered(a.Str, b.Str, op), nil
	default:
		return false, fmt.Errorf("value: unknown kind %v", a.Kind)
	}
}

type ordered interface {
	int64 | float64 | string
}

func compareOrdered[T ordered](a, b T, op Op) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	default:
		return false
	}
}
