// Package predicate evaluates the AND/OR/NOT condition lists that power
// SELECT/UPDATE/DELETE's WHERE clauses, per the combining rule: n condition
// booleans combined left-to-right by m operators, where NOT negates the
// next operand rather than consuming one of its own.
package predicate

import (
	"errors"
	"fmt"

	"github.com/ovidtal/reldb/internal/value"
)

var ErrOperatorCount = errors.New("predicate: operator count out of range")

type LogicalOp int

const (
	And LogicalOp = iota
	Or
	Not
)

// Condition tests one named field of a row against a literal using op.
type Condition struct {
	Column string
	Op     value.Op
	Value  value.Value
}

// Predicate is the parallel (conditions, operators) pair of §4.6.
type Predicate struct {
	Conditions []Condition
	Operators  []LogicalOp
}

// ValidateCount enforces §4.6(3): m must be in [n-1, n-1+notCount], where
// notCount is counted among the operators themselves.
func ValidateCount(n, m int, notCount int) error {
	lo := n - 1
	if lo < 0 {
		lo = 0
	}
	hi := lo + notCount
	if m < lo || m > hi {
		return fmt.Errorf("%w: n=%d m=%d notCount=%d", ErrOperatorCount, n, m, notCount)
	}
	return nil
}

// CountNots returns how many of ops are Not.
func CountNots(ops []LogicalOp) int {
	c := 0
	for _, o := range ops {
		if o == Not {
			c++
		}
	}
	return c
}

// Row is anything that can be asked for a named field's value; the table
// store's record.Row satisfies this directly via a map conversion at the
// call site, and the join executor supplies a combined map of its own.
type Row map[string]value.Value

// Evaluate tests row against p. An empty condition list matches every row.
//
// NOT occupies an operator slot rather than fusing into a condition: when
// it is the very first operator (no AND/OR has run yet), it negates the
// already-taken first condition's boolean directly; NOTs that directly
// follow an AND/OR negate the condition that AND/OR combines in.
func (p Predicate) Evaluate(row Row) (bool, error) {
	if len(p.Conditions) == 0 {
		return true, nil
	}

	vals := make([]bool, len(p.Conditions))
	for i, c := range p.Conditions {
		b, err := evalCondition(c, row)
		if err != nil {
			return false, err
		}
		vals[i] = b
	}

	acc := vals[0]
	idx := 1
	negate := false
	firstApplied := false

	for i := 0; i < len(p.Operators); i++ {
		op := p.Operators[i]
		if op == And || op == Or {
			for i+1 < len(p.Operators) && p.Operators[i+1] == Not {
				negate = !negate
				i++
			}
		}
		switch op {
		case Not:
			if idx == 1 && !firstApplied {
				acc = !acc
				firstApplied = true
				continue
			}
			negate = !negate
		case And:
			firstApplied = true
			b := vals[idx]
			idx++
			if negate {
				b = !b
				negate = false
			}
			acc = acc && b
		case Or:
			firstApplied = true
			b := vals[idx]
			idx++
			if negate {
				b = !b
				negate = false
			}
			acc = acc || b
		}
	}
	return acc, nil
}

func evalCondition(c Condition, row Row) (bool, error) {
	got, ok := row[c.Column]
	if !ok {
		return false, nil
	}
	return value.Compare(got, c.Value, c.Op)
}
