package planner

import "errors"

// ErrLiteralTypeMismatch is returned when an INSERT value, an UPDATE SET
// value, or a literal in a join's WHERE clause cannot be coerced into the
// declared Kind of the column it targets.
var ErrLiteralTypeMismatch = errors.New("planner: literal type mismatch")
