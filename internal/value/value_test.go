package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompare_MismatchedTagsAlwaysFalse(t *testing.T) {
	a := Int(5)
	b := String("5")

	for _, op := range []Op{OpEq, OpNe, OpLt, OpLe, OpGt, OpGe} {
		ok, err := Compare(a, b, op)
		require.NoError(t, err)
		require.False(t, ok, "op=%v should be false for mismatched tags", op)
	}
}

func TestCompare_IntOrdering(t *testing.T) {
	ok, err := Compare(Int(3), Int(5), OpLt)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Compare(Int(5), Int(5), OpEq)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCompare_BoolOnlySupportsEquality(t *testing.T) {
	ok, err := Compare(Bool(true), Bool(true), OpEq)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = Compare(Bool(true), Bool(false), OpLt)
	require.ErrorIs(t, err, ErrUnsupportedOp)
}

func TestCompare_StringLexicographic(t *testing.T) {
	ok, err := Compare(String("alice"), String("bob"), OpLt)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestZero(t *testing.T) {
	require.Equal(t, Int(0), Zero(KindInt))
	require.Equal(t, Bool(false), Zero(KindBool))
}
