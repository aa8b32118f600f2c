package starlark

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func evalWithHelpers(t *testing.T, expr string, args map[string]any) (starlark.Value, error) {
	t.Helper()
	ctx, err := NewExecutionContext(args, PureHelpers())
	require.NoError(t, err)
	return ctx.EvalExpr(expr, "test.sql", 1)
}

func TestCleanseNameBuiltin(t *testing.T) {
	v, err := evalWithHelpers(t, `cleanse_name("My Col-1")`, nil)
	require.NoError(t, err)
	assert.Equal(t, starlark.String("MY_COL_1"), v)
}

func TestCleanseNameBuiltin_NonString(t *testing.T) {
	v, err := evalWithHelpers(t, `cleanse_name(123)`, nil)
	require.NoError(t, err)
	assert.Equal(t, starlark.String("_123"), v)
}

func TestRaiseExceptionBuiltin(t *testing.T) {
	_, err := evalWithHelpers(t, `raise_exception("bad argument combination")`, nil)
	require.Error(t, err)

	var te *TemplateException
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "bad argument combination", te.Message)
}

func TestItertoolsCombinations(t *testing.T) {
	v, err := evalWithHelpers(t, `itertools.combinations(cols, 2)`, map[string]any{
		"cols": []string{"A", "B", "C"},
	})
	require.NoError(t, err)

	got, err := ToGo(v)
	require.NoError(t, err)
	assert.Equal(t, []any{
		[]any{"A", "B"},
		[]any{"A", "C"},
		[]any{"B", "C"},
	}, got)
}

func TestItertoolsPermutations_DefaultR(t *testing.T) {
	v, err := evalWithHelpers(t, `itertools.permutations(["X", "Y"])`, nil)
	require.NoError(t, err)

	got, err := ToGo(v)
	require.NoError(t, err)
	assert.Equal(t, []any{
		[]any{"X", "Y"},
		[]any{"Y", "X"},
	}, got)
}

func TestItertoolsProduct(t *testing.T) {
	v, err := evalWithHelpers(t, `itertools.product(["a", "b"], [1, 2])`, nil)
	require.NoError(t, err)

	got, err := ToGo(v)
	require.NoError(t, err)
	assert.Equal(t, []any{
		[]any{"a", int64(1)},
		[]any{"a", int64(2)},
		[]any{"b", int64(1)},
		[]any{"b", int64(2)},
	}, got)
}

func TestItertoolsProduct_Empty(t *testing.T) {
	v, err := evalWithHelpers(t, `itertools.product()`, nil)
	require.NoError(t, err)

	got, err := ToGo(v)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{}}, got)
}
