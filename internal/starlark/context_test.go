package starlark

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestExecutionContext_EvalExpr(t *testing.T) {
	ctx, err := NewExecutionContext(map[string]any{
		"name":  "orders",
		"limit": 10,
	}, nil)
	require.NoError(t, err)

	v, err := ctx.EvalExpr(`name.upper()`, "test.sql", 3)
	require.NoError(t, err)
	assert.Equal(t, starlark.String("ORDERS"), v)

	v, err = ctx.EvalExpr(`limit * 2`, "test.sql", 4)
	require.NoError(t, err)
	assert.Equal(t, starlark.MakeInt(20), v)
}

func TestExecutionContext_HelpersShadowArgs(t *testing.T) {
	helpers := starlark.StringDict{
		"cleanse_name": starlark.NewBuiltin("cleanse_name", cleanseNameBuiltin),
	}
	ctx, err := NewExecutionContext(map[string]any{
		"cleanse_name": "not a function",
	}, helpers)
	require.NoError(t, err)

	v, err := ctx.EvalExpr(`cleanse_name("a b")`, "test.sql", 1)
	require.NoError(t, err)
	assert.Equal(t, starlark.String("A_B"), v)
}

func TestExecutionContext_EvalError(t *testing.T) {
	ctx, err := NewExecutionContext(nil, nil)
	require.NoError(t, err)

	_, err = ctx.EvalExpr(`missing_var`, "rename.sql", 7)
	require.Error(t, err)

	var ee *EvalError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "rename.sql", ee.File)
	assert.Equal(t, 7, ee.Line)
	assert.Equal(t, "missing_var", ee.Expr)
	assert.Contains(t, ee.Error(), "rename.sql:7")
}

func TestExecutionContext_Locals(t *testing.T) {
	ctx, err := NewExecutionContext(map[string]any{"prefix": "col"}, nil)
	require.NoError(t, err)

	out, err := ctx.EvalExprStringWithLocals(`prefix + "_" + item`, "test.sql", 1, starlark.StringDict{
		"item": starlark.String("a"),
	})
	require.NoError(t, err)
	assert.Equal(t, "col_a", out)

	// Locals do not leak back into the context.
	_, err = ctx.EvalExpr(`item`, "test.sql", 2)
	assert.Error(t, err)
}

func TestExecutionContext_StringResultUnquoted(t *testing.T) {
	ctx, err := NewExecutionContext(map[string]any{"col": "AMOUNT"}, nil)
	require.NoError(t, err)

	out, err := ctx.EvalExprStringWithLocals(`col`, "test.sql", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "AMOUNT", out)
}

func TestExecutionContext_NoneRendersEmpty(t *testing.T) {
	ctx, err := NewExecutionContext(nil, nil)
	require.NoError(t, err)

	out, err := ctx.EvalExprStringWithLocals(`None`, "test.sql", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestNewExecutionContext_UnsupportedArg(t *testing.T) {
	_, err := NewExecutionContext(map[string]any{"bad": struct{}{}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `argument "bad"`)
}
