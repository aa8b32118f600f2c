package starlark

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

func TestGoToStarlark(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want starlark.Value
	}{
		{"string", "hello", starlark.String("hello")},
		{"int", 42, starlark.MakeInt(42)},
		{"int64", int64(1 << 40), starlark.MakeInt64(1 << 40)},
		{"float", 3.5, starlark.Float(3.5)},
		{"bool", true, starlark.Bool(true)},
		{"nil", nil, starlark.None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GoToStarlark(tt.in)
			require.NoError(t, err)
			// reflect.DeepEqual compares starlark.Int's internal pointer
			// representation, so compare type and printed value instead.
			assert.IsType(t, tt.want, got)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}

func TestGoToStarlark_StringSlice(t *testing.T) {
	v, err := GoToStarlark([]string{"a", "b"})
	require.NoError(t, err)

	list, ok := v.(*starlark.List)
	require.True(t, ok)
	require.Equal(t, 2, list.Len())
	assert.Equal(t, starlark.String("a"), list.Index(0))
	assert.Equal(t, starlark.String("b"), list.Index(1))
}

func TestGoToStarlark_NestedMap(t *testing.T) {
	v, err := GoToStarlark(map[string]any{
		"casts": map[string]string{"DATE": "STRING"},
		"cols":  []any{"A", 2},
	})
	require.NoError(t, err)

	back, err := ToGo(v)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"casts": map[string]any{"DATE": "STRING"},
		"cols":  []any{"A", int64(2)},
	}, back)
}

func TestGoToStarlark_Unsupported(t *testing.T) {
	_, err := GoToStarlark(make(chan int))
	assert.Error(t, err)
}

func TestToGo_Tuple(t *testing.T) {
	got, err := ToGo(starlark.Tuple{starlark.String("x"), starlark.MakeInt(1)})
	require.NoError(t, err)
	assert.Equal(t, []any{"x", int64(1)}, got)
}

func TestToGo_NonStringDictKey(t *testing.T) {
	d := starlark.NewDict(1)
	require.NoError(t, d.SetKey(starlark.MakeInt(1), starlark.String("v")))

	_, err := ToGo(d)
	assert.Error(t, err)
}
