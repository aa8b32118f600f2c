package starlark

import (
	"fmt"

	"github.com/leapstack-labs/sqlchain/pkg/identifier"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// TemplateException is raised by the raise_exception helper to surface a
// template-authored failure to the caller.
type TemplateException struct {
	Message string
}

func (e *TemplateException) Error() string { return e.Message }

// PureHelpers returns the helper functions that need no warehouse connection:
// cleanse_name, raise_exception and the itertools namespace.
func PureHelpers() starlark.StringDict {
	return starlark.StringDict{
		"cleanse_name":    starlark.NewBuiltin("cleanse_name", cleanseNameBuiltin),
		"raise_exception": starlark.NewBuiltin("raise_exception", raiseExceptionBuiltin),
		"itertools":       itertoolsModule(),
	}
}

func cleanseNameBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var symbol starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &symbol); err != nil {
		return nil, err
	}
	return starlark.String(identifier.CleanseName(valueToString(symbol))), nil
}

func raiseExceptionBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var message starlark.Value
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &message); err != nil {
		return nil, err
	}
	return nil, &TemplateException{Message: valueToString(message)}
}

// valueToString renders a Starlark value as plain text, without the quotes
// String() puts around starlark.String.
func valueToString(v starlark.Value) string {
	if s, ok := v.(starlark.String); ok {
		return string(s)
	}
	return v.String()
}

// itertoolsModule exposes combinatorics helpers to templates that generate
// repeated SQL fragments over column lists.
func itertoolsModule() starlark.Value {
	return starlarkstruct.FromStringDict(starlark.String("itertools"), starlark.StringDict{
		"combinations": starlark.NewBuiltin("itertools.combinations", combinationsBuiltin),
		"permutations": starlark.NewBuiltin("itertools.permutations", permutationsBuiltin),
		"product":      starlark.NewBuiltin("itertools.product", productBuiltin),
	})
}

func combinationsBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var iterable starlark.Iterable
	var r int
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &iterable, &r); err != nil {
		return nil, err
	}
	items, err := collect(iterable)
	if err != nil {
		return nil, err
	}
	if r < 0 {
		return nil, fmt.Errorf("%s: r must be non-negative", b.Name())
	}

	var out []starlark.Value
	var walk func(start int, picked []starlark.Value)
	walk = func(start int, picked []starlark.Value) {
		if len(picked) == r {
			out = append(out, starlark.Tuple(append([]starlark.Value(nil), picked...)))
			return
		}
		for i := start; i < len(items); i++ {
			walk(i+1, append(picked, items[i]))
		}
	}
	walk(0, nil)
	return starlark.NewList(out), nil
}

func permutationsBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var iterable starlark.Iterable
	r := -1
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &iterable, &r); err != nil {
		return nil, err
	}
	items, err := collect(iterable)
	if err != nil {
		return nil, err
	}
	if r < 0 {
		r = len(items)
	}

	var out []starlark.Value
	used := make([]bool, len(items))
	var walk func(picked []starlark.Value)
	walk = func(picked []starlark.Value) {
		if len(picked) == r {
			out = append(out, starlark.Tuple(append([]starlark.Value(nil), picked...)))
			return
		}
		for i := range items {
			if used[i] {
				continue
			}
			used[i] = true
			walk(append(picked, items[i]))
			used[i] = false
		}
	}
	walk(nil)
	return starlark.NewList(out), nil
}

func productBuiltin(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
	}
	pools := make([][]starlark.Value, len(args))
	for i, arg := range args {
		iterable, ok := arg.(starlark.Iterable)
		if !ok {
			return nil, fmt.Errorf("%s: argument %d is not iterable", b.Name(), i+1)
		}
		items, err := collect(iterable)
		if err != nil {
			return nil, err
		}
		pools[i] = items
	}

	var out []starlark.Value
	var walk func(depth int, picked []starlark.Value)
	walk = func(depth int, picked []starlark.Value) {
		if depth == len(pools) {
			out = append(out, starlark.Tuple(append([]starlark.Value(nil), picked...)))
			return
		}
		for _, item := range pools[depth] {
			walk(depth+1, append(picked, item))
		}
	}
	walk(0, nil)
	return starlark.NewList(out), nil
}

func collect(iterable starlark.Iterable) ([]starlark.Value, error) {
	iter := iterable.Iterate()
	defer iter.Done()

	var items []starlark.Value
	var v starlark.Value
	for iter.Next(&v) {
		items = append(items, v)
	}
	return items, nil
}
