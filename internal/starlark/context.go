// Package starlark provides the Starlark execution context used when
// rendering transform templates. Template expressions are evaluated against
// the transform's bound arguments plus a fixed set of injected helper
// functions (cleanse_name, raise_exception, get_columns, run_query and the
// itertools namespace).
package starlark

import (
	"fmt"

	"go.starlark.net/starlark"
)

// ExecutionContext carries the globals for one template rendering: the bound
// transform arguments and the injected helper functions. Helpers always win
// over arguments so a template cannot shadow run_query with an argument.
type ExecutionContext struct {
	args    starlark.StringDict
	helpers starlark.StringDict
	globals starlark.StringDict
}

// NewExecutionContext builds a context from bound arguments and helper
// functions. Argument values are converted from Go to Starlark; unsupported
// value types are an error.
func NewExecutionContext(args map[string]any, helpers starlark.StringDict) (*ExecutionContext, error) {
	converted := make(starlark.StringDict, len(args))
	for name, value := range args {
		sv, err := GoToStarlark(value)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		converted[name] = sv
	}

	ctx := &ExecutionContext{
		args:    converted,
		helpers: helpers,
	}
	ctx.globals = make(starlark.StringDict, len(converted)+len(helpers))
	for k, v := range converted {
		ctx.globals[k] = v
	}
	for k, v := range helpers {
		ctx.globals[k] = v
	}
	return ctx, nil
}

// Globals returns the combined globals dictionary for Starlark execution.
func (ctx *ExecutionContext) Globals() starlark.StringDict {
	return ctx.globals
}

// EvalExpr evaluates a single Starlark expression and returns the result.
// This backs {{ expr }} template expressions.
func (ctx *ExecutionContext) EvalExpr(expr, filename string, line int) (starlark.Value, error) {
	return ctx.EvalExprWithLocals(expr, filename, line, nil)
}

// EvalExprWithLocals evaluates an expression with additional local variables
// in scope. Used for expressions inside loops where loop variables bind.
func (ctx *ExecutionContext) EvalExprWithLocals(expr, filename string, line int, locals starlark.StringDict) (starlark.Value, error) {
	thread := &starlark.Thread{
		Name: filename,
		Print: func(_ *starlark.Thread, _ string) {
			// Template evaluation does not print.
		},
	}

	globals := ctx.globals
	if len(locals) > 0 {
		combined := make(starlark.StringDict, len(globals)+len(locals))
		for k, v := range globals {
			combined[k] = v
		}
		for k, v := range locals {
			combined[k] = v
		}
		globals = combined
	}

	result, err := starlark.Eval(thread, filename, expr, globals) //nolint:staticcheck // SA1019: will migrate to EvalOptions later
	if err != nil {
		return nil, &EvalError{
			File:    filename,
			Line:    line,
			Expr:    expr,
			Message: err.Error(),
			Cause:   err,
		}
	}
	return result, nil
}

// EvalExprStringWithLocals evaluates an expression and renders the result as
// template output text.
func (ctx *ExecutionContext) EvalExprStringWithLocals(expr, filename string, line int, locals starlark.StringDict) (string, error) {
	result, err := ctx.EvalExprWithLocals(expr, filename, line, locals)
	if err != nil {
		return "", err
	}

	switch v := result.(type) {
	case starlark.String:
		return string(v), nil
	case starlark.NoneType:
		return "", nil
	default:
		return result.String(), nil
	}
}

// EvalError represents an error during Starlark expression evaluation.
type EvalError struct {
	File    string
	Line    int
	Expr    string
	Message string
	Cause   error
}

func (e *EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: error evaluating %q: %s", e.File, e.Line, e.Expr, e.Message)
	}
	return fmt.Sprintf("%s: error evaluating %q: %s", e.File, e.Expr, e.Message)
}

func (e *EvalError) Unwrap() error { return e.Cause }
