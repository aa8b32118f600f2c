package template

import (
	"fmt"
	"strings"

	starctx "github.com/leapstack-labs/sqlchain/internal/starlark"
	"go.starlark.net/starlark"
)

// Renderer evaluates a parsed template against an execution context.
type Renderer struct {
	ctx *starctx.ExecutionContext
	out strings.Builder
}

// RenderString parses and renders a template in one step.
func RenderString(input, file string, ctx *starctx.ExecutionContext) (string, error) {
	tmpl, err := ParseString(input, file)
	if err != nil {
		return "", err
	}
	return Render(tmpl, ctx)
}

// Render evaluates a parsed template and returns the produced text.
func Render(tmpl *Template, ctx *starctx.ExecutionContext) (string, error) {
	r := &Renderer{ctx: ctx}
	if err := r.renderNodes(tmpl.Nodes, tmpl.File, nil); err != nil {
		return "", err
	}
	return r.out.String(), nil
}

// renderNodes walks a node list with the given local bindings. Bindings made
// inside a block (loop variables, set assignments) stay scoped to it.
func (r *Renderer) renderNodes(nodes []Node, file string, locals starlark.StringDict) error {
	for _, node := range nodes {
		switch n := node.(type) {
		case *TextNode:
			r.out.WriteString(n.Text)

		case *ExprNode:
			text, err := r.ctx.EvalExprStringWithLocals(n.Expr, file, n.Pos().Line, locals)
			if err != nil {
				return WrapRenderError(n.Pos(), "expression failed", err)
			}
			r.out.WriteString(text)

		case *SetNode:
			value, err := r.ctx.EvalExprWithLocals(n.Expr, file, n.Pos().Line, locals)
			if err != nil {
				return WrapRenderError(n.Pos(), "set failed", err)
			}
			if locals == nil {
				locals = make(starlark.StringDict, 1)
			}
			locals[n.Name] = value

		case *ForBlock:
			if err := r.renderFor(n, file, locals); err != nil {
				return err
			}

		case *IfBlock:
			if err := r.renderIf(n, file, locals); err != nil {
				return err
			}

		default:
			return NewRenderErrorf(node.Pos(), "unexpected node type %T", node)
		}
	}
	return nil
}

func (r *Renderer) renderFor(block *ForBlock, file string, locals starlark.StringDict) error {
	value, err := r.ctx.EvalExprWithLocals(block.IterExpr, file, block.Pos().Line, locals)
	if err != nil {
		return WrapRenderError(block.Pos(), "loop iterator failed", err)
	}

	iterable, ok := value.(starlark.Iterable)
	if !ok {
		return NewRenderErrorf(block.Pos(), "cannot iterate over %s value in for loop", value.Type())
	}

	iter := iterable.Iterate()
	defer iter.Done()

	var elem starlark.Value
	for iter.Next(&elem) {
		scope := cloneLocals(locals, len(block.VarNames))
		if err := bindLoopVars(scope, block.VarNames, elem); err != nil {
			return WrapRenderError(block.Pos(), "loop variable binding failed", err)
		}
		if err := r.renderNodes(block.Body, file, scope); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderIf(block *IfBlock, file string, locals starlark.StringDict) error {
	cond, err := r.ctx.EvalExprWithLocals(block.Condition, file, block.Pos().Line, locals)
	if err != nil {
		return WrapRenderError(block.Pos(), "condition failed", err)
	}
	if bool(cond.Truth()) {
		return r.renderNodes(block.Body, file, cloneLocals(locals, 0))
	}

	for _, branch := range block.ElseIfs {
		cond, err := r.ctx.EvalExprWithLocals(branch.Condition, file, branch.pos.Line, locals)
		if err != nil {
			return WrapRenderError(branch.pos, "condition failed", err)
		}
		if bool(cond.Truth()) {
			return r.renderNodes(branch.Body, file, cloneLocals(locals, 0))
		}
	}

	if block.Else != nil {
		return r.renderNodes(block.Else, file, cloneLocals(locals, 0))
	}
	return nil
}

// bindLoopVars assigns the current element to the loop variables. With more
// than one variable the element is unpacked, as in for name, type in items.
func bindLoopVars(scope starlark.StringDict, names []string, elem starlark.Value) error {
	if len(names) == 1 {
		scope[names[0]] = elem
		return nil
	}

	iterable, ok := elem.(starlark.Iterable)
	if !ok {
		return fmt.Errorf("cannot unpack %s value into %d variables", elem.Type(), len(names))
	}

	iter := iterable.Iterate()
	defer iter.Done()

	var v starlark.Value
	for i, name := range names {
		if !iter.Next(&v) {
			return fmt.Errorf("not enough values to unpack (expected %d, got %d)", len(names), i)
		}
		scope[name] = v
	}
	if iter.Next(&v) {
		return fmt.Errorf("too many values to unpack (expected %d)", len(names))
	}
	return nil
}

func cloneLocals(locals starlark.StringDict, extra int) starlark.StringDict {
	scope := make(starlark.StringDict, len(locals)+extra)
	for k, v := range locals {
		scope[k] = v
	}
	return scope
}
