// Package render turns one transform template plus bound arguments into a
// SQL fragment. It wires the Starlark execution context with the pure
// helpers and the warehouse-bound helpers (get_columns, run_query) before
// handing the body to the template engine.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqlchain/internal/catalog"
	starctx "github.com/leapstack-labs/sqlchain/internal/starlark"
	"github.com/leapstack-labs/sqlchain/internal/template"
	"github.com/leapstack-labs/sqlchain/internal/warehouse"
)

// ApplyTemplate is the reserved template whose body comes from the caller's
// sql argument instead of the catalog.
const ApplyTemplate = "apply"

// Input is one transform rendering request.
type Input struct {
	Template    catalog.TransformTemplate
	Args        map[string]any
	SourceTable string // table or chain alias the fragment selects from
	RunningSQL  string // collapsed SQL of prior chain steps, empty at the entry
}

// SQL renders the transform to a SQL fragment. Every failure surfaces as a
// *RenderingError wrapping the cause; an empty rendered body is a failure.
func SQL(ctx context.Context, in Input, wh warehouse.Warehouse, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	body := in.Template.Body
	if in.Template.Name == ApplyTemplate {
		raw, ok := in.Args["sql"].(string)
		if !ok || strings.TrimSpace(raw) == "" {
			return "", &RenderingError{
				Template: in.Template.Name,
				Cause:    fmt.Errorf("apply requires a non-empty sql argument"),
			}
		}
		body = raw
	}

	args := make(map[string]any, len(in.Args)+1)
	for k, v := range in.Args {
		args[k] = v
	}
	args["source_table"] = in.SourceTable

	helpers := starctx.PureHelpers()
	for name, fn := range warehouseHelpers(ctx, wh, in.SourceTable, in.RunningSQL, logger) {
		helpers[name] = fn
	}

	execCtx, err := starctx.NewExecutionContext(args, helpers)
	if err != nil {
		return "", &RenderingError{Template: in.Template.Name, Cause: err}
	}

	out, err := template.RenderString(body, in.Template.Name+".sql", execCtx)
	if err != nil {
		return "", &RenderingError{Template: in.Template.Name, Cause: err}
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", &RenderingError{
			Template: in.Template.Name,
			Cause:    fmt.Errorf("template produced no SQL"),
		}
	}

	logger.Debug("rendered transform", "template", in.Template.Name, "source_table", in.SourceTable, "bytes", len(out))
	return out, nil
}

// RenderingError wraps any failure while rendering a transform.
type RenderingError struct {
	Template string
	Cause    error
}

func (e *RenderingError) Error() string {
	return fmt.Sprintf("failed to render transform %q: %v", e.Template, e.Cause)
}

func (e *RenderingError) Unwrap() error { return e.Cause }
