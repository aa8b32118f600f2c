package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.starlark.net/starlark"

	starctx "github.com/leapstack-labs/sqlchain/internal/starlark"
	"github.com/leapstack-labs/sqlchain/internal/warehouse"
	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

// runQueryRowCap bounds how many rows a template may pull into memory.
const runQueryRowCap = 100

// warehouseHelpers builds the helper closures that need a live warehouse:
// get_columns and run_query. Both understand mid-chain state: when running
// SQL is present the source table is a chain alias that exists nowhere, so
// the running SQL is materialized as a scratch view for the duration of the
// call.
func warehouseHelpers(ctx context.Context, wh warehouse.Warehouse, sourceTable, runningSQL string, logger *slog.Logger) starlark.StringDict {
	h := &helperState{
		ctx:         ctx,
		wh:          wh,
		sourceTable: sourceTable,
		runningSQL:  runningSQL,
		logger:      logger,
	}
	return starlark.StringDict{
		"get_columns": starlark.NewBuiltin("get_columns", h.getColumns),
		"run_query":   starlark.NewBuiltin("run_query", h.runQuery),
	}
}

type helperState struct {
	ctx         context.Context
	wh          warehouse.Warehouse
	sourceTable string
	runningSQL  string
	logger      *slog.Logger
}

// midChain reports whether the helper call is made against in-memory chain
// state. Any running SQL means the source table is a chain alias, generated
// or user-named, so warehouse lookups must go through a scratch view.
func (h *helperState) midChain() bool {
	return h.runningSQL != ""
}

func (h *helperState) resolve(name string) (string, error) {
	ns, err := h.wh.Scheme().MakeNamespace(h.wh.DefaultNamespace())
	if err != nil {
		return "", fmt.Errorf("warehouse has no usable default namespace: %w", err)
	}
	return h.wh.Scheme().ResolveIdentifier(name, ns)
}

// getColumns returns a dict of column name to type for a table reference.
func (h *helperState) getColumns(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var ref string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &ref); err != nil {
		return nil, err
	}

	var (
		cols []warehouse.Column
		err  error
	)
	if h.midChain() {
		scratch, rerr := h.resolve(identifier.RandomAlias())
		if rerr != nil {
			return nil, rerr
		}
		h.logger.Debug("profiling chain state through scratch view", "ref", ref, "view", scratch)
		cols, err = h.wh.GetSchema(h.ctx, scratch, h.runningSQL)
	} else {
		fqtn, rerr := h.resolve(ref)
		if rerr != nil {
			return nil, rerr
		}
		cols, err = h.wh.GetSchema(h.ctx, fqtn, "")
	}
	if err != nil {
		return nil, fmt.Errorf("get_columns(%q): %w", ref, err)
	}

	dict := starlark.NewDict(len(cols))
	for _, col := range cols {
		if err := dict.SetKey(starlark.String(col.Name), starlark.String(col.Type)); err != nil {
			return nil, err
		}
	}
	return dict, nil
}

// runQuery executes a query capped at 100 rows and returns the rows as a
// list of dicts. Mid-chain, the running SQL is materialized as a scratch
// view first and the view is dropped again no matter how the query ends.
func (h *helperState) runQuery(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (_ starlark.Value, err error) {
	var query string
	if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &query); err != nil {
		return nil, err
	}

	if h.midChain() {
		scratch, rerr := h.resolve(identifier.RandomAlias())
		if rerr != nil {
			return nil, rerr
		}

		// The running SQL may legitimately mention gated keywords in
		// literals; this statement is ours, so the gate does not apply.
		create := fmt.Sprintf("CREATE VIEW %s AS %s LIMIT %d", scratch, h.runningSQL, runQueryRowCap)
		if _, cerr := h.wh.ExecuteQuery(h.ctx, create, warehouse.FormatNone, true); cerr != nil {
			return nil, fmt.Errorf("run_query: failed to materialize chain state: %w", cerr)
		}
		defer func() {
			// The scratch view must not outlive the call, even on failure.
			if _, derr := h.wh.ExecuteQuery(h.ctx, "DROP VIEW "+scratch, warehouse.FormatNone, true); derr != nil && err == nil {
				err = fmt.Errorf("run_query: failed to drop scratch view %s: %w", scratch, derr)
			}
		}()

		query = strings.ReplaceAll(query, h.sourceTable, scratch)
	}

	result, qerr := h.wh.Preview(h.ctx, query, runQueryRowCap)
	if qerr != nil {
		return nil, fmt.Errorf("run_query: %w", qerr)
	}

	rows := make([]starlark.Value, 0, len(result.Rows))
	for _, m := range result.AsMaps() {
		sv, cerr := starctx.GoToStarlark(normalizeRow(m))
		if cerr != nil {
			return nil, fmt.Errorf("run_query: %w", cerr)
		}
		rows = append(rows, sv)
	}
	return starlark.NewList(rows), err
}

// normalizeRow coerces driver-specific scalar types into the set the
// Starlark converter accepts.
func normalizeRow(row map[string]any) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		switch val := v.(type) {
		case int8:
			out[k] = int64(val)
		case int16:
			out[k] = int64(val)
		case int32:
			out[k] = int64(val)
		case uint32:
			out[k] = int64(val)
		case float32:
			out[k] = float64(val)
		case time.Time:
			out[k] = val.Format(time.RFC3339)
		default:
			out[k] = v
		}
	}
	return out
}
