package chain

import (
	"fmt"
	"strings"
)

// RenderMethod selects how a chain renders to SQL.
type RenderMethod string

// RenderMethod values.
const (
	MethodSelect RenderMethod = "select" // nested CTE statement, no DDL wrapper
	MethodTable  RenderMethod = "table"  // CTE statement wrapped in CREATE OR REPLACE TABLE
	MethodView   RenderMethod = "view"   // CTE statement wrapped in CREATE OR REPLACE VIEW
	MethodViews  RenderMethod = "views"  // one CREATE OR REPLACE VIEW per transform
)

// CheckRenderMethod validates a render method string. The empty string
// defaults to select.
func CheckRenderMethod(s string) (RenderMethod, error) {
	if s == "" {
		return MethodSelect, nil
	}
	switch m := RenderMethod(strings.ToLower(s)); m {
	case MethodSelect, MethodTable, MethodView, MethodViews:
		return m, nil
	default:
		return "", fmt.Errorf("invalid render method %q (want select, table, view or views)", s)
	}
}

// TableState reports whether a Dataset reference is backed by a real
// warehouse object or only exists as chain state in memory.
type TableState string

// TableState values.
const (
	StateUnknown     TableState = "unknown"
	StateInWarehouse TableState = "in warehouse"
	StateInMemory    TableState = "in memory"
)
