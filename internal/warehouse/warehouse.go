// Package warehouse provides database warehouse connections for executing
// rendered transform SQL. Concrete warehouses register themselves by dialect
// name and are constructed from config via the registry.
package warehouse

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

// ResponseFormat selects how ExecuteQuery shapes its result.
type ResponseFormat string

// ResponseFormat values.
const (
	FormatTuple ResponseFormat = "tuple" // column names plus positional rows
	FormatRows  ResponseFormat = "rows"  // rows as maps keyed by column name
	FormatTable ResponseFormat = "table" // pretty-printed table
	FormatNone  ResponseFormat = "none"  // execute only, discard any rows
)

// CheckResponseFormat validates a response format string.
func CheckResponseFormat(s string) (ResponseFormat, error) {
	switch f := ResponseFormat(s); f {
	case FormatTuple, FormatRows, FormatTable, FormatNone:
		return f, nil
	default:
		return "", fmt.Errorf("invalid response format %q (want tuple, rows, table or none)", s)
	}
}

// TableType classifies a warehouse object.
type TableType string

// TableType values.
const (
	TableTypeTable   TableType = "table"
	TableTypeView    TableType = "view"
	TableTypeUnknown TableType = "unknown"
)

// CheckWriteTableType validates a type used for materialization.
func CheckWriteTableType(s string) (TableType, error) {
	switch t := TableType(s); t {
	case TableTypeTable, TableTypeView:
		return t, nil
	default:
		return "", fmt.Errorf("invalid table type %q (want table or view)", s)
	}
}

// Column describes one column of a warehouse object.
type Column struct {
	Name string
	Type string
}

// ObjectDetails is the result of probing a warehouse object.
type ObjectDetails struct {
	FQTN      string
	Exists    bool
	TableType TableType
	// Managed reports whether the object carries the chain marker prefix,
	// meaning this module created it.
	Managed bool
}

// Config holds the connection settings for one warehouse target.
type Config struct {
	Type     string // dialect name: duckdb, postgres, sqlite
	Path     string // file path for embedded engines
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Schema   string
}

// Warehouse is the contract the chain layer renders and executes against.
type Warehouse interface {
	// Connect establishes the connection and fixes the default namespace.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the connection.
	Close() error

	// ExecuteQuery runs SQL and shapes the result per format. Statements
	// containing write/DDL keywords fail fast unless acknowledgeRisk is set.
	ExecuteQuery(ctx context.Context, sql string, format ResponseFormat, acknowledgeRisk bool) (*Result, error)

	// GetSchema profiles the columns of fqtn. When createSQL is non-empty the
	// object does not exist yet: it is created as a view, profiled and
	// dropped again.
	GetSchema(ctx context.Context, fqtn, createSQL string) ([]Column, error)

	// Create materializes sql as fqtn. Errors if the object exists and
	// overwrite is false.
	Create(ctx context.Context, sql, fqtn string, tableType TableType, overwrite bool) error

	// ObjectDetails probes existence, type and management of fqtn.
	ObjectDetails(ctx context.Context, fqtn string) (*ObjectDetails, error)

	// Preview runs sql capped at limit rows.
	Preview(ctx context.Context, sql string, limit int) (*Result, error)

	// ListTables lists the tables and views of a namespace.
	ListTables(ctx context.Context, database, schema string) (*Result, error)

	// Scheme returns the identifier scheme of the dialect.
	Scheme() identifier.Scheme

	// Dialect returns the dialect name used for template resolution.
	Dialect() string

	// DefaultNamespace returns the namespace unqualified names resolve into.
	DefaultNamespace() identifier.Namespace

	// SetDefaultNamespace changes the default namespace for later operations.
	SetDefaultNamespace(ns identifier.Namespace)
}

// Result is a tabular query result.
type Result struct {
	Columns []string
	Rows    [][]any
}

// AsMaps returns the rows keyed by column name.
func (r *Result) AsMaps() []map[string]any {
	maps := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		m := make(map[string]any, len(r.Columns))
		for j, col := range r.Columns {
			if j < len(row) {
				m[col] = row[j]
			}
		}
		maps[i] = m
	}
	return maps
}

// String renders the result as a text table.
func (r *Result) String() string {
	w := table.NewWriter()

	header := make(table.Row, len(r.Columns))
	for i, col := range r.Columns {
		header[i] = col
	}
	w.AppendHeader(header)

	for _, row := range r.Rows {
		w.AppendRow(table.Row(row))
	}
	return w.Render()
}
