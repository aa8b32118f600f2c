package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

// introspector answers catalog questions the portable way the dialect
// supports. duckdb and postgres share the information_schema implementation;
// sqlite brings its own.
type introspector interface {
	// Columns profiles an existing object.
	Columns(ctx context.Context, db *sql.DB, ident identifier.Identifier) ([]Column, error)

	// Details reports existence and object type.
	Details(ctx context.Context, db *sql.DB, ident identifier.Identifier) (TableType, bool, error)

	// List returns the tables and views of a namespace.
	List(ctx context.Context, db *sql.DB, database, schema string) (*Result, error)
}

// baseWarehouse carries the shared database/sql behavior. Concrete
// warehouses embed it and add Connect plus any dialect-specific overrides.
type baseWarehouse struct {
	db         *sql.DB
	dialect    string
	scheme     identifier.Scheme
	logger     *slog.Logger
	introspect introspector

	mu        sync.RWMutex
	defaultNS identifier.Namespace
}

func newBase(dialect string, scheme identifier.Scheme, logger *slog.Logger, in introspector) baseWarehouse {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return baseWarehouse{
		dialect:    dialect,
		scheme:     scheme,
		logger:     logger,
		introspect: in,
	}
}

// Close closes the database connection.
func (b *baseWarehouse) Close() error {
	if b.db != nil {
		b.logger.Debug("closing warehouse connection", "dialect", b.dialect)
		return b.db.Close()
	}
	return nil
}

// Dialect returns the dialect name.
func (b *baseWarehouse) Dialect() string { return b.dialect }

// Scheme returns the identifier scheme of the dialect.
func (b *baseWarehouse) Scheme() identifier.Scheme { return b.scheme }

// DefaultNamespace returns the namespace unqualified names resolve into.
func (b *baseWarehouse) DefaultNamespace() identifier.Namespace {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.defaultNS
}

// SetDefaultNamespace changes the default namespace for later operations.
func (b *baseWarehouse) SetDefaultNamespace(ns identifier.Namespace) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.defaultNS = ns
}

// ExecuteQuery runs SQL and shapes the result per format. The scary-SQL gate
// runs before the connection is touched.
func (b *baseWarehouse) ExecuteQuery(ctx context.Context, sqlStr string, format ResponseFormat, acknowledgeRisk bool) (*Result, error) {
	if !acknowledgeRisk {
		if keywords := ScaryKeywords(sqlStr); len(keywords) > 0 {
			return nil, &ScarySQLError{Keywords: keywords}
		}
	}

	if format == FormatNone {
		return nil, b.exec(ctx, sqlStr)
	}
	return b.query(ctx, sqlStr)
}

// Preview runs sql capped at limit rows.
func (b *baseWarehouse) Preview(ctx context.Context, sqlStr string, limit int) (*Result, error) {
	capped := fmt.Sprintf("SELECT * FROM (%s) AS preview_q LIMIT %d", strings.TrimRight(strings.TrimSpace(sqlStr), ";"), limit)
	return b.query(ctx, capped)
}

// Create materializes sql as fqtn, replacing an existing object only when
// overwrite is set.
func (b *baseWarehouse) Create(ctx context.Context, sqlStr, fqtn string, tableType TableType, overwrite bool) error {
	details, err := b.ObjectDetails(ctx, fqtn)
	if err != nil {
		return err
	}
	if details.Exists {
		if !overwrite {
			return &TableConflictError{FQTN: fqtn}
		}
		drop := fmt.Sprintf("DROP %s %s", strings.ToUpper(string(details.TableType)), fqtn)
		if err := b.exec(ctx, drop); err != nil {
			return fmt.Errorf("failed to drop existing object %s: %w", fqtn, err)
		}
	}

	b.logger.Debug("creating object", "fqtn", fqtn, "type", tableType)
	create := fmt.Sprintf("CREATE %s %s AS %s", strings.ToUpper(string(tableType)), fqtn, sqlStr)
	if err := b.exec(ctx, create); err != nil {
		return fmt.Errorf("failed to create %s %s: %w", tableType, fqtn, err)
	}
	return nil
}

// ObjectDetails probes existence, type and management of fqtn.
func (b *baseWarehouse) ObjectDetails(ctx context.Context, fqtn string) (*ObjectDetails, error) {
	ident, err := b.parse(fqtn)
	if err != nil {
		return nil, err
	}

	tableType, exists, err := b.introspect.Details(ctx, b.db, ident)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s: %w", fqtn, err)
	}

	return &ObjectDetails{
		FQTN:      fqtn,
		Exists:    exists,
		TableType: tableType,
		Managed:   identifier.HasAliasMarker(ident.Table),
	}, nil
}

// GetSchema profiles the columns of fqtn. With createSQL and a not yet
// materialized object, the SQL is created as a scratch view first and
// dropped again afterwards, success or failure. An object that already
// exists is profiled as is.
func (b *baseWarehouse) GetSchema(ctx context.Context, fqtn, createSQL string) (cols []Column, err error) {
	ident, perr := b.parse(fqtn)
	if perr != nil {
		return nil, perr
	}

	if createSQL != "" {
		details, derr := b.ObjectDetails(ctx, fqtn)
		if derr != nil {
			return nil, derr
		}
		if !details.Exists {
			create := fmt.Sprintf("CREATE VIEW %s AS %s", fqtn, createSQL)
			if err := b.exec(ctx, create); err != nil {
				return nil, fmt.Errorf("failed to create scratch view %s: %w", fqtn, err)
			}
			defer func() {
				if dropErr := b.exec(ctx, "DROP VIEW "+fqtn); dropErr != nil && err == nil {
					err = fmt.Errorf("failed to drop scratch view %s: %w", fqtn, dropErr)
				}
			}()
		}
	}

	cols, err = b.introspect.Columns(ctx, b.db, ident)
	if err != nil {
		return nil, fmt.Errorf("failed to profile %s: %w", fqtn, err)
	}
	return cols, err
}

// ListTables lists the tables and views of a namespace.
func (b *baseWarehouse) ListTables(ctx context.Context, database, schema string) (*Result, error) {
	if b.db == nil {
		return nil, fmt.Errorf("warehouse connection not established")
	}
	return b.introspect.List(ctx, b.db, database, schema)
}

func (b *baseWarehouse) parse(fqtn string) (identifier.Identifier, error) {
	// A fully qualified name needs no fill, so a missing default namespace
	// only matters for partial inputs and surfaces from ParseIdentifier.
	nsText, err := b.scheme.MakeNamespace(b.DefaultNamespace())
	if err != nil {
		nsText = ""
	}
	return b.scheme.ParseIdentifier(fqtn, nsText, false)
}

func (b *baseWarehouse) exec(ctx context.Context, sqlStr string) error {
	if b.db == nil {
		return fmt.Errorf("warehouse connection not established")
	}
	b.logger.Debug("executing statement", "sql", sqlStr)
	if _, err := b.db.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

func (b *baseWarehouse) query(ctx context.Context, sqlStr string) (*Result, error) {
	if b.db == nil {
		return nil, fmt.Errorf("warehouse connection not established")
	}
	b.logger.Debug("executing query", "sql", sqlStr)

	rows, err := b.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectResult(rows)
}

// collectResult drains rows into a Result.
func collectResult(rows *sql.Rows) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		for i, v := range values {
			// Drivers hand back []byte for text columns; normalize.
			if raw, ok := v.([]byte); ok {
				values[i] = string(raw)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result rows: %w", err)
	}
	return result, nil
}
