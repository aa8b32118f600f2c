package warehouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

// informationSchema answers catalog questions through the standard
// information_schema views. Shared by duckdb and postgres; only the
// placeholder style differs.
type informationSchema struct {
	placeholder func(n int) string
}

func questionPlaceholder(int) string { return "?" }
func dollarPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func (is informationSchema) Columns(ctx context.Context, db *sql.DB, ident identifier.Identifier) ([]Column, error) {
	query := fmt.Sprintf(`
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_catalog = %s AND table_schema = %s AND table_name = %s
		ORDER BY ordinal_position`,
		is.placeholder(1), is.placeholder(2), is.placeholder(3))

	rows, err := db.QueryContext(ctx, query, ident.Database, ident.Schema, ident.Table)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cols []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("object %s not found", ident.Table)
	}
	return cols, nil
}

func (is informationSchema) Details(ctx context.Context, db *sql.DB, ident identifier.Identifier) (TableType, bool, error) {
	query := fmt.Sprintf(`
		SELECT table_type
		FROM information_schema.tables
		WHERE table_catalog = %s AND table_schema = %s AND table_name = %s`,
		is.placeholder(1), is.placeholder(2), is.placeholder(3))

	var rawType string
	err := db.QueryRowContext(ctx, query, ident.Database, ident.Schema, ident.Table).Scan(&rawType)
	if err == sql.ErrNoRows {
		return TableTypeUnknown, false, nil
	}
	if err != nil {
		return TableTypeUnknown, false, err
	}

	switch rawType {
	case "BASE TABLE", "LOCAL TEMPORARY":
		return TableTypeTable, true, nil
	case "VIEW":
		return TableTypeView, true, nil
	default:
		return TableTypeUnknown, true, nil
	}
}

func (is informationSchema) List(ctx context.Context, db *sql.DB, database, schema string) (*Result, error) {
	query := fmt.Sprintf(`
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_catalog = %s AND table_schema = %s
		ORDER BY table_name`,
		is.placeholder(1), is.placeholder(2))

	rows, err := db.QueryContext(ctx, query, database, schema)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectResult(rows)
}

// sqliteMaster answers catalog questions through sqlite_master, since sqlite
// has no information_schema. The database part of identifiers is unused.
type sqliteMaster struct{}

func (sqliteMaster) Columns(ctx context.Context, db *sql.DB, ident identifier.Identifier) ([]Column, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%q)", ident.Table))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var cols []Column
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, Column{Name: name, Type: typ})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("object %s not found", ident.Table)
	}
	return cols, nil
}

func (sqliteMaster) Details(ctx context.Context, db *sql.DB, ident identifier.Identifier) (TableType, bool, error) {
	var rawType string
	err := db.QueryRowContext(ctx,
		"SELECT type FROM sqlite_master WHERE name = ?", ident.Table).Scan(&rawType)
	if err == sql.ErrNoRows {
		return TableTypeUnknown, false, nil
	}
	if err != nil {
		return TableTypeUnknown, false, err
	}

	switch rawType {
	case "table":
		return TableTypeTable, true, nil
	case "view":
		return TableTypeView, true, nil
	default:
		return TableTypeUnknown, true, nil
	}
}

func (sqliteMaster) List(ctx context.Context, db *sql.DB, _, _ string) (*Result, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name, type FROM sqlite_master WHERE type IN ('table', 'view') ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return collectResult(rows)
}
