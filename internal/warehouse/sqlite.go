package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite" // cgo-free sqlite driver

	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

func init() {
	Register("sqlite", func(logger *slog.Logger) Warehouse { return NewSQLite(logger) })
}

// SQLite is the warehouse backed by an embedded SQLite database. SQLite has
// no database.schema.table addressing, so identifiers follow the two-part
// scheme with the attached database name as the whole namespace.
type SQLite struct {
	baseWarehouse
}

// NewSQLite creates a SQLite warehouse.
func NewSQLite(logger *slog.Logger) *SQLite {
	return &SQLite{
		baseWarehouse: newBase("sqlite", identifier.TwoPartScheme{}, logger, sqliteMaster{}),
	}
}

// Connect opens the SQLite database at cfg.Path.
// Use ":memory:" as the path for an in-memory database.
func (w *SQLite) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	w.db = db

	schema := cfg.Schema
	if schema == "" {
		schema = "main"
	}
	w.SetDefaultNamespace(identifier.Namespace{Schema: schema})
	return nil
}
