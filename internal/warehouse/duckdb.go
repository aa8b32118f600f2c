package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

func init() {
	Register("duckdb", func(logger *slog.Logger) Warehouse { return NewDuckDB(logger) })
}

// DuckDB is the warehouse backed by an embedded DuckDB database.
type DuckDB struct {
	baseWarehouse
}

// NewDuckDB creates a DuckDB warehouse.
func NewDuckDB(logger *slog.Logger) *DuckDB {
	return &DuckDB{
		baseWarehouse: newBase("duckdb", identifier.ThreePartScheme{}, logger,
			informationSchema{placeholder: questionPlaceholder}),
	}
}

// Connect opens the DuckDB database at cfg.Path.
// Use ":memory:" as the path for an in-memory database.
func (w *DuckDB) Connect(ctx context.Context, cfg Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	w.db = db
	w.SetDefaultNamespace(duckdbNamespace(cfg, path))
	return nil
}

// duckdbNamespace derives the default namespace. DuckDB names the attached
// catalog after the database file; in-memory databases are "memory".
func duckdbNamespace(cfg Config, path string) identifier.Namespace {
	database := cfg.Database
	if database == "" {
		if path == ":memory:" {
			database = "memory"
		} else {
			database = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
	}
	schema := cfg.Schema
	if schema == "" {
		schema = "main"
	}
	return identifier.Namespace{Database: database, Schema: schema}
}
