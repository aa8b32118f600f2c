package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

func init() {
	Register("postgres", func(logger *slog.Logger) Warehouse { return NewPostgres(logger) })
}

// Postgres is the warehouse backed by a PostgreSQL server via pgx.
type Postgres struct {
	baseWarehouse
}

// NewPostgres creates a PostgreSQL warehouse.
func NewPostgres(logger *slog.Logger) *Postgres {
	return &Postgres{
		baseWarehouse: newBase("postgres", identifier.ThreePartScheme{}, logger,
			informationSchema{placeholder: dollarPlaceholder}),
	}
}

// Connect opens a connection to the configured PostgreSQL server.
func (w *Postgres) Connect(ctx context.Context, cfg Config) error {
	db, err := sql.Open("pgx", buildPostgresDSN(cfg))
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	w.db = db

	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}
	w.SetDefaultNamespace(identifier.Namespace{Database: cfg.Database, Schema: schema})
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=prefer", host, port, cfg.Database)
	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return dsn
}
