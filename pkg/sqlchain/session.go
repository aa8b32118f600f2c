// Package sqlchain is the public entry point of the module. A Session ties
// a connected warehouse to a transform template catalog and hands out
// Dataset references that chains are built from.
package sqlchain

import (
	"context"
	"io/fs"
	"log/slog"

	"github.com/leapstack-labs/sqlchain/internal/catalog"
	"github.com/leapstack-labs/sqlchain/internal/chain"
	"github.com/leapstack-labs/sqlchain/internal/warehouse"
	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

// Option configures a Session.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	templates fs.FS
}

// WithLogger sets the logger the session and its warehouse log through.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTemplates loads transform templates from fsys instead of the embedded
// catalog.
func WithTemplates(fsys fs.FS) Option {
	return func(o *options) { o.templates = fsys }
}

// Session is a connected warehouse plus the template catalog rendered
// against it.
type Session struct {
	wh     warehouse.Warehouse
	cat    *catalog.Catalog
	logger *slog.Logger
}

// Connect builds the warehouse for cfg, connects it and loads the template
// catalog.
func Connect(ctx context.Context, cfg warehouse.Config, opts ...Option) (*Session, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	wh, err := warehouse.New(cfg, o.logger)
	if err != nil {
		return nil, err
	}
	if err := wh.Connect(ctx, cfg); err != nil {
		return nil, err
	}

	var cat *catalog.Catalog
	if o.templates != nil {
		cat, err = catalog.Load(o.templates)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		_ = wh.Close()
		return nil, err
	}

	o.logger.Debug("session connected", "type", cfg.Type, "dialect", wh.Dialect())
	return &Session{wh: wh, cat: cat, logger: o.logger}, nil
}

// Close releases the warehouse connection.
func (s *Session) Close() error { return s.wh.Close() }

// Warehouse exposes the underlying warehouse.
func (s *Session) Warehouse() warehouse.Warehouse { return s.wh }

// Dataset resolves fqtn against the warehouse and returns a reference to
// build chains from.
func (s *Session) Dataset(ctx context.Context, fqtn string) (*chain.Dataset, error) {
	return chain.NewDataset(ctx, fqtn, s.wh, s.cat, s.logger)
}

// Templates lists the catalog resolved for the warehouse dialect.
func (s *Session) Templates() ([]catalog.TransformTemplate, error) {
	return s.cat.List(s.wh.Dialect())
}

// Query runs SQL against the warehouse. Write statements fail unless
// acknowledgeRisk is set.
func (s *Session) Query(ctx context.Context, sql string, format warehouse.ResponseFormat, acknowledgeRisk bool) (*warehouse.Result, error) {
	return s.wh.ExecuteQuery(ctx, sql, format, acknowledgeRisk)
}

// ListTables lists the tables and views of the default namespace.
func (s *Session) ListTables(ctx context.Context) (*warehouse.Result, error) {
	ns := s.wh.DefaultNamespace()
	return s.wh.ListTables(ctx, ns.Database, ns.Schema)
}

// DefaultNamespace returns the namespace unqualified names resolve into.
func (s *Session) DefaultNamespace() identifier.Namespace {
	return s.wh.DefaultNamespace()
}
