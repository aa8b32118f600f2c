// Package chain holds the transform primitives: Dataset references into the
// warehouse, Transform steps and the SQLChain that assembles them into
// runnable SQL.
package chain

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqlchain/internal/catalog"
	"github.com/leapstack-labs/sqlchain/internal/warehouse"
	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

// env carries the collaborators every chain primitive shares.
type env struct {
	wh      warehouse.Warehouse
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// Dataset is a reference to a table or view in the warehouse. Its state is
// probed once at construction and not refreshed afterwards.
type Dataset struct {
	fqtn      string
	namespace identifier.Namespace

	state     TableState
	tableType warehouse.TableType
	managed   bool

	env *env
}

// NewDataset resolves fqtn against the warehouse default namespace and probes
// the object behind it. A reference that resolves but does not exist yet is
// valid: its state is in memory.
func NewDataset(ctx context.Context, fqtn string, wh warehouse.Warehouse, cat *catalog.Catalog, logger *slog.Logger) (*Dataset, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	scheme := wh.Scheme()
	nsText, err := scheme.MakeNamespace(wh.DefaultNamespace())
	if err != nil {
		return nil, fmt.Errorf("warehouse has no usable default namespace: %w", err)
	}
	resolved, err := scheme.ResolveIdentifier(fqtn, nsText)
	if err != nil {
		return nil, err
	}
	id, err := scheme.ParseIdentifier(resolved, nsText, true)
	if err != nil {
		return nil, err
	}

	d := &Dataset{
		fqtn:      resolved,
		namespace: identifier.Namespace{Database: id.Database, Schema: id.Schema},
		state:     StateUnknown,
		tableType: warehouse.TableTypeUnknown,
		env:       &env{wh: wh, catalog: cat, logger: logger},
	}
	if err := d.sync(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// sync probes the warehouse once to learn whether the reference is backed by
// a real object.
func (d *Dataset) sync(ctx context.Context) error {
	details, err := d.env.wh.ObjectDetails(ctx, d.fqtn)
	if err != nil {
		return fmt.Errorf("failed to probe %s: %w", d.fqtn, err)
	}
	if details.Exists {
		d.state = StateInWarehouse
		d.tableType = details.TableType
		d.managed = details.Managed
	} else {
		d.state = StateInMemory
	}
	d.env.logger.Debug("dataset synced", "fqtn", d.fqtn, "state", string(d.state), "type", string(d.tableType))
	return nil
}

// FQTN returns the fully qualified name of the reference.
func (d *Dataset) FQTN() string { return d.fqtn }

// TableName returns the unqualified table part of the reference.
func (d *Dataset) TableName() string { return identifier.TableName(d.fqtn) }

// Namespace returns the namespace the reference lives in.
func (d *Dataset) Namespace() identifier.Namespace { return d.namespace }

// State reports whether the reference is backed by a warehouse object.
func (d *Dataset) State() TableState { return d.state }

// TableType returns the object type found at construction.
func (d *Dataset) TableType() warehouse.TableType { return d.tableType }

// Managed reports whether the object carries the chain alias marker, meaning
// this module created it.
func (d *Dataset) Managed() bool { return d.managed }

// GetSchema profiles the columns of the referenced object.
func (d *Dataset) GetSchema(ctx context.Context) ([]warehouse.Column, error) {
	return d.env.wh.GetSchema(ctx, d.fqtn, "")
}

// Preview returns the top rows of the referenced object. The object must be
// materialized.
func (d *Dataset) Preview(ctx context.Context, limit int) (*warehouse.Result, error) {
	if d.state != StateInWarehouse {
		return nil, &UnresolvedPreconditionError{FQTN: d.fqtn, Operation: "preview"}
	}
	return d.env.wh.Preview(ctx, "SELECT * FROM "+d.fqtn, limit)
}

// Transform starts a new chain rooted at this dataset with one transform
// appended.
func (d *Dataset) Transform(templateName string, args map[string]any, outputAlias string) *SQLChain {
	ns := d.env.wh.DefaultNamespace()
	t := NewTransform(templateName, args, d.fqtn, outputAlias, ns)
	return &SQLChain{
		entry:      d,
		namespace:  ns,
		transforms: []*Transform{t},
		env:        d.env,
	}
}
