package chain

import (
	"context"

	"github.com/leapstack-labs/sqlchain/internal/dbt"
	"github.com/leapstack-labs/sqlchain/internal/render"
	"github.com/leapstack-labs/sqlchain/internal/warehouse"
	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

// SQLChain is an ordered list of transforms rooted at an entry dataset.
// Chains are immutable: Transform returns a new chain, the receiver keeps
// its steps. ChangeNamespace is the one mutating exception.
type SQLChain struct {
	entry      *Dataset
	namespace  identifier.Namespace
	transforms []*Transform
	env        *env
}

// NewSQLChain builds a chain over an existing dataset. The transforms slice
// may be nil for a chain that renders to a plain select of the entry.
func NewSQLChain(entry *Dataset, namespace identifier.Namespace, transforms []*Transform) *SQLChain {
	return &SQLChain{
		entry:      entry,
		namespace:  namespace,
		transforms: transforms,
		env:        entry.env,
	}
}

// Entry returns the dataset the chain is rooted at.
func (c *SQLChain) Entry() *Dataset { return c.entry }

// Namespace returns the namespace new transforms materialize into.
func (c *SQLChain) Namespace() identifier.Namespace { return c.namespace }

// Transforms returns a copy of the chain's steps.
func (c *SQLChain) Transforms() []*Transform {
	out := make([]*Transform, len(c.transforms))
	copy(out, c.transforms)
	return out
}

// terminal returns the last transform, or nil for an empty chain.
func (c *SQLChain) terminal() *Transform {
	if len(c.transforms) == 0 {
		return nil
	}
	return c.transforms[len(c.transforms)-1]
}

// Transform returns a new chain with one more step appended. The new step
// selects from the previous step's alias, or from the entry table on the
// first step.
func (c *SQLChain) Transform(templateName string, args map[string]any, outputAlias string) *SQLChain {
	sourceTable := c.entry.FQTN()
	if t := c.terminal(); t != nil {
		sourceTable = t.OutputAlias
	}
	step := NewTransform(templateName, args, sourceTable, outputAlias, c.namespace)

	transforms := make([]*Transform, len(c.transforms), len(c.transforms)+1)
	copy(transforms, c.transforms)
	transforms = append(transforms, step)

	return &SQLChain{
		entry:      c.entry,
		namespace:  c.namespace,
		transforms: transforms,
		env:        c.env,
	}
}

// OutputFQTN is the name the chain would materialize under in its current
// state. It stays dynamic until the chain is saved.
func (c *SQLChain) OutputFQTN() (string, error) {
	if t := c.terminal(); t != nil {
		return t.FQTN(c.env.wh.Scheme())
	}
	return c.entry.FQTN(), nil
}

// OutputTable returns the dataset the chain would create if saved in its
// current state, probed against the warehouse.
func (c *SQLChain) OutputTable(ctx context.Context) (*Dataset, error) {
	t := c.terminal()
	if t == nil {
		return c.entry, nil
	}
	fqtn, err := t.FQTN(c.env.wh.Scheme())
	if err != nil {
		return nil, err
	}
	return NewDataset(ctx, fqtn, c.env.wh, c.env.catalog, c.env.logger)
}

// renderFragment resolves the transform's template for the warehouse dialect
// and renders it with the chain state so far.
func (c *SQLChain) renderFragment(ctx context.Context, t *Transform, runningSQL string) (string, error) {
	tmpl, err := c.env.catalog.Get(t.TemplateName, c.env.wh.Dialect())
	if err != nil {
		return "", err
	}
	return render.SQL(ctx, render.Input{
		Template:    tmpl,
		Args:        t.Arguments,
		SourceTable: t.SourceTable,
		RunningSQL:  runningSQL,
	}, c.env.wh, c.env.logger)
}

// SQL renders the chain. An empty chain renders to a plain select of the
// entry table regardless of method.
func (c *SQLChain) SQL(ctx context.Context, method RenderMethod) (string, error) {
	method, err := CheckRenderMethod(string(method))
	if err != nil {
		return "", err
	}
	if len(c.transforms) == 0 {
		return "SELECT * FROM " + c.entry.FQTN(), nil
	}

	scheme := c.env.wh.Scheme()
	switch method {
	case MethodViews:
		return assembleViewChain(ctx, c.transforms, scheme, c.renderFragment)
	case MethodTable:
		return assembleCTEChain(ctx, c.transforms, warehouse.TableTypeTable, scheme, c.renderFragment)
	case MethodView:
		return assembleCTEChain(ctx, c.transforms, warehouse.TableTypeView, scheme, c.renderFragment)
	default:
		return assembleCTEChain(ctx, c.transforms, "", scheme, c.renderFragment)
	}
}

// Save materializes the chain. An empty fqtn saves under the chain's output
// name; an empty table type saves as a view. Returns a dataset over the new
// object.
func (c *SQLChain) Save(ctx context.Context, fqtn string, tableType warehouse.TableType, overwrite bool) (*Dataset, error) {
	if len(c.transforms) == 0 {
		return nil, &EmptyChainError{Operation: "save"}
	}
	if tableType == "" {
		tableType = warehouse.TableTypeView
	}
	tt, err := warehouse.CheckWriteTableType(string(tableType))
	if err != nil {
		return nil, err
	}
	if fqtn == "" {
		fqtn, err = c.OutputFQTN()
		if err != nil {
			return nil, err
		}
	}

	sql, err := c.SQL(ctx, MethodSelect)
	if err != nil {
		return nil, err
	}
	if err := c.env.wh.Create(ctx, sql, fqtn, tt, overwrite); err != nil {
		return nil, err
	}
	c.env.logger.Info("chain saved", "fqtn", fqtn, "type", string(tt), "transforms", len(c.transforms))
	return NewDataset(ctx, fqtn, c.env.wh, c.env.catalog, c.env.logger)
}

// Preview returns the top rows the chain would produce.
func (c *SQLChain) Preview(ctx context.Context, limit int) (*warehouse.Result, error) {
	if len(c.transforms) == 0 {
		return nil, &EmptyChainError{Operation: "preview"}
	}
	sql, err := c.SQL(ctx, MethodSelect)
	if err != nil {
		return nil, err
	}
	return c.env.wh.Preview(ctx, sql, limit)
}

// GetSchema profiles the columns the chain would produce if saved in its
// current state.
func (c *SQLChain) GetSchema(ctx context.Context) ([]warehouse.Column, error) {
	if len(c.transforms) == 0 {
		return c.entry.GetSchema(ctx)
	}
	fqtn, err := c.OutputFQTN()
	if err != nil {
		return nil, err
	}
	sql, err := c.SQL(ctx, MethodSelect)
	if err != nil {
		return nil, err
	}
	return c.env.wh.GetSchema(ctx, fqtn, sql)
}

// ChangeNamespace moves the chain and all of its transforms into a new
// namespace and makes it the warehouse default for later operations.
func (c *SQLChain) ChangeNamespace(ns identifier.Namespace) error {
	if _, err := c.env.wh.Scheme().MakeNamespace(ns); err != nil {
		return err
	}
	c.env.wh.SetDefaultNamespace(ns)
	c.namespace = ns
	for _, t := range c.transforms {
		t.Namespace = ns
	}
	return nil
}

// ToDbt writes the chain as a dbt model file. When the chain schema cannot
// be resolved the model is written without a schema.yml.
func (c *SQLChain) ToDbt(ctx context.Context, opts dbt.ModelOptions) (string, error) {
	t := c.terminal()
	if t == nil {
		return "", &EmptyChainError{Operation: "export"}
	}

	var schema []warehouse.Column
	if opts.IncludeSchema {
		var err error
		schema, err = c.GetSchema(ctx)
		if err != nil {
			c.env.logger.Warn(
				"could not resolve the chain schema, writing the model without schema.yml",
				"error", err,
			)
			opts.IncludeSchema = false
		}
	}

	sql, err := c.SQL(ctx, MethodSelect)
	if err != nil {
		return "", err
	}
	if opts.FileName == "" {
		opts.FileName = t.OutputAlias + ".sql"
	}
	return dbt.SaveModelFile(sql, schema, opts)
}
