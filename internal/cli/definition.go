package cli

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlchain/internal/chain"
	"github.com/leapstack-labs/sqlchain/pkg/sqlchain"
)

// ChainDefinition is the YAML description of a transform chain: the entry
// table and the transform steps applied to it in order.
type ChainDefinition struct {
	Entry      string                `yaml:"entry"`
	Transforms []TransformDefinition `yaml:"transforms"`
}

// TransformDefinition is one step of a chain definition.
type TransformDefinition struct {
	Template  string         `yaml:"template"`
	Alias     string         `yaml:"alias"`
	Arguments map[string]any `yaml:"arguments"`
}

// LoadDefinition reads and validates a chain definition file.
func LoadDefinition(path string) (*ChainDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chain definition: %w", err)
	}

	var def ChainDefinition
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("failed to parse chain definition %s: %w", path, err)
	}
	if def.Entry == "" {
		return nil, fmt.Errorf("chain definition %s has no entry table", path)
	}
	for i, t := range def.Transforms {
		if t.Template == "" {
			return nil, fmt.Errorf("chain definition %s: transform %d has no template name", path, i+1)
		}
	}
	return &def, nil
}

// Build resolves the entry table through the session and appends the
// definition's transforms.
func (d *ChainDefinition) Build(ctx context.Context, s *sqlchain.Session) (*chain.SQLChain, error) {
	entry, err := s.Dataset(ctx, d.Entry)
	if err != nil {
		return nil, err
	}

	c := chain.NewSQLChain(entry, s.DefaultNamespace(), nil)
	for _, t := range d.Transforms {
		c = c.Transform(t.Template, t.Arguments, t.Alias)
	}
	return c, nil
}
