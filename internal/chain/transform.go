package chain

import (
	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

// Transform is one templated step of a chain: a template name, the bound
// arguments, the table (or prior chain alias) it selects from and the alias
// its output is known by to later steps.
type Transform struct {
	TemplateName string
	Arguments    map[string]any
	SourceTable  string
	OutputAlias  string
	Namespace    identifier.Namespace
}

// NewTransform builds a transform step. The arguments map is copied so later
// steps cannot mutate it through the caller. An empty alias gets a random
// managed one.
func NewTransform(templateName string, args map[string]any, sourceTable, outputAlias string, ns identifier.Namespace) *Transform {
	copied := make(map[string]any, len(args))
	for k, v := range args {
		copied[k] = v
	}
	if outputAlias == "" {
		outputAlias = identifier.RandomAlias()
	}
	return &Transform{
		TemplateName: templateName,
		Arguments:    copied,
		SourceTable:  sourceTable,
		OutputAlias:  outputAlias,
		Namespace:    ns,
	}
}

// FQTN returns the fully qualified name this transform would materialize
// under if the chain were saved in its current state.
func (t *Transform) FQTN(scheme identifier.Scheme) (string, error) {
	ns, err := scheme.MakeNamespace(t.Namespace)
	if err != nil {
		return "", err
	}
	return ns + "." + t.OutputAlias, nil
}
