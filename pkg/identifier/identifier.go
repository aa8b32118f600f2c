// Package identifier parses, validates and resolves fully-qualified table
// names (FQTNs) and namespaces. Each warehouse dialect composes a Scheme that
// knows how many segments its namespaces carry; the generic three-part scheme
// (database.schema.table) is the default.
package identifier

import (
	"fmt"
	"strings"
)

// Identifier is the parsed form of an FQTN. Parts may be empty on input but a
// resolved identifier has every part its scheme requires.
type Identifier struct {
	Database string
	Schema   string
	Table    string
}

// Namespace is the database/schema prefix of an FQTN, without the table part.
type Namespace struct {
	Database string
	Schema   string
}

// MalformedIdentifierError is returned when an identifier or namespace string
// does not match the scheme's required segment count.
type MalformedIdentifierError struct {
	Input  string
	Reason string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed identifier %q: %s", e.Input, e.Reason)
}

func malformed(input, format string, args ...any) *MalformedIdentifierError {
	return &MalformedIdentifierError{Input: input, Reason: fmt.Sprintf(format, args...)}
}

// Scheme defines the identifier rules for one warehouse dialect.
// Implementations are composed into warehouse adapters rather than inherited.
type Scheme interface {
	// Name returns the scheme name (e.g. "three_part").
	Name() string

	// ParseIdentifier splits text into its component parts. In strict mode
	// text must carry every segment. In non-strict mode missing segments are
	// filled from defaultNamespace.
	ParseIdentifier(text, defaultNamespace string, strict bool) (Identifier, error)

	// ParseNamespace splits a namespace string into its component parts.
	ParseNamespace(text string) (Namespace, error)

	// MakeIdentifier joins parts into an FQTN string. Errors if a required
	// part is empty.
	MakeIdentifier(id Identifier) (string, error)

	// MakeNamespace joins parts into a namespace string.
	MakeNamespace(ns Namespace) (string, error)

	// ResolveIdentifier combines a non-strict parse with a default-namespace
	// fill and a join. Callers may pass a bare table name, a namespace-
	// qualified name, or a full FQTN.
	ResolveIdentifier(possible, defaultNamespace string) (string, error)
}

// Default is the generic three-part scheme shared by most warehouses.
var Default Scheme = ThreePartScheme{}

// TableName returns the table part of an FQTN without validating the rest.
func TableName(fqtn string) string {
	parts := strings.Split(fqtn, ".")
	return parts[len(parts)-1]
}

// ParseIdentifier parses text with the default three-part scheme.
func ParseIdentifier(text, defaultNamespace string, strict bool) (Identifier, error) {
	return Default.ParseIdentifier(text, defaultNamespace, strict)
}

// ParseNamespace parses a database.schema namespace with the default scheme.
func ParseNamespace(text string) (Namespace, error) {
	return Default.ParseNamespace(text)
}

// MakeIdentifier joins database, schema and table into an FQTN.
func MakeIdentifier(database, schema, table string) (string, error) {
	return Default.MakeIdentifier(Identifier{Database: database, Schema: schema, Table: table})
}

// MakeNamespace joins database and schema into a namespace string.
func MakeNamespace(database, schema string) (string, error) {
	return Default.MakeNamespace(Namespace{Database: database, Schema: schema})
}

// ResolveIdentifier resolves a possibly partial identifier against a default
// namespace using the default scheme.
func ResolveIdentifier(possible, defaultNamespace string) (string, error) {
	return Default.ResolveIdentifier(possible, defaultNamespace)
}

// ThreePartScheme implements database.schema.table identifiers with
// database.schema namespaces (duckdb, postgres, snowflake).
type ThreePartScheme struct{}

// Name implements Scheme.
func (ThreePartScheme) Name() string { return "three_part" }

// ParseIdentifier implements Scheme.
func (s ThreePartScheme) ParseIdentifier(text, defaultNamespace string, strict bool) (Identifier, error) {
	if text == "" {
		return Identifier{}, malformed(text, "empty identifier")
	}
	dots := strings.Count(text, ".")
	if strict {
		if dots != 2 {
			return Identifier{}, malformed(text, "expected database.schema.table, found %d segment(s)", dots+1)
		}
		parts := strings.SplitN(text, ".", 3)
		return Identifier{Database: parts[0], Schema: parts[1], Table: parts[2]}, nil
	}
	if dots == 2 {
		parts := strings.SplitN(text, ".", 3)
		return Identifier{Database: parts[0], Schema: parts[1], Table: parts[2]}, nil
	}
	if dots > 2 {
		return Identifier{}, malformed(text, "too many segments")
	}
	ns, err := s.ParseNamespace(defaultNamespace)
	if err != nil {
		return Identifier{}, malformed(text, "cannot fill missing segments: %v", err)
	}
	switch dots {
	case 1:
		parts := strings.SplitN(text, ".", 2)
		return Identifier{Database: ns.Database, Schema: parts[0], Table: parts[1]}, nil
	default: // 0
		return Identifier{Database: ns.Database, Schema: ns.Schema, Table: text}, nil
	}
}

// ParseNamespace implements Scheme.
func (ThreePartScheme) ParseNamespace(text string) (Namespace, error) {
	if strings.Count(text, ".") != 1 {
		return Namespace{}, malformed(text, "expected database.schema")
	}
	parts := strings.SplitN(text, ".", 2)
	if parts[0] == "" || parts[1] == "" {
		return Namespace{}, malformed(text, "expected database.schema")
	}
	return Namespace{Database: parts[0], Schema: parts[1]}, nil
}

// MakeIdentifier implements Scheme.
func (ThreePartScheme) MakeIdentifier(id Identifier) (string, error) {
	if id.Database == "" || id.Schema == "" || id.Table == "" {
		return "", malformed(
			fmt.Sprintf("%s.%s.%s", id.Database, id.Schema, id.Table),
			"database, schema and table are all required",
		)
	}
	return id.Database + "." + id.Schema + "." + id.Table, nil
}

// MakeNamespace implements Scheme.
func (ThreePartScheme) MakeNamespace(ns Namespace) (string, error) {
	if ns.Database == "" || ns.Schema == "" {
		return "", malformed(ns.Database+"."+ns.Schema, "database and schema are required")
	}
	return ns.Database + "." + ns.Schema, nil
}

// ResolveIdentifier implements Scheme.
func (s ThreePartScheme) ResolveIdentifier(possible, defaultNamespace string) (string, error) {
	id, err := s.ParseIdentifier(possible, defaultNamespace, false)
	if err != nil {
		return "", err
	}
	ns, err := s.ParseNamespace(defaultNamespace)
	if err != nil {
		return "", err
	}
	if id.Database == "" {
		id.Database = ns.Database
	}
	if id.Schema == "" {
		id.Schema = ns.Schema
	}
	return s.MakeIdentifier(id)
}

// TwoPartScheme implements schema.table identifiers with single-segment
// namespaces (sqlite and other catalogs without a database level). The
// generic three-part resolver must not be applied to these dialects.
type TwoPartScheme struct{}

// Name implements Scheme.
func (TwoPartScheme) Name() string { return "two_part" }

// ParseIdentifier implements Scheme.
func (s TwoPartScheme) ParseIdentifier(text, defaultNamespace string, strict bool) (Identifier, error) {
	if text == "" {
		return Identifier{}, malformed(text, "empty identifier")
	}
	dots := strings.Count(text, ".")
	if dots > 1 {
		return Identifier{}, malformed(text, "expected schema.table, found %d segment(s)", dots+1)
	}
	if strict {
		if dots != 1 {
			return Identifier{}, malformed(text, "expected schema.table")
		}
		parts := strings.SplitN(text, ".", 2)
		return Identifier{Schema: parts[0], Table: parts[1]}, nil
	}
	if dots == 1 {
		parts := strings.SplitN(text, ".", 2)
		// A qualified input must agree with the default namespace when one
		// is set; a mismatch is a caller error, not a fill opportunity.
		if defaultNamespace != "" && parts[0] != defaultNamespace {
			return Identifier{}, malformed(text,
				"namespace %q does not match default namespace %q", parts[0], defaultNamespace)
		}
		return Identifier{Schema: parts[0], Table: parts[1]}, nil
	}
	ns, err := s.ParseNamespace(defaultNamespace)
	if err != nil {
		return Identifier{}, malformed(text, "cannot fill missing segments: %v", err)
	}
	return Identifier{Schema: ns.Schema, Table: text}, nil
}

// ParseNamespace implements Scheme.
func (TwoPartScheme) ParseNamespace(text string) (Namespace, error) {
	if text == "" || strings.Contains(text, ".") {
		return Namespace{}, malformed(text, "expected a single-segment namespace")
	}
	return Namespace{Schema: text}, nil
}

// MakeIdentifier implements Scheme.
func (TwoPartScheme) MakeIdentifier(id Identifier) (string, error) {
	if id.Schema == "" || id.Table == "" {
		return "", malformed(id.Schema+"."+id.Table, "schema and table are required")
	}
	return id.Schema + "." + id.Table, nil
}

// MakeNamespace implements Scheme.
func (TwoPartScheme) MakeNamespace(ns Namespace) (string, error) {
	if ns.Schema == "" {
		return "", malformed("", "schema is required")
	}
	return ns.Schema, nil
}

// ResolveIdentifier implements Scheme.
func (s TwoPartScheme) ResolveIdentifier(possible, defaultNamespace string) (string, error) {
	id, err := s.ParseIdentifier(possible, defaultNamespace, false)
	if err != nil {
		return "", err
	}
	return s.MakeIdentifier(id)
}
