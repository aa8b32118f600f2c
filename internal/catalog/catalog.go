// Package catalog loads named transform templates from a template source.
// A source is a directory (or embedded tree) holding a templates.yml manifest
// plus one SQL body per template, with optional per-dialect variants named
// <template>.<dialect>.sql that take precedence over <template>.sql.
package catalog

import (
	"fmt"
	"io/fs"
	"sort"

	"gopkg.in/yaml.v3"
)

const manifestFile = "templates.yml"

// Argument describes one named argument a transform template accepts.
type Argument struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// TransformTemplate is an immutable description of one transform: its
// manifest metadata plus the SQL body resolved for a dialect.
type TransformTemplate struct {
	Name        string
	Description string
	Tags        []string
	Arguments   []Argument
	Body        string
	Dialect     string // dialect the body was resolved for
}

// manifestEntry mirrors one item of the templates.yml manifest.
type manifestEntry struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Tags        []string   `yaml:"tags"`
	Arguments   []Argument `yaml:"arguments"`
}

type manifest struct {
	Templates []manifestEntry `yaml:"templates"`
}

// Catalog resolves transform templates against a template source.
type Catalog struct {
	fsys    fs.FS
	entries map[string]manifestEntry
	order   []string
}

// Load reads the manifest from a template source and returns a catalog over
// it. Template bodies are read lazily on Get.
func Load(fsys fs.FS) (*Catalog, error) {
	raw, err := fs.ReadFile(fsys, manifestFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read template manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse template manifest: %w", err)
	}

	c := &Catalog{
		fsys:    fsys,
		entries: make(map[string]manifestEntry, len(m.Templates)),
	}
	for _, entry := range m.Templates {
		if entry.Name == "" {
			return nil, fmt.Errorf("template manifest contains an entry without a name")
		}
		if _, dup := c.entries[entry.Name]; dup {
			return nil, fmt.Errorf("template manifest lists %q twice", entry.Name)
		}
		c.entries[entry.Name] = entry
		c.order = append(c.order, entry.Name)
	}
	sort.Strings(c.order)

	return c, nil
}

// Get resolves one template for a dialect. The dialect-specific body
// <name>.<dialect>.sql wins over the generic <name>.sql.
func (c *Catalog) Get(name, dialect string) (TransformTemplate, error) {
	entry, ok := c.entries[name]
	if !ok {
		return TransformTemplate{}, &TemplateNotFoundError{Name: name, Dialect: dialect}
	}

	body, err := c.readBody(name, dialect)
	if err != nil {
		return TransformTemplate{}, err
	}

	return TransformTemplate{
		Name:        entry.Name,
		Description: entry.Description,
		Tags:        entry.Tags,
		Arguments:   entry.Arguments,
		Body:        body,
		Dialect:     dialect,
	}, nil
}

// List returns all templates resolved for a dialect, sorted by name.
func (c *Catalog) List(dialect string) ([]TransformTemplate, error) {
	templates := make([]TransformTemplate, 0, len(c.order))
	for _, name := range c.order {
		tmpl, err := c.Get(name, dialect)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// Names returns the sorted template names in the catalog.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

func (c *Catalog) readBody(name, dialect string) (string, error) {
	if dialect != "" {
		raw, err := fs.ReadFile(c.fsys, name+"."+dialect+".sql")
		if err == nil {
			return string(raw), nil
		}
	}

	raw, err := fs.ReadFile(c.fsys, name+".sql")
	if err != nil {
		return "", &TemplateNotFoundError{Name: name, Dialect: dialect}
	}
	return string(raw), nil
}

// TemplateNotFoundError indicates a template name the catalog cannot resolve.
type TemplateNotFoundError struct {
	Name    string
	Dialect string
}

func (e *TemplateNotFoundError) Error() string {
	if e.Dialect != "" {
		return fmt.Sprintf("transform template %q not found for dialect %q", e.Name, e.Dialect)
	}
	return fmt.Sprintf("transform template %q not found", e.Name)
}
