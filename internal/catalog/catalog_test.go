package catalog

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource() fstest.MapFS {
	return fstest.MapFS{
		"templates.yml": &fstest.MapFile{Data: []byte(`templates:
  - name: filter
    description: Filter rows.
    tags: [general]
    arguments:
      - name: filters
        type: string_list
        description: SQL boolean expressions.
  - name: sample
    description: Random sample.
    arguments:
      - name: num_rows
        type: int
`)},
		"filter.sql":        &fstest.MapFile{Data: []byte("SELECT * FROM {{ source_table }} WHERE {{ \" AND \".join(filters) }}\n")},
		"sample.sql":        &fstest.MapFile{Data: []byte("generic body\n")},
		"sample.duckdb.sql": &fstest.MapFile{Data: []byte("duckdb body\n")},
	}
}

func TestCatalog_Get(t *testing.T) {
	c, err := Load(testSource())
	require.NoError(t, err)

	tmpl, err := c.Get("filter", "postgres")
	require.NoError(t, err)
	assert.Equal(t, "filter", tmpl.Name)
	assert.Equal(t, "Filter rows.", tmpl.Description)
	assert.Equal(t, []string{"general"}, tmpl.Tags)
	require.Len(t, tmpl.Arguments, 1)
	assert.Equal(t, "filters", tmpl.Arguments[0].Name)
	assert.Contains(t, tmpl.Body, "FROM {{ source_table }}")
	assert.Equal(t, "postgres", tmpl.Dialect)
}

func TestCatalog_DialectVariantWins(t *testing.T) {
	c, err := Load(testSource())
	require.NoError(t, err)

	tmpl, err := c.Get("sample", "duckdb")
	require.NoError(t, err)
	assert.Equal(t, "duckdb body\n", tmpl.Body)

	tmpl, err = c.Get("sample", "postgres")
	require.NoError(t, err)
	assert.Equal(t, "generic body\n", tmpl.Body)
}

func TestCatalog_NotFound(t *testing.T) {
	c, err := Load(testSource())
	require.NoError(t, err)

	_, err = c.Get("nope", "duckdb")
	require.Error(t, err)

	var nf *TemplateNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.Name)
}

func TestCatalog_MissingBody(t *testing.T) {
	src := testSource()
	delete(src, "filter.sql")

	c, err := Load(src)
	require.NoError(t, err)

	_, err = c.Get("filter", "postgres")
	var nf *TemplateNotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestCatalog_List(t *testing.T) {
	c, err := Load(testSource())
	require.NoError(t, err)

	templates, err := c.List("duckdb")
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "filter", templates[0].Name)
	assert.Equal(t, "sample", templates[1].Name)
}

func TestCatalog_DuplicateName(t *testing.T) {
	src := fstest.MapFS{
		"templates.yml": &fstest.MapFile{Data: []byte(`templates:
  - name: a
  - name: a
`)},
	}
	_, err := Load(src)
	require.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	names := c.Names()
	for _, want := range []string{"apply", "aggregate", "cast", "drop_columns", "filter", "order", "pivot", "rename", "sample", "union"} {
		assert.Contains(t, names, want)
	}

	// Every manifest entry must resolve a body for the stock dialects.
	for _, dialect := range []string{"duckdb", "postgres", "sqlite"} {
		_, err := c.List(dialect)
		require.NoError(t, err, "dialect %s", dialect)
	}
}
