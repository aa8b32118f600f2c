package dbt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlchain/internal/warehouse"
	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

func TestSaveModelFile(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveModelFile("SELECT * FROM orders", nil, ModelOptions{
		OutputDirectory: dir,
		FileName:        "orders.sql",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "orders.sql"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM orders", string(raw))
}

func TestSaveModelFile_ConfigBlock(t *testing.T) {
	dir := t.TempDir()

	path, err := SaveModelFile("SELECT 1", nil, ModelOptions{
		OutputDirectory: dir,
		FileName:        "one.sql",
		ConfigArgs:      map[string]any{"materialized": "table", "enabled": true},
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)
	assert.Contains(t, content, "{{\n  config(")
	assert.Contains(t, content, "enabled=true")
	assert.Contains(t, content, "materialized='table'")
	assert.Contains(t, content, "\n\nSELECT 1")
}

func TestSaveModelFile_RequiresFileName(t *testing.T) {
	_, err := SaveModelFile("SELECT 1", nil, ModelOptions{OutputDirectory: t.TempDir()})
	require.Error(t, err)
}

func TestSaveModelFile_IncludeSchema(t *testing.T) {
	dir := t.TempDir()
	schema := []warehouse.Column{{Name: "ID", Type: "INTEGER"}, {Name: "NOTE", Type: "VARCHAR"}}

	_, err := SaveModelFile("SELECT * FROM orders", schema, ModelOptions{
		OutputDirectory: dir,
		FileName:        "orders.sql",
		IncludeSchema:   true,
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "schema.yml"))
	require.NoError(t, err)

	var doc schemaFile
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	assert.Equal(t, 2, doc.Version)
	require.Len(t, doc.Models, 1)
	assert.Equal(t, "orders", doc.Models[0].Name)
	require.Len(t, doc.Models[0].Columns, 2)
	assert.Equal(t, "ID", doc.Models[0].Columns[0].Name)
}

func TestSaveSchemaFile_UpdatesExistingEntry(t *testing.T) {
	dir := t.TempDir()

	_, err := SaveSchemaFile(dir, "orders", []warehouse.Column{{Name: "ID"}}, nil)
	require.NoError(t, err)
	_, err = SaveSchemaFile(dir, "customers", []warehouse.Column{{Name: "EMAIL"}}, nil)
	require.NoError(t, err)
	_, err = SaveSchemaFile(dir, "orders", []warehouse.Column{{Name: "ID"}, {Name: "AMOUNT"}}, nil)
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(dir, "schema.yml"))
	require.NoError(t, err)

	var doc schemaFile
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	require.Len(t, doc.Models, 2, "replacing an entry must not duplicate it")
	assert.Equal(t, "orders", doc.Models[0].Name)
	assert.Len(t, doc.Models[0].Columns, 2)
	assert.Equal(t, "customers", doc.Models[1].Name)
}

func TestSaveProjectFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dbt_project.yml")

	_, err := SaveProjectFile("analytics", path, identifier.Namespace{Database: "DB", Schema: "MAIN"}, "view")
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc projectFile
	require.NoError(t, yaml.Unmarshal(raw, &doc))
	assert.Equal(t, "analytics", doc.Name)
	assert.Equal(t, 2, doc.ConfigVersion)
	assert.Equal(t, []string{"models"}, doc.ModelPaths)

	modelConfig, ok := doc.Models["analytics"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "view", modelConfig["+materialized"])
	assert.Equal(t, "DB", modelConfig["database"])
	assert.Equal(t, "MAIN", modelConfig["schema"])
}

func TestSaveProjectFile_KeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dbt_project.yml")
	require.NoError(t, os.WriteFile(path, []byte("name: keep_me\n"), 0o644))

	_, err := SaveProjectFile("analytics", path, identifier.Namespace{}, "view")
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name: keep_me\n", string(raw))
}

func TestPrepareProjectDir(t *testing.T) {
	dir := t.TempDir()

	root, err := PrepareProjectDir("analytics", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "analytics"), root)

	for _, sub := range []string{"models", "macros", "seeds"} {
		info, err := os.Stat(filepath.Join(root, sub))
		require.NoError(t, err, sub)
		assert.True(t, info.IsDir())
	}

	// Idempotent, and a directory already named after the project is reused.
	again, err := PrepareProjectDir("analytics", root)
	require.NoError(t, err)
	assert.Equal(t, root, again)
}

func TestCheckProjectName(t *testing.T) {
	assert.Equal(t, "analytics", CheckProjectName("Analytics", nil))
	assert.Equal(t, "my-project", CheckProjectName("My-Project", nil), "name is lowered but not rewritten")
}
