package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlchain/internal/testutil"
	"github.com/leapstack-labs/sqlchain/internal/warehouse"
	"github.com/leapstack-labs/sqlchain/pkg/sqlchain"
)

// seedDatabase creates a sqlite file holding a small orders table.
func seedDatabase(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "orders.db")

	s, err := sqlchain.Connect(ctx, warehouse.Config{Type: "sqlite", Path: path},
		sqlchain.WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Query(ctx, "CREATE TABLE ORDERS (ID INTEGER, REGION TEXT, AMOUNT REAL)", warehouse.FormatNone, false)
	require.NoError(t, err)
	_, err = s.Query(ctx, "INSERT INTO ORDERS VALUES (1, 'north', 10.0), (2, 'south', 25.0)", warehouse.FormatNone, true)
	require.NoError(t, err)
	return path
}

func writeChainFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const filterChain = `
entry: main.ORDERS
transforms:
  - template: filter
    alias: filtered
    arguments:
      filters:
        - AMOUNT < 20
`

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlchain v"+Version)
}

func TestTemplatesCommand(t *testing.T) {
	out, err := execute(t, "templates", "--type", "sqlite")
	require.NoError(t, err)
	assert.Contains(t, out, "filter")
	assert.Contains(t, out, "drop_columns")
}

func TestRenderCommand(t *testing.T) {
	db := seedDatabase(t)
	chainFile := writeChainFile(t, filterChain)

	out, err := execute(t, "render", chainFile, "--type", "sqlite", "--path", db)
	require.NoError(t, err)
	assert.Contains(t, out, "FROM main.ORDERS")
	assert.Contains(t, out, "WHERE AMOUNT < 20")
	assert.NotContains(t, out, "CREATE")
}

func TestRenderCommand_ViewMethod(t *testing.T) {
	db := seedDatabase(t)
	chainFile := writeChainFile(t, filterChain)

	out, err := execute(t, "render", chainFile, "--type", "sqlite", "--path", db, "--method", "view")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE OR REPLACE VIEW main.filtered AS")
}

func TestRenderCommand_RejectsBadMethod(t *testing.T) {
	db := seedDatabase(t)
	chainFile := writeChainFile(t, filterChain)

	_, err := execute(t, "render", chainFile, "--type", "sqlite", "--path", db, "--method", "bogus")
	require.Error(t, err)
}

func TestPreviewCommand(t *testing.T) {
	db := seedDatabase(t)
	chainFile := writeChainFile(t, filterChain)

	out, err := execute(t, "preview", chainFile, "--type", "sqlite", "--path", db)
	require.NoError(t, err)
	assert.Contains(t, out, "REGION")
	assert.Contains(t, out, "north")
	assert.NotContains(t, out, "south", "filtered rows must not show up")
}

func TestLoadDefinition_Validation(t *testing.T) {
	_, err := LoadDefinition(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := writeChainFile(t, "transforms:\n  - template: filter\n")
	_, err = LoadDefinition(path)
	assert.ErrorContains(t, err, "no entry table")

	path = writeChainFile(t, "entry: main.ORDERS\ntransforms:\n  - alias: x\n")
	_, err = LoadDefinition(path)
	assert.ErrorContains(t, err, "no template name")
}
