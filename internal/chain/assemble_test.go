package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlchain/internal/warehouse"
	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

func TestCollapseCTE(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"plain select", "SELECT 1", "SELECT 1"},
		{"leading with", "WITH x AS (SELECT 1) SELECT * FROM x", ", x AS (SELECT 1) SELECT * FROM x"},
		{"lowercase", "with x AS (SELECT 1) SELECT * FROM x", ", x AS (SELECT 1) SELECT * FROM x"},
		{"newline separator", "WITH\nx AS (SELECT 1) SELECT * FROM x", ", x AS (SELECT 1) SELECT * FROM x"},
		{"with as identifier prefix", "WITHDRAWALS", "WITHDRAWALS"},
		{"with mid-statement", "SELECT * FROM t WITH (NOLOCK)", "SELECT * FROM t WITH (NOLOCK)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collapseCTE(tt.sql))
		})
	}
}

func TestConstructRunningSQL(t *testing.T) {
	assert.Equal(t, "SELECT 1", constructRunningSQL(nil, "SELECT 1"))

	ctes := []string{"a AS (\nSELECT 1\n) "}
	assert.Equal(t, "WITH a AS (\nSELECT 1\n) SELECT * FROM a", constructRunningSQL(ctes, "SELECT * FROM a"))

	// A fragment that is itself a CTE folds into the enclosing statement.
	assert.Equal(t,
		"WITH a AS (\nSELECT 1\n) , b AS (SELECT 2) SELECT * FROM b",
		constructRunningSQL(ctes, "WITH b AS (SELECT 2) SELECT * FROM b"),
	)
}

func TestCreateStatement(t *testing.T) {
	tr := &Transform{OutputAlias: "STEP_ONE", Namespace: identifier.Namespace{Database: "DB", Schema: "MAIN"}}
	scheme := identifier.ThreePartScheme{}

	stmt, err := createStatement("", tr, scheme)
	require.NoError(t, err)
	assert.Empty(t, stmt)

	stmt, err = createStatement(warehouse.TableTypeTable, tr, scheme)
	require.NoError(t, err)
	assert.Equal(t, "CREATE OR REPLACE TABLE DB.MAIN.STEP_ONE AS \n", stmt)

	stmt, err = createStatement(warehouse.TableTypeView, tr, scheme)
	require.NoError(t, err)
	assert.Equal(t, "CREATE OR REPLACE VIEW DB.MAIN.STEP_ONE AS \n", stmt)

	_, err = createStatement("temporary", tr, scheme)
	require.Error(t, err)
}
