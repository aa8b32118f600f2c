package warehouse

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlchain/internal/testutil"
	"github.com/leapstack-labs/sqlchain/pkg/identifier"
)

func newMockBase(t *testing.T) (*baseWarehouse, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	b := newBase("duckdb", identifier.ThreePartScheme{}, testutil.NewTestLogger(t),
		informationSchema{placeholder: questionPlaceholder})
	b.db = db
	b.defaultNS = identifier.Namespace{Database: "DB", Schema: "MAIN"}
	return &b, mock
}

func detailsRows(tableType string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"table_type"}).AddRow(tableType)
}

func TestExecuteQuery_ScarySQLBlockedBeforeNetwork(t *testing.T) {
	b, mock := newMockBase(t)

	_, err := b.ExecuteQuery(context.Background(), "DELETE FROM DB.MAIN.ORDERS", FormatRows, false)
	require.Error(t, err)

	var scary *ScarySQLError
	require.ErrorAs(t, err, &scary)
	assert.Equal(t, []string{"DELETE"}, scary.Keywords)

	// No expectations were set, so any DB call would have failed the mock.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQuery_ScaryAcknowledged(t *testing.T) {
	b, mock := newMockBase(t)
	mock.ExpectExec("DELETE FROM DB\\.MAIN\\.ORDERS").WillReturnResult(sqlmock.NewResult(0, 3))

	_, err := b.ExecuteQuery(context.Background(), "DELETE FROM DB.MAIN.ORDERS", FormatNone, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteQuery_Rows(t *testing.T) {
	b, mock := newMockBase(t)
	mock.ExpectQuery("SELECT ID, NAME FROM DB\\.MAIN\\.ORDERS").WillReturnRows(
		sqlmock.NewRows([]string{"ID", "NAME"}).
			AddRow(int64(1), []byte("first")).
			AddRow(int64(2), []byte("second")))

	result, err := b.ExecuteQuery(context.Background(), "SELECT ID, NAME FROM DB.MAIN.ORDERS", FormatRows, false)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, []string{"ID", "NAME"}, result.Columns)

	maps := result.AsMaps()
	require.Len(t, maps, 2)
	// []byte column values are normalized to strings.
	assert.Equal(t, "first", maps[0]["NAME"])
	assert.Equal(t, int64(2), maps[1]["ID"])
}

func TestPreview_CapsRows(t *testing.T) {
	b, mock := newMockBase(t)
	mock.ExpectQuery(`SELECT \* FROM \(SELECT 1\) AS preview_q LIMIT 5`).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(int64(1)))

	result, err := b.Preview(context.Background(), "SELECT 1;", 5)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_ConflictWithoutOverwrite(t *testing.T) {
	b, mock := newMockBase(t)
	mock.ExpectQuery("information_schema.tables").WillReturnRows(detailsRows("BASE TABLE"))

	err := b.Create(context.Background(), "SELECT 1", "DB.MAIN.T", TableTypeTable, false)
	require.Error(t, err)

	var conflict *TableConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "DB.MAIN.T", conflict.FQTN)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_OverwriteDropsExisting(t *testing.T) {
	b, mock := newMockBase(t)
	mock.ExpectQuery("information_schema.tables").WillReturnRows(detailsRows("VIEW"))
	mock.ExpectExec(`DROP VIEW DB\.MAIN\.T`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE DB\.MAIN\.T AS SELECT 1`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := b.Create(context.Background(), "SELECT 1", "DB.MAIN.T", TableTypeTable, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_NewObject(t *testing.T) {
	b, mock := newMockBase(t)
	mock.ExpectQuery("information_schema.tables").WillReturnRows(sqlmock.NewRows([]string{"table_type"}))
	mock.ExpectExec(`CREATE VIEW DB\.MAIN\.V AS SELECT 1`).WillReturnResult(sqlmock.NewResult(0, 0))

	err := b.Create(context.Background(), "SELECT 1", "DB.MAIN.V", TableTypeView, false)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestObjectDetails(t *testing.T) {
	b, mock := newMockBase(t)
	mock.ExpectQuery("information_schema.tables").WillReturnRows(detailsRows("BASE TABLE"))

	details, err := b.ObjectDetails(context.Background(), "DB.MAIN.SQC_ABCDEFGHIJ")
	require.NoError(t, err)
	assert.True(t, details.Exists)
	assert.Equal(t, TableTypeTable, details.TableType)
	assert.True(t, details.Managed, "marker-prefixed tables are managed")

	mock.ExpectQuery("information_schema.tables").WillReturnRows(sqlmock.NewRows([]string{"table_type"}))
	details, err = b.ObjectDetails(context.Background(), "DB.MAIN.ORDERS")
	require.NoError(t, err)
	assert.False(t, details.Exists)
	assert.False(t, details.Managed)
}

func TestGetSchema_ExistingObject(t *testing.T) {
	b, mock := newMockBase(t)
	mock.ExpectQuery("information_schema.columns").WillReturnRows(
		sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("ID", "INTEGER").
			AddRow("AMOUNT", "DOUBLE"))

	cols, err := b.GetSchema(context.Background(), "DB.MAIN.ORDERS", "")
	require.NoError(t, err)
	assert.Equal(t, []Column{{Name: "ID", Type: "INTEGER"}, {Name: "AMOUNT", Type: "DOUBLE"}}, cols)
}

func TestGetSchema_MissingObject(t *testing.T) {
	b, mock := newMockBase(t)
	mock.ExpectQuery("information_schema.columns").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}))

	_, err := b.GetSchema(context.Background(), "DB.MAIN.GHOST", "")
	require.Error(t, err)
	assert.ErrorContains(t, err, "GHOST")
}

func TestGetSchema_WithCreateSQL(t *testing.T) {
	b, mock := newMockBase(t)
	mock.ExpectQuery("information_schema.tables").WillReturnRows(sqlmock.NewRows([]string{"table_type"}))
	mock.ExpectExec(`CREATE VIEW DB\.MAIN\.SQC_SCRATCH AS SELECT 1 AS ID`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("information_schema.columns").WillReturnRows(
		sqlmock.NewRows([]string{"column_name", "data_type"}).AddRow("ID", "INTEGER"))
	mock.ExpectExec(`DROP VIEW DB\.MAIN\.SQC_SCRATCH`).WillReturnResult(sqlmock.NewResult(0, 0))

	cols, err := b.GetSchema(context.Background(), "DB.MAIN.SQC_SCRATCH", "SELECT 1 AS ID")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetSchema_CreateSQLExistingObject(t *testing.T) {
	b, mock := newMockBase(t)
	mock.ExpectQuery("information_schema.tables").WillReturnRows(detailsRows("BASE TABLE"))
	mock.ExpectQuery("information_schema.columns").WillReturnRows(
		sqlmock.NewRows([]string{"column_name", "data_type"}).AddRow("ID", "INTEGER"))

	cols, err := b.GetSchema(context.Background(), "DB.MAIN.ORDERS", "SELECT 1 AS ID")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.NoError(t, mock.ExpectationsWereMet(), "an existing object is profiled without a scratch view")
}

func TestGetSchema_DropsScratchViewOnFailure(t *testing.T) {
	b, mock := newMockBase(t)
	mock.ExpectQuery("information_schema.tables").WillReturnRows(sqlmock.NewRows([]string{"table_type"}))
	mock.ExpectExec("CREATE VIEW").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("information_schema.columns").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}))
	mock.ExpectExec("DROP VIEW").WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := b.GetSchema(context.Background(), "DB.MAIN.SQC_SCRATCH", "SELECT 1 AS ID")
	require.Error(t, err, "zero profiled columns means the object was not found")
	assert.NoError(t, mock.ExpectationsWereMet(), "the scratch view must be dropped even on failure")
}

func TestNamespaceRoundTrip(t *testing.T) {
	b, _ := newMockBase(t)

	assert.Equal(t, identifier.Namespace{Database: "DB", Schema: "MAIN"}, b.DefaultNamespace())
	b.SetDefaultNamespace(identifier.Namespace{Database: "OTHER", Schema: "S2"})
	assert.Equal(t, identifier.Namespace{Database: "OTHER", Schema: "S2"}, b.DefaultNamespace())
}
