package checks

import (
	"context"
	"regexp"
	"testing"

	"medicamentos-etl/core/database"
	"medicamentos-etl/core/search"
	"medicamentos-etl/core/search/memsearch"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTable(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := database.Open(sqlDB)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.tables")).
		WithArgs("medicamentos").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs("medicamentos").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).
			AddRow("NUMERO_REGISTRO_PRODUTO", "text").
			AddRow("PRODUTO", "text"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.table_constraints")).
		WithArgs("medicamentos").
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name"}).AddRow("medicamentos_pkey"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "medicamentos"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	report, err := CheckTable(context.Background(), db, "medicamentos")
	require.NoError(t, err)
	assert.Equal(t, &TableReport{Name: "medicamentos", Exists: true, Rows: 42, Columns: 2, PrimaryKey: "medicamentos_pkey"}, report)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckTable_Missing(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := database.Open(sqlDB)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.tables")).
		WithArgs("cid10").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	report, err := CheckTable(context.Background(), db, "cid10")
	require.NoError(t, err)
	assert.False(t, report.Exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckAlias(t *testing.T) {
	ctx := context.Background()
	store := memsearch.New()
	require.NoError(t, store.CreateIndex(ctx, "medicamentos-1000", search.IndexSpec{}))
	_, err := store.BulkIndex(ctx, "medicamentos-1000", []search.Document{{ID: "1"}, {ID: "2"}})
	require.NoError(t, err)
	require.NoError(t, store.Refresh(ctx, "medicamentos-1000"))
	require.NoError(t, store.UpdateAliases(ctx, []search.AliasAction{
		{Type: search.AliasAdd, Index: "medicamentos-1000", Alias: "medicamentos"},
	}))

	report, err := CheckAlias(ctx, store, "medicamentos")
	require.NoError(t, err)
	assert.Equal(t, []string{"medicamentos-1000"}, report.Indices)
	assert.Equal(t, int64(2), report.Documents)
	assert.False(t, report.Concrete)

	missing, err := CheckAlias(ctx, store, "cid10")
	require.NoError(t, err)
	assert.Empty(t, missing.Indices)

	require.NoError(t, store.CreateIndex(ctx, "legado", search.IndexSpec{}))
	concrete, err := CheckAlias(ctx, store, "legado")
	require.NoError(t, err)
	assert.True(t, concrete.Concrete)
	assert.Equal(t, []string{"legado"}, concrete.Indices)
	assert.Equal(t, int64(0), concrete.Documents)
}
