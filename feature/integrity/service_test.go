package integrity

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"medicamentos-etl/core/database"
	"medicamentos-etl/core/publish"
	"medicamentos-etl/core/search"
	"medicamentos-etl/core/search/memsearch"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := database.Open(sqlDB)
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}
	return gormDB, mock
}

func expectTable(mock sqlmock.Sqlmock, table string, rows int64) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.tables")).
		WithArgs(table).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.columns")).
		WithArgs(table).
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type"}).AddRow("ID", "text"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.table_constraints")).
		WithArgs(table).
		WillReturnRows(sqlmock.NewRows([]string{"constraint_name"}).AddRow(table + "_pkey"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "` + table + `"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(rows))
}

func seedAlias(t *testing.T, store *memsearch.Store, alias string, indices map[string]int) {
	ctx := context.Background()
	var actions []search.AliasAction
	for name, docs := range indices {
		require.NoError(t, store.CreateIndex(ctx, name, search.IndexSpec{}))
		batch := make([]search.Document, docs)
		_, err := store.BulkIndex(ctx, name, batch)
		require.NoError(t, err)
		require.NoError(t, store.Refresh(ctx, name))
		actions = append(actions, search.AliasAction{Type: search.AliasAdd, Index: name, Alias: alias})
	}
	require.NoError(t, store.UpdateAliases(ctx, actions))
}

type fakeLister struct {
	name      string
	artifacts []string
	err       error
	calls     atomic.Int32
}

func (f *fakeLister) Name() string { return f.name }

func (f *fakeLister) Production(dest publish.Destination) string { return dest.Table }

func (f *fakeLister) StaleArtifacts(context.Context, string, time.Time) ([]string, error) {
	f.calls.Add(1)
	return f.artifacts, f.err
}

func TestService_CheckConsistent(t *testing.T) {
	db, mock := setupMockDB(t)
	store := memsearch.New()
	seedAlias(t, store, "medicamentos", map[string]int{"medicamentos-1000": 3})
	expectTable(mock, "medicamentos", 3)

	svc := NewService(Options{DB: db, Search: store, Targets: []ArtifactLister{&fakeLister{name: "relational"}}}, zap.NewNop())
	report, err := svc.Check(context.Background(), "medicamentos", false)
	require.NoError(t, err)

	assert.True(t, report.Consistent, report.Problems)
	assert.Empty(t, report.Problems)
	assert.Equal(t, int64(3), report.Table.Rows)
	assert.Equal(t, "medicamentos_pkey", report.Table.PrimaryKey)
	assert.Equal(t, []string{"medicamentos-1000"}, report.Alias.Indices)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_CheckReportsProblems(t *testing.T) {
	db, mock := setupMockDB(t)
	store := memsearch.New()
	seedAlias(t, store, "medicamentos", map[string]int{"medicamentos-1000": 3, "medicamentos-2000": 2})
	expectTable(mock, "medicamentos", 4)

	lister := &fakeLister{name: "search", artifacts: []string{"medicamentos-500"}}
	svc := NewService(Options{DB: db, Search: store, Targets: []ArtifactLister{lister}}, zap.NewNop())
	report, err := svc.Check(context.Background(), "medicamentos", false)
	require.NoError(t, err)

	assert.False(t, report.Consistent)
	assert.Equal(t, []string{
		"alias medicamentos resolves to 2 indices",
		"table holds 4 rows but alias exposes 5 documents",
		"1 orphaned search artifacts",
	}, report.Problems)
	assert.Equal(t, []string{"medicamentos-500"}, report.Orphans["search"])
}

func TestService_CheckMissingEverywhere(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM information_schema.tables")).
		WithArgs("cid10").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	svc := NewService(Options{DB: db, Search: memsearch.New()}, zap.NewNop())
	report, err := svc.Check(context.Background(), "cid10", false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"table cid10 does not exist",
		"alias cid10 does not resolve to any index",
	}, report.Problems)
}

func TestService_CheckListerError(t *testing.T) {
	svc := NewService(Options{Targets: []ArtifactLister{&fakeLister{name: "relational", err: errors.New("connection refused")}}}, zap.NewNop())
	_, err := svc.Check(context.Background(), "medicamentos", false)
	assert.ErrorContains(t, err, "connection refused")
}

func TestService_CheckCachesAndSharesBuilds(t *testing.T) {
	lister := &fakeLister{name: "search"}
	svc := NewService(Options{Targets: []ArtifactLister{lister}, CacheTTL: time.Minute}, zap.NewNop())

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Check(context.Background(), "medicamentos", false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, lister.calls.Load(), int32(8))

	before := lister.calls.Load()
	report, err := svc.Check(context.Background(), "medicamentos", false)
	require.NoError(t, err)
	assert.True(t, report.Cached)
	assert.Equal(t, before, lister.calls.Load())

	report, err = svc.Check(context.Background(), "medicamentos", true)
	require.NoError(t, err)
	assert.False(t, report.Cached)
	assert.Equal(t, before+1, lister.calls.Load())
}

func TestService_CheckWithoutCache(t *testing.T) {
	lister := &fakeLister{name: "search"}
	svc := NewService(Options{Targets: []ArtifactLister{lister}}, zap.NewNop())

	for range 2 {
		report, err := svc.Check(context.Background(), "medicamentos", false)
		require.NoError(t, err)
		assert.False(t, report.Cached)
	}
	assert.Equal(t, int32(2), lister.calls.Load())
}

func TestService_Sessions(t *testing.T) {
	svc := NewService(Options{}, zap.NewNop())
	assert.Empty(t, svc.Sessions())

	coord := publish.NewCoordinator(publish.Config{}, zap.NewNop(), nil)
	svc = NewService(Options{Sessions: coord}, zap.NewNop())
	assert.Empty(t, svc.Sessions())
}
