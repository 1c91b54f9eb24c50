package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"vendas/internal/core"
	"vendas/internal/loader"
	"vendas/internal/sheets"
	"vendas/internal/sheets/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "vendas.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	repo.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC) }
	return repo
}

func sampleTable(t *testing.T) *core.Table {
	t.Helper()
	tbl, err := loader.ParseSheet(mustRead(t, memory.New(memory.SampleHeader, memory.SampleRows)))
	require.NoError(t, err)
	return tbl
}

func mustRead(t *testing.T, s *memory.Store) sheets.Sheet {
	t.Helper()
	sheet, err := s.ReadSales(context.Background())
	require.NoError(t, err)
	return sheet
}

func TestReadSalesWithoutImport(t *testing.T) {
	repo := newRepo(t)
	_, err := repo.ReadSales(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrResource)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestReplaceAndReadRoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	tbl := sampleTable(t)

	imp, err := repo.ReplaceSales(ctx, tbl, "supermarkt_sales.xlsx")
	require.NoError(t, err)
	assert.Equal(t, int64(12), imp.RowCount)
	assert.Equal(t, "supermarkt_sales.xlsx", imp.Source)

	got, err := loader.New(repo).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows(), got.Rows())

	last, err := repo.LastImport(ctx)
	require.NoError(t, err)
	assert.Equal(t, imp.ID, last.ID)
	assert.True(t, last.ImportedAt.Equal(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)))
}

func TestReplaceSalesOverwrites(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.ReplaceSales(ctx, sampleTable(t), "first.xlsx")
	require.NoError(t, err)

	small := core.NewTable([]core.Transaction{{
		City: "Yangon", CustomerType: "Member", Gender: "Female", ProductLine: "Food and beverages",
		Total: 100, Rating: 7, Time: "13:00:00", Hour: 13,
	}})
	imp, err := repo.ReplaceSales(ctx, small, "second.xlsx")
	require.NoError(t, err)
	assert.Equal(t, int64(2), imp.ID)

	sheet, err := repo.ReadSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.RequiredColumns, sheet.Header)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, []string{"Yangon", "Member", "Female", "Food and beverages", "100", "7", "13:00:00"}, sheet.Rows[0])
}

func TestReplaceEmptyTable(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	_, err := repo.ReplaceSales(ctx, core.NewTable(nil), "empty.xlsx")
	require.NoError(t, err)

	sheet, err := repo.ReadSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sheet.Rows)
}

func TestReopenKeepsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vendas.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	require.NoError(t, err)
	_, err = repo.ReplaceSales(ctx, sampleTable(t), "a.xlsx")
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path)
	require.NoError(t, err)
	defer repo.Close()
	require.NoError(t, repo.Ping(ctx))
	assert.Equal(t, uint(1), repo.SchemaVersion(), "reopening applies no further migrations")

	sheet, err := repo.ReadSales(ctx)
	require.NoError(t, err)
	assert.Len(t, sheet.Rows, 12)
}
