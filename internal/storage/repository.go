// Package storage keeps the imported sales snapshot in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"vendas/internal/core"
	"vendas/internal/sheets"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores the canonical table written by the import
// pipeline and serves it back as a sales sheet.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	path    string
	schema  uint
	now     func() time.Time
}

var _ sheets.SalesReader = (*SQLiteRepository)(nil)

// ErrNoSnapshot is returned when no import has been recorded yet.
var ErrNoSnapshot = errors.New("no sales snapshot imported")

// NewSQLiteRepository opens (or creates) the snapshot database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		path:    dbPath,
		schema:  version,
		now:     time.Now,
	}, nil
}

// SchemaVersion returns the migration version the database was opened at.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schema
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ReplaceSales swaps the stored snapshot for t in one transaction and
// records the import.
func (r *SQLiteRepository) ReplaceSales(ctx context.Context, t *core.Table, source string) (Import, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Import{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	if err := q.DeleteSales(ctx); err != nil {
		return Import{}, fmt.Errorf("delete sales: %w", err)
	}

	for i := 0; i < t.Len(); i++ {
		row := t.Row(i)
		if err := q.InsertSale(ctx, Sale{
			Position:     int64(i),
			City:         row.City,
			CustomerType: row.CustomerType,
			Gender:       row.Gender,
			ProductLine:  row.ProductLine,
			Total:        row.Total,
			Rating:       row.Rating,
			Time:         row.Time,
		}); err != nil {
			return Import{}, fmt.Errorf("insert sale %d: %w", i+1, err)
		}
	}

	imp, err := q.CreateImport(ctx, source, int64(t.Len()), r.now())
	if err != nil {
		return Import{}, fmt.Errorf("record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Import{}, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Sales snapshot replaced",
		"import_id", imp.ID,
		"source", source,
		"rows", imp.RowCount)
	return imp, nil
}

// LastImport returns the most recent import, or ErrNoSnapshot.
func (r *SQLiteRepository) LastImport(ctx context.Context) (Import, error) {
	imp, err := r.queries.LastImport(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Import{}, ErrNoSnapshot
	}
	if err != nil {
		return Import{}, fmt.Errorf("last import: %w", err)
	}
	return imp, nil
}

// ReadSales implements sheets.SalesReader. The sheet carries the canonical
// column headers so it parses with the same rules as a workbook.
func (r *SQLiteRepository) ReadSales(ctx context.Context) (sheets.Sheet, error) {
	if _, err := r.LastImport(ctx); err != nil {
		return sheets.Sheet{}, core.NewResourceError(r.path, err)
	}

	items, err := r.queries.ListSales(ctx)
	if err != nil {
		return sheets.Sheet{}, core.NewResourceError(r.path, fmt.Errorf("list sales: %w", err))
	}

	sheet := sheets.Sheet{
		Name:   "sqlite",
		Header: append([]string(nil), core.RequiredColumns...),
		Rows:   make([][]string, 0, len(items)),
	}
	for _, s := range items {
		sheet.Rows = append(sheet.Rows, []string{
			s.City,
			s.CustomerType,
			s.Gender,
			s.ProductLine,
			strconv.FormatFloat(s.Total, 'f', -1, 64),
			strconv.FormatFloat(s.Rating, 'f', -1, 64),
			s.Time,
		})
	}
	return sheet, nil
}
