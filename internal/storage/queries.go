package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the snapshot statements.
type Queries struct {
	db DBTX
}

// New binds the statements to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx binds the statements to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Sale is one stored transaction.
type Sale struct {
	Position     int64
	City         string
	CustomerType string
	Gender       string
	ProductLine  string
	Total        float64
	Rating       float64
	Time         string
}

// Import records one completed snapshot replacement.
type Import struct {
	ID         int64
	Source     string
	RowCount   int64
	ImportedAt time.Time
}

const deleteSales = `DELETE FROM sales`

func (q *Queries) DeleteSales(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteSales)
	return err
}

const insertSale = `INSERT INTO sales (position, city, customer_type, gender, product_line, total, rating, time)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) InsertSale(ctx context.Context, s Sale) error {
	_, err := q.db.ExecContext(ctx, insertSale,
		s.Position, s.City, s.CustomerType, s.Gender, s.ProductLine, s.Total, s.Rating, s.Time)
	return err
}

const listSales = `SELECT position, city, customer_type, gender, product_line, total, rating, time
FROM sales ORDER BY position`

func (q *Queries) ListSales(ctx context.Context) ([]Sale, error) {
	rows, err := q.db.QueryContext(ctx, listSales)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.Position, &s.City, &s.CustomerType, &s.Gender, &s.ProductLine, &s.Total, &s.Rating, &s.Time); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createImport = `INSERT INTO imports (source, row_count, imported_at) VALUES (?, ?, ?)`

func (q *Queries) CreateImport(ctx context.Context, source string, rowCount int64, at time.Time) (Import, error) {
	res, err := q.db.ExecContext(ctx, createImport, source, rowCount, at.UnixMilli())
	if err != nil {
		return Import{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Import{}, err
	}
	return Import{ID: id, Source: source, RowCount: rowCount, ImportedAt: time.UnixMilli(at.UnixMilli()).UTC()}, nil
}

const lastImport = `SELECT id, source, row_count, imported_at FROM imports ORDER BY id DESC LIMIT 1`

func (q *Queries) LastImport(ctx context.Context) (Import, error) {
	var i Import
	var millis int64
	if err := q.db.QueryRowContext(ctx, lastImport).Scan(&i.ID, &i.Source, &i.RowCount, &millis); err != nil {
		return Import{}, err
	}
	i.ImportedAt = time.UnixMilli(millis).UTC()
	return i, nil
}
