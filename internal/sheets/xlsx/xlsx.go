// Package xlsx reads the sales worksheet from a local Excel workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"vendas/internal/core"
	ports "vendas/internal/sheets"

	"github.com/xuri/excelize/v2"
)

// Workbook reads a fixed window of a worksheet from an .xlsx file. The file
// is opened on every ReadSales call; memoization belongs to the loader.
type Workbook struct {
	path   string
	window ports.Window
}

var _ ports.SalesReader = (*Workbook)(nil)

// New returns a reader for the workbook at path.
func New(path string, window ports.Window) *Workbook {
	return &Workbook{path: path, window: window}
}

// Path returns the workbook location.
func (w *Workbook) Path() string {
	return w.path
}

// ReadSales opens the workbook and returns the header row followed by at
// most MaxRows data rows, restricted to the configured column range.
func (w *Workbook) ReadSales(ctx context.Context) (ports.Sheet, error) {
	firstCol, lastCol, err := w.columnBounds()
	if err != nil {
		return ports.Sheet{}, err
	}

	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return ports.Sheet{}, core.NewResourceError(w.path, err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(w.window.Sheet)
	if err != nil || idx == -1 {
		if err == nil {
			err = errors.New("worksheet not found")
		}
		return ports.Sheet{}, core.NewResourceError(w.path+"#"+w.window.Sheet, err)
	}

	// Raw values keep the stored precision of number-formatted cells.
	rows, err := f.GetRows(w.window.Sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return ports.Sheet{}, core.NewResourceError(w.path+"#"+w.window.Sheet, err)
	}
	if len(rows) <= w.window.SkipRows {
		return ports.Sheet{}, core.NewResourceError(w.path+"#"+w.window.Sheet,
			fmt.Errorf("no header row after skipping %d rows", w.window.SkipRows))
	}

	rows = rows[w.window.SkipRows:]
	header := project(rows[0], firstCol, lastCol)
	data := rows[1:]
	if len(data) > w.window.MaxRows {
		data = data[:w.window.MaxRows]
	}

	sheet := ports.Sheet{Name: w.window.Sheet, Header: header, Rows: make([][]string, 0, len(data))}
	for _, row := range data {
		sheet.Rows = append(sheet.Rows, project(row, firstCol, lastCol))
	}

	slog.DebugContext(ctx, "Workbook window read",
		"path", w.path,
		"sheet", w.window.Sheet,
		"columns", w.window.Columns,
		"rows", len(sheet.Rows))
	return sheet, nil
}

// columnBounds converts the window's column range to zero-based indices.
func (w *Workbook) columnBounds() (int, int, error) {
	first, last, err := w.window.ColumnRange()
	if err != nil {
		return 0, 0, err
	}
	a, err := excelize.ColumnNameToNumber(first)
	if err != nil {
		return 0, 0, fmt.Errorf("column %q: %w", first, err)
	}
	b, err := excelize.ColumnNameToNumber(last)
	if err != nil {
		return 0, 0, fmt.Errorf("column %q: %w", last, err)
	}
	if b < a {
		return 0, 0, fmt.Errorf("invalid column range %q", w.window.Columns)
	}
	return a - 1, b - 1, nil
}

// project returns row[first..last], padding short rows with blanks.
func project(row []string, first, last int) []string {
	out := make([]string, last-first+1)
	for i := first; i <= last && i < len(row); i++ {
		out[i-first] = row[i]
	}
	return out
}
