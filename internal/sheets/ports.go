package sheets

import (
	"context"
	"fmt"
	"strings"
)

// Sheet is a raw worksheet window: the header row followed by data rows.
// Cells hold display strings; rows may be shorter than the header.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Ports for inbound adapters.
type (
	// SalesReader returns the sales worksheet window from a backend.
	SalesReader interface {
		ReadSales(ctx context.Context) (Sheet, error)
	}
)

// Cell returns row[i] trimmed, or "" when the row is too short.
func Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// IsBlank reports whether every cell of row is empty.
func IsBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ToStrings converts a row of API values to display strings.
func ToStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		if v == nil {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// Window locates the sales table inside a workbook: the worksheet, the
// number of rows above the header, the column range and the data row cap.
type Window struct {
	Sheet    string
	SkipRows int
	Columns  string
	MaxRows  int
}

// DefaultWindow matches the layout of the supermarket sales workbook.
func DefaultWindow() Window {
	return Window{Sheet: "Sales", SkipRows: 3, Columns: "B:R", MaxRows: 1000}
}

// ColumnRange splits Columns ("B:R") into its first and last column names.
func (w Window) ColumnRange() (first, last string, err error) {
	first, last, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(w.Columns)), ":")
	if !ok || !isColumnName(first) || !isColumnName(last) {
		return "", "", fmt.Errorf("invalid column range %q", w.Columns)
	}
	return first, last, nil
}

// A1Range renders the window as an A1 range including the header row,
// e.g. "Sales!B4:R1004".
func (w Window) A1Range() (string, error) {
	first, last, err := w.ColumnRange()
	if err != nil {
		return "", err
	}
	headerRow := w.SkipRows + 1
	return fmt.Sprintf("%s!%s%d:%s%d", w.Sheet, first, headerRow, last, headerRow+w.MaxRows), nil
}

func isColumnName(s string) bool {
	if s == "" || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
