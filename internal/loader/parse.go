package loader

import (
	"fmt"
	"strconv"
	"strings"

	"vendas/internal/core"
	"vendas/internal/sheets"
)

// ParseSheet converts a raw worksheet window into the canonical table.
// Required columns are located by header name; blank rows are skipped.
// Any malformed Time, Total or Rating value fails the whole sheet.
func ParseSheet(sheet sheets.Sheet) (*core.Table, error) {
	cols, err := locateColumns(sheet)
	if err != nil {
		return nil, err
	}

	rows := make([]core.Transaction, 0, len(sheet.Rows))
	for i, row := range sheet.Rows {
		if sheets.IsBlank(row) {
			continue
		}
		tx, err := parseRow(i+1, row, cols)
		if err != nil {
			return nil, err
		}
		rows = append(rows, tx)
	}
	return core.NewTable(rows), nil
}

func locateColumns(sheet sheets.Sheet) (map[string]int, error) {
	index := make(map[string]int, len(sheet.Header))
	for i, h := range sheet.Header {
		h = strings.TrimSpace(h)
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}

	cols := make(map[string]int, len(core.RequiredColumns))
	var missing []string
	for _, name := range core.RequiredColumns {
		i, ok := index[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[name] = i
	}
	if len(missing) > 0 {
		return nil, core.NewResourceError(sheetLabel(sheet),
			fmt.Errorf("missing columns %s; got headers=%v", strings.Join(missing, ","), sheet.Header))
	}
	return cols, nil
}

func parseRow(n int, row []string, cols map[string]int) (core.Transaction, error) {
	get := func(name string) string { return sheets.Cell(row, cols[name]) }

	total, err := parseNumber(get(core.ColumnTotal))
	if err != nil {
		return core.Transaction{}, &core.ParseError{Row: n, Column: core.ColumnTotal, Value: get(core.ColumnTotal), Err: err}
	}
	rating, err := parseNumber(get(core.ColumnRating))
	if err != nil {
		return core.Transaction{}, &core.ParseError{Row: n, Column: core.ColumnRating, Value: get(core.ColumnRating), Err: err}
	}
	hour, err := core.ParseHour(get(core.ColumnTime))
	if err != nil {
		return core.Transaction{}, &core.ParseError{Row: n, Column: core.ColumnTime, Value: get(core.ColumnTime), Err: err}
	}

	return core.Transaction{
		City:         get(core.ColumnCity),
		CustomerType: get(core.ColumnCustomerType),
		Gender:       get(core.ColumnGender),
		ProductLine:  get(core.ColumnProductLine),
		Total:        total,
		Rating:       rating,
		Time:         get(core.ColumnTime),
		Hour:         hour,
	}, nil
}

// parseNumber accepts plain decimals and thousands-separated display values
// such as "1,042.65".
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}

func sheetLabel(sheet sheets.Sheet) string {
	if sheet.Name == "" {
		return "sheet"
	}
	return "sheet " + sheet.Name
}
