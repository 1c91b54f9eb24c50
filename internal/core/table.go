package core

import "slices"

// Table is an immutable, ordered set of transactions. The zero value is an
// empty table.
type Table struct {
	rows []Transaction
}

// NewTable copies rows into a new table.
func NewTable(rows []Transaction) *Table {
	return &Table{rows: slices.Clone(rows)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Row returns the i-th transaction by value.
func (t *Table) Row(i int) Transaction {
	return t.rows[i]
}

// Rows returns a copy of the table's rows.
func (t *Table) Rows() []Transaction {
	if t == nil {
		return nil
	}
	return slices.Clone(t.rows)
}

// Each calls fn for every row in order.
func (t *Table) Each(fn func(Transaction)) {
	if t == nil {
		return
	}
	for _, r := range t.rows {
		fn(r)
	}
}

// Distinct returns the values observed for d in first-seen order.
func (t *Table) Distinct(d Dimension) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	t.Each(func(tx Transaction) {
		v := tx.Value(d)
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	})
	return out
}
