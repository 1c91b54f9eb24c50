// Package sales implements the filter and aggregation steps of the
// dashboard pipeline. Every function is pure: inputs are never mutated and
// results are freshly allocated.
package sales

import "vendas/internal/core"

// Filter returns the rows of t whose city, customer type and gender are all
// members of the corresponding selection. Values within a dimension are
// OR-combined, dimensions are AND-combined. An empty selection for any
// dimension yields an empty table. Row order is preserved.
func Filter(t *core.Table, sel core.Selections) *core.Table {
	sets := make(map[core.Dimension]map[string]struct{}, len(core.Dimensions))
	for _, d := range core.Dimensions {
		allowed := sel.Values(d)
		if len(allowed) == 0 {
			return core.NewTable(nil)
		}
		set := make(map[string]struct{}, len(allowed))
		for _, v := range allowed {
			set[v] = struct{}{}
		}
		sets[d] = set
	}

	out := make([]core.Transaction, 0, t.Len())
	t.Each(func(tx core.Transaction) {
		for d, set := range sets {
			if _, ok := set[tx.Value(d)]; !ok {
				return
			}
		}
		out = append(out, tx)
	})
	return core.NewTable(out)
}

// DefaultSelections selects every value observed in t, in first-seen order.
func DefaultSelections(t *core.Table) core.Selections {
	var sel core.Selections
	for _, d := range core.Dimensions {
		sel = sel.With(d, t.Distinct(d))
	}
	return sel
}
