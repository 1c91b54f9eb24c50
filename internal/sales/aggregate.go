package sales

import (
	"math"
	"math/big"
	"sort"

	"vendas/internal/core"

	"github.com/shopspring/decimal"
)

type (
	// KPIs are the headline figures of the dashboard.
	KPIs struct {
		TotalSales               int64   `json:"total_sales"`
		AvgRating                float64 `json:"avg_rating"`
		AvgRevenuePerTransaction float64 `json:"avg_revenue_per_transaction"`
	}

	// CategoryAmount is the revenue of one product line.
	CategoryAmount struct {
		ProductLine string  `json:"product_line"`
		Total       float64 `json:"total"`
	}

	// HourAmount is the revenue of one hour of the day.
	HourAmount struct {
		Hour  int     `json:"hour"`
		Total float64 `json:"total"`
	}
)

// ComputeKPIs summarizes t. Total sales is the revenue sum truncated toward
// zero; the averages are rounded half-to-even to 1 and 2 decimals. An empty
// table yields zero for every figure.
func ComputeKPIs(t *core.Table) KPIs {
	n := t.Len()
	if n == 0 {
		return KPIs{}
	}

	var total, rating float64
	t.Each(func(tx core.Transaction) {
		total += tx.Total
		rating += tx.Rating
	})

	count := float64(n)
	return KPIs{
		TotalSales:               int64(total),
		AvgRating:                round(rating/count, 1),
		AvgRevenuePerTransaction: round(total/count, 2),
	}
}

// SalesByCategory sums revenue per product line and orders the result by
// ascending revenue. Ties keep first-seen order.
func SalesByCategory(t *core.Table) []CategoryAmount {
	index := make(map[string]int)
	out := make([]CategoryAmount, 0)
	t.Each(func(tx core.Transaction) {
		i, ok := index[tx.ProductLine]
		if !ok {
			i = len(out)
			index[tx.ProductLine] = i
			out = append(out, CategoryAmount{ProductLine: tx.ProductLine})
		}
		out[i].Total += tx.Total
	})

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total < out[j].Total
	})
	return out
}

// SalesByHour sums revenue per hour of day, ordered by hour. Hours without
// transactions are omitted.
func SalesByHour(t *core.Table) []HourAmount {
	var sums [24]float64
	var seen [24]bool
	t.Each(func(tx core.Transaction) {
		if tx.Hour < 0 || tx.Hour > 23 {
			return
		}
		sums[tx.Hour] += tx.Total
		seen[tx.Hour] = true
	})

	out := make([]HourAmount, 0)
	for h := range sums {
		if seen[h] {
			out = append(out, HourAmount{Hour: h, Total: sums[h]})
		}
	}
	return out
}

// round rounds the exact binary value of v half-to-even, so 2.675 (stored
// as 2.67499999...) becomes 2.67.
func round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := exactDecimal(v).RoundBank(places).Float64()
	return f
}

// exactDecimal expands v = mant * 2^exp without the shortest-representation
// step of decimal.NewFromFloat.
func exactDecimal(v float64) decimal.Decimal {
	if v == 0 {
		return decimal.Zero
	}
	frac, exp := math.Frexp(v)
	mant := big.NewInt(int64(frac * (1 << 53)))
	exp -= 53
	if exp >= 0 {
		return decimal.NewFromBigInt(mant.Lsh(mant, uint(exp)), 0)
	}
	// mant * 2^-n == mant * 5^n * 10^-n
	five := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(-exp)), nil)
	return decimal.NewFromBigInt(mant.Mul(mant, five), int32(exp))
}
