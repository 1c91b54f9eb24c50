// Package dashboard assembles everything a dashboard view shows for one
// filter selection: the filter options, the KPIs and both chart series.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"vendas/internal/core"
	"vendas/internal/log"
	"vendas/internal/sales"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Labels shown on the dashboard page.
const (
	Title                   = "Dashboard de Vendas"
	LabelFilters            = "Filtros"
	LabelCity               = "Cidade"
	LabelCustomerType       = "Publico Alvo"
	LabelGender             = "Gênero"
	LabelTotalSales         = "Vendas Totais"
	LabelAvgRating          = "Média de Avaliações"
	LabelAvgRevenuePerTrans = "Média de Receita por Transação"
)

// TableLoader yields the canonical sales table.
type TableLoader interface {
	Load(ctx context.Context) (*core.Table, error)
}

// FormattedKPIs are the KPI strings as displayed.
type FormattedKPIs struct {
	TotalSales               string `json:"total_sales"`
	AvgRating                string `json:"avg_rating"`
	AvgRevenuePerTransaction string `json:"avg_revenue_per_transaction"`
}

// RenderModel is the complete, presentation-ready state of one render.
type RenderModel struct {
	Options    core.Selections        `json:"options"`
	Selected   core.Selections        `json:"selected"`
	Rows       int                    `json:"rows"`
	KPIs       sales.KPIs             `json:"kpis"`
	Formatted  FormattedKPIs          `json:"formatted"`
	ByCategory []sales.CategoryAmount `json:"by_category"`
	ByHour     []sales.HourAmount     `json:"by_hour"`
}

// Empty reports whether the selection matched no rows.
func (m RenderModel) Empty() bool {
	return m.Rows == 0
}

// IsSelected reports whether value is selected for d.
func (m RenderModel) IsSelected(d core.Dimension, value string) bool {
	for _, v := range m.Selected.Values(d) {
		if v == value {
			return true
		}
	}
	return false
}

// Service runs the filter and aggregation steps over the loaded table.
type Service struct {
	loader  TableLoader
	logger  *log.StructuredLogger
	printer *message.Printer
}

// NewService returns a service reading from loader.
func NewService(loader TableLoader, logger *log.Logger) *Service {
	return &Service{
		loader:  loader,
		logger:  log.NewStructuredLogger(logger.WithComponent(log.ComponentDashboard)),
		printer: message.NewPrinter(language.English),
	}
}

// Defaults returns the selection shown on first visit: every observed value.
func (s *Service) Defaults(ctx context.Context) (core.Selections, error) {
	t, err := s.loader.Load(ctx)
	if err != nil {
		return core.Selections{}, fmt.Errorf("load sales: %w", err)
	}
	return sales.DefaultSelections(t), nil
}

// Render filters the table by sel and aggregates the result. A selection
// that matches nothing yields zero KPIs and empty series.
func (s *Service) Render(ctx context.Context, sel core.Selections) (RenderModel, error) {
	t, err := s.loader.Load(ctx)
	if err != nil {
		return RenderModel{}, fmt.Errorf("load sales: %w", err)
	}

	filtered := sales.Filter(t, sel)
	kpis := sales.ComputeKPIs(filtered)

	model := RenderModel{
		Options:    sales.DefaultSelections(t),
		Selected:   normalize(sel),
		Rows:       filtered.Len(),
		KPIs:       kpis,
		Formatted:  s.Format(kpis),
		ByCategory: sales.SalesByCategory(filtered),
		ByHour:     sales.SalesByHour(filtered),
	}

	s.logger.LogDashboardRendered(ctx, len(sel.Cities), len(sel.CustomerTypes), len(sel.Genders), model.Rows)
	return model, nil
}

// Format renders KPIs the way the page shows them.
func (s *Service) Format(k sales.KPIs) FormattedKPIs {
	return FormattedKPIs{
		TotalSales:               s.printer.Sprintf("US $ %d", k.TotalSales),
		AvgRating:                s.printer.Sprintf("%.1f ⭐", k.AvgRating),
		AvgRevenuePerTransaction: "US $ " + s.groupedFloat(k.AvgRevenuePerTransaction),
	}
}

// groupedFloat prints the shortest digits that round-trip v, keeping at
// least one decimal and grouping thousands: 322.9, 1,234.56, 5.0.
func (s *Service) groupedFloat(v float64) string {
	digits := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	_, frac, _ := strings.Cut(digits, ".")
	if frac == "" {
		frac = "0"
	}
	whole := s.printer.Sprintf("%d", int64(math.Abs(v)))
	if math.Signbit(v) && v != 0 {
		whole = "-" + whole
	}
	return whole + "." + frac
}

// normalize replaces nil dimension slices with empty ones so the JSON
// encoding distinguishes an empty selection from a missing field.
func normalize(sel core.Selections) core.Selections {
	out := sel
	for _, d := range core.Dimensions {
		if out.Values(d) == nil {
			out = out.With(d, []string{})
		}
	}
	return out
}
