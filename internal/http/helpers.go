package http

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"vendas/internal/core"
	"vendas/internal/dashboard"
)

// paramFiltered marks a submitted filter form. Without it the request asks
// for the default selection.
const paramFiltered = "filtered"

// parseSelections reads the dimension filters from the query string. A
// request without the filtered marker gets every observed value; once the
// form was submitted, a missing dimension means nothing is selected.
func (s *Server) parseSelections(ctx context.Context, r *http.Request) (core.Selections, error) {
	q := r.URL.Query()
	if q.Get(paramFiltered) == "" {
		return s.dashboard.Defaults(ctx)
	}

	var sel core.Selections
	for _, d := range core.Dimensions {
		sel = sel.With(d, cleanValues(q[d.String()]))
	}
	return sel, nil
}

// cleanValues trims values, drops blanks and control characters, and keeps
// the first occurrence of duplicates.
func cleanValues(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = sanitizeInput(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s))
}

// encodeSelections renders sel as the query string the filter form would
// submit, so chart URLs reproduce the page's selection.
func encodeSelections(sel core.Selections) string {
	v := url.Values{}
	v.Set(paramFiltered, "1")
	for _, d := range core.Dimensions {
		for _, value := range sel.Values(d) {
			v.Add(d.String(), value)
		}
	}
	return v.Encode()
}

type filterOption struct {
	Value    string
	Selected bool
}

type filterGroup struct {
	Name    string
	Label   string
	Options []filterOption
}

type pageData struct {
	Title            string
	LabelFilters     string
	LabelTotalSales  string
	LabelAvgRating   string
	LabelAvgRevenue  string
	NoDataMessage    string
	Filters          []filterGroup
	Model            dashboard.RenderModel
	CategoryChartURL template.URL
	HourChartURL     template.URL
}

var dimensionLabels = map[core.Dimension]string{
	core.DimensionCity:         dashboard.LabelCity,
	core.DimensionCustomerType: dashboard.LabelCustomerType,
	core.DimensionGender:       dashboard.LabelGender,
}

func newPageData(m dashboard.RenderModel, noData string) pageData {
	query := encodeSelections(m.Selected)
	data := pageData{
		Title:            dashboard.Title,
		LabelFilters:     dashboard.LabelFilters,
		LabelTotalSales:  dashboard.LabelTotalSales,
		LabelAvgRating:   dashboard.LabelAvgRating,
		LabelAvgRevenue:  dashboard.LabelAvgRevenuePerTrans,
		NoDataMessage:    noData,
		Model:            m,
		CategoryChartURL: template.URL("/charts/category.svg?" + query),
		HourChartURL:     template.URL("/charts/hour.svg?" + query),
	}
	for _, d := range core.Dimensions {
		group := filterGroup{Name: d.String(), Label: dimensionLabels[d]}
		for _, v := range m.Options.Values(d) {
			group.Options = append(group.Options, filterOption{Value: v, Selected: m.IsSelected(d, v)})
		}
		data.Filters = append(data.Filters, group)
	}
	return data
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
