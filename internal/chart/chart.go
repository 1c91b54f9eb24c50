// Package chart renders the dashboard bar charts as SVG documents.
package chart

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"strconv"

	"vendas/internal/cache"
	"vendas/internal/log"
	"vendas/internal/sales"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Chart titles.
const (
	TitleByCategory = "Vendas por Linha de Produto"
	TitleByHour     = "Vendas por Hora"
)

// NoDataMessage is shown in place of a chart when the selection has no rows.
const NoDataMessage = "Sem dados para os filtros selecionados"

// BarColor is the fill color of every bar.
const BarColor = "0083B8"

const (
	height     = 420
	barWidth   = 56
	barSpacing = 24
	minWidth   = 560

	// horizontal layout
	hWidth      = 720
	hBarHeight  = 28
	hBarSpacing = 14
	hTop        = 56
	hBottom     = 24
	hLabelWidth = 180
	hValueWidth = 90
	hFontSize   = 11.0
	hTitleSize  = 14.0
)

// Renderer draws bar charts and keeps recently rendered documents in a
// cache keyed by chart kind and series content.
type Renderer struct {
	cache  cache.Cache[[]byte]
	logger *log.Logger
}

// NewRenderer returns a renderer backed by c. A nil cache disables caching.
func NewRenderer(c cache.Cache[[]byte], logger *log.Logger) *Renderer {
	return &Renderer{cache: c, logger: logger.WithComponent(log.ComponentChart)}
}

// Bar is one labelled value of a series.
type Bar struct {
	Label string
	Value float64
}

// CategoryBars converts revenue per product line to bars, keeping order.
func CategoryBars(items []sales.CategoryAmount) []Bar {
	bars := make([]Bar, len(items))
	for i, it := range items {
		bars[i] = Bar{Label: it.ProductLine, Value: it.Total}
	}
	return bars
}

// HourBars converts revenue per hour to bars labelled with the hour.
func HourBars(items []sales.HourAmount) []Bar {
	bars := make([]Bar, len(items))
	for i, it := range items {
		bars[i] = Bar{Label: strconv.Itoa(it.Hour), Value: it.Total}
	}
	return bars
}

// ByCategory renders revenue per product line as horizontal bars.
func (r *Renderer) ByCategory(items []sales.CategoryAmount) ([]byte, error) {
	return r.render(TitleByCategory, CategoryBars(items), RenderHorizontalSVG)
}

// ByHour renders revenue per hour of day as vertical bars.
func (r *Renderer) ByHour(items []sales.HourAmount) ([]byte, error) {
	return r.render(TitleByHour, HourBars(items), RenderSVG)
}

func (r *Renderer) render(title string, bars []Bar, draw func(string, []Bar) ([]byte, error)) ([]byte, error) {
	key := Key(title, bars)
	if r.cache != nil {
		if svg, ok := r.cache.Get(key); ok {
			r.logger.Debug("Chart served from cache", log.FieldChart, title, log.FieldCacheHit, true)
			return svg, nil
		}
	}

	svg, err := draw(title, bars)
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", title, err)
	}
	if r.cache != nil {
		r.cache.Set(key, svg)
	}
	r.logger.Debug("Chart rendered", log.FieldChart, title, "bars", len(bars), log.FieldCacheHit, false)
	return svg, nil
}

// Key identifies a chart by title and series content.
func Key(title string, bars []Bar) string {
	h := sha256.New()
	h.Write([]byte(title))
	for _, b := range bars {
		fmt.Fprintf(h, "\x00%s\x00%s", b.Label, strconv.FormatFloat(b.Value, 'g', -1, 64))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// RenderSVG draws a vertical bar chart. An empty series yields a
// placeholder document instead of an error.
func RenderSVG(title string, bars []Bar) ([]byte, error) {
	if len(bars) == 0 {
		return NoData(title), nil
	}

	fill := drawing.ColorFromHex(BarColor)
	maxValue := 0.0
	values := make([]chart.Value, len(bars))
	for i, b := range bars {
		if b.Value > maxValue {
			maxValue = b.Value
		}
		values[i] = chart.Value{
			Label: b.Label,
			Value: b.Value,
			Style: chart.Style{FillColor: fill, StrokeColor: fill, StrokeWidth: 0},
		}
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	width := len(bars)*(barWidth+barSpacing) + 160
	if width < minWidth {
		width = minWidth
	}

	p := message.NewPrinter(language.English)
	graph := chart.BarChart{
		Title:      title,
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{
			FillColor: drawing.ColorWhite,
			Padding:   chart.Box{Top: 48, Left: 16, Right: 16, Bottom: 16},
		},
		Canvas: chart.Style{FillColor: drawing.ColorWhite},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: maxValue * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return p.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Bars: values,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderHorizontalSVG draws one horizontal bar per item. The first item sits
// at the bottom, so an ascending series puts the largest bar on top. go-chart's
// BarChart only lays bars out vertically, so the bars are drawn directly on
// its SVG renderer.
func RenderHorizontalSVG(title string, bars []Bar) ([]byte, error) {
	if len(bars) == 0 {
		return NoData(title), nil
	}

	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("load font: %w", err)
	}

	maxValue := 0.0
	for _, b := range bars {
		if b.Value > maxValue {
			maxValue = b.Value
		}
	}
	if maxValue <= 0 {
		maxValue = 1
	}

	h := hTop + len(bars)*(hBarHeight+hBarSpacing) + hBottom
	r, err := chart.SVG(hWidth, h)
	if err != nil {
		return nil, err
	}

	white := drawing.ColorWhite
	fill := drawing.ColorFromHex(BarColor)
	ink := drawing.ColorFromHex("333333")
	rect(r, 0, 0, hWidth, h, white)

	r.SetFont(font)
	r.SetFontColor(ink)
	r.SetFontSize(hTitleSize)
	tw := r.MeasureText(title).Width()
	r.Text(html.EscapeString(title), (hWidth-tw)/2, 28)

	p := message.NewPrinter(language.English)
	plotLeft := hLabelWidth
	plotWidth := hWidth - hLabelWidth - hValueWidth
	for i := range bars {
		b := bars[len(bars)-1-i]
		top := hTop + i*(hBarHeight+hBarSpacing)
		length := int(b.Value / maxValue * float64(plotWidth))
		if length < 0 {
			length = 0
		}
		rect(r, plotLeft, top, plotLeft+length, top+hBarHeight, fill)

		r.SetFont(font)
		r.SetFontColor(ink)
		r.SetFontSize(hFontSize)
		baseline := top + hBarHeight/2 + 4
		lw := r.MeasureText(b.Label).Width()
		r.Text(html.EscapeString(b.Label), plotLeft-8-lw, baseline)
		r.Text(p.Sprintf("%.0f", b.Value), plotLeft+length+6, baseline)
	}

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func rect(r chart.Renderer, left, top, right, bottom int, c drawing.Color) {
	r.SetFillColor(c)
	r.SetStrokeColor(c)
	r.SetStrokeWidth(0)
	r.MoveTo(left, top)
	r.LineTo(right, top)
	r.LineTo(right, bottom)
	r.LineTo(left, bottom)
	r.Close()
	r.Fill()
	r.ResetStyle()
}

// NoData returns a small SVG stating that the selection has no rows.
func NoData(title string) []byte {
	return []byte(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<rect width="100%%" height="100%%" fill="#ffffff"/>`+
		`<text x="50%%" y="32" text-anchor="middle" font-family="sans-serif" font-size="16" fill="#333333">%s</text>`+
		`<text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#888888">%s</text>`+
		`</svg>`, minWidth, height, minWidth, height, html.EscapeString(title), NoDataMessage))
}
