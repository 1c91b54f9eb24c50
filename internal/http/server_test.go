package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vendas/internal/chart"
	"vendas/internal/dashboard"
	"vendas/internal/loader"
	"vendas/internal/log"
	ports "vendas/internal/sheets"
	"vendas/internal/sheets/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) ReadSales(context.Context) (ports.Sheet, error) {
	return ports.Sheet{}, errors.New("workbook missing")
}

func newTestServer(t *testing.T, src ports.SalesReader, warm bool) *Server {
	t.Helper()
	logger := log.New(log.Config{Output: io.Discard})
	l := loader.New(src)
	if warm {
		_, err := l.Load(context.Background())
		require.NoError(t, err)
	}
	srv := NewServer(Config{
		Addr:               ":0",
		RateLimitPerMinute: 1000,
		ChartCacheSize:     16,
		ChartCacheTTL:      time.Minute,
	}, dashboard.NewService(l, logger), l, logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func sampleServer(t *testing.T) *Server {
	return newTestServer(t, memory.New(memory.SampleHeader, memory.SampleRows), true)
}

func get(t *testing.T, srv *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestIndexDefaults(t *testing.T) {
	srv := sampleServer(t)
	rr := get(t, srv, "/")

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, dashboard.Title)
	assert.Contains(t, body, dashboard.LabelCustomerType)
	assert.Contains(t, body, "US $ 4,343")
	assert.Contains(t, body, `<option value="Yangon" selected>`)
	assert.Contains(t, body, `name="filtered" value="1"`)
	assert.Contains(t, body, "/charts/category.svg?city=Yangon")
	assert.NotContains(t, body, chart.NoDataMessage)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
}

func TestIndexEmptySelection(t *testing.T) {
	srv := sampleServer(t)
	rr := get(t, srv, "/?filtered=1")

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "US $ 0")
	assert.Contains(t, body, "0.0 ⭐")
	assert.Contains(t, body, chart.NoDataMessage)
	assert.Contains(t, body, `<option value="Yangon">`, "options stay listed but unselected")
}

func TestIndexUnknownPath(t *testing.T) {
	srv := sampleServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/nope").Code)
}

func TestAPIDashboardReflectsSelections(t *testing.T) {
	srv := sampleServer(t)
	rr := get(t, srv, "/api/dashboard?filtered=1&city=Mandalay&customer_type=Member&customer_type=Normal&gender=Female&gender=Male")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var m dashboard.RenderModel
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	assert.Equal(t, 3, m.Rows)
	assert.Equal(t, []string{"Mandalay"}, m.Selected.Cities)
	assert.Equal(t, []string{"Member", "Normal"}, m.Selected.CustomerTypes)
	assert.Equal(t, int64(340), m.KPIs.TotalSales)
	assert.Equal(t, []string{"Yangon", "Naypyitaw", "Mandalay"}, m.Options.Cities)
}

func TestAPIDashboardDefaultsAndEmpty(t *testing.T) {
	srv := sampleServer(t)

	var m dashboard.RenderModel
	require.NoError(t, json.Unmarshal(get(t, srv, "/api/dashboard").Body.Bytes(), &m))
	assert.Equal(t, 12, m.Rows)

	rr := get(t, srv, "/api/dashboard?filtered=1&city=Yangon")
	require.Equal(t, http.StatusOK, rr.Code)
	m = dashboard.RenderModel{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	assert.Zero(t, m.Rows, "missing dimensions select nothing once the form is submitted")
	assert.Equal(t, []string{}, m.Selected.Genders)
	assert.Empty(t, m.ByCategory)
}

func TestChartEndpoints(t *testing.T) {
	srv := sampleServer(t)
	for _, path := range []string{"/charts/category.svg", "/charts/hour.svg"} {
		t.Run(path, func(t *testing.T) {
			rr := get(t, srv, path)
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, "image/svg+xml", rr.Header().Get("Content-Type"))
			assert.Contains(t, rr.Body.String(), "<svg")

			empty := get(t, srv, path+"?filtered=1")
			require.Equal(t, http.StatusOK, empty.Code)
			assert.Contains(t, empty.Body.String(), chart.NoDataMessage)
		})
	}
}

func TestChartCacheHitShowsInMetrics(t *testing.T) {
	srv := sampleServer(t)
	get(t, srv, "/charts/hour.svg?filtered=1&city=Yangon&customer_type=Member&gender=Female")
	get(t, srv, "/charts/hour.svg?filtered=1&city=Yangon&customer_type=Member&gender=Female")

	rr := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "chart_cache_hits_total 1\n")
	assert.Contains(t, body, "chart_cache_misses_total 1\n")
	assert.Contains(t, body, "chart_cache_entries 1\n")
	assert.Contains(t, body, "http_requests_total 2\n")
	assert.Contains(t, body, "dashboard_renders_total 2\n")
	assert.Contains(t, body, "# TYPE uptime_seconds gauge")
}

func TestHealthAndReady(t *testing.T) {
	srv := sampleServer(t)

	rr := get(t, srv, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])

	rr = get(t, srv, "/readyz")
	require.Equal(t, http.StatusOK, rr.Code)
	var ready struct {
		Status string         `json:"status"`
		Checks map[string]any `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ready))
	assert.Equal(t, "ready", ready.Status)
	assert.Equal(t, "ok", ready.Checks["sales_table"])
	assert.Equal(t, "ok", ready.Checks["templates"])
}

func TestLoadFailure(t *testing.T) {
	srv := newTestServer(t, failingReader{}, false)

	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/charts/category.svg").Code)

	rr := get(t, srv, "/api/dashboard")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "workbook missing")

	rr = get(t, srv, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "not_loaded")

	assert.Contains(t, get(t, srv, "/metrics").Body.String(), "sales_load_failures_total 3\n")
}

type parseFailingReader struct{}

func (parseFailingReader) ReadSales(context.Context) (ports.Sheet, error) {
	header := append([]string(nil), memory.SampleHeader...)
	row := append([]string(nil), memory.SampleRows[0]...)
	for i, h := range header {
		if h == "Time" {
			row[i] = "quarter past one"
		}
	}
	return ports.Sheet{Name: "Sales", Header: header, Rows: [][]string{row}}, nil
}

func TestLoadFailureLogsErrorType(t *testing.T) {
	tests := []struct {
		name   string
		src    ports.SalesReader
		wantOp string
		want   string
	}{
		{"unreachable source", failingReader{}, "operation=load", "error_type=internal_error"},
		{"bad time cell", parseFailingReader{}, "operation=parse", "error_type=parse_error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := log.New(log.Config{Output: &buf})
			l := loader.New(tc.src)
			srv := NewServer(Config{RateLimitPerMinute: 100}, dashboard.NewService(l, logger), l, logger)
			t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

			require.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/api/dashboard").Code)
			assert.Contains(t, buf.String(), tc.wantOp)
			assert.Contains(t, buf.String(), tc.want)
			assert.Contains(t, buf.String(), "request_id=req_")
		})
	}
}

func TestMiddlewareChain(t *testing.T) {
	srv := sampleServer(t)

	rr := get(t, srv, "/")
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
	assert.True(t, strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_"))

	post := httptest.NewRecorder()
	srv.Handler.ServeHTTP(post, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("city=Yangon")))
	assert.Equal(t, http.StatusMethodNotAllowed, post.Code)
}

func TestRateLimit(t *testing.T) {
	logger := log.New(log.Config{Output: io.Discard})
	l := loader.New(memory.New(memory.SampleHeader, memory.SampleRows))
	srv := NewServer(Config{RateLimitPerMinute: 2}, dashboard.NewService(l, logger), l, logger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	for i := 0; i < 2; i++ {
		require.Equal(t, http.StatusOK, get(t, srv, "/api/dashboard").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, get(t, srv, "/api/dashboard").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code, "probes are exempt")
}

func TestStaticAssets(t *testing.T) {
	srv := sampleServer(t)
	rr := get(t, srv, "/static/style.css")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/css")
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
}

func TestShutdownTwice(t *testing.T) {
	srv := sampleServer(t)
	require.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, srv.Shutdown(context.Background()))
}
