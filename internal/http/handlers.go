package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"vendas/internal/chart"
	"vendas/internal/core"
	"vendas/internal/dashboard"
	"vendas/internal/log"
)

// render resolves the request's selection and builds the model shown by
// the page, the charts and the JSON view.
func (s *Server) render(ctx context.Context, r *http.Request) (dashboard.RenderModel, error) {
	sel, err := s.parseSelections(ctx, r)
	if err != nil {
		return dashboard.RenderModel{}, err
	}
	model, err := s.dashboard.Render(ctx, sel)
	if err != nil {
		return dashboard.RenderModel{}, err
	}
	s.appMetrics.renders.Add(1)
	return model, nil
}

func (s *Server) logLoadFailure(ctx context.Context, r *http.Request, err error) {
	s.appMetrics.loadFailures.Add(1)
	op := log.OpLoad
	if errors.Is(err, core.ErrParse) {
		op = log.OpParse
	}
	fields := log.LogFields{log.FieldPath: r.URL.Path}
	log.NewStructuredLogger(log.FromContext(ctx)).
		LogError(ctx, "Sales table unavailable", err, log.ComponentLoader, op, fields)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		log.FromContext(ctx).ErrorContext(ctx, "Templates not loaded",
			log.FieldPath, r.URL.Path,
			log.FieldOperation, log.OpRender)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	model, err := s.render(ctx, r)
	if err != nil {
		s.logLoadFailure(ctx, r, err)
		http.Error(w, "Dados de vendas indisponíveis", http.StatusServiceUnavailable)
		return
	}

	// Render into a buffer so a template failure still yields a clean 500.
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", newPageData(model, chart.NoDataMessage)); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Dashboard template execution failed",
			log.FieldError, err,
			log.FieldOperation, log.OpRender)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, func(m dashboard.RenderModel) ([]byte, error) {
		return s.charts.ByCategory(m.ByCategory)
	})
}

func (s *Server) handleHourChart(w http.ResponseWriter, r *http.Request) {
	s.serveChart(w, r, func(m dashboard.RenderModel) ([]byte, error) {
		return s.charts.ByHour(m.ByHour)
	})
}

func (s *Server) serveChart(w http.ResponseWriter, r *http.Request, draw func(dashboard.RenderModel) ([]byte, error)) {
	ctx := r.Context()
	model, err := s.render(ctx, r)
	if err != nil {
		s.logLoadFailure(ctx, r, err)
		http.Error(w, "sales data unavailable", http.StatusServiceUnavailable)
		return
	}

	svg, err := draw(model)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Chart rendering failed",
			log.FieldError, err,
			log.FieldPath, r.URL.Path,
			log.FieldOperation, log.OpRender)
		http.Error(w, "chart rendering failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(len(svg)))
	_, _ = w.Write(svg)
}

func (s *Server) handleAPIDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	model, err := s.render(ctx, r)
	if err != nil {
		s.logLoadFailure(ctx, r, err)
		_ = writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	if err := writeJSON(w, http.StatusOK, model); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Encoding dashboard failed", log.FieldError, err)
	}
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	})
}

// handleReady reports ready once the sales table is loaded and the page
// templates parsed.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.ready == nil || !s.ready.Loaded() {
		checks["sales_table"] = "not_loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["sales_table"] = "ok"
	}

	cacheCheck := map[string]any{"status": "disabled"}
	if s.chartCache != nil {
		cacheCheck = map[string]any{"status": "ok", "entries": s.chartCache.Size()}
	}
	checks["chart_cache"] = cacheCheck
	checks["rate_limiter"] = map[string]any{
		"status":         "ok",
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	_ = writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics writes counters and gauges in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateMetrics := s.rateLimiter.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()

	var hits, misses uint64
	var entries int
	if s.chartCache != nil {
		st := s.chartCache.Stats()
		hits, misses, entries = st.Hits, st.Misses, st.Size
	}

	var buf bytes.Buffer
	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(&buf, "# HELP %s %s\n# TYPE %s %s\n%s %v\n\n", name, help, name, kind, name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_client_errors_total", "counter", "HTTP responses with a 4xx status", traceMetrics.ClientErrors)
	metric("http_server_errors_total", "counter", "HTTP responses with a 5xx status", traceMetrics.ServerErrors)
	metric("http_request_duration_avg_seconds", "gauge", "Mean request duration",
		strconv.FormatFloat(traceMetrics.AverageResponseTime.Seconds(), 'f', 6, 64))
	metric("dashboard_renders_total", "counter", "Dashboard models rendered", s.appMetrics.renders.Load())
	metric("sales_load_failures_total", "counter", "Requests that could not load the sales table", s.appMetrics.loadFailures.Load())
	metric("chart_cache_hits_total", "counter", "Chart cache hits", hits)
	metric("chart_cache_misses_total", "counter", "Chart cache misses", misses)
	metric("chart_cache_entries", "gauge", "Current chart cache entries", entries)
	metric("rate_limit_rejected_total", "counter", "Requests rejected by the rate limiter", rateMetrics.Rejected)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("blocked_methods_total", "counter", "Requests refused for their method", securityMetrics.BlockedMethods)
	metric("uptime_seconds", "gauge", "Application uptime in seconds",
		strconv.FormatFloat(time.Since(s.appMetrics.uptime).Seconds(), 'f', 0, 64))

	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
