// Package http serves the sales dashboard page, its chart images and a JSON
// view of the same data.
package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"vendas/internal/cache"
	"vendas/internal/chart"
	"vendas/internal/dashboard"
	"vendas/internal/log"
	"vendas/internal/middleware/ratelimit"
	"vendas/internal/middleware/security"
	"vendas/internal/middleware/trace"
	appweb "vendas/web"
)

const (
	cacheCleanupInterval = 5 * time.Minute
	staticMaxAge         = 3600
	readTimeout          = 15 * time.Second
	writeTimeout         = 30 * time.Second
	idleTimeout          = 60 * time.Second
)

// ReadinessChecker reports whether the sales table is in memory.
type ReadinessChecker interface {
	Loaded() bool
}

// Config tunes the server. Zero values fall back to defaults.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	ChartCacheSize     int
	ChartCacheTTL      time.Duration
}

type appMetrics struct {
	uptime       time.Time
	renders      atomic.Int64
	loadFailures atomic.Int64
}

// Server is the dashboard HTTP server.
type Server struct {
	http.Server
	templates *template.Template
	dashboard *dashboard.Service
	charts    *chart.Renderer
	ready     ReadinessChecker

	chartCache   *cache.LRUCache[[]byte]
	cacheManager *cache.Manager

	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware
	securityDetector *security.Detector

	logger     *log.Logger
	appMetrics *appMetrics

	shutdownOnce sync.Once
}

// NewServer wires routes, templates and middleware around svc. The caller
// owns the returned server and must call Shutdown to stop its background
// goroutines.
func NewServer(cfg Config, svc *dashboard.Service, ready ReadinessChecker, logger *log.Logger) *Server {
	logger = logger.WithComponent(log.ComponentHTTP)
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: readTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		dashboard:        svc,
		ready:            ready,
		cacheManager:     cache.NewManager(logger),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		logger:           logger,
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP)

	// A nil *LRUCache must not leak into the interface.
	var chartCache cache.Cache[[]byte]
	if cfg.ChartCacheSize > 0 && cfg.ChartCacheTTL > 0 {
		s.chartCache = cache.NewLRUCache[[]byte](cfg.ChartCacheSize, cfg.ChartCacheTTL)
		s.cacheManager.Register(s.chartCache)
		s.cacheManager.StartCleanup(cacheCleanupInterval)
		chartCache = s.chartCache
	}
	s.charts = chart.NewRenderer(chartCache, logger)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates",
			log.FieldError, err,
			log.FieldOperation, log.OpStartup)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(staticMaxAge)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/charts/category.svg", s.handleCategoryChart)
	mux.HandleFunc("/charts/hour.svg", s.handleHourChart)
	mux.HandleFunc("/api/dashboard", s.handleAPIDashboard)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	s.Handler = chain(mux,
		log.Middleware(logger),
		s.traceMiddleware.Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
		s.securityDetector.Middleware(http.MethodGet, http.MethodHead),
		s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, "/healthz", "/readyz", "/metrics"),
	)
	return s
}

// chain wraps h so that the first middleware runs outermost.
func chain(h http.Handler, middleware ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return h
}

// Shutdown stops the listener and every cleanup goroutine. Only the first
// call has any effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		if err := s.Server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("http shutdown: %w", err)
		}
	})
	return shutdownErr
}
