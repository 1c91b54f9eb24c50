package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"vendas/internal/backend"
	"vendas/internal/cli"
	"vendas/internal/dashboard"
	apphttp "vendas/internal/http"
	"vendas/internal/loader"
	"vendas/internal/log"
)

const (
	loadTimeout     = 2 * time.Minute
	shutdownTimeout = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	// The table is read once, before any request is served.
	l := loader.New(result.Reader)
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), loadTimeout)
	table, err := l.Load(loadCtx)
	cancelLoad()
	if err != nil {
		logger.Error("Failed to load sales data",
			log.FieldError, err,
			log.FieldBackend, result.Type.String(),
			log.FieldOperation, log.OpLoad)
		_ = result.Close()
		os.Exit(1)
	}
	logger.Info("Sales data loaded", log.FieldBackend, result.Type.String(), log.FieldRows, table.Len())

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ChartCacheSize:     cfg.ChartCacheSize,
		ChartCacheTTL:      cfg.ChartCacheTTL,
	}, dashboard.NewService(l, logger), l, logger)

	_, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	})

	logger.Info("Starting vendas server", "port", cfg.Port, log.FieldBackend, result.Type.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
