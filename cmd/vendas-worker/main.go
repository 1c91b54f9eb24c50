package main

import (
	"context"
	"errors"
	"os"
	"time"

	"vendas/internal/amqp"
	"vendas/internal/cli"
	"vendas/internal/log"
	"vendas/internal/storage"
	"vendas/internal/worker"

	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout = 30 * time.Second
	pingInterval    = time.Minute
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting vendas-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	if last, err := repo.LastImport(context.Background()); err == nil {
		logger.Info("Current snapshot", log.FieldSource, last.Source, log.FieldRows, last.RowCount,
			"imported_at", last.ImportedAt.Format(time.RFC3339))
	} else if errors.Is(err, storage.ErrNoSnapshot) {
		logger.Info("No snapshot imported yet")
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	importer := worker.NewImportWorker(repo, cfg.Window(), logger)
	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, nil)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return client.ConsumeImportRequests(gctx, importer.HandleImportRequest)
	})
	g.Go(func() error {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := repo.Ping(gctx); err != nil {
					logger.WarnContext(gctx, "SQLite ping failed",
						log.FieldError, err,
						log.FieldErrorType, log.ErrorTypeDatabase)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", log.FieldError, err)
		_ = client.Close()
		_ = repo.Close()
		os.Exit(1)
	}

	<-done
	logger.Info("Worker shutdown complete")
}
