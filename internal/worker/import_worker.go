// Package worker imports workbooks into the SQLite sales snapshot.
package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vendas/internal/amqp"
	"vendas/internal/core"
	"vendas/internal/loader"
	"vendas/internal/log"
	"vendas/internal/sheets"
	"vendas/internal/sheets/xlsx"
	"vendas/internal/storage"
)

// SnapshotWriter replaces the stored sales snapshot.
type SnapshotWriter interface {
	ReplaceSales(ctx context.Context, t *core.Table, source string) (storage.Import, error)
}

// OpenFunc returns a reader for the workbook at path.
type OpenFunc func(path string, window sheets.Window) sheets.SalesReader

// ImportWorker reads a workbook, validates it with the loader's parsing
// rules and stores the result. A workbook that fails to parse leaves the
// previous snapshot untouched.
type ImportWorker struct {
	store  SnapshotWriter
	window sheets.Window
	open   OpenFunc
	logger *log.Logger
}

// NewImportWorker returns a worker that opens workbooks with excelize.
func NewImportWorker(store SnapshotWriter, window sheets.Window, logger *log.Logger) *ImportWorker {
	return &ImportWorker{
		store:  store,
		window: window,
		open: func(path string, window sheets.Window) sheets.SalesReader {
			return xlsx.New(path, window)
		},
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// Import loads the workbook at path. sheet overrides the configured
// worksheet name when not empty.
func (w *ImportWorker) Import(ctx context.Context, path, sheet string) (storage.Import, error) {
	start := time.Now()

	window := w.window
	if s := strings.TrimSpace(sheet); s != "" {
		window.Sheet = s
	}

	raw, err := w.open(path, window).ReadSales(ctx)
	if err != nil {
		return storage.Import{}, fmt.Errorf("read workbook: %w", err)
	}

	table, err := loader.ParseSheet(raw)
	if err != nil {
		return storage.Import{}, fmt.Errorf("parse workbook: %w", err)
	}

	imp, err := w.store.ReplaceSales(ctx, table, path)
	if err != nil {
		return storage.Import{}, fmt.Errorf("store snapshot: %w", err)
	}

	w.logger.InfoContext(ctx, "Workbook imported",
		log.FieldOperation, log.OpImport,
		log.FieldSource, path,
		"sheet", window.Sheet,
		log.FieldRows, imp.RowCount,
		log.FieldDuration, time.Since(start).Milliseconds())
	return imp, nil
}

// HandleImportRequest processes one queued import request.
func (w *ImportWorker) HandleImportRequest(ctx context.Context, msg *amqp.ImportRequestMessage) error {
	_, err := w.Import(ctx, msg.Path, msg.Sheet)
	return err
}
