// Package loader turns a sales source into the canonical in-memory table
// and keeps it for the lifetime of the Loader.
package loader

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"vendas/internal/core"
	"vendas/internal/log"
	"vendas/internal/sheets"

	"golang.org/x/sync/singleflight"
)

// Loader memoizes the first successful load of its source. Concurrent
// first calls share a single read; failures are not cached. The cache is
// tied to the Loader value: a new Loader reads the source again.
type Loader struct {
	source sheets.SalesReader
	table  atomic.Pointer[core.Table]
	group  singleflight.Group
	loads  atomic.Int64
}

// New returns a loader reading from source.
func New(source sheets.SalesReader) *Loader {
	return &Loader{source: source}
}

// Load returns the canonical table, reading the source on first use. The
// shared read is detached from ctx cancellation so one caller giving up does
// not fail the others waiting on it.
func (l *Loader) Load(ctx context.Context) (*core.Table, error) {
	if t := l.table.Load(); t != nil {
		return t, nil
	}

	v, err, _ := l.group.Do("sales", func() (interface{}, error) {
		if t := l.table.Load(); t != nil {
			return t, nil
		}

		start := time.Now()
		sheet, err := l.source.ReadSales(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("read sales: %w", err)
		}
		t, err := ParseSheet(sheet)
		if err != nil {
			return nil, fmt.Errorf("parse sales: %w", err)
		}

		l.table.Store(t)
		l.loads.Add(1)
		slog.InfoContext(ctx, "Sales table loaded",
			log.FieldComponent, log.ComponentLoader,
			"sheet", sheet.Name,
			log.FieldRows, t.Len(),
			log.FieldDuration, time.Since(start).Milliseconds())
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.Table), nil
}

// Loaded reports whether the table has been loaded.
func (l *Loader) Loaded() bool {
	return l.table.Load() != nil
}

// Loads returns how many times the source was successfully read.
func (l *Loader) Loads() int64 {
	return l.loads.Load()
}
