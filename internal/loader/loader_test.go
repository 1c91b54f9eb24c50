package loader

import (
	"context"
	"errors"
	"sync"
	"testing"

	"vendas/internal/core"
	"vendas/internal/sheets"
	"vendas/internal/sheets/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakySource struct {
	mu    sync.Mutex
	fail  int
	calls int
	inner sheets.SalesReader
}

func (f *flakySource) ReadSales(ctx context.Context) (sheets.Sheet, error) {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.fail
	f.mu.Unlock()
	if fail {
		return sheets.Sheet{}, core.NewResourceError("sales.xlsx", errors.New("no such file"))
	}
	return f.inner.ReadSales(ctx)
}

func TestLoadIsMemoized(t *testing.T) {
	store := memory.New(memory.SampleHeader, memory.SampleRows)
	l := New(store)
	assert.False(t, l.Loaded())

	first, err := l.Load(context.Background())
	require.NoError(t, err)
	second, err := l.Load(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, store.Reads())
	assert.Equal(t, int64(1), l.Loads())
	assert.True(t, l.Loaded())
	assert.Equal(t, len(memory.SampleRows), first.Len())
}

func TestLoadConcurrentFirstCalls(t *testing.T) {
	store := memory.New(memory.SampleHeader, memory.SampleRows)
	l := New(store)

	var wg sync.WaitGroup
	tables := make([]*core.Table, 16)
	for i := range tables {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tbl, err := l.Load(context.Background())
			assert.NoError(t, err)
			tables[i] = tbl
		}(i)
	}
	wg.Wait()

	for _, tbl := range tables {
		assert.Same(t, tables[0], tbl)
	}
	assert.Equal(t, int64(1), l.Loads())
}

func TestLoadFailureIsNotCached(t *testing.T) {
	src := &flakySource{fail: 1, inner: memory.New(memory.SampleHeader, memory.SampleRows)}
	l := New(src)

	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrResource)
	assert.False(t, l.Loaded())

	tbl, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(memory.SampleRows), tbl.Len())
	assert.Equal(t, 2, src.calls)
}

func TestLoadParseErrorFailsWholeLoad(t *testing.T) {
	rows := append([][]string{}, memory.SampleRows...)
	rows = append(rows, []string{"Yangon", "Member", "Female", "Health and beauty", "10", "5", "25:00"})
	l := New(memory.New(memory.SampleHeader, rows))

	_, err := l.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrParse)
	assert.False(t, l.Loaded())
}

func TestSeparateLoadersHaveSeparateCaches(t *testing.T) {
	store := memory.New(memory.SampleHeader, memory.SampleRows)
	_, err := New(store).Load(context.Background())
	require.NoError(t, err)
	_, err = New(store).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, store.Reads())
}

// gatedSource blocks until released or until its context is cancelled.
type gatedSource struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	inner   sheets.SalesReader
}

func (g *gatedSource) ReadSales(ctx context.Context) (sheets.Sheet, error) {
	g.once.Do(func() { close(g.started) })
	select {
	case <-ctx.Done():
		return sheets.Sheet{}, ctx.Err()
	case <-g.release:
		return g.inner.ReadSales(ctx)
	}
}

func TestLoadSurvivesCallerCancellation(t *testing.T) {
	src := &gatedSource{
		started: make(chan struct{}),
		release: make(chan struct{}),
		inner:   memory.New(memory.SampleHeader, memory.SampleRows),
	}
	l := New(src)

	ctx, cancel := context.WithCancel(context.Background())
	type result struct {
		table *core.Table
		err   error
	}
	done := make(chan result, 1)
	go func() {
		t, err := l.Load(ctx)
		done <- result{t, err}
	}()

	<-src.started
	cancel()
	close(src.release)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, 12, res.table.Len())
	assert.True(t, l.Loaded())
}
