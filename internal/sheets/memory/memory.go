package memory

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"vendas/internal/core"
	ports "vendas/internal/sheets"
)

// Store serves a sales sheet held in memory.
type Store struct {
	mu    sync.Mutex
	sheet ports.Sheet
	reads int
}

var _ ports.SalesReader = (*Store)(nil)

// New returns a store serving the given header and rows.
func New(header []string, rows [][]string) *Store {
	return &Store{sheet: ports.Sheet{Name: "memory", Header: slices.Clone(header), Rows: cloneRows(rows)}}
}

// NewFromFiles seeds the store from <base>/sales.csv. When the file is
// missing a small built-in sample is served instead.
func NewFromFiles(base string) (*Store, error) {
	path := filepath.Join(base, "sales.csv")
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return New(SampleHeader, SampleRows), nil
	}
	if err != nil {
		return nil, core.NewResourceError(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, core.NewResourceError(path, fmt.Errorf("empty file"))
	}
	return New(records[0], records[1:]), nil
}

// ReadSales returns a copy of the stored sheet.
func (s *Store) ReadSales(_ context.Context) (ports.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return ports.Sheet{Name: s.sheet.Name, Header: slices.Clone(s.sheet.Header), Rows: cloneRows(s.sheet.Rows)}, nil
}

// Reads returns how many times ReadSales was called.
func (s *Store) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// SampleHeader and SampleRows are a few rows of the supermarket dataset.
var (
	SampleHeader = []string{core.ColumnCity, core.ColumnCustomerType, core.ColumnGender, core.ColumnProductLine, core.ColumnTotal, core.ColumnRating, core.ColumnTime}

	SampleRows = [][]string{
		{"Yangon", "Member", "Female", "Health and beauty", "548.9715", "9.1", "13:08:00"},
		{"Naypyitaw", "Normal", "Female", "Electronic accessories", "80.22", "9.6", "10:29:00"},
		{"Yangon", "Normal", "Male", "Home and lifestyle", "340.5255", "7.4", "13:23:00"},
		{"Yangon", "Member", "Male", "Health and beauty", "489.048", "8.4", "20:33:00"},
		{"Yangon", "Normal", "Male", "Sports and travel", "634.3785", "5.3", "10:37:00"},
		{"Naypyitaw", "Normal", "Male", "Electronic accessories", "627.6165", "4.1", "18:30:00"},
		{"Yangon", "Member", "Female", "Electronic accessories", "433.692", "5.8", "14:36:00"},
		{"Naypyitaw", "Normal", "Female", "Home and lifestyle", "772.38", "8", "11:38:00"},
		{"Yangon", "Normal", "Female", "Health and beauty", "76.146", "7.2", "17:15:00"},
		{"Mandalay", "Member", "Female", "Food and beverages", "172.746", "5.9", "13:27:00"},
		{"Mandalay", "Member", "Female", "Fashion accessories", "60.816", "4.5", "18:07:00"},
		{"Mandalay", "Normal", "Male", "Electronic accessories", "107.142", "6.8", "17:03:00"},
	}
)
