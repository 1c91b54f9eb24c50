package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHour(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"13:08:00", 13, true},
		{"00:00:00", 0, true},
		{"23:59:59", 23, true},
		{"9:05:00", 9, true},
		{" 10:29:00 ", 10, true},
		{"24:00:00", 0, false},
		{"13:08", 0, false},
		{"1:08 PM", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseHour(tc.in)
		if !tc.ok {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestTableDistinctFirstSeenOrder(t *testing.T) {
	tbl := NewTable([]Transaction{
		{City: "Yangon", Gender: "Female"},
		{City: "Naypyitaw", Gender: "Male"},
		{City: "Yangon", Gender: "Male"},
		{City: "Mandalay", Gender: "Female"},
	})
	assert.Equal(t, []string{"Yangon", "Naypyitaw", "Mandalay"}, tbl.Distinct(DimensionCity))
	assert.Equal(t, []string{"Female", "Male"}, tbl.Distinct(DimensionGender))
	assert.Empty(t, (&Table{}).Distinct(DimensionCity))
}

func TestTableIsolatedFromCallerSlices(t *testing.T) {
	rows := []Transaction{{City: "Yangon", Total: 10}}
	tbl := NewTable(rows)
	rows[0].City = "changed"

	out := tbl.Rows()
	out[0].Total = 99

	assert.Equal(t, "Yangon", tbl.Row(0).City)
	assert.Equal(t, 10.0, tbl.Row(0).Total)
}

func TestNilTableIsEmpty(t *testing.T) {
	var tbl *Table
	assert.Equal(t, 0, tbl.Len())
	assert.Nil(t, tbl.Rows())
}

func TestSelectionsWithCopies(t *testing.T) {
	vals := []string{"Yangon"}
	s := Selections{}.With(DimensionCity, vals)
	vals[0] = "changed"
	assert.Equal(t, []string{"Yangon"}, s.Values(DimensionCity))
	assert.Nil(t, s.Values(DimensionGender))
}

func TestDimensionColumns(t *testing.T) {
	for _, d := range Dimensions {
		assert.True(t, d.IsValid())
		assert.Contains(t, RequiredColumns, d.Column())
	}
	assert.False(t, Dimension("branch").IsValid())
}

func TestErrorKinds(t *testing.T) {
	res := fmt.Errorf("load: %w", NewResourceError("sales.xlsx", errors.New("no such file")))
	assert.ErrorIs(t, res, ErrResource)
	assert.NotErrorIs(t, res, ErrParse)

	var re *ResourceError
	require.ErrorAs(t, res, &re)
	assert.Equal(t, "sales.xlsx", re.Resource)

	perr := fmt.Errorf("load: %w", &ParseError{Row: 2, Column: ColumnTime, Value: "x", Err: errors.New("bad")})
	assert.ErrorIs(t, perr, ErrParse)
	assert.Contains(t, perr.Error(), `row 2 column "Time"`)
}
