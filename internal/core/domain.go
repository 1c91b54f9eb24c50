package core

import "slices"

// Dimension identifies one of the categorical filter axes.
type Dimension string

const (
	DimensionCity         Dimension = "city"
	DimensionCustomerType Dimension = "customer_type"
	DimensionGender       Dimension = "gender"
)

// Dimensions lists the filter axes in display order.
var Dimensions = []Dimension{DimensionCity, DimensionCustomerType, DimensionGender}

// Source column names of the sales worksheet.
const (
	ColumnCity         = "City"
	ColumnCustomerType = "Customer_type"
	ColumnGender       = "Gender"
	ColumnProductLine  = "Product line"
	ColumnTotal        = "Total"
	ColumnRating       = "Rating"
	ColumnTime         = "Time"
)

// RequiredColumns are the worksheet headers the loader needs.
var RequiredColumns = []string{
	ColumnCity,
	ColumnCustomerType,
	ColumnGender,
	ColumnProductLine,
	ColumnTotal,
	ColumnRating,
	ColumnTime,
}

// Column returns the worksheet header backing the dimension.
func (d Dimension) Column() string {
	switch d {
	case DimensionCity:
		return ColumnCity
	case DimensionCustomerType:
		return ColumnCustomerType
	case DimensionGender:
		return ColumnGender
	}
	return ""
}

// IsValid reports whether d is a known dimension.
func (d Dimension) IsValid() bool {
	return d.Column() != ""
}

func (d Dimension) String() string {
	return string(d)
}

type (
	// Transaction is one row of the sales worksheet.
	Transaction struct {
		City         string
		CustomerType string
		Gender       string
		ProductLine  string
		Total        float64
		Rating       float64
		Time         string
		// Hour is derived from Time once, at load.
		Hour int
	}

	// Selections holds the allowed values per dimension. A nil or empty
	// slice is the empty set and matches no rows.
	Selections struct {
		Cities        []string `json:"city"`
		CustomerTypes []string `json:"customer_type"`
		Genders       []string `json:"gender"`
	}
)

// Value returns the transaction's value for a dimension.
func (t Transaction) Value(d Dimension) string {
	switch d {
	case DimensionCity:
		return t.City
	case DimensionCustomerType:
		return t.CustomerType
	case DimensionGender:
		return t.Gender
	}
	return ""
}

// Values returns the allowed values for a dimension.
func (s Selections) Values(d Dimension) []string {
	switch d {
	case DimensionCity:
		return s.Cities
	case DimensionCustomerType:
		return s.CustomerTypes
	case DimensionGender:
		return s.Genders
	}
	return nil
}

// With returns a copy of s with the values for d replaced.
func (s Selections) With(d Dimension, values []string) Selections {
	values = slices.Clone(values)
	switch d {
	case DimensionCity:
		s.Cities = values
	case DimensionCustomerType:
		s.CustomerTypes = values
	case DimensionGender:
		s.Genders = values
	}
	return s
}
