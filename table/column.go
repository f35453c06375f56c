// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package table

import (
	"fmt"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Kind identifies the physical representation of a Column.
type Kind int

const (
	// Int32 columns store []int32.
	Int32 Kind = iota
	// Int64 columns store []int64.
	Int64
	// Float64 columns store []float64.
	Float64
	// String columns store []string.
	String
	// Categorical columns store dictionary-encoded strings.
	Categorical
)

func (k Kind) String() string {
	switch k {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Categorical:
		return "category"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Column is a single immutable column of a Table.
type Column interface {
	// Kind returns the physical representation of the column.
	Kind() Kind
	// Len returns the number of rows.
	Len() int
	// Take returns a new column containing the rows at the given indices, in
	// that order.
	Take(rows []int) Column
	// Format returns the text representation of row i.
	Format(i int) string
}

// Int32Column is a column of 32-bit integers.
type Int32Column []int32

// Kind implements Column.
func (c Int32Column) Kind() Kind { return Int32 }

// Len implements Column.
func (c Int32Column) Len() int { return len(c) }

// Take implements Column.
func (c Int32Column) Take(rows []int) Column {
	r := make(Int32Column, len(rows))
	for i, row := range rows {
		r[i] = c[row]
	}
	return r
}

// Format implements Column.
func (c Int32Column) Format(i int) string { return strconv.FormatInt(int64(c[i]), 10) }

// Int64Column is a column of 64-bit integers.
type Int64Column []int64

// Kind implements Column.
func (c Int64Column) Kind() Kind { return Int64 }

// Len implements Column.
func (c Int64Column) Len() int { return len(c) }

// Take implements Column.
func (c Int64Column) Take(rows []int) Column {
	r := make(Int64Column, len(rows))
	for i, row := range rows {
		r[i] = c[row]
	}
	return r
}

// Format implements Column.
func (c Int64Column) Format(i int) string { return strconv.FormatInt(c[i], 10) }

// Float64Column is a column of floats.
type Float64Column []float64

// Kind implements Column.
func (c Float64Column) Kind() Kind { return Float64 }

// Len implements Column.
func (c Float64Column) Len() int { return len(c) }

// Take implements Column.
func (c Float64Column) Take(rows []int) Column {
	r := make(Float64Column, len(rows))
	for i, row := range rows {
		r[i] = c[row]
	}
	return r
}

// Format implements Column.
func (c Float64Column) Format(i int) string { return strconv.FormatFloat(c[i], 'g', -1, 64) }

// StringColumn is a column of arbitrary strings.
type StringColumn []string

// Kind implements Column.
func (c StringColumn) Kind() Kind { return String }

// Len implements Column.
func (c StringColumn) Len() int { return len(c) }

// Take implements Column.
func (c StringColumn) Take(rows []int) Column {
	r := make(StringColumn, len(rows))
	for i, row := range rows {
		r[i] = c[row]
	}
	return r
}

// Format implements Column.
func (c StringColumn) Format(i int) string { return c[i] }

// IsInteger reports whether the column holds integers.
func IsInteger(c Column) bool {
	k := c.Kind()
	return k == Int32 || k == Int64
}

// Int64At returns row i of an integer column widened to int64.  It panics if
// c is not an integer column.
func Int64At(c Column, i int) int64 {
	switch c := c.(type) {
	case Int32Column:
		return int64(c[i])
	case Int64Column:
		return c[i]
	}
	panic(fmt.Sprintf("table.Int64At: column of kind %v is not an integer column", c.Kind()))
}

// ToInt32 converts an integer column to Int32.  It fails if some value does
// not fit in 32 bits.
func ToInt32(c Column) (Int32Column, error) {
	switch c := c.(type) {
	case Int32Column:
		return c, nil
	case Int64Column:
		r := make(Int32Column, len(c))
		for i, v := range c {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, errors.Errorf("table.ToInt32: value %d at row %d does not fit in 32 bits", v, i)
			}
			r[i] = int32(v)
		}
		return r, nil
	}
	return nil, errors.Errorf("table.ToInt32: cannot convert %v column", c.Kind())
}

// ToInt64 converts an integer column to Int64.
func ToInt64(c Column) (Int64Column, error) {
	switch c := c.(type) {
	case Int64Column:
		return c, nil
	case Int32Column:
		r := make(Int64Column, len(c))
		for i, v := range c {
			r[i] = int64(v)
		}
		return r, nil
	}
	return nil, errors.Errorf("table.ToInt64: cannot convert %v column", c.Kind())
}

// ToCategorical converts a String or Categorical column to Categorical.
func ToCategorical(c Column) (*CategoricalColumn, error) {
	switch c := c.(type) {
	case *CategoricalColumn:
		return c, nil
	case StringColumn:
		return NewCategorical(c), nil
	}
	return nil, errors.Errorf("table.ToCategorical: cannot convert %v column", c.Kind())
}

// StringAt returns row i of a String or Categorical column.  It panics for
// other kinds.
func StringAt(c Column, i int) string {
	switch c := c.(type) {
	case StringColumn:
		return c[i]
	case *CategoricalColumn:
		return c.Value(i)
	}
	panic(fmt.Sprintf("table.StringAt: column of kind %v is not a string column", c.Kind()))
}
