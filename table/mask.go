// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package table

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Mask is a boolean row selector over a table of a fixed number of rows.
// Selected rows are kept in a roaring bitmap.
type Mask struct {
	n  int
	rb *roaring.Bitmap
}

// NewMask creates a mask over n rows with no row selected.
func NewMask(n int) *Mask {
	return &Mask{n: n, rb: roaring.New()}
}

// MaskFromBools creates a mask selecting the rows where b is true.
func MaskFromBools(b []bool) *Mask {
	m := NewMask(len(b))
	for i, v := range b {
		if v {
			m.rb.Add(uint32(i))
		}
	}
	return m
}

// MaskAll creates a mask over n rows with every row selected.
func MaskAll(n int) *Mask {
	m := NewMask(n)
	m.rb.AddRange(0, uint64(n))
	return m
}

// Len returns the number of rows the mask covers.
func (m *Mask) Len() int { return m.n }

// Set selects row i.
func (m *Mask) Set(i int) {
	if i < 0 || i >= m.n {
		panic("table.Mask.Set: row out of range")
	}
	m.rb.Add(uint32(i))
}

// Get reports whether row i is selected.
func (m *Mask) Get(i int) bool { return m.rb.Contains(uint32(i)) }

// Count returns the number of selected rows.
func (m *Mask) Count() int { return int(m.rb.GetCardinality()) }

// Rows returns the selected row indices in increasing order.
func (m *Mask) Rows() []int {
	rows := make([]int, 0, m.Count())
	it := m.rb.Iterator()
	for it.HasNext() {
		rows = append(rows, int(it.Next()))
	}
	return rows
}

// Not returns the complement of m.
func (m *Mask) Not() *Mask {
	return &Mask{n: m.n, rb: roaring.Flip(m.rb, 0, uint64(m.n))}
}

// And returns the intersection of m and o.  Both must cover the same number
// of rows.
func (m *Mask) And(o *Mask) *Mask {
	if m.n != o.n {
		panic("table.Mask.And: length mismatch")
	}
	return &Mask{n: m.n, rb: roaring.And(m.rb, o.rb)}
}

// Or returns the union of m and o.  Both must cover the same number of rows.
func (m *Mask) Or(o *Mask) *Mask {
	if m.n != o.n {
		panic("table.Mask.Or: length mismatch")
	}
	return &Mask{n: m.n, rb: roaring.Or(m.rb, o.rb)}
}
