// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package table

// CategoricalColumn is a dictionary-encoded string column.  codes[i] indexes
// into levels.  Levels may include values that no row uses; see
// RemoveUnused.
type CategoricalColumn struct {
	codes  []int32
	levels []string
}

// NewCategorical encodes values.  Levels are assigned in order of first
// appearance.
func NewCategorical(values []string) *CategoricalColumn {
	b := NewCategoricalBuilder(len(values))
	for _, v := range values {
		b.Append(v)
	}
	return b.Finish()
}

// NewCategoricalRepeat returns a column with n copies of value.
func NewCategoricalRepeat(value string, n int) *CategoricalColumn {
	return &CategoricalColumn{codes: make([]int32, n), levels: []string{value}}
}

// Kind implements Column.
func (c *CategoricalColumn) Kind() Kind { return Categorical }

// Len implements Column.
func (c *CategoricalColumn) Len() int { return len(c.codes) }

// Take implements Column.  The levels are shared with the receiver, so the
// result may contain unused levels.
func (c *CategoricalColumn) Take(rows []int) Column {
	codes := make([]int32, len(rows))
	for i, row := range rows {
		codes[i] = c.codes[row]
	}
	return &CategoricalColumn{codes: codes, levels: c.levels}
}

// Format implements Column.
func (c *CategoricalColumn) Format(i int) string { return c.Value(i) }

// Code returns the level index of row i.
func (c *CategoricalColumn) Code(i int) int32 { return c.codes[i] }

// Value returns the string value of row i.
func (c *CategoricalColumn) Value(i int) string { return c.levels[c.codes[i]] }

// Levels returns the dictionary.  The caller must not modify it.
func (c *CategoricalColumn) Levels() []string { return c.levels }

// Values decodes the column.
func (c *CategoricalColumn) Values() []string {
	r := make([]string, len(c.codes))
	for i, code := range c.codes {
		r[i] = c.levels[code]
	}
	return r
}

// HasUnused reports whether some level is not referenced by any row.
func (c *CategoricalColumn) HasUnused() bool {
	used := c.usedLevels()
	for _, u := range used {
		if !u {
			return true
		}
	}
	return false
}

func (c *CategoricalColumn) usedLevels() []bool {
	used := make([]bool, len(c.levels))
	for _, code := range c.codes {
		used[code] = true
	}
	return used
}

// RemoveUnused returns a column with the same values whose levels are exactly
// the values observed, in their original level order.  It returns the
// receiver if no level is unused.
func (c *CategoricalColumn) RemoveUnused() *CategoricalColumn {
	used := c.usedLevels()
	remap := make([]int32, len(c.levels))
	var levels []string
	for i, u := range used {
		if u {
			remap[i] = int32(len(levels))
			levels = append(levels, c.levels[i])
		}
	}
	if len(levels) == len(c.levels) {
		return c
	}
	codes := make([]int32, len(c.codes))
	for i, code := range c.codes {
		codes[i] = remap[code]
	}
	return &CategoricalColumn{codes: codes, levels: levels}
}

// CategoricalBuilder incrementally constructs a CategoricalColumn.
type CategoricalBuilder struct {
	codes  []int32
	levels []string
	lookup map[string]int32
}

// NewCategoricalBuilder creates a builder with room for sizeHint rows.
func NewCategoricalBuilder(sizeHint int) *CategoricalBuilder {
	return &CategoricalBuilder{
		codes:  make([]int32, 0, sizeHint),
		lookup: make(map[string]int32),
	}
}

// AddLevel registers a level without adding a row.  It is used to fix the
// level order up front, e.g., to follow a reference header.
func (b *CategoricalBuilder) AddLevel(v string) int32 {
	if code, ok := b.lookup[v]; ok {
		return code
	}
	code := int32(len(b.levels))
	b.levels = append(b.levels, v)
	b.lookup[v] = code
	return code
}

// HasLevel reports whether v has been registered.
func (b *CategoricalBuilder) HasLevel(v string) bool {
	_, ok := b.lookup[v]
	return ok
}

// Append adds one row.
func (b *CategoricalBuilder) Append(v string) {
	b.codes = append(b.codes, b.AddLevel(v))
}

// Len returns the number of rows appended so far.
func (b *CategoricalBuilder) Len() int { return len(b.codes) }

// Finish returns the column.  The builder must not be used afterwards.
func (b *CategoricalBuilder) Finish() *CategoricalColumn {
	c := &CategoricalColumn{codes: b.codes, levels: b.levels}
	b.codes, b.levels, b.lookup = nil, nil, nil
	return c
}
