// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package table

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Table is an immutable batch of named, equal-length columns.
type Table struct {
	names []string
	cols  map[string]Column
	nRow  int
}

// New creates a table from parallel name and column lists.  All columns must
// have the same length and names must be unique.
func New(names []string, cols []Column) (*Table, error) {
	if len(names) != len(cols) {
		return nil, errors.Errorf("table.New: %d names but %d columns", len(names), len(cols))
	}
	t := &Table{
		names: append([]string(nil), names...),
		cols:  make(map[string]Column, len(cols)),
	}
	for i, name := range names {
		if _, ok := t.cols[name]; ok {
			return nil, errors.Errorf("table.New: duplicate column %q", name)
		}
		if i == 0 {
			t.nRow = cols[i].Len()
		} else if n := cols[i].Len(); n != t.nRow {
			return nil, errors.Errorf("table.New: column %q has %d rows, want %d", name, n, t.nRow)
		}
		t.cols[name] = cols[i]
	}
	return t, nil
}

// MustNew is New, but panics on error.  It is meant for tests and for
// literal tables whose shape is known to be valid.
func MustNew(names []string, cols []Column) *Table {
	t, err := New(names, cols)
	if err != nil {
		panic(err)
	}
	return t
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.nRow }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.names) }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return append([]string(nil), t.names...) }

// Has reports whether the table has the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Col returns the named column, or nil if it does not exist.
func (t *Table) Col(name string) Column { return t.cols[name] }

// With returns a table with the named column added, or replaced if it
// already exists.  Replacing keeps the column position.
func (t *Table) With(name string, c Column) (*Table, error) {
	if len(t.names) > 0 && c.Len() != t.nRow {
		return nil, errors.Errorf("table.With: column %q has %d rows, want %d", name, c.Len(), t.nRow)
	}
	r := &Table{
		names: append([]string(nil), t.names...),
		cols:  make(map[string]Column, len(t.cols)+1),
		nRow:  c.Len(),
	}
	for k, v := range t.cols {
		r.cols[k] = v
	}
	if _, ok := r.cols[name]; !ok {
		r.names = append(r.names, name)
	}
	r.cols[name] = c
	return r, nil
}

// Without returns a table without the named columns.  Unknown names are
// ignored.
func (t *Table) Without(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	r := &Table{cols: make(map[string]Column, len(t.cols)), nRow: t.nRow}
	for _, n := range t.names {
		if drop[n] {
			continue
		}
		r.names = append(r.names, n)
		r.cols[n] = t.cols[n]
	}
	return r
}

// Select returns a table containing only the named columns, in the given
// order.
func (t *Table) Select(names ...string) (*Table, error) {
	r := &Table{cols: make(map[string]Column, len(names)), nRow: t.nRow}
	for _, n := range names {
		c, ok := t.cols[n]
		if !ok {
			return nil, errors.Errorf("table.Select: no column %q", n)
		}
		if _, dup := r.cols[n]; dup {
			continue
		}
		r.names = append(r.names, n)
		r.cols[n] = c
	}
	return r, nil
}

// Take returns a table holding the given rows, in that order.  Take(nil)
// yields an empty table with the same schema.
func (t *Table) Take(rows []int) *Table {
	r := &Table{
		names: t.names,
		cols:  make(map[string]Column, len(t.cols)),
		nRow:  len(rows),
	}
	for _, n := range t.names {
		r.cols[n] = t.cols[n].Take(rows)
	}
	return r
}

// Filter returns the rows selected by m.  The mask must cover exactly the
// rows of the table.
func (t *Table) Filter(m *Mask) (*Table, error) {
	if m.Len() != t.nRow {
		return nil, errors.Errorf("table.Filter: mask covers %d rows, table has %d", m.Len(), t.nRow)
	}
	if m.Count() == t.nRow {
		return t, nil
	}
	return t.Take(m.Rows()), nil
}

// Concat stacks tables vertically.  All tables must have the same set of
// column names with the same kinds, except that Int32 and Int64 columns are
// widened to Int64, and String and Categorical columns are merged into a
// Categorical.  The column order follows the first table.
func Concat(tables ...*Table) (*Table, error) {
	switch len(tables) {
	case 0:
		return MustNew(nil, nil), nil
	case 1:
		return tables[0], nil
	}
	first := tables[0]
	for _, t := range tables[1:] {
		if len(t.names) != len(first.names) {
			return nil, errors.Errorf("table.Concat: column mismatch: [%s] vs [%s]",
				strings.Join(first.names, " "), strings.Join(t.names, " "))
		}
		for _, n := range first.names {
			if !t.Has(n) {
				return nil, errors.Errorf("table.Concat: column %q missing from some table", n)
			}
		}
	}
	cols := make([]Column, len(first.names))
	for i, name := range first.names {
		parts := make([]Column, len(tables))
		for j, t := range tables {
			parts[j] = t.cols[name]
		}
		c, err := concatColumns(parts)
		if err != nil {
			return nil, errors.Wrapf(err, "table.Concat: column %q", name)
		}
		cols[i] = c
	}
	return New(first.names, cols)
}

func concatColumns(parts []Column) (Column, error) {
	kind := parts[0].Kind()
	for _, p := range parts[1:] {
		k := p.Kind()
		switch {
		case k == kind:
		case (k == Int32 || k == Int64) && (kind == Int32 || kind == Int64):
			kind = Int64
		case (k == String || k == Categorical) && (kind == String || kind == Categorical):
			kind = Categorical
		default:
			return nil, errors.Errorf("cannot concatenate %v and %v", kind, k)
		}
	}
	n := 0
	for _, p := range parts {
		n += p.Len()
	}
	switch kind {
	case Int32:
		r := make(Int32Column, 0, n)
		for _, p := range parts {
			r = append(r, p.(Int32Column)...)
		}
		return r, nil
	case Int64:
		r := make(Int64Column, 0, n)
		for _, p := range parts {
			v, _ := ToInt64(p)
			r = append(r, v...)
		}
		return r, nil
	case Float64:
		r := make(Float64Column, 0, n)
		for _, p := range parts {
			r = append(r, p.(Float64Column)...)
		}
		return r, nil
	case String:
		r := make(StringColumn, 0, n)
		for _, p := range parts {
			r = append(r, p.(StringColumn)...)
		}
		return r, nil
	}
	b := NewCategoricalBuilder(n)
	for _, p := range parts {
		if c, ok := p.(*CategoricalColumn); ok {
			for _, l := range c.levels {
				b.AddLevel(l)
			}
		}
	}
	for _, p := range parts {
		for i := 0; i < p.Len(); i++ {
			b.Append(StringAt(p, i))
		}
	}
	return b.Finish(), nil
}

// Group is one group produced by GroupBy.
type Group struct {
	// Keys holds the value of each grouping column, in the order the columns
	// were passed to GroupBy.
	Keys []string
	// Table holds the rows of the group, in their original order.
	Table *Table
}

// GroupBy splits the table by the values of the named String or Categorical
// columns.  Only value combinations that occur in some row produce a group.
// Groups are ordered by the level order of the grouping columns.
func (t *Table) GroupBy(names ...string) ([]Group, error) {
	if len(names) == 0 {
		return nil, errors.Errorf("table.GroupBy: no grouping columns")
	}
	cats := make([]*CategoricalColumn, len(names))
	for i, n := range names {
		c, ok := t.cols[n]
		if !ok {
			return nil, errors.Errorf("table.GroupBy: no column %q", n)
		}
		cat, err := ToCategorical(c)
		if err != nil {
			return nil, errors.Wrapf(err, "table.GroupBy: column %q", n)
		}
		cats[i] = cat
	}
	// Mixed-radix code over the level counts of the grouping columns.
	groupRows := map[int64][]int{}
	for row := 0; row < t.nRow; row++ {
		var code int64
		for _, c := range cats {
			code = code*int64(len(c.levels)) + int64(c.codes[row])
		}
		groupRows[code] = append(groupRows[code], row)
	}
	codes := make([]int64, 0, len(groupRows))
	for code := range groupRows {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	groups := make([]Group, len(codes))
	for gi, code := range codes {
		rows := groupRows[code]
		keys := make([]string, len(cats))
		for i, c := range cats {
			keys[i] = c.Value(rows[0])
		}
		groups[gi] = Group{Keys: keys, Table: t.Take(rows)}
	}
	return groups, nil
}

// String renders the table as tab-separated text, mostly for debugging.
func (t *Table) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Join(t.names, "\t"))
	sb.WriteByte('\n')
	for row := 0; row < t.nRow; row++ {
		for i, n := range t.names {
			if i > 0 {
				sb.WriteByte('\t')
			}
			sb.WriteString(t.cols[n].Format(row))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
