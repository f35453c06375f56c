// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges

import (
	"github.com/biogo/store/llrb"
	"github.com/grailbio/granges/table"
	"github.com/pkg/errors"
)

// Collection is a set of genomic intervals sharded by partition key.  It is
// immutable: every operation returns a new Collection, and the tables it
// holds must not be modified.
//
// A Collection maintains these invariants:
//  - all keys share one shape, chromosome-only or (chromosome, strand);
//  - every table has Chromosome, Start and End, and has Strand iff the keys
//    are stranded;
//  - Start and End have one integer width across all tables;
//  - Chromosome and Strand are categorical, with no unused levels;
//  - no table is empty.
type Collection struct {
	parts map[Key]*table.Table
	// index orders the keys naturally.
	index llrb.Tree
}

// Item is one (key, table) entry of a Collection.
type Item struct {
	Key   Key
	Table *table.Table
}

// newCollection wraps already-validated partitions.
func newCollection(parts map[Key]*table.Table) *Collection {
	c := &Collection{parts: parts}
	for k := range parts {
		c.index.Insert(keyNode{k})
	}
	return c
}

// Empty returns the canonical empty collection.  It reports Stranded() ==
// true so that strand-sensitive operations accept it.
func Empty() *Collection {
	return newCollection(map[Key]*table.Table{})
}

// Stranded reports whether the partition keys carry strands.  The empty
// collection is stranded.
func (c *Collection) Stranded() bool {
	stranded := true
	c.index.Do(func(n llrb.Comparable) bool {
		stranded = n.(keyNode).key.Stranded()
		return true
	})
	return stranded
}

// IsEmpty reports whether the collection has no intervals.
func (c *Collection) IsEmpty() bool { return len(c.parts) == 0 }

// NumPartitions returns the number of keys.
func (c *Collection) NumPartitions() int { return len(c.parts) }

// Len returns the total number of intervals.
func (c *Collection) Len() int {
	n := 0
	for _, t := range c.parts {
		n += t.NumRows()
	}
	return n
}

// Get returns the table for k, or nil.
func (c *Collection) Get(k Key) *table.Table { return c.parts[k] }

// Has reports whether k is present.
func (c *Collection) Has(k Key) bool {
	_, ok := c.parts[k]
	return ok
}

// Keys returns the keys in natural order.
func (c *Collection) Keys() []Key {
	keys := make([]Key, 0, len(c.parts))
	c.index.Do(func(n llrb.Comparable) bool {
		keys = append(keys, n.(keyNode).key)
		return false
	})
	return keys
}

// Items returns the entries in natural key order.
func (c *Collection) Items() []Item {
	items := make([]Item, 0, len(c.parts))
	c.index.Do(func(n llrb.Comparable) bool {
		k := n.(keyNode).key
		items = append(items, Item{k, c.parts[k]})
		return false
	})
	return items
}

// chromosomeKeys returns the keys of chrom, in order.
func (c *Collection) chromosomeKeys(chrom string) []Key {
	var keys []Key
	from, to := chromosomeBounds(chrom)
	c.index.DoRange(func(n llrb.Comparable) bool {
		keys = append(keys, n.(keyNode).key)
		return false
	}, from, to)
	return keys
}

// Chromosomes returns the distinct chromosomes, in natural order.
func (c *Collection) Chromosomes() []string {
	var chroms []string
	for _, k := range c.Keys() {
		if len(chroms) == 0 || chroms[len(chroms)-1] != k.Chromosome {
			chroms = append(chroms, k.Chromosome)
		}
	}
	return chroms
}

// Strands returns the distinct strands present.  It fails for an unstranded
// collection.
func (c *Collection) Strands() ([]string, error) {
	if !c.Stranded() {
		return nil, errors.Wrap(ErrStrandRequired, "ranges.Strands: collection is not stranded")
	}
	seen := map[string]bool{}
	for k := range c.parts {
		seen[k.Strand] = true
	}
	var strands []string
	for _, s := range []string{Plus, Minus} {
		if seen[s] {
			strands = append(strands, s)
		}
	}
	return strands, nil
}

// Columns returns the column names, which are the same for every partition.
func (c *Collection) Columns() []string {
	items := c.Items()
	if len(items) == 0 {
		return nil
	}
	return items[0].Table.Columns()
}

// Width returns the integer width of Start and End.  The empty collection
// reports Narrow.
func (c *Collection) Width() Width {
	for _, t := range c.parts {
		return widthOf(t)
	}
	return Narrow
}

// Table concatenates all partitions, in key order, into one table.
func (c *Collection) Table() (*table.Table, error) {
	items := c.Items()
	if len(items) == 0 {
		return table.MustNew(nil, nil), nil
	}
	tables := make([]*table.Table, len(items))
	for i, it := range items {
		tables[i] = it.Table
	}
	return table.Concat(tables...)
}

// Lengths returns End - Start for every interval, per key.
func (c *Collection) Lengths() map[Key][]int64 {
	lengths := make(map[Key][]int64, len(c.parts))
	for k, t := range c.parts {
		starts, ends := t.Col(StartCol), t.Col(EndCol)
		l := make([]int64, t.NumRows())
		for i := range l {
			l[i] = table.Int64At(ends, i) - table.Int64At(starts, i)
		}
		lengths[k] = l
	}
	return lengths
}

// byChromosome merges the strand partitions of each chromosome.  The tables
// keep their Strand column, if any.  Used for strand-agnostic dispatch.
func (c *Collection) byChromosome() (map[Key]*table.Table, error) {
	if !c.Stranded() {
		return c.parts, nil
	}
	out := make(map[Key]*table.Table, len(c.parts))
	for _, chrom := range c.Chromosomes() {
		keys := c.chromosomeKeys(chrom)
		tables := make([]*table.Table, len(keys))
		for i, k := range keys {
			tables[i] = c.parts[k]
		}
		t, err := table.Concat(tables...)
		if err != nil {
			return nil, errors.Wrapf(ErrSchema, "chromosome %s: %v", chrom, err)
		}
		out[Key{Chromosome: chrom}] = t
	}
	return out, nil
}

// Unstrand removes the Strand column and re-keys the collection by
// chromosome.  Unstranded collections are returned as is.
func (c *Collection) Unstrand() (*Collection, error) {
	if !c.Stranded() || c.IsEmpty() {
		return c, nil
	}
	merged, err := c.byChromosome()
	if err != nil {
		return nil, err
	}
	parts := make(Partitions, len(merged))
	for k, t := range merged {
		parts[k] = t.Without(StrandCol)
	}
	return Build(parts, WidthAuto)
}

// DropOpts selects the columns removed by Drop.
type DropOpts struct {
	// Drop lists columns to remove.
	Drop []string
	// Keep lists columns to keep.  It is ignored when Drop is set.
	Keep []string
	// DropStrand also removes the Strand column, re-keying the collection by
	// chromosome.
	DropStrand bool
}

// Drop removes columns.  Chromosome, Start and End are always kept, and
// Strand is kept unless DropStrand is set.  With neither Drop nor Keep set,
// every other column is removed.
func (c *Collection) Drop(opts DropOpts) (*Collection, error) {
	if len(opts.Drop) == 0 {
		return c.Index(ByColumns{Names: opts.Keep, DropStrand: opts.DropStrand})
	}
	drop := map[string]bool{}
	for _, n := range opts.Drop {
		drop[n] = true
	}
	var keep []string
	for _, n := range c.Columns() {
		if !drop[n] {
			keep = append(keep, n)
		}
	}
	return c.Index(ByColumns{Names: keep, DropStrand: opts.DropStrand})
}

// Concat merges collections key by key.  If every non-empty input is
// stranded the result is stranded; otherwise stranded inputs are unstranded
// first.
func Concat(cs ...*Collection) (*Collection, error) {
	stranded := true
	for _, c := range cs {
		if !c.IsEmpty() && !c.Stranded() {
			stranded = false
		}
	}
	parts := Partitions{}
	for _, c := range cs {
		if !stranded {
			var err error
			if c, err = c.Unstrand(); err != nil {
				return nil, err
			}
		}
		for _, it := range c.Items() {
			if err := addPartition(parts, it.Key, it.Table); err != nil {
				return nil, err
			}
		}
	}
	return Build(parts, WidthAuto)
}

// Column returns the named column of every partition, or nil if the
// collection has no such column.
func (c *Collection) Column(name string) map[Key]table.Column {
	var cols map[Key]table.Column
	for k, t := range c.parts {
		col := t.Col(name)
		if col == nil {
			return nil
		}
		if cols == nil {
			cols = make(map[Key]table.Column, len(c.parts))
		}
		cols[k] = col
	}
	return cols
}

// WithColumn returns a collection with the named column added to, or
// replaced in, every partition.  cols must hold exactly one column per key,
// with the partition's row count.  Chromosome and Strand cannot be set,
// since they determine the partition keys.  Start and End may be replaced
// with integer columns; a 64-bit replacement widens the whole collection.
func (c *Collection) WithColumn(name string, cols map[Key]table.Column) (*Collection, error) {
	switch name {
	case "":
		return nil, errors.Wrap(ErrSchema, "ranges.WithColumn: empty column name")
	case ChromosomeCol, StrandCol:
		return nil, errors.Wrapf(ErrSchema, "ranges.WithColumn: cannot set %s", name)
	}
	for k := range cols {
		if !c.Has(k) {
			return nil, errors.Wrapf(ErrSchema, "ranges.WithColumn %s: no partition %v", name, k)
		}
	}
	parts := make(Partitions, len(c.parts))
	for k, t := range c.parts {
		col, ok := cols[k]
		if !ok || col == nil {
			return nil, errors.Wrapf(ErrSchema, "ranges.WithColumn %s: no column for partition %v", name, k)
		}
		if col.Len() != t.NumRows() {
			return nil, errors.Wrapf(ErrLengthMismatch, "ranges.WithColumn %s: partition %v has %d rows, column has %d",
				name, k, t.NumRows(), col.Len())
		}
		nt, err := t.With(name, col)
		if err != nil {
			return nil, errors.Wrapf(ErrSchema, "ranges.WithColumn %s: %v", name, err)
		}
		parts[k] = nt
	}
	if name != StartCol && name != EndCol {
		return newCollection(parts), nil
	}
	w := c.Width()
	for _, col := range cols {
		if col.Kind() == table.Int64 {
			w = Wide
		}
	}
	for k, t := range parts {
		var err error
		if parts[k], err = Normalize(t, w); err != nil {
			return nil, errors.WithMessagef(err, "ranges.WithColumn %s", name)
		}
	}
	return newCollection(parts), nil
}

// WithColumnValues is WithColumn for one column covering every interval of
// the collection, in key order and then row order, as Table returns them.
func (c *Collection) WithColumnValues(name string, col table.Column) (*Collection, error) {
	if n := c.Len(); col.Len() != n {
		return nil, errors.Wrapf(ErrLengthMismatch, "ranges.WithColumnValues %s: collection has %d rows, column has %d",
			name, n, col.Len())
	}
	cols := make(map[Key]table.Column, len(c.parts))
	offset := 0
	for _, it := range c.Items() {
		rows := make([]int, it.Table.NumRows())
		for i := range rows {
			rows[i] = offset + i
		}
		offset += len(rows)
		cols[it.Key] = col.Take(rows)
	}
	return c.WithColumn(name, cols)
}
