// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges

import (
	"fmt"
	"math"

	"github.com/grailbio/base/log"
	"github.com/grailbio/granges/table"
	"github.com/pkg/errors"
)

// Source is an input accepted by Build.  It is implemented by Arrays,
// TableSource, Partitions and *Collection; the last is always rejected with
// ErrAlreadyPartitioned.
type Source interface {
	isSource()
}

// Arrays describes a collection as parallel arrays.  A scalar Chromosome or
// Strand is broadcast to every row when the corresponding slice is nil.
// Leaving both Strands and Strand empty builds an unstranded collection.
type Arrays struct {
	Chromosomes []string
	Chromosome  string
	Starts      []int64
	Ends        []int64
	Strands     []string
	Strand      string
}

// TableSource builds a collection from a single un-partitioned table.
type TableSource struct {
	Table *table.Table
}

// Partitions is a pre-partitioned mapping, e.g., the per-key outputs of an
// operator.
type Partitions map[Key]*table.Table

func (Arrays) isSource()      {}
func (TableSource) isSource() {}
func (Partitions) isSource()  {}
func (*Collection) isSource() {}

// Build constructs a Collection.
//
// Arrays and TableSource inputs are normalized to width w and grouped by
// Chromosome (and Strand, when present).  For Arrays, WidthAuto picks
// Narrow unless a coordinate does not fit in 32 bits.  Partitions inputs
// keep their dtypes: w is ignored, empty tables are dropped, and
// chromosome-keyed tables that carry a Strand column are re-keyed by strand
// (see RepartitionByStrandIfNeeded).  A nil Source yields the empty collection.
func Build(src Source, w Width) (*Collection, error) {
	switch s := src.(type) {
	case nil:
		return Empty(), nil
	case *Collection:
		return nil, errors.Wrap(ErrAlreadyPartitioned, "ranges.Build: source is already a Collection")
	case Arrays:
		t, err := s.table()
		if err != nil {
			return nil, err
		}
		if w == WidthAuto {
			w = s.width()
		}
		return fromTable(t, w)
	case TableSource:
		if s.Table == nil {
			return Empty(), nil
		}
		return fromTable(s.Table, w)
	case Partitions:
		return fromPartitions(s)
	}
	panic(fmt.Sprintf("ranges.Build: unknown source %T", src))
}

// FromArrays is shorthand for Build(a, w).
func FromArrays(a Arrays, w Width) (*Collection, error) { return Build(a, w) }

// FromTable is shorthand for Build(TableSource{t}, w).
func FromTable(t *table.Table, w Width) (*Collection, error) { return Build(TableSource{t}, w) }

// FromPartitions is shorthand for Build(p, WidthAuto).
func FromPartitions(p Partitions) (*Collection, error) { return Build(p, WidthAuto) }

// width returns Narrow unless some coordinate needs 64 bits.
func (a Arrays) width() Width {
	for _, vs := range [][]int64{a.Starts, a.Ends} {
		for _, v := range vs {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return Wide
			}
		}
	}
	return Narrow
}

func (a Arrays) table() (*table.Table, error) {
	n := len(a.Starts)
	lengths := []int{len(a.Starts), len(a.Ends)}
	if a.Chromosomes != nil {
		lengths = append(lengths, len(a.Chromosomes))
	}
	stranded := a.Strands != nil || a.Strand != ""
	if a.Strands != nil {
		lengths = append(lengths, len(a.Strands))
	}
	for _, l := range lengths {
		if l != n {
			return nil, errors.Wrapf(ErrLengthMismatch,
				"chromosomes, starts, ends and strands must be of equal length, but are %v", lengths)
		}
	}
	var chroms table.Column
	switch {
	case a.Chromosomes != nil:
		chroms = table.NewCategorical(a.Chromosomes)
	case a.Chromosome != "" || n == 0:
		chroms = table.NewCategoricalRepeat(a.Chromosome, n)
	default:
		return nil, errors.Wrap(ErrSchema, "ranges.Arrays: no chromosome given")
	}
	names := []string{ChromosomeCol, StartCol, EndCol}
	cols := []table.Column{chroms, table.Int64Column(a.Starts), table.Int64Column(a.Ends)}
	if stranded {
		names = append(names, StrandCol)
		if a.Strands != nil {
			cols = append(cols, table.NewCategorical(a.Strands))
		} else {
			cols = append(cols, table.NewCategoricalRepeat(a.Strand, n))
		}
	}
	return table.New(names, cols)
}

func checkStrand(s string) error {
	if s != Plus && s != Minus {
		return errors.Wrapf(ErrSchema, "invalid strand %q, want %q or %q", s, Plus, Minus)
	}
	return nil
}

func fromTable(t *table.Table, w Width) (*Collection, error) {
	t, err := Normalize(t, w)
	if err != nil {
		return nil, err
	}
	if t.NumRows() == 0 {
		return Empty(), nil
	}
	groupCols := []string{ChromosomeCol}
	if t.Has(StrandCol) {
		groupCols = append(groupCols, StrandCol)
	}
	groups, err := t.GroupBy(groupCols...)
	if err != nil {
		return nil, errors.Wrapf(ErrSchema, "ranges.Build: grouping partitions: %v", err)
	}
	parts := make(map[Key]*table.Table, len(groups))
	for _, g := range groups {
		k := Key{Chromosome: g.Keys[0]}
		if len(g.Keys) > 1 {
			if err := checkStrand(g.Keys[1]); err != nil {
				return nil, err
			}
			k.Strand = g.Keys[1]
		}
		parts[k] = dropUnusedCategories(g.Table)
	}
	return newCollection(parts), nil
}

// addPartition stores t under k, appending to any table already there.
func addPartition(p Partitions, k Key, t *table.Table) error {
	prev, ok := p[k]
	if !ok {
		p[k] = t
		return nil
	}
	merged, err := table.Concat(prev, t)
	if err != nil {
		return errors.Wrapf(ErrSchema, "partition %v: %v", k, err)
	}
	p[k] = merged
	return nil
}

// misfiled reports whether t, stored under k, holds rows that belong under
// another stranded key: k is chromosome-only and t carries a Strand column,
// or k is stranded and some Strand value differs from k.Strand.
func misfiled(k Key, t *table.Table) bool {
	c := t.Col(StrandCol)
	if c == nil {
		return false
	}
	if !k.Stranded() {
		return true
	}
	switch c.Kind() {
	case table.String, table.Categorical:
		for i := 0; i < c.Len(); i++ {
			if table.StringAt(c, i) != k.Strand {
				return true
			}
		}
		return false
	}
	// Let GroupBy report the bad column.
	return true
}

// RepartitionByStrandIfNeeded re-keys tables whose rows do not match their
// key: tables stored under chromosome-only keys that carry a Strand column,
// and tables under stranded keys whose Strand values differ from the key.
// Each is split by strand value.  Pairwise operators often return
// strand-bearing tables under chromosome keys, or under the flipped key of a
// one-sided opposite-strand pair; this pass files every row under the
// (Chromosome, Strand) key it belongs to.  The input is returned unchanged
// when no table needs re-keying.
func RepartitionByStrandIfNeeded(p Partitions) (Partitions, error) {
	needed := false
	for k, t := range p {
		if misfiled(k, t) {
			needed = true
			break
		}
	}
	if !needed {
		return p, nil
	}
	out := make(Partitions, len(p)*2)
	nMoved := 0
	for _, k := range sortedKeys(p) {
		t := p[k]
		if !misfiled(k, t) {
			if err := addPartition(out, k, t); err != nil {
				return nil, err
			}
			continue
		}
		nMoved++
		groups, err := t.GroupBy(StrandCol)
		if err != nil {
			return nil, errors.Wrapf(ErrSchema, "partition %v: %v", k, err)
		}
		for _, g := range groups {
			if err := checkStrand(g.Keys[0]); err != nil {
				return nil, errors.WithMessagef(err, "partition %v", k)
			}
			if err := addPartition(out, Key{k.Chromosome, g.Keys[0]}, g.Table); err != nil {
				return nil, err
			}
		}
	}
	if log.At(log.Debug) {
		log.Debug.Printf("ranges: re-keyed %d of %d partitions by strand", nMoved, len(p))
	}
	return out, nil
}

func fromPartitions(p Partitions) (*Collection, error) {
	parts := make(Partitions, len(p))
	for k, t := range p {
		if t == nil || t.NumRows() == 0 {
			continue
		}
		if err := checkMandatory(t); err != nil {
			return nil, errors.WithMessagef(err, "partition %v", k)
		}
		parts[k] = t
	}
	parts, err := RepartitionByStrandIfNeeded(parts)
	if err != nil {
		return nil, err
	}
	w := Narrow
	nStranded := 0
	for k, t := range parts {
		if k.Stranded() {
			nStranded++
		}
		if widthOf(t) == Wide {
			w = Wide
		}
	}
	if nStranded != 0 && nStranded != len(parts) {
		return nil, errors.Wrap(ErrSchema, "partition keys mix stranded and unstranded shapes")
	}
	for k, t := range parts {
		if k.Stranded() && !t.Has(StrandCol) {
			if t, err = t.With(StrandCol, table.NewCategoricalRepeat(k.Strand, t.NumRows())); err != nil {
				return nil, err
			}
		}
		if t, err = Normalize(t, w); err != nil {
			return nil, errors.WithMessagef(err, "partition %v", k)
		}
		parts[k] = dropUnusedCategories(t)
	}
	return newCollection(parts), nil
}
