// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges

import (
	"github.com/grailbio/granges/table"
	"github.com/pkg/errors"
)

// IndexExpr is an expression accepted by Collection.Index.  The set of
// implementations is closed: ByChromosome, ByStrand, ByChromosomeStrand,
// ByChromosomeRange, ByChromosomeStrandRange, ByRange, ByColumns and ByMask.
type IndexExpr interface {
	isIndexExpr()
}

// ByChromosome selects every partition of one chromosome, keeping the key
// shape.
type ByChromosome string

// ByStrand selects every partition of one strand.  The collection must be
// stranded.
type ByStrand string

// ByChromosomeStrand selects a single stranded partition.
type ByChromosomeStrand struct {
	Chromosome string
	Strand     string
}

// ByChromosomeRange selects the rows of one chromosome, on any strand, whose
// [Start, End) intersects [Start, End).
type ByChromosomeRange struct {
	Chromosome string
	Start, End int64
}

// ByChromosomeStrandRange combines ByChromosomeStrand and ByChromosomeRange.
type ByChromosomeStrandRange struct {
	Chromosome string
	Strand     string
	Start, End int64
}

// ByRange selects, across all partitions, the rows whose [Start, End)
// intersects [Start, End).
type ByRange struct {
	Start, End int64
}

// ByColumns keeps the listed columns.  Chromosome, Start and End are always
// kept; Strand is kept unless DropStrand is set, in which case the result is
// re-keyed by chromosome.
type ByColumns struct {
	Names      []string
	DropStrand bool
}

// ByMask filters each listed partition by its row mask.  Partitions missing
// from the map are excluded from the result.
type ByMask map[Key]*table.Mask

func (ByChromosome) isIndexExpr()            {}
func (ByStrand) isIndexExpr()                {}
func (ByChromosomeStrand) isIndexExpr()      {}
func (ByChromosomeRange) isIndexExpr()       {}
func (ByChromosomeStrandRange) isIndexExpr() {}
func (ByRange) isIndexExpr()                 {}
func (ByColumns) isIndexExpr()               {}
func (ByMask) isIndexExpr()                  {}

// Index returns the sub-collection addressed by expr.  Empty partitions are
// removed from the result, so an expression that matches nothing yields the
// empty collection.
func (c *Collection) Index(expr IndexExpr) (*Collection, error) {
	var (
		parts Partitions
		err   error
	)
	switch e := expr.(type) {
	case ByChromosome:
		parts = c.selectKeys(c.chromosomeKeys(string(e)))
	case ByStrand:
		if err = c.requireStranded(e); err != nil {
			return nil, err
		}
		if err = checkStrand(string(e)); err != nil {
			return nil, errors.Wrapf(ErrInvalidIndex, "ranges.Index: %v", err)
		}
		parts = Partitions{}
		for k, t := range c.parts {
			if k.Strand == string(e) {
				parts[k] = t
			}
		}
	case ByChromosomeStrand:
		if err = c.requireStranded(e); err != nil {
			return nil, err
		}
		parts = c.selectKeys([]Key{{e.Chromosome, e.Strand}})
	case ByChromosomeRange:
		if err = checkRange(e.Start, e.End); err != nil {
			return nil, err
		}
		if parts, err = filterRange(c.selectKeys(c.chromosomeKeys(e.Chromosome)), e.Start, e.End); err != nil {
			return nil, err
		}
	case ByChromosomeStrandRange:
		if err = c.requireStranded(e); err != nil {
			return nil, err
		}
		if err = checkRange(e.Start, e.End); err != nil {
			return nil, err
		}
		if parts, err = filterRange(c.selectKeys([]Key{{e.Chromosome, e.Strand}}), e.Start, e.End); err != nil {
			return nil, err
		}
	case ByRange:
		if err = checkRange(e.Start, e.End); err != nil {
			return nil, err
		}
		if parts, err = filterRange(c.parts, e.Start, e.End); err != nil {
			return nil, err
		}
	case ByColumns:
		return c.keepColumns(e)
	case ByMask:
		if parts, err = c.applyMasks(e); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(ErrInvalidIndex, "unsupported index expression %T", expr)
	}
	return Build(parts, WidthAuto)
}

func (c *Collection) requireStranded(expr IndexExpr) error {
	if c.Stranded() {
		return nil
	}
	return errors.Wrapf(ErrStrandRequired, "index %+v on an unstranded collection", expr)
}

func (c *Collection) selectKeys(keys []Key) Partitions {
	parts := make(Partitions, len(keys))
	for _, k := range keys {
		if t, ok := c.parts[k]; ok {
			parts[k] = t
		}
	}
	return parts
}

func checkRange(start, end int64) error {
	if start < 0 || end <= start {
		return errors.Wrapf(ErrInvalidIndex, "invalid range [%d, %d)", start, end)
	}
	return nil
}

// filterRange keeps the rows whose [Start, End) intersects [start, end).
func filterRange(parts map[Key]*table.Table, start, end int64) (Partitions, error) {
	out := make(Partitions, len(parts))
	for k, t := range parts {
		starts, ends := t.Col(StartCol), t.Col(EndCol)
		m := table.NewMask(t.NumRows())
		for i := 0; i < t.NumRows(); i++ {
			if table.Int64At(starts, i) < end && table.Int64At(ends, i) > start {
				m.Set(i)
			}
		}
		ft, err := t.Filter(m)
		if err != nil {
			return nil, err
		}
		out[k] = ft
	}
	return out, nil
}

func (c *Collection) applyMasks(masks ByMask) (Partitions, error) {
	out := make(Partitions, len(masks))
	for k, m := range masks {
		t, ok := c.parts[k]
		if !ok {
			continue
		}
		if m == nil || m.Len() != t.NumRows() {
			return nil, errors.Wrapf(ErrInvalidIndex, "mask for %v does not cover its %d rows", k, t.NumRows())
		}
		ft, err := t.Filter(m)
		if err != nil {
			return nil, err
		}
		out[k] = ft
	}
	return out, nil
}

func (c *Collection) keepColumns(e ByColumns) (*Collection, error) {
	if c.IsEmpty() {
		return c, nil
	}
	keep := []string{ChromosomeCol, StartCol, EndCol}
	stranded := c.Stranded()
	if stranded && !e.DropStrand {
		keep = append(keep, StrandCol)
	}
	have := map[string]bool{}
	for _, n := range c.Columns() {
		have[n] = true
	}
	for _, n := range e.Names {
		if !have[n] {
			return nil, errors.Wrapf(ErrInvalidIndex, "no column %q", n)
		}
		switch n {
		case ChromosomeCol, StartCol, EndCol, StrandCol:
			continue
		}
		keep = append(keep, n)
	}
	src := c.parts
	if stranded && e.DropStrand {
		var err error
		if src, err = c.byChromosome(); err != nil {
			return nil, err
		}
	}
	parts := make(Partitions, len(src))
	for k, t := range src {
		st, err := t.Select(keep...)
		if err != nil {
			return nil, errors.Wrapf(ErrSchema, "partition %v: %v", k, err)
		}
		parts[k] = st
	}
	return Build(parts, WidthAuto)
}
