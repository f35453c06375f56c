// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges

import (
	"context"
	"sort"

	"github.com/grailbio/base/log"
	"github.com/grailbio/granges/parallel"
	"github.com/grailbio/granges/table"
	"github.com/pkg/errors"
)

// SingleOp is an operator over one partition.  It must be pure and must not
// retain t after returning.
type SingleOp func(t *table.Table, opts Options) (Result, error)

// PairOp is an operator over a pair of partitions, one from each collection.
// Either table may be empty when the corresponding side is sparse.  The
// returned table replaces the pair in the output.
type PairOp func(self, other *table.Table, opts Options) (*table.Table, error)

type resultKind int

const (
	replaceResult resultKind = iota
	columnResult
	maskResult
)

// Result is the output of a SingleOp: a replacement table, a column to store
// under Options.Col, or a row mask to filter by when Options.Subset is set.
type Result struct {
	kind resultKind
	t    *table.Table
	col  table.Column
	mask *table.Mask
}

// Replace returns a Result that replaces the partition with t.  A nil or
// empty t removes the partition.
func Replace(t *table.Table) Result { return Result{kind: replaceResult, t: t} }

// SetColumn returns a Result that stores c under Options.Col.
func SetColumn(c table.Column) Result { return Result{kind: columnResult, col: c} }

// Select returns a Result that keeps the rows selected by m.
func Select(m *table.Mask) Result { return Result{kind: maskResult, mask: m} }

func (r Result) apply(t *table.Table, opts Options) (*table.Table, error) {
	switch r.kind {
	case columnResult:
		if opts.Col == "" {
			return nil, errors.Wrap(ErrInvalidOption, "column result without Options.Col")
		}
		return t.With(opts.Col, r.col)
	case maskResult:
		if !opts.Subset {
			return nil, errors.Wrap(ErrInvalidOption, "mask result without Options.Subset")
		}
		return t.Filter(r.mask)
	}
	return r.t, nil
}

// SplitMode selects the partitioning ApplySingle dispatches on.
type SplitMode int

const (
	// SplitAuto dispatches on the collection's own keys.
	SplitAuto SplitMode = iota
	// SplitByStrand dispatches per (chromosome, strand).  The collection must
	// be stranded or empty.
	SplitByStrand
	// SplitByChromosome dispatches per chromosome, merging strand partitions.
	// The Strand column, if any, is kept.
	SplitByChromosome
)

func sortedKeys(m map[Key]*table.Table) []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// ApplySingle runs op on every partition of c and assembles the outputs into
// a new collection.  Partition invocations are independent and run through
// ex; a nil ex runs them sequentially.  Any operator error aborts the whole
// call and no collection is returned.
func ApplySingle(ctx context.Context, ex parallel.Executor, op SingleOp, c *Collection, mode SplitMode, opts Options) (*Collection, error) {
	if ex == nil {
		ex = parallel.Sequential{}
	}
	var (
		src map[Key]*table.Table
		err error
	)
	switch mode {
	case SplitAuto:
		src = c.parts
	case SplitByStrand:
		if !c.Stranded() {
			return nil, errors.Wrap(ErrStrandRequired, "ranges.ApplySingle: by-strand dispatch on an unstranded collection")
		}
		src = c.parts
	case SplitByChromosome:
		if src, err = c.byChromosome(); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(ErrInvalidOption, "ranges.ApplySingle: split mode %d", mode)
	}
	keys := sortedKeys(src)
	out := make([]*table.Table, len(keys))
	err = ex.Each(ctx, len(keys), func(ctx context.Context, i int) error {
		k := keys[i]
		t := src[k]
		res, err := op(t, opts)
		if err != nil {
			return errors.WithMessagef(err, "partition %v", k)
		}
		r, err := res.apply(t, opts)
		if err != nil {
			return errors.WithMessagef(err, "partition %v", k)
		}
		if opts.Renormalize && r != nil && r.NumRows() > 0 {
			if r, err = Normalize(r, opts.Width); err != nil {
				return errors.WithMessagef(err, "partition %v", k)
			}
		}
		out[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if log.At(log.Debug) {
		log.Debug.Printf("ranges.ApplySingle: dispatched %d partitions", len(keys))
	}
	return assemble(keys, out)
}

func assemble(keys []Key, out []*table.Table) (*Collection, error) {
	parts := make(Partitions, len(keys))
	for i, k := range keys {
		if out[i] == nil {
			continue
		}
		if err := addPartition(parts, k, out[i]); err != nil {
			return nil, err
		}
	}
	return Build(parts, WidthAuto)
}

// emptyFor returns a zero-row table standing in for a missing partition of
// c.  It has the schema of c's partitions, or the mandatory columns of
// present if c is empty.
func emptyFor(c *Collection, present *table.Table) *table.Table {
	for _, t := range c.parts {
		return t.Take(nil)
	}
	t, err := present.Select(ChromosomeCol, StartCol, EndCol)
	if err != nil {
		// Partitions always have the mandatory columns.
		panic(err)
	}
	return t.Take(nil)
}

// ApplyPair runs op on every pair of partitions of self and other selected by
// Resolve(self, other, opts.Strandedness).  A pair whose self (other) side is
// missing runs against an empty table if opts.Sparse.Self (Other) is set, and
// is skipped otherwise.  Each result is stored under the pair's Left key; a
// strand-bearing result stored under a chromosome-only key is re-keyed by
// strand.  Any operator error aborts the whole call.
func ApplyPair(ctx context.Context, ex parallel.Executor, op PairOp, self, other *Collection, opts Options) (*Collection, error) {
	if ex == nil {
		ex = parallel.Sequential{}
	}
	plan, err := Resolve(self, other, opts.Strandedness)
	if err != nil {
		return nil, err
	}
	left, right := self.parts, other.parts
	if plan.Strandedness == Unstranded {
		if left, err = self.byChromosome(); err != nil {
			return nil, err
		}
		if right, err = other.byChromosome(); err != nil {
			return nil, err
		}
	}
	type job struct {
		key  Key
		l, r *table.Table
	}
	var jobs []job
	for _, p := range plan.Pairs {
		l, r := left[p.Left], right[p.Right]
		switch {
		case l == nil && r == nil:
			continue
		case l == nil:
			if !opts.Sparse.Self {
				continue
			}
			l = emptyFor(self, r)
		case r == nil:
			if !opts.Sparse.Other {
				continue
			}
			r = emptyFor(other, l)
		}
		jobs = append(jobs, job{p.Left, l, r})
	}
	out := make([]*table.Table, len(jobs))
	err = ex.Each(ctx, len(jobs), func(ctx context.Context, i int) error {
		j := jobs[i]
		r, err := op(j.l, j.r, opts)
		if err != nil {
			return errors.WithMessagef(err, "partition %v", j.key)
		}
		out[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	if log.At(log.Debug) {
		log.Debug.Printf("ranges.ApplyPair: dispatched %d of %d pairs (strandedness %q)",
			len(jobs), len(plan.Pairs), string(plan.Strandedness))
	}
	keys := make([]Key, len(jobs))
	for i, j := range jobs {
		keys[i] = j.key
	}
	return assemble(keys, out)
}
