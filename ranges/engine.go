// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges

import (
	"context"
	"strconv"
	"strings"

	"github.com/grailbio/granges/parallel"
	"github.com/grailbio/granges/table"
	"github.com/pkg/errors"
)

// Operators holds the interval algorithms an Engine dispatches to.  Any field
// may be nil, in which case the operations that need it fail with
// ErrNoOperator.
type Operators struct {
	// Overlap keeps the self rows that overlap some other row (or, with
	// Options.Invert, that overlap none).
	Overlap PairOp
	// Intersect returns the overlapping parts of self and other rows.
	Intersect PairOp
	// Subtract removes the other (merged) intervals from self rows.
	Subtract PairOp
	// Join pairs each self row with overlapping other rows, suffixing
	// clashing columns.
	Join PairOp
	// Nearest pairs each self row with its nearest other row.
	Nearest PairOp

	// Merge fuses overlapping rows of one partition.
	Merge SingleOp
	// Sort orders the rows of one partition.
	Sort SingleOp
	// Slack extends rows by Options.Slack on both sides.
	Slack SingleOp
	// TSS and TES shrink rows to their start/end site, respecting strand.
	TSS SingleOp
	TES SingleOp
	// Coverage turns the rows of one partition into runs of constant depth,
	// one row per run, with the depth (or the sum of Options.Col) stored in
	// CoverageCol.
	Coverage SingleOp
}

// Engine runs the public operations on collections.  The zero value runs
// sequentially and has no operators.
type Engine struct {
	// Executor runs per-partition tasks.  Nil means parallel.Sequential.
	Executor parallel.Executor
	// Ops are the interval algorithms.
	Ops Operators
}

// NewEngine creates an Engine.
func NewEngine(ex parallel.Executor, ops Operators) *Engine {
	return &Engine{Executor: ex, Ops: ops}
}

func noOperator(name string) error {
	return errors.Wrapf(ErrNoOperator, "ranges.Engine.%s", name)
}

func (e *Engine) pair(ctx context.Context, name string, op PairOp, a, b *Collection, opts Options) (*Collection, error) {
	if op == nil {
		return nil, noOperator(name)
	}
	return ApplyPair(ctx, e.Executor, op, a, b, opts)
}

func (e *Engine) single(ctx context.Context, name string, op SingleOp, c *Collection, mode SplitMode, opts Options) (*Collection, error) {
	if op == nil {
		return nil, noOperator(name)
	}
	return ApplySingle(ctx, e.Executor, op, c, mode, opts)
}

// strandMode maps a strand flag to a split mode.
func strandMode(byStrand bool) SplitMode {
	if byStrand {
		return SplitByStrand
	}
	return SplitByChromosome
}

// Overlap returns the rows of a that overlap rows of b.  Chromosomes missing
// from b are still dispatched so that inverted overlaps can keep them.
func (e *Engine) Overlap(ctx context.Context, a, b *Collection, opts Options) (*Collection, error) {
	opts.Sparse = Sparse{Self: false, Other: true}
	return e.pair(ctx, "Overlap", e.Ops.Overlap, a, b, opts)
}

// Intersect returns the overlapping parts of the rows of a and b.
func (e *Engine) Intersect(ctx context.Context, a, b *Collection, opts Options) (*Collection, error) {
	opts.Sparse = Sparse{Self: false, Other: true}
	return e.pair(ctx, "Intersect", e.Ops.Intersect, a, b, opts)
}

// SetIntersect merges each collection and intersects the results.
func (e *Engine) SetIntersect(ctx context.Context, a, b *Collection, opts Options) (*Collection, error) {
	byStrand := opts.Strandedness != Unstranded
	am, err := e.Merge(ctx, a, byStrand, opts)
	if err != nil {
		return nil, err
	}
	bm, err := e.Merge(ctx, b, byStrand, opts)
	if err != nil {
		return nil, err
	}
	return e.pair(ctx, "SetIntersect", e.Ops.Intersect, am, bm, opts)
}

// SetUnion concatenates a and b and merges the result.  Without a strand
// policy both inputs are unstranded first.
func (e *Engine) SetUnion(ctx context.Context, a, b *Collection, opts Options) (*Collection, error) {
	byStrand := opts.Strandedness != Unstranded
	if !byStrand {
		var err error
		if a, err = a.Unstrand(); err != nil {
			return nil, err
		}
		if b, err = b.Unstrand(); err != nil {
			return nil, err
		}
	}
	c, err := Concat(a, b)
	if err != nil {
		return nil, err
	}
	return e.Merge(ctx, c, byStrand, opts)
}

// Subtract removes the intervals of b from the rows of a.  b is merged
// first.
func (e *Engine) Subtract(ctx context.Context, a, b *Collection, opts Options) (*Collection, error) {
	if e.Ops.Subtract == nil {
		return nil, noOperator("Subtract")
	}
	opts.Sparse = Sparse{Self: false, Other: true}
	bm, err := e.Merge(ctx, b, opts.Strandedness != Unstranded, opts)
	if err != nil {
		return nil, err
	}
	return e.pair(ctx, "Subtract", e.Ops.Subtract, a, bm, opts)
}

// Join pairs overlapping rows of a and b.
func (e *Engine) Join(ctx context.Context, a, b *Collection, opts Options) (*Collection, error) {
	return e.pair(ctx, "Join", e.Ops.Join, a, b, opts)
}

// Nearest pairs each row of a with the nearest row of b.  Upstream and
// downstream searches need b to be stranded.
func (e *Engine) Nearest(ctx context.Context, a, b *Collection, opts Options) (*Collection, error) {
	if (opts.How == "upstream" || opts.How == "downstream") && !b.Stranded() {
		return nil, errors.Wrapf(ErrStrandRequired, "nearest %s requires a stranded other collection", opts.How)
	}
	return e.pair(ctx, "Nearest", e.Ops.Nearest, a, b, opts)
}

// Merge fuses overlapping intervals, per strand when byStrand is set and per
// chromosome otherwise.  Merging across strands yields an unstranded
// collection.
func (e *Engine) Merge(ctx context.Context, c *Collection, byStrand bool, opts Options) (*Collection, error) {
	if e.Ops.Merge == nil {
		return nil, noOperator("Merge")
	}
	opts.Sparse = Sparse{Self: true}
	if !byStrand {
		var err error
		if c, err = c.Unstrand(); err != nil {
			return nil, err
		}
	}
	return e.single(ctx, "Merge", e.Ops.Merge, c, SplitAuto, opts)
}

// ClusterCol is the column Cluster stores cluster ids under.
const ClusterCol = "Cluster"

// Cluster labels every row with the id of the merged interval it belongs
// to.  Ids start at 1 and follow key order, then row order.
func (e *Engine) Cluster(ctx context.Context, c *Collection, byStrand bool, opts Options) (*Collection, error) {
	if e.Ops.Join == nil {
		return nil, noOperator("Cluster")
	}
	merged, err := e.Merge(ctx, c, byStrand, opts)
	if err != nil {
		return nil, err
	}
	ids := make(map[Key]table.Column, merged.NumPartitions())
	next := int64(1)
	for _, it := range merged.Items() {
		col := make(table.Int64Column, it.Table.NumRows())
		for i := range col {
			col[i] = next
			next++
		}
		ids[it.Key] = col
	}
	if merged, err = merged.WithColumn(ClusterCol, ids); err != nil {
		return nil, err
	}
	jopts := opts
	jopts.How = "first"
	jopts.Strandedness = Unstranded
	if byStrand && c.Stranded() {
		jopts.Strandedness = Same
	}
	j, err := e.Join(ctx, c, merged, jopts)
	if err != nil {
		return nil, err
	}
	var drop []string
	for _, n := range j.Columns() {
		for _, base := range []string{StartCol, EndCol, StrandCol} {
			if n == base+opts.Suffix || n == base+opts.Suffixes[1] {
				drop = append(drop, n)
			}
		}
	}
	if len(drop) == 0 {
		return j, nil
	}
	return j.Drop(DropOpts{Drop: drop})
}

// CoverageCol is the column Coverage stores depths under.
const CoverageCol = "Coverage"

// Coverage computes the depth of c as runs of constant coverage, per strand
// when byStrand is set and c is stranded, and per chromosome otherwise.
// opts.Col optionally names a numeric column to sum instead of counting
// intervals.  With opts.RPM the depths are scaled to reads per million
// intervals of c.
func (e *Engine) Coverage(ctx context.Context, c *Collection, byStrand bool, opts Options) (*Collection, error) {
	if e.Ops.Coverage == nil {
		return nil, noOperator("Coverage")
	}
	if opts.Col != "" && c.Column(opts.Col) == nil && !c.IsEmpty() {
		return nil, errors.Wrapf(ErrInvalidOption, "ranges.Engine.Coverage: no column %q", opts.Col)
	}
	opts.Sparse = Sparse{Self: true}
	if !byStrand {
		var err error
		if c, err = c.Unstrand(); err != nil {
			return nil, err
		}
	}
	cov, err := e.single(ctx, "Coverage", e.Ops.Coverage, c, SplitAuto, opts)
	if err != nil || !opts.RPM || cov.IsEmpty() {
		return cov, err
	}
	depths := cov.Column(CoverageCol)
	if depths == nil {
		return nil, errors.Wrapf(ErrSchema, "ranges.Engine.Coverage: operator output has no %s column", CoverageCol)
	}
	scale := 1e6 / float64(c.Len())
	scaled := make(map[Key]table.Column, len(depths))
	for k, col := range depths {
		out := make(table.Float64Column, col.Len())
		for i := range out {
			switch col := col.(type) {
			case table.Float64Column:
				out[i] = col[i] * scale
			case table.Int32Column, table.Int64Column:
				out[i] = float64(table.Int64At(col, i)) * scale
			default:
				return nil, errors.Wrapf(ErrSchema, "ranges.Engine.Coverage: %s column has kind %v", CoverageCol, col.Kind())
			}
		}
		scaled[k] = out
	}
	return cov.WithColumn(CoverageCol, scaled)
}

// Sort orders the rows of every partition.
func (e *Engine) Sort(ctx context.Context, c *Collection, opts Options) (*Collection, error) {
	opts.Sparse = Sparse{}
	return e.single(ctx, "Sort", e.Ops.Sort, c, strandMode(c.Stranded()), opts)
}

// Slack extends every interval by slack bases on both sides.
func (e *Engine) Slack(ctx context.Context, c *Collection, slack int64) (*Collection, error) {
	opts := DefaultOptions()
	opts.Slack = slack
	return e.single(ctx, "Slack", e.Ops.Slack, c, strandMode(c.Stranded()), opts)
}

// TSS replaces every interval by its start site, extended by slack.
func (e *Engine) TSS(ctx context.Context, c *Collection, slack int64) (*Collection, error) {
	opts := DefaultOptions()
	opts.Slack = slack
	return e.single(ctx, "TSS", e.Ops.TSS, c, strandMode(c.Stranded()), opts)
}

// TES replaces every interval by its end site, extended by slack.
func (e *Engine) TES(ctx context.Context, c *Collection, slack int64) (*Collection, error) {
	opts := DefaultOptions()
	opts.Slack = slack
	return e.single(ctx, "TES", e.Ops.TES, c, strandMode(c.Stranded()), opts)
}

// Apply runs a caller-supplied operator on every partition.
func (e *Engine) Apply(ctx context.Context, c *Collection, op SingleOp, mode SplitMode, opts Options) (*Collection, error) {
	return e.single(ctx, "Apply", op, c, mode, opts)
}

// ApplyPair runs a caller-supplied operator on every partition pair.
func (e *Engine) ApplyPair(ctx context.Context, a, b *Collection, op PairOp, opts Options) (*Collection, error) {
	return e.pair(ctx, "ApplyPair", op, a, b, opts)
}

// Filter keeps the rows for which pred selects true, partition by partition.
func (e *Engine) Filter(ctx context.Context, c *Collection, pred func(t *table.Table) (*table.Mask, error)) (*Collection, error) {
	if pred == nil {
		return nil, noOperator("Filter")
	}
	opts := DefaultOptions()
	opts.Subset = true
	op := func(t *table.Table, _ Options) (Result, error) {
		m, err := pred(t)
		if err != nil {
			return Result{}, err
		}
		return Select(m), nil
	}
	return e.single(ctx, "Filter", op, c, SplitAuto, opts)
}

// Describe summarizes a collection for logs.
func Describe(c *Collection) string {
	var sb strings.Builder
	sb.WriteString("ranges.Collection{")
	for i, it := range c.Items() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(it.Key.String())
		sb.WriteByte('=')
		sb.WriteString(strconv.Itoa(it.Table.NumRows()))
	}
	sb.WriteByte('}')
	return sb.String()
}
