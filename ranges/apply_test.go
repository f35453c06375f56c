// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/grailbio/granges/parallel"
	"github.com/grailbio/granges/ranges"
	"github.com/grailbio/granges/table"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executors() []parallel.Executor {
	return []parallel.Executor{
		nil,
		parallel.Sequential{},
		parallel.Traverse{Limit: 2},
		parallel.Group{},
	}
}

func identity(t *table.Table, _ ranges.Options) (ranges.Result, error) {
	return ranges.Replace(t), nil
}

func TestBuildThenIndexChromosome(t *testing.T) {
	c, err := ranges.FromArrays(ranges.Arrays{
		Chromosomes: []string{"chr1", "chr1", "chr2"},
		Starts:      []int64{1, 5, 10},
		Ends:        []int64{3, 8, 12},
		Strands:     []string{"+", "-", "+"},
	}, ranges.WidthAuto)
	require.NoError(t, err)
	expect.EQ(t, c.Keys(), []ranges.Key{key("chr1", "+"), key("chr1", "-"), key("chr2", "+")})
	for _, it := range c.Items() {
		expect.EQ(t, it.Table.NumRows(), 1)
	}
	r, err := c.Index(ranges.ByChromosome("chr2"))
	require.NoError(t, err)
	expect.EQ(t, r.Keys(), []ranges.Key{key("chr2", "+")})
}

func TestApplySingleIdentity(t *testing.T) {
	c := withName(t, stranded(t))
	for _, ex := range executors() {
		for _, mode := range []ranges.SplitMode{ranges.SplitAuto, ranges.SplitByStrand, ranges.SplitByChromosome} {
			r, err := ranges.ApplySingle(context.Background(), ex, identity, c, mode, ranges.DefaultOptions())
			require.NoError(t, err)
			expect.EQ(t, r.Keys(), c.Keys())
			expect.EQ(t, ranges.Checksum(r), ranges.Checksum(c))
		}
	}
}

func TestApplySingleSplitModes(t *testing.T) {
	c := stranded(t)
	var (
		mu   sync.Mutex
		seen []int
	)
	count := func(t *table.Table, _ ranges.Options) (ranges.Result, error) {
		mu.Lock()
		seen = append(seen, t.NumRows())
		mu.Unlock()
		return ranges.Replace(t), nil
	}
	_, err := ranges.ApplySingle(context.Background(), nil, count, c, ranges.SplitByChromosome, ranges.DefaultOptions())
	require.NoError(t, err)
	// chr1 merges its two strand partitions.
	expect.EQ(t, seen, []int{2, 1})

	seen = nil
	_, err = ranges.ApplySingle(context.Background(), nil, count, c, ranges.SplitAuto, ranges.DefaultOptions())
	require.NoError(t, err)
	expect.EQ(t, seen, []int{1, 1, 1})

	_, err = ranges.ApplySingle(context.Background(), nil, count, unstranded(t), ranges.SplitByStrand, ranges.DefaultOptions())
	assert.True(t, errors.Is(err, ranges.ErrStrandRequired), "got %v", err)

	_, err = ranges.ApplySingle(context.Background(), nil, count, ranges.Empty(), ranges.SplitByStrand, ranges.DefaultOptions())
	assert.NoError(t, err)
}

func TestApplySingleResults(t *testing.T) {
	c := unstranded(t)
	length := func(t *table.Table, _ ranges.Options) (ranges.Result, error) {
		l := make(table.Int64Column, t.NumRows())
		for i := range l {
			l[i] = table.Int64At(t.Col("End"), i) - table.Int64At(t.Col("Start"), i)
		}
		return ranges.SetColumn(l), nil
	}
	opts := ranges.DefaultOptions()
	opts.Col = "Length"
	r, err := ranges.ApplySingle(context.Background(), nil, length, c, ranges.SplitAuto, opts)
	require.NoError(t, err)
	expect.EQ(t, r.Columns(), []string{"Chromosome", "Start", "End", "Length"})
	expect.EQ(t, table.Int64At(r.Get(key("chr2", "")).Col("Length"), 1), int64(100))

	_, err = ranges.ApplySingle(context.Background(), nil, length, c, ranges.SplitAuto, ranges.DefaultOptions())
	assert.True(t, errors.Is(err, ranges.ErrInvalidOption), "got %v", err)

	long := func(t *table.Table, _ ranges.Options) (ranges.Result, error) {
		m := table.NewMask(t.NumRows())
		for i := 0; i < t.NumRows(); i++ {
			if table.Int64At(t.Col("End"), i)-table.Int64At(t.Col("Start"), i) > 10 {
				m.Set(i)
			}
		}
		return ranges.Select(m), nil
	}
	opts = ranges.DefaultOptions()
	opts.Subset = true
	r, err = ranges.ApplySingle(context.Background(), nil, long, c, ranges.SplitAuto, opts)
	require.NoError(t, err)
	// chr10's only row is dropped, and so is its key.
	expect.EQ(t, r.Keys(), []ranges.Key{key("chr2", "")})
	expect.EQ(t, r.Len(), 2)

	_, err = ranges.ApplySingle(context.Background(), nil, long, c, ranges.SplitAuto, ranges.DefaultOptions())
	assert.True(t, errors.Is(err, ranges.ErrInvalidOption), "got %v", err)
}

func TestApplySingleRenormalize(t *testing.T) {
	c := unstranded(t)
	expect.EQ(t, c.Width(), ranges.Narrow)
	opts := ranges.DefaultOptions()
	opts.Renormalize = true
	opts.Width = ranges.Wide
	r, err := ranges.ApplySingle(context.Background(), nil, identity, c, ranges.SplitAuto, opts)
	require.NoError(t, err)
	expect.EQ(t, r.Width(), ranges.Wide)
	expect.EQ(t, ranges.Checksum(r), ranges.Checksum(c))
}

func TestApplySingleAllOrNothing(t *testing.T) {
	boom := errors.New("boom")
	failChr10 := func(t *table.Table, _ ranges.Options) (ranges.Result, error) {
		if table.StringAt(t.Col("Chromosome"), 0) == "chr10" {
			return ranges.Result{}, boom
		}
		return ranges.Replace(t), nil
	}
	for _, ex := range executors() {
		r, err := ranges.ApplySingle(context.Background(), ex, failChr10, unstranded(t), ranges.SplitAuto, ranges.DefaultOptions())
		assert.True(t, errors.Is(err, boom), "got %v", err)
		assert.Nil(t, r)
	}
}

func TestApplySingleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, ex := range executors() {
		r, err := ranges.ApplySingle(ctx, ex, identity, stranded(t), ranges.SplitAuto, ranges.DefaultOptions())
		assert.True(t, errors.Is(err, context.Canceled), "%T: got %v", ex, err)
		assert.Nil(t, r)
	}
}

func TestApplyPairOppositeRunsOnce(t *testing.T) {
	a := keyed(t, key("chr1", "+"))
	b := keyed(t, key("chr1", "-"))
	calls := 0
	op := func(self, other *table.Table, _ ranges.Options) (*table.Table, error) {
		calls++
		expect.EQ(t, table.StringAt(self.Col("Strand"), 0), "+")
		expect.EQ(t, table.StringAt(other.Col("Strand"), 0), "-")
		return self, nil
	}
	opts := ranges.DefaultOptions()
	opts.Strandedness = ranges.Opposite
	r, err := ranges.ApplyPair(context.Background(), nil, op, a, b, opts)
	require.NoError(t, err)
	expect.EQ(t, calls, 1)
	expect.EQ(t, r.Keys(), []ranges.Key{key("chr1", "+")})
}

type call struct {
	chrom       string
	self, other int
}

func recordingOp(calls *[]call) ranges.PairOp {
	return func(self, other *table.Table, _ ranges.Options) (*table.Table, error) {
		chrom := ""
		switch {
		case self.NumRows() > 0:
			chrom = table.StringAt(self.Col("Chromosome"), 0)
		case other.NumRows() > 0:
			chrom = table.StringAt(other.Col("Chromosome"), 0)
		}
		*calls = append(*calls, call{chrom, self.NumRows(), other.NumRows()})
		return self, nil
	}
}

func TestApplyPairSparse(t *testing.T) {
	a := keyed(t, key("chr1", ""), key("chr2", ""), key("chr2", ""))
	b := keyed(t, key("chr1", ""), key("chr3", ""))
	tests := []struct {
		sparse ranges.Sparse
		want   []call
	}{
		{ranges.Sparse{}, []call{{"chr1", 1, 1}}},
		{ranges.Sparse{Other: true}, []call{{"chr1", 1, 1}, {"chr2", 2, 0}}},
		{ranges.Sparse{Self: true}, []call{{"chr1", 1, 1}, {"chr3", 0, 1}}},
		{ranges.Sparse{Self: true, Other: true}, []call{{"chr1", 1, 1}, {"chr2", 2, 0}, {"chr3", 0, 1}}},
	}
	for _, test := range tests {
		var calls []call
		opts := ranges.DefaultOptions()
		opts.Sparse = test.sparse
		r, err := ranges.ApplyPair(context.Background(), parallel.Sequential{}, recordingOp(&calls), a, b, opts)
		require.NoError(t, err)
		expect.EQ(t, calls, test.want, fmt.Sprintf("%+v", test.sparse))
		// The self side is returned, so one-sided self pairs survive and
		// one-sided other pairs vanish.
		if test.sparse.Other {
			expect.EQ(t, r.Chromosomes(), []string{"chr1", "chr2"})
		} else {
			expect.EQ(t, r.Chromosomes(), []string{"chr1"})
		}
	}
}

func TestApplyPairUnstrandedMergesStrands(t *testing.T) {
	a := stranded(t)
	b := keyed(t, key("chr1", "+"))
	var calls []call
	r, err := ranges.ApplyPair(context.Background(), nil, recordingOp(&calls), a, b, ranges.DefaultOptions())
	require.NoError(t, err)
	expect.EQ(t, calls, []call{{"chr1", 2, 1}})
	// The strand-bearing result is re-keyed by strand.
	expect.EQ(t, r.Keys(), []ranges.Key{key("chr1", "+"), key("chr1", "-")})
	expect.True(t, r.Stranded())
}

func TestApplyPairErrors(t *testing.T) {
	boom := errors.New("boom")
	op := func(self, other *table.Table, _ ranges.Options) (*table.Table, error) {
		if table.StringAt(self.Col("Chromosome"), 0) == "chr2" {
			return nil, boom
		}
		return self, nil
	}
	a := keyed(t, key("chr1", "+"), key("chr2", "+"))
	for _, ex := range executors() {
		r, err := ranges.ApplyPair(context.Background(), ex, op, a, a, ranges.DefaultOptions())
		assert.True(t, errors.Is(err, boom), "got %v", err)
		assert.Nil(t, r)
	}

	opts := ranges.DefaultOptions()
	opts.Strandedness = ranges.Same
	_, err := ranges.ApplyPair(context.Background(), nil, op, a, unstranded(t), opts)
	assert.True(t, errors.Is(err, ranges.ErrStrandRequired), "got %v", err)

	opts.Strandedness = "sideways"
	_, err = ranges.ApplyPair(context.Background(), nil, op, a, a, opts)
	assert.True(t, errors.Is(err, ranges.ErrInvalidOption), "got %v", err)
}

func TestChecksum(t *testing.T) {
	a := ranges.Arrays{Chromosomes: []string{"chr1", "chr2"}, Starts: []int64{1, 2}, Ends: []int64{3, 4}}
	narrow, err := ranges.FromArrays(a, ranges.Narrow)
	require.NoError(t, err)
	wide, err := ranges.FromArrays(a, ranges.Wide)
	require.NoError(t, err)
	expect.EQ(t, ranges.Checksum(narrow), ranges.Checksum(wide))

	a.Ends = []int64{3, 5}
	other, err := ranges.FromArrays(a, ranges.Narrow)
	require.NoError(t, err)
	assert.NotEqual(t, ranges.Checksum(narrow), ranges.Checksum(other))
	assert.NotEqual(t, ranges.Checksum(narrow), ranges.Checksum(ranges.Empty()))
}

func TestConcatAndUnstrand(t *testing.T) {
	s := stranded(t)
	u := unstranded(t)

	r, err := ranges.Concat(s, s)
	require.NoError(t, err)
	expect.True(t, r.Stranded())
	expect.EQ(t, r.Len(), 6)
	expect.EQ(t, r.Keys(), s.Keys())

	r, err = ranges.Concat(s, u, ranges.Empty())
	require.NoError(t, err)
	expect.False(t, r.Stranded())
	expect.EQ(t, r.Len(), 6)
	expect.EQ(t, r.Chromosomes(), []string{"chr1", "chr2", "chr10"})
	expect.False(t, r.Get(key("chr1", "")).Has("Strand"))

	us, err := s.Unstrand()
	require.NoError(t, err)
	expect.False(t, us.Stranded())
	expect.EQ(t, us.Keys(), []ranges.Key{key("chr1", ""), key("chr2", "")})
	expect.EQ(t, us.Columns(), []string{"Chromosome", "Start", "End"})

	same, err := u.Unstrand()
	require.NoError(t, err)
	expect.True(t, same == u)
}

func TestTableAndLengths(t *testing.T) {
	c := stranded(t)
	tb, err := c.Table()
	require.NoError(t, err)
	expect.EQ(t, tb.NumRows(), 3)
	expect.EQ(t, table.StringAt(tb.Col("Strand"), 1), "-")
	expect.EQ(t, c.Lengths()[key("chr2", "+")], []int64{27})
	strands, err := c.Strands()
	require.NoError(t, err)
	expect.EQ(t, strands, []string{"+", "-"})
}

func TestApplyPairOppositeFilesOneSidedRowsByStrand(t *testing.T) {
	a := keyed(t, key("chr2", "+"))
	b := keyed(t, key("chr1", "-"))
	op := func(self, other *table.Table, _ ranges.Options) (*table.Table, error) {
		if self.NumRows() == 0 {
			return other, nil
		}
		return self, nil
	}
	opts := ranges.DefaultOptions()
	opts.Strandedness = ranges.Opposite
	opts.Sparse = ranges.Sparse{Self: true, Other: true}
	for _, ex := range executors() {
		r, err := ranges.ApplyPair(context.Background(), ex, op, a, b, opts)
		require.NoError(t, err)
		// The chr1 pair is dispatched under chr1:+, but its rows are on "-".
		expect.EQ(t, r.Keys(), []ranges.Key{key("chr1", "-"), key("chr2", "+")})
		for _, it := range r.Items() {
			expect.EQ(t, table.StringAt(it.Table.Col("Strand"), 0), it.Key.Strand)
		}
		minus, err := r.Index(ranges.ByStrand("-"))
		require.NoError(t, err)
		expect.EQ(t, minus.Len(), 1)
		one, err := r.Index(ranges.ByChromosomeStrand{Chromosome: "chr1", Strand: "-"})
		require.NoError(t, err)
		expect.EQ(t, one.Len(), 1)
	}
}

func TestColumnAndWithColumn(t *testing.T) {
	c := stranded(t)
	assert.Nil(t, c.Column("Name"))
	starts := c.Column("Start")
	require.Len(t, starts, 3)
	expect.EQ(t, table.Int64At(starts[key("chr2", "+")], 0), int64(3))

	names := map[ranges.Key]table.Column{}
	for _, k := range c.Keys() {
		names[k] = table.StringColumn{k.String()}
	}
	r, err := c.WithColumn("Name", names)
	require.NoError(t, err)
	expect.EQ(t, r.Columns(), []string{"Chromosome", "Start", "End", "Strand", "Name"})
	expect.EQ(t, table.StringAt(r.Get(key("chr1", "-")).Col("Name"), 0), "chr1:-")
	// The receiver is unchanged.
	assert.Nil(t, c.Column("Name"))

	// A 64-bit End widens every partition.
	ends := map[ranges.Key]table.Column{}
	for _, k := range c.Keys() {
		ends[k] = table.Int64Column{math.MaxInt32 + 10}
	}
	r, err = c.WithColumn("End", ends)
	require.NoError(t, err)
	expect.EQ(t, r.Width(), ranges.Wide)
	for _, it := range r.Items() {
		expect.EQ(t, it.Table.Col("Start").Kind(), table.Int64)
	}

	r, err = c.WithColumnValues("Score", table.Float64Column{1, 2, 3})
	require.NoError(t, err)
	expect.EQ(t, r.Get(key("chr1", "-")).Col("Score").(table.Float64Column)[0], 2.0)
	expect.EQ(t, r.Get(key("chr2", "+")).Col("Score").(table.Float64Column)[0], 3.0)

	_, err = c.WithColumn("Strand", names)
	assert.True(t, errors.Is(err, ranges.ErrSchema), "got %v", err)
	delete(names, key("chr2", "+"))
	_, err = c.WithColumn("Name", names)
	assert.True(t, errors.Is(err, ranges.ErrSchema), "got %v", err)
	names[key("chr2", "+")] = table.StringColumn{"a", "b"}
	_, err = c.WithColumn("Name", names)
	assert.True(t, errors.Is(err, ranges.ErrLengthMismatch), "got %v", err)
	_, err = c.WithColumnValues("Score", table.Float64Column{1})
	assert.True(t, errors.Is(err, ranges.ErrLengthMismatch), "got %v", err)
}
