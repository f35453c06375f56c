// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges_test

import (
	"errors"
	"testing"

	"github.com/grailbio/granges/ranges"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keyed builds a collection holding one [0,1) row per key.
func keyed(t *testing.T, keys ...ranges.Key) *ranges.Collection {
	var a ranges.Arrays
	a.Chromosomes = []string{}
	for _, k := range keys {
		a.Chromosomes = append(a.Chromosomes, k.Chromosome)
		a.Starts = append(a.Starts, 0)
		a.Ends = append(a.Ends, 1)
		if k.Strand != "" {
			a.Strands = append(a.Strands, k.Strand)
		}
	}
	c, err := ranges.FromArrays(a, ranges.WidthAuto)
	require.NoError(t, err)
	return c
}

func TestResolveOpposite(t *testing.T) {
	a := keyed(t, key("chr1", "+"), key("chr1", "-"), key("chr2", "+"))
	b := keyed(t, key("chr1", "-"), key("chr1", "+"), key("chr3", "-"))
	plan, err := ranges.Resolve(a, b, ranges.Opposite)
	require.NoError(t, err)
	expect.EQ(t, plan.Strandedness, ranges.Opposite)
	expect.EQ(t, plan.Pairs, []ranges.Pair{
		{Left: key("chr1", "+"), Right: key("chr1", "-"), HasLeft: true, HasRight: true},
		{Left: key("chr1", "-"), Right: key("chr1", "+"), HasLeft: true, HasRight: true},
		{Left: key("chr2", "+"), Right: key("chr2", "-"), HasLeft: true},
		{Left: key("chr3", "+"), Right: key("chr3", "-"), HasRight: true},
	})
}

func TestResolveSame(t *testing.T) {
	a := keyed(t, key("chr1", "+"), key("chr2", "-"))
	b := keyed(t, key("chr1", "+"), key("chr1", "-"))
	plan, err := ranges.Resolve(a, b, ranges.Same)
	require.NoError(t, err)
	expect.EQ(t, plan.Pairs, []ranges.Pair{
		{Left: key("chr1", "+"), Right: key("chr1", "+"), HasLeft: true, HasRight: true},
		{Left: key("chr1", "-"), Right: key("chr1", "-"), HasRight: true},
		{Left: key("chr2", "-"), Right: key("chr2", "-"), HasLeft: true},
	})
	for _, p := range plan.Pairs {
		expect.EQ(t, p.Left, p.Right)
	}
}

func TestResolveSymmetry(t *testing.T) {
	a := keyed(t, key("chr1", "+"), key("chr2", "-"), key("chr10", "+"))
	b := keyed(t, key("chr1", "-"), key("chr2", "-"), key("chr3", "+"))
	for _, s := range []ranges.Strandedness{ranges.Same, ranges.Opposite, ranges.Unstranded} {
		ab, err := ranges.Resolve(a, b, s)
		require.NoError(t, err)
		ba, err := ranges.Resolve(b, a, s)
		require.NoError(t, err)
		swapped := map[ranges.Pair]bool{}
		for _, p := range ba.Pairs {
			swapped[ranges.Pair{Left: p.Right, Right: p.Left, HasLeft: p.HasRight, HasRight: p.HasLeft}] = true
		}
		expect.EQ(t, len(ab.Pairs), len(ba.Pairs), s)
		for _, p := range ab.Pairs {
			assert.True(t, swapped[p], "%q: %+v has no mirror", s, p)
		}
	}
}

func TestResolveUnstranded(t *testing.T) {
	a := keyed(t, key("chr1", "+"), key("chr1", "-"))
	b := keyed(t, key("chr2", ""))
	plan, err := ranges.Resolve(a, b, ranges.Unstranded)
	require.NoError(t, err)
	expect.EQ(t, plan.Pairs, []ranges.Pair{
		{Left: key("chr1", ""), Right: key("chr1", ""), HasLeft: true},
		{Left: key("chr2", ""), Right: key("chr2", ""), HasRight: true},
	})
}

func TestResolveErrors(t *testing.T) {
	s := keyed(t, key("chr1", "+"))
	u := keyed(t, key("chr1", ""))
	for _, strandedness := range []ranges.Strandedness{ranges.Same, ranges.Opposite} {
		_, err := ranges.Resolve(s, u, strandedness)
		assert.True(t, errors.Is(err, ranges.ErrStrandRequired), "got %v", err)
		_, err = ranges.Resolve(u, s, strandedness)
		assert.True(t, errors.Is(err, ranges.ErrStrandRequired), "got %v", err)
	}
	_, err := ranges.Resolve(s, s, ranges.Strandedness("both"))
	assert.True(t, errors.Is(err, ranges.ErrInvalidOption), "got %v", err)

	// The empty collection counts as stranded.
	_, err = ranges.Resolve(ranges.Empty(), s, ranges.Same)
	assert.NoError(t, err)
}

func TestParseStrandedness(t *testing.T) {
	for in, want := range map[string]ranges.Strandedness{
		"":           ranges.Unstranded,
		"none":       ranges.Unstranded,
		"unstranded": ranges.Unstranded,
		"same":       ranges.Same,
		"opposite":   ranges.Opposite,
	} {
		got, err := ranges.ParseStrandedness(in)
		require.NoError(t, err)
		expect.EQ(t, got, want)
	}
	_, err := ranges.ParseStrandedness("reverse")
	assert.True(t, errors.Is(err, ranges.ErrInvalidOption), "got %v", err)
}

func TestKeyOrder(t *testing.T) {
	keys := []ranges.Key{key("chr1", ""), key("chr1", "+"), key("chr1", "-"), key("chr2", "+"), key("chr10", "-"), key("chrX", "+")}
	for i := range keys {
		for j := range keys {
			expect.EQ(t, keys[i].Less(keys[j]), i < j, keys[i], keys[j])
		}
	}
	expect.EQ(t, key("chr1", "+").Flip(), key("chr1", "-"))
	expect.EQ(t, key("chr1", "").Flip(), key("chr1", ""))
	expect.EQ(t, key("chr1", "-").String(), "chr1:-")
}
