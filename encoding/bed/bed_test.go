// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package bed_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/granges/encoding/bed"
	"github.com/grailbio/granges/ranges"
	"github.com/grailbio/granges/table"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stranded = `# comment
track name=test
chr1	10	20	a	5	+
chr2	0	5	b	0	-

chr1	30	40	c	7.5	-
chr10	1	2	d	.	+
`

func TestReadStranded(t *testing.T) {
	c, err := bed.Read(strings.NewReader(stranded), bed.Opts{})
	require.NoError(t, err)
	expect.EQ(t, c.Keys(), []ranges.Key{
		{Chromosome: "chr1", Strand: "+"},
		{Chromosome: "chr1", Strand: "-"},
		{Chromosome: "chr2", Strand: "-"},
		{Chromosome: "chr10", Strand: "+"},
	})
	expect.EQ(t, c.Columns(), []string{"Chromosome", "Start", "End", "Name", "Score", "Strand"})
	expect.EQ(t, c.Width(), ranges.Narrow)
	m := c.Get(ranges.Key{Chromosome: "chr1", Strand: "-"})
	expect.EQ(t, table.StringAt(m.Col("Name"), 0), "c")
	expect.EQ(t, m.Col("Score").(table.Float64Column)[0], 7.5)
	d := c.Get(ranges.Key{Chromosome: "chr10", Strand: "+"})
	expect.EQ(t, d.Col("Score").(table.Float64Column)[0], 0.0)
}

func TestReadUnstranded(t *testing.T) {
	in := "chr1 1 5\nchr1 3 9 extra\nchr2 1 2\n"
	c, err := bed.Read(strings.NewReader(in), bed.Opts{OneBasedInput: true})
	require.NoError(t, err)
	expect.False(t, c.Stranded())
	expect.EQ(t, c.Columns(), []string{"Chromosome", "Start", "End"})
	chr1 := c.Get(ranges.Key{Chromosome: "chr1"})
	expect.EQ(t, table.Int64At(chr1.Col("Start"), 0), int64(0))
	expect.EQ(t, table.Int64At(chr1.Col("Start"), 1), int64(2))
	chr2 := c.Get(ranges.Key{Chromosome: "chr2"})
	expect.EQ(t, table.Int64At(chr2.Col("Start"), 0), int64(0))
	expect.EQ(t, table.Int64At(chr2.Col("End"), 0), int64(2))

	// Dots only in the strand field mean no strand.
	c, err = bed.Read(strings.NewReader("chr1\t1\t5\tx\t0\t.\n"), bed.Opts{})
	require.NoError(t, err)
	expect.False(t, c.Stranded())
	expect.EQ(t, c.Columns(), []string{"Chromosome", "Start", "End", "Name", "Score"})

	c, err = bed.Read(strings.NewReader("# nothing\n"), bed.Opts{})
	require.NoError(t, err)
	expect.True(t, c.IsEmpty())
}

func TestReadErrors(t *testing.T) {
	for _, in := range []string{
		"chr1\t1\n",
		"chr1\tx\t5\n",
		"chr1\t5\t1\n",
		"chr1\t1\t5\tname\nchr1\t1\t5\n",
		"chr1\t1\t5\ta\t0\t*\n",
	} {
		_, err := bed.Read(strings.NewReader(in), bed.Opts{})
		assert.Error(t, err, in)
	}
	_, err := bed.Read(strings.NewReader("chr1\t1\t5\ta\t0\t+\nchr1\t1\t5\ta\t0\t.\n"), bed.Opts{})
	assert.True(t, errors.Is(err, ranges.ErrSchema), "got %v", err)

	// Forcing 32-bit coordinates on a 64-bit end keeps the cause.
	_, err = bed.Read(strings.NewReader("chr1\t1\t5000000000\n"), bed.Opts{Width: ranges.Narrow})
	assert.True(t, errors.Is(err, ranges.ErrSchema), "got %v", err)
	assert.Contains(t, err.Error(), "does not fit in 32 bits")

	// A one-based start of 0 becomes -1.
	_, err = bed.Read(strings.NewReader("chr1\t0\t5\n"), bed.Opts{OneBasedInput: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative start coordinate -1 on line 1")
}

func TestReadSAMHeader(t *testing.T) {
	chr1, err := sam.NewReference("chr1", "", "", 100, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1})
	require.NoError(t, err)
	opts := bed.Opts{SAMHeader: header}

	_, err = bed.Read(strings.NewReader("chr1\t1\t100\n"), opts)
	assert.NoError(t, err)
	_, err = bed.Read(strings.NewReader("chr1\t1\t101\n"), opts)
	assert.Error(t, err)
	_, err = bed.Read(strings.NewReader("chr2\t1\t5\n"), opts)
	assert.Error(t, err)
}

func TestWriteRoundTrip(t *testing.T) {
	c, err := bed.Read(strings.NewReader(stranded), bed.Opts{})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, bed.Write(&buf, c))
	expect.EQ(t, buf.String(), "chr1\t10\t20\ta\t5\t+\n"+
		"chr1\t30\t40\tc\t7.5\t-\n"+
		"chr2\t0\t5\tb\t0\t-\n"+
		"chr10\t1\t2\td\t0\t+\n")

	got, err := bed.Read(&buf, bed.Opts{})
	require.NoError(t, err)
	expect.EQ(t, ranges.Checksum(got), ranges.Checksum(c))
}

func TestWriteFillsPlaceholders(t *testing.T) {
	c, err := ranges.FromArrays(ranges.Arrays{
		Chromosome: "chrX",
		Starts:     []int64{3},
		Ends:       []int64{4},
		Strand:     "-",
	}, ranges.WidthAuto)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, bed.Write(&buf, c))
	expect.EQ(t, buf.String(), "chrX\t3\t4\t.\t0\t-\n")
}

func TestPathRoundTrip(t *testing.T) {
	ctx := context.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	c, err := bed.Read(strings.NewReader(stranded), bed.Opts{})
	require.NoError(t, err)
	for _, name := range []string{"out.bed", "out.bed.gz"} {
		path := filepath.Join(tempDir, name)
		require.NoError(t, bed.WritePath(ctx, path, c))
		got, err := bed.ReadPath(ctx, path, bed.Opts{})
		require.NoError(t, err)
		expect.EQ(t, ranges.Checksum(got), ranges.Checksum(c), name)
	}
}
