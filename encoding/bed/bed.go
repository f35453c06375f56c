// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package bed reads and writes interval collections in BED format.  Only the
// first six BED columns (chrom, start, end, name, score, strand) are
// interpreted.
package bed

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"math"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/granges/ranges"
	"github.com/grailbio/granges/table"
	"github.com/grailbio/hts/sam"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Column names for the optional BED fields.
const (
	NameCol  = "Name"
	ScoreCol = "Score"
)

const maxFields = 6

// Opts defines the behavior of Read and ReadPath.
type Opts struct {
	// SAMHeader, if set, restricts chromosomes to the header's references and
	// checks interval ends against the reference lengths.
	SAMHeader *sam.Header
	// OneBasedInput interprets the BED interval boundaries as one-based [start,
	// end] instead of the usual zero-based [start, end).
	OneBasedInput bool
	// Width is the Start/End width of the returned collection.  WidthAuto
	// picks 32-bit coordinates unless some coordinate does not fit.
	Width ranges.Width
}

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Tabs separate tokens; runs of other
// whitespace are also treated as a single delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

func isHeaderLine(line []byte) bool {
	return len(line) == 0 || line[0] == '#' ||
		bytes.HasPrefix(line, []byte("track")) || bytes.HasPrefix(line, []byte("browser"))
}

// columns accumulates parsed BED fields.
type columns struct {
	nField  int
	chroms  *table.CategoricalBuilder
	starts  []int64
	ends    []int64
	names   table.StringColumn
	scores  table.Float64Column
	strands []string
	wide    bool
}

func (c *columns) table(w ranges.Width) (*table.Table, error) {
	if w == ranges.WidthAuto {
		w = ranges.Narrow
		if c.wide {
			w = ranges.Wide
		}
	}
	var startCol, endCol table.Column = table.Int64Column(c.starts), table.Int64Column(c.ends)
	if w == ranges.Narrow {
		var err error
		if startCol, err = table.ToInt32(startCol); err != nil {
			return nil, errors.Wrapf(ranges.ErrSchema, "bed: Start: %v", err)
		}
		if endCol, err = table.ToInt32(endCol); err != nil {
			return nil, errors.Wrapf(ranges.ErrSchema, "bed: End: %v", err)
		}
	}
	names := []string{ranges.ChromosomeCol, ranges.StartCol, ranges.EndCol}
	cols := []table.Column{c.chroms.Finish(), startCol, endCol}
	if c.nField >= 4 {
		names = append(names, NameCol)
		cols = append(cols, c.names)
	}
	if c.nField >= 5 {
		names = append(names, ScoreCol)
		cols = append(cols, c.scores)
	}
	if c.nField >= 6 {
		// A strand column of dots only carries no strand information.
		nDot := 0
		for _, s := range c.strands {
			if s == "." {
				nDot++
			}
		}
		switch nDot {
		case len(c.strands):
		case 0:
			names = append(names, ranges.StrandCol)
			cols = append(cols, table.NewCategorical(c.strands))
		default:
			return nil, errors.Wrapf(ranges.ErrSchema, "bed: %d of %d intervals have no strand", nDot, len(c.strands))
		}
	}
	return table.New(names, cols)
}

// Read parses a BED stream into a collection.  Blank lines, comments, and
// track and browser lines are skipped.  The number of fields is taken from
// the first interval; every later interval must have at least as many.
func Read(r io.Reader, opts Opts) (*ranges.Collection, error) {
	var refLens map[string]int
	if opts.SAMHeader != nil {
		refLens = map[string]int{}
		for _, ref := range opts.SAMHeader.Refs() {
			refLens[ref.Name()] = ref.Len()
		}
	}
	var startSubtract int64
	if opts.OneBasedInput {
		startSubtract++
	}
	var tokens [maxFields][]byte
	cols := columns{chroms: table.NewCategoricalBuilder(1024)}
	scanner := bufio.NewScanner(r)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		if isHeaderLine(curLine) {
			continue
		}
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 {
			continue
		}
		if cols.nField == 0 {
			if nToken < 3 {
				return nil, errors.Errorf("bed.Read: line %d has fewer than 3 fields", lineIdx)
			}
			cols.nField = nToken
		} else if nToken < cols.nField {
			return nil, errors.Errorf("bed.Read: line %d has %d fields, want %d", lineIdx, nToken, cols.nField)
		}
		chrom := gunsafe.BytesToString(tokens[0])
		if refLens != nil {
			if _, ok := refLens[chrom]; !ok {
				return nil, errors.Errorf("bed.Read: line %d: chromosome %s not in SAM header", lineIdx, chrom)
			}
		}
		start, err := strconv.ParseInt(gunsafe.BytesToString(tokens[1]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bed.Read: line %d", lineIdx)
		}
		start -= startSubtract
		if start < 0 {
			return nil, errors.Errorf("bed.Read: negative start coordinate %d on line %d", start, lineIdx)
		}
		end, err := strconv.ParseInt(gunsafe.BytesToString(tokens[2]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bed.Read: line %d", lineIdx)
		}
		if end < start {
			return nil, errors.Errorf("bed.Read: invalid coordinate pair on line %d", lineIdx)
		}
		if refLens != nil && end > int64(refLens[chrom]) {
			return nil, errors.Errorf("bed.Read: line %d: end %d past the end of %s", lineIdx, end, chrom)
		}
		if end > math.MaxInt32 {
			cols.wide = true
		}
		// chrom aliases the scanner buffer.
		cols.chroms.Append(string(tokens[0]))
		cols.starts = append(cols.starts, start)
		cols.ends = append(cols.ends, end)
		if cols.nField >= 4 {
			cols.names = append(cols.names, string(tokens[3]))
		}
		if cols.nField >= 5 {
			score := 0.0
			if s := gunsafe.BytesToString(tokens[4]); s != "." {
				if score, err = strconv.ParseFloat(s, 64); err != nil {
					return nil, errors.Wrapf(err, "bed.Read: line %d", lineIdx)
				}
			}
			cols.scores = append(cols.scores, score)
		}
		if cols.nField >= 6 {
			s := string(tokens[5])
			if s != ranges.Plus && s != ranges.Minus && s != "." {
				return nil, errors.Wrapf(ranges.ErrSchema, "bed.Read: line %d: invalid strand %q", lineIdx, s)
			}
			cols.strands = append(cols.strands, s)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if cols.nField == 0 {
		return ranges.Empty(), nil
	}
	t, err := cols.table(opts.Width)
	if err != nil {
		return nil, err
	}
	c, err := ranges.FromTable(t, opts.Width)
	if err != nil {
		return nil, err
	}
	if log.At(log.Debug) {
		log.Debug.Printf("bed.Read: loaded %d intervals in %d partitions", c.Len(), c.NumPartitions())
	}
	return c, nil
}

// ReadPath is a wrapper for Read that takes a path instead of an io.Reader.
// Gzipped files are decompressed.
func ReadPath(ctx context.Context, path string, opts Opts) (c *ranges.Collection, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	return Read(reader, opts)
}

// Write writes c in BED format, in natural key order.  Name and Score are
// written when present, with "." and 0 as placeholders when a later field
// is needed.  The strand is written for stranded collections.  Other columns
// are not written.
func Write(w io.Writer, c *ranges.Collection) error {
	tsvw := tsv.NewWriter(w)
	for _, it := range c.Items() {
		t := it.Table
		var (
			chroms = t.Col(ranges.ChromosomeCol)
			starts = t.Col(ranges.StartCol)
			ends   = t.Col(ranges.EndCol)
			names  = t.Col(NameCol)
			scores = t.Col(ScoreCol)
			strand = t.Col(ranges.StrandCol)
		)
		for i := 0; i < t.NumRows(); i++ {
			tsvw.WriteString(table.StringAt(chroms, i))
			tsvw.WriteString(strconv.FormatInt(table.Int64At(starts, i), 10))
			tsvw.WriteString(strconv.FormatInt(table.Int64At(ends, i), 10))
			if names != nil || scores != nil || strand != nil {
				if names != nil {
					tsvw.WriteString(names.Format(i))
				} else {
					tsvw.WriteString(".")
				}
			}
			if scores != nil || strand != nil {
				if scores != nil {
					tsvw.WriteString(scores.Format(i))
				} else {
					tsvw.WriteString("0")
				}
			}
			if strand != nil {
				tsvw.WriteString(table.StringAt(strand, i))
			}
			if err := tsvw.EndLine(); err != nil {
				return err
			}
		}
	}
	return tsvw.Flush()
}

// WritePath is a wrapper for Write that creates path.  Paths ending in .gz
// are gzipped.
func WritePath(ctx context.Context, path string, c *ranges.Collection) (err error) {
	var out file.File
	if out, err = file.Create(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := out.Writer(ctx)
	if fileio.DetermineType(path) != fileio.Gzip {
		return Write(w, c)
	}
	gz := gzip.NewWriter(w)
	if err = Write(gz, c); err != nil {
		return
	}
	return gz.Close()
}
