// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseIndex parses a region string of one of the forms
//   +  or  -                          all partitions of a strand
//   [chrom]                           all partitions of a chromosome
//   [chrom]:[strand]                  one stranded partition
//   [chrom]:[1-based pos]             rows covering one position
//   [chrom]:[1-based first]-[last]    rows intersecting a closed range
//   [chrom]:[strand]:[first]-[last]   both of the above
// Positions follow samtools conventions: 1-based and inclusive.  The
// returned expression uses 0-based half-open coordinates.
func ParseIndex(region string) (IndexExpr, error) {
	if len(region) == 0 {
		return nil, errors.Wrap(ErrInvalidIndex, "ranges.ParseIndex: empty region string")
	}
	if region == Plus || region == Minus {
		return ByStrand(region), nil
	}
	fields := strings.Split(region, ":")
	chrom := fields[0]
	if chrom == "" {
		return nil, errors.Wrapf(ErrInvalidIndex, "ranges.ParseIndex: empty chromosome in %q", region)
	}
	switch len(fields) {
	case 1:
		return ByChromosome(chrom), nil
	case 2:
		if fields[1] == Plus || fields[1] == Minus {
			return ByChromosomeStrand{chrom, fields[1]}, nil
		}
		start, end, err := parsePositions(fields[1])
		if err != nil {
			return nil, errors.WithMessagef(err, "ranges.ParseIndex %q", region)
		}
		return ByChromosomeRange{chrom, start, end}, nil
	case 3:
		if fields[1] != Plus && fields[1] != Minus {
			return nil, errors.Wrapf(ErrInvalidIndex, "ranges.ParseIndex: invalid strand in %q", region)
		}
		start, end, err := parsePositions(fields[2])
		if err != nil {
			return nil, errors.WithMessagef(err, "ranges.ParseIndex %q", region)
		}
		return ByChromosomeStrandRange{chrom, fields[1], start, end}, nil
	}
	return nil, errors.Wrapf(ErrInvalidIndex, "ranges.ParseIndex: too many fields in %q", region)
}

// parsePositions converts "first-last" or "pos" (1-based, inclusive) into a
// 0-based half-open interval.
func parsePositions(s string) (start, end int64, err error) {
	dashPos := strings.IndexByte(s, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(s, 10, 64); err != nil {
			return 0, 0, errors.Wrapf(ErrInvalidIndex, "position %q: %v", s, err)
		}
		if pos1 <= 0 {
			return 0, 0, errors.Wrapf(ErrInvalidIndex, "position %v out of range", s)
		}
		return pos1 - 1, pos1, nil
	}
	var start1 int64
	if start1, err = strconv.ParseInt(s[:dashPos], 10, 64); err != nil {
		return 0, 0, errors.Wrapf(ErrInvalidIndex, "range start %q: %v", s[:dashPos], err)
	}
	if start1 <= 0 {
		return 0, 0, errors.Wrapf(ErrInvalidIndex, "position %v out of range", s[:dashPos])
	}
	if end, err = strconv.ParseInt(s[dashPos+1:], 10, 64); err != nil {
		return 0, 0, errors.Wrapf(ErrInvalidIndex, "range end %q: %v", s[dashPos+1:], err)
	}
	if end < start1 {
		return 0, 0, errors.Wrapf(ErrInvalidIndex, "invalid range string %v", s)
	}
	return start1 - 1, end, nil
}
