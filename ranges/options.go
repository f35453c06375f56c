// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges

import (
	"github.com/pkg/errors"
)

// Strandedness selects how partitions of two collections are paired.
type Strandedness string

const (
	// Unstranded pairs partitions by chromosome alone.
	Unstranded Strandedness = ""
	// Same pairs (chrom, s) with (chrom, s).
	Same Strandedness = "same"
	// Opposite pairs (chrom, +) with (chrom, -) and vice versa.
	Opposite Strandedness = "opposite"
)

// ParseStrandedness converts a user-supplied value.  "", "none" and
// "unstranded" all mean Unstranded.
func ParseStrandedness(s string) (Strandedness, error) {
	switch s {
	case "", "none", "unstranded":
		return Unstranded, nil
	case string(Same):
		return Same, nil
	case string(Opposite):
		return Opposite, nil
	}
	return Unstranded, errors.Wrapf(ErrInvalidOption, "strandedness %q", s)
}

func (s Strandedness) validate() error {
	switch s {
	case Unstranded, Same, Opposite:
		return nil
	}
	return errors.Wrapf(ErrInvalidOption, "strandedness %q", string(s))
}

// Sparse controls, per side of a pairwise operation, whether a partition
// that exists only on the other side is still dispatched with an empty table
// standing in for the missing one.
type Sparse struct {
	Self  bool
	Other bool
}

// Options is the per-call argument bundle handed to the dispatch engine and,
// unchanged, to operators.  Build it with DefaultOptions and override
// fields; the zero value is not the default.
type Options struct {
	// Strandedness selects partition pairing for pairwise operations.
	Strandedness Strandedness
	// Overlap, when false, asks pairwise operators to drop matching pairs.
	// Default true.
	Overlap bool
	// How is an operator-specific discriminator, e.g. "first", "upstream",
	// "downstream".
	How string
	// Invert asks operators to invert their selection.
	Invert bool
	// Suffixes disambiguate same-named columns from the two sides of a
	// pairwise operation.  Default {"_a", "_b"}.
	Suffixes [2]string
	// Suffix is appended to columns taken from the other side.  Default "_b".
	Suffix string
	// Sparse controls dispatch of one-sided partitions.  Default both false.
	Sparse Sparse

	// Col names the column that a single-collection operator's column result
	// is stored under.
	Col string
	// Subset makes ApplySingle use mask results to filter rows.
	Subset bool
	// Renormalize makes ApplySingle re-run Normalize with Width on each
	// output.  Set it for operators that change the Start/End width.
	Renormalize bool
	// Width is the target width used when Renormalize is set.
	Width Width

	// Slack is the number of bases to extend intervals by (slack, tss, tes).
	Slack int64
	// RPM asks Coverage to scale values to reads per million intervals.
	RPM bool
	// NewPos is an operator-specific choice of output coordinates for join
	// style operators.
	NewPos string

	// Extra carries operator-specific values the engine does not interpret.
	Extra map[string]interface{}
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Overlap:  true,
		Suffixes: [2]string{"_a", "_b"},
		Suffix:   "_b",
	}
}

// Get returns an operator-specific value from Extra.
func (o Options) Get(key string) (interface{}, bool) {
	v, ok := o.Extra[key]
	return v, ok
}

// With returns a copy of o with Extra[key] = value.  The receiver's Extra map
// is not modified.
func (o Options) With(key string, value interface{}) Options {
	extra := make(map[string]interface{}, len(o.Extra)+1)
	for k, v := range o.Extra {
		extra[k] = v
	}
	extra[key] = value
	o.Extra = extra
	return o
}
