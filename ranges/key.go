// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges

import (
	"github.com/biogo/store/llrb"
)

// Strand symbols.
const (
	Plus  = "+"
	Minus = "-"
)

// Key identifies one partition of a Collection.  Strand is empty for
// unstranded collections, and Plus or Minus for stranded ones.
type Key struct {
	Chromosome string
	Strand     string
}

// Stranded reports whether the key carries a strand.
func (k Key) Stranded() bool { return k.Strand != "" }

// Unstranded returns the chromosome-only key.
func (k Key) Unstranded() Key { return Key{Chromosome: k.Chromosome} }

// Flip returns the key for the opposite strand.  Unstranded keys are returned
// unchanged.
func (k Key) Flip() Key {
	switch k.Strand {
	case Plus:
		return Key{k.Chromosome, Minus}
	case Minus:
		return Key{k.Chromosome, Plus}
	}
	return k
}

func (k Key) String() string {
	if k.Strand == "" {
		return k.Chromosome
	}
	return k.Chromosome + ":" + k.Strand
}

// Less orders keys naturally: chr2 sorts before chr10, and for the same
// chromosome the unstranded key sorts before "+", which sorts before "-".
func (k Key) Less(o Key) bool { return compareKeys(k, o) < 0 }

func compareKeys(a, b Key) int {
	if c := naturalCompare(a.Chromosome, b.Chromosome); c != 0 {
		return c
	}
	switch {
	case a.Strand < b.Strand:
		return -1
	case a.Strand > b.Strand:
		return 1
	}
	return 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// naturalCompare compares strings treating each maximal run of digits as a
// number.
func naturalCompare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if isDigit(a[i]) && isDigit(b[j]) {
			si, sj := i, j
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			// Strip leading zeros, then longer runs are larger numbers.
			na, nb := a[si:i], b[sj:j]
			for len(na) > 1 && na[0] == '0' {
				na = na[1:]
			}
			for len(nb) > 1 && nb[0] == '0' {
				nb = nb[1:]
			}
			if len(na) != len(nb) {
				if len(na) < len(nb) {
					return -1
				}
				return 1
			}
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			continue
		}
		if a[i] != b[j] {
			if a[i] < b[j] {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	}
	// Equal up to zero padding; fall back to plain comparison so the order is
	// total.
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// keyNode is the llrb payload of a Collection's key index.
type keyNode struct {
	key Key
}

// Compare implements llrb.Comparable.
func (n keyNode) Compare(c llrb.Comparable) int {
	return compareKeys(n.key, c.(keyNode).key)
}

// chromosomeBounds returns the half-open llrb range that covers every key
// of chrom, stranded or not.
func chromosomeBounds(chrom string) (from, to keyNode) {
	// '~' sorts after both strand symbols.
	return keyNode{Key{Chromosome: chrom}}, keyNode{Key{Chromosome: chrom, Strand: "~"}}
}
