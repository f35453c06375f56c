// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ranges

import (
	"sort"

	"github.com/pkg/errors"
)

// Pair is one unit of pairwise dispatch.  Left is looked up in the self
// collection and Right in the other.  HasLeft and HasRight report whether
// the respective collection holds the key.  For Unstranded plans both keys
// are chromosome-only, and each side stands for all of that chromosome's
// partitions.
type Pair struct {
	Left, Right       Key
	HasLeft, HasRight bool
}

// PairingPlan lists the pairs to dispatch for two collections, in natural
// order of the left key.
type PairingPlan struct {
	Strandedness Strandedness
	Pairs        []Pair
}

// Resolve computes how the partitions of a and b pair up under s.  Same and
// Opposite require both collections to be stranded.  One-sided pairs are
// included; the dispatcher decides whether to run them (see Options.Sparse).
func Resolve(a, b *Collection, s Strandedness) (PairingPlan, error) {
	if err := s.validate(); err != nil {
		return PairingPlan{}, err
	}
	plan := PairingPlan{Strandedness: s}
	if s != Unstranded && (!a.Stranded() || !b.Stranded()) {
		return plan, errors.Wrapf(ErrStrandRequired, "strandedness %q requires stranded collections", string(s))
	}
	switch s {
	case Unstranded:
		chroms := map[string]bool{}
		for k := range a.parts {
			chroms[k.Chromosome] = true
		}
		for k := range b.parts {
			chroms[k.Chromosome] = true
		}
		for chrom := range chroms {
			k := Key{Chromosome: chrom}
			plan.Pairs = append(plan.Pairs, Pair{
				Left:     k,
				Right:    k,
				HasLeft:  len(a.chromosomeKeys(chrom)) > 0,
				HasRight: len(b.chromosomeKeys(chrom)) > 0,
			})
		}
	case Same:
		for k := range a.parts {
			plan.Pairs = append(plan.Pairs, Pair{Left: k, Right: k, HasLeft: true, HasRight: b.Has(k)})
		}
		for k := range b.parts {
			if !a.Has(k) {
				plan.Pairs = append(plan.Pairs, Pair{Left: k, Right: k, HasRight: true})
			}
		}
	case Opposite:
		for k := range a.parts {
			plan.Pairs = append(plan.Pairs, Pair{Left: k, Right: k.Flip(), HasLeft: true, HasRight: b.Has(k.Flip())})
		}
		for k := range b.parts {
			if !a.Has(k.Flip()) {
				plan.Pairs = append(plan.Pairs, Pair{Left: k.Flip(), Right: k, HasRight: true})
			}
		}
	}
	sort.Slice(plan.Pairs, func(i, j int) bool { return plan.Pairs[i].Left.Less(plan.Pairs[j].Left) })
	return plan, nil
}
