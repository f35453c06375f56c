// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
Package ranges implements a collection of genomic intervals sharded by
chromosome, or by (chromosome, strand).

A Collection is built from parallel arrays, from a table, or from a map of
already-partitioned tables.  Build normalizes every partition: Chromosome
and Strand become categorical, and Start and End get a single integer width.
A stranded collection whose tables were keyed by chromosome only is
re-partitioned by strand.

Collections are indexed with the closed IndexExpr union (ByChromosome,
ByStrand, ByChromosomeRange, ByColumns, ByMask, ...).  ParseIndex turns a
samtools-style region string into an IndexExpr.

Per-partition work is dispatched through ApplySingle and ApplyPair.  Both
take a parallel.Executor.  For pairwise operations Resolve decides, from
the requested Strandedness, which partition of the other collection pairs
with each partition of self.  Engine bundles an Executor with a set of
operators and exposes the usual interval algebra (Overlap, Join, Merge,
Cluster, Nearest, ...) on top of the two dispatchers.

All errors wrap one of the sentinels in errors.go.
*/
package ranges
