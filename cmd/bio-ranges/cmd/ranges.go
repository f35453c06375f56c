// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/granges/encoding/bed"
	"github.com/grailbio/granges/parallel"
	"github.com/grailbio/granges/ranges"
	"github.com/pkg/errors"
)

func readOpts(oneBased bool) bed.Opts {
	return bed.Opts{OneBasedInput: oneBased}
}

// stats writes one line per partition: key, number of intervals, and number
// of bases covered (with multiplicity).  A final line totals the file.
func stats(ctx context.Context, out io.Writer, path string, opts bed.Opts) error {
	c, err := bed.ReadPath(ctx, path, opts)
	if err != nil {
		return err
	}
	w := tsv.NewWriter(out)
	w.WriteString("#KEY")
	w.WriteString("INTERVALS")
	w.WriteString("BASES")
	if err = w.EndLine(); err != nil {
		return err
	}
	lengths := c.Lengths()
	var nTotal, basesTotal int64
	for _, k := range c.Keys() {
		var bases int64
		for _, l := range lengths[k] {
			bases += l
		}
		n := int64(len(lengths[k]))
		nTotal += n
		basesTotal += bases
		w.WriteString(k.String())
		w.WriteString(strconv.FormatInt(n, 10))
		w.WriteString(strconv.FormatInt(bases, 10))
		if err = w.EndLine(); err != nil {
			return err
		}
	}
	w.WriteString("total")
	w.WriteString(strconv.FormatInt(nTotal, 10))
	w.WriteString(strconv.FormatInt(basesTotal, 10))
	if err = w.EndLine(); err != nil {
		return err
	}
	return w.Flush()
}

// subset writes the intervals of srcPath addressed by region to destPath, or
// to out if destPath is empty.
func subset(ctx context.Context, out io.Writer, srcPath, destPath, region string, opts bed.Opts) error {
	if region == "" {
		return errors.New("subset: -region must be set")
	}
	expr, err := ranges.ParseIndex(region)
	if err != nil {
		return err
	}
	c, err := bed.ReadPath(ctx, srcPath, opts)
	if err != nil {
		return err
	}
	r, err := c.Index(expr)
	if err != nil {
		return errors.Wrapf(err, "subset %s", region)
	}
	log.Printf("subset %s: kept %d of %d intervals", region, r.Len(), c.Len())
	if destPath == "" {
		return bed.Write(out, r)
	}
	return bed.WritePath(ctx, destPath, r)
}

func unstrand(ctx context.Context, srcPath, destPath string) error {
	c, err := bed.ReadPath(ctx, srcPath, bed.Opts{})
	if err != nil {
		return err
	}
	if c, err = c.Unstrand(); err != nil {
		return err
	}
	return bed.WritePath(ctx, destPath, c)
}

// checksum prints "path<TAB>checksum" for every path.  Files are read in
// parallel.
func checksum(ctx context.Context, out io.Writer, paths []string) error {
	sums := make([]uint64, len(paths))
	err := parallel.Traverse{}.Each(ctx, len(paths), func(ctx context.Context, i int) error {
		c, err := bed.ReadPath(ctx, paths[i], bed.Opts{})
		if err != nil {
			return errors.Wrapf(err, "checksum %s", paths[i])
		}
		sums[i] = ranges.Checksum(c)
		return nil
	})
	if err != nil {
		return err
	}
	for i, path := range paths {
		if _, err := fmt.Fprintf(out, "%s\t%016x\n", path, sums[i]); err != nil {
			return err
		}
	}
	return nil
}
