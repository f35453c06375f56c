// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package parallel provides the execution substrates used to run independent
// per-partition tasks.  Every Executor must produce the same results as
// Sequential; they differ only in how much work runs at once.
package parallel

import (
	"context"
	"runtime"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
	"golang.org/x/sync/errgroup"
)

// Executor runs n independent tasks.  fn(ctx, i) is invoked at most once for
// each i in [0, n).  Tasks must not share mutable state; a task reports its
// result by writing to a slot owned by index i.
//
// Each returns the first error reported by a task (or by ctx).  After a
// failure, tasks that have not started yet are skipped, and the context
// passed to running tasks may be cancelled.  Callers must discard all
// results when Each fails.
type Executor interface {
	Each(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error
}

// Sequential runs the tasks one after another on the calling goroutine.
type Sequential struct{}

// Each implements Executor.
func (Sequential) Each(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, i); err != nil {
			return err
		}
	}
	return nil
}

// Traverse runs the tasks on a grailbio/base/traverse worker pool.
type Traverse struct {
	// Limit is the maximum number of tasks run concurrently.  Values <= 0 mean
	// runtime.NumCPU().
	Limit int
}

// Each implements Executor.
func (t Traverse) Each(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	limit := t.Limit
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var once errors.Once
	_ = traverse.Limit(limit).Each(n, func(i int) error {
		if once.Err() != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			once.Set(err)
			return nil
		}
		if err := fn(ctx, i); err != nil {
			once.Set(err)
			cancel()
		}
		return nil
	})
	return once.Err()
}

// Group runs the tasks on goroutines managed by an errgroup.  The first
// failure cancels the context seen by all other tasks.
type Group struct {
	// Limit is the maximum number of tasks run concurrently.  Values <= 0 mean
	// no limit.
	Limit int
}

// Each implements Executor.
func (g Group) Each(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	eg, egCtx := errgroup.WithContext(ctx)
	if g.Limit > 0 {
		eg.SetLimit(g.Limit)
	}
	for i := 0; i < n; i++ {
		if egCtx.Err() != nil {
			break
		}
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			return fn(egCtx, i)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
