// Copyright 2025 MPI-QSort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cluster runs a whole hypercube sort inside one process and provides
// the datasets and checks used around it.
//
// Run is the usual entry point for tests and the CLI:
//
//	final, err := cluster.Run(ctx, shards, nil)
//
// Each rank runs on its own goroutine. Ranks block on each other while
// exchanging data, so they are never scheduled on a bounded pool.
package cluster

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/shamirwa/MPI-QSort/hyperqsort"
	"github.com/shamirwa/MPI-QSort/hyperqsort/comm"
)

// Options configures Run and RunComms.
type Options struct {
	hyperqsort.Options

	// MailboxDepth is passed to comm.NewWorld by Run. Negative selects
	// comm.DefaultMailboxDepth.
	MailboxDepth int
}

// Run sorts shards across len(shards) in-process ranks and returns the final
// shard of every rank, indexed by rank. The first failing rank cancels the
// others; its error is returned.
func Run(ctx context.Context, shards [][]int64, opts *Options) ([][]int64, error) {
	depth := comm.DefaultMailboxDepth
	if opts != nil {
		depth = opts.MailboxDepth
	}
	world, err := comm.NewWorld(len(shards), depth)
	if err != nil {
		return nil, err
	}
	defer world.Close()
	return RunComms(ctx, world.Comms(), shards, opts)
}

// RunComms is Run over caller-provided communicators, one per rank. comms[i]
// must have rank i.
func RunComms(ctx context.Context, comms []comm.Comm, shards [][]int64, opts *Options) ([][]int64, error) {
	if len(comms) != len(shards) {
		return nil, fmt.Errorf("cluster: %d communicators for %d shards", len(comms), len(shards))
	}
	for i, c := range comms {
		if c.Rank() != i || c.Size() != len(comms) {
			return nil, fmt.Errorf("cluster: communicator %d reports rank %d of %d", i, c.Rank(), c.Size())
		}
	}

	var base hyperqsort.Options
	if opts != nil {
		base = opts.Options
	}
	logger := base.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	globalLen := lo.SumBy(shards, func(s []int64) int { return len(s) })

	final := make([][]int64, len(shards))
	g, gctx := errgroup.WithContext(ctx)
	for rank := range shards {
		rankOpts := base
		rankOpts.Logger = logger.With("rank", rank)
		g.Go(func() error {
			out, err := hyperqsort.Sort(gctx, comms[rank], shards[rank], globalLen, &rankOpts)
			if err != nil {
				return err
			}
			final[rank] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return final, nil
}
