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

package main

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/shamirwa/MPI-QSort/hyperqsort/cluster"
	"github.com/shamirwa/MPI-QSort/hyperqsort/comm"
	"github.com/shamirwa/MPI-QSort/hyperqsort/contrib/workerpool"
	"github.com/shamirwa/MPI-QSort/internal/config"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Generate a dataset, sort it across in-process ranks and verify the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd)
		},
	}
}

func (a *app) run(cmd *cobra.Command) error {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}
	spec, err := cfg.GenSpec()
	if err != nil {
		return err
	}
	opts, err := cfg.SortOptions(a.logger)
	if err != nil {
		return err
	}

	pool := workerpool.New(0)
	defer pool.Close()

	shards, err := cluster.Generate(pool, spec)
	if err != nil {
		return err
	}
	// Sort consumes the shards, verification needs the originals.
	initial := make([][]int64, len(shards))
	for i, s := range shards {
		initial[i] = slices.Clone(s)
	}

	ctx, cancel := a.sortContext(cmd)
	defer cancel()

	a.logger.Info("sorting", "ranks", spec.Ranks, "elements", spec.Elements, "distribution", spec.Distribution, "transport", cfg.Transport, "split", cfg.Split)
	start := time.Now()
	var final [][]int64
	switch cfg.Transport {
	case config.TransportWebsocket:
		final, err = runWebsocket(ctx, a, shards, opts)
	default:
		final, err = cluster.Run(ctx, shards, opts)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	verr := cluster.Verify(pool, initial, final)
	printReport(cmd.OutOrStdout(), cluster.Summarize(final), elapsed, verr)
	if verr != nil {
		return fmt.Errorf("verification failed: %w", verr)
	}
	return nil
}

func runWebsocket(ctx context.Context, a *app, shards [][]int64, opts *cluster.Options) ([][]int64, error) {
	ws, err := comm.LoopbackWS(len(shards), &comm.WSOptions{Logger: a.logger})
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, c := range ws {
			if err := c.Close(); err != nil {
				a.logger.Warn("closing websocket rank", "rank", c.Rank(), "err", err)
			}
		}
	}()
	comms := make([]comm.Comm, len(ws))
	for i, c := range ws {
		comms[i] = c
	}
	return cluster.RunComms(ctx, comms, shards, opts)
}
