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
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/shamirwa/MPI-QSort/hyperqsort"
	"github.com/shamirwa/MPI-QSort/hyperqsort/cluster"
	"github.com/shamirwa/MPI-QSort/hyperqsort/comm"
)

func newNodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "node",
		Short: "Run one rank of a multi-process sort over websockets",
		Long: `Run one rank of a multi-process sort over websockets.

Every process is started with the same --peers list, dataset flags and seed,
and its own --rank. The rank count is the length of the peer list. Each
process rebuilds the same dataset, sorts its shard together with the others
and prints a summary of its final shard.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.node(cmd)
		},
	}
}

func (a *app) node(cmd *cobra.Command) error {
	cfg := a.cfg
	if len(cfg.Peers) == 0 {
		return errors.New("node: --peers is required")
	}
	cfg.Ranks = len(cfg.Peers)
	if err := cfg.Validate(); err != nil {
		return err
	}
	spec, err := cfg.GenSpec()
	if err != nil {
		return err
	}
	opts, err := cfg.SortOptions(a.logger.With("rank", cfg.Rank))
	if err != nil {
		return err
	}

	shards, err := cluster.Generate(nil, spec)
	if err != nil {
		return err
	}
	shard := shards[cfg.Rank]
	globalLen := spec.Elements

	c, err := comm.ListenWS(cfg.Rank, cfg.Peers, &comm.WSOptions{Logger: a.logger})
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			a.logger.Warn("closing websocket", "err", err)
		}
	}()

	ctx, cancel := a.sortContext(cmd)
	defer cancel()

	a.logger.Info("node ready", "rank", cfg.Rank, "ranks", cfg.Ranks, "listen", cfg.Peers[cfg.Rank], "len", len(shard))
	start := time.Now()
	final, err := hyperqsort.Sort(ctx, c, shard, globalLen, &opts.Options)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	summary := cluster.Summarize([][]int64{final})[0]
	summary.Rank = cfg.Rank
	printReport(cmd.OutOrStdout(), []cluster.ShardSummary{summary}, elapsed, nil)
	st := c.Stats()
	a.logger.Info("node done", "rank", cfg.Rank, "messages_sent", st.MessagesSent, "elements_sent", st.ElementsSent, "messages_received", st.MessagesReceived, "elements_received", st.ElementsReceived)
	return nil
}
