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

// Command hyperqsort sorts a generated dataset with the hypercube quicksort.
//
// Usage:
//
//	hyperqsort run -p 8 -n 1000000 --distribution duplicates
//	hyperqsort run -p 4 --transport websocket --log-level debug
//	hyperqsort node --rank 0 --peers host0:7000,host1:7000   # one process per rank
//
// Every setting can also come from a TOML file given with --config; flags
// set on the command line take precedence over the file.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shamirwa/MPI-QSort/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand.
type app struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.Default()}
	root := &cobra.Command{
		Use:           "hyperqsort",
		Short:         "Distributed hypercube quicksort over int64 shards",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "TOML file with settings")
	config.BindFlags(root.PersistentFlags(), a.cfg)

	root.AddCommand(newRunCmd(a), newNodeCmd(a))
	return root
}

// setup merges the config file under the flags and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath != "" {
		if err := config.ApplyFile(a.configPath, a.cfg, cmd.Flags()); err != nil {
			return err
		}
	}
	level, err := a.cfg.SlogLevel()
	if err != nil {
		return err
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// sortContext returns the command context bounded by the configured timeout.
func (a *app) sortContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, time.Duration(a.cfg.Timeout))
	}
	return context.WithCancel(ctx)
}
