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

package config

import (
	"fmt"
	"slices"

	"github.com/spf13/pflag"
)

// BindFlags registers one flag per setting on fs, writing into cfg. The
// current values of cfg are the flag defaults.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.IntVarP(&cfg.Ranks, "ranks", "p", cfg.Ranks, "number of ranks, a power of two")
	fs.IntVarP(&cfg.Elements, "elements", "n", cfg.Elements, "total number of generated elements")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "dataset seed")
	fs.StringVar(&cfg.Distribution, "distribution", cfg.Distribution, "dataset shape: uniform, duplicates, sorted, reverse or skewed")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport between ranks: local or websocket")
	fs.StringSliceVar(&cfg.Peers, "peers", cfg.Peers, "host:port of every rank, in rank order")
	fs.IntVar(&cfg.Rank, "rank", cfg.Rank, "rank of this process")
	fs.StringVar(&cfg.Split, "split", cfg.Split, "split policy on pivot matches: any or upper")
	fs.BoolVar(&cfg.Diagnostics, "diagnostics", cfg.Diagnostics, "log transfer failures before exiting")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.Var(&cfg.Timeout, "timeout", "give up after this long (0 disables)")
	fs.IntVar(&cfg.MailboxDepth, "mailbox-depth", cfg.MailboxDepth, "in-process mailbox depth per rank pair, negative for the default")
}

// ApplyFile loads the TOML file at path into cfg, which must be bound to fs
// with BindFlags, then restores every flag set explicitly on the command
// line so flags override the file.
func ApplyFile(path string, cfg *Config, fs *pflag.FlagSet) error {
	type saved struct {
		flag  *pflag.Flag
		value string
		list  []string
	}
	var explicit []saved
	fs.Visit(func(f *pflag.Flag) {
		s := saved{flag: f, value: f.Value.String()}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			s.list = slices.Clone(sv.GetSlice())
		}
		explicit = append(explicit, s)
	})

	if err := Load(path, cfg); err != nil {
		return err
	}

	for _, s := range explicit {
		var err error
		if sv, ok := s.flag.Value.(pflag.SliceValue); ok {
			err = sv.Replace(s.list)
		} else {
			err = s.flag.Value.Set(s.value)
		}
		if err != nil {
			return fmt.Errorf("restoring --%s: %w", s.flag.Name, err)
		}
	}
	return nil
}
