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

// Package config holds the settings of the hyperqsort command. Values come
// from defaults, then an optional TOML file, then command-line flags.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/shamirwa/MPI-QSort/hyperqsort"
	"github.com/shamirwa/MPI-QSort/hyperqsort/cluster"
)

// Transports accepted by Config.Transport.
const (
	TransportLocal     = "local"
	TransportWebsocket = "websocket"
)

// Config is the full command configuration.
type Config struct {
	Ranks        int    `toml:"ranks"`
	Elements     int    `toml:"elements"`
	Seed         int64  `toml:"seed"`
	Distribution string `toml:"distribution"`

	// Transport is used by the run command; the node command always uses
	// websockets.
	Transport string `toml:"transport"`

	// Peers lists the host:port of every rank, indexed by rank.
	Peers []string `toml:"peers"`
	Rank  int      `toml:"rank"`

	Split        string   `toml:"split"`
	Diagnostics  bool     `toml:"diagnostics"`
	LogLevel     string   `toml:"log_level"`
	Timeout      Duration `toml:"timeout"`
	MailboxDepth int      `toml:"mailbox_depth"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Ranks:        4,
		Elements:     1 << 16,
		Seed:         1,
		Distribution: cluster.Uniform.String(),
		Transport:    TransportLocal,
		Split:        hyperqsort.SplitAnyMatch.String(),
		LogLevel:     "info",
		Timeout:      Duration(time.Minute),
		MailboxDepth: -1,
	}
}

// Load decodes the TOML file at path into cfg. Keys missing from the file
// leave cfg untouched; unknown keys are an error.
func Load(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := toml.NewDecoder(bufio.NewReader(f)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("config %s: %s", path, strict.String())
		}
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := hyperqsort.NewTopology(0, c.Ranks); err != nil {
		return fmt.Errorf("ranks: %w", err)
	}
	if c.Elements < 0 {
		return fmt.Errorf("elements: %d is negative", c.Elements)
	}
	if _, err := cluster.ParseDistribution(c.Distribution); err != nil {
		return err
	}
	if _, err := hyperqsort.ParseSplitPolicy(c.Split); err != nil {
		return err
	}
	switch c.Transport {
	case TransportLocal, TransportWebsocket:
	default:
		return fmt.Errorf("transport: unknown transport %q", c.Transport)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout: %v is negative", c.Timeout)
	}
	if len(c.Peers) > 0 {
		if len(c.Peers) != c.Ranks {
			return fmt.Errorf("peers: %d addresses for %d ranks", len(c.Peers), c.Ranks)
		}
		if c.Rank < 0 || c.Rank >= len(c.Peers) {
			return fmt.Errorf("rank: %d is not in [0, %d)", c.Rank, len(c.Peers))
		}
		seen := make(map[string]int, len(c.Peers))
		for i, p := range c.Peers {
			if p == "" {
				return fmt.Errorf("peers: address of rank %d is empty", i)
			}
			if j, dup := seen[p]; dup {
				return fmt.Errorf("peers: ranks %d and %d share address %s", j, i, p)
			}
			seen[p] = i
		}
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// GenSpec returns the dataset described by c.
func (c *Config) GenSpec() (cluster.GenSpec, error) {
	d, err := cluster.ParseDistribution(c.Distribution)
	if err != nil {
		return cluster.GenSpec{}, err
	}
	return cluster.GenSpec{Ranks: c.Ranks, Elements: c.Elements, Seed: c.Seed, Distribution: d}, nil
}

// SortOptions returns the sort options described by c, logging to logger.
func (c *Config) SortOptions(logger *slog.Logger) (*cluster.Options, error) {
	split, err := hyperqsort.ParseSplitPolicy(c.Split)
	if err != nil {
		return nil, err
	}
	return &cluster.Options{
		Options: hyperqsort.Options{
			Logger:      logger,
			Diagnostics: c.Diagnostics,
			Split:       split,
		},
		MailboxDepth: c.MailboxDepth,
	}, nil
}

// Duration is a time.Duration written as text, such as "90s", in TOML and
// on the command line.
type Duration time.Duration

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Set implements pflag.Value.
func (d *Duration) Set(s string) error {
	return d.UnmarshalText([]byte(s))
}

// Type implements pflag.Value.
func (d *Duration) Type() string {
	return "duration"
}
