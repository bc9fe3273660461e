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

package hyperqsort

import (
	"fmt"
	"log/slog"

	"github.com/shamirwa/MPI-QSort/hyperqsort/contrib/localsort"
)

// LocalSorter sorts one shard in place, ascending.
type LocalSorter func([]int64)

// SplitPolicy decides where values equal to the pivot go.
type SplitPolicy uint8

const (
	// SplitAnyMatch binary-searches for the pivot and splits just past
	// whichever equal element the search lands on. With duplicates, equal
	// values may end up on both sides.
	SplitAnyMatch SplitPolicy = iota

	// SplitUpperBound splits past the last element equal to the pivot, so
	// every equal value stays below. Partition sizes are reproducible.
	SplitUpperBound
)

func (p SplitPolicy) String() string {
	switch p {
	case SplitAnyMatch:
		return "any"
	case SplitUpperBound:
		return "upper"
	}
	return fmt.Sprintf("SplitPolicy(%d)", uint8(p))
}

// ParseSplitPolicy parses "any" or "upper".
func ParseSplitPolicy(s string) (SplitPolicy, error) {
	switch s {
	case "any", "":
		return SplitAnyMatch, nil
	case "upper":
		return SplitUpperBound, nil
	}
	return 0, fmt.Errorf("hyperqsort: unknown split policy %q", s)
}

// Options configures Sort. A nil *Options uses the defaults.
type Options struct {
	// Logger receives per-round debug records. Defaults to discarding.
	Logger *slog.Logger

	// Diagnostics logs transfer failures at error level before Sort returns
	// them.
	Diagnostics bool

	// Sorter sorts the shard at entry. Defaults to localsort.Sort.
	Sorter LocalSorter

	// Split chooses where a shard is cut when it holds the pivot. Every
	// rank must use the same policy. Defaults to SplitAnyMatch.
	Split SplitPolicy
}

func (o *Options) withDefaults() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.Logger == nil {
		out.Logger = slog.New(slog.DiscardHandler)
	}
	if out.Sorter == nil {
		out.Sorter = localsort.Sort[int64]
	}
	return out
}
