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

package cluster

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/samber/lo"
	"modernc.org/sortutil"

	"github.com/shamirwa/MPI-QSort/hyperqsort/contrib/workerpool"
)

var (
	// ErrRankCount means initial and final hold a different number of shards.
	ErrRankCount = errors.New("cluster: rank count changed")
	// ErrUnsorted means a final shard is not ascending.
	ErrUnsorted = errors.New("cluster: shard is not sorted")
	// ErrOverlap means a shard starts below the maximum of a lower rank.
	ErrOverlap = errors.New("cluster: shard overlaps a lower rank")
	// ErrMultiset means elements were lost, duplicated or altered.
	ErrMultiset = errors.New("cluster: elements were lost or duplicated")
)

// Verify checks that final is a sorted redistribution of initial: every
// shard is ascending, no shard starts below the maximum of a lower rank, and
// the elements are exactly those of initial. pool may be nil.
func Verify(pool *workerpool.Pool, initial, final [][]int64) error {
	if len(initial) != len(final) {
		return fmt.Errorf("%w: %d before, %d after", ErrRankCount, len(initial), len(final))
	}

	unsorted := make([]bool, len(final))
	check := func(rank int) { unsorted[rank] = !slices.IsSorted(final[rank]) }
	if pool == nil {
		for rank := range final {
			check(rank)
		}
	} else {
		pool.Each(len(final), check)
	}
	if rank := slices.Index(unsorted, true); rank >= 0 {
		return fmt.Errorf("%w: rank %d", ErrUnsorted, rank)
	}

	prev := -1
	for rank, shard := range final {
		if len(shard) == 0 {
			continue
		}
		if prev >= 0 {
			if hi := final[prev][len(final[prev])-1]; hi > shard[0] {
				return fmt.Errorf("%w: rank %d starts at %d, rank %d ends at %d", ErrOverlap, rank, shard[0], prev, hi)
			}
		}
		prev = rank
	}

	want := lo.Flatten(initial)
	sort.Sort(sortutil.Int64Slice(want))
	got := lo.Flatten(final)
	if len(want) != len(got) {
		return fmt.Errorf("%w: %d elements before, %d after", ErrMultiset, len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			return fmt.Errorf("%w: position %d holds %d, want %d", ErrMultiset, i, got[i], want[i])
		}
	}
	return nil
}

// ShardSummary describes one final shard.
type ShardSummary struct {
	Rank     int
	Len      int
	Min, Max int64
	Distinct int
}

// Summarize reports the size and range of every shard. Shards must be sorted.
func Summarize(final [][]int64) []ShardSummary {
	out := make([]ShardSummary, len(final))
	for rank, shard := range final {
		s := ShardSummary{Rank: rank, Len: len(shard)}
		if len(shard) > 0 {
			s.Min, s.Max = shard[0], shard[len(shard)-1]
			s.Distinct = sortutil.Dedupe(sortutil.Int64Slice(slices.Clone(shard)))
		}
		out[rank] = s
	}
	return out
}
