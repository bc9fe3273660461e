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
	"fmt"
	"math/rand"

	"github.com/shamirwa/MPI-QSort/hyperqsort/contrib/workerpool"
)

// Distribution selects how Generate fills shards.
type Distribution uint8

const (
	// Uniform draws values over the whole int64 range.
	Uniform Distribution = iota
	// Duplicates draws from a handful of distinct values.
	Duplicates
	// Sorted makes the concatenation of all shards ascending.
	Sorted
	// Reverse makes the concatenation of all shards descending.
	Reverse
	// Skewed leaves rank 0 empty and puts half of the data on the last rank.
	Skewed
)

// duplicateRange is the number of distinct values Duplicates draws from.
const duplicateRange = 16

var distributionNames = map[Distribution]string{
	Uniform:    "uniform",
	Duplicates: "duplicates",
	Sorted:     "sorted",
	Reverse:    "reverse",
	Skewed:     "skewed",
}

func (d Distribution) String() string {
	if s, ok := distributionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("Distribution(%d)", uint8(d))
}

// ParseDistribution returns the Distribution named s.
func ParseDistribution(s string) (Distribution, error) {
	for d, name := range distributionNames {
		if name == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("cluster: unknown distribution %q", s)
}

// GenSpec describes a generated dataset.
type GenSpec struct {
	Ranks        int
	Elements     int
	Seed         int64
	Distribution Distribution
}

// Generate builds the initial shards described by spec. The result depends
// only on spec, so every process of a multi-process run can rebuild the
// same dataset and take its own shard. pool may be nil.
func Generate(pool *workerpool.Pool, spec GenSpec) ([][]int64, error) {
	if spec.Ranks <= 0 {
		return nil, fmt.Errorf("cluster: rank count %d must be positive", spec.Ranks)
	}
	if spec.Elements < 0 {
		return nil, fmt.Errorf("cluster: element count %d is negative", spec.Elements)
	}
	if _, ok := distributionNames[spec.Distribution]; !ok {
		return nil, fmt.Errorf("cluster: unknown distribution %v", spec.Distribution)
	}

	lengths := shardLengths(spec)
	offsets := make([]int, len(lengths))
	for i := 1; i < len(lengths); i++ {
		offsets[i] = offsets[i-1] + lengths[i-1]
	}

	shards := make([][]int64, spec.Ranks)
	fill := func(rank int) {
		shards[rank] = genShard(spec, rank, offsets[rank], lengths[rank])
	}
	if pool == nil {
		for rank := range shards {
			fill(rank)
		}
	} else {
		pool.Each(spec.Ranks, fill)
	}
	return shards, nil
}

// shardLengths splits spec.Elements over the ranks.
func shardLengths(spec GenSpec) []int {
	lengths := make([]int, spec.Ranks)
	n, first := spec.Elements, 0
	if spec.Distribution == Skewed && spec.Ranks > 1 {
		heavy := n / 2
		lengths[spec.Ranks-1] = heavy
		n -= heavy
		first = 1
	}
	spread := len(lengths) - first
	if spec.Distribution == Skewed && spec.Ranks > 1 {
		spread-- // the last rank already holds its share
	}
	if spread <= 0 {
		lengths[len(lengths)-1] += n
		return lengths
	}
	for i := range spread {
		lengths[first+i] += n / spread
		if i < n%spread {
			lengths[first+i]++
		}
	}
	return lengths
}

func genShard(spec GenSpec, rank, offset, n int) []int64 {
	r := rand.New(rand.NewSource(spec.Seed*7919 + int64(rank)))
	shard := make([]int64, n)
	for i := range shard {
		switch spec.Distribution {
		case Uniform, Skewed:
			shard[i] = int64(r.Uint64())
		case Duplicates:
			shard[i] = r.Int63n(duplicateRange)
		case Sorted:
			shard[i] = int64(offset + i)
		case Reverse:
			shard[i] = int64(spec.Elements - offset - i)
		}
	}
	return shard
}
