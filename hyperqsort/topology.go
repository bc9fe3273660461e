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

	"modernc.org/mathutil"
)

// Topology is a rank's view of a hypercube of size ranks.
type Topology struct {
	rank int
	size int
	dim  int
}

// NewTopology checks that size is a power of two and rank is inside it.
func NewTopology(rank, size int) (Topology, error) {
	if size <= 0 || size&(size-1) != 0 {
		return Topology{}, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, size)
	}
	if rank < 0 || rank >= size {
		return Topology{}, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidRank, rank, size)
	}
	return Topology{
		rank: rank,
		size: size,
		dim:  mathutil.Log2Uint64(uint64(size)),
	}, nil
}

// Rank is this rank, in [0, Size()).
func (t Topology) Rank() int { return t.rank }

// Size is the number of ranks, a power of two.
func (t Topology) Size() int { return t.size }

// Dimension is the number of rounds, log2(size).
func (t Topology) Dimension() int { return t.dim }

// Group describes the group a rank belongs to in one round.
type Group struct {
	Round int

	// Size is the number of ranks in the group, size>>Round.
	Size int

	// Index numbers the groups of the round: rank / Size.
	Index int

	// Position is the rank's offset inside the group: rank % Size.
	Position int

	// Leader is the lowest rank in the group; it picks the pivot.
	Leader int

	// Partner is the rank in the other half of the group this rank
	// exchanges data with.
	Partner int

	// Upper is set when the rank is in the upper half of the group and
	// keeps the values above the pivot.
	Upper bool
}

// Group returns the group of the rank for round, which must be in
// [0, Dimension()).
func (t Topology) Group(round int) Group {
	if round < 0 || round >= t.dim {
		panic(fmt.Sprintf("hyperqsort: round %d out of range [0, %d)", round, t.dim))
	}
	size := t.size >> round
	half := size / 2
	pos := t.rank % size
	g := Group{
		Round:    round,
		Size:     size,
		Index:    t.rank / size,
		Position: pos,
		Leader:   t.rank - pos,
		Upper:    pos >= half,
	}
	if g.Upper {
		g.Partner = t.rank - half
	} else {
		g.Partner = t.rank + half
	}
	return g
}

// IsLeader reports whether the rank picks the pivot for its group.
func (g Group) IsLeader() bool { return g.Position == 0 }

// Followers returns the ranks the leader sends the pivot to, ascending.
func (g Group) Followers() []int {
	out := make([]int, 0, g.Size-1)
	for r := g.Leader + 1; r < g.Leader+g.Size; r++ {
		out = append(out, r)
	}
	return out
}
