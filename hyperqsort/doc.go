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

// Package hyperqsort implements hypercube quicksort: a distributed sort of
// integers held in shards by P = 2^d cooperating ranks, with no coordinator.
//
// # Algorithm
//
// Every rank runs the same steps:
//  1. Sort the local shard.
//  2. For round 0..d-1, ranks are split into groups of P>>round consecutive
//     ranks. The lowest rank of each group sends the middle element of its
//     shard to every other member as the pivot.
//  3. Each member splits its shard at the pivot. Members of the lower half
//     send their "above" run to the partner half a group away and keep
//     "below"; members of the upper half do the opposite.
//  4. Each member merges the run it kept with the run it received.
//
// After d rounds each shard is sorted and every value on rank r is <= every
// value on rank r+1. Shard sizes are not rebalanced.
//
// # Example Usage
//
//	world, _ := comm.NewWorld(4, comm.DefaultMailboxDepth)
//	// on each rank's goroutine:
//	sorted, err := hyperqsort.Sort(ctx, world.Comm(rank), shard, globalLen, nil)
//
// See package cluster for a ready-made in-process runner.
package hyperqsort
