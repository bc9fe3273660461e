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

// Package localsort sorts the shard held by a single rank before the
// hypercube rounds start.
//
// # Algorithm
//
// Sort dispatches on input size:
//   - LSD radix sort (8-bit digits, signed final pass) for large shards
//   - an introsort for everything else: insertion sort for small ranges,
//     quicksort with a sampled pivot and 3-way partitioning, and a heapsort
//     fallback once the recursion gets too deep
//
// # Supported Types
//
//   - int32, int64
//
// # Example Usage
//
//	import "github.com/shamirwa/MPI-QSort/hyperqsort/contrib/localsort"
//
//	func Prepare(shard []int64) {
//	    localsort.Sort(shard) // In-place ascending sort
//	}
package localsort
