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

package localsort

// Integer is the set of element types a shard can hold.
type Integer interface {
	int32 | int64
}

// Thresholds for different sorting strategies.
const (
	// sortInsertionThreshold: use insertion sort for ranges this size or smaller.
	sortInsertionThreshold = 32

	// radixThreshold: use radix sort for shards this size or larger.
	radixThreshold = 512
)

// Sort sorts data in-place in ascending order:
//   - Already sorted input is left as is after one linear scan
//   - Radix sort for large shards (O(n) vs O(n log n))
//   - Introsort for small shards, where the radix histograms cost more than they save
//
// For explicit algorithm selection, use IntroSort or RadixSort directly.
func Sort[T Integer](data []T) {
	n := len(data)
	if n <= 1 || IsSorted(data) {
		return
	}
	if n >= radixThreshold {
		RadixSort(data)
		return
	}
	IntroSort(data)
}

// IntroSort sorts data in-place using quicksort with a sampled pivot,
// switching to insertion sort for small ranges and to heapsort when the
// recursion depth exceeds 2*floor(log2(n)).
func IntroSort[T Integer](data []T) {
	n := len(data)
	if n <= 1 {
		return
	}
	sortImpl(data, depthLimit(n))
}

func depthLimit(n int) int {
	maxDepth := 0
	for tmp := n; tmp > 0; tmp >>= 1 {
		maxDepth++
	}
	return maxDepth * 2
}

// sortImpl is the recursive implementation of IntroSort.
func sortImpl[T Integer](data []T, depthLimit int) {
	for {
		n := len(data)
		if n <= sortInsertionThreshold {
			InsertionSort(data)
			return
		}

		// Fallback to heapsort if recursion too deep
		if depthLimit == 0 {
			sortHeap(data)
			return
		}
		depthLimit--

		pivot := PivotSampled(data)
		lt, gt := Partition3Way(data, pivot)

		// Recurse into the smaller side, loop on the larger one.
		if lt < n-gt {
			sortImpl(data[:lt], depthLimit)
			data = data[gt:]
		} else {
			sortImpl(data[gt:], depthLimit)
			data = data[:lt]
		}
	}
}

// sortHeap is heapsort for O(n log n) worst-case guarantee.
func sortHeap[T Integer](data []T) {
	n := len(data)
	if n <= 1 {
		return
	}

	// Build max-heap
	for i := n/2 - 1; i >= 0; i-- {
		siftDown(data, i, n)
	}

	// Extract elements
	for i := n - 1; i > 0; i-- {
		data[0], data[i] = data[i], data[0]
		siftDown(data, 0, i)
	}
}

func siftDown[T Integer](data []T, i, n int) {
	for {
		largest := i
		left := 2*i + 1
		right := 2*i + 2

		if left < n && data[left] > data[largest] {
			largest = left
		}
		if right < n && data[right] > data[largest] {
			largest = right
		}

		if largest == i {
			break
		}

		data[i], data[largest] = data[largest], data[i]
		i = largest
	}
}
