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

import "sort"

// SearchPivot binary-searches the sorted shard for pivot. It returns the
// index of an element equal to pivot, or -(i+1) where i is the index pivot
// would be inserted at. When several elements equal pivot, the one returned
// is whichever the bisection reaches first, not necessarily the first or last.
func SearchPivot(shard []int64, pivot int64) int {
	lo, hi := 0, len(shard)-1
	for lo <= hi {
		mid := int(uint(lo+hi) >> 1)
		switch v := shard[mid]; {
		case v < pivot:
			lo = mid + 1
		case v > pivot:
			hi = mid - 1
		default:
			return mid
		}
	}
	return -(lo + 1)
}

// SplitIndex returns the length of the "below" run of shard for pivot: an
// exact match stays below, a miss splits at the insertion point.
func SplitIndex(shard []int64, pivot int64) int {
	idx := SearchPivot(shard, pivot)
	var split int
	if idx < 0 {
		split = -(idx + 1)
	} else {
		split = idx + 1
	}
	return min(split, len(shard))
}

// UpperBound returns the number of elements of the sorted shard that are
// <= pivot.
func UpperBound(shard []int64, pivot int64) int {
	return sort.Search(len(shard), func(i int) bool { return shard[i] > pivot })
}

func (p SplitPolicy) split(shard []int64, pivot int64) int {
	if p == SplitUpperBound {
		return UpperBound(shard, pivot)
	}
	return SplitIndex(shard, pivot)
}

// Split returns views of shard[:split] and shard[split:]. No data is
// copied; below is capped so appending to it cannot overwrite above.
func Split(shard []int64, split int) (below, above []int64) {
	return shard[:split:split], shard[split:]
}
