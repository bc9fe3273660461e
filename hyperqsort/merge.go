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

import "cmp"

// Merge merges two ascending runs into a newly allocated ascending slice of
// length len(a)+len(b). Neither input is modified or retained.
func Merge(a, b []int64) []int64 {
	return MergeFunc(a, b, cmp.Compare[int64])
}

// MergeFunc merges two runs sorted by compare. It is stable: equal elements keep
// their order within each run, and elements of a come before equal elements
// of b.
func MergeFunc[E any](a, b []E, compare func(x, y E) int) []E {
	out := make([]E, len(a)+len(b))
	i, j, k := 0, 0, 0
	for i < len(a) && j < len(b) {
		if compare(b[j], a[i]) < 0 {
			out[k] = b[j]
			j++
		} else {
			out[k] = a[i]
			i++
		}
		k++
	}
	k += copy(out[k:], a[i:])
	copy(out[k:], b[j:])
	return out
}
