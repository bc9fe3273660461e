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

import (
	"math/rand"
	"slices"
	"sort"
	"testing"

	"modernc.org/sortutil"
)

// TestSortEmpty tests sorting empty slices
func TestSortEmpty(t *testing.T) {
	var empty []int64
	Sort(empty)
	if len(empty) != 0 {
		t.Errorf("Sort(empty) should not modify empty slice")
	}
}

// TestSortSingle tests sorting single element slices
func TestSortSingle(t *testing.T) {
	data := []int64{42}
	Sort(data)
	if data[0] != 42 {
		t.Errorf("Sort([42]) = %v, want [42]", data)
	}
}

func TestSortSmallCases(t *testing.T) {
	tests := []struct {
		name string
		data []int64
	}{
		{"sorted", []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{"reverse", []int64{8, 7, 6, 5, 4, 3, 2, 1}},
		{"duplicates", []int64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5}},
		{"all_same", []int64{5, 5, 5, 5, 5, 5, 5, 5}},
		{"mixed_signs", []int64{-5, 3, -8, 1, 0, -9, 7}},
		{"min_max", []int64{-9223372036854775808, 9223372036854775807, 0, -1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := slices.Clone(tt.data)
			Sort(data)
			if !IsSorted(data) {
				t.Errorf("Sort(%s) produced unsorted result: %v", tt.name, data)
			}
		})
	}
}

// TestSortRandomInt32 tests sorting random int32 data on both sides of the radix threshold
func TestSortRandomInt32(t *testing.T) {
	sizes := []int{0, 1, 7, 8, 31, 32, 33, 100, 511, 512, 1000, 10000}
	for _, n := range sizes {
		data := make([]int32, n)
		for i := range data {
			data[i] = rand.Int31n(10000) - 5000
		}
		Sort(data)
		if !IsSorted(data) {
			t.Errorf("Sort(random int32, n=%d) produced unsorted result", n)
		}
	}
}

// TestSortMatchesOracle verifies every entry point agrees with an independent sort
func TestSortMatchesOracle(t *testing.T) {
	r := rand.New(rand.NewSource(12345))
	sorters := map[string]func([]int64){
		"Sort":      Sort[int64],
		"IntroSort": IntroSort[int64],
		"RadixSort": RadixSort[int64],
	}
	sizes := []int{0, 1, 2, 100, 256, 1000, 10000}
	for name, sortFn := range sorters {
		for _, n := range sizes {
			got := make([]int64, n)
			for i := range got {
				got[i] = r.Int63n(2_000_000) - 1_000_000
			}
			want := slices.Clone(got)
			sort.Sort(sortutil.Int64Slice(want))

			sortFn(got)

			for i := range got {
				if got[i] != want[i] {
					t.Errorf("%s mismatch at index %d (n=%d): got %v, want %v", name, i, n, got[i], want[i])
					break
				}
			}
		}
	}
}

// TestIntroSortAdversarial exercises the heapsort fallback on inputs that
// defeat sampled pivots.
func TestIntroSortAdversarial(t *testing.T) {
	n := 4096
	organPipe := make([]int64, n)
	for i := range organPipe {
		if i < n/2 {
			organPipe[i] = int64(i)
		} else {
			organPipe[i] = int64(n - i)
		}
	}
	fewDistinct := make([]int64, n)
	for i := range fewDistinct {
		fewDistinct[i] = int64(i % 3)
	}

	for name, data := range map[string][]int64{"organ_pipe": organPipe, "few_distinct": fewDistinct} {
		IntroSort(data)
		if !IsSorted(data) {
			t.Errorf("IntroSort(%s) produced unsorted result", name)
		}
	}
}

// TestRadixSortEdgeCases tests edge cases for radix sort
func TestRadixSortEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		data []int32
	}{
		{"all_zeros", []int32{0, 0, 0, 0, 0}},
		{"all_same", []int32{42, 42, 42, 42}},
		{"all_negative", []int32{-5, -3, -8, -1, -9}},
		{"all_positive", []int32{5, 3, 8, 1, 9}},
		{"mixed_signs", []int32{-5, 3, -8, 1, 0, -9, 7}},
		{"min_max", []int32{-2147483648, 2147483647, 0, -1, 1}},
		{"sorted", []int32{1, 2, 3, 4, 5}},
		{"reverse", []int32{5, 4, 3, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := slices.Clone(tt.data)
			RadixSort(data)
			if !IsSorted(data) {
				t.Errorf("RadixSort[int32](%s) produced unsorted result: %v", tt.name, data)
			}
		})
	}
}

// TestPartition3Way tests 3-way partitioning
func TestPartition3Way(t *testing.T) {
	data := []int64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5}
	pivot := int64(5)

	lt, gt := Partition3Way(data, pivot)

	for i := range lt {
		if data[i] >= pivot {
			t.Errorf("data[%d]=%v should be < pivot %v", i, data[i], pivot)
		}
	}
	for i := lt; i < gt; i++ {
		if data[i] != pivot {
			t.Errorf("data[%d]=%v should be == pivot %v", i, data[i], pivot)
		}
	}
	for i := gt; i < len(data); i++ {
		if data[i] <= pivot {
			t.Errorf("data[%d]=%v should be > pivot %v", i, data[i], pivot)
		}
	}
}

// TestIsSorted tests the IsSorted function
func TestIsSorted(t *testing.T) {
	tests := []struct {
		name string
		data []int64
		want bool
	}{
		{"empty", []int64{}, true},
		{"single", []int64{1}, true},
		{"sorted", []int64{1, 2, 3, 4, 5}, true},
		{"unsorted", []int64{1, 3, 2, 4, 5}, false},
		{"reverse", []int64{5, 4, 3, 2, 1}, false},
		{"equal", []int64{3, 3, 3, 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsSorted(tt.data)
			if got != tt.want {
				t.Errorf("IsSorted(%v) = %v, want %v", tt.data, got, tt.want)
			}
		})
	}
}

// TestPivotSampled tests pivot selection
func TestPivotSampled(t *testing.T) {
	// For sorted data, sampled pivot should be near median
	data := make([]int64, 100)
	for i := range data {
		data[i] = int64(i)
	}

	pivot := PivotSampled(data)
	if pivot < 20 || pivot > 80 {
		t.Errorf("PivotSampled(sorted) = %v, expected near 50", pivot)
	}
}
