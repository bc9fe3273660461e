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
	"cmp"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		a, b []int64
		want []int64
	}{
		{"both_empty", nil, nil, []int64{}},
		{"a_empty", nil, []int64{1, 2}, []int64{1, 2}},
		{"b_empty", []int64{1, 2}, nil, []int64{1, 2}},
		{"interleave", []int64{1, 3, 5}, []int64{2, 4}, []int64{1, 2, 3, 4, 5}},
		{"a_after_b", []int64{7, 8}, []int64{1, 2}, []int64{1, 2, 7, 8}},
		{"duplicates", []int64{2, 2, 4}, []int64{2, 3}, []int64{2, 2, 2, 3, 4}},
		{"negative", []int64{-5, 0}, []int64{-9, 9}, []int64{-9, -5, 0, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := slices.Clone(tt.a), slices.Clone(tt.b)
			got := Merge(a, b)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.a, a, "input a modified")
			assert.Equal(t, tt.b, b, "input b modified")
		})
	}
}

func TestMergeRandom(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for range 100 {
		a := make([]int64, r.Intn(50))
		b := make([]int64, r.Intn(50))
		for i := range a {
			a[i] = r.Int63n(20)
		}
		for i := range b {
			b[i] = r.Int63n(20)
		}
		slices.Sort(a)
		slices.Sort(b)

		got := Merge(a, b)
		want := slices.Concat(a, b)
		slices.Sort(want)
		assert.Equal(t, want, got)
	}
}

type tagged struct {
	key int
	src byte
	seq int
}

// Equal keys keep their order within each input, and a's come first.
func TestMergeFuncStable(t *testing.T) {
	a := []tagged{{1, 'a', 0}, {2, 'a', 1}, {2, 'a', 2}, {4, 'a', 3}}
	b := []tagged{{2, 'b', 0}, {2, 'b', 1}, {3, 'b', 2}, {4, 'b', 3}}

	got := MergeFunc(a, b, func(x, y tagged) int { return cmp.Compare(x.key, y.key) })

	want := []tagged{
		{1, 'a', 0},
		{2, 'a', 1}, {2, 'a', 2}, {2, 'b', 0}, {2, 'b', 1},
		{3, 'b', 2},
		{4, 'a', 3}, {4, 'b', 3},
	}
	assert.Equal(t, want, got)
}
