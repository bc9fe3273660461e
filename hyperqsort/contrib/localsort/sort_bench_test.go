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
	"testing"
)

func generateInt64(n int) []int64 {
	data := make([]int64, n)
	for i := range data {
		data[i] = rand.Int63n(10000) - 5000
	}
	return data
}

func BenchmarkSort_Int64_100(b *testing.B) {
	benchmarkSort(b, 100, Sort[int64])
}

func BenchmarkSort_Int64_10000(b *testing.B) {
	benchmarkSort(b, 10000, Sort[int64])
}

func BenchmarkSort_Int64_100000(b *testing.B) {
	benchmarkSort(b, 100000, Sort[int64])
}

func BenchmarkIntroSort_Int64_10000(b *testing.B) {
	benchmarkSort(b, 10000, IntroSort[int64])
}

func BenchmarkStdlib_Int64_10000(b *testing.B) {
	benchmarkSort(b, 10000, slices.Sort[[]int64, int64])
}

func benchmarkSort(b *testing.B, n int, sortFn func([]int64)) {
	ref := generateInt64(n)
	data := make([]int64, n)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(data, ref)
		sortFn(data)
	}
}
