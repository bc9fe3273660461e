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

// RadixSort sorts data in-place with an LSD radix sort over 8-bit digits.
// It allocates one scratch buffer of len(data).
func RadixSort[T Integer](data []T) {
	n := len(data)
	if n <= 1 {
		return
	}

	passes := keyBytes[T]()
	scratch := make([]T, n)
	src, dst := data, scratch
	for p := range passes {
		shift := p * 8
		if p == passes-1 {
			radixPassSigned(src, dst, shift)
		} else {
			radixPass(src, dst, shift)
		}
		src, dst = dst, src
	}
	// passes is even for both key widths, so the result is back in data.
}

func keyBytes[T Integer]() int {
	var zero T
	switch any(zero).(type) {
	case int32:
		return 4
	default:
		return 8
	}
}

// radixPass performs one pass of LSD radix sort.
// shift specifies which byte to use for bucketing (0, 8, 16, 24 for int32).
func radixPass[T Integer](src, dst []T, shift int) {
	var count [256]int
	for _, v := range src {
		count[int((v>>shift)&0xFF)]++
	}

	// Compute prefix sum to get bucket offsets
	offset := 0
	for b := range 256 {
		c := count[b]
		count[b] = offset
		offset += c
	}

	scatter(src, dst, shift, &count)
}

// radixPassSigned performs the final pass for signed integers.
// The MSB byte contains the sign bit, so negative numbers (128-255) come before positive (0-127).
func radixPassSigned[T Integer](src, dst []T, shift int) {
	var count [256]int
	for _, v := range src {
		count[int((v>>shift)&0xFF)]++
	}

	offset := 0
	for b := 128; b < 256; b++ {
		c := count[b]
		count[b] = offset
		offset += c
	}
	for b := range 128 {
		c := count[b]
		count[b] = offset
		offset += c
	}

	scatter(src, dst, shift, &count)
}

func scatter[T Integer](src, dst []T, shift int, offsets *[256]int) {
	for _, v := range src {
		digit := int((v >> shift) & 0xFF)
		dst[offsets[digit]] = v
		offsets[digit]++
	}
}
