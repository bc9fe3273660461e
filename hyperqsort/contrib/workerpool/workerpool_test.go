// Copyright 2025 The MPI-QSort Authors. SPDX-License-Identifier: Apache-2.0

package workerpool

import (
	"runtime"
	"sync/atomic"
	"testing"
)

func TestNew(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	if pool.NumWorkers() != 4 {
		t.Errorf("NumWorkers() = %d, want 4", pool.NumWorkers())
	}
}

func TestNewDefault(t *testing.T) {
	pool := New(0)
	defer pool.Close()

	if pool.NumWorkers() != runtime.GOMAXPROCS(0) {
		t.Errorf("NumWorkers() = %d, want %d", pool.NumWorkers(), runtime.GOMAXPROCS(0))
	}
}

func TestRange(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	for _, n := range []int{1, 3, 4, 5, 100, 101} {
		results := make([]int, n)
		pool.Range(n, func(start, end int) {
			for i := start; i < end; i++ {
				results[i] += i * 2
			}
		})
		for i := range n {
			if results[i] != i*2 {
				t.Errorf("n=%d: results[%d] = %d, want %d", n, i, results[i], i*2)
			}
		}
	}
}

func TestEach(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	n := 100
	var calls atomic.Int32
	results := make([]int, n)
	pool.Each(n, func(i int) {
		calls.Add(1)
		results[i] = i * 2
	})

	if calls.Load() != int32(n) {
		t.Errorf("calls = %d, want %d", calls.Load(), n)
	}
	for i := range n {
		if results[i] != i*2 {
			t.Errorf("results[%d] = %d, want %d", i, results[i], i*2)
		}
	}
}

func TestZeroN(t *testing.T) {
	pool := New(4)
	defer pool.Close()

	var called bool
	pool.Range(0, func(start, end int) { called = true })
	pool.Each(0, func(i int) { called = true })

	if called {
		t.Error("Range/Each with n=0 should not call fn")
	}
}

func TestCloseMultipleTimes(t *testing.T) {
	pool := New(4)
	pool.Close()
	pool.Close() // Should not panic
}

func TestClosedPoolFallback(t *testing.T) {
	pool := New(4)
	pool.Close()

	n := 100
	results := make([]int, n)

	// Should still work (sequential fallback)
	pool.Each(n, func(i int) {
		results[i] = i * 2
	})

	for i := range n {
		if results[i] != i*2 {
			t.Errorf("results[%d] = %d, want %d", i, results[i], i*2)
		}
	}
}

func BenchmarkRange(b *testing.B) {
	pool := New(0)
	defer pool.Close()

	for i := 0; i < b.N; i++ {
		pool.Range(1000, func(start, end int) {
			for j := start; j < end; j++ {
				_ = j * j
			}
		})
	}
}
