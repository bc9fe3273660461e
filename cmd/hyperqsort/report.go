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

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/muesli/termenv"

	"github.com/shamirwa/MPI-QSort/hyperqsort/cluster"
)

// printReport writes one line per shard and a verdict. Colors are only used
// when w is a terminal that supports them.
func printReport(w io.Writer, summaries []cluster.ShardSummary, elapsed time.Duration, verifyErr error) {
	out := termenv.NewOutput(w)
	header := out.String(fmt.Sprintf("%6s %10s %21s %21s %10s", "rank", "len", "min", "max", "distinct")).Bold()
	fmt.Fprintln(w, header)

	total := 0
	for _, s := range summaries {
		total += s.Len
		if s.Len == 0 {
			fmt.Fprintln(w, out.String(fmt.Sprintf("%6d %10d %21s %21s %10s", s.Rank, 0, "-", "-", "-")).Faint())
			continue
		}
		fmt.Fprintf(w, "%6d %10d %21d %21d %10d\n", s.Rank, s.Len, s.Min, s.Max, s.Distinct)
	}

	fmt.Fprintf(w, "%d elements in %v: ", total, elapsed.Round(time.Microsecond))
	if verifyErr != nil {
		fmt.Fprintln(w, out.String("FAILED: "+verifyErr.Error()).Foreground(out.Color("1")).Bold())
		return
	}
	fmt.Fprintln(w, out.String("ok").Foreground(out.Color("2")).Bold())
}
