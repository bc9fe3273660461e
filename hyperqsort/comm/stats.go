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

package comm

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Stats counts the traffic of one rank.
type Stats struct {
	MessagesSent     int64
	MessagesReceived int64
	ElementsSent     int64
	ElementsReceived int64
}

// counters live in a slice indexed by rank in World, and every rank's
// goroutine updates its own entry; the padding keeps neighbours off each
// other's cache line.
type counters struct {
	_        cpu.CacheLinePad
	msgSent  atomic.Int64
	msgRecv  atomic.Int64
	elemSent atomic.Int64
	elemRecv atomic.Int64
	_        cpu.CacheLinePad
}

func (c *counters) sent(n int) {
	c.msgSent.Add(1)
	c.elemSent.Add(int64(n))
}

func (c *counters) received(n int) {
	c.msgRecv.Add(1)
	c.elemRecv.Add(int64(n))
}

func (c *counters) snapshot() Stats {
	return Stats{
		MessagesSent:     c.msgSent.Load(),
		MessagesReceived: c.msgRecv.Load(),
		ElementsSent:     c.elemSent.Load(),
		ElementsReceived: c.elemRecv.Load(),
	}
}
