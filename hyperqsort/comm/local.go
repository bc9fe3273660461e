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
	"context"
	"fmt"
	"slices"
	"sync"
)

// DefaultMailboxDepth is the number of messages a World buffers per ordered
// pair of ranks before Send blocks.
const DefaultMailboxDepth = 4

// World is an in-process process group. Each ordered (src, dst) pair of ranks
// has its own FIFO mailbox.
type World struct {
	size      int
	boxes     []chan message // indexed src*size + dst
	stats     []counters
	done      chan struct{}
	closeOnce sync.Once
}

// NewWorld creates a group of size ranks. depth is the mailbox capacity per
// ordered pair: 0 makes every Send a rendezvous with the matching Recv,
// negative selects DefaultMailboxDepth.
func NewWorld(size, depth int) (*World, error) {
	if size <= 0 {
		return nil, fmt.Errorf("comm: world size %d must be positive", size)
	}
	if depth < 0 {
		depth = DefaultMailboxDepth
	}
	w := &World{
		size:  size,
		boxes: make([]chan message, size*size),
		stats: make([]counters, size),
		done:  make(chan struct{}),
	}
	for i := range w.boxes {
		w.boxes[i] = make(chan message, depth)
	}
	return w, nil
}

// Size returns the number of ranks in the world.
func (w *World) Size() int {
	return w.size
}

// Comm returns the communicator of the given rank.
func (w *World) Comm(rank int) *LocalComm {
	if err := checkPeer(rank, w.size); err != nil {
		panic(err)
	}
	return &LocalComm{w: w, rank: rank}
}

// Comms returns one communicator per rank, indexed by rank.
func (w *World) Comms() []Comm {
	comms := make([]Comm, w.size)
	for rank := range comms {
		comms[rank] = w.Comm(rank)
	}
	return comms
}

// Stats returns the traffic counters of rank.
func (w *World) Stats(rank int) Stats {
	return w.stats[rank].snapshot()
}

// Close unblocks every pending Send and Recv with ErrClosed.
// Calling Close multiple times is safe.
func (w *World) Close() {
	w.closeOnce.Do(func() { close(w.done) })
}

func (w *World) box(src, dst int) chan message {
	return w.boxes[src*w.size+dst]
}

// LocalComm is the communicator of one rank of a World.
type LocalComm struct {
	w    *World
	rank int
}

var _ Comm = (*LocalComm)(nil)

// Rank implements Comm.
func (c *LocalComm) Rank() int { return c.rank }

// Size implements Comm.
func (c *LocalComm) Size() int { return c.w.size }

// Stats returns this rank's traffic counters.
func (c *LocalComm) Stats() Stats { return c.w.Stats(c.rank) }

// Send copies data into the mailbox of dst.
func (c *LocalComm) Send(ctx context.Context, dst int, tag Tag, data []int64) error {
	if err := checkPeer(dst, c.w.size); err != nil {
		return err
	}
	msg := message{tag: tag, data: slices.Clone(data)}
	select {
	case c.w.box(c.rank, dst) <- msg:
		c.w.stats[c.rank].sent(len(data))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.w.done:
		return ErrClosed
	}
}

// Recv takes the next message sent by src.
func (c *LocalComm) Recv(ctx context.Context, src int, tag Tag) ([]int64, error) {
	if err := checkPeer(src, c.w.size); err != nil {
		return nil, err
	}
	var msg message
	select {
	case msg = <-c.w.box(src, c.rank):
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.w.done:
		return nil, ErrClosed
	}
	if err := matchTag(src, tag, msg); err != nil {
		return nil, err
	}
	c.w.stats[c.rank].received(len(msg.data))
	return msg.data, nil
}
