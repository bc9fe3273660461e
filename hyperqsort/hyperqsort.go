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
	"context"
	"fmt"
	"log/slog"

	"github.com/shamirwa/MPI-QSort/hyperqsort/comm"
)

// Sort runs the hypercube sort for the rank of c and returns its final shard.
//
// Sort takes ownership of shard: it is sorted in place and then superseded by
// a freshly merged slice every round, so the caller must not use it after
// the call. globalLen is the total element count across all ranks; it is
// only reported in logs.
//
// Every rank of c's group must call Sort with the same options. If any send
// or receive fails, Sort stops and returns a *TransferError; no partial shard
// is returned. Blocking steps honour ctx; with a context that is never done,
// a stalled peer stalls this rank indefinitely.
func Sort(ctx context.Context, c comm.Comm, shard []int64, globalLen int, opts *Options) ([]int64, error) {
	if globalLen < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeLength, globalLen)
	}
	topo, err := NewTopology(c.Rank(), c.Size())
	if err != nil {
		return nil, err
	}
	o := opts.withDefaults()
	p := &peer{c: c, topo: topo, opts: o, log: o.Logger}

	p.log.Debug("sort start", "size", topo.Size(), "dimension", topo.Dimension(), "len", len(shard), "global_len", globalLen)
	o.Sorter(shard)

	for round := range topo.Dimension() {
		g := topo.Group(round)
		pivot, ok, err := p.exchangePivot(ctx, g, shard)
		if err != nil {
			return nil, err
		}

		split := len(shard)
		if ok {
			split = o.Split.split(shard, pivot)
		}

		merged, err := p.exchangeAndMerge(ctx, g, shard, split)
		if err != nil {
			return nil, err
		}
		// The previous shard and the received run are no longer referenced;
		// merged is the only live buffer from here on.
		shard = merged
	}

	p.log.Debug("sort done", "len", len(shard))
	return shard, nil
}

// peer is the per-call state of one rank.
type peer struct {
	c    comm.Comm
	topo Topology
	opts Options
	log  *slog.Logger
}

func (p *peer) fail(g Group, op Op, other int, err error) error {
	if p.opts.Diagnostics {
		p.log.Error("transfer failed", "round", g.Round, "op", op.String(), "peer", other, "err", err)
	}
	return &TransferError{Round: g.Round, Rank: p.topo.Rank(), Peer: other, Op: op, Err: err}
}

// exchangePivot distributes the pivot of g's leader to the rest of g.
// ok is false when the leader's shard is empty and there is no pivot; the
// caller then keeps everything below, which is consistent across the group.
func (p *peer) exchangePivot(ctx context.Context, g Group, shard []int64) (pivot int64, ok bool, err error) {
	if g.IsLeader() {
		var msg []int64
		if len(shard) > 0 {
			pivot, ok = shard[len(shard)/2], true
			msg = []int64{pivot}
		}
		for _, member := range g.Followers() {
			if err := p.c.Send(ctx, member, comm.TagPivot, msg); err != nil {
				return 0, false, p.fail(g, OpSendPivot, member, err)
			}
		}
		p.log.Debug("pivot sent", "round", g.Round, "group_size", g.Size, "pivot", pivot, "has_pivot", ok)
		return pivot, ok, nil
	}

	msg, err := p.c.Recv(ctx, g.Leader, comm.TagPivot)
	if err != nil {
		return 0, false, p.fail(g, OpRecvPivot, g.Leader, err)
	}
	switch len(msg) {
	case 0:
		return 0, false, nil
	case 1:
		return msg[0], true, nil
	}
	return 0, false, p.fail(g, OpRecvPivot, g.Leader, fmt.Errorf("%w: %d values", ErrBadPivot, len(msg)))
}

// exchangeAndMerge swaps the unwanted run of shard with g's partner and
// merges what is kept with what arrives. The lower half sends first and the
// upper half receives first, so the two sides never wait on each other.
func (p *peer) exchangeAndMerge(ctx context.Context, g Group, shard []int64, split int) ([]int64, error) {
	below, above := Split(shard, split)
	kept, outgoing := below, above
	if g.Upper {
		kept, outgoing = above, below
	}

	var received []int64
	var err error
	if g.Upper {
		received, err = p.recvRun(ctx, g)
		if err == nil {
			err = p.sendRun(ctx, g, outgoing)
		}
	} else {
		err = p.sendRun(ctx, g, outgoing)
		if err == nil {
			received, err = p.recvRun(ctx, g)
		}
	}
	if err != nil {
		return nil, err
	}

	merged := Merge(kept, received)
	p.log.Debug("round done",
		"round", g.Round,
		"group_size", g.Size,
		"upper", g.Upper,
		"partner", g.Partner,
		"split", split,
		"sent", len(outgoing),
		"received", len(received),
		"len", len(merged))
	return merged, nil
}

// sendRun sends the length of run, then run itself.
func (p *peer) sendRun(ctx context.Context, g Group, run []int64) error {
	if err := p.c.Send(ctx, g.Partner, comm.TagCount, []int64{int64(len(run))}); err != nil {
		return p.fail(g, OpSendCount, g.Partner, err)
	}
	if err := p.c.Send(ctx, g.Partner, comm.TagPayload, run); err != nil {
		return p.fail(g, OpSendPayload, g.Partner, err)
	}
	return nil
}

// recvRun receives a length, then a run of exactly that length.
func (p *peer) recvRun(ctx context.Context, g Group) ([]int64, error) {
	count, err := p.c.Recv(ctx, g.Partner, comm.TagCount)
	if err != nil {
		return nil, p.fail(g, OpRecvCount, g.Partner, err)
	}
	if len(count) != 1 || count[0] < 0 {
		return nil, p.fail(g, OpRecvCount, g.Partner, fmt.Errorf("%w: %v", ErrBadCount, count))
	}
	run, err := p.c.Recv(ctx, g.Partner, comm.TagPayload)
	if err != nil {
		return nil, p.fail(g, OpRecvPayload, g.Partner, err)
	}
	if int64(len(run)) != count[0] {
		return nil, p.fail(g, OpRecvPayload, g.Partner, fmt.Errorf("%w: got %d, announced %d", ErrShortPayload, len(run), count[0]))
	}
	return run, nil
}
