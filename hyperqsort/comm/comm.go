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

// Package comm provides the point-to-point communicators the hypercube sort
// runs on: an in-process World where every rank is a goroutine, and WSComm,
// where every rank is a separate process talking websockets.
//
// Messages are (tag, []int64) pairs. Between any ordered pair of ranks,
// messages are delivered in the order they were sent.
package comm

import (
	"context"
	"errors"
	"fmt"
)

// Tag labels a message so the receiver can check it got what the protocol
// expects next.
type Tag uint8

const (
	// TagPivot carries a group pivot (one value) or "no pivot" (zero values).
	TagPivot Tag = iota + 1
	// TagCount carries the element count of the payload that follows.
	TagCount
	// TagPayload carries a run of sorted elements.
	TagPayload
)

func (t Tag) String() string {
	switch t {
	case TagPivot:
		return "pivot"
	case TagCount:
		return "count"
	case TagPayload:
		return "payload"
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// Comm is a communicator for one rank of a fixed-size process group.
//
// Send and Recv block until the message is handed over or ctx is done.
// Send does not retain data after it returns. The slice returned by Recv is
// owned by the caller.
type Comm interface {
	// Rank returns this rank's ID within the group, in [0, Size()).
	Rank() int
	// Size returns the number of ranks in the group.
	Size() int
	Send(ctx context.Context, dst int, tag Tag, data []int64) error
	Recv(ctx context.Context, src int, tag Tag) ([]int64, error)
}

var (
	// ErrClosed is returned by operations on a closed communicator.
	ErrClosed = errors.New("comm: communicator closed")
	// ErrInvalidRank is returned when a peer rank is outside the group.
	ErrInvalidRank = errors.New("comm: rank out of range")
	// ErrTagMismatch is returned by Recv when the next message from src
	// carries a different tag than requested.
	ErrTagMismatch = errors.New("comm: unexpected message tag")
	// ErrBadFrame is returned when a network frame cannot be decoded.
	ErrBadFrame = errors.New("comm: malformed frame")
)

type message struct {
	tag  Tag
	data []int64
}

func checkPeer(rank, size int) error {
	if rank < 0 || rank >= size {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidRank, rank, size)
	}
	return nil
}

func matchTag(src int, want Tag, msg message) error {
	if msg.tag != want {
		return fmt.Errorf("%w: from rank %d got %s, want %s", ErrTagMismatch, src, msg.tag, want)
	}
	return nil
}
