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
	"errors"
	"fmt"
)

var (
	// ErrNotPowerOfTwo means the group size is not a positive power of two.
	ErrNotPowerOfTwo = errors.New("hyperqsort: process count is not a power of two")
	// ErrInvalidRank means a rank is outside [0, size).
	ErrInvalidRank = errors.New("hyperqsort: rank out of range")
	// ErrNegativeLength means Sort was given a negative global length.
	ErrNegativeLength = errors.New("hyperqsort: negative global length")

	// ErrBadPivot means a pivot message carried more than one value.
	ErrBadPivot = errors.New("hyperqsort: malformed pivot message")
	// ErrBadCount means a count message was not a single non-negative value.
	ErrBadCount = errors.New("hyperqsort: malformed count message")
	// ErrShortPayload means a payload did not hold the announced number of values.
	ErrShortPayload = errors.New("hyperqsort: payload length does not match announced count")
)

// Op names the protocol step a TransferError happened in.
type Op uint8

const (
	// OpSendPivot is the leader sending the round's pivot to a follower.
	OpSendPivot Op = iota
	// OpRecvPivot is a follower receiving the pivot from its leader.
	OpRecvPivot
	// OpSendCount is sending the length of the outgoing run to the partner.
	OpSendCount
	// OpSendPayload is sending the outgoing run itself.
	OpSendPayload
	// OpRecvCount is receiving the length of the partner's run.
	OpRecvCount
	// OpRecvPayload is receiving the partner's run.
	OpRecvPayload
)

func (op Op) String() string {
	switch op {
	case OpSendPivot:
		return "send pivot"
	case OpRecvPivot:
		return "receive pivot"
	case OpSendCount:
		return "send count"
	case OpSendPayload:
		return "send payload"
	case OpRecvCount:
		return "receive count"
	case OpRecvPayload:
		return "receive payload"
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// TransferError reports a failed send or receive. The rank that hit it
// stopped at that step; its shard is not returned.
type TransferError struct {
	Round int   // round in which the transfer failed
	Rank  int   // rank that observed the failure
	Peer  int   // rank on the other end of the transfer
	Op    Op    // step that failed
	Err   error // underlying cause
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("hyperqsort: rank %d round %d: %s with rank %d: %v", e.Rank, e.Round, e.Op, e.Peer, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
