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
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func closeAll(comms []*WSComm) {
	for _, c := range comms {
		c.Close()
	}
}

func TestWSExchange(t *testing.T) {
	comms, err := LoopbackWS(2, nil)
	require.NoError(t, err)
	defer closeAll(comms)

	exercisePair(t, comms[0], comms[1])
	assert.Equal(t, Stats{MessagesSent: 2, MessagesReceived: 2, ElementsSent: 3, ElementsReceived: 4}, comms[0].Stats())
}

func TestWSOrderAndTags(t *testing.T) {
	comms, err := LoopbackWS(2, &WSOptions{InboxDepth: 2})
	require.NoError(t, err)
	defer closeAll(comms)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	go func() {
		for i := range 20 {
			if err := comms[1].Send(ctx, 0, TagCount, []int64{int64(i)}); err != nil {
				return
			}
		}
		_ = comms[1].Send(ctx, 0, TagPayload, []int64{1})
	}()
	for i := range 20 {
		got, err := comms[0].Recv(ctx, 1, TagCount)
		require.NoError(t, err)
		require.Equal(t, []int64{int64(i)}, got)
	}
	_, err = comms[0].Recv(ctx, 1, TagPivot)
	assert.ErrorIs(t, err, ErrTagMismatch)
}

// A rank may start sending before its peer listens; Send keeps dialing.
func TestWSLateListener(t *testing.T) {
	ln0, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ln1, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr1 := ln1.Addr().String()
	ln1.Close()
	peers := []string{ln0.Addr().String(), addr1}

	c0, err := NewWSComm(0, ln0, peers, &WSOptions{DialRetry: 10 * time.Millisecond})
	require.NoError(t, err)
	defer c0.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sent := make(chan error, 1)
	go func() { sent <- c0.Send(ctx, 1, TagPivot, []int64{5}) }()

	time.Sleep(50 * time.Millisecond)
	c1, err := ListenWS(1, peers, nil)
	require.NoError(t, err)
	defer c1.Close()

	got, err := c1.Recv(ctx, 0, TagPivot)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, got)
	require.NoError(t, <-sent)
}

func TestWSDialGivesUpWithContext(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	dead, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	deadAddr := dead.Addr().String()
	dead.Close()

	c, err := NewWSComm(0, ln, []string{ln.Addr().String(), deadAddr}, &WSOptions{DialRetry: 5 * time.Millisecond})
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err = c.Send(ctx, 1, TagCount, []int64{1})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWSPeerCloseDrainsThenFails(t *testing.T) {
	comms, err := LoopbackWS(2, nil)
	require.NoError(t, err)
	defer comms[0].Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, comms[1].Send(ctx, 0, TagCount, []int64{3}))
	require.NoError(t, comms[1].Close())

	got, err := comms[0].Recv(ctx, 1, TagCount)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, got)

	_, err = comms[0].Recv(ctx, 1, TagPayload)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWSInvalidRank(t *testing.T) {
	_, err := ListenWS(3, []string{"127.0.0.1:0"}, nil)
	assert.ErrorIs(t, err, ErrInvalidRank)
}

func dialAs(t *testing.T, addr string, rank string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	u := url.URL{Scheme: "ws", Host: addr, Path: WSPath, RawQuery: url.Values{"rank": {rank}}.Encode()}
	return websocket.DefaultDialer.Dial(u.String(), nil)
}

// An inbound connection that drops before delivering anything must not
// poison the source rank's real connection.
func TestWSAbandonedInboundKeepsSourceHealthy(t *testing.T) {
	comms, err := LoopbackWS(2, &WSOptions{DialRetry: 10 * time.Millisecond})
	require.NoError(t, err)
	defer closeAll(comms)

	stray, _, err := dialAs(t, comms[1].peers[1], "0")
	require.NoError(t, err)
	require.NoError(t, stray.Close()) // no close frame: abnormal closure

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, comms[0].Send(ctx, 1, TagCount, []int64{7}))
	require.NoError(t, comms[0].Send(ctx, 1, TagPayload, []int64{8, 9}))

	got, err := comms[1].Recv(ctx, 0, TagCount)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, got)
	got, err = comms[1].Recv(ctx, 0, TagPayload)
	require.NoError(t, err)
	assert.Equal(t, []int64{8, 9}, got)
}

func TestWSRefusesDuplicateInbound(t *testing.T) {
	comms, err := LoopbackWS(2, nil)
	require.NoError(t, err)
	defer closeAll(comms)

	first, _, err := dialAs(t, comms[1].peers[1], "0")
	require.NoError(t, err)
	defer first.Close()

	_, resp, err := dialAs(t, comms[1].peers[1], "0")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Another source rank is unaffected.
	other, _, err := dialAs(t, comms[1].peers[1], "1")
	require.NoError(t, err)
	other.Close()
}
