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
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSPath is the HTTP path every rank serves its websocket endpoint on.
const WSPath = "/hyperqsort/v1"

// WSOptions configures a WSComm. The zero value is usable.
type WSOptions struct {
	// Logger receives connection-level events. Defaults to discarding.
	Logger *slog.Logger

	// InboxDepth is the number of decoded messages buffered per source rank.
	// Defaults to 64.
	InboxDepth int

	// DialRetry is the pause between attempts to reach a peer that is not
	// listening yet. Defaults to 50ms.
	DialRetry time.Duration
}

// WSComm is a communicator whose ranks are separate processes connected by
// websockets. Every rank listens on peers[rank]; the first Send to a peer
// dials it, and that one connection carries every later message in that
// direction, which keeps per-pair ordering.
//
// Frames are binary: one tag byte followed by the values as little-endian
// 64-bit integers.
type WSComm struct {
	rank      int
	peers     []string
	srv       *http.Server
	upgrader  websocket.Upgrader
	dialer    websocket.Dialer
	logger    *slog.Logger
	dialRetry time.Duration

	mu      sync.Mutex
	out     []*wsConn
	dialMu  []sync.Mutex
	inbound map[*websocket.Conn]struct{}
	claimed []bool

	inbox     []chan message
	broken    []chan struct{}
	brokenErr []error
	breakOnce []sync.Once

	stats     counters
	done      chan struct{}
	closeOnce sync.Once
}

type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

var _ Comm = (*WSComm)(nil)

// ListenWS listens on peers[rank] and returns the communicator for rank.
func ListenWS(rank int, peers []string, opts *WSOptions) (*WSComm, error) {
	if err := checkPeer(rank, len(peers)); err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", peers[rank])
	if err != nil {
		return nil, fmt.Errorf("comm: listen %s: %w", peers[rank], err)
	}
	return NewWSComm(rank, ln, peers, opts)
}

// NewWSComm serves rank's endpoint on ln, which must be reachable at
// peers[rank]. The communicator owns ln and closes it in Close.
func NewWSComm(rank int, ln net.Listener, peers []string, opts *WSOptions) (*WSComm, error) {
	if err := checkPeer(rank, len(peers)); err != nil {
		ln.Close()
		return nil, err
	}
	var o WSOptions
	if opts != nil {
		o = *opts
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.InboxDepth <= 0 {
		o.InboxDepth = 64
	}
	if o.DialRetry <= 0 {
		o.DialRetry = 50 * time.Millisecond
	}

	size := len(peers)
	c := &WSComm{
		rank:      rank,
		peers:     peers,
		logger:    o.Logger.With("rank", rank),
		dialRetry: o.DialRetry,
		dialer:    websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		out:       make([]*wsConn, size),
		dialMu:    make([]sync.Mutex, size),
		inbound:   make(map[*websocket.Conn]struct{}),
		claimed:   make([]bool, size),
		inbox:     make([]chan message, size),
		broken:    make([]chan struct{}, size),
		brokenErr: make([]error, size),
		breakOnce: make([]sync.Once, size),
		done:      make(chan struct{}),
	}
	for i := range size {
		c.inbox[i] = make(chan message, o.InboxDepth)
		c.broken[i] = make(chan struct{})
	}

	mux := http.NewServeMux()
	mux.HandleFunc(WSPath, c.serve)
	c.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := c.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("websocket server stopped", "err", err)
		}
	}()
	return c, nil
}

// LoopbackWS creates size communicators listening on ephemeral loopback
// ports, wired to each other. Used to run a websocket group inside one
// process.
func LoopbackWS(size int, opts *WSOptions) ([]*WSComm, error) {
	listeners := make([]net.Listener, 0, size)
	peers := make([]string, 0, size)
	for range size {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			for _, l := range listeners {
				l.Close()
			}
			return nil, fmt.Errorf("comm: listen loopback: %w", err)
		}
		listeners = append(listeners, ln)
		peers = append(peers, ln.Addr().String())
	}

	comms := make([]*WSComm, size)
	for rank, ln := range listeners {
		c, err := NewWSComm(rank, ln, peers, opts)
		if err != nil {
			for _, prev := range comms[:rank] {
				prev.Close()
			}
			for _, l := range listeners[rank+1:] {
				l.Close()
			}
			return nil, err
		}
		comms[rank] = c
	}
	return comms, nil
}

// Rank implements Comm.
func (c *WSComm) Rank() int { return c.rank }

// Size implements Comm; it is the length of the peer list.
func (c *WSComm) Size() int { return len(c.peers) }

// Stats returns this rank's traffic counters.
func (c *WSComm) Stats() Stats { return c.stats.snapshot() }

func (c *WSComm) serve(w http.ResponseWriter, r *http.Request) {
	src, err := strconv.Atoi(r.URL.Query().Get("rank"))
	if err == nil {
		err = checkPeer(src, len(c.peers))
	}
	if err != nil {
		http.Error(w, "bad rank", http.StatusBadRequest)
		return
	}

	// One inbound connection per source. A second one is refused until the
	// first ends; the dialing side retries.
	c.mu.Lock()
	if c.claimed[src] {
		c.mu.Unlock()
		c.logger.Warn("refusing duplicate connection", "src", src, "remote", r.RemoteAddr)
		http.Error(w, "rank already connected", http.StatusConflict)
		return
	}
	c.claimed[src] = true
	c.mu.Unlock()

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.release(src)
		c.logger.Warn("websocket upgrade failed", "src", src, "err", err)
		return
	}

	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		c.release(src)
		conn.Close()
		return
	default:
	}
	c.inbound[conn] = struct{}{}
	c.mu.Unlock()

	c.logger.Debug("peer connected", "src", src)
	c.readLoop(src, conn)
}

func (c *WSComm) release(src int) {
	c.mu.Lock()
	c.claimed[src] = false
	c.mu.Unlock()
}

// readLoop decodes frames from src into its inbox until the connection ends.
// A connection that ends before delivering any frame, such as an abandoned
// handshake, leaves src usable; later failures mark src broken.
func (c *WSComm) readLoop(src int, conn *websocket.Conn) {
	delivered := 0
	var endErr error
	defer func() {
		c.mu.Lock()
		delete(c.inbound, conn)
		c.claimed[src] = false
		c.mu.Unlock()
		conn.Close()
		if delivered > 0 {
			c.markBroken(src, endErr)
		} else {
			c.logger.Debug("dropped idle connection", "src", src, "err", endErr)
		}
	}()

	for {
		typ, frame, err := conn.ReadMessage()
		if err != nil {
			endErr = err
			return
		}
		if typ != websocket.BinaryMessage {
			c.logger.Warn("ignoring non-binary frame", "src", src, "type", typ)
			continue
		}
		msg, err := decodeFrame(frame)
		if err != nil {
			c.logger.Error("dropping connection", "src", src, "err", err)
			endErr = err
			return
		}
		select {
		case c.inbox[src] <- msg:
			delivered++
		case <-c.done:
			endErr = ErrClosed
			return
		}
	}
}

func (c *WSComm) markBroken(src int, err error) {
	select {
	case <-c.done:
		return
	default:
	}
	c.breakOnce[src].Do(func() {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			c.logger.Debug("peer disconnected", "src", src)
			err = fmt.Errorf("%w: rank %d disconnected", ErrClosed, src)
		} else {
			c.logger.Warn("peer connection lost", "src", src, "err", err)
			err = fmt.Errorf("comm: connection from rank %d: %w", src, err)
		}
		c.brokenErr[src] = err
		close(c.broken[src])
	})
}

// conn returns the outbound connection to dst, dialing it if needed. It
// retries until the peer accepts or ctx ends, since peers start in any order.
func (c *WSComm) conn(ctx context.Context, dst int) (*wsConn, error) {
	c.dialMu[dst].Lock()
	defer c.dialMu[dst].Unlock()

	c.mu.Lock()
	wc := c.out[dst]
	c.mu.Unlock()
	if wc != nil {
		return wc, nil
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     c.peers[dst],
		Path:     WSPath,
		RawQuery: url.Values{"rank": {strconv.Itoa(c.rank)}}.Encode(),
	}
	for {
		conn, _, err := c.dialer.DialContext(ctx, u.String(), nil)
		if err == nil {
			wc = &wsConn{conn: conn}
			c.mu.Lock()
			select {
			case <-c.done:
				c.mu.Unlock()
				conn.Close()
				return nil, ErrClosed
			default:
			}
			c.out[dst] = wc
			c.mu.Unlock()
			c.logger.Debug("dialed peer", "dst", dst, "addr", c.peers[dst])
			return wc, nil
		}
		c.logger.Debug("peer not reachable yet", "dst", dst, "err", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("comm: dial rank %d: %w", dst, ctx.Err())
		case <-c.done:
			return nil, ErrClosed
		case <-time.After(c.dialRetry):
		}
	}
}

// Send writes one frame to dst.
func (c *WSComm) Send(ctx context.Context, dst int, tag Tag, data []int64) error {
	if err := checkPeer(dst, len(c.peers)); err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	wc, err := c.conn(ctx, dst)
	if err != nil {
		return err
	}

	frame := encodeFrame(tag, data)
	wc.mu.Lock()
	defer wc.mu.Unlock()
	deadline, _ := ctx.Deadline()
	if err := wc.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("comm: send to rank %d: %w", dst, err)
	}
	if err := wc.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("comm: send to rank %d: %w", dst, err)
	}
	c.stats.sent(len(data))
	return nil
}

// Recv takes the next message from src. Messages that arrived before the
// connection from src dropped are still delivered.
func (c *WSComm) Recv(ctx context.Context, src int, tag Tag) ([]int64, error) {
	if err := checkPeer(src, len(c.peers)); err != nil {
		return nil, err
	}
	var msg message
	select {
	case msg = <-c.inbox[src]:
	case <-c.broken[src]:
		select {
		case msg = <-c.inbox[src]:
		default:
			return nil, c.brokenErr[src]
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrClosed
	}
	if err := matchTag(src, tag, msg); err != nil {
		return nil, err
	}
	c.stats.received(len(msg.data))
	return msg.data, nil
}

// Close sends a close frame on every outbound connection, drops inbound
// connections and stops the server. Calling Close multiple times is safe.
func (c *WSComm) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		close(c.done)
		out := c.out
		inbound := make([]*websocket.Conn, 0, len(c.inbound))
		for conn := range c.inbound {
			inbound = append(inbound, conn)
		}
		c.mu.Unlock()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		for _, wc := range out {
			if wc == nil {
				continue
			}
			wc.mu.Lock()
			_ = wc.conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
			wc.conn.Close()
			wc.mu.Unlock()
		}
		for _, conn := range inbound {
			conn.Close()
		}
		err = c.srv.Close()
	})
	return err
}

func encodeFrame(tag Tag, data []int64) []byte {
	frame := make([]byte, 1+8*len(data))
	frame[0] = byte(tag)
	for i, v := range data {
		binary.LittleEndian.PutUint64(frame[1+8*i:], uint64(v))
	}
	return frame
}

func decodeFrame(frame []byte) (message, error) {
	if len(frame) == 0 || (len(frame)-1)%8 != 0 {
		return message{}, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(frame))
	}
	tag := Tag(frame[0])
	if tag < TagPivot || tag > TagPayload {
		return message{}, fmt.Errorf("%w: unknown tag %d", ErrBadFrame, frame[0])
	}
	data := make([]int64, (len(frame)-1)/8)
	for i := range data {
		data[i] = int64(binary.LittleEndian.Uint64(frame[1+8*i:]))
	}
	return message{tag: tag, data: data}, nil
}
