// Package transport provides the best-effort plumbing of the harness: a
// fire-and-forget framed TCP sender used for cleanup broadcasts and a framed
// listener feeding the certificate ingress. Reliable delivery and retry are
// deliberately out of scope; they belong to the node's real transport layer.
package transport

import (
	"context"
	"encoding/binary"
	"net"
	"sync"
	"time"

	"github.com/creachadair/taskgroup"

	"github.com/dagbft/dagmon/libs/log"
)

const defaultDialTimeout = 3 * time.Second

// Broadcaster delivers a payload to a set of peer addresses, best-effort.
// There is no return value and no retry guarantee: failures are logged and
// swallowed.
type Broadcaster interface {
	Broadcast(ctx context.Context, addrs []string, payload []byte)
	Send(ctx context.Context, addr string, payload []byte)
}

// SimpleSender keeps one lazily dialed TCP connection per peer and writes
// length-framed payloads to it. A send that fails drops the cached
// connection so the next send redials.
type SimpleSender struct {
	logger      log.Logger
	dialTimeout time.Duration

	mtx   sync.Mutex
	conns map[string]net.Conn
}

var _ Broadcaster = (*SimpleSender)(nil)

// NewSimpleSender creates a sender with no open connections.
func NewSimpleSender(logger log.Logger) *SimpleSender {
	return &SimpleSender{
		logger:      logger,
		dialTimeout: defaultDialTimeout,
		conns:       make(map[string]net.Conn),
	}
}

// Broadcast sends the payload to every address concurrently and returns when
// all attempts finished. Unreachable peers degrade silently apart from a log
// entry.
func (s *SimpleSender) Broadcast(ctx context.Context, addrs []string, payload []byte) {
	g := taskgroup.New(nil)
	for _, addr := range addrs {
		addr := addr
		g.Go(func() error {
			s.Send(ctx, addr, payload)
			return nil
		})
	}
	_ = g.Wait()
}

// Send writes one framed payload to the peer, dialing if needed.
func (s *SimpleSender) Send(ctx context.Context, addr string, payload []byte) {
	conn, err := s.conn(ctx, addr)
	if err != nil {
		s.logger.Error("failed to dial peer", "addr", addr, "err", err)
		return
	}

	if err := WriteFrame(conn, payload); err != nil {
		s.logger.Error("failed to send payload", "addr", addr, "err", err)
		s.drop(addr)
	}
}

// Close closes all cached connections.
func (s *SimpleSender) Close() {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for addr, conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, addr)
	}
}

func (s *SimpleSender) conn(ctx context.Context, addr string) (net.Conn, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if conn, ok := s.conns[addr]; ok {
		return conn, nil
	}

	dialer := net.Dialer{Timeout: s.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	s.conns[addr] = conn
	return conn, nil
}

func (s *SimpleSender) drop(addr string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if conn, ok := s.conns[addr]; ok {
		_ = conn.Close()
		delete(s.conns, addr)
	}
}

// WriteFrame writes a 4-byte big-endian length header followed by the
// payload.
func WriteFrame(conn net.Conn, payload []byte) error {
	frame := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[4:], payload)
	_, err := conn.Write(frame)
	return err
}
