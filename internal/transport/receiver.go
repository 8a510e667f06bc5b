package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/dagbft/dagmon/libs/log"
	"github.com/dagbft/dagmon/libs/service"
)

// maxFrameSize bounds a single inbound frame. Larger headers indicate a
// corrupt or hostile peer and drop the connection.
const maxFrameSize = 16 << 20

// FrameHandler consumes one inbound payload. A returned error is logged; it
// does not drop the connection.
type FrameHandler func(payload []byte) error

// Receiver listens for framed TCP payloads and hands each one to the
// configured handler. It is the ingress for the ordered certificate stream.
type Receiver struct {
	service.BaseService
	logger log.Logger

	laddr   string
	handler FrameHandler

	listener net.Listener
}

// NewReceiver creates a receiver listening on laddr once started.
func NewReceiver(logger log.Logger, laddr string, handler FrameHandler) *Receiver {
	r := &Receiver{
		logger:  logger,
		laddr:   laddr,
		handler: handler,
	}
	r.BaseService = *service.NewBaseService(logger, "Receiver", r)
	return r
}

// OnStart implements service.Implementation.
func (r *Receiver) OnStart(ctx context.Context) error {
	listener, err := net.Listen("tcp", r.laddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.laddr, err)
	}
	r.listener = listener

	go r.acceptLoop(ctx)
	return nil
}

// OnStop implements service.Implementation.
func (r *Receiver) OnStop() {
	if r.listener != nil {
		_ = r.listener.Close()
	}
}

// Addr returns the bound listener address. Only valid after OnStart.
func (r *Receiver) Addr() net.Addr { return r.listener.Addr() }

func (r *Receiver) acceptLoop(ctx context.Context) {
	for {
		conn, err := r.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
			default:
				if r.IsRunning() {
					r.logger.Error("failed to accept connection", "err", err)
				}
			}
			return
		}

		go r.serveConn(ctx, conn)
	}
}

func (r *Receiver) serveConn(ctx context.Context, conn net.Conn) {
	connDone := make(chan struct{})
	defer close(connDone)
	defer conn.Close()

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-connDone:
		}
	}()

	var header [4]byte
	for {
		if _, err := io.ReadFull(conn, header[:]); err != nil {
			if err != io.EOF && ctx.Err() == nil {
				r.logger.Error("failed to read frame header", "peer", conn.RemoteAddr(), "err", err)
			}
			return
		}

		size := binary.BigEndian.Uint32(header[:])
		if size > maxFrameSize {
			r.logger.Error("oversized frame; dropping connection",
				"peer", conn.RemoteAddr(), "size", size)
			return
		}

		payload := make([]byte, size)
		if _, err := io.ReadFull(conn, payload); err != nil {
			if ctx.Err() == nil {
				r.logger.Error("failed to read frame payload", "peer", conn.RemoteAddr(), "err", err)
			}
			return
		}

		if err := r.handler(payload); err != nil {
			r.logger.Error("failed to handle payload", "peer", conn.RemoteAddr(), "err", err)
		}
	}
}
