// Package gc bridges consensus progress to state cleanup and telemetry
// windowing. The coordinator consumes the ordered certificate stream, keeps
// the shared consensus round up to date, publishes the wave signal and
// broadcasts cleanup requests to the local node's workers.
package gc

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/gogo/protobuf/proto"

	"github.com/dagbft/dagmon/internal/transport"
	"github.com/dagbft/dagmon/libs/log"
	"github.com/dagbft/dagmon/libs/service"
	dagmonproto "github.com/dagbft/dagmon/proto/dagmon"
	"github.com/dagbft/dagmon/types"
)

// WavePublisher receives the wave marker on every round advance. Publishing
// must never block; latest-wins semantics are the publisher's concern.
type WavePublisher interface {
	Publish(wave uint64)
}

// Coordinator receives the highest round reached by consensus and updates it
// for all tasks. Certificates arrive in commit order; duplicates and
// retrograde deliveries are tolerated through a strict-greater-than guard.
type Coordinator struct {
	service.BaseService
	logger log.Logger

	// The current consensus round, read by retention logic elsewhere.
	round *atomic.Uint64
	// Ordered certificates from consensus.
	certs <-chan types.Certificate
	// Network addresses of our workers.
	workerAddrs []string
	// Best-effort sender used for cleanup broadcasts.
	sender transport.Broadcaster
	// Wave signal for the telemetry subsystem. May be nil.
	waves   WavePublisher
	metrics *Metrics

	lastCommitted uint64 // atomic
	stopping      chan struct{}
	done          chan struct{}
}

// NewCoordinator creates a coordinator. waves may be nil when telemetry runs
// in interval mode.
func NewCoordinator(
	logger log.Logger,
	round *atomic.Uint64,
	certs <-chan types.Certificate,
	workerAddrs []string,
	sender transport.Broadcaster,
	waves WavePublisher,
	metrics *Metrics,
) *Coordinator {
	c := &Coordinator{
		logger:      logger,
		round:       round,
		certs:       certs,
		workerAddrs: workerAddrs,
		sender:      sender,
		waves:       waves,
		metrics:     metrics,
		stopping:    make(chan struct{}),
		done:        make(chan struct{}),
	}
	c.BaseService = *service.NewBaseService(logger, "RoundCoordinator", c)
	return c
}

// OnStart implements service.Implementation.
func (c *Coordinator) OnStart(ctx context.Context) error {
	go c.run(ctx)
	return nil
}

// OnStop implements service.Implementation.
func (c *Coordinator) OnStop() {
	close(c.stopping)
	<-c.done
}

// LastCommittedRound returns the highest round observed so far.
func (c *Coordinator) LastCommittedRound() uint64 {
	return atomic.LoadUint64(&c.lastCommitted)
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopping:
			return
		case cert, ok := <-c.certs:
			if !ok {
				c.logger.Info("certificate stream closed")
				return
			}
			c.advance(ctx, cert.Round)
		}
	}
}

// advance applies one observed round. Rounds not strictly greater than the
// last committed one are ignored.
func (c *Coordinator) advance(ctx context.Context, round uint64) {
	if round <= atomic.LoadUint64(&c.lastCommitted) {
		return
	}
	atomic.StoreUint64(&c.lastCommitted, round)

	// Trigger cleanup on the primary.
	c.round.Store(round)

	// Round doubles as the telemetry wave.
	if c.waves != nil {
		c.waves.Publish(round)
	}
	c.logger.Info("wave update", "wave", round, "round", round)
	c.metrics.CurrentRound.Set(float64(round))

	// Trigger cleanup on the workers. The broadcast is unacknowledged and
	// not retried here; round advancement already happened regardless of
	// its outcome.
	payload, err := proto.Marshal(&dagmonproto.CleanupRequest{Round: round})
	if err != nil {
		panic(fmt.Sprintf("failed to serialize our own cleanup request: %v", err))
	}
	c.sender.Broadcast(ctx, c.workerAddrs, payload)
	c.metrics.CleanupsBroadcast.Add(1)
}
