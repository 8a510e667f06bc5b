// Package node wires the fault injector, the bandwidth telemetry and the
// round coordinator into one runnable service.
package node

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gogo/protobuf/proto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dagbft/dagmon/config"
	"github.com/dagbft/dagmon/internal/bandwidth"
	"github.com/dagbft/dagmon/internal/fault"
	"github.com/dagbft/dagmon/internal/gc"
	"github.com/dagbft/dagmon/internal/transport"
	"github.com/dagbft/dagmon/libs/log"
	"github.com/dagbft/dagmon/libs/service"
	dagmonproto "github.com/dagbft/dagmon/proto/dagmon"
	"github.com/dagbft/dagmon/types"
)

// ConsensusOutputChannel is the monitored channel accounting the certificate
// ingress.
const ConsensusOutputChannel = "consensus_output"

const certBufferSize = 1000

// Node is the fault-injection and telemetry harness of one primary.
type Node struct {
	service.BaseService
	logger log.Logger
	cfg    *config.Config

	round    *atomic.Uint64
	registry *bandwidth.Registry
	injector *fault.Injector

	scheduler   *fault.Scheduler // nil unless fault injection is enabled
	reporter    *bandwidth.Reporter
	coordinator *gc.Coordinator
	receiver    *transport.Receiver
	sender      *transport.SimpleSender

	certs   chan types.Certificate
	promSrv *http.Server
}

// New builds a node from a validated configuration.
func New(cfg *config.Config, logger log.Logger) (*Node, error) {
	if err := cfg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	bwMetrics := bandwidth.NopMetrics()
	gcMetrics := gc.NopMetrics()
	if cfg.Instrumentation.Prometheus {
		bwMetrics = bandwidth.PrometheusMetrics(cfg.Instrumentation.Namespace)
		gcMetrics = gc.PrometheusMetrics(cfg.Instrumentation.Namespace)
	}

	n := &Node{
		logger:   logger,
		cfg:      cfg,
		round:    new(atomic.Uint64),
		registry: bandwidth.NewRegistry(bwMetrics),
		certs:    make(chan types.Certificate, certBufferSize),
		sender:   transport.NewSimpleSender(logger.With("module", "transport")),
	}

	// The stats of the ingress channel exist from process start, even if no
	// certificate ever arrives.
	n.registry.Channel(ConsensusOutputChannel)

	// Fault injection: one shared enable cell, flipped exactly twice by the
	// scheduler. With injection disabled callers get the identical
	// pass-through signature.
	if cfg.Fault.Enabled {
		cell := fault.NewCell()
		n.injector = fault.NewInjector(cell, cfg.Fault.Groups, cfg.Fault.Delay)
		n.scheduler = fault.NewScheduler(
			logger.With("module", "fault"),
			cell,
			cfg.Fault.StartOffset,
			cfg.Fault.Duration,
		)
	} else {
		n.injector = fault.NewNoopInjector()
	}

	var waves *bandwidth.WaveWatch
	switch cfg.Telemetry.Mode {
	case config.TelemetryModeWave:
		waves = bandwidth.NewWaveWatch()
		n.reporter = bandwidth.NewWaveReporter(
			logger.With("module", "telemetry"),
			n.registry,
			bwMetrics,
			waves,
		)
	default:
		n.reporter = bandwidth.NewIntervalReporter(
			logger.With("module", "telemetry"),
			n.registry,
			bwMetrics,
			cfg.Telemetry.ReportInterval,
			cfg.Telemetry.SummaryEveryNTicks,
			n.round,
		)
	}

	var wavePublisher gc.WavePublisher
	if waves != nil {
		wavePublisher = waves
	}
	n.coordinator = gc.NewCoordinator(
		logger.With("module", "gc"),
		n.round,
		n.certs,
		cfg.WorkerAddresses,
		n.sender,
		wavePublisher,
		gcMetrics,
	)

	n.receiver = transport.NewReceiver(
		logger.With("module", "transport"),
		cfg.CertListenAddress,
		n.handleCertificate,
	)

	n.BaseService = *service.NewBaseService(logger, "Node", n)
	return n, nil
}

// OnStart implements service.Implementation.
func (n *Node) OnStart(ctx context.Context) error {
	if n.scheduler != nil {
		if err := n.scheduler.Start(ctx); err != nil {
			return err
		}
	}
	if err := n.reporter.Start(ctx); err != nil {
		return err
	}
	if err := n.coordinator.Start(ctx); err != nil {
		return err
	}
	if err := n.receiver.Start(ctx); err != nil {
		return err
	}

	if n.cfg.Instrumentation.Prometheus {
		n.promSrv = n.startPrometheusServer(n.cfg.Instrumentation.PrometheusListenAddr)
	}

	return nil
}

// OnStop implements service.Implementation. Services stop in reverse
// dependency order; the reporter stops last among the consumers so the final
// summary reflects everything received.
func (n *Node) OnStop() {
	if n.promSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = n.promSrv.Shutdown(ctx)
	}

	n.stopService(n.receiver)
	n.stopService(n.coordinator)
	n.stopService(n.reporter)
	if n.scheduler != nil {
		n.stopService(n.scheduler)
	}
	n.sender.Close()
}

type stopper interface {
	Stop() error
	String() string
}

func (n *Node) stopService(s stopper) {
	if err := s.Stop(); err != nil && err != service.ErrNotStarted {
		n.logger.Error("error stopping service", "service", s.String(), "err", err)
	}
}

// handleCertificate decodes one framed certificate, accounts it on the
// ingress channel stats and forwards it to the round coordinator.
func (n *Node) handleCertificate(payload []byte) error {
	pb := new(dagmonproto.Certificate)
	if err := proto.Unmarshal(payload, pb); err != nil {
		return fmt.Errorf("failed to decode certificate: %w", err)
	}

	n.registry.Record(ConsensusOutputChannel, len(payload))

	// The coordinator only cares about the highest round, so shedding under
	// overload cannot regress it.
	select {
	case n.certs <- types.CertificateFromProto(pb):
	default:
		n.logger.Error("certificate buffer full; shedding", "round", pb.GetRound())
	}
	return nil
}

// SubmitCertificate feeds one certificate into the coordinator, for
// embedders that run consensus in-process instead of using the TCP ingress.
func (n *Node) SubmitCertificate(cert types.Certificate) {
	n.certs <- cert
}

// Injector returns the fault injector; senders call Attack before
// transmitting.
func (n *Node) Injector() *fault.Injector { return n.injector }

// Registry returns the bandwidth registry so producers can account received
// bytes on their channels.
func (n *Node) Registry() *bandwidth.Registry { return n.registry }

// Round returns the shared consensus round value read by retention logic.
func (n *Node) Round() *atomic.Uint64 { return n.round }

// CertIngressAddr returns the bound address of the certificate ingress. Only
// valid after the node started.
func (n *Node) CertIngressAddr() string { return n.receiver.Addr().String() }

func (n *Node) startPrometheusServer(addr string) *http.Server {
	srv := &http.Server{
		Addr:    addr,
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			n.logger.Error("prometheus server terminated", "err", err)
		}
	}()
	return srv
}
