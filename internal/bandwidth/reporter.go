package bandwidth

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dagbft/dagmon/libs/log"
	"github.com/dagbft/dagmon/libs/service"
)

const (
	// DefaultSummaryEvery is the number of ticks between two full summaries
	// in interval mode.
	DefaultSummaryEvery = 10

	// flushGrace is how long the reporter lingers after the final summary so
	// the log writer can flush before the process exits.
	flushGrace = 200 * time.Millisecond
)

// Reporter periodically or event-drivenly emits bandwidth reports for every
// registered channel and a final summary on shutdown.
//
// The two modes are mutually exclusive per deployment: an interval reporter
// ticks on a fixed period, a wave reporter follows the wave watch fed by the
// round coordinator. The final summary is only emitted on a graceful stop; an
// abrupt kill loses it.
type Reporter struct {
	service.BaseService
	logger log.Logger

	registry *Registry
	metrics  *Metrics

	// interval mode
	interval     time.Duration
	summaryEvery uint64
	round        *atomic.Uint64 // optional, annotates tick lines

	// wave mode
	watch    *WaveWatch
	lastWave uint64

	stopping chan struct{}
	done     chan struct{}
}

// NewIntervalReporter creates a reporter that emits one report line per
// channel on every tick of the given interval and a full summary every
// summaryEvery ticks. round may be nil; when set, tick lines carry the
// current consensus round.
func NewIntervalReporter(
	logger log.Logger,
	registry *Registry,
	metrics *Metrics,
	interval time.Duration,
	summaryEvery uint64,
	round *atomic.Uint64,
) *Reporter {
	if summaryEvery == 0 {
		summaryEvery = DefaultSummaryEvery
	}
	r := &Reporter{
		logger:       logger,
		registry:     registry,
		metrics:      metrics,
		interval:     interval,
		summaryEvery: summaryEvery,
		round:        round,
		stopping:     make(chan struct{}),
		done:         make(chan struct{}),
	}
	r.BaseService = *service.NewBaseService(logger, "Reporter", r)
	return r
}

// NewWaveReporter creates a reporter that emits a per-channel wave report
// whenever the watch advances to a strictly greater wave, then resets every
// channel's wave bucket.
func NewWaveReporter(
	logger log.Logger,
	registry *Registry,
	metrics *Metrics,
	watch *WaveWatch,
) *Reporter {
	r := &Reporter{
		logger:   logger,
		registry: registry,
		metrics:  metrics,
		watch:    watch,
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
	}
	r.BaseService = *service.NewBaseService(logger, "Reporter", r)
	return r
}

// OnStart implements service.Implementation.
func (r *Reporter) OnStart(ctx context.Context) error {
	go r.run(ctx)
	return nil
}

// OnStop implements service.Implementation. It blocks until the final
// summary has been emitted and the flush grace period has elapsed.
func (r *Reporter) OnStop() {
	close(r.stopping)
	<-r.done
}

func (r *Reporter) run(ctx context.Context) {
	defer close(r.done)

	var tickCh <-chan time.Time
	if r.watch == nil {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		tickCh = ticker.C
	}

	var waveCh <-chan struct{}
	if r.watch != nil {
		waveCh = r.watch.Changed()
	}

	var tickCount uint64
	for {
		select {
		case <-ctx.Done():
			r.finalize()
			return

		case <-r.stopping:
			r.finalize()
			return

		case <-tickCh:
			tickCount++
			r.reportTick()
			if tickCount%r.summaryEvery == 0 {
				r.logger.Info("periodic bandwidth summary",
					"every", (r.interval * time.Duration(r.summaryEvery)).String())
				r.logger.Info(r.registry.Snapshot().String())
			}

		case <-waveCh:
			r.reportWave(r.watch.Latest())
		}
	}
}

// reportTick emits one line per channel with the instantaneous rate since
// creation and the cumulative totals.
func (r *Reporter) reportTick() {
	var round interface{}
	if r.round != nil {
		round = r.round.Load()
	}

	for _, s := range r.registry.List() {
		bytes, messages, bps := s.TotalSnapshot()
		keyVals := []interface{}{
			"channel", s.Name(),
			"mbps", fmt.Sprintf("%.2f", bps/1e6),
			"gbps", fmt.Sprintf("%.2f", bps/1e9),
			"total_bytes", formatCount(bytes),
			"messages", formatCount(messages),
		}
		if round != nil {
			keyVals = append(keyVals, "round", round)
		}
		r.logger.Info("channel bandwidth", keyVals...)
	}
}

// reportWave emits the wave report for every channel and resets the wave
// buckets. Waves not strictly greater than the last processed one are
// ignored.
func (r *Reporter) reportWave(wave uint64) {
	if wave <= atomic.LoadUint64(&r.lastWave) {
		return
	}

	for _, s := range r.registry.List() {
		bytes, messages, bps := s.WaveSnapshot()
		r.logger.Info("wave bandwidth",
			"channel", s.Name(),
			"wave", wave,
			"mbps", fmt.Sprintf("%.2f", bps/1e6),
			"gbps", fmt.Sprintf("%.2f", bps/1e9),
			"wave_bytes", formatCount(bytes),
			"wave_messages", formatCount(messages),
		)
	}

	for _, s := range r.registry.List() {
		s.ResetWave()
	}

	atomic.StoreUint64(&r.lastWave, wave)
	r.metrics.LastWave.Set(float64(wave))
}

// finalize emits the final summary and waits a short grace period so the log
// writer can flush.
func (r *Reporter) finalize() {
	r.logger.Info("generating final bandwidth summary")
	r.logger.Info(r.registry.Snapshot().String())
	time.Sleep(flushGrace)
}

// LastWave returns the last wave processed by a wave-mode reporter.
func (r *Reporter) LastWave() uint64 {
	return atomic.LoadUint64(&r.lastWave)
}
