package fault

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dagbft/dagmon/libs/log"
	"github.com/dagbft/dagmon/libs/service"
)

// Scheduler opens the fault window at a fixed offset from its start and
// closes it again after the configured duration. Both transitions are
// one-shot events on a single timer, so cancellation and simulated-clock
// testing stay tractable.
type Scheduler struct {
	service.BaseService
	logger log.Logger

	cell        *Cell
	startOffset time.Duration
	duration    time.Duration
	clock       clock.Clock

	start time.Time
	timer *clock.Timer

	stopping chan struct{}
	done     chan struct{}
}

// NewScheduler creates a scheduler using the wall clock.
func NewScheduler(logger log.Logger, cell *Cell, startOffset, duration time.Duration) *Scheduler {
	return NewSchedulerWithClock(logger, cell, startOffset, duration, clock.New())
}

// NewSchedulerWithClock creates a scheduler on an injected clock. Tests pass
// a mock clock to drive the window deterministically.
func NewSchedulerWithClock(
	logger log.Logger,
	cell *Cell,
	startOffset, duration time.Duration,
	c clock.Clock,
) *Scheduler {
	s := &Scheduler{
		logger:      logger,
		cell:        cell,
		startOffset: startOffset,
		duration:    duration,
		clock:       c,
		stopping:    make(chan struct{}),
		done:        make(chan struct{}),
	}
	s.BaseService = *service.NewBaseService(logger, "FaultScheduler", s)
	return s
}

// OnStart implements service.Implementation. The timer is armed before the
// run loop spawns so an injected mock clock can be advanced as soon as Start
// returns.
func (s *Scheduler) OnStart(ctx context.Context) error {
	s.start = s.clock.Now()
	s.timer = s.clock.Timer(s.startOffset)
	go s.run(ctx)
	return nil
}

// OnStop implements service.Implementation.
func (s *Scheduler) OnStop() {
	close(s.stopping)
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	defer s.timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-s.stopping:
		return
	case <-s.timer.C:
	}

	// re-arm before flipping the switch so that observing the open window
	// implies the closing event is already scheduled
	s.timer.Reset(s.duration)
	s.cell.Set(true)
	s.logger.Info("fault window opened",
		"elapsed", s.clock.Since(s.start).String(),
		"duration", s.duration.String())

	select {
	case <-ctx.Done():
		s.cell.Set(false)
		return
	case <-s.stopping:
		s.cell.Set(false)
		return
	case <-s.timer.C:
	}

	s.cell.Set(false)
	s.logger.Info("fault window closed", "elapsed", s.clock.Since(s.start).String())
}
