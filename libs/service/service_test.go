package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dagbft/dagmon/libs/log"
)

type testService struct {
	started chan struct{}
	stopped chan struct{}
	*BaseService
}

func (t *testService) OnStart(context.Context) error {
	close(t.started)
	return nil
}

func (t *testService) OnStop() {
	close(t.stopped)
}

func newTestService(t *testing.T) *testService {
	t.Helper()

	ts := &testService{
		started: make(chan struct{}),
		stopped: make(chan struct{}),
	}
	ts.BaseService = NewBaseService(log.NewTestingLogger(t), "testService", ts)
	return ts
}

func TestBaseServiceStartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts := newTestService(t)
	require.NoError(t, ts.Start(ctx))
	<-ts.started
	require.True(t, ts.IsRunning())

	// starting twice must fail
	require.ErrorIs(t, ts.Start(ctx), ErrAlreadyStarted)

	require.NoError(t, ts.Stop())
	<-ts.stopped
	require.False(t, ts.IsRunning())
	require.ErrorIs(t, ts.Stop(), ErrAlreadyStopped)

	ts.Wait()
}

func TestBaseServiceContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts := newTestService(t)
	require.NoError(t, ts.Start(ctx))
	<-ts.started

	cancel()

	select {
	case <-ts.stopped:
	case <-time.After(time.Second):
		t.Fatal("service did not stop on context cancellation")
	}
	ts.Wait()
}

func TestBaseServiceStopWithoutStart(t *testing.T) {
	ts := newTestService(t)
	require.ErrorIs(t, ts.Stop(), ErrNotStarted)
}
