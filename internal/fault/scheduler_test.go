package fault

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagbft/dagmon/libs/log"
)

func TestSchedulerWindow(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mock := clock.NewMock()
	cell := NewCell()
	s := NewSchedulerWithClock(log.NewTestingLogger(t), cell,
		10*time.Second, 5*time.Second, mock)
	require.NoError(t, s.Start(ctx))

	// t=5s: still armed, not yet active
	mock.Add(5 * time.Second)
	assert.False(t, cell.Enabled())

	// t=12s: inside the window
	mock.Add(7 * time.Second)
	require.Eventually(t, cell.Enabled, time.Second, time.Millisecond)

	// t=17s: window closed again
	mock.Add(5 * time.Second)
	require.Eventually(t, func() bool { return !cell.Enabled() }, time.Second, time.Millisecond)

	require.NoError(t, s.Stop())
}

// The window gates the injector: with start_offset=10s and duration=5s only a
// cross-group attack inside [10s, 15s) is delayed.
func TestSchedulerGatesInjector(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mock := clock.NewMock()
	cell := NewCell()
	inj := NewInjector(cell, testGroups(), testDelay)
	s := NewSchedulerWithClock(log.NewTestingLogger(t), cell,
		10*time.Second, 5*time.Second, mock)
	require.NoError(t, s.Start(ctx))

	// simulated t=5s: before the window
	mock.Add(5 * time.Second)
	assert.Less(t, attackElapsed(t, inj, "node0", "node1"), testDelay)

	// simulated t=12s: inside the window
	mock.Add(7 * time.Second)
	require.Eventually(t, cell.Enabled, time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, attackElapsed(t, inj, "node0", "node1"), testDelay)

	// simulated t=17s: after the window
	mock.Add(5 * time.Second)
	require.Eventually(t, func() bool { return !cell.Enabled() }, time.Second, time.Millisecond)
	assert.Less(t, attackElapsed(t, inj, "node0", "node1"), testDelay)

	require.NoError(t, s.Stop())
}

func TestSchedulerStopMidWindowDisables(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mock := clock.NewMock()
	cell := NewCell()
	s := NewSchedulerWithClock(log.NewTestingLogger(t), cell,
		time.Second, time.Minute, mock)
	require.NoError(t, s.Start(ctx))

	mock.Add(2 * time.Second)
	require.Eventually(t, cell.Enabled, time.Second, time.Millisecond)

	require.NoError(t, s.Stop())
	assert.False(t, cell.Enabled())
}
