package gc_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/gogo/protobuf/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagbft/dagmon/internal/gc"
	"github.com/dagbft/dagmon/libs/log"
	dagmonproto "github.com/dagbft/dagmon/proto/dagmon"
	"github.com/dagbft/dagmon/types"
)

// fakeBroadcaster records every cleanup round handed to it.
type fakeBroadcaster struct {
	mtx    sync.Mutex
	rounds []uint64
	addrs  []string
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, addrs []string, payload []byte) {
	req := new(dagmonproto.CleanupRequest)
	if err := proto.Unmarshal(payload, req); err != nil {
		panic(err)
	}

	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.rounds = append(f.rounds, req.GetRound())
	f.addrs = addrs
}

func (f *fakeBroadcaster) Send(_ context.Context, _ string, _ []byte) {}

func (f *fakeBroadcaster) broadcasts() []uint64 {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]uint64(nil), f.rounds...)
}

// fakeWaves records published waves.
type fakeWaves struct {
	mtx   sync.Mutex
	waves []uint64
}

func (f *fakeWaves) Publish(wave uint64) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.waves = append(f.waves, wave)
}

func (f *fakeWaves) published() []uint64 {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]uint64(nil), f.waves...)
}

func TestCoordinatorRoundAdvance(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	certs := make(chan types.Certificate)
	round := new(atomic.Uint64)
	sender := new(fakeBroadcaster)
	waves := new(fakeWaves)
	workerAddrs := []string{"127.0.0.1:36001", "127.0.0.1:36002"}

	c := gc.NewCoordinator(log.NewTestingLogger(t), round, certs,
		workerAddrs, sender, waves, gc.NopMetrics())
	require.NoError(t, c.Start(ctx))

	// duplicates and retrograde deliveries must be ignored
	for _, r := range []uint64{1, 3, 2, 3, 5} {
		certs <- types.Certificate{Round: r, Origin: "node0"}
	}

	require.Eventually(t, func() bool { return len(sender.broadcasts()) == 3 },
		time.Second, 5*time.Millisecond)

	assert.Equal(t, []uint64{1, 3, 5}, sender.broadcasts())
	assert.Equal(t, []uint64{1, 3, 5}, waves.published())
	assert.EqualValues(t, 5, c.LastCommittedRound())
	assert.Equal(t, workerAddrs, sender.addrs)
	assert.EqualValues(t, 5, round.Load())

	require.NoError(t, c.Stop())
}

func TestCoordinatorStreamClose(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	certs := make(chan types.Certificate)
	round := new(atomic.Uint64)
	sender := new(fakeBroadcaster)

	c := gc.NewCoordinator(log.NewTestingLogger(t), round, certs,
		[]string{"127.0.0.1:36001"}, sender, nil, gc.NopMetrics())
	require.NoError(t, c.Start(ctx))

	certs <- types.Certificate{Round: 2}
	close(certs)

	require.Eventually(t, func() bool { return round.Load() == 2 },
		time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop())
	assert.EqualValues(t, 2, c.LastCommittedRound())
}

func TestCoordinatorNilWavePublisher(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	certs := make(chan types.Certificate, 1)
	c := gc.NewCoordinator(log.NewTestingLogger(t), new(atomic.Uint64), certs,
		[]string{"127.0.0.1:36001"}, new(fakeBroadcaster), nil, gc.NopMetrics())
	require.NoError(t, c.Start(ctx))

	certs <- types.Certificate{Round: 1}
	require.Eventually(t, func() bool { return c.LastCommittedRound() == 1 },
		time.Second, 5*time.Millisecond)
	require.NoError(t, c.Stop())
}
