package bandwidth_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagbft/dagmon/internal/bandwidth"
	"github.com/dagbft/dagmon/libs/log"
)

// recordingLogger captures log lines so tests can assert on emitted reports.
type recordingLogger struct {
	mtx   sync.Mutex
	lines []string
}

func (l *recordingLogger) log(msg string, keyVals ...interface{}) {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	l.lines = append(l.lines, msg+" "+fmt.Sprintln(keyVals...))
}

func (l *recordingLogger) Debug(msg string, keyVals ...interface{}) { l.log(msg, keyVals...) }
func (l *recordingLogger) Info(msg string, keyVals ...interface{})  { l.log(msg, keyVals...) }
func (l *recordingLogger) Error(msg string, keyVals ...interface{}) { l.log(msg, keyVals...) }
func (l *recordingLogger) With(keyVals ...interface{}) log.Logger   { return l }

func (l *recordingLogger) contains(substr string) bool {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func TestWaveReporter(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := bandwidth.NewRegistry(bandwidth.NopMetrics())
	registry.Record("worker_to_primary", 100)

	watch := bandwidth.NewWaveWatch()
	logger := &recordingLogger{}
	r := bandwidth.NewWaveReporter(logger, registry, bandwidth.NopMetrics(), watch)
	require.NoError(t, r.Start(ctx))

	watch.Publish(1)
	require.Eventually(t, func() bool { return r.LastWave() == 1 }, time.Second, 5*time.Millisecond)

	// the wave bucket was reset after the report
	require.Eventually(t, func() bool {
		bytes, _, _ := registry.Channel("worker_to_primary").WaveSnapshot()
		return bytes == 0
	}, time.Second, 5*time.Millisecond)
	assert.True(t, logger.contains("wave bandwidth"))

	// the cumulative bucket survives wave resets
	bytes, _, _ := registry.Channel("worker_to_primary").TotalSnapshot()
	assert.EqualValues(t, 100, bytes)

	registry.Record("worker_to_primary", 40)
	watch.Publish(3)
	require.Eventually(t, func() bool { return r.LastWave() == 3 }, time.Second, 5*time.Millisecond)

	// stale waves are dropped; the marker never goes backwards
	watch.Publish(2)
	time.Sleep(50 * time.Millisecond)
	assert.EqualValues(t, 3, r.LastWave())

	require.NoError(t, r.Stop())
	assert.True(t, logger.contains("BANDWIDTH SUMMARY"))
}

func TestIntervalReporter(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := bandwidth.NewRegistry(bandwidth.NopMetrics())
	registry.Record("consensus_output", 2048)

	round := new(atomic.Uint64)
	round.Store(7)

	logger := &recordingLogger{}
	r := bandwidth.NewIntervalReporter(logger, registry, bandwidth.NopMetrics(),
		10*time.Millisecond, 2, round)
	require.NoError(t, r.Start(ctx))

	require.Eventually(t, func() bool { return logger.contains("channel bandwidth") },
		time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return logger.contains("periodic bandwidth summary") },
		time.Second, 5*time.Millisecond)
	assert.True(t, logger.contains("consensus_output"))
	assert.True(t, logger.contains("7"))

	require.NoError(t, r.Stop())

	// the graceful stop path always emits the final summary
	assert.True(t, logger.contains("generating final bandwidth summary"))
	assert.True(t, logger.contains("BANDWIDTH SUMMARY"))
}

func TestIntervalReporterContextCancel(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	ctx, cancel := context.WithCancel(context.Background())

	logger := &recordingLogger{}
	registry := bandwidth.NewRegistry(bandwidth.NopMetrics())
	r := bandwidth.NewIntervalReporter(logger, registry, bandwidth.NopMetrics(),
		10*time.Millisecond, 10, nil)
	require.NoError(t, r.Start(ctx))

	cancel()
	r.Wait()

	require.Eventually(t, func() bool { return logger.contains("BANDWIDTH SUMMARY") },
		time.Second, 5*time.Millisecond)
}
