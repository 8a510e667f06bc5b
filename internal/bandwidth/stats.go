package bandwidth

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats accumulates the throughput of one named channel, split into an
// all-time bucket and a current-wave bucket. Record is safe for unbounded
// concurrent producers and takes no locks; only ResetWave and WaveSnapshot
// synchronize, so a wave reader always observes a consistent triple of
// counters and start time.
type Stats struct {
	name  string
	start time.Time

	bytes    atomic.Uint64
	messages atomic.Uint64

	waveBytes    atomic.Uint64
	waveMessages atomic.Uint64

	mtx       sync.RWMutex
	waveStart time.Time
}

// NewStats creates the stats for one monitored channel. It is meant to be
// called once per channel at process start; the value lives for the process
// lifetime.
func NewStats(name string) *Stats {
	now := time.Now()
	return &Stats{
		name:      name,
		start:     now,
		waveStart: now,
	}
}

// Name returns the channel name.
func (s *Stats) Name() string { return s.name }

// Record accounts for one received message of the given size. It adds to both
// the cumulative and the current-wave buckets.
func (s *Stats) Record(numBytes int) {
	s.bytes.Add(uint64(numBytes))
	s.messages.Add(1)
	s.waveBytes.Add(uint64(numBytes))
	s.waveMessages.Add(1)
}

// TotalSnapshot returns the cumulative byte and message counts along with the
// bit rate since the channel was created. A zero elapsed time yields a zero
// rate, never a division fault.
func (s *Stats) TotalSnapshot() (bytes, messages uint64, bps float64) {
	bytes = s.bytes.Load()
	messages = s.messages.Load()
	bps = bitRate(bytes, time.Since(s.start))
	return
}

// WaveSnapshot returns the byte and message counts along with the bit rate of
// the current wave window.
func (s *Stats) WaveSnapshot() (bytes, messages uint64, bps float64) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	bytes = s.waveBytes.Load()
	messages = s.waveMessages.Load()
	bps = bitRate(bytes, time.Since(s.waveStart))
	return
}

// ResetWave zeroes the wave counters and stamps a new wave start. It is called
// exactly once per wave boundary by the subscribed reporter. Records racing
// with the reset land in either the old or the new window; both are acceptable
// for approximate telemetry.
func (s *Stats) ResetWave() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.waveBytes.Store(0)
	s.waveMessages.Store(0)
	s.waveStart = time.Now()
}

// Duration returns the time elapsed since the channel was created.
func (s *Stats) Duration() time.Duration { return time.Since(s.start) }

func bitRate(bytes uint64, elapsed time.Duration) float64 {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(bytes) * 8 / secs
}
