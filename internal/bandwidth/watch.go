package bandwidth

import (
	"sync"
)

// WaveWatch is a single-slot, latest-wins wave signal. Publishers never
// block; a slow subscriber may skip intermediate waves but always observes
// the newest published value. Values that do not advance the latest wave are
// dropped at the source.
type WaveWatch struct {
	mtx    sync.Mutex
	latest uint64
	ch     chan struct{}
}

// NewWaveWatch creates a watch with the wave marker at zero.
func NewWaveWatch() *WaveWatch {
	return &WaveWatch{
		ch: make(chan struct{}, 1),
	}
}

// Publish records a new wave and signals the subscriber. Stale or duplicate
// values (not strictly greater than the latest) are ignored.
func (w *WaveWatch) Publish(wave uint64) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	if wave <= w.latest {
		return
	}
	w.latest = wave

	select {
	case w.ch <- struct{}{}:
	default:
	}
}

// Changed returns a channel that receives a signal after the latest wave
// advanced. The subscriber must read Latest after each signal; several
// publishes may coalesce into one signal.
func (w *WaveWatch) Changed() <-chan struct{} { return w.ch }

// Latest returns the most recently published wave.
func (w *WaveWatch) Latest() uint64 {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return w.latest
}
