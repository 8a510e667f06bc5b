package bandwidth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaveWatchLatestWins(t *testing.T) {
	w := NewWaveWatch()
	assert.Zero(t, w.Latest())

	w.Publish(1)
	w.Publish(2)
	w.Publish(3)

	// several publishes coalesce into a single signal
	<-w.Changed()
	assert.EqualValues(t, 3, w.Latest())

	select {
	case <-w.Changed():
		t.Fatal("unexpected second signal")
	default:
	}
}

func TestWaveWatchIgnoresStale(t *testing.T) {
	w := NewWaveWatch()
	w.Publish(5)
	<-w.Changed()

	w.Publish(5)
	w.Publish(3)

	select {
	case <-w.Changed():
		t.Fatal("stale publish must not signal")
	default:
	}
	require.EqualValues(t, 5, w.Latest())

	w.Publish(6)
	<-w.Changed()
	require.EqualValues(t, 6, w.Latest())
}
