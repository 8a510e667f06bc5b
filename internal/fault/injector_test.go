package fault

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 50 * time.Millisecond

func testGroups() map[string]uint64 {
	// mirrors a 2-partition committee
	return map[string]uint64{
		"node0": 0,
		"node1": 1,
		"node2": 1,
		"node3": 0,
	}
}

func attackElapsed(t *testing.T, inj *Injector, from, to string) time.Duration {
	t.Helper()
	start := time.Now()
	inj.Attack(context.Background(), from, to)
	return time.Since(start)
}

func TestAttackDisabledIsPassThrough(t *testing.T) {
	cell := NewCell()
	inj := NewInjector(cell, testGroups(), testDelay)

	// cross-group, but the window is closed
	assert.Less(t, attackElapsed(t, inj, "node0", "node1"), testDelay)
}

func TestAttackIntraGroupNeverDelays(t *testing.T) {
	cell := NewCell()
	cell.Set(true)
	inj := NewInjector(cell, testGroups(), testDelay)

	assert.Less(t, attackElapsed(t, inj, "node1", "node2"), testDelay)
	assert.Less(t, attackElapsed(t, inj, "node0", "node3"), testDelay)
	// a node always shares a group with itself
	assert.Less(t, attackElapsed(t, inj, "node0", "node0"), testDelay)
}

func TestAttackCrossGroupDelays(t *testing.T) {
	cell := NewCell()
	cell.Set(true)
	inj := NewInjector(cell, testGroups(), testDelay)

	assert.GreaterOrEqual(t, attackElapsed(t, inj, "node0", "node1"), testDelay)

	cell.Set(false)
	assert.Less(t, attackElapsed(t, inj, "node0", "node1"), testDelay)
}

func TestAttackUnknownNodeFailsClosed(t *testing.T) {
	cell := NewCell()
	cell.Set(true)
	inj := NewInjector(cell, testGroups(), testDelay)

	// an unknown id is a singleton group: cross-group against everyone
	assert.GreaterOrEqual(t, attackElapsed(t, inj, "mallory", "node0"), testDelay)
	assert.GreaterOrEqual(t, attackElapsed(t, inj, "node0", "mallory"), testDelay)
	assert.GreaterOrEqual(t, attackElapsed(t, inj, "mallory", "intruder"), testDelay)

	// except against itself
	assert.Less(t, attackElapsed(t, inj, "mallory", "mallory"), testDelay)
}

func TestAttackContextCancelCutsDelay(t *testing.T) {
	cell := NewCell()
	cell.Set(true)
	inj := NewInjector(cell, testGroups(), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	inj.Attack(ctx, "node0", "node1")
	require.Less(t, time.Since(start), time.Minute)
}

func TestNoopInjector(t *testing.T) {
	inj := NewNoopInjector()
	assert.Less(t, attackElapsed(t, inj, "a", "b"), testDelay)
}
