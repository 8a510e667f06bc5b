// Package fault simulates adversarial cross-group network delay during a
// controlled time window. Senders call Attack before transmitting; while the
// window is open, traffic between different partition groups is suspended for
// a fixed delay. Messages are never dropped, only delayed.
package fault

import (
	"context"
	"sync/atomic"
	"time"
)

// Cell is the shared fault enable switch. It is an explicitly owned,
// lock-free boolean passed to every component that needs it; reads are
// non-blocking and eventually consistent, which is sufficient for harness
// behavior.
type Cell struct {
	enabled atomic.Bool
}

// NewCell returns a disabled cell.
func NewCell() *Cell { return &Cell{} }

// Set flips the switch.
func (c *Cell) Set(enabled bool) { c.enabled.Store(enabled) }

// Enabled reports whether fault injection is currently active.
func (c *Cell) Enabled() bool { return c.enabled.Load() }

// Injector intercepts logical send calls and applies the configured
// cross-group delay while the fault window is open.
type Injector struct {
	cell   *Cell
	groups map[string]uint64
	delay  time.Duration
}

// NewInjector creates an injector over the given partition group table. The
// cell is shared with the scheduler that opens and closes the window.
func NewInjector(cell *Cell, groups map[string]uint64, delay time.Duration) *Injector {
	return &Injector{
		cell:   cell,
		groups: groups,
		delay:  delay,
	}
}

// NewNoopInjector returns a permanently disabled injector with the identical
// call signature, so callers never branch on whether injection is active.
func NewNoopInjector() *Injector {
	return &Injector{cell: NewCell()}
}

// Attack applies the configured network fault to a logical send from one
// node to another. When the window is closed it returns immediately and
// allocates nothing.
func (inj *Injector) Attack(ctx context.Context, from, to string) {
	if !inj.cell.Enabled() {
		return
	}
	inj.networkInterrupt(ctx, from, to)
}

// networkInterrupt suspends the caller for the configured delay when the two
// nodes belong to different partition groups. Intra-group traffic is
// unaffected. The delay is bounded and cut short if ctx is canceled.
func (inj *Injector) networkInterrupt(ctx context.Context, from, to string) {
	if inj.sameGroup(from, to) {
		return
	}

	t := time.NewTimer(inj.delay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// sameGroup reports whether both nodes map to the same partition group. A
// node id missing from the table fails closed: it is treated as a singleton
// group and therefore considered cross-group against every other id. A node
// always shares a group with itself.
func (inj *Injector) sameGroup(from, to string) bool {
	if from == to {
		return true
	}
	gFrom, okFrom := inj.groups[from]
	gTo, okTo := inj.groups[to]
	if !okFrom || !okTo {
		return false
	}
	return gFrom == gTo
}
