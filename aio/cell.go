package aio

import "sync/atomic"

// Cell is a single-slot wake-notification store shared between task and
// interrupt context. It holds at most one Waker. Register runs in task
// context; Notify runs in interrupt context and uses a single atomic
// exchange, so it can never block a handler or invert priorities.
//
// A notification that arrives while no handle is registered is latched and
// delivered at the next Register, so the wake is never lost. Multiple
// notifications before the task re-polls collapse into one.
type Cell struct {
	waker   atomic.Pointer[Waker]
	pending atomic.Bool
}

// Register stores w as the wake handle, replacing any previous one.
// Task context only.
func (c *Cell) Register(w Waker) {
	c.waker.Store(&w)
	if c.pending.Swap(false) {
		// A notify fired before we registered; deliver it now.
		if p := c.waker.Swap(nil); p != nil {
			(*p)()
		}
	}
}

// Notify latches the notification, then takes the stored handle, if any,
// and invokes it. Interrupt context safe.
//
// The latch is set before the handle swap. A Register racing this call
// either loses its handle to the swap here, or stores it after the swap
// and then observes the latch, so one side always delivers; at worst the
// task sees one extra wake, and wakes are idempotent. The latch stays set
// until Clear, which runs on every terminal transition.
func (c *Cell) Notify() {
	c.pending.Store(true)
	if p := c.waker.Swap(nil); p != nil {
		(*p)()
	}
}

// Clear drops any stored handle and any latched notification. Called when
// an operation reaches a terminal state, so a stale wake cannot leak into
// the next operation on the same resource.
func (c *Cell) Clear() {
	c.waker.Store(nil)
	c.pending.Store(false)
}
