package aio

import "context"

// Future is the pollable view of one armed operation. Entry points arm the
// Op eagerly (so Busy surfaces synchronously) and hand the caller a Future.
//
// A Future must be driven to Ready exactly once, or cancelled. Discarding an
// armed Future without Cancel leaves the hardware interrupting for a result
// nobody observes.
type Future[T any] struct {
	op   *Op[T]
	done bool
}

// NewFuture wraps an already-armed Op. Used by peripheral entry points.
func NewFuture[T any](op *Op[T]) *Future[T] { return &Future[T]{op: op} }

// Poll reports whether the operation has completed. While pending it
// (re-)registers w in the wake cell, so a waker that changes between polls
// is always the one notified. Polling after Ready, or polling an operation
// that was never armed, is a contract violation and panics.
func (f *Future[T]) Poll(w Waker) (v T, ready bool, err error) {
	if f.done {
		panic("aio: Poll after the future completed")
	}
	switch f.op.State() {
	case Completed:
		f.done = true
		v, err = f.op.Take()
		return v, true, err
	case Armed:
		f.op.cell.Register(w)
		return v, false, nil
	default:
		panic("aio: Poll on an operation that is not armed")
	}
}

// Await drives Poll under the Go scheduler using a coalesced channel waker,
// re-checking state after every wake. If ctx ends first the operation is
// cancelled (hardware disabled, state back to Idle) and ctx.Err() returned.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	ch := make(chan struct{}, 1)
	w := ChanWaker(ch)
	for {
		v, ready, err := f.Poll(w)
		if ready {
			return v, err
		}
		select {
		case <-ch:
			// Coalesced wake; re-poll and re-check.
		case <-ctx.Done():
			f.Cancel()
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Cancel abandons the operation. Safe to call after Ready (no-op). The
// paired hardware-disable hook runs before Cancel returns, so a subsequent
// arm of the same resource is never affected by this operation's late
// interrupt.
func (f *Future[T]) Cancel() {
	if f.done {
		return
	}
	f.done = true
	f.op.Cancel()
}

// Done reports whether the future already yielded its result or was
// cancelled.
func (f *Future[T]) Done() bool { return f.done }
