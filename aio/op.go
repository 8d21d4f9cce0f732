package aio

import (
	"sync/atomic"

	"periphio-go/errcode"
)

// Status is the lifecycle of one asynchronous peripheral operation.
type Status uint32

const (
	// Idle: no request outstanding.
	Idle Status = iota
	// Armed: hardware is configured to interrupt on completion.
	Armed
	// Completed: a terminal result is available and unconsumed.
	Completed

	// The interrupt handler is publishing its result. Externally reported
	// as Armed; on a single-core target the state is never observed.
	statusFinalizing
)

// Op couples the operation state machine with its wake Cell. Each peripheral
// resource embeds one Op per operation direction as its static binding, so
// interrupt and task code reach the same state without dynamic lookup.
//
// Transitions only move forward: Idle→Armed (Arm, task), Armed→Completed
// (Complete, interrupt), Completed→Idle (Take, task) or Armed→Idle
// (Cancel, task).
type Op[T any] struct {
	status atomic.Uint32

	// Written by the interrupt handler strictly before the Completed
	// publish; read by the task strictly after observing Completed.
	result T
	err    error

	// Installed by Arm; disables the completion interrupt / aborts the
	// hardware operation. Only the owning task touches it.
	cancel func()

	cell     Cell
	spurious atomic.Uint32
}

// State reports the externally visible lifecycle state.
func (o *Op[T]) State() Status {
	s := Status(o.status.Load())
	if s == statusFinalizing {
		return Armed
	}
	return s
}

// Cell returns the wake cell bound to this operation.
func (o *Op[T]) Cell() *Cell { return &o.cell }

// Arm transitions Idle→Armed and installs the hardware-disable hook used by
// Cancel. It returns errcode.Busy, without mutating anything, if an
// operation is already outstanding or completed-unconsumed. The caller
// starts the hardware only after Arm succeeds, so a completion interrupt can
// never observe a not-yet-armed state.
func (o *Op[T]) Arm(cancel func()) error {
	if !o.status.CompareAndSwap(uint32(Idle), uint32(Armed)) {
		return errcode.Busy
	}
	o.cancel = cancel
	o.cell.Clear()
	return nil
}

// Complete transitions Armed→Completed with the operation's result.
// Interrupt context only. Invoked while Idle or already Completed it is a
// counted no-op (spurious interrupt: shared lines, or a completion racing a
// cancellation that disabled the source slightly too late).
func (o *Op[T]) Complete(v T, err error) bool {
	if !o.status.CompareAndSwap(uint32(Armed), uint32(statusFinalizing)) {
		o.spurious.Add(1)
		return false
	}
	o.result = v
	o.err = err
	o.status.Store(uint32(Completed))
	return true
}

// Finish is the tail of an interrupt bridge: Complete, then notify the wake
// cell. Spurious completions are absorbed without a wake.
func (o *Op[T]) Finish(v T, err error) bool {
	if !o.Complete(v, err) {
		return false
	}
	o.cell.Notify()
	return true
}

// Take transitions Completed→Idle and returns exactly the value passed to
// Complete. Calling it while Idle or Armed is a contract violation and
// panics.
func (o *Op[T]) Take() (T, error) {
	if Status(o.status.Load()) != Completed {
		panic("aio: Take on an operation that has not completed")
	}
	v, err := o.result, o.err
	var zero T
	o.result = zero
	o.err = nil
	o.cell.Clear()
	o.status.Store(uint32(Idle))
	return v, err
}

// Cancel abandons an outstanding operation: Armed→Idle, then the installed
// hardware-disable hook runs so the source stops interrupting. A completion
// that lands in the disable window is absorbed later as spurious. If the
// operation already completed, the unconsumed result is discarded and the
// source is still disabled. Cancel on an idle Op is a no-op.
func (o *Op[T]) Cancel() {
	for {
		switch Status(o.status.Load()) {
		case Armed:
			if !o.status.CompareAndSwap(uint32(Armed), uint32(Idle)) {
				continue // a completion won the race
			}
			if o.cancel != nil {
				o.cancel()
			}
			o.cell.Clear()
			return
		case Completed:
			var zero T
			o.result = zero
			o.err = nil
			o.status.Store(uint32(Idle))
			if o.cancel != nil {
				o.cancel()
			}
			o.cell.Clear()
			return
		case Idle:
			return
		default:
			// Finalizing: the interrupt is publishing its result and
			// will land in Completed momentarily.
		}
	}
}

// Spurious reports how many spurious completions this Op absorbed.
func (o *Op[T]) Spurious() uint32 { return o.spurious.Load() }
