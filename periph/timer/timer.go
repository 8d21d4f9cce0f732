// Package timer provides awaitable alarm (compare-match) and input-capture
// operations over an interrupt-driven hardware timer.
package timer

import (
	"context"
	"time"

	"periphio-go/aio"
	"periphio-go/errcode"
	"periphio-go/types"
)

// Kind tags which timer event a Completion belongs to.
type Kind uint8

const (
	AlarmDone Kind = iota
	CaptureDone
)

// Completion is handed to the bridge by the timer ISR after it has
// acknowledged the interrupt flag.
type Completion struct {
	Kind  Kind
	Count uint64 // free-running counter value at the event
	Edge  types.Edge
	Code  errcode.Code
}

// Driver is the register-level collaborator. BeginAlarm programs a
// compare-match d from now; BeginCapture latches the counter on the next
// matching input edge. Aborts disable the corresponding interrupt and must
// tolerate nothing being in flight.
type Driver interface {
	BeginAlarm(d time.Duration) error
	AbortAlarm()
	BeginCapture(edge types.Edge) error
	AbortCapture()
	SetISR(func(Completion))
}

// Capture is the result of an input-capture operation.
type Capture struct {
	Count uint64
	Edge  types.Edge
}

// Timer binds a driver to its alarm and capture operation state.
type Timer struct {
	drv     Driver
	alarm   aio.Op[uint64]
	capture aio.Op[Capture]
}

func New(drv Driver) *Timer {
	t := &Timer{drv: drv}
	drv.SetISR(t.serviceIRQ)
	return t
}

// After arms a compare-match d from now. The future yields the counter
// value at the match.
func (t *Timer) After(d time.Duration) (*aio.Future[uint64], error) {
	if d <= 0 {
		return nil, errcode.InvalidParams
	}
	if err := t.alarm.Arm(t.drv.AbortAlarm); err != nil {
		return nil, err
	}
	if err := t.drv.BeginAlarm(d); err != nil {
		t.alarm.Cancel()
		return nil, err
	}
	return aio.NewFuture(&t.alarm), nil
}

// Capture arms an input capture on the next matching edge.
func (t *Timer) Capture(edge types.Edge) (*aio.Future[Capture], error) {
	if edge == types.EdgeNone {
		return nil, errcode.InvalidParams
	}
	if err := t.capture.Arm(t.drv.AbortCapture); err != nil {
		return nil, err
	}
	if err := t.drv.BeginCapture(edge); err != nil {
		t.capture.Cancel()
		return nil, err
	}
	return aio.NewFuture(&t.capture), nil
}

// Sleep delays the calling goroutine on the hardware timer.
func (t *Timer) Sleep(ctx context.Context, d time.Duration) error {
	f, err := t.After(d)
	if err != nil {
		return err
	}
	_, err = f.Await(ctx)
	return err
}

// WaitEdge blocks until the next matching input edge is captured.
func (t *Timer) WaitEdge(ctx context.Context, edge types.Edge) (Capture, error) {
	f, err := t.Capture(edge)
	if err != nil {
		return Capture{}, err
	}
	return f.Await(ctx)
}

// serviceIRQ is the bridge tail. Interrupt context.
func (t *Timer) serviceIRQ(c Completion) {
	switch c.Kind {
	case AlarmDone:
		t.alarm.Finish(c.Count, c.Code.OrNil())
	case CaptureDone:
		t.capture.Finish(Capture{Count: c.Count, Edge: c.Edge}, c.Code.OrNil())
	}
}

// Spurious reports absorbed spurious completions across both operations.
func (t *Timer) Spurious() uint32 {
	return t.alarm.Spurious() + t.capture.Spurious()
}
