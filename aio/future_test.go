package aio

import (
	"context"
	"testing"
	"time"

	"periphio-go/errcode"
)

func armedOp(t *testing.T) *Op[int] {
	t.Helper()
	op := new(Op[int])
	if err := op.Arm(nil); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	return op
}

func TestPollPendingThenReady(t *testing.T) {
	op := armedOp(t)
	f := NewFuture(op)

	woken := false
	if _, ready, _ := f.Poll(func() { woken = true }); ready {
		t.Fatal("poll ready before completion")
	}

	op.Finish(4, nil)
	if !woken {
		t.Fatal("completion did not wake the registered waker")
	}

	v, ready, err := f.Poll(func() {})
	if !ready || err != nil || v != 4 {
		t.Fatalf("poll after completion: v=%d ready=%v err=%v; want 4, true, nil", v, ready, err)
	}
	if op.State() != Idle {
		t.Fatalf("op state = %v; want Idle", op.State())
	}
}

func TestPollReRegistersChangedWaker(t *testing.T) {
	op := armedOp(t)
	f := NewFuture(op)

	first := 0
	f.Poll(func() { first++ })

	// The task migrated; a later poll supplies a different waker.
	second := 0
	f.Poll(func() { second++ })

	op.Finish(1, nil)
	if first != 0 || second != 1 {
		t.Fatalf("first=%d second=%d; want 0, 1", first, second)
	}
}

func TestPollAfterReadyPanics(t *testing.T) {
	op := armedOp(t)
	f := NewFuture(op)
	op.Finish(1, nil)

	if _, ready, _ := f.Poll(func() {}); !ready {
		t.Fatal("expected ready")
	}
	assertPanics(t, "Poll after ready", func() { f.Poll(func() {}) })
}

func TestAwaitDeliversResult(t *testing.T) {
	op := armedOp(t)
	f := NewFuture(op)

	go func() {
		time.Sleep(10 * time.Millisecond)
		op.Finish(99, nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	v, err := f.Await(ctx)
	if err != nil || v != 99 {
		t.Fatalf("Await = %d, %v; want 99, nil", v, err)
	}
}

func TestAwaitDeliversHardwareError(t *testing.T) {
	op := armedOp(t)
	f := NewFuture(op)
	op.Finish(0, errcode.Framing)

	v, err := f.Await(context.Background())
	if v != 0 || errcode.Of(err) != errcode.Framing {
		t.Fatalf("Await = %d, %v; want 0, framing", v, err)
	}
}

func TestAwaitCancelledContextCancelsOperation(t *testing.T) {
	op := new(Op[int])
	disabled := false
	if err := op.Arm(func() { disabled = true }); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	f := NewFuture(op)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := f.Await(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Await err = %v; want deadline exceeded", err)
	}
	if !disabled {
		t.Fatal("abandoning the future did not disable the source")
	}
	if op.State() != Idle {
		t.Fatalf("op state = %v; want Idle", op.State())
	}

	// The operation's late completion is absorbed, and a fresh arm works.
	op.Finish(1, nil)
	if op.Spurious() != 1 {
		t.Fatalf("spurious = %d; want 1", op.Spurious())
	}
	if err := op.Arm(nil); err != nil {
		t.Fatalf("re-arm: %v", err)
	}
}

func TestCancelIsIdempotentAfterReady(t *testing.T) {
	op := armedOp(t)
	f := NewFuture(op)
	op.Finish(3, nil)

	if v, _, _ := f.Poll(func() {}); v != 3 {
		t.Fatalf("Poll = %d; want 3", v)
	}
	f.Cancel() // no-op after ready
	if op.State() != Idle {
		t.Fatalf("op state = %v; want Idle", op.State())
	}
}
