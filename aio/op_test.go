package aio

import (
	"testing"

	"periphio-go/errcode"
)

func TestArmCompleteTakeRoundTrip(t *testing.T) {
	var op Op[int]

	if err := op.Arm(nil); err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if !op.Complete(42, nil) {
		t.Fatal("Complete on armed op reported spurious")
	}
	v, err := op.Take()
	if err != nil || v != 42 {
		t.Fatalf("Take: got %d, %v; want 42, nil", v, err)
	}
	if op.State() != Idle {
		t.Fatalf("state after Take = %v; want Idle", op.State())
	}
}

func TestTakeReturnsHardwareError(t *testing.T) {
	var op Op[int]
	_ = op.Arm(nil)
	op.Complete(2, errcode.Overrun)

	v, err := op.Take()
	if v != 2 {
		t.Fatalf("partial count = %d; want 2", v)
	}
	if errcode.Of(err) != errcode.Overrun {
		t.Fatalf("err = %v; want overrun", err)
	}
}

func TestArmWhileOutstandingIsBusy(t *testing.T) {
	var op Op[int]
	_ = op.Arm(nil)

	if err := op.Arm(nil); errcode.Of(err) != errcode.Busy {
		t.Fatalf("second Arm err = %v; want busy", err)
	}
	if op.State() != Armed {
		t.Fatalf("busy Arm mutated state to %v", op.State())
	}

	// The first operation's completion is still deliverable.
	op.Complete(7, nil)
	if err := op.Arm(nil); errcode.Of(err) != errcode.Busy {
		t.Fatalf("Arm on completed-unconsumed err = %v; want busy", err)
	}
	if v, _ := op.Take(); v != 7 {
		t.Fatalf("Take after busy arms = %d; want 7", v)
	}
}

func TestSpuriousCompleteIsAbsorbed(t *testing.T) {
	var op Op[int]

	if op.Complete(9, nil) {
		t.Fatal("Complete while Idle reported success")
	}
	if op.State() != Idle {
		t.Fatalf("spurious complete mutated state to %v", op.State())
	}
	if op.Spurious() != 1 {
		t.Fatalf("spurious count = %d; want 1", op.Spurious())
	}

	_ = op.Arm(nil)
	op.Complete(1, nil)
	if op.Complete(2, nil) {
		t.Fatal("double Complete reported success")
	}
	if v, _ := op.Take(); v != 1 {
		t.Fatalf("double complete clobbered result: got %d; want 1", v)
	}
}

func TestCancelDisablesHardwareAndIdles(t *testing.T) {
	var op Op[int]
	disabled := false
	_ = op.Arm(func() { disabled = true })

	op.Cancel()
	if !disabled {
		t.Fatal("cancel did not run the hardware-disable hook")
	}
	if op.State() != Idle {
		t.Fatalf("state after Cancel = %v; want Idle", op.State())
	}

	// A subsequent unrelated arm succeeds and is unaffected by the
	// earlier operation's late interrupt.
	if err := op.Arm(nil); err != nil {
		t.Fatalf("re-arm after cancel: %v", err)
	}
}

func TestCancelDiscardsUnconsumedResult(t *testing.T) {
	var op Op[int]
	disabled := false
	_ = op.Arm(func() { disabled = true })
	op.Complete(5, nil)

	op.Cancel()
	if !disabled {
		t.Fatal("cancel on completed op did not disable the source")
	}
	if op.State() != Idle {
		t.Fatalf("state = %v; want Idle", op.State())
	}
}

func TestCancelOnIdleIsNoop(t *testing.T) {
	var op Op[int]
	op.Cancel()
	if op.State() != Idle {
		t.Fatalf("state = %v; want Idle", op.State())
	}
}

func TestTakeWithoutCompletionPanics(t *testing.T) {
	var op Op[int]

	assertPanics(t, "Take while Idle", func() { _, _ = op.Take() })

	_ = op.Arm(nil)
	assertPanics(t, "Take while Armed", func() { _, _ = op.Take() })
}

func TestFinishNotifiesCell(t *testing.T) {
	var op Op[string]
	_ = op.Arm(nil)

	woken := false
	op.Cell().Register(func() { woken = true })

	if !op.Finish("done", nil) {
		t.Fatal("Finish on armed op reported spurious")
	}
	if !woken {
		t.Fatal("Finish did not notify the wake cell")
	}
	if v, _ := op.Take(); v != "done" {
		t.Fatalf("Take = %q; want %q", v, "done")
	}
}

func assertPanics(t *testing.T, name string, f func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s did not panic", name)
		}
	}()
	f()
}
