package uart_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"periphio-go/aio"
	"periphio-go/errcode"
	"periphio-go/internal/hostsim"
	"periphio-go/periph/uart"
	"periphio-go/types"
)

func newTestPort(t *testing.T) (*uart.Port, *hostsim.UART) {
	t.Helper()
	sim := hostsim.NewUART()
	p, err := uart.Open(sim, types.SerialConfig{Baud: 115200})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return p, sim
}

func TestReceiveFourBytesEndToEnd(t *testing.T) {
	p, sim := newTestPort(t)

	buf := make([]byte, 4)
	f, err := p.Receive(buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}

	ch := make(chan struct{}, 1)
	w := aio.ChanWaker(ch)
	if _, ready, _ := f.Poll(w); ready {
		t.Fatal("ready before any byte arrived")
	}

	sim.RxBytes([]byte("ping"))

	select {
	case <-ch:
	case <-time.After(300 * time.Millisecond):
		t.Fatal("timeout waiting for completion wake")
	}

	n, ready, err := f.Poll(w)
	if !ready || err != nil || n != 4 {
		t.Fatalf("poll: n=%d ready=%v err=%v; want 4, true, nil", n, ready, err)
	}
	if string(buf) != "ping" {
		t.Fatalf("buf = %q; want %q", buf, "ping")
	}

	// A second poll without re-arming is a caller-contract violation.
	defer func() {
		if recover() == nil {
			t.Fatal("second poll after ready did not panic")
		}
	}()
	f.Poll(w)
}

func TestDoubleArmReturnsBusyFirstStillDeliverable(t *testing.T) {
	p, sim := newTestPort(t)

	buf := make([]byte, 2)
	f, err := p.Receive(buf)
	if err != nil {
		t.Fatalf("first Receive: %v", err)
	}

	if _, err := p.Receive(make([]byte, 2)); errcode.Of(err) != errcode.Busy {
		t.Fatalf("second Receive err = %v; want busy", err)
	}

	sim.RxBytes([]byte("ok"))

	n, err := f.Await(context.Background())
	if err != nil || n != 2 || string(buf) != "ok" {
		t.Fatalf("first receive: n=%d err=%v buf=%q; want 2, nil, %q", n, err, buf, "ok")
	}
}

func TestAbandonedReceiveDisablesInterrupt(t *testing.T) {
	p, sim := newTestPort(t)

	f, err := p.Receive(make([]byte, 8))
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	f.Cancel()

	if sim.RxEnabled() {
		t.Fatal("completion interrupt still enabled after abandon")
	}

	// A late completion from the cancelled operation is absorbed.
	sim.SpuriousISR(uart.RxDone)
	if p.SpuriousRx() != 1 {
		t.Fatalf("spurious rx = %d; want 1", p.SpuriousRx())
	}

	// A subsequent unrelated receive is unaffected.
	buf := make([]byte, 3)
	f2, err := p.Receive(buf)
	if err != nil {
		t.Fatalf("re-arm Receive: %v", err)
	}
	sim.RxBytes([]byte("abc"))
	if n, err := f2.Await(context.Background()); err != nil || n != 3 {
		t.Fatalf("second receive: n=%d err=%v; want 3, nil", n, err)
	}
}

func TestHardwareErrorSurfacesAsResult(t *testing.T) {
	p, sim := newTestPort(t)

	buf := make([]byte, 4)
	f, err := p.Receive(buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}

	sim.RxBytes([]byte("xy"))
	sim.RxError(errcode.Overrun)

	n, err := f.Await(context.Background())
	if errcode.Of(err) != errcode.Overrun {
		t.Fatalf("err = %v; want overrun", err)
	}
	if n != 2 {
		t.Fatalf("partial count = %d; want 2", n)
	}
}

func TestBytesAheadOfArmAreDrained(t *testing.T) {
	p, sim := newTestPort(t)

	// Bytes arrive before anyone is listening; the fifo holds them.
	sim.RxBytes([]byte("he"))

	buf := make([]byte, 5)
	f, err := p.Receive(buf)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	sim.RxBytes([]byte("llo"))

	n, err := f.Await(context.Background())
	if err != nil || n != 5 || string(buf) != "hello" {
		t.Fatalf("n=%d err=%v buf=%q; want 5, nil, %q", n, err, buf, "hello")
	}
}

func TestTransmitCompletes(t *testing.T) {
	p, sim := newTestPort(t)
	sim.LoopTX = true

	n, err := p.WriteAll(context.Background(), []byte("pong"))
	if err != nil || n != 4 {
		t.Fatalf("WriteAll: n=%d err=%v; want 4, nil", n, err)
	}
	if !bytes.Equal(sim.Sent(), []byte("pong")) {
		t.Fatalf("sent = %q; want %q", sim.Sent(), "pong")
	}
}

func TestReadFullTimeoutCancelsOperation(t *testing.T) {
	p, sim := newTestPort(t)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := p.ReadFull(ctx, make([]byte, 4)); err != context.DeadlineExceeded {
		t.Fatalf("err = %v; want deadline exceeded", err)
	}
	if sim.RxEnabled() {
		t.Fatal("interrupt still enabled after timeout")
	}
}

func TestEmptyBufferIsInvalid(t *testing.T) {
	p, _ := newTestPort(t)
	if _, err := p.Receive(nil); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("Receive(nil) err = %v; want invalid_params", err)
	}
	if _, err := p.Transmit(nil); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("Transmit(nil) err = %v; want invalid_params", err)
	}
}
