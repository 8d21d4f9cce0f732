// Host self-test for the async peripheral layer. Runs every operation kind
// against the in-process simulators and reports PASS/FAIL per check.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"periphio-go/errcode"
	"periphio-go/internal/hostsim"
	"periphio-go/periph/adc"
	"periphio-go/periph/dma"
	"periphio-go/periph/pin"
	"periphio-go/periph/timer"
	"periphio-go/periph/uart"
	"periphio-go/types"
)

type testFn struct {
	name string
	fn   func() error
}

func testUARTReceive() error {
	drv := hostsim.NewUART()
	p, err := uart.Open(drv, types.SerialConfig{Baud: 115200, DataBits: 8, StopBits: 1})
	if err != nil {
		return err
	}

	buf := make([]byte, 4)
	fut, err := p.Receive(buf)
	if err != nil {
		return err
	}
	drv.RxBytes([]byte("ping"))

	n, err := fut.Await(context.Background())
	if err != nil {
		return err
	}
	if n != 4 || !bytes.Equal(buf, []byte("ping")) {
		return fmt.Errorf("got %d bytes %q, want 4 bytes \"ping\"", n, buf[:n])
	}
	return nil
}

func testUARTBusyAndError() error {
	drv := hostsim.NewUART()
	p, err := uart.Open(drv, types.SerialConfig{Baud: 115200, DataBits: 8, StopBits: 1})
	if err != nil {
		return err
	}

	buf := make([]byte, 8)
	fut, err := p.Receive(buf)
	if err != nil {
		return err
	}
	if _, err := p.Receive(make([]byte, 8)); !errors.Is(err, errcode.Busy) {
		return fmt.Errorf("second receive: got %v, want %v", err, errcode.Busy)
	}

	drv.RxBytes([]byte("ab"))
	drv.RxError(errcode.Overrun)

	n, err := fut.Await(context.Background())
	if !errors.Is(err, errcode.Overrun) {
		return fmt.Errorf("got err %v, want %v", err, errcode.Overrun)
	}
	if n != 2 {
		return fmt.Errorf("partial count %d, want 2", n)
	}
	return nil
}

func testUARTAbandon() error {
	drv := hostsim.NewUART()
	p, err := uart.Open(drv, types.SerialConfig{Baud: 115200, DataBits: 8, StopBits: 1})
	if err != nil {
		return err
	}

	fut, err := p.Receive(make([]byte, 4))
	if err != nil {
		return err
	}
	fut.Cancel()
	if drv.RxEnabled() {
		return errors.New("receive interrupt still enabled after cancel")
	}

	// A straggler interrupt must be absorbed, not delivered to the next op.
	drv.SpuriousISR(uart.RxDone)
	if p.SpuriousRx() != 1 {
		return fmt.Errorf("spurious count %d, want 1", p.SpuriousRx())
	}

	buf := make([]byte, 2)
	fut2, err := p.Receive(buf)
	if err != nil {
		return err
	}
	drv.RxBytes([]byte("ok"))
	n, err := fut2.Await(context.Background())
	if err != nil || n != 2 {
		return fmt.Errorf("re-armed receive: n=%d err=%v", n, err)
	}
	return nil
}

func testUARTTransmit() error {
	drv := hostsim.NewUART()
	drv.LoopTX = true
	p, err := uart.Open(drv, types.SerialConfig{Baud: 115200, DataBits: 8, StopBits: 1})
	if err != nil {
		return err
	}

	msg := []byte("hello")
	n, err := p.WriteAll(context.Background(), msg)
	if err != nil {
		return err
	}
	if n != len(msg) || !bytes.Equal(drv.Sent(), msg) {
		return fmt.Errorf("sent %q (%d), want %q", drv.Sent(), n, msg)
	}
	return nil
}

func testADCConvert() error {
	drv := hostsim.NewADC()
	drv.Auto = true
	drv.SetReading(3, 0x0abc)
	a := adc.New(drv)

	v, err := a.ReadChannel(context.Background(), 3)
	if err != nil {
		return err
	}
	if v != 0x0abc {
		return fmt.Errorf("reading %#x, want 0xabc", v)
	}
	return nil
}

func testADCDropped() error {
	drv := hostsim.NewADC()
	a := adc.New(drv)

	fut, err := a.Convert(1)
	if err != nil {
		return err
	}
	fut.Cancel()
	if drv.Enabled() {
		return errors.New("converter still enabled after cancel")
	}
	drv.SpuriousISR()
	if a.Spurious() != 1 {
		return fmt.Errorf("spurious count %d, want 1", a.Spurious())
	}

	drv.Auto = true
	drv.SetReading(2, 77)
	v, err := a.ReadChannel(context.Background(), 2)
	if err != nil || v != 77 {
		return fmt.Errorf("re-armed convert: v=%d err=%v", v, err)
	}
	return nil
}

func testTimerSleep() error {
	t := timer.New(hostsim.NewTimer())
	start := time.Now()
	if err := t.Sleep(context.Background(), 20*time.Millisecond); err != nil {
		return err
	}
	if time.Since(start) < 20*time.Millisecond {
		return errors.New("sleep returned early")
	}
	return nil
}

func testTimerCapture() error {
	drv := hostsim.NewTimer()
	t := timer.New(drv)

	fut, err := t.Capture(types.EdgeRising)
	if err != nil {
		return err
	}
	drv.InjectEdge(types.EdgeRising)
	got, err := fut.Await(context.Background())
	if err != nil {
		return err
	}
	if got.Edge != types.EdgeRising {
		return fmt.Errorf("captured edge %v, want rising", got.Edge)
	}
	return nil
}

func testPinEdge() error {
	drv := hostsim.NewPin(false)
	p := pin.New(drv)

	fut, err := p.WaitForEdge(types.EdgeRising)
	if err != nil {
		return err
	}
	drv.SetLevel(true)
	e, err := fut.Await(context.Background())
	if err != nil {
		return err
	}
	if e != types.EdgeRising {
		return fmt.Errorf("edge %v, want rising", e)
	}
	if drv.IRQEnabled() {
		return errors.New("line not masked after delivery")
	}
	return nil
}

func testDMATransfer() error {
	drv := hostsim.NewDMA()
	ch := dma.Open(drv)

	src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]byte, 8)
	fut, err := ch.Transfer(dst, src)
	if err != nil {
		return err
	}
	drv.Fire()
	n, err := fut.Await(context.Background())
	if err != nil {
		return err
	}
	if n != len(src) || !bytes.Equal(dst, src) {
		return fmt.Errorf("moved %d bytes %v, want %v", n, dst, src)
	}
	return nil
}

func testAwaitTimeout() error {
	drv := hostsim.NewUART()
	p, err := uart.Open(drv, types.SerialConfig{Baud: 115200, DataBits: 8, StopBits: 1})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := p.ReadFull(ctx, make([]byte, 4)); !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("got %v, want deadline exceeded", err)
	}
	if drv.RxEnabled() {
		return errors.New("receive interrupt still enabled after timeout")
	}
	return nil
}

func main() {
	tests := []testFn{
		{"uart/receive", testUARTReceive},
		{"uart/busy-and-error", testUARTBusyAndError},
		{"uart/abandon", testUARTAbandon},
		{"uart/transmit", testUARTTransmit},
		{"adc/convert", testADCConvert},
		{"adc/dropped", testADCDropped},
		{"timer/sleep", testTimerSleep},
		{"timer/capture", testTimerCapture},
		{"pin/edge", testPinEdge},
		{"dma/transfer", testDMATransfer},
		{"await/timeout", testAwaitTimeout},
	}

	fmt.Println("== aio self-test starting ==")
	failed := 0
	for _, tc := range tests {
		if err := tc.fn(); err != nil {
			fmt.Printf("[FAIL] %-22s %v\n", tc.name, err)
			failed++
		} else {
			fmt.Printf("[PASS] %s\n", tc.name)
		}
	}
	fmt.Printf("== done: %d passed, %d failed ==\n", len(tests)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
