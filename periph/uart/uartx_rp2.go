//go:build rp2040 || rp2350

package uart

import (
	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"periphio-go/errcode"
	"periphio-go/types"
)

// NativeDriver adapts an interrupt-driven uartx.UART (PL011) to the Driver
// contract. The PL011 RX ISR lands bytes in uartx's ring and signals its
// coalesced Readable channel; a pump goroutine assembles armed receives from
// the ring and completes them, standing in for the terminal-count interrupt
// the PL011 does not have. Transmits run on a second pump over uartx's
// blocking Write.
//
// Abort calls handshake with the pumps, so cancellation never leaves a pump
// filling an abandoned buffer. A completion racing an abort is suppressed
// here or absorbed as spurious by the Op.
type NativeDriver struct {
	u   *uartx.UART
	isr func(Completion)

	rxArm chan []byte
	rxCut chan struct{}
	rxAck chan struct{}

	txArm chan []byte
	txCut chan struct{}
	txAck chan struct{}
}

// NewNative wraps a uartx instance (uartx.UART0 or uartx.UART1).
func NewNative(u *uartx.UART) *NativeDriver {
	d := &NativeDriver{
		u:     u,
		rxArm: make(chan []byte, 1),
		rxCut: make(chan struct{}),
		rxAck: make(chan struct{}),
		txArm: make(chan []byte, 1),
		txCut: make(chan struct{}),
		txAck: make(chan struct{}),
	}
	go d.rxPump()
	go d.txPump()
	return d
}

func (d *NativeDriver) Configure(cfg types.SerialConfig) error {
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}
	if err := d.u.Configure(uartx.UARTConfig{BaudRate: cfg.Baud}); err != nil {
		return err
	}
	db, sb := cfg.DataBits, cfg.StopBits
	if db == 0 {
		db = 8
	}
	if sb == 0 {
		sb = 1
	}
	return d.u.SetFormat(db, sb, toUartxParity(cfg.Parity))
}

func (d *NativeDriver) SetISR(h func(Completion)) { d.isr = h }

func (d *NativeDriver) BeginReceive(buf []byte) error {
	select {
	case d.rxArm <- buf:
		return nil
	default:
		return errcode.Busy
	}
}

// AbortReceive stops an in-flight receive and waits for the pump to
// acknowledge, so state reset and hardware-side stop are never partial.
func (d *NativeDriver) AbortReceive() {
	d.rxCut <- struct{}{}
	<-d.rxAck
}

func (d *NativeDriver) BeginTransmit(buf []byte) error {
	select {
	case d.txArm <- buf:
		return nil
	default:
		return errcode.Busy
	}
}

func (d *NativeDriver) AbortTransmit() {
	d.txCut <- struct{}{}
	<-d.txAck
}

func (d *NativeDriver) rxPump() {
	for {
		select {
		case buf := <-d.rxArm:
			d.fill(buf)
		case <-d.rxCut:
			d.rxAck <- struct{}{} // nothing armed
		}
	}
}

func (d *NativeDriver) fill(buf []byte) {
	n := 0
	for n < len(buf) {
		select {
		case <-d.rxCut:
			d.rxAck <- struct{}{}
			return
		default:
		}
		if m, _ := d.u.Read(buf[n:]); m > 0 {
			n += m
			continue
		}
		select {
		case <-d.u.Readable():
			// Coalesced wake; re-check the ring.
		case <-d.rxCut:
			d.rxAck <- struct{}{}
			return
		}
	}
	d.isr(Completion{Kind: RxDone, N: n, Code: errcode.OK})
}

func (d *NativeDriver) txPump() {
	for {
		select {
		case buf := <-d.txArm:
			select {
			case <-d.txCut:
				d.txAck <- struct{}{}
				continue
			default:
			}
			n, _ := d.u.Write(buf)
			select {
			case <-d.txCut:
				// Aborted after the bytes were accepted; suppress the
				// completion, the Op has already gone back to Idle.
				d.txAck <- struct{}{}
				continue
			default:
			}
			d.isr(Completion{Kind: TxDone, N: n, Code: errcode.OK})
		case <-d.txCut:
			d.txAck <- struct{}{}
		}
	}
}

func toUartxParity(p types.Parity) uartx.UARTParity {
	switch p {
	case types.ParityEven:
		return uartx.ParityEven
	case types.ParityOdd:
		return uartx.ParityOdd
	default:
		return uartx.ParityNone
	}
}
