//go:build !rp2040 && !rp2350

// Package serial adapts an OS serial port to the periph/uart Driver
// contract, for hardware-in-loop runs on a workstation. A reader goroutine
// drains the OS port into a byte ring the way the MCU RX ISR does, so
// bytes arriving between operations are kept, not lost; an assembler pump
// moves ring bytes into the armed buffer and completes the operation.
package serial

import (
	"errors"
	"io"
	"time"

	"github.com/tarm/serial"

	"periphio-go/errcode"
	"periphio-go/periph/uart"
	"periphio-go/types"
	"periphio-go/x/bytering"
)

const readTick = 50 * time.Millisecond

// port is the part of *serial.Port the driver uses.
type port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

type Driver struct {
	dev  string
	port port
	isr  func(uart.Completion)

	ring   *bytering.Ring
	failed chan struct{} // closed by the reader on a port error

	rxArm chan []byte
	rxCut chan struct{}
	rxAck chan struct{}

	txArm chan []byte
	txCut chan struct{}
	txAck chan struct{}
}

// New prepares a driver for the named device (e.g. "/dev/ttyACM0", "COM3").
// The port is opened by Configure.
func New(device string) *Driver {
	d := &Driver{
		dev:    device,
		ring:   bytering.New(256),
		failed: make(chan struct{}),
		rxArm:  make(chan []byte, 1),
		rxCut:  make(chan struct{}),
		rxAck:  make(chan struct{}),
		txArm:  make(chan []byte, 1),
		txCut:  make(chan struct{}),
		txAck:  make(chan struct{}),
	}
	go d.rxPump()
	go d.txPump()
	return d
}

func (d *Driver) Configure(cfg types.SerialConfig) error {
	baud := int(cfg.Baud)
	if baud == 0 {
		baud = 115200
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        d.dev,
		Baud:        baud,
		ReadTimeout: readTick,
	})
	if err != nil {
		return &errcode.E{C: errcode.Error, Op: "serial.open", Err: err}
	}
	d.start(p)
	return nil
}

// start installs the opened port and begins draining it.
func (d *Driver) start(p port) {
	d.port = p
	go d.reader()
}

func (d *Driver) SetISR(h func(uart.Completion)) { d.isr = h }

func (d *Driver) BeginReceive(buf []byte) error {
	select {
	case d.rxArm <- buf:
		return nil
	default:
		return errcode.Busy
	}
}

func (d *Driver) AbortReceive() {
	d.rxCut <- struct{}{}
	<-d.rxAck
}

func (d *Driver) BeginTransmit(buf []byte) error {
	select {
	case d.txArm <- buf:
		return nil
	default:
		return errcode.Busy
	}
}

func (d *Driver) AbortTransmit() {
	d.txCut <- struct{}{}
	<-d.txAck
}

// Close releases the OS port. Pumps must be idle (no armed operation).
func (d *Driver) Close() error {
	if d.port != nil {
		return d.port.Close()
	}
	return nil
}

// reader drains the OS port into the ring, standing in for the RX ISR.
// When the ring is full it waits on the writable edge until the assembler
// makes space, so wire bytes are never dropped on the floor.
func (d *Driver) reader() {
	chunk := make([]byte, 64)
	for {
		n, err := d.port.Read(chunk)
		p := chunk[:n]
		for len(p) > 0 {
			m := d.ring.WriteFrom(p)
			p = p[m:]
			if m == 0 {
				<-d.ring.Writable()
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			close(d.failed)
			return
		}
		// n == 0 with io.EOF is the read timeout tick.
	}
}

func (d *Driver) rxPump() {
	for {
		select {
		case buf := <-d.rxArm:
			d.fill(buf)
		case <-d.rxCut:
			d.rxAck <- struct{}{} // nothing armed
		}
	}
}

func (d *Driver) fill(buf []byte) {
	n := 0
	for n < len(buf) {
		select {
		case <-d.rxCut:
			d.rxAck <- struct{}{}
			return
		default:
		}
		if m := d.ring.ReadInto(buf[n:]); m > 0 {
			n += m
			continue
		}
		select {
		case <-d.ring.Readable():
			// Coalesced wake; re-check the ring.
		case <-d.failed:
			// Deliver what the wire produced before the port died.
			for n < len(buf) {
				m := d.ring.ReadInto(buf[n:])
				if m == 0 {
					break
				}
				n += m
			}
			if n == len(buf) {
				break
			}
			d.isr(uart.Completion{Kind: uart.RxDone, N: n, Code: errcode.Transfer})
			return
		case <-d.rxCut:
			d.rxAck <- struct{}{}
			return
		}
	}
	d.isr(uart.Completion{Kind: uart.RxDone, N: n, Code: errcode.OK})
}

func (d *Driver) txPump() {
	for {
		select {
		case buf := <-d.txArm:
			select {
			case <-d.txCut:
				d.txAck <- struct{}{}
				continue
			default:
			}
			n, err := d.port.Write(buf)
			code := errcode.OK
			if err != nil {
				code = errcode.Transfer
			}
			select {
			case <-d.txCut:
				d.txAck <- struct{}{}
				continue
			default:
			}
			d.isr(uart.Completion{Kind: uart.TxDone, N: n, Code: code})
		case <-d.txCut:
			d.txAck <- struct{}{}
		}
	}
}
