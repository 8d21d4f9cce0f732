// Package hostsim provides simulated peripheral drivers for host builds.
// Their "interrupts" are method calls: tests and host tools play the
// hardware, delivering bytes, samples, edges and errors, and can inspect
// the interrupt-enable flags that cancellation is required to clear.
package hostsim

import (
	"sync"

	"periphio-go/errcode"
	"periphio-go/periph/uart"
	"periphio-go/types"
	"periphio-go/x/bytering"
)

// UART simulates a UART with an RX fifo in front of the armed receive, the
// way a real part buffers bytes that arrive between operations. TX either
// completes on delivery (LoopTX) or waits for PumpTX.
type UART struct {
	mu  sync.Mutex
	isr func(uart.Completion)

	cfg types.SerialConfig

	rxEnabled bool
	rxBuf     []byte
	rxN       int
	fifo      *bytering.Ring

	txEnabled bool
	txBuf     []byte
	sent      []byte

	// LoopTX completes transmits immediately on Begin, recording the
	// bytes; otherwise the test fires PumpTX itself.
	LoopTX bool
}

func NewUART() *UART {
	return &UART{fifo: bytering.New(256)}
}

func (s *UART) Configure(cfg types.SerialConfig) error {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

func (s *UART) SetISR(h func(uart.Completion)) { s.isr = h }

func (s *UART) BeginReceive(buf []byte) error {
	s.mu.Lock()
	s.rxBuf = buf
	s.rxN = 0
	s.rxEnabled = true
	// Drain bytes that arrived before the operation was armed.
	for s.rxN < len(s.rxBuf) {
		n := s.fifo.ReadInto(s.rxBuf[s.rxN:])
		if n == 0 {
			break
		}
		s.rxN += n
	}
	fire := s.rxN == len(s.rxBuf)
	if fire {
		s.rxEnabled = false
		s.rxBuf = nil
	}
	n := s.rxN
	s.mu.Unlock()
	if fire {
		s.isr(uart.Completion{Kind: uart.RxDone, N: n, Code: errcode.OK})
	}
	return nil
}

func (s *UART) AbortReceive() {
	s.mu.Lock()
	s.rxEnabled = false
	s.rxBuf = nil
	s.rxN = 0
	s.mu.Unlock()
}

func (s *UART) BeginTransmit(buf []byte) error {
	s.mu.Lock()
	s.txEnabled = true
	s.txBuf = buf
	loop := s.LoopTX
	s.mu.Unlock()
	if loop {
		s.PumpTX()
	}
	return nil
}

func (s *UART) AbortTransmit() {
	s.mu.Lock()
	s.txEnabled = false
	s.txBuf = nil
	s.mu.Unlock()
}

// ---- hardware side (the "wire" and the simulated ISR) ----

// RxByte delivers one byte from the wire, as the RX interrupt would.
func (s *UART) RxByte(b byte) {
	s.mu.Lock()
	if !s.rxEnabled || s.rxBuf == nil {
		s.fifo.WriteFrom([]byte{b})
		s.mu.Unlock()
		return
	}
	s.rxBuf[s.rxN] = b
	s.rxN++
	fire := s.rxN == len(s.rxBuf)
	n := s.rxN
	if fire {
		s.rxEnabled = false
		s.rxBuf = nil
		s.rxN = 0
	}
	s.mu.Unlock()
	if fire {
		s.isr(uart.Completion{Kind: uart.RxDone, N: n, Code: errcode.OK})
	}
}

// RxBytes delivers a burst.
func (s *UART) RxBytes(p []byte) {
	for _, b := range p {
		s.RxByte(b)
	}
}

// RxError finishes the armed receive with a hardware error, as the status
// bits would classify it.
func (s *UART) RxError(code errcode.Code) {
	s.mu.Lock()
	n := s.rxN
	s.rxEnabled = false
	s.rxBuf = nil
	s.rxN = 0
	s.mu.Unlock()
	s.isr(uart.Completion{Kind: uart.RxDone, N: n, Code: code})
}

// PumpTX completes the armed transmit, recording the bytes "on the wire".
func (s *UART) PumpTX() {
	s.mu.Lock()
	buf := s.txBuf
	armed := s.txEnabled
	s.txEnabled = false
	s.txBuf = nil
	s.mu.Unlock()
	if !armed {
		return
	}
	s.mu.Lock()
	s.sent = append(s.sent, buf...)
	s.mu.Unlock()
	s.isr(uart.Completion{Kind: uart.TxDone, N: len(buf), Code: errcode.OK})
}

// SpuriousISR fires a completion with nothing armed, modelling a shared
// interrupt line or a cancellation that disabled the source too late.
func (s *UART) SpuriousISR(kind uart.Kind) {
	s.isr(uart.Completion{Kind: kind, N: 0, Code: errcode.OK})
}

// RxEnabled reports whether the receive-completion interrupt is enabled.
func (s *UART) RxEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rxEnabled
}

// TxEnabled reports whether the transmit-completion interrupt is enabled.
func (s *UART) TxEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txEnabled
}

// Sent returns everything transmitted so far.
func (s *UART) Sent() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.sent))
	copy(out, s.sent)
	return out
}
