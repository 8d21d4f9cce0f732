// Package uart provides awaitable receive/transmit operations over an
// interrupt-driven UART. The register-level driver is an external
// collaborator behind the Driver interface; this package owns the
// operation state machines and the interrupt bridge tail.
package uart

import (
	"context"

	"periphio-go/aio"
	"periphio-go/errcode"
	"periphio-go/types"
)

// Kind tags which direction a Completion belongs to.
type Kind uint8

const (
	RxDone Kind = iota
	TxDone
)

// Completion is what a driver's interrupt service routine hands to the port
// bridge after it has acknowledged the interrupt source and classified the
// status bits.
type Completion struct {
	Kind Kind
	N    int          // bytes moved
	Code errcode.Code // OK or a hardware error (framing, overrun, ...)
}

// Driver is the register-level collaborator. Begin calls configure the
// hardware and enable the completion interrupt; Abort calls disable it and
// stop the operation, and must be tolerated even when nothing is in flight.
// The installed ISR is invoked from interrupt context.
type Driver interface {
	Configure(cfg types.SerialConfig) error
	BeginReceive(buf []byte) error
	AbortReceive()
	BeginTransmit(buf []byte) error
	AbortTransmit()
	SetISR(func(Completion))
}

// Port binds one driver to its receive and transmit operation state.
// The binding is static: interrupt and task code reach the same Ops with no
// dynamic lookup. At most one receive and one transmit may be outstanding.
type Port struct {
	drv Driver
	rx  aio.Op[int]
	tx  aio.Op[int]
}

// Open configures the line and installs the port's interrupt bridge.
func Open(drv Driver, cfg types.SerialConfig) (*Port, error) {
	if err := drv.Configure(cfg); err != nil {
		return nil, err
	}
	p := &Port{drv: drv}
	drv.SetISR(p.serviceIRQ)
	return p, nil
}

// Receive arms a receive of exactly len(buf) bytes and starts the hardware.
// Busy surfaces here, synchronously, if a receive is already outstanding or
// completed-unconsumed. The returned future yields the byte count; hardware
// errors (framing, overrun, parity, break) arrive as the future's error.
func (p *Port) Receive(buf []byte) (*aio.Future[int], error) {
	if len(buf) == 0 {
		return nil, errcode.InvalidParams
	}
	if err := p.rx.Arm(p.drv.AbortReceive); err != nil {
		return nil, err
	}
	if err := p.drv.BeginReceive(buf); err != nil {
		p.rx.Cancel()
		return nil, err
	}
	return aio.NewFuture(&p.rx), nil
}

// Transmit arms a transmit of the whole buffer and starts the hardware.
// The caller must keep buf unchanged until the future resolves or is
// cancelled.
func (p *Port) Transmit(buf []byte) (*aio.Future[int], error) {
	if len(buf) == 0 {
		return nil, errcode.InvalidParams
	}
	if err := p.tx.Arm(p.drv.AbortTransmit); err != nil {
		return nil, err
	}
	if err := p.drv.BeginTransmit(buf); err != nil {
		p.tx.Cancel()
		return nil, err
	}
	return aio.NewFuture(&p.tx), nil
}

// ReadFull receives exactly len(buf) bytes, blocking under the Go scheduler.
func (p *Port) ReadFull(ctx context.Context, buf []byte) (int, error) {
	f, err := p.Receive(buf)
	if err != nil {
		return 0, err
	}
	return f.Await(ctx)
}

// WriteAll transmits the whole buffer, blocking under the Go scheduler.
func (p *Port) WriteAll(ctx context.Context, buf []byte) (int, error) {
	f, err := p.Transmit(buf)
	if err != nil {
		return 0, err
	}
	return f.Await(ctx)
}

// serviceIRQ is the port half of the interrupt bridge (steps 3 and 4: finish
// the state machine, notify the wake cell). Interrupt context; completions
// with no armed operation are absorbed by the Op as spurious.
func (p *Port) serviceIRQ(c Completion) {
	switch c.Kind {
	case RxDone:
		p.rx.Finish(c.N, c.Code.OrNil())
	case TxDone:
		p.tx.Finish(c.N, c.Code.OrNil())
	}
}

// SpuriousRx reports absorbed spurious receive completions.
func (p *Port) SpuriousRx() uint32 { return p.rx.Spurious() }

// SpuriousTx reports absorbed spurious transmit completions.
func (p *Port) SpuriousTx() uint32 { return p.tx.Spurious() }
