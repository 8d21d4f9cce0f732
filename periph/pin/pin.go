// Package pin provides an awaitable wait-for-edge operation over an
// IRQ-capable GPIO input.
package pin

import (
	"context"

	"periphio-go/aio"
	"periphio-go/errcode"
	"periphio-go/types"
)

// Driver is the register-level collaborator: an input pin whose interrupt
// can be armed for a set of edges. The handler runs in interrupt context
// with the observed edge. ClearIRQ disables the source and must tolerate
// being called with no interrupt armed.
type Driver interface {
	Get() bool
	SetIRQ(edge types.Edge, handler func(types.Edge)) error
	ClearIRQ() error
}

// Pin binds one input to its edge-wait operation state. The wait is
// one-shot: the ISR disables the source after the first matching edge, the
// way the EXTI handler masks its line, so an un-consumed pin does not keep
// interrupting.
type Pin struct {
	drv  Driver
	wait aio.Op[types.Edge]
}

func New(drv Driver) *Pin {
	return &Pin{drv: drv}
}

// WaitForEdge arms the pin interrupt for the given edge selection. The
// future yields the edge that fired.
func (p *Pin) WaitForEdge(edge types.Edge) (*aio.Future[types.Edge], error) {
	if edge == types.EdgeNone {
		return nil, errcode.InvalidParams
	}
	if err := p.wait.Arm(p.clearIRQ); err != nil {
		return nil, err
	}
	if err := p.drv.SetIRQ(edge, p.serviceIRQ); err != nil {
		p.wait.Cancel()
		return nil, err
	}
	return aio.NewFuture(&p.wait), nil
}

// AwaitEdge blocks until the matching edge fires.
func (p *Pin) AwaitEdge(ctx context.Context, edge types.Edge) (types.Edge, error) {
	f, err := p.WaitForEdge(edge)
	if err != nil {
		return types.EdgeNone, err
	}
	return f.Await(ctx)
}

// Get reads the current input level.
func (p *Pin) Get() bool { return p.drv.Get() }

// serviceIRQ is the bridge tail. Interrupt context. Edges arriving with no
// armed wait are absorbed as spurious.
func (p *Pin) serviceIRQ(e types.Edge) {
	if p.wait.Finish(e, nil) {
		_ = p.drv.ClearIRQ() // one-shot: mask the line after the wake
	}
}

func (p *Pin) clearIRQ() { _ = p.drv.ClearIRQ() }

// Spurious reports absorbed spurious edge interrupts.
func (p *Pin) Spurious() uint32 { return p.wait.Spurious() }
