// Package dma provides awaitable memory transfers over an interrupt-driven
// DMA channel.
package dma

import (
	"context"

	"periphio-go/aio"
	"periphio-go/errcode"
)

// Completion is handed to the bridge by the channel ISR after it has
// acknowledged the transfer-complete (or error) flag.
type Completion struct {
	N    int // bytes moved
	Code errcode.Code
}

// Driver is the register-level collaborator. BeginTransfer programs the
// channel and enables the transfer-complete interrupt; Abort halts the
// channel and disables it, tolerating an idle channel.
type Driver interface {
	BeginTransfer(dst, src []byte) error
	Abort()
	SetISR(func(Completion))
}

// Channel binds one DMA channel to its transfer operation state.
type Channel struct {
	drv  Driver
	xfer aio.Op[int]
}

func Open(drv Driver) *Channel {
	c := &Channel{drv: drv}
	drv.SetISR(c.serviceIRQ)
	return c
}

// Transfer arms a transfer of len(src) bytes into dst. Both buffers must
// stay untouched until the future resolves or is cancelled.
func (c *Channel) Transfer(dst, src []byte) (*aio.Future[int], error) {
	if len(src) == 0 || len(dst) < len(src) {
		return nil, errcode.InvalidParams
	}
	if err := c.xfer.Arm(c.drv.Abort); err != nil {
		return nil, err
	}
	if err := c.drv.BeginTransfer(dst, src); err != nil {
		c.xfer.Cancel()
		return nil, err
	}
	return aio.NewFuture(&c.xfer), nil
}

// Move runs one transfer to completion under the Go scheduler.
func (c *Channel) Move(ctx context.Context, dst, src []byte) (int, error) {
	f, err := c.Transfer(dst, src)
	if err != nil {
		return 0, err
	}
	return f.Await(ctx)
}

// serviceIRQ is the bridge tail. Interrupt context.
func (c *Channel) serviceIRQ(done Completion) {
	c.xfer.Finish(done.N, done.Code.OrNil())
}

// Spurious reports absorbed spurious transfer completions.
func (c *Channel) Spurious() uint32 { return c.xfer.Spurious() }
