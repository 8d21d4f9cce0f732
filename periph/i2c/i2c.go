// Package i2c runs awaitable transactions over a blocking drivers.I2C bus.
//
// MCU I²C engines interrupt per transaction phase, but the tinygo.org
// drivers expose a blocking Tx. A dedicated worker goroutine stands in for
// the bus interrupt: it runs the transaction and finishes the operation
// from outside the arming task, so callers get the same arm/await/cancel
// protocol as the register-level peripherals.
package i2c

import (
	"context"
	"sync"

	"tinygo.org/x/drivers"

	"periphio-go/aio"
	"periphio-go/errcode"
)

type txReq struct {
	addr uint16
	w, r []byte
	gen  uint32
}

// Conn serialises transactions on one bus. One transaction may be
// outstanding at a time; arming a second returns busy.
type Conn struct {
	bus  drivers.I2C
	op   aio.Op[struct{}]
	reqs chan txReq

	// gen ties each request to its arming. Arm and Cancel both advance it
	// under mu, so a request whose arming was abandoned compares stale and
	// its completion cannot resolve a later transaction.
	mu    sync.Mutex
	gen   uint32
	stale uint32
}

func Open(bus drivers.I2C) *Conn {
	c := &Conn{bus: bus, reqs: make(chan txReq, 1)}
	go c.worker()
	return c
}

// Tx arms a write-then-read transaction. Read bytes land in r once the
// future resolves; bus failures surface as the future's error.
func (c *Conn) Tx(addr uint16, w, r []byte) (*aio.Future[struct{}], error) {
	if len(w) == 0 && len(r) == 0 {
		return nil, errcode.InvalidParams
	}
	// The worker cannot abort a blocking Tx mid-flight; cancellation
	// instead invalidates the request's generation, and the worker drops
	// the completion when it finally lands.
	c.mu.Lock()
	if err := c.op.Arm(c.invalidate); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.gen++
	g := c.gen
	c.mu.Unlock()
	c.reqs <- txReq{addr: addr, w: w, r: r, gen: g}
	return aio.NewFuture(&c.op), nil
}

// TxAwait runs one transaction to completion under the Go scheduler.
func (c *Conn) TxAwait(ctx context.Context, addr uint16, w, r []byte) error {
	f, err := c.Tx(addr, w, r)
	if err != nil {
		return err
	}
	_, err = f.Await(ctx)
	return err
}

// Close stops the worker. Outstanding transactions still complete.
func (c *Conn) Close() { close(c.reqs) }

// invalidate is the hardware-disable hook installed by Arm. It runs inside
// Cancel, after the op has left Armed.
func (c *Conn) invalidate() {
	c.mu.Lock()
	c.gen++
	c.mu.Unlock()
}

func (c *Conn) worker() {
	for req := range c.reqs {
		err := c.bus.Tx(req.addr, req.w, req.r)
		c.mu.Lock()
		if req.gen != c.gen {
			// The arming this request belonged to was cancelled; a new
			// transaction may already be armed. Drop the completion.
			c.stale++
			c.mu.Unlock()
			continue
		}
		if err != nil {
			c.op.Finish(struct{}{}, &errcode.E{
				C: errcode.Transfer, Op: "i2c.tx", Err: err,
			})
		} else {
			c.op.Finish(struct{}{}, nil)
		}
		c.mu.Unlock()
	}
}

// Spurious reports completions of transactions that were cancelled while
// the bus was already committed.
func (c *Conn) Spurious() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale + c.op.Spurious()
}
