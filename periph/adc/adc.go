// Package adc provides awaitable single conversions over an
// interrupt-driven analog-to-digital converter.
package adc

import (
	"context"

	"periphio-go/aio"
	"periphio-go/errcode"
)

// Sample is what a converter ISR hands to the bridge: the raw reading, or a
// hardware error classified from the status register.
type Sample struct {
	Value uint16
	Code  errcode.Code
}

// Driver is the register-level collaborator. BeginConvert selects the
// channel, enables the conversion-done interrupt and starts one conversion;
// Abort disables the interrupt and must be tolerated with no conversion in
// flight.
type Driver interface {
	BeginConvert(channel uint8) error
	Abort()
	SetISR(func(Sample))
}

// ADC binds a converter driver to its conversion operation state.
type ADC struct {
	drv  Driver
	conv aio.Op[uint16]
}

func New(drv Driver) *ADC {
	a := &ADC{drv: drv}
	drv.SetISR(a.serviceIRQ)
	return a
}

// Convert arms a single conversion of the given channel. Busy surfaces
// synchronously while a conversion is outstanding or unconsumed.
func (a *ADC) Convert(channel uint8) (*aio.Future[uint16], error) {
	if err := a.conv.Arm(a.drv.Abort); err != nil {
		return nil, err
	}
	if err := a.drv.BeginConvert(channel); err != nil {
		a.conv.Cancel()
		return nil, err
	}
	return aio.NewFuture(&a.conv), nil
}

// ReadChannel runs one conversion to completion under the Go scheduler.
func (a *ADC) ReadChannel(ctx context.Context, channel uint8) (uint16, error) {
	f, err := a.Convert(channel)
	if err != nil {
		return 0, err
	}
	return f.Await(ctx)
}

// serviceIRQ is the bridge tail. Interrupt context.
func (a *ADC) serviceIRQ(s Sample) {
	a.conv.Finish(s.Value, s.Code.OrNil())
}

// Spurious reports absorbed spurious conversion completions.
func (a *ADC) Spurious() uint32 { return a.conv.Spurious() }
