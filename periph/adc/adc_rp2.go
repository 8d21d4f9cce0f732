//go:build rp2040 || rp2350

package adc

import (
	"device/rp"
	"machine"
	"runtime/interrupt"

	"periphio-go/errcode"
)

// RPDriver drives the RP2 SAR ADC through its result FIFO interrupt: one
// START_ONCE conversion lands one entry in the FIFO, which raises
// ADC_IRQ_FIFO. Sample bit 15 carries the conversion error flag.
type RPDriver struct {
	isr    func(Sample)
	intr   interrupt.Interrupt
	inited bool
}

// One SAR ADC per part.
var rpADC = &RPDriver{}

func NewRP() *RPDriver { return rpADC }

func (d *RPDriver) SetISR(h func(Sample)) { d.isr = h }

func (d *RPDriver) BeginConvert(channel uint8) error {
	if channel > 4 {
		return errcode.InvalidParams
	}
	if !d.inited {
		machine.InitADC()
		// Route results through the FIFO, one entry deep, error bit on.
		rp.ADC.FCS.SetBits(rp.ADC_FCS_EN | rp.ADC_FCS_ERR |
			1<<rp.ADC_FCS_THRESH_Pos)
		d.intr = interrupt.New(rp.IRQ_ADC_IRQ_FIFO, d.handleInterrupt)
		d.intr.SetPriority(0x80)
		d.intr.Enable()
		d.inited = true
	}
	rp.ADC.CS.ReplaceBits(uint32(channel)<<rp.ADC_CS_AINSEL_Pos,
		rp.ADC_CS_AINSEL_Msk, 0)
	rp.ADC.INTE.SetBits(rp.ADC_INTE_FIFO)
	rp.ADC.CS.SetBits(rp.ADC_CS_START_ONCE)
	return nil
}

func (d *RPDriver) Abort() {
	rp.ADC.INTE.ClearBits(rp.ADC_INTE_FIFO)
	// Drain a result that may have landed before the disable took effect,
	// so the next conversion starts from an empty FIFO.
	for !rp.ADC.FCS.HasBits(rp.ADC_FCS_EMPTY) {
		_ = rp.ADC.FIFO.Get()
	}
}

func (d *RPDriver) handleInterrupt(interrupt.Interrupt) {
	// Reading the FIFO entry clears the interrupt condition.
	v := rp.ADC.FIFO.Get()
	rp.ADC.INTE.ClearBits(rp.ADC_INTE_FIFO)
	code := errcode.OK
	if v&(1<<15) != 0 {
		code = errcode.Transfer
	}
	if d.isr != nil {
		d.isr(Sample{Value: uint16(v & 0x0fff), Code: code})
	}
}
