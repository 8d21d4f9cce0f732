//go:build rp2040 || rp2350

package pin

import (
	"machine"

	"periphio-go/types"
)

// RPDriver adapts a machine.Pin input. The RP2 port delivers the interrupt
// with no edge information, so the handler classifies by sampling the level.
type RPDriver struct {
	p machine.Pin
}

// NewRP configures GP n as an input with the requested pull.
func NewRP(n int, pull types.Pull) *RPDriver {
	d := &RPDriver{p: machine.Pin(n)}
	mode := machine.PinInput
	switch pull {
	case types.PullUp:
		mode = machine.PinInputPullup
	case types.PullDown:
		mode = machine.PinInputPulldown
	}
	d.p.Configure(machine.PinConfig{Mode: mode})
	return d
}

func (d *RPDriver) Get() bool { return d.p.Get() }

func (d *RPDriver) SetIRQ(edge types.Edge, handler func(types.Edge)) error {
	return d.p.SetInterrupt(toPinChange(edge), func(p machine.Pin) {
		if p.Get() {
			handler(types.EdgeRising)
		} else {
			handler(types.EdgeFalling)
		}
	})
}

func (d *RPDriver) ClearIRQ() error {
	var zero machine.PinChange
	return d.p.SetInterrupt(zero, nil)
}

func toPinChange(e types.Edge) machine.PinChange {
	switch e {
	case types.EdgeRising:
		return machine.PinRising
	case types.EdgeFalling:
		return machine.PinFalling
	case types.EdgeBoth:
		return machine.PinToggle
	default:
		var zero machine.PinChange
		return zero
	}
}
