package hostsim

import (
	"sync"

	"periphio-go/errcode"
	"periphio-go/periph/adc"
)

// ADC simulates a converter. With Auto set, BeginConvert completes
// immediately from the per-channel readings; otherwise the test delivers
// the sample itself with Deliver or DeliverError.
type ADC struct {
	mu  sync.Mutex
	isr func(adc.Sample)

	enabled bool
	channel uint8

	Auto     bool
	readings map[uint8]uint16
}

func NewADC() *ADC {
	return &ADC{readings: map[uint8]uint16{}}
}

func (s *ADC) SetISR(h func(adc.Sample)) { s.isr = h }

// SetReading sets the value a conversion of ch will observe.
func (s *ADC) SetReading(ch uint8, v uint16) {
	s.mu.Lock()
	s.readings[ch] = v
	s.mu.Unlock()
}

func (s *ADC) BeginConvert(channel uint8) error {
	s.mu.Lock()
	s.enabled = true
	s.channel = channel
	auto := s.Auto
	v := s.readings[channel]
	s.mu.Unlock()
	if auto {
		s.fire(adc.Sample{Value: v, Code: errcode.OK})
	}
	return nil
}

func (s *ADC) Abort() {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()
}

// Deliver finishes the armed conversion with v, as the done interrupt would.
func (s *ADC) Deliver(v uint16) {
	s.fire(adc.Sample{Value: v, Code: errcode.OK})
}

// DeliverError finishes the armed conversion with a hardware error.
func (s *ADC) DeliverError(code errcode.Code) {
	s.fire(adc.Sample{Code: code})
}

// SpuriousISR fires the done interrupt with nothing armed.
func (s *ADC) SpuriousISR() {
	s.isr(adc.Sample{Code: errcode.OK})
}

// Enabled reports whether the conversion-done interrupt is enabled.
func (s *ADC) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Channel reports the channel selected by the last BeginConvert.
func (s *ADC) Channel() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

func (s *ADC) fire(smp adc.Sample) {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()
	s.isr(smp)
}
