package hostsim

import (
	"sync"

	"periphio-go/errcode"
	"periphio-go/periph/dma"
)

// DMA simulates a memory-to-memory channel. With Auto set, BeginTransfer
// copies and completes immediately; otherwise the test calls Fire or
// FireError to finish the armed transfer.
type DMA struct {
	mu  sync.Mutex
	isr func(dma.Completion)

	enabled  bool
	dst, src []byte

	Auto bool
}

func NewDMA() *DMA { return &DMA{} }

func (s *DMA) SetISR(h func(dma.Completion)) { s.isr = h }

func (s *DMA) BeginTransfer(dst, src []byte) error {
	s.mu.Lock()
	s.enabled = true
	s.dst, s.src = dst, src
	auto := s.Auto
	s.mu.Unlock()
	if auto {
		s.Fire()
	}
	return nil
}

func (s *DMA) Abort() {
	s.mu.Lock()
	s.enabled = false
	s.dst, s.src = nil, nil
	s.mu.Unlock()
}

// Fire moves the bytes and completes the armed transfer.
func (s *DMA) Fire() {
	s.mu.Lock()
	armed := s.enabled
	dst, src := s.dst, s.src
	s.enabled = false
	s.dst, s.src = nil, nil
	s.mu.Unlock()
	if !armed {
		return
	}
	n := copy(dst, src)
	s.isr(dma.Completion{N: n, Code: errcode.OK})
}

// FireError finishes the armed transfer with a transfer error after moving
// partial bytes.
func (s *DMA) FireError(partial int) {
	s.mu.Lock()
	armed := s.enabled
	dst, src := s.dst, s.src
	s.enabled = false
	s.dst, s.src = nil, nil
	s.mu.Unlock()
	if !armed {
		return
	}
	if partial > len(src) {
		partial = len(src)
	}
	n := copy(dst[:partial], src[:partial])
	s.isr(dma.Completion{N: n, Code: errcode.Transfer})
}

// SpuriousISR fires a completion with nothing armed.
func (s *DMA) SpuriousISR() {
	s.isr(dma.Completion{N: 0, Code: errcode.OK})
}

// Enabled reports whether the transfer-complete interrupt is enabled.
func (s *DMA) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}
