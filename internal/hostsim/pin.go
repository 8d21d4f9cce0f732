package hostsim

import (
	"sync"

	"periphio-go/types"
)

// Pin simulates an IRQ-capable GPIO input. SetLevel plays the wire; the
// armed handler fires on matching transitions.
type Pin struct {
	mu      sync.Mutex
	level   bool
	edge    types.Edge
	handler func(types.Edge)
}

func NewPin(initial bool) *Pin {
	return &Pin{level: initial}
}

func (s *Pin) Get() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

func (s *Pin) SetIRQ(edge types.Edge, handler func(types.Edge)) error {
	s.mu.Lock()
	s.edge = edge
	s.handler = handler
	s.mu.Unlock()
	return nil
}

func (s *Pin) ClearIRQ() error {
	s.mu.Lock()
	s.edge = types.EdgeNone
	s.handler = nil
	s.mu.Unlock()
	return nil
}

// SetLevel drives the input and fires the interrupt on a matching edge.
func (s *Pin) SetLevel(level bool) {
	s.mu.Lock()
	prev := s.level
	s.level = level
	var fire func(types.Edge)
	var observed types.Edge
	if prev != level && s.handler != nil {
		if level {
			observed = types.EdgeRising
		} else {
			observed = types.EdgeFalling
		}
		if s.edge == types.EdgeBoth || s.edge == observed {
			fire = s.handler
		}
	}
	s.mu.Unlock()
	if fire != nil {
		fire(observed)
	}
}

// IRQEnabled reports whether an edge interrupt is armed.
func (s *Pin) IRQEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handler != nil
}
