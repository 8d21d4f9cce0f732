package hostsim

import (
	"sync"
	"time"

	"periphio-go/errcode"
	"periphio-go/periph/timer"
	"periphio-go/types"
)

// Timer simulates a hardware timer on the host clock. Alarms use a real
// time.Timer, so short durations behave like compare-match interrupts;
// captures are delivered by the test with InjectEdge.
type Timer struct {
	mu  sync.Mutex
	isr func(timer.Completion)

	epoch time.Time

	alarm        *time.Timer
	alarmArmed   bool
	captureArmed bool
	captureEdge  types.Edge
}

func NewTimer() *Timer {
	return &Timer{epoch: time.Now()}
}

func (s *Timer) SetISR(h func(timer.Completion)) { s.isr = h }

func (s *Timer) count() uint64 {
	return uint64(time.Since(s.epoch))
}

func (s *Timer) BeginAlarm(d time.Duration) error {
	s.mu.Lock()
	s.alarmArmed = true
	s.alarm = time.AfterFunc(d, s.fireAlarm)
	s.mu.Unlock()
	return nil
}

func (s *Timer) AbortAlarm() {
	s.mu.Lock()
	s.alarmArmed = false
	if s.alarm != nil {
		s.alarm.Stop()
		s.alarm = nil
	}
	s.mu.Unlock()
}

func (s *Timer) BeginCapture(edge types.Edge) error {
	s.mu.Lock()
	s.captureArmed = true
	s.captureEdge = edge
	s.mu.Unlock()
	return nil
}

func (s *Timer) AbortCapture() {
	s.mu.Lock()
	s.captureArmed = false
	s.mu.Unlock()
}

func (s *Timer) fireAlarm() {
	s.mu.Lock()
	armed := s.alarmArmed
	s.alarmArmed = false
	s.alarm = nil
	s.mu.Unlock()
	if !armed {
		return
	}
	s.isr(timer.Completion{
		Kind: timer.AlarmDone, Count: s.count(), Code: errcode.OK,
	})
}

// InjectEdge presents an input edge; it completes the armed capture when
// the edge matches the armed selection.
func (s *Timer) InjectEdge(e types.Edge) {
	s.mu.Lock()
	armed := s.captureArmed
	want := s.captureEdge
	match := armed && (want == types.EdgeBoth || want == e)
	if match {
		s.captureArmed = false
	}
	s.mu.Unlock()
	if !match {
		return
	}
	s.isr(timer.Completion{
		Kind: timer.CaptureDone, Count: s.count(), Edge: e, Code: errcode.OK,
	})
}

// SpuriousISR fires an alarm completion with nothing armed.
func (s *Timer) SpuriousISR() {
	s.isr(timer.Completion{Kind: timer.AlarmDone, Count: s.count(), Code: errcode.OK})
}

// AlarmArmed reports whether the compare interrupt is enabled.
func (s *Timer) AlarmArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alarmArmed
}

// CaptureArmed reports whether the capture interrupt is enabled.
func (s *Timer) CaptureArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captureArmed
}
