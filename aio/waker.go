package aio

// Waker marks the awaiting task runnable again. The executor supplies it at
// poll time; the core only stores and invokes it. Implementations must be
// callable from interrupt context: no allocation, no blocking.
type Waker func()

// ChanWaker returns a Waker delivering coalesced notifications on ch.
// ch should have capacity 1; repeated wakes before the receiver runs
// collapse into a single pending notification, so receivers must re-check
// state after waking.
func ChanWaker(ch chan<- struct{}) Waker {
	return func() {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
