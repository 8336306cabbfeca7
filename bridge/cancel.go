// One-shot cancellation signal linking an external cancel request to
// the upstream request's abort mechanism.

package bridge

import "sync"

// CancelSignal is a one-shot cancellation source with a bounded set of
// listeners. Cancel is idempotent: the first call fires every
// registered listener once; later calls are no-ops. A listener
// registered after the signal has fired runs immediately.
type CancelSignal struct {
	mu        sync.Mutex
	fired     bool
	listeners []func()
}

// NewCancelSignal creates an unfired signal.
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{}
}

// Cancel fires the signal. Safe to call from any goroutine.
func (s *CancelSignal) Cancel() {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// OnCancel registers fn to run when the signal fires. If it already
// fired, fn runs before OnCancel returns.
func (s *CancelSignal) OnCancel(fn func()) {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		fn()
		return
	}
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Cancelled reports whether the signal has fired.
func (s *CancelSignal) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}
