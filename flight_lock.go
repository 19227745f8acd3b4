package ghost

import "sync"

// FlightLock guarantees that at most one generation request is in
// flight across every surface that shares it. It is owned by a
// [Coordinator] and injected into each surface; there is no package
// level instance.
//
// The lock does not block: a caller that loses TryAcquire drops its
// trigger, it never queues. Requests counts every acquisition attempt,
// successful or not.
type FlightLock struct {
	mu       sync.Mutex
	held     bool
	requests uint64
}

// NewFlightLock creates an unheld FlightLock.
func NewFlightLock() *FlightLock {
	return &FlightLock{}
}

// TryAcquire attempts to take the lock. Reports whether the caller now
// holds it.
func (l *FlightLock) TryAcquire() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.requests++
	if l.held {
		return false
	}
	l.held = true
	return true
}

// Release returns the lock. Releasing an unheld lock is a no-op so the
// guaranteed-cleanup path is safe to run unconditionally.
func (l *FlightLock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
}

// Held reports whether the lock is currently held.
func (l *FlightLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// Requests returns the total number of acquisition attempts.
func (l *FlightLock) Requests() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requests
}
