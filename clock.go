package ghost

import (
	"sort"
	"sync"
	"time"
)

// Clock provides time and timer functionality for the engine. It allows
// injecting a controllable time source so debounce behavior can be
// tested deterministically.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc arms a timer that calls f after d elapses. The callback
	// may run on any goroutine.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a handle to an armed timer.
type Timer interface {
	// Stop cancels the timer. Reports whether the call stopped the
	// timer before it fired.
	Stop() bool
}

// SystemClock is the standard Clock backed by the runtime timers.
type SystemClock struct{}

// NewSystemClock creates a new SystemClock.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current system time.
func (*SystemClock) Now() time.Time {
	return time.Now()
}

// AfterFunc arms a runtime timer.
func (*SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// MockClock is a Clock whose time only moves when Advance is called.
// Timers armed through it fire synchronously, in deadline order, from
// inside Advance. Useful for testing debounce and staleness behavior
// without real sleeps.
type MockClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*mockTimer
	nextID uint64
}

// NewMockClock creates a MockClock starting at the given time.
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

// Now returns the mock's current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc arms a mock timer firing at Now()+d.
func (c *MockClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &mockTimer{
		clock:    c,
		id:       c.nextID,
		deadline: c.now.Add(d),
		f:        f,
	}
	c.nextID++
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every due timer in
// deadline order. Callbacks run synchronously on the calling goroutine
// and may arm new timers; newly armed timers also fire if they fall
// within the advanced range.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)

	for {
		t := c.popDueLocked(target)
		if t == nil {
			break
		}
		if t.deadline.After(c.now) {
			c.now = t.deadline
		}
		// Run the callback without holding the clock mutex so it can
		// arm or stop timers.
		c.mu.Unlock()
		t.f()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

// popDueLocked removes and returns the earliest timer with a deadline
// at or before target, or nil if none is due.
func (c *MockClock) popDueLocked(target time.Time) *mockTimer {
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].deadline.Equal(c.timers[j].deadline) {
			return c.timers[i].id < c.timers[j].id
		}
		return c.timers[i].deadline.Before(c.timers[j].deadline)
	})

	if len(c.timers) == 0 || c.timers[0].deadline.After(target) {
		return nil
	}
	t := c.timers[0]
	c.timers = c.timers[1:]
	return t
}

// remove deletes a timer, reporting whether it was still pending.
func (c *MockClock) remove(t *mockTimer) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, other := range c.timers {
		if other.id == t.id {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return true
		}
	}
	return false
}

type mockTimer struct {
	clock    *MockClock
	id       uint64
	deadline time.Time
	f        func()
}

// Stop cancels the timer if it has not fired yet.
func (t *mockTimer) Stop() bool {
	return t.clock.remove(t)
}

// Compile-time checks that both clocks implement Clock.
var (
	_ Clock = (*SystemClock)(nil)
	_ Clock = (*MockClock)(nil)
)
