package ghost

// Coordinator owns everything shared between editing surfaces: the
// configuration, the clock, the fetcher, the event dispatcher, and the
// single [FlightLock] that keeps at most one generation request in
// flight process-wide. Hosts create one Coordinator and one [Surface]
// per open document.
type Coordinator struct {
	cfg     *Config
	clock   Clock
	lock    *FlightLock
	fetcher Fetcher
	events  Dispatcher
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithConfig sets the shared configuration. Defaults to
// [NewDefaultConfig].
func WithConfig(cfg *Config) CoordinatorOption {
	return func(c *Coordinator) {
		c.cfg = cfg
	}
}

// WithClock sets the clock used for debounce timers and durations.
// Defaults to [SystemClock]. Tests inject a [MockClock].
func WithClock(clock Clock) CoordinatorOption {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

// WithDispatcher sets the event dispatcher. Without one, events are
// dropped.
func WithDispatcher(d Dispatcher) CoordinatorOption {
	return func(c *Coordinator) {
		c.events = d
	}
}

// NewCoordinator creates a Coordinator around the given fetcher.
func NewCoordinator(fetcher Fetcher, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		cfg:     NewDefaultConfig(),
		clock:   NewSystemClock(),
		lock:    NewFlightLock(),
		fetcher: fetcher,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the shared configuration. The host's runtime controls
// (enable toggle, plan count, safe mode) are the setters on it.
func (c *Coordinator) Config() *Config {
	return c.cfg
}

// Lock returns the shared flight lock, mainly for observability.
func (c *Coordinator) Lock() *FlightLock {
	return c.lock
}

// dispatch forwards an event to the dispatcher, if any.
func (c *Coordinator) dispatch(event Event) {
	if c.events != nil {
		c.events.Dispatch(event)
	}
}
