package events

import (
	"sync"

	"github.com/rickchristie/ghost"
)

// UnsubscribeFunc removes a subscription. After calling, the subscriber
// receives no further events. Safe to call multiple times.
type UnsubscribeFunc func()

// Registry manages event subscribers and dispatches engine events to
// them.
//
// # Overview
//
// Registry is the defined contract between the engine and its
// observability collaborators: subscriptions are explicit, typed, and
// individually cancelable, rather than listeners on an ambient bus.
// Subscribers are called in registration order; a subscriber can
// implement any combination of the subscriber interfaces from the root
// package and only receives events for the interfaces it implements.
//
// # Creating and Using
//
//	registry := events.NewRegistry()
//	unsubLog := registry.Subscribe(subscribers.NewLogger(os.Stdout))
//	unsubMet := registry.Subscribe(subscribers.NewMetrics(prometheus.DefaultRegisterer))
//	defer unsubLog()
//	defer unsubMet()
//
//	coord := ghost.NewCoordinator(fetcher, ghost.WithDispatcher(registry))
//
// # Thread Safety
//
// All methods are safe for concurrent use: the engine dispatches from
// timer and fetch-completion goroutines while the host may subscribe
// and unsubscribe at any time. Dispatch is fire-and-forget; subscriber
// return values do not exist, and a slow subscriber delays only the
// dispatching goroutine.
type Registry struct {
	mu     sync.RWMutex
	subs   []subscription
	nextID uint64
}

type subscription struct {
	id         uint64
	subscriber any
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Subscribe adds a subscriber and returns the function that removes it.
// The subscriber can implement any combination of the subscriber
// interfaces (ghost.SuggestionAcceptedSubscriber,
// ghost.FetchFinishedSubscriber, etc.).
func (r *Registry) Subscribe(subscriber any) UnsubscribeFunc {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.subs = append(r.subs, subscription{id: id, subscriber: subscriber})

	return func() {
		r.unsubscribe(id)
	}
}

// unsubscribe removes the subscription with the given id.
func (r *Registry) unsubscribe(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, sub := range r.subs {
		if sub.id == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered subscribers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Dispatch sends an event to all matching subscribers. Implements
// [ghost.Dispatcher].
func (r *Registry) Dispatch(event ghost.Event) {
	r.mu.RLock()
	subs := make([]subscription, len(r.subs))
	copy(subs, r.subs)
	r.mu.RUnlock()

	switch e := event.(type) {
	case *ghost.FetchStartedEvent:
		for _, s := range subs {
			if sub, ok := s.subscriber.(ghost.FetchStartedSubscriber); ok {
				sub.OnFetchStarted(e)
			}
		}
	case *ghost.FetchFinishedEvent:
		for _, s := range subs {
			if sub, ok := s.subscriber.(ghost.FetchFinishedSubscriber); ok {
				sub.OnFetchFinished(e)
			}
		}
	case *ghost.LockContendedEvent:
		for _, s := range subs {
			if sub, ok := s.subscriber.(ghost.LockContendedSubscriber); ok {
				sub.OnLockContended(e)
			}
		}
	case *ghost.SuggestionAcceptedEvent:
		for _, s := range subs {
			if sub, ok := s.subscriber.(ghost.SuggestionAcceptedSubscriber); ok {
				sub.OnSuggestionAccepted(e)
			}
		}
	case *ghost.SuggestionDismissedEvent:
		for _, s := range subs {
			if sub, ok := s.subscriber.(ghost.SuggestionDismissedSubscriber); ok {
				sub.OnSuggestionDismissed(e)
			}
		}
	case *ghost.SuggestionInvalidatedEvent:
		for _, s := range subs {
			if sub, ok := s.subscriber.(ghost.SuggestionInvalidatedSubscriber); ok {
				sub.OnSuggestionInvalidated(e)
			}
		}
	}
}

// Compile-time check that Registry implements ghost.Dispatcher.
var _ ghost.Dispatcher = (*Registry)(nil)
