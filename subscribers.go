package ghost

// Subscriber interfaces define type-safe event subscriptions.
//
// Implement any combination of these interfaces on a single struct to
// receive multiple event types. The events.Registry detects which
// interfaces a subscriber implements and calls the matching methods.
//
// # Example
//
//	type TelemetrySubscriber struct {
//	    logger *log.Logger
//	}
//
//	func (s *TelemetrySubscriber) OnSuggestionAccepted(
//	    e *ghost.SuggestionAcceptedEvent,
//	) {
//	    s.logger.Printf("accepted %d chars on %s", e.Length, e.SurfaceID)
//	}
//
//	func (s *TelemetrySubscriber) OnFetchFinished(
//	    e *ghost.FetchFinishedEvent,
//	) {
//	    s.logger.Printf("fetch took %v (err=%v)", e.Duration, e.Err)
//	}
//
//	registry := events.NewRegistry()
//	unsubscribe := registry.Subscribe(&TelemetrySubscriber{logger: myLogger})
//	defer unsubscribe()

// FetchStartedSubscriber receives FetchStartedEvent events.
type FetchStartedSubscriber interface {
	OnFetchStarted(event *FetchStartedEvent)
}

// FetchFinishedSubscriber receives FetchFinishedEvent events.
type FetchFinishedSubscriber interface {
	OnFetchFinished(event *FetchFinishedEvent)
}

// LockContendedSubscriber receives LockContendedEvent events.
type LockContendedSubscriber interface {
	OnLockContended(event *LockContendedEvent)
}

// SuggestionAcceptedSubscriber receives SuggestionAcceptedEvent events.
type SuggestionAcceptedSubscriber interface {
	OnSuggestionAccepted(event *SuggestionAcceptedEvent)
}

// SuggestionDismissedSubscriber receives SuggestionDismissedEvent events.
type SuggestionDismissedSubscriber interface {
	OnSuggestionDismissed(event *SuggestionDismissedEvent)
}

// SuggestionInvalidatedSubscriber receives SuggestionInvalidatedEvent
// events.
type SuggestionInvalidatedSubscriber interface {
	OnSuggestionInvalidated(event *SuggestionInvalidatedEvent)
}
