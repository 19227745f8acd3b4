package ghost

import "time"

// -----------------------------------------------------------------------------
// Event Interface
// -----------------------------------------------------------------------------

// Event is the marker interface for all engine events.
type Event interface {
	suggestionEvent()
}

// Dispatcher delivers events to whoever subscribed. The engine calls
// Dispatch on timer and fetch-completion goroutines; implementations
// must be safe for concurrent use. See the events subpackage for the
// standard implementation.
type Dispatcher interface {
	Dispatch(event Event)
}

// InvalidationReason says why a suggestion was cleared by the drift
// policy.
type InvalidationReason string

const (
	// InvalidatedCursorDrift means the cursor moved too far from the
	// suggestion's anchor.
	InvalidatedCursorDrift InvalidationReason = "cursor_drift"

	// InvalidatedSizeDelta means the document size changed too much
	// since the suggestion was issued (paste, bulk delete).
	InvalidatedSizeDelta InvalidationReason = "size_delta"
)

// -----------------------------------------------------------------------------
// Lifecycle Events
// -----------------------------------------------------------------------------

// FetchStartedEvent is emitted when a debounce timer fires, the flight
// lock is acquired, and a fetch is issued.
type FetchStartedEvent struct {
	// SurfaceID identifies the surface that issued the fetch.
	SurfaceID string

	// Trigger is the kind of trigger that scheduled the fetch.
	Trigger TriggerKind

	// ContextChars is the length of the context text sent.
	ContextChars int
}

func (FetchStartedEvent) suggestionEvent() {}

// FetchFinishedEvent is emitted when a fetch settles, whatever the
// outcome. Exactly one FetchFinishedEvent follows every
// FetchStartedEvent.
type FetchFinishedEvent struct {
	// SurfaceID identifies the surface that issued the fetch.
	SurfaceID string

	// Duration is how long the fetch took.
	Duration time.Duration

	// Err is the fetch error, nil on success.
	Err error

	// Empty is true when the fetch succeeded but produced no usable
	// completion.
	Empty bool

	// Discarded is true when the result arrived after the schedule had
	// become stale and was thrown away.
	Discarded bool
}

func (FetchFinishedEvent) suggestionEvent() {}

// LockContendedEvent is emitted when a surface's timer fired but
// another surface already held the flight lock, so the trigger was
// dropped.
type LockContendedEvent struct {
	// SurfaceID identifies the surface whose trigger was dropped.
	SurfaceID string
}

func (LockContendedEvent) suggestionEvent() {}

// -----------------------------------------------------------------------------
// Outcome Events
// -----------------------------------------------------------------------------

// SuggestionAcceptedEvent is emitted when the user accepts a visible
// suggestion and its text is inserted into the document.
type SuggestionAcceptedEvent struct {
	// SurfaceID identifies the surface.
	SurfaceID string

	// Length is the length of the accepted text.
	Length int
}

func (SuggestionAcceptedEvent) suggestionEvent() {}

// SuggestionDismissedEvent is emitted when a visible suggestion goes
// away without being accepted: an explicit reject, or an accept whose
// anchor no longer matched the cursor.
type SuggestionDismissedEvent struct {
	// SurfaceID identifies the surface.
	SurfaceID string
}

func (SuggestionDismissedEvent) suggestionEvent() {}

// SuggestionInvalidatedEvent is emitted when the drift policy clears a
// visible or in-flight suggestion.
type SuggestionInvalidatedEvent struct {
	// SurfaceID identifies the surface.
	SurfaceID string

	// Reason says which threshold tripped.
	Reason InvalidationReason
}

func (SuggestionInvalidatedEvent) suggestionEvent() {}
