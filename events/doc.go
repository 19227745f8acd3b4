// Package events provides the standard event subscriber registry for
// the ghost engine.
//
// The engine emits typed events (fetch lifecycle, accept, dismiss,
// invalidation, lock contention) through the [ghost.Dispatcher]
// interface; Registry is its standard implementation. Subscribers
// implement any combination of the subscriber interfaces defined in
// the root package and receive only the event types they declare.
package events
