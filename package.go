// Package ghost implements an inline AI suggestion engine ("ghost text")
// for text-editing surfaces.
//
// The engine watches document changes, decides when to request an
// AI-generated continuation, debounces and coalesces those requests,
// and reconciles the resulting suggestion against further user input.
// Rendering, document storage, and the generation service itself stay
// on the host's side of the boundary: the host implements [Document]
// and optionally [Presenter], and plugs in a [Fetcher].
//
// # Quick Start
//
//	package main
//
//	import (
//	    "os"
//
//	    "github.com/rickchristie/ghost"
//	    "github.com/rickchristie/ghost/events"
//	    "github.com/rickchristie/ghost/fetchers"
//	    "github.com/tmc/langchaingo/llms/openai"
//	)
//
//	func main() {
//	    llm, _ := openai.New(openai.WithToken(os.Getenv("OPENAI_API_KEY")))
//	    fetcher := fetchers.NewModel(llm).WithModelName("gpt-4o-mini")
//
//	    registry := events.NewRegistry()
//	    coord := ghost.NewCoordinator(fetcher, ghost.WithDispatcher(registry))
//
//	    // One surface per open document. The host calls HandleChange /
//	    // HandleSelection on every edit and selection move, and binds
//	    // Accept / Reject to its keymap.
//	    surface := coord.NewSurface(myDocument, ghost.WithPresenter(myWidget))
//	    defer surface.Close()
//	}
//
// # Coordination Guarantees
//
// At most one generation request is in flight across all surfaces of a
// coordinator at any instant; a trigger arriving while the shared
// [FlightLock] is held is dropped, not queued. Within one surface, a
// burst of edits inside the debounce window coalesces into a single
// request, and a suggestion never becomes visible on top of another.
//
// # Failure Policy
//
// Nothing in this package panics across the host boundary, and fetch
// failures never surface to the writer. Transport errors, malformed
// payloads, and lock contention all degrade to "no suggestion shown";
// observers can subscribe to the typed events to see them.
package ghost
