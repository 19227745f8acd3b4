package ghost

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Surface binds the engine to one editing surface. The host notifies it
// of every document change and selection move, and routes the user's
// accept and reject intents to it. A surface holds no document text of
// its own; it reads through the [Document] it was created with.
//
// All methods are safe for concurrent use. Timer callbacks and fetch
// completions run on their own goroutines; the per-surface mutex keeps
// the state machine consistent, and the coordinator's [FlightLock] is
// the only state shared between surfaces.
type Surface struct {
	id        string
	coord     *Coordinator
	doc       Document
	presenter Presenter

	mu       sync.Mutex
	state    suggestionState
	seq      uint64 // latest schedule sequence; older handles are stale
	timer    Timer  // pending debounce timer, nil when none
	inFlight bool   // per-surface scheduling lock
	closed   bool
}

// SurfaceOption configures a Surface.
type SurfaceOption func(*Surface)

// WithPresenter sets the presenter that renders suggestion state.
func WithPresenter(p Presenter) SurfaceOption {
	return func(s *Surface) {
		s.presenter = p
	}
}

// WithSurfaceID overrides the generated surface ID. Useful when the
// host already has stable document identifiers.
func WithSurfaceID(id string) SurfaceOption {
	return func(s *Surface) {
		s.id = id
	}
}

// NewSurface creates a surface bound to the given document.
func (c *Coordinator) NewSurface(doc Document, opts ...SurfaceOption) *Surface {
	s := &Surface{
		id:    uuid.NewString(),
		coord: c,
		doc:   doc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the surface's identifier, as carried on events.
func (s *Surface) ID() string {
	return s.id
}

// View returns a read-only snapshot of the suggestion state.
func (s *Surface) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.view()
}

// HandleChange must be called on every document mutation. It first runs
// the drift policy against any visible or in-flight suggestion, then
// classifies the change and, when warranted, (re)arms the debounce
// timer. A burst of changes within one debounce window coalesces into a
// single fetch.
func (s *Surface) HandleChange() {
	cfg := s.coord.cfg.Snapshot()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	from, _ := s.doc.Selection()
	docSize := s.doc.Len()

	var invalidated *SuggestionInvalidatedEvent
	if reason, drifted := s.state.checkDrift(from, docSize); drifted {
		s.supersedeLocked()
		s.state.clear()
		invalidated = &SuggestionInvalidatedEvent{SurfaceID: s.id, Reason: reason}
	}

	trig := Classify(s.doc, from, cfg.TriggerPunctuation)
	s.scheduleLocked(cfg, trig)
	view := s.state.view()
	s.mu.Unlock()

	if invalidated != nil {
		s.coord.dispatch(invalidated)
		s.render(view)
	}
}

// HandleSelection must be called on every selection change that is not
// part of a document mutation. It only runs the drift policy; cursor
// movement alone never schedules a fetch.
func (s *Surface) HandleSelection() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	from, _ := s.doc.Selection()
	reason, drifted := s.state.checkDrift(from, s.doc.Len())
	if !drifted {
		s.state.lastSelectionFrom = from
		s.mu.Unlock()
		return
	}

	s.supersedeLocked()
	s.state.clear()
	view := s.state.view()
	s.mu.Unlock()

	s.coord.dispatch(&SuggestionInvalidatedEvent{SurfaceID: s.id, Reason: reason})
	s.render(view)
}

// Accept inserts the visible suggestion into the document at its anchor
// and clears the state in one step. The insert only happens when the
// cursor still sits at the anchor; otherwise the suggestion is
// dismissed without touching the document. Reports whether text was
// inserted. A no-op when no suggestion is visible.
func (s *Surface) Accept() bool {
	s.mu.Lock()
	if s.closed || s.state.phase != PhaseVisible {
		s.mu.Unlock()
		return false
	}

	from, _ := s.doc.Selection()
	if from != s.state.anchorPos {
		s.state.clear()
		view := s.state.view()
		s.mu.Unlock()
		s.coord.dispatch(&SuggestionDismissedEvent{SurfaceID: s.id})
		s.render(view)
		return false
	}

	text := s.state.text
	s.doc.Insert(s.state.anchorPos, text)
	s.state.clear()
	view := s.state.view()
	s.mu.Unlock()

	s.coord.dispatch(&SuggestionAcceptedEvent{
		SurfaceID: s.id,
		Length:    utf8.RuneCountInString(text),
	})
	s.render(view)
	return true
}

// Reject clears the visible suggestion without touching the document.
// Reports whether there was a suggestion to clear.
func (s *Surface) Reject() bool {
	s.mu.Lock()
	if s.closed || s.state.phase != PhaseVisible {
		s.mu.Unlock()
		return false
	}

	s.state.clear()
	view := s.state.view()
	s.mu.Unlock()

	s.coord.dispatch(&SuggestionDismissedEvent{SurfaceID: s.id})
	s.render(view)
	return true
}

// Close tears the surface down: the pending timer is canceled and any
// in-flight fetch becomes stale, its result discarded and the flight
// lock released when it settles. Safe to call more than once.
func (s *Surface) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.supersedeLocked()
	s.state.clear()
	s.mu.Unlock()
}

// supersedeLocked makes every outstanding schedule handle stale and
// cancels the pending timer, if any.
func (s *Surface) supersedeLocked() {
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.state.phase == PhaseScheduled {
		s.state.phase = PhaseIdle
	}
}

// scheduleLocked converts a trigger into an armed debounce timer. The
// no-op conditions: no trigger, engine disabled, suggestion already
// visible, or a fetch already in flight for this surface. A new trigger
// supersedes any pending timer outright.
func (s *Surface) scheduleLocked(cfg Params, trig Trigger) {
	if trig.Kind == TriggerNone || !cfg.Enabled {
		return
	}
	if s.state.phase == PhaseVisible || s.inFlight {
		return
	}

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.seq++
	handle := s.seq
	s.state.phase = PhaseScheduled

	kind := trig.Kind
	s.timer = s.coord.clock.AfterFunc(cfg.Debounce(), func() {
		s.fire(handle, kind)
	})
}

// fire runs when a debounce timer elapses. It re-validates that its
// handle is still the latest, that no suggestion became visible in the
// meantime, and that no fetch is in flight for this surface; then it
// checks the context precondition and races for the flight lock. Losing
// the race drops the trigger, it does not queue.
func (s *Surface) fire(handle uint64, kind TriggerKind) {
	cfg := s.coord.cfg.Snapshot()

	s.mu.Lock()
	if s.closed || handle != s.seq || s.state.phase == PhaseVisible || s.inFlight {
		s.mu.Unlock()
		return
	}
	s.timer = nil

	from, _ := s.doc.Selection()
	contextText := s.doc.TextBefore(from, cfg.ContextWindowChars)
	if utf8.RuneCountInString(strings.TrimSpace(contextText)) < cfg.MinContextChars {
		s.state.phase = PhaseIdle
		s.mu.Unlock()
		return
	}

	if !s.coord.lock.TryAcquire() {
		s.state.phase = PhaseIdle
		s.mu.Unlock()
		s.coord.dispatch(&LockContendedEvent{SurfaceID: s.id})
		return
	}

	// Anchor and document size are captured now, at issue time, so a
	// late-arriving result cannot mis-anchor the suggestion.
	s.inFlight = true
	s.state.phase = PhaseFetching
	s.state.anchorPos = from
	s.state.lastDocSize = s.doc.Len()
	s.state.lastSelectionFrom = from
	view := s.state.view()
	s.mu.Unlock()

	s.coord.dispatch(&FetchStartedEvent{
		SurfaceID:    s.id,
		Trigger:      kind,
		ContextChars: utf8.RuneCountInString(contextText),
	})
	s.render(view)

	go s.doFetch(handle, contextText, cfg)
}

// doFetch runs the fetch off the calling goroutine and settles the
// result.
func (s *Surface) doFetch(handle uint64, contextText string, cfg Params) {
	req := FetchRequest{
		ContextText: contextText,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		PlanCount:   cfg.PlanCount,
		SafeMode:    cfg.SafeMode,
	}

	ctx := context.Background()
	if timeout := cfg.FetchTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := s.coord.clock.Now()
	sugg, err := safeFetch(ctx, s.coord.fetcher, req)
	duration := s.coord.clock.Now().Sub(start)

	s.settle(handle, sugg, err, duration)
}

// safeFetch absorbs fetcher panics into errors so the cleanup path
// always runs.
func safeFetch(ctx context.Context, f Fetcher, req FetchRequest) (sugg *Suggestion, err error) {
	defer func() {
		if r := recover(); r != nil {
			sugg, err = nil, fmt.Errorf("ghost: fetcher panicked: %v", r)
		}
	}()
	return f.Fetch(ctx, req)
}

// settle applies a fetch outcome. The flight lock is released and the
// per-surface in-flight flag cleared before the suggestion state is
// touched, on every path.
func (s *Surface) settle(handle uint64, sugg *Suggestion, err error, duration time.Duration) {
	s.mu.Lock()
	s.coord.lock.Release()
	s.inFlight = false

	fin := &FetchFinishedEvent{SurfaceID: s.id, Duration: duration, Err: err}

	// A result that arrives after the schedule went stale is discarded;
	// in-flight fetches are not cancelable, only their effect is.
	if s.closed || handle != s.seq || s.state.phase != PhaseFetching {
		fin.Discarded = true
		s.mu.Unlock()
		s.coord.dispatch(fin)
		return
	}

	var text string
	if err == nil && sugg != nil {
		text = Sanitize(sugg.Completion)
	}

	if err != nil || text == "" {
		fin.Empty = err == nil
		s.state.clear()
		view := s.state.view()
		s.mu.Unlock()
		s.coord.dispatch(fin)
		s.render(view)
		return
	}

	s.state.phase = PhaseVisible
	s.state.text = text
	s.state.plan = append([]string(nil), sugg.Plan...)
	view := s.state.view()
	s.mu.Unlock()

	s.coord.dispatch(fin)
	s.render(view)
}

// render hands a snapshot to the presenter, if any.
func (s *Surface) render(view View) {
	if s.presenter != nil {
		s.presenter.Render(view)
	}
}
