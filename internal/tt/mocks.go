// Package tt provides shared test helpers: a scriptable document, a
// configurable fetcher mock, and recorders for events and renders.
package tt

import (
	"context"
	"strings"
	"sync"

	"github.com/rickchristie/ghost"
)

// -----------------------------------------------------------------------------
// ScriptedDocument - implements ghost.Document over a plain text buffer
// -----------------------------------------------------------------------------

// ScriptedDocument is an in-memory document for tests. Positions are
// rune offsets; blocks are newline-separated lines. All methods are
// safe for concurrent use.
type ScriptedDocument struct {
	mu     sync.Mutex
	text   []rune
	cursor int
}

// NewScriptedDocument creates a document holding text, cursor at the
// end.
func NewScriptedDocument(text string) *ScriptedDocument {
	runes := []rune(text)
	return &ScriptedDocument{text: runes, cursor: len(runes)}
}

// Text returns the full document text.
func (d *ScriptedDocument) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.text)
}

// Cursor returns the cursor position.
func (d *ScriptedDocument) Cursor() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}

// SetCursor moves the cursor, clamped to the document bounds.
func (d *ScriptedDocument) SetCursor(pos int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor = d.clamp(pos)
}

// Type inserts s at the cursor and advances the cursor past it.
func (d *ScriptedDocument) Type(s string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spliceLocked(d.cursor, s)
	d.cursor += len([]rune(s))
}

// Delete removes n runes before the cursor.
func (d *ScriptedDocument) Delete(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := d.clamp(d.cursor - n)
	d.text = append(d.text[:start], d.text[d.cursor:]...)
	d.cursor = start
}

// Len implements ghost.Document.
func (d *ScriptedDocument) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.text)
}

// TextBefore implements ghost.Document.
func (d *ScriptedDocument) TextBefore(pos, max int) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	pos = d.clamp(pos)
	start := pos - max
	if start < 0 {
		start = 0
	}
	return string(d.text[start:pos])
}

// Selection implements ghost.Document; the document models a caret.
func (d *ScriptedDocument) Selection() (from, to int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor, d.cursor
}

// BlockStart implements ghost.Document: the offset just past the
// previous newline.
func (d *ScriptedDocument) BlockStart(pos int) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	pos = d.clamp(pos)
	for i := pos - 1; i >= 0; i-- {
		if d.text[i] == '\n' {
			return i + 1
		}
	}
	return 0
}

// Insert implements ghost.Document. The cursor moves past the inserted
// text when it sat at or after the insertion point.
func (d *ScriptedDocument) Insert(pos int, text string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	pos = d.clamp(pos)
	d.spliceLocked(pos, text)
	if d.cursor >= pos {
		d.cursor += len([]rune(text))
	}
}

func (d *ScriptedDocument) spliceLocked(pos int, s string) {
	runes := []rune(s)
	out := make([]rune, 0, len(d.text)+len(runes))
	out = append(out, d.text[:pos]...)
	out = append(out, runes...)
	out = append(out, d.text[pos:]...)
	d.text = out
}

func (d *ScriptedDocument) clamp(pos int) int {
	if pos < 0 {
		return 0
	}
	if pos > len(d.text) {
		return len(d.text)
	}
	return pos
}

// Compile-time check that ScriptedDocument implements ghost.Document.
var _ ghost.Document = (*ScriptedDocument)(nil)

// -----------------------------------------------------------------------------
// MockFetcher - implements ghost.Fetcher with queued outcomes
// -----------------------------------------------------------------------------

// MockFetcher is a configurable ghost.Fetcher. Outcomes are consumed in
// queue order; an exhausted queue yields (nil, nil). Gate() makes every
// call block until Release() so tests can hold a fetch in flight.
type MockFetcher struct {
	mu        sync.Mutex
	responses []*ghost.Suggestion
	errors    []error
	panics    []bool
	callCount int

	// Captured stores the request passed to each Fetch call.
	Captured []ghost.FetchRequest

	entered chan ghost.FetchRequest
	release chan struct{}
}

// NewMockFetcher creates an empty MockFetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{}
}

// AddSuggestion queues a successful outcome.
func (f *MockFetcher) AddSuggestion(completion string, plan ...string) *MockFetcher {
	return f.add(&ghost.Suggestion{Completion: completion, Plan: plan}, nil, false)
}

// AddEmpty queues a (nil, nil) outcome.
func (f *MockFetcher) AddEmpty() *MockFetcher {
	return f.add(nil, nil, false)
}

// AddError queues an error outcome.
func (f *MockFetcher) AddError(err error) *MockFetcher {
	return f.add(nil, err, false)
}

// AddPanic queues a call that panics, for cleanup-path tests.
func (f *MockFetcher) AddPanic() *MockFetcher {
	return f.add(nil, nil, true)
}

func (f *MockFetcher) add(s *ghost.Suggestion, err error, panics bool) *MockFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, s)
	f.errors = append(f.errors, err)
	f.panics = append(f.panics, panics)
	return f
}

// Gate makes subsequent Fetch calls block until Release (or context
// cancellation). Entered() observes calls entering the gate.
func (f *MockFetcher) Gate() *MockFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entered = make(chan ghost.FetchRequest, 16)
	f.release = make(chan struct{})
	return f
}

// Entered returns the channel that receives each gated request as it
// arrives. Only valid after Gate.
func (f *MockFetcher) Entered() <-chan ghost.FetchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entered
}

// Release unblocks every current and future gated Fetch call.
func (f *MockFetcher) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.release != nil {
		close(f.release)
		f.release = nil
	}
}

// CallCount returns how many times Fetch was called.
func (f *MockFetcher) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount
}

// Fetch implements ghost.Fetcher.
func (f *MockFetcher) Fetch(
	ctx context.Context,
	req ghost.FetchRequest,
) (*ghost.Suggestion, error) {
	f.mu.Lock()
	idx := f.callCount
	f.callCount++
	f.Captured = append(f.Captured, req)
	entered := f.entered
	release := f.release
	f.mu.Unlock()

	if entered != nil {
		entered <- req
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if idx < len(f.panics) && f.panics[idx] {
		panic("mock fetcher: scripted panic")
	}
	if idx < len(f.errors) && f.errors[idx] != nil {
		return nil, f.errors[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return nil, nil
}

// Compile-time check that MockFetcher implements ghost.Fetcher.
var _ ghost.Fetcher = (*MockFetcher)(nil)

// -----------------------------------------------------------------------------
// Recorder - collects events for assertions
// -----------------------------------------------------------------------------

// Recorder implements every subscriber interface and stores received
// events in order.
type Recorder struct {
	mu     sync.Mutex
	events []ghost.Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(e ghost.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// OnFetchStarted implements ghost.FetchStartedSubscriber.
func (r *Recorder) OnFetchStarted(e *ghost.FetchStartedEvent) { r.record(e) }

// OnFetchFinished implements ghost.FetchFinishedSubscriber.
func (r *Recorder) OnFetchFinished(e *ghost.FetchFinishedEvent) { r.record(e) }

// OnLockContended implements ghost.LockContendedSubscriber.
func (r *Recorder) OnLockContended(e *ghost.LockContendedEvent) { r.record(e) }

// OnSuggestionAccepted implements ghost.SuggestionAcceptedSubscriber.
func (r *Recorder) OnSuggestionAccepted(e *ghost.SuggestionAcceptedEvent) { r.record(e) }

// OnSuggestionDismissed implements ghost.SuggestionDismissedSubscriber.
func (r *Recorder) OnSuggestionDismissed(e *ghost.SuggestionDismissedEvent) { r.record(e) }

// OnSuggestionInvalidated implements ghost.SuggestionInvalidatedSubscriber.
func (r *Recorder) OnSuggestionInvalidated(e *ghost.SuggestionInvalidatedEvent) { r.record(e) }

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []ghost.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ghost.Event(nil), r.events...)
}

// Accepted returns the recorded acceptance events.
func (r *Recorder) Accepted() []*ghost.SuggestionAcceptedEvent {
	return eventsOf[*ghost.SuggestionAcceptedEvent](r)
}

// Dismissed returns the recorded dismissal events.
func (r *Recorder) Dismissed() []*ghost.SuggestionDismissedEvent {
	return eventsOf[*ghost.SuggestionDismissedEvent](r)
}

// Invalidated returns the recorded invalidation events.
func (r *Recorder) Invalidated() []*ghost.SuggestionInvalidatedEvent {
	return eventsOf[*ghost.SuggestionInvalidatedEvent](r)
}

// Contended returns the recorded lock contention events.
func (r *Recorder) Contended() []*ghost.LockContendedEvent {
	return eventsOf[*ghost.LockContendedEvent](r)
}

// Started returns the recorded fetch-start events.
func (r *Recorder) Started() []*ghost.FetchStartedEvent {
	return eventsOf[*ghost.FetchStartedEvent](r)
}

// Finished returns the recorded fetch-finish events.
func (r *Recorder) Finished() []*ghost.FetchFinishedEvent {
	return eventsOf[*ghost.FetchFinishedEvent](r)
}

func eventsOf[T ghost.Event](r *Recorder) []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []T
	for _, e := range r.events {
		if typed, ok := e.(T); ok {
			out = append(out, typed)
		}
	}
	return out
}

// -----------------------------------------------------------------------------
// RecordingPresenter - collects rendered views
// -----------------------------------------------------------------------------

// RecordingPresenter implements ghost.Presenter and stores every
// rendered view.
type RecordingPresenter struct {
	mu    sync.Mutex
	views []ghost.View
}

// NewRecordingPresenter creates an empty RecordingPresenter.
func NewRecordingPresenter() *RecordingPresenter {
	return &RecordingPresenter{}
}

// Render implements ghost.Presenter.
func (p *RecordingPresenter) Render(view ghost.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.views = append(p.views, view)
}

// Views returns a copy of every rendered view.
func (p *RecordingPresenter) Views() []ghost.View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ghost.View(nil), p.views...)
}

// VisibleTexts returns the texts of the views that were visible.
func (p *RecordingPresenter) VisibleTexts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []string
	for _, v := range p.views {
		if v.Visible {
			out = append(out, v.Text)
		}
	}
	return out
}

// Compile-time check that RecordingPresenter implements ghost.Presenter.
var _ ghost.Presenter = (*RecordingPresenter)(nil)

// JoinPlan is a small helper for assertions on plan contents.
func JoinPlan(plan []string) string {
	return strings.Join(plan, " | ")
}
