package ghost_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickchristie/ghost"
	"github.com/rickchristie/ghost/events"
	"github.com/rickchristie/ghost/internal/tt"
)

// -----------------------------------------------------------------------------
// Test Harness
// -----------------------------------------------------------------------------

type engine struct {
	coord   *ghost.Coordinator
	clock   *ghost.MockClock
	fetcher *tt.MockFetcher
	rec     *tt.Recorder
	cfg     *ghost.Config
}

// newEngine builds a coordinator on a mock clock with an event recorder
// attached. Tests drive time explicitly through engine.clock. The fetch
// timeout is disabled so gated fetches stay in flight until released.
func newEngine(t *testing.T, fetcher *tt.MockFetcher, mutate func(*ghost.Params)) *engine {
	t.Helper()

	p := ghost.DefaultParams()
	p.FetchTimeoutMs = 0
	if mutate != nil {
		mutate(&p)
	}
	cfg, err := ghost.NewConfig(p)
	require.NoError(t, err)

	clock := ghost.NewMockClock(time.Unix(0, 0))
	registry := events.NewRegistry()
	rec := tt.NewRecorder()
	registry.Subscribe(rec)

	coord := ghost.NewCoordinator(
		fetcher,
		ghost.WithConfig(cfg),
		ghost.WithClock(clock),
		ghost.WithDispatcher(registry),
	)

	return &engine{coord: coord, clock: clock, fetcher: fetcher, rec: rec, cfg: cfg}
}

func (e *engine) debounce() time.Duration {
	return e.cfg.Snapshot().Debounce()
}

func waitVisible(t *testing.T, s *ghost.Surface) ghost.View {
	t.Helper()
	require.Eventually(t, func() bool { return s.View().Visible },
		time.Second, time.Millisecond)
	return s.View()
}

func waitSettled(t *testing.T, e *engine, count int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(e.rec.Finished()) >= count },
		time.Second, time.Millisecond)
}

// -----------------------------------------------------------------------------
// Scheduling & Coalescing
// -----------------------------------------------------------------------------

func TestSurface_ScenarioA_SuggestionBecomesVisible(t *testing.T) {
	fetcher := tt.NewMockFetcher().
		AddSuggestion("lls, painting the sky orange.")
	e := newEngine(t, fetcher, func(p *ghost.Params) { p.PlanCount = 3 })

	doc := tt.NewScriptedDocument("The sun rose over the hi")
	surface := e.coord.NewSurface(doc, ghost.WithSurfaceID("s1"))
	defer surface.Close()

	anchor := doc.Cursor()
	surface.HandleChange()
	e.clock.Advance(e.debounce())

	view := waitVisible(t, surface)
	assert.Equal(t, "lls, painting the sky orange.", view.Text)
	assert.Equal(t, anchor, view.AnchorPos)
	assert.Empty(t, view.Plan)
	assert.False(t, view.Loading)

	// Exactly one fetch, carrying the pre-cursor context and the
	// config limits.
	require.Equal(t, 1, fetcher.CallCount())
	req := fetcher.Captured[0]
	assert.Equal(t, "The sun rose over the hi", req.ContextText)
	assert.Equal(t, 128, req.MaxTokens)
	assert.Equal(t, 3, req.PlanCount)

	// The flight lock is free again after settling.
	assert.False(t, e.coord.Lock().Held())
}

func TestSurface_Coalescing_BurstYieldsOneFetch(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("and then some")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The quick brown fox jumps")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	// A burst of edits, each within the debounce window of the last.
	for _, ch := range []string{" ", "o", "v", "e", "r"} {
		doc.Type(ch)
		surface.HandleChange()
		e.clock.Advance(100 * time.Millisecond)
	}
	assert.Equal(t, 0, fetcher.CallCount())

	e.clock.Advance(e.debounce())
	waitVisible(t, surface)
	assert.Equal(t, 1, fetcher.CallCount())
}

func TestSurface_SupersededTimerNeverFires(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("continuation")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("Writing some longer text here")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(300 * time.Millisecond)

	// Superseding trigger at t=300ms; the first timer's deadline
	// (t=700ms) passes without a fetch.
	doc.Type("!")
	surface.HandleChange()
	e.clock.Advance(500 * time.Millisecond)
	assert.Equal(t, 0, fetcher.CallCount())

	// The superseding timer fires at t=1000ms.
	e.clock.Advance(200 * time.Millisecond)
	waitVisible(t, surface)
	assert.Equal(t, 1, fetcher.CallCount())
}

func TestSurface_ScenarioE_ShortContextNeverFetches(t *testing.T) {
	fetcher := tt.NewMockFetcher()
	e := newEngine(t, fetcher, func(p *ghost.Params) { p.MinContextChars = 15 })

	// Trimmed context length 10 < 15.
	doc := tt.NewScriptedDocument("hello jim!")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())

	assert.Equal(t, 0, fetcher.CallCount())
	assert.False(t, surface.View().Visible)
	assert.False(t, surface.View().Loading)
}

func TestSurface_ContextTruncatedToWindow(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("tail")
	e := newEngine(t, fetcher, func(p *ghost.Params) {
		p.ContextWindowChars = 20
		p.MinContextChars = 5
	})

	doc := tt.NewScriptedDocument(strings.Repeat("a", 30) + " ending here")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	waitVisible(t, surface)

	require.Equal(t, 1, fetcher.CallCount())
	assert.Len(t, fetcher.Captured[0].ContextText, 20)
}

func TestSurface_DisabledEngineIgnoresTriggers(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("anything")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("Plenty of context to work with")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	e.cfg.SetEnabled(false)
	surface.HandleChange()
	e.clock.Advance(e.debounce())
	assert.Equal(t, 0, fetcher.CallCount())

	// Re-enabling takes effect on the next trigger.
	e.cfg.SetEnabled(true)
	surface.HandleChange()
	e.clock.Advance(e.debounce())
	waitVisible(t, surface)
	assert.Equal(t, 1, fetcher.CallCount())
}

func TestSurface_DebounceChangeAppliesToNextTrigger(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("first").AddSuggestion("second")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("Plenty of context to work with")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.cfg.SetDebounce(10 * time.Millisecond)

	// The already-armed timer keeps its original deadline.
	e.clock.Advance(10 * time.Millisecond)
	assert.Equal(t, 0, fetcher.CallCount())
	e.clock.Advance(690 * time.Millisecond)
	waitVisible(t, surface)

	// The next trigger uses the new interval.
	surface.Reject()
	doc.Type("x")
	surface.HandleChange()
	e.clock.Advance(10 * time.Millisecond)
	waitVisible(t, surface)
	assert.Equal(t, 2, fetcher.CallCount())
}

// -----------------------------------------------------------------------------
// Single-Flight Across Surfaces
// -----------------------------------------------------------------------------

func TestSurface_ScenarioB_SecondSurfaceDropped(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("one and only").Gate()
	e := newEngine(t, fetcher, nil)

	doc1 := tt.NewScriptedDocument("First surface with enough text")
	doc2 := tt.NewScriptedDocument("Second surface with enough text")
	s1 := e.coord.NewSurface(doc1, ghost.WithSurfaceID("s1"))
	s2 := e.coord.NewSurface(doc2, ghost.WithSurfaceID("s2"))
	defer s1.Close()
	defer s2.Close()

	// Both trigger within the same debounce window. The first to fire
	// takes the flight lock; the second's trigger is dropped.
	s1.HandleChange()
	s2.HandleChange()
	e.clock.Advance(e.debounce())

	<-fetcher.Entered()
	contended := e.rec.Contended()
	require.Len(t, contended, 1)
	assert.Equal(t, "s2", contended[0].SurfaceID)

	fetcher.Release()
	waitVisible(t, s1)

	assert.Equal(t, 1, fetcher.CallCount())
	assert.False(t, s2.View().Visible)
	assert.False(t, s2.View().Loading)
}

// -----------------------------------------------------------------------------
// Accept / Reject
// -----------------------------------------------------------------------------

func TestSurface_AtomicAccept(t *testing.T) {
	fetcher := tt.NewMockFetcher().
		AddSuggestion("lls, painting the sky orange.", "describe the valley", "introduce the farmer")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hi")
	surface := e.coord.NewSurface(doc, ghost.WithSurfaceID("s1"))
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	view := waitVisible(t, surface)
	assert.Equal(t, []string{"describe the valley", "introduce the farmer"}, view.Plan)

	require.True(t, surface.Accept())

	tt.RequireDocText(t, doc, "The sun rose over the hills, painting the sky orange.")
	after := surface.View()
	assert.False(t, after.Visible)
	assert.False(t, after.Loading)
	assert.Empty(t, after.Text)

	accepted := e.rec.Accepted()
	require.Len(t, accepted, 1)
	assert.Equal(t, "s1", accepted[0].SurfaceID)
	assert.Equal(t, len("lls, painting the sky orange."), accepted[0].Length)
}

func TestSurface_ScenarioC_RejectLeavesDocumentUntouched(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("something helpful")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hi")
	surface := e.coord.NewSurface(doc, ghost.WithSurfaceID("s1"))
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	waitVisible(t, surface)

	require.True(t, surface.Reject())

	tt.RequireDocText(t, doc, "The sun rose over the hi")
	assert.False(t, surface.View().Visible)

	dismissed := e.rec.Dismissed()
	require.Len(t, dismissed, 1)
	assert.Equal(t, "s1", dismissed[0].SurfaceID)
	assert.Empty(t, e.rec.Accepted())
}

func TestSurface_AcceptRejectNoopWithoutSuggestion(t *testing.T) {
	fetcher := tt.NewMockFetcher()
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("Some text sitting here quietly")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	assert.False(t, surface.Accept())
	assert.False(t, surface.Reject())
	tt.RequireDocText(t, doc, "Some text sitting here quietly")
	assert.Empty(t, e.rec.Events())
}

func TestSurface_AcceptWithMovedCursorDismisses(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("more prose")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hills")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	view := waitVisible(t, surface)

	// Move the cursor a little: not enough for drift invalidation, but
	// the anchor no longer matches, so accept refuses to insert.
	doc.SetCursor(view.AnchorPos - 3)
	assert.False(t, surface.Accept())

	tt.RequireDocText(t, doc, "The sun rose over the hills")
	assert.False(t, surface.View().Visible)
	assert.Len(t, e.rec.Dismissed(), 1)
}

// -----------------------------------------------------------------------------
// No Stacking
// -----------------------------------------------------------------------------

func TestSurface_NoSchedulingWhileVisible(t *testing.T) {
	fetcher := tt.NewMockFetcher().
		AddSuggestion("first suggestion").
		AddSuggestion("second suggestion")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hills")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	waitVisible(t, surface)

	// Typing near the anchor neither clears the suggestion nor
	// schedules a competing fetch.
	doc.Type(",")
	surface.HandleChange()
	e.clock.Advance(2 * e.debounce())

	assert.Equal(t, 1, fetcher.CallCount())
	view := surface.View()
	assert.True(t, view.Visible)
	assert.Equal(t, "first suggestion", view.Text)
}

// -----------------------------------------------------------------------------
// Invalidation
// -----------------------------------------------------------------------------

func TestSurface_CursorDriftClearsSuggestion(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("visible for a while")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hills and kept climbing through morning haze")
	surface := e.coord.NewSurface(doc, ghost.WithSurfaceID("s1"))
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	view := waitVisible(t, surface)

	doc.SetCursor(view.AnchorPos - (ghost.CursorDriftLimit + 10))
	surface.HandleSelection()

	assert.False(t, surface.View().Visible)
	invalidated := e.rec.Invalidated()
	require.Len(t, invalidated, 1)
	assert.Equal(t, ghost.InvalidatedCursorDrift, invalidated[0].Reason)
}

func TestSurface_SizeDeltaClearsSuggestion(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("visible for a while")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hills")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	view := waitVisible(t, surface)

	// A paste far before the cursor: document grows past the delta
	// threshold while the cursor offset stays at the anchor.
	doc.Insert(0, strings.Repeat("x", ghost.SizeDeltaLimit+50))
	doc.SetCursor(view.AnchorPos)
	surface.HandleChange()

	assert.False(t, surface.View().Visible)
	invalidated := e.rec.Invalidated()
	require.Len(t, invalidated, 1)
	assert.Equal(t, ghost.InvalidatedSizeDelta, invalidated[0].Reason)
}

func TestSurface_SmallEditsNearAnchorDoNotFlicker(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("steady suggestion")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hills")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	waitVisible(t, surface)

	doc.Type(" a")
	surface.HandleChange()
	doc.Delete(1)
	surface.HandleChange()

	assert.True(t, surface.View().Visible)
	assert.Empty(t, e.rec.Invalidated())
}

func TestSurface_MidFlightInvalidationDiscardsResult(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("too late to matter").Gate()
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hills")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	<-fetcher.Entered()
	assert.True(t, surface.View().Loading)

	// The user types far past the anchor while the fetch is in flight.
	doc.Type(strings.Repeat("x", ghost.CursorDriftLimit+10))
	surface.HandleChange()
	require.Len(t, e.rec.Invalidated(), 1)

	fetcher.Release()
	waitSettled(t, e, 1)

	fin := e.rec.Finished()[0]
	assert.True(t, fin.Discarded)
	assert.False(t, surface.View().Visible)
	assert.False(t, e.coord.Lock().Held())
}

// -----------------------------------------------------------------------------
// Lock Safety & Failure Paths
// -----------------------------------------------------------------------------

func TestSurface_LockReleasedOnFetchError(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddError(errors.New("upstream exploded"))
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hills")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	waitSettled(t, e, 1)

	fin := e.rec.Finished()[0]
	assert.Error(t, fin.Err)
	assert.False(t, fin.Empty)
	assert.False(t, surface.View().Visible)
	assert.False(t, surface.View().Loading)
	assert.False(t, e.coord.Lock().Held())

	// The failure did not wedge the surface: the next trigger fetches.
	fetcher.AddSuggestion("recovered")
	doc.Type("!")
	surface.HandleChange()
	e.clock.Advance(e.debounce())
	waitVisible(t, surface)
}

func TestSurface_LockReleasedOnFetcherPanic(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddPanic()
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hills")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	waitSettled(t, e, 1)

	assert.Error(t, e.rec.Finished()[0].Err)
	assert.False(t, e.coord.Lock().Held())
	assert.False(t, surface.View().Visible)
}

func TestSurface_EmptyResultMeansNoSuggestion(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddEmpty()
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hills")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	waitSettled(t, e, 1)

	fin := e.rec.Finished()[0]
	assert.NoError(t, fin.Err)
	assert.True(t, fin.Empty)
	assert.False(t, surface.View().Visible)
}

func TestSurface_WhitespaceCompletionTreatedAsEmpty(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("  \n\t ")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hills")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	waitSettled(t, e, 1)

	assert.True(t, e.rec.Finished()[0].Empty)
	assert.False(t, surface.View().Visible)
}

func TestSurface_FetchTimeoutReleasesLock(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("never arrives").Gate()
	e := newEngine(t, fetcher, func(p *ghost.Params) { p.FetchTimeoutMs = 50 })
	defer fetcher.Release()

	doc := tt.NewScriptedDocument("The sun rose over the hills")
	surface := e.coord.NewSurface(doc)
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	<-fetcher.Entered()

	// The hung fetch settles with a deadline error and frees the lock.
	waitSettled(t, e, 1)
	assert.Error(t, e.rec.Finished()[0].Err)
	assert.False(t, e.coord.Lock().Held())
	assert.False(t, surface.View().Loading)
}

// -----------------------------------------------------------------------------
// Teardown
// -----------------------------------------------------------------------------

func TestSurface_CloseCancelsPendingTimer(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("unused")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hills")
	surface := e.coord.NewSurface(doc)

	surface.HandleChange()
	surface.Close()
	e.clock.Advance(2 * e.debounce())

	assert.Equal(t, 0, fetcher.CallCount())
}

func TestSurface_CloseDiscardsInFlightResult(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("posthumous").Gate()
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hills")
	surface := e.coord.NewSurface(doc)

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	<-fetcher.Entered()

	surface.Close()
	fetcher.Release()
	waitSettled(t, e, 1)

	assert.True(t, e.rec.Finished()[0].Discarded)
	assert.False(t, e.coord.Lock().Held())
	assert.False(t, surface.View().Visible)

	// Notifications after Close are ignored.
	surface.HandleChange()
	e.clock.Advance(2 * e.debounce())
	assert.Equal(t, 1, fetcher.CallCount())
}

// -----------------------------------------------------------------------------
// Presentation
// -----------------------------------------------------------------------------

func TestSurface_PresenterSeesLoadingThenVisible(t *testing.T) {
	fetcher := tt.NewMockFetcher().AddSuggestion("rendered text")
	e := newEngine(t, fetcher, nil)

	doc := tt.NewScriptedDocument("The sun rose over the hills")
	pres := tt.NewRecordingPresenter()
	surface := e.coord.NewSurface(doc, ghost.WithPresenter(pres))
	defer surface.Close()

	surface.HandleChange()
	e.clock.Advance(e.debounce())
	waitVisible(t, surface)

	views := pres.Views()
	require.GreaterOrEqual(t, len(views), 2)
	assert.True(t, views[0].Loading)
	assert.False(t, views[0].Visible)
	last := views[len(views)-1]
	assert.True(t, last.Visible)
	assert.Equal(t, "rendered text", last.Text)

	// Reject renders the cleared state.
	surface.Reject()
	views = pres.Views()
	final := views[len(views)-1]
	assert.False(t, final.Visible)
	assert.Empty(t, final.Text)
}
