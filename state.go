package ghost

// Phase is one state of the per-surface suggestion lifecycle.
//
//	Idle → Scheduled → Fetching → Visible → Idle
//
// Fetching drops straight back to Idle on failure or an empty result.
// Every transition out of Visible clears the suggestion fields in the
// same step, so a render can never observe a half-cleared suggestion.
type Phase int

const (
	// PhaseIdle means nothing is scheduled, fetching, or visible.
	PhaseIdle Phase = iota

	// PhaseScheduled means a debounce timer is armed.
	PhaseScheduled

	// PhaseFetching means a fetch is in flight for this surface.
	PhaseFetching

	// PhaseVisible means a suggestion is showing at its anchor.
	PhaseVisible
)

// String returns the phase name for logs and events.
func (p Phase) String() string {
	switch p {
	case PhaseScheduled:
		return "scheduled"
	case PhaseFetching:
		return "fetching"
	case PhaseVisible:
		return "visible"
	default:
		return "idle"
	}
}

// View is a read-only snapshot of a surface's suggestion state, handed
// to the [Presenter] after every observable change.
//
// Invariants: Visible implies Text is non-empty; Loading implies
// !Visible.
type View struct {
	// Visible reports whether a suggestion is showing.
	Visible bool

	// Loading reports whether a fetch is in flight.
	Loading bool

	// AnchorPos is the document position the suggestion is tied to,
	// captured when the fetch was issued.
	AnchorPos int

	// Text is the suggestion text. Empty unless Visible.
	Text string

	// Plan is the short plan list accompanying the suggestion.
	Plan []string
}

// suggestionState is the per-surface state machine. All access goes
// through the owning surface's mutex.
type suggestionState struct {
	phase             Phase
	anchorPos         int
	text              string
	plan              []string
	lastDocSize       int
	lastSelectionFrom int
}

// clear drops the suggestion in one step and returns the state to Idle.
func (s *suggestionState) clear() {
	s.phase = PhaseIdle
	s.anchorPos = 0
	s.text = ""
	s.plan = nil
}

// view builds a View snapshot.
func (s *suggestionState) view() View {
	v := View{
		Visible:   s.phase == PhaseVisible,
		Loading:   s.phase == PhaseFetching,
		AnchorPos: s.anchorPos,
	}
	if v.Visible {
		v.Text = s.text
		v.Plan = append([]string(nil), s.plan...)
	}
	return v
}
