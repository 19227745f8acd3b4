package ghost

const (
	// CursorDriftLimit is how far the cursor may move from a
	// suggestion's anchor before the suggestion is cleared.
	CursorDriftLimit = 50

	// SizeDeltaLimit is how much the document size may change since a
	// suggestion was issued before the suggestion is cleared. Catches
	// pastes and bulk deletes that leave the cursor near the anchor.
	SizeDeltaLimit = 100
)

// checkDrift decides whether a visible or in-flight suggestion must be
// cleared given the current cursor position and document size. Small
// local edits near the anchor deliberately do not clear the suggestion;
// the thresholds are a flicker-avoidance tolerance, not strict
// correctness.
func (s *suggestionState) checkDrift(cursor, docSize int) (InvalidationReason, bool) {
	if s.phase != PhaseVisible && s.phase != PhaseFetching {
		return "", false
	}
	if abs(cursor-s.anchorPos) > CursorDriftLimit {
		return InvalidatedCursorDrift, true
	}
	if abs(docSize-s.lastDocSize) > SizeDeltaLimit {
		return InvalidatedSizeDelta, true
	}
	return "", false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
