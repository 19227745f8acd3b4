package ghost

import "strings"

// TriggerKind classifies a document-change notification.
type TriggerKind int

const (
	// TriggerNone means the change does not warrant scheduling.
	TriggerNone TriggerKind = iota

	// TriggerTyping is ordinary typing inside a block.
	TriggerTyping

	// TriggerPunctuation means the character before the cursor is one
	// of the configured trigger punctuation characters.
	TriggerPunctuation

	// TriggerNewline means the cursor sits at the start of its block in
	// a non-empty document.
	TriggerNewline
)

// String returns the kind's name for logs and events.
func (k TriggerKind) String() string {
	switch k {
	case TriggerTyping:
		return "typing"
	case TriggerPunctuation:
		return "punctuation"
	case TriggerNewline:
		return "newline"
	default:
		return "none"
	}
}

// Trigger is one classified change notification. It is produced and
// consumed within a single scheduling decision.
type Trigger struct {
	Kind     TriggerKind
	Position int
}

// Classify inspects the document around pos and classifies the change,
// in priority order: punctuation before the cursor wins, then
// block-start in a non-empty document, then plain typing. An empty
// document yields TriggerNone.
//
// Classify is a pure function of the current document state.
func Classify(doc Document, pos int, punctuation string) Trigger {
	if doc.Len() == 0 {
		return Trigger{Kind: TriggerNone, Position: pos}
	}

	before := doc.TextBefore(pos, 1)
	if before != "" && strings.ContainsRune(punctuation, lastRune(before)) {
		return Trigger{Kind: TriggerPunctuation, Position: pos}
	}

	if doc.BlockStart(pos) == pos {
		return Trigger{Kind: TriggerNewline, Position: pos}
	}

	return Trigger{Kind: TriggerTyping, Position: pos}
}

func lastRune(s string) rune {
	var r rune
	for _, c := range s {
		r = c
	}
	return r
}
