package ghost

// Document is the engine's view of one editable document. Host editors
// adapt their buffer or node model to this interface; the engine never
// holds document text beyond what it reads through these methods.
//
// Positions are zero-based character offsets into the document.
// Implementations must be safe to call from the goroutines the engine
// uses for debounce timers and fetch completions; hosts that are
// strictly single-threaded can guard the adapter with a mutex.
type Document interface {
	// Len returns the current document size in characters.
	Len() int

	// TextBefore returns up to max characters of text immediately
	// preceding pos.
	TextBefore(pos, max int) string

	// Selection returns the current selection as [from, to] offsets.
	// A caret (no selection) has from == to.
	Selection() (from, to int)

	// BlockStart returns the offset of the first character of the
	// block (paragraph, list item, line) containing pos.
	BlockStart(pos int) int

	// Insert inserts text at pos. Called only by [Surface.Accept],
	// with the surface's internal lock held: implementations must not
	// call back into the surface synchronously from Insert.
	Insert(pos int, text string)
}

// Presenter renders suggestion state. The engine calls Render with a
// fresh [View] after every observable state change; implementations
// draw the ghost text at View.AnchorPos and expose accept and reject
// affordances to the user.
//
// Render is called without internal locks held, but possibly from a
// timer or fetch-completion goroutine.
type Presenter interface {
	Render(view View)
}
