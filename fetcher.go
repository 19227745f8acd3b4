package ghost

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// FetchRequest carries everything a [Fetcher] needs for one generation
// call. ContextText is the document text immediately preceding the
// cursor, already truncated to the configured context window.
type FetchRequest struct {
	ContextText string
	MaxTokens   int
	Temperature float64
	PlanCount   int
	SafeMode    bool
}

// Suggestion is one generated continuation plus a short plan list
// describing where the text could go next. Plan may be empty.
type Suggestion struct {
	Completion string
	Plan       []string
}

// Fetcher is the boundary to the text-generation collaborator.
//
// Fetch returns (nil, nil) when the service produced nothing usable;
// that is not an error. Implementations must respect ctx cancellation
// and must not panic: the engine treats a panicking fetcher as a fetch
// error, but well-behaved implementations return one instead.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*Suggestion, error)
}

// Sanitize normalizes a raw completion: leading whitespace and newlines
// are stripped, internal whitespace runs collapse to single spaces, and
// trailing whitespace is dropped. An empty result means "no suggestion".
func Sanitize(completion string) string {
	var sb strings.Builder
	sb.Grow(len(completion))

	inRun := false
	started := false
	for _, r := range completion {
		if unicode.IsSpace(r) {
			inRun = true
			continue
		}
		if inRun && started {
			sb.WriteByte(' ')
		}
		inRun = false
		started = true
		sb.WriteRune(r)
	}

	return sb.String()
}

// Complete is a one-shot convenience that applies the engine's
// precondition and truncation rules to text and calls the fetcher
// directly, bypassing debounce and locking. Returns (nil, nil) when the
// trimmed context is shorter than p.MinContextChars.
func Complete(ctx context.Context, fetcher Fetcher, text string, p Params) (*Suggestion, error) {
	contextText := tail(text, p.ContextWindowChars)
	if utf8.RuneCountInString(strings.TrimSpace(contextText)) < p.MinContextChars {
		return nil, nil
	}

	return fetcher.Fetch(ctx, FetchRequest{
		ContextText: contextText,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		PlanCount:   p.PlanCount,
		SafeMode:    p.SafeMode,
	})
}

// tail returns the last max characters of s.
func tail(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[len(runes)-max:])
}
