package subscribers

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rickchristie/ghost"
)

func TestLogger_EventHeadersAndPayloads(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf)

	logger.OnFetchStarted(&ghost.FetchStartedEvent{
		SurfaceID:    "s1",
		Trigger:      ghost.TriggerPunctuation,
		ContextChars: 24,
	})
	logger.OnFetchFinished(&ghost.FetchFinishedEvent{
		SurfaceID: "s1",
		Duration:  150 * time.Millisecond,
	})
	logger.OnSuggestionAccepted(&ghost.SuggestionAcceptedEvent{SurfaceID: "s1", Length: 29})
	logger.OnSuggestionInvalidated(&ghost.SuggestionInvalidatedEvent{
		SurfaceID: "s1",
		Reason:    ghost.InvalidatedSizeDelta,
	})

	out := buf.String()
	assert.Contains(t, out, ">>> [FetchStarted]:")
	assert.Contains(t, out, "trigger: punctuation")
	assert.Contains(t, out, "context_chars: 24")
	assert.Contains(t, out, ">>> [FetchFinished]:")
	assert.Contains(t, out, "duration: 150ms")
	assert.Contains(t, out, ">>> [SuggestionAccepted]:")
	assert.Contains(t, out, "length: 29")
	assert.Contains(t, out, "reason: size_delta")
}

func TestLogger_FetchErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf)

	logger.OnFetchFinished(&ghost.FetchFinishedEvent{
		SurfaceID: "s1",
		Err:       errors.New("upstream exploded"),
	})
	logger.OnLockContended(&ghost.LockContendedEvent{SurfaceID: "s2"})
	logger.OnSuggestionDismissed(&ghost.SuggestionDismissedEvent{SurfaceID: "s1"})

	out := buf.String()
	assert.Contains(t, out, "error: upstream exploded")
	assert.Contains(t, out, ">>> [LockContended]:")
	assert.Contains(t, out, "surface: s2")
	assert.Contains(t, out, ">>> [SuggestionDismissed]:")
}
