// Package subscribers provides ready-made event subscribers for the
// ghost engine: a logger for development and a Prometheus collector for
// production telemetry. Register them with events.Registry.
package subscribers

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rickchristie/ghost"
)

// Logger implements every subscriber interface and logs each event to a
// writer. Payloads are logged as YAML for easy reading; nothing is
// truncated.
type Logger struct {
	out io.Writer
}

// NewLogger creates a Logger that writes to stdout.
func NewLogger() *Logger {
	return &Logger{out: os.Stdout}
}

// NewLoggerWithWriter creates a Logger that writes to the given writer.
func NewLoggerWithWriter(w io.Writer) *Logger {
	return &Logger{out: w}
}

// logEvent logs an event header with timestamp.
func (l *Logger) logEvent(name string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(l.out, "\n>>> [%s]: %s\n", name, timestamp)
}

func (l *Logger) logYAML(v any) {
	data, err := yaml.Marshal(v)
	if err != nil {
		fmt.Fprintf(l.out, "(failed to marshal: %v)\n", err)
		return
	}
	fmt.Fprint(l.out, string(data))
}

// OnFetchStarted logs a fetch being issued.
func (l *Logger) OnFetchStarted(e *ghost.FetchStartedEvent) {
	l.logEvent("FetchStarted")
	l.logYAML(map[string]any{
		"surface":       e.SurfaceID,
		"trigger":       e.Trigger.String(),
		"context_chars": e.ContextChars,
	})
}

// OnFetchFinished logs a fetch settling.
func (l *Logger) OnFetchFinished(e *ghost.FetchFinishedEvent) {
	l.logEvent("FetchFinished")
	fields := map[string]any{
		"surface":   e.SurfaceID,
		"duration":  e.Duration.String(),
		"empty":     e.Empty,
		"discarded": e.Discarded,
	}
	if e.Err != nil {
		fields["error"] = e.Err.Error()
	}
	l.logYAML(fields)
}

// OnLockContended logs a dropped trigger.
func (l *Logger) OnLockContended(e *ghost.LockContendedEvent) {
	l.logEvent("LockContended")
	l.logYAML(map[string]any{"surface": e.SurfaceID})
}

// OnSuggestionAccepted logs an acceptance.
func (l *Logger) OnSuggestionAccepted(e *ghost.SuggestionAcceptedEvent) {
	l.logEvent("SuggestionAccepted")
	l.logYAML(map[string]any{
		"surface": e.SurfaceID,
		"length":  e.Length,
	})
}

// OnSuggestionDismissed logs a dismissal.
func (l *Logger) OnSuggestionDismissed(e *ghost.SuggestionDismissedEvent) {
	l.logEvent("SuggestionDismissed")
	l.logYAML(map[string]any{"surface": e.SurfaceID})
}

// OnSuggestionInvalidated logs a drift invalidation.
func (l *Logger) OnSuggestionInvalidated(e *ghost.SuggestionInvalidatedEvent) {
	l.logEvent("SuggestionInvalidated")
	l.logYAML(map[string]any{
		"surface": e.SurfaceID,
		"reason":  string(e.Reason),
	})
}
