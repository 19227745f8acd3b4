package subscribers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rickchristie/ghost"
)

// Metrics is an event subscriber that exports engine counters to
// Prometheus. Fetches are labeled by outcome: ok, empty, error, or
// discarded.
type Metrics struct {
	fetches     *prometheus.CounterVec
	contended   prometheus.Counter
	accepted    prometheus.Counter
	acceptedLen prometheus.Counter
	dismissed   prometheus.Counter
	invalidated *prometheus.CounterVec
}

// NewMetrics creates a Metrics subscriber registered on the given
// registerer (pass prometheus.DefaultRegisterer for the default).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ghost_fetches_total",
			Help: "Generation fetches settled, by outcome.",
		}, []string{"outcome"}),
		contended: factory.NewCounter(prometheus.CounterOpts{
			Name: "ghost_lock_contended_total",
			Help: "Triggers dropped because the flight lock was held.",
		}),
		accepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "ghost_suggestions_accepted_total",
			Help: "Suggestions accepted by the user.",
		}),
		acceptedLen: factory.NewCounter(prometheus.CounterOpts{
			Name: "ghost_accepted_chars_total",
			Help: "Characters inserted through accepted suggestions.",
		}),
		dismissed: factory.NewCounter(prometheus.CounterOpts{
			Name: "ghost_suggestions_dismissed_total",
			Help: "Suggestions dismissed without acceptance.",
		}),
		invalidated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ghost_suggestions_invalidated_total",
			Help: "Suggestions cleared by the drift policy, by reason.",
		}, []string{"reason"}),
	}
}

// OnFetchFinished counts a settled fetch by outcome.
func (m *Metrics) OnFetchFinished(e *ghost.FetchFinishedEvent) {
	outcome := "ok"
	switch {
	case e.Discarded:
		outcome = "discarded"
	case e.Err != nil:
		outcome = "error"
	case e.Empty:
		outcome = "empty"
	}
	m.fetches.WithLabelValues(outcome).Inc()
}

// OnLockContended counts a dropped trigger.
func (m *Metrics) OnLockContended(*ghost.LockContendedEvent) {
	m.contended.Inc()
}

// OnSuggestionAccepted counts an acceptance and its length.
func (m *Metrics) OnSuggestionAccepted(e *ghost.SuggestionAcceptedEvent) {
	m.accepted.Inc()
	m.acceptedLen.Add(float64(e.Length))
}

// OnSuggestionDismissed counts a dismissal.
func (m *Metrics) OnSuggestionDismissed(*ghost.SuggestionDismissedEvent) {
	m.dismissed.Inc()
}

// OnSuggestionInvalidated counts a drift invalidation by reason.
func (m *Metrics) OnSuggestionInvalidated(e *ghost.SuggestionInvalidatedEvent) {
	m.invalidated.WithLabelValues(string(e.Reason)).Inc()
}
