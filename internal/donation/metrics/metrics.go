package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the donation lifecycle.
type Metrics struct {
	DonationsCreated   prometheus.Counter
	CandidaciesCreated prometheus.Counter
	ReceiversChosen    prometheus.Counter
	ReturnsCompleted   prometheus.Counter
	Transitions        *prometheus.CounterVec
}

// New creates and registers the donation metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		DonationsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givetrack_donations_created_total",
			Help: "Total donations created.",
		}),
		CandidaciesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givetrack_candidacies_created_total",
			Help: "Total candidacies registered.",
		}),
		ReceiversChosen: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givetrack_receivers_chosen_total",
			Help: "Total receiver selections.",
		}),
		ReturnsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "givetrack_returns_completed_total",
			Help: "Total completed return cycles.",
		}),
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "givetrack_status_transitions_total",
			Help: "Status transitions by target status.",
		}, []string{"to"}),
	}
}

func (m *Metrics) IncrementDonationsCreated() {
	if m != nil {
		m.DonationsCreated.Inc()
	}
}

func (m *Metrics) IncrementCandidaciesCreated() {
	if m != nil {
		m.CandidaciesCreated.Inc()
	}
}

func (m *Metrics) IncrementReceiversChosen() {
	if m != nil {
		m.ReceiversChosen.Inc()
	}
}

func (m *Metrics) IncrementReturnsCompleted() {
	if m != nil {
		m.ReturnsCompleted.Inc()
	}
}

func (m *Metrics) ObserveTransition(to string) {
	if m != nil {
		m.Transitions.WithLabelValues(to).Inc()
	}
}
