package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ping_auth"

// Metrics counts authentication outcomes. Outcome labels are "success" or an error kind.
type Metrics struct {
	registrations *prometheus.CounterVec
	logins        *prometheus.CounterVec
	codesIssued   prometheus.Counter
	codeExchanges *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		registrations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "User registrations by outcome.",
		}, []string{"outcome"}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		codesIssued: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_codes_issued_total",
			Help:      "Authorization codes written to the code cache.",
		}),
		codeExchanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_code_exchanges_total",
			Help:      "Authorization code redemptions by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) Registration(outcome string) {
	m.registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Login(method, outcome string) {
	m.logins.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) CodeIssued() {
	m.codesIssued.Inc()
}

func (m *Metrics) CodeExchange(outcome string) {
	m.codeExchanges.WithLabelValues(outcome).Inc()
}
