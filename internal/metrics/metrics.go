// Package metrics exposes Prometheus counters for the login flows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Token kinds
const (
	KindSession = "qr_session"
	KindNonce   = "nonce"
	KindState   = "oauth_state"
	KindCode    = "exchange_code"
)

// Exchange outcomes
const (
	OutcomeRedeemed     = "redeemed"
	OutcomeInvalid      = "invalid"
	OutcomeUnauthorized = "unauthorized"
)

// Metrics owns its registry so several instances can coexist in tests.
// A nil *Metrics records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	tokensIssued *prometheus.CounterVec
	logins       *prometheus.CounterVec
	exchanges    *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authcenter",
			Name:      "tokens_issued_total",
			Help:      "Ephemeral tokens issued, by kind.",
		}, []string{"kind"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authcenter",
			Name:      "logins_total",
			Help:      "Completed provider logins, by method.",
		}, []string{"method"}),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "authcenter",
			Name:      "exchanges_total",
			Help:      "Exchange code redemption attempts, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.tokensIssued,
		m.logins,
		m.exchanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) TokenIssued(kind string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(kind).Inc()
}

func (m *Metrics) LoginCompleted(method string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(method).Inc()
}

func (m *Metrics) Exchange(outcome string) {
	if m == nil {
		return
	}
	m.exchanges.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
