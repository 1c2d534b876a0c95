package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// BankRequests counts bank lookups. Every provider call is exactly one fetched or failed.
	BankRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ham_bank_requests_total",
		Help: "Bank lookups by outcome: hit (cache), shared (joined another caller's fetch), fetched and failed (provider calls).",
	}, []string{"outcome"})

	answerChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ham_answer_checks_total",
		Help: "Answer checks by outcome.",
	}, []string{"outcome"})
)

// ObserveBankRequest counts one bank lookup.
func ObserveBankRequest(outcome string) {
	BankRequests.WithLabelValues(outcome).Inc()
}

// ObserveCheck counts one evaluated answer.
func ObserveCheck(correct bool) {
	if correct {
		answerChecks.WithLabelValues("correct").Inc()
		return
	}
	answerChecks.WithLabelValues("incorrect").Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
