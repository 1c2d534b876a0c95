package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveCounters(t *testing.T) {
	hits := testutil.ToFloat64(BankRequests.WithLabelValues("hit"))
	ObserveBankRequest("hit")
	if got := testutil.ToFloat64(BankRequests.WithLabelValues("hit")); got != hits+1 {
		t.Fatalf("expected %v hits, got %v", hits+1, got)
	}

	wrong := testutil.ToFloat64(answerChecks.WithLabelValues("incorrect"))
	ObserveCheck(false)
	ObserveCheck(true)
	if got := testutil.ToFloat64(answerChecks.WithLabelValues("incorrect")); got != wrong+1 {
		t.Fatalf("expected %v incorrect, got %v", wrong+1, got)
	}
}

func TestHandlerExposesCounters(t *testing.T) {
	ObserveBankRequest("fetched")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `ham_bank_requests_total{outcome="fetched"}`) {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}
