package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ham-practice/internal/domain"
	"ham-practice/internal/infra/memory"
)

func newProviderServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo := memory.NewBankRepository(memory.NewStaticBankProvider(sampleBanks(), nil), 0)
	server := httptest.NewServer(NewProviderHandler(repo).Routes(nil))
	t.Cleanup(server.Close)
	return server
}

func TestProviderClientRoundTrip(t *testing.T) {
	server := newProviderServer(t)
	client := NewProviderClient(server.URL+"/", time.Second)

	banks, err := client.ListBanks(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(banks) != 1 || banks[0].ID != "a" || banks[0].QuestionCount != 2 {
		t.Fatalf("unexpected banks %+v", banks)
	}

	bank, err := client.FetchBank(context.Background(), "a")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if bank.Source != "Class A sample" || bank.Questions[1].Answer != "AC" || bank.Questions[0].Options["B"] != "y" {
		t.Fatalf("unexpected bank %+v", bank)
	}
}

func TestProviderClientNotFound(t *testing.T) {
	client := NewProviderClient(newProviderServer(t).URL, time.Second)

	_, err := client.FetchBank(context.Background(), "zzz")
	var fe *domain.FetchError
	if !errors.As(err, &fe) || fe.Status != http.StatusNotFound || fe.BankID != "zzz" {
		t.Fatalf("expected 404 FetchError, got %v", err)
	}
	if !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected ErrBankNotFound in chain, got %v", err)
	}
}

func TestProviderClientFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "boom"},
		{name: "unavailable", status: http.StatusServiceUnavailable, body: ""},
		{name: "bad payload", status: http.StatusOK, body: "{not json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			_, err := NewProviderClient(server.URL, time.Second).FetchBank(context.Background(), "a")
			var fe *domain.FetchError
			if !errors.As(err, &fe) || fe.Status != tc.status {
				t.Fatalf("expected FetchError with status %d, got %v", tc.status, err)
			}
		})
	}
}

func TestProviderClientTransportFailureHasNoStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewProviderClient(url, time.Second).ListBanks(context.Background())
	var fe *domain.FetchError
	if !errors.As(err, &fe) || fe.Status != 0 {
		t.Fatalf("expected status 0, got %v", err)
	}
}

func TestProviderServerSetsCORSHeaders(t *testing.T) {
	server := newProviderServer(t)
	req, _ := http.NewRequest(http.MethodGet, server.URL+"/banks", nil)
	req.Header.Set("Origin", "http://example.com")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected wildcard CORS, got %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

func TestPDFURL(t *testing.T) {
	client := NewProviderClient("https://ham.example.com/api", time.Second)
	cases := []struct {
		summary domain.BankSummary
		want    string
	}{
		{domain.BankSummary{ID: "a"}, "https://ham.example.com/api/pdfs/a"},
		{domain.BankSummary{ID: "b", PDFURL: "/files/b.pdf"}, "https://ham.example.com/files/b.pdf"},
		{domain.BankSummary{ID: "c", PDFURL: "https://cdn.example.com/c.pdf"}, "https://cdn.example.com/c.pdf"},
	}
	for _, tc := range cases {
		if got := client.PDFURL(tc.summary); got != tc.want {
			t.Errorf("PDFURL(%+v) = %q, want %q", tc.summary, got, tc.want)
		}
	}
}

type failingBanks struct{ err error }

func (f failingBanks) GetBank(context.Context, string) (domain.Bank, error) {
	return domain.Bank{}, f.err
}

func (f failingBanks) ListBanks(context.Context) ([]domain.BankSummary, error) {
	return nil, f.err
}

func TestProviderServerHidesInternalErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"missing", domain.AsFetchError("a", domain.ErrBankNotFound), http.StatusNotFound, "bank not found"},
		{"database", errors.New("pgx: connection to 10.0.0.5 refused"), http.StatusBadGateway, "bank unavailable"},
		{"upstream", &domain.FetchError{BankID: "a", Status: 503, Err: errors.New("redis: i/o timeout")}, http.StatusServiceUnavailable, "bank unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(NewProviderHandler(failingBanks{err: tc.err}).Routes(nil))
			defer server.Close()

			resp, err := http.Get(server.URL + "/banks/a")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			defer resp.Body.Close()
			var body errResp
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.StatusCode != tc.status || body.Error != tc.body {
				t.Fatalf("got %d %q, want %d %q", resp.StatusCode, body.Error, tc.status, tc.body)
			}
		})
	}
}
