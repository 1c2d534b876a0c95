package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ham-practice/internal/domain"
)

// ProviderClient reads banks from a remote provider API (GET {base}/banks, GET {base}/banks/{id}).
type ProviderClient struct {
	base   string
	client *http.Client
}

func NewProviderClient(baseURL string, timeout time.Duration) *ProviderClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ProviderClient{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

func (c *ProviderClient) FetchBank(ctx context.Context, bankID string) (domain.Bank, error) {
	var bank domain.Bank
	if err := c.getJSON(ctx, bankID, "/banks/"+url.PathEscape(bankID), &bank); err != nil {
		return domain.Bank{}, err
	}
	return bank, nil
}

func (c *ProviderClient) ListBanks(ctx context.Context) ([]domain.BankSummary, error) {
	var banks []domain.BankSummary
	if err := c.getJSON(ctx, "", "/banks", &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

// PDFURL resolves the summary's PDF link against the provider origin. Summaries
// without a link point at /api/pdfs/{id}.
func (c *ProviderClient) PDFURL(summary domain.BankSummary) string {
	ref := summary.PDFURL
	if ref == "" {
		ref = "/api/pdfs/" + url.PathEscape(summary.ID)
	}
	base, err := url.Parse(c.base + "/")
	if err != nil {
		return ref
	}
	target, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(target).String()
}

// getJSON treats any non-2xx status or undecodable body as a FetchError. Transport
// failures carry status 0.
func (c *ProviderClient) getJSON(ctx context.Context, bankID, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return &domain.FetchError{BankID: bankID, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.FetchError{BankID: bankID, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		cause := fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(body)))
		if resp.StatusCode == http.StatusNotFound {
			cause = fmt.Errorf("%w: %s", domain.ErrBankNotFound, resp.Status)
		}
		return &domain.FetchError{BankID: bankID, Status: resp.StatusCode, Err: cause}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &domain.FetchError{BankID: bankID, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
