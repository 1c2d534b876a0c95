package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ham-practice/internal/domain"
	"ham-practice/internal/metrics"
)

// BankProvider fetches bank content from its source (HTTP provider, Postgres, files).
type BankProvider interface {
	FetchBank(ctx context.Context, bankID string) (domain.Bank, error)
	ListBanks(ctx context.Context) ([]domain.BankSummary, error)
}

// BankRepository caches bank payloads and collapses concurrent fetches of the same
// bank into one provider call. Failures are never cached.
type BankRepository struct {
	provider BankProvider
	ttl      time.Duration // <= 0 keeps entries for the process lifetime
	clock    func() time.Time
	sf       singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedBank
}

type cachedBank struct {
	bank      domain.Bank
	expiresAt time.Time // zero means never
}

func (c cachedBank) fresh(now time.Time) bool {
	return c.expiresAt.IsZero() || c.expiresAt.After(now)
}

func NewBankRepository(provider BankProvider, ttl time.Duration) *BankRepository {
	return &BankRepository{
		provider: provider,
		ttl:      ttl,
		clock:    time.Now,
		cache:    make(map[string]cachedBank),
	}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.Bank, error) {
	if bank, ok := r.lookup(bankID); ok {
		metrics.ObserveBankRequest("hit")
		return bank, nil
	}

	// led is only set in the goroutine whose closure ran the flight.
	led := false
	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		led = true
		// Re-check cache in case a flight finished between lookup and Do.
		if bank, ok := r.lookup(bankID); ok {
			metrics.ObserveBankRequest("hit")
			return bank, nil
		}

		bank, err := r.provider.FetchBank(ctx, bankID)
		if err != nil {
			metrics.ObserveBankRequest("failed")
			return domain.Bank{}, domain.AsFetchError(bankID, err)
		}
		metrics.ObserveBankRequest("fetched")

		r.mu.Lock()
		r.cache[bankID] = cachedBank{bank: bank, expiresAt: r.expiry()}
		r.mu.Unlock()
		return bank, nil
	})
	if !led {
		metrics.ObserveBankRequest("shared")
	}
	if err != nil {
		return domain.Bank{}, err
	}
	return result.(domain.Bank), nil
}

// ListBanks is not cached: the catalogue is small and carries live question counts.
func (r *BankRepository) ListBanks(ctx context.Context) ([]domain.BankSummary, error) {
	banks, err := r.provider.ListBanks(ctx)
	if err != nil {
		return nil, domain.AsFetchError("", err)
	}
	return banks, nil
}

func (r *BankRepository) lookup(bankID string) (domain.Bank, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[bankID]
	if !ok || !entry.fresh(r.clock()) {
		return domain.Bank{}, false
	}
	return entry.bank, true
}

func (r *BankRepository) expiry() time.Time {
	if r.ttl <= 0 {
		return time.Time{}
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.clock().Add(r.ttl + time.Duration(rand.Int63n(jitterMax+1)))
}
