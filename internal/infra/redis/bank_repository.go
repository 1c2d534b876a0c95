package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"ham-practice/internal/domain"
	"ham-practice/internal/metrics"
)

// BankProvider fetches bank content from its source (HTTP provider, Postgres, files).
type BankProvider interface {
	FetchBank(ctx context.Context, bankID string) (domain.Bank, error)
	ListBanks(ctx context.Context) ([]domain.BankSummary, error)
}

// BankRepository caches bank payloads in Redis so several instances share one copy,
// and falls back to the provider on a miss. Payloads are stored as:
//
//	SET bank:{bankID}:payload <json>
type BankRepository struct {
	client   *redis.Client
	provider BankProvider
	ttl      time.Duration
	sf       singleflight.Group
}

func NewBankRepository(client *redis.Client, provider BankProvider, ttl time.Duration) *BankRepository {
	return &BankRepository{client: client, provider: provider, ttl: ttl}
}

func (r *BankRepository) GetBank(ctx context.Context, bankID string) (domain.Bank, error) {
	if bank, ok := r.lookup(ctx, bankID); ok {
		metrics.ObserveBankRequest("hit")
		return bank, nil
	}

	// led is only set in the goroutine whose closure ran the flight.
	led := false
	result, err, _ := r.sf.Do(bankID, func() (interface{}, error) {
		led = true
		// Re-check cache in case another instance filled it.
		if bank, ok := r.lookup(ctx, bankID); ok {
			metrics.ObserveBankRequest("hit")
			return bank, nil
		}

		bank, err := r.provider.FetchBank(ctx, bankID)
		if err != nil {
			metrics.ObserveBankRequest("failed")
			return domain.Bank{}, domain.AsFetchError(bankID, err)
		}
		metrics.ObserveBankRequest("fetched")

		data, err := json.Marshal(bank)
		if err == nil {
			err = r.client.Set(ctx, r.payloadKey(bankID), data, r.ttlWithJitter()).Err()
		}
		if err != nil {
			log.Printf("cache bank %s: %v", bankID, err)
		}
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

func (r *BankRepository) ListBanks(ctx context.Context) ([]domain.BankSummary, error) {
	banks, err := r.provider.ListBanks(ctx)
	if err != nil {
		return nil, domain.AsFetchError("", err)
	}
	return banks, nil
}

func (r *BankRepository) lookup(ctx context.Context, bankID string) (domain.Bank, bool) {
	raw, err := r.client.Get(ctx, r.payloadKey(bankID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("read cached bank %s: %v", bankID, err)
		}
		return domain.Bank{}, false
	}
	var bank domain.Bank
	if err := json.Unmarshal(raw, &bank); err != nil {
		log.Printf("decode cached bank %s: %v", bankID, err)
		return domain.Bank{}, false
	}
	return bank, true
}

func (r *BankRepository) payloadKey(bankID string) string {
	return "bank:" + bankID + ":payload"
}

// ttlWithJitter returns 0 (no expiry) for a non-positive ttl.
func (r *BankRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(rand.Int63n(jitterMax+1))
}
