package app

import (
	"context"
	"fmt"
	"sync"

	"ham-practice/internal/domain"
)

// seqSource replays a fixed sequence of draws.
type seqSource struct {
	vals []float64
	i    int
}

func (s *seqSource) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

type mapStore struct {
	mu     sync.Mutex
	values map[string]string
	err    error
}

func newMapStore() *mapStore {
	return &mapStore{values: make(map[string]string)}
}

func (s *mapStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	v, ok := s.values[key]
	if !ok {
		return "", domain.ErrKeyNotFound
	}
	return v, nil
}

func (s *mapStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.values[key] = value
	return nil
}

type fakeBanks struct {
	mu    sync.Mutex
	banks map[string]domain.Bank
	list  []domain.BankSummary
	err   error
	calls int
}

func (f *fakeBanks) GetBank(_ context.Context, bankID string) (domain.Bank, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.Bank{}, f.err
	}
	bank, ok := f.banks[bankID]
	if !ok {
		return domain.Bank{}, domain.ErrBankNotFound
	}
	return bank, nil
}

func (f *fakeBanks) ListBanks(context.Context) ([]domain.BankSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

// makeBank builds a bank of single-answer questions s001.. followed by multi-answer
// questions m001...
func makeBank(singles, multis int) domain.Bank {
	var qs []domain.Question
	for i := 1; i <= singles; i++ {
		qs = append(qs, domain.Question{
			ID:      fmt.Sprintf("s%03d", i),
			Prompt:  "single",
			Options: map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
			Answer:  "A",
		})
	}
	for i := 1; i <= multis; i++ {
		qs = append(qs, domain.Question{
			ID:      fmt.Sprintf("m%03d", i),
			Prompt:  "multi",
			Options: map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
			Answer:  "BD",
		})
	}
	return domain.Bank{Source: "generated", Count: len(qs), Questions: qs}
}

func questionIDs(qs []domain.Question) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}
