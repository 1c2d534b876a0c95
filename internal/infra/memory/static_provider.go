package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ham-practice/internal/domain"
)

const catalogueFile = "banks.json"

// StaticBankProvider serves banks from memory (useful for tests, demos and file-based deployments).
type StaticBankProvider struct {
	catalogue []domain.BankSummary
	banks     map[string]domain.Bank
}

// NewStaticBankProvider builds a provider over banks. A nil catalogue is derived from
// the banks themselves, sorted by ID.
func NewStaticBankProvider(banks map[string]domain.Bank, catalogue []domain.BankSummary) *StaticBankProvider {
	if catalogue == nil {
		for id, bank := range banks {
			catalogue = append(catalogue, domain.BankSummary{
				ID:            id,
				Label:         id,
				HasQuestions:  len(bank.Questions) > 0,
				QuestionCount: len(bank.Questions),
				PDFURL:        "/api/pdfs/" + id,
			})
		}
		sort.Slice(catalogue, func(i, j int) bool { return catalogue[i].ID < catalogue[j].ID })
	}
	return &StaticBankProvider{catalogue: catalogue, banks: banks}
}

// LoadDir reads every <id>.json bank payload in dir plus an optional banks.json catalogue.
func LoadDir(dir string) (*StaticBankProvider, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read bank dir: %w", err)
	}

	banks := make(map[string]domain.Bank)
	var catalogue []domain.BankSummary
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		path := filepath.Join(dir, name)
		if name == catalogueFile {
			if err := readJSON(path, &catalogue); err != nil {
				return nil, err
			}
			continue
		}
		var bank domain.Bank
		if err := readJSON(path, &bank); err != nil {
			return nil, err
		}
		banks[strings.TrimSuffix(name, ".json")] = bank
	}
	return NewStaticBankProvider(banks, catalogue), nil
}

func readJSON(path string, v any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (p *StaticBankProvider) FetchBank(_ context.Context, bankID string) (domain.Bank, error) {
	if bank, ok := p.banks[bankID]; ok {
		return bank, nil
	}
	return domain.Bank{}, domain.ErrBankNotFound
}

func (p *StaticBankProvider) ListBanks(_ context.Context) ([]domain.BankSummary, error) {
	return append([]domain.BankSummary(nil), p.catalogue...), nil
}
