package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ham-practice/internal/domain"
)

// BankProvider loads bank JSONB payloads and the catalogue from Postgres.
type BankProvider struct {
	pool *pgxpool.Pool
}

func NewBankProvider(pool *pgxpool.Pool) *BankProvider {
	return &BankProvider{pool: pool}
}

func (p *BankProvider) FetchBank(ctx context.Context, bankID string) (domain.Bank, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM banks WHERE id=$1`, bankID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Bank{}, domain.ErrBankNotFound
	}
	if err != nil {
		return domain.Bank{}, fmt.Errorf("load bank: %w", err)
	}
	var bank domain.Bank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.Bank{}, fmt.Errorf("unmarshal bank: %w", err)
	}
	return bank, nil
}

func (p *BankProvider) ListBanks(ctx context.Context) ([]domain.BankSummary, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, label, has_questions, pdf_url,
		CASE WHEN jsonb_typeof(data->'questions') = 'array' THEN jsonb_array_length(data->'questions') ELSE 0 END
		FROM banks ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list banks: %w", err)
	}
	defer rows.Close()

	var banks []domain.BankSummary
	for rows.Next() {
		var b domain.BankSummary
		if err := rows.Scan(&b.ID, &b.Label, &b.HasQuestions, &b.PDFURL, &b.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan bank: %w", err)
		}
		banks = append(banks, b)
	}
	return banks, rows.Err()
}

// UpsertBank stores a bank payload together with its catalogue entry.
func (p *BankProvider) UpsertBank(ctx context.Context, summary domain.BankSummary, order int, bank domain.Bank) error {
	data, err := json.Marshal(bank)
	if err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}
	_, err = p.pool.Exec(ctx, `INSERT INTO banks (id, label, has_questions, pdf_url, sort_order, data, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET label=EXCLUDED.label, has_questions=EXCLUDED.has_questions,
			pdf_url=EXCLUDED.pdf_url, sort_order=EXCLUDED.sort_order, data=EXCLUDED.data, updated_at=now()`,
		summary.ID, summary.Label, summary.HasQuestions, summary.PDFURL, order, string(data))
	if err != nil {
		return fmt.Errorf("upsert bank: %w", err)
	}
	return nil
}
