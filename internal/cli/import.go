package cli

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"

	"ham-practice/internal/config"
	"ham-practice/internal/domain"
	"ham-practice/internal/infra/memory"
	pgbanks "ham-practice/internal/infra/postgres"
)

// NewImportCmd loads a bank directory (banks.json plus <id>.json payloads) into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import DIR",
		Short: "Import a bank directory into Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return runImport(cmd.Context(), cfg, args[0])
		},
	}
}

func runImport(ctx context.Context, cfg config.Config, dir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	source, err := memory.LoadDir(dir)
	if err != nil {
		return err
	}
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := importBanks(ctx, source, pgbanks.NewBankProvider(pool))
	if err != nil {
		return err
	}
	log.Printf("imported %d banks from %s", n, dir)
	return nil
}

type bankWriter interface {
	UpsertBank(ctx context.Context, summary domain.BankSummary, order int, bank domain.Bank) error
}

// importBanks writes every catalogue entry in catalogue order. Entries without a
// payload (PDF-only banks) are stored with an empty question list.
func importBanks(ctx context.Context, source memory.BankProvider, dst bankWriter) (int, error) {
	catalogue, err := source.ListBanks(ctx)
	if err != nil {
		return 0, err
	}
	for i, summary := range catalogue {
		bank, err := source.FetchBank(ctx, summary.ID)
		if err != nil && !errors.Is(err, domain.ErrBankNotFound) {
			return i, err
		}
		if bank.Questions == nil {
			bank.Questions = []domain.Question{}
		}
		summary.HasQuestions = len(bank.Questions) > 0
		if err := dst.UpsertBank(ctx, summary, i, bank); err != nil {
			return i, fmt.Errorf("bank %s: %w", summary.ID, err)
		}
	}
	return len(catalogue), nil
}
