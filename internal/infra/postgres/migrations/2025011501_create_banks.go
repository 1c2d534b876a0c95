package migrations

import (
	"context"
	"database/sql"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_banks.sql
var createBanksSQL string

// Migrations is the ordered schema history of the bank store.
var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(createBanks, dropBanks)
}

// createBanks runs the table and index statements atomically.
func createBanks(ctx context.Context, db *bun.DB) error {
	return db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.ExecContext(ctx, createBanksSQL)
		return err
	})
}

func dropBanks(ctx context.Context, db *bun.DB) error {
	_, err := db.ExecContext(ctx, `DROP INDEX IF EXISTS banks_sort_order_idx; DROP TABLE IF EXISTS banks`)
	return err
}
