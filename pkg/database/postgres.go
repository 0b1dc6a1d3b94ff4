package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func NewPostgres(config *PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// RedemptionLedgerSchema creates the tables backing the promo redemption ledger.
var RedemptionLedgerSchema = []string{
	`CREATE TABLE IF NOT EXISTS promo_usage (
		promo_id    TEXT PRIMARY KEY,
		usage_count INTEGER NOT NULL DEFAULT 0,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS promo_customer_usage (
		promo_id    TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		usage_count INTEGER NOT NULL DEFAULT 0,
		last_used   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (promo_id, customer_id)
	)`,
	`CREATE TABLE IF NOT EXISTS promo_redemptions (
		order_id    TEXT PRIMARY KEY,
		promo_id    TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		code        TEXT NOT NULL,
		discount    NUMERIC(12,2) NOT NULL,
		redeemed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

func MigratePostgres(ctx context.Context, db *sql.DB) error {
	for _, stmt := range RedemptionLedgerSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply ledger schema: %w", err)
		}
	}
	return nil
}
